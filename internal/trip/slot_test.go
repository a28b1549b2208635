package trip_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

var roomTypes = []domain.RoomTypeKey{"S", "D", "F"}

func hotel(id, rooms, beds string) domain.Hotel {
	return domain.Hotel{
		ID:           id,
		Name:         "Hotel " + id,
		RoomTypesRaw: rooms,
		ExtraBedsRaw: beds,
		Capabilities: trip.ParseCapabilities(rooms, beds),
	}
}

func pricing(prices map[domain.RoomTypeKey]int64) domain.RoomPricing {
	p := domain.RoomPricing{PerRoomType: map[domain.RoomTypeKey]decimal.Decimal{}}
	for k, v := range prices {
		p.PerRoomType[k] = decimal.NewFromInt(v)
	}
	return p
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func filledSlot() trip.Slot {
	s := trip.NewSlots(1)[0]
	s = trip.SetCity(s, "BKK")
	s = trip.SelectHotel(s, hotel("H1", "S,D", "S:1,D:2"), roomTypes)
	s = trip.SetArrivalDate(s, day(2025, 11, 5), pricing(map[domain.RoomTypeKey]int64{"S": 500, "D": 800}))
	s = trip.SetRoomCount(s, "D", 2)
	return s
}

func TestSetCity_ClearsSelection(t *testing.T) {
	s := trip.WithCosts(filledSlot(), decimal.NewFromInt(10), decimal.NewFromInt(5))

	out := trip.SetCity(s, "CNX")
	if out.City != "CNX" || out.Hotel != nil || out.ArrivalDate != nil || out.HasCosts() {
		t.Fatalf("expected cleared slot, got %+v", out)
	}
	if len(out.Rooms) != 0 || len(out.ExtraBeds) != 0 {
		t.Fatalf("expected no counts, got rooms=%v beds=%v", out.Rooms, out.ExtraBeds)
	}
	// input untouched
	if s.Hotel == nil || s.Rooms["D"] != 2 {
		t.Fatalf("input slot was mutated")
	}
}

func TestSelectHotel_EmptyCapabilities(t *testing.T) {
	s := filledSlot()
	out := trip.SelectHotel(s, hotel("H2", "", "S:3,D:3"), roomTypes)

	for _, k := range roomTypes {
		if out.Rooms[k] != 0 || out.MaxExtraBeds[k] != 0 || out.ExtraBeds[k] != 0 {
			t.Fatalf("%s: expected zero counts and capacity, got rooms=%d max=%d", k, out.Rooms[k], out.MaxExtraBeds[k])
		}
	}
}

func TestSelectHotel_PreservesSupportedCounts(t *testing.T) {
	s := trip.SetExtraBedCount(filledSlot(), "D", 4)
	out := trip.SelectHotel(s, hotel("H3", "D", "D:1"), roomTypes)

	if out.Rooms["D"] != 2 {
		t.Fatalf("expected D rooms preserved, got %d", out.Rooms["D"])
	}
	if out.ExtraBeds["D"] != 2 {
		t.Fatalf("expected D extra beds clamped to 1x2, got %d", out.ExtraBeds["D"])
	}
	if out.Rooms["S"] != 0 || out.MaxExtraBeds["S"] != 0 {
		t.Fatalf("S is not offered and must be zero")
	}
}

func TestSetArrivalDate_ZeroesUnpricedRoomTypes(t *testing.T) {
	s := trip.SetRoomCount(filledSlot(), "S", 1)
	s = trip.SetExtraBedCount(s, "S", 1)

	out := trip.SetArrivalDate(s, day(2025, 11, 6), pricing(map[domain.RoomTypeKey]int64{"D": 900}))
	if out.Rooms["S"] != 0 || out.ExtraBeds["S"] != 0 {
		t.Fatalf("S has no price on this date, got rooms=%d beds=%d", out.Rooms["S"], out.ExtraBeds["S"])
	}
	if out.Rooms["D"] != 2 {
		t.Fatalf("D keeps its count, got %d", out.Rooms["D"])
	}
	if got := out.ArrivalDate.Format(domain.DateLayout); got != "2025-11-06" {
		t.Fatalf("unexpected date %s", got)
	}
}

func TestSetRoomCount_CascadingReset(t *testing.T) {
	s := trip.SetExtraBedCount(filledSlot(), "D", 3)
	if s.ExtraBeds["D"] != 3 {
		t.Fatalf("setup: expected 3 extra beds, got %d", s.ExtraBeds["D"])
	}

	out := trip.SetRoomCount(s, "D", 1)
	if out.ExtraBeds["D"] != 0 {
		t.Fatalf("lowering rooms must reset extra beds, got %d", out.ExtraBeds["D"])
	}
	if out.Rooms["D"] != 1 {
		t.Fatalf("unexpected rooms %d", out.Rooms["D"])
	}

	up := trip.SetRoomCount(trip.SetExtraBedCount(s, "D", 2), "D", 3)
	if up.ExtraBeds["D"] != 2 {
		t.Fatalf("raising rooms keeps extra beds, got %d", up.ExtraBeds["D"])
	}
}

func TestSetRoomCount_ClampsAndRejectsUnsupported(t *testing.T) {
	s := filledSlot()
	if got := trip.SetRoomCount(s, "D", -4).Rooms["D"]; got != 0 {
		t.Fatalf("negative count must clamp to 0, got %d", got)
	}
	if got := trip.SetRoomCount(s, "F", 2).Rooms["F"]; got != 0 {
		t.Fatalf("F is not offered, got %d", got)
	}
}

func TestSetExtraBedCount_Bounds(t *testing.T) {
	s := filledSlot()
	for _, v := range []int{-1, 0, 1, 4, 5, 100} {
		out := trip.SetExtraBedCount(s, "D", v)
		for _, k := range out.RoomKeys() {
			limit := out.MaxExtraBeds[k] * out.Rooms[k]
			if out.ExtraBeds[k] < 0 || out.ExtraBeds[k] > limit {
				t.Fatalf("v=%d key=%s: %d outside [0,%d]", v, k, out.ExtraBeds[k], limit)
			}
		}
	}
	if got := trip.SetExtraBedCount(s, "D", 100).ExtraBeds["D"]; got != 4 {
		t.Fatalf("expected clamp to 2 beds x 2 rooms, got %d", got)
	}
}

func TestMutationsClearCosts(t *testing.T) {
	s := trip.WithCosts(filledSlot(), decimal.NewFromInt(1000), decimal.NewFromInt(200))
	muts := map[string]trip.Slot{
		"hotel": trip.SelectHotel(s, hotel("H1", "S,D", "S:1,D:2"), roomTypes),
		"date":  trip.SetArrivalDate(s, day(2025, 11, 7), pricing(map[domain.RoomTypeKey]int64{"D": 1})),
		"rooms": trip.SetRoomCount(s, "D", 3),
		"beds":  trip.SetExtraBedCount(s, "D", 1),
	}
	for name, out := range muts {
		if out.HasCosts() {
			t.Fatalf("%s: costs must be cleared", name)
		}
	}
	if !s.HasCosts() {
		t.Fatalf("input slot lost its costs")
	}
}
