package trip_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

func withCity(city string) trip.Slot { return trip.SetCity(trip.NewSlots(1)[0], city) }

// hasGap is the reference definition: some empty-city slot precedes a non-empty one.
func hasGap(slots []trip.Slot) bool {
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].City == "" && slots[j].City != "" {
				return true
			}
		}
	}
	return false
}

func TestValidateOrdering_MatchesGapDefinition(t *testing.T) {
	// every city pattern over 4 slots
	for mask := 0; mask < 16; mask++ {
		slots := trip.NewSlots(4)
		for i := 0; i < 4; i++ {
			if mask&(1<<i) != 0 {
				slots[i] = withCity("C")
			}
		}
		err := trip.ValidateOrdering(slots)
		if (err != nil) != hasGap(slots) {
			t.Fatalf("mask %04b: err=%v gap=%v", mask, err, hasGap(slots))
		}
		var oe *trip.OrderingError
		if err != nil && !errors.As(err, &oe) {
			t.Fatalf("mask %04b: expected *OrderingError, got %T", mask, err)
		}
	}
}

func TestCollectSubmittable_SingleCompleteSlot(t *testing.T) {
	slots := trip.NewSlots(3)
	slots[0] = filledSlot()

	got := trip.CollectSubmittable(slots)
	want := []domain.SubmittableSlot{{
		City:      "BKK",
		HotelID:   "H1",
		HotelName: "Hotel H1",
		Date:      "2025-11-05",
		RoomsData: "D,2,0",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestCollectSubmittable_GapYieldsNothing(t *testing.T) {
	slots := trip.NewSlots(3)
	slots[1] = filledSlot()

	if err := trip.ValidateOrdering(slots); err == nil {
		t.Fatalf("expected ordering violation")
	}
	if got := trip.CollectSubmittable(slots); len(got) != 0 {
		t.Fatalf("expected nothing submittable, got %+v", got)
	}
}

func TestCollectSubmittable_SkipsIncomplete(t *testing.T) {
	slots := []trip.Slot{filledSlot(), withCity("CNX"), trip.NewSlots(1)[0]}
	if got := trip.CollectSubmittable(slots); len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}
}

func TestIsComplete(t *testing.T) {
	full := filledSlot()
	if !trip.IsComplete(full) {
		t.Fatalf("filled slot should be complete")
	}
	if trip.IsComplete(trip.SetRoomCount(full, "D", 0)) {
		t.Fatalf("no rooms: incomplete")
	}
	noDate := full
	noDate.ArrivalDate = nil
	if trip.IsComplete(noDate) {
		t.Fatalf("no date: incomplete")
	}
	if trip.IsComplete(withCity("BKK")) {
		t.Fatalf("no hotel: incomplete")
	}
}

func TestDefects_ReportsEachPartialSlot(t *testing.T) {
	noDate := trip.SelectHotel(withCity("HKT"), hotel("H9", "S", ""), roomTypes)
	noRooms := trip.SetRoomCount(filledSlot(), "D", 0)
	slots := []trip.Slot{filledSlot(), withCity("CNX"), noDate, noRooms}

	got := trip.Defects(slots)
	if len(got) != 3 {
		t.Fatalf("expected 3 defects, got %q", got)
	}
	for i, want := range []string{"destination 2: city selected but no hotel", "destination 3: hotel selected but no arrival date", "destination 4: hotel selected but no rooms"} {
		if got[i] != want {
			t.Fatalf("defect %d: got %q want %q", i, got[i], want)
		}
	}

	gap := []trip.Slot{trip.NewSlots(1)[0], filledSlot()}
	if d := trip.Defects(gap); len(d) != 1 || !strings.Contains(d[0], "fill destinations in order") {
		t.Fatalf("expected ordering defect, got %q", d)
	}
}

func TestRoomsDataRoundTrip(t *testing.T) {
	s := trip.SetRoomCount(filledSlot(), "S", 1)
	s = trip.SetExtraBedCount(s, "D", 3)

	enc := trip.EncodeRoomsData(s)
	if enc != "S,1,0|D,2,3" {
		t.Fatalf("unexpected encoding %q", enc)
	}
	got := trip.ParseRoomsData(enc + "|bad|,1,1|X,-2,0")
	want := []trip.RoomSelection{{Key: "S", Rooms: 1}, {Key: "D", Rooms: 2, ExtraBeds: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}
