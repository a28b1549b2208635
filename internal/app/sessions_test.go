package app_test

import (
	"context"
	"errors"
	"testing"

	"family_trip/internal/app"
	"family_trip/internal/domain"
)

func TestSessions_GetUnknown(t *testing.T) {
	m := app.NewSessions(newFixture().deps())
	if _, err := m.Get("nobody"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestSessions_OpenRehydratesLastRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.last = fakeLast{
		hotels: []domain.LastHotel{
			{City: "BKK", HotelID: "H1", Date: "2025-11-05", RoomsData: "S,1,1|D,2,9"},
			{City: "CNX", HotelID: "GONE", Date: "2025-11-07", RoomsData: "F,1,0"},
		},
		companions: []domain.Companion{{ID: "c1"}, {ID: "left-company"}, {ID: "c2"}, {ID: "c3"}},
	}
	m := app.NewSessions(f.deps())
	s, err := m.Open(ctx, "E100", "en")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got, _ := m.Get("E100"); got != s {
		t.Fatalf("session not registered")
	}

	slots := s.Slots()
	first := slots[0]
	if first.Hotel == nil || first.Hotel.ID != "H1" || first.ArrivalDate == nil {
		t.Fatalf("first slot not restored: %+v", first)
	}
	if first.Rooms["S"] != 1 || first.ExtraBeds["S"] != 1 {
		t.Fatalf("single rooms not restored: %+v", first.Rooms)
	}
	// double allows 2 beds per room: 9 clamps to 4
	if first.Rooms["D"] != 2 || first.ExtraBeds["D"] != 4 {
		t.Fatalf("double rooms = %d beds = %d", first.Rooms["D"], first.ExtraBeds["D"])
	}

	// unknown hotel keeps only the city
	if slots[1].City != "CNX" || slots[1].Hotel != nil {
		t.Fatalf("second slot: %+v", slots[1])
	}

	// unknown companions are skipped, the cap of 2 stops the rest
	if v := s.View(); v.CompanionsStr != "c1|c2" {
		t.Fatalf("companions = %q", v.CompanionsStr)
	}
	if s.State() != app.StateUnreviewed {
		t.Fatalf("rehydrated session must start unreviewed")
	}
}

func TestSessions_OpenReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	m := app.NewSessions(newFixture().deps())
	a, _ := m.Open(ctx, "E100", "en")
	_ = a.SetCity(0, "BKK")
	b, _ := m.Open(ctx, "E100", "en")
	if a == b || b.Slots()[0].City != "" {
		t.Fatalf("expected a fresh session")
	}
}

func TestSessions_RehydrateDropsRoomsWithoutPrice(t *testing.T) {
	f := newFixture()
	f.pricing.byKey["H1|2025-11-05"] = `{"D": 800}`
	f.last = fakeLast{hotels: []domain.LastHotel{
		{City: "BKK", HotelID: "H1", Date: "2025-11-05", RoomsData: "S,2,1|D,1,0"},
	}}
	s, err := app.NewSessions(f.deps()).Open(context.Background(), "E100", "en")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sl := s.Slots()[0]
	if sl.Rooms["S"] != 0 || sl.ExtraBeds["S"] != 0 {
		t.Fatalf("single is no longer priced on that date: rooms=%d beds=%d", sl.Rooms["S"], sl.ExtraBeds["S"])
	}
	if sl.Rooms["D"] != 1 {
		t.Fatalf("double should be restored, got %d", sl.Rooms["D"])
	}
}
