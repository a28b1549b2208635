package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"family_trip/internal/app"
	"family_trip/internal/domain"
)

func TestCatalog_HotelsCacheMissThenHit(t *testing.T) {
	ctx := context.Background()
	src := newFixture().catalog
	cache := &fakeCache{}
	svc := app.NewCatalogService(src, cache, 5*time.Minute)

	hs, err := svc.ListHotelsByCity(ctx, "BKK", "EN")
	if err != nil || len(hs) != 2 {
		t.Fatalf("first call: %v, %d hotels", err, len(hs))
	}
	if _, ok := cache.store["hotels:BKK:en"]; !ok {
		t.Fatalf("expected hotels cached under lowercased lang")
	}

	hs, err = svc.ListHotelsByCity(ctx, "BKK", "en")
	if err != nil || len(hs) != 2 {
		t.Fatalf("second call: %v", err)
	}
	if src.hotelCalls != 1 {
		t.Fatalf("expected provider hit once, got %d", src.hotelCalls)
	}
	if !hs[0].Capabilities.For("D").Supported || hs[0].Capabilities.For("D").MaxExtraBeds != 2 {
		t.Fatalf("capabilities lost through cache: %+v", hs[0].Capabilities)
	}
}

func TestCatalog_FindHotel(t *testing.T) {
	ctx := context.Background()
	svc := app.NewCatalogService(newFixture().catalog, &fakeCache{}, time.Minute)

	h, err := svc.FindHotel(ctx, "CNX", "H3", "en")
	if err != nil || h.ID != "H3" {
		t.Fatalf("find: %v %+v", err, h)
	}
	if _, err := svc.FindHotel(ctx, "BKK", "H3", "en"); !errors.Is(err, domain.ErrUnknownHotel) {
		t.Fatalf("expected unknown hotel, got %v", err)
	}
}

func TestCatalog_CitiesAndRoomTypesCached(t *testing.T) {
	ctx := context.Background()
	cache := &fakeCache{}
	svc := app.NewCatalogService(newFixture().catalog, cache, time.Minute)

	if cs, err := svc.ListCities(ctx, "th"); err != nil || len(cs) != 2 {
		t.Fatalf("cities: %v", err)
	}
	if rts, err := svc.ListRoomTypes(ctx); err != nil || len(rts) != 3 {
		t.Fatalf("room types: %v", err)
	}
	for _, k := range []string{"cities:th", "room_types"} {
		if _, ok := cache.store[k]; !ok {
			t.Fatalf("missing cache key %s", k)
		}
	}
}
