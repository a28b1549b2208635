package trip_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

func TestNormalizePricing_Rows(t *testing.T) {
	got := trip.NormalizePricing([]byte(`[{"ROOM_TYPE":"S","ROOM_PRICE":500,"EXTRA_BED_PRICE":"100"}]`))

	if len(got.PerRoomType) != 1 || !got.PerRoomType["S"].Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected prices: %+v", got.PerRoomType)
	}
	if got.ExtraBedPrice == nil || *got.ExtraBedPrice != "100" {
		t.Fatalf("expected extra bed price 100, got %v", got.ExtraBedPrice)
	}
}

func TestNormalizePricing_FlatDropsNonPositive(t *testing.T) {
	got := trip.NormalizePricing([]byte(`{"S":0}`))
	if len(got.PerRoomType) != 0 {
		t.Fatalf("expected empty prices, got %+v", got.PerRoomType)
	}
	if got.ExtraBedPrice != nil {
		t.Fatalf("expected no extra bed price")
	}
}

func TestNormalizePricing_FlatWithExtraBed(t *testing.T) {
	got := trip.NormalizePricing([]byte(`{"S":"1,250.50","D":-3,"T":"n/a","extraBedPrice":"10%"}`))

	if len(got.PerRoomType) != 1 {
		t.Fatalf("expected only S, got %+v", got.PerRoomType)
	}
	if !got.PerRoomType["S"].Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("unexpected S price: %s", got.PerRoomType["S"])
	}
	if got.ExtraBedPrice == nil || *got.ExtraBedPrice != "10%" {
		t.Fatalf("expected percentage descriptor passed through, got %v", got.ExtraBedPrice)
	}
}

func TestNormalizePricing_Envelope(t *testing.T) {
	got := trip.NormalizePricing([]byte(`{"data":[{"room_type":"D","price":"800"},{"room_type":"F"}],"extra_bed_price":75}`))

	if _, ok := got.Price("D"); !ok {
		t.Fatalf("expected D price, got %+v", got.PerRoomType)
	}
	if _, ok := got.Price(domain.RoomTypeKey("F")); ok {
		t.Fatalf("F has no price and must be absent")
	}
	if got.ExtraBedPrice == nil || *got.ExtraBedPrice != "75" {
		t.Fatalf("expected top-level extra bed price, got %v", got.ExtraBedPrice)
	}
}

func TestNormalizePricing_Malformed(t *testing.T) {
	for _, in := range []string{``, `null`, `"oops"`, `{broken`, `[1,2,3]`, `42`} {
		got := trip.NormalizePricing([]byte(in))
		if got.PerRoomType == nil || len(got.PerRoomType) != 0 || got.ExtraBedPrice != nil {
			t.Fatalf("input %q: expected empty canonical record, got %+v", in, got)
		}
	}
}
