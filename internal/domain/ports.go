package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Catalog interface {
	ListCities(ctx context.Context, lang string) ([]City, error)
	ListHotelsByCity(ctx context.Context, city, lang string) ([]Hotel, error)
	ListRoomTypes(ctx context.Context) ([]RoomType, error)
	ListCompanions(ctx context.Context, employeeID, lang string) ([]Companion, error)
}

type PolicyProvider interface {
	GetPolicy(ctx context.Context, employeeID string) (Policy, error)
}

// PricingClient returns the raw pricing payload; date nil means current pricing.
type PricingClient interface {
	GetRoomPrices(ctx context.Context, hotelID string, date *time.Time) (json.RawMessage, error)
}

type LastSelection interface {
	GetLastHotels(ctx context.Context, employeeID, lang string) ([]LastHotel, error)
	GetLastCompanions(ctx context.Context, employeeID, lang string) ([]Companion, error)
}

type ReviewAuthority interface {
	Review(ctx context.Context, employeeID, companionIDs string, slots []SubmittableSlot, lang string) (ReviewResult, error)
}

type SubmissionAuthority interface {
	Submit(ctx context.Context, employeeID, companionIDs string, slots []SubmittableSlot) (SubmitResult, error)
	CheckSubmission(ctx context.Context, employeeID, lang string) (CheckResult, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// PricingWarmer refreshes or drops a shared pricing entry ahead of use.
type PricingWarmer interface {
	Refresh(ctx context.Context, hotelID string, date *time.Time) (json.RawMessage, error)
	Evict(ctx context.Context, hotelID string, date *time.Time) error
}
