package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"family_trip/internal/domain"
)

var (
	_ domain.PricingClient = (*PricingTier)(nil)
	_ domain.PricingWarmer = (*PricingTier)(nil)
)

// PricingKey is "pricing:<hotel>" for current pricing and
// "pricing:<hotel>:YYYY-MM-DD" for a given arrival date.
func PricingKey(hotelID string, date *time.Time) string {
	if date == nil {
		return "pricing:" + hotelID
	}
	return "pricing:" + hotelID + ":" + date.Format(domain.DateLayout)
}

// PricingTier shares raw pricing payloads across sessions and replicas. Redis
// errors never fail a lookup; they fall through to the upstream client.
type PricingTier struct {
	upstream domain.PricingClient
	cache    domain.Cache
	ttlSec   int
}

func NewPricingTier(upstream domain.PricingClient, cache domain.Cache, ttl time.Duration) *PricingTier {
	return &PricingTier{upstream: upstream, cache: cache, ttlSec: int(ttl.Seconds())}
}

func (p *PricingTier) GetRoomPrices(ctx context.Context, hotelID string, date *time.Time) (json.RawMessage, error) {
	key := PricingKey(hotelID, date)
	var raw json.RawMessage
	ok, err := p.cache.Get(ctx, key, &raw)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("pricing tier read failed")
	}
	if ok && err == nil {
		return raw, nil
	}
	return p.Refresh(ctx, hotelID, date)
}

// Refresh fetches upstream and overwrites the shared entry.
func (p *PricingTier) Refresh(ctx context.Context, hotelID string, date *time.Time) (json.RawMessage, error) {
	raw, err := p.upstream.GetRoomPrices(ctx, hotelID, date)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := p.cache.Set(ctx, PricingKey(hotelID, date), raw, p.ttlSec); err != nil {
		log.Warn().Err(err).Str("hotel_id", hotelID).Msg("pricing tier write failed")
	}
	return raw, nil
}

func (p *PricingTier) Evict(ctx context.Context, hotelID string, date *time.Time) error {
	return p.cache.Del(ctx, PricingKey(hotelID, date))
}
