package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"family_trip/internal/adapters/observability"
	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

const (
	defaultPricingFanout = 8
	sharedFetchTimeout   = 30 * time.Second
)

// PricingKey is the single cache key schema: "<hotel>" for current pricing,
// "<hotel>|YYYY-MM-DD" for a specific arrival date.
func PricingKey(hotelID string, date *time.Time) string {
	if date == nil {
		return hotelID
	}
	return hotelID + "|" + date.Format(domain.DateLayout)
}

// PricingCache holds normalized room pricing for one trip session. Entries are
// overwritten on refresh but never evicted; failed fetches leave no entry.
type PricingCache struct {
	client domain.PricingClient
	fanout int

	mu      sync.RWMutex
	entries map[string]domain.RoomPricing

	inflight singleflight.Group
}

func NewPricingCache(client domain.PricingClient, fanout int) *PricingCache {
	if fanout <= 0 {
		fanout = defaultPricingFanout
	}
	return &PricingCache{client: client, fanout: fanout, entries: map[string]domain.RoomPricing{}}
}

func (c *PricingCache) Get(key string) (domain.RoomPricing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *PricingCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *PricingCache) Put(key string, v domain.RoomPricing) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
}

func (c *PricingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolve returns cached pricing or fetches it. A failed fetch degrades to an
// empty record, so every room type reads as unavailable.
func (c *PricingCache) Resolve(ctx context.Context, hotelID string, date *time.Time) domain.RoomPricing {
	key := PricingKey(hotelID, date)
	if v, ok := c.Get(key); ok {
		observability.ObserveCache("memory", "hit")
		return v
	}
	observability.ObserveCache("memory", "miss")
	p, err := c.fetch(ctx, key, hotelID, date)
	if err != nil {
		return trip.NormalizePricing(nil)
	}
	c.Put(key, p)
	return p
}

// BatchLoadMonth prefetches every day of the month not yet cached. Fetches run
// concurrently; successes are merged in a single commit once all have resolved.
// It returns how many days were added.
func (c *PricingCache) BatchLoadMonth(ctx context.Context, hotelID string, year int, month time.Month) int {
	type pending struct {
		key  string
		date time.Time
	}
	var missing []pending
	seen := map[string]bool{}
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		day := d
		key := PricingKey(hotelID, &day)
		if seen[key] || c.Has(key) {
			continue
		}
		seen[key] = true
		missing = append(missing, pending{key: key, date: day})
	}
	if len(missing) == 0 {
		return 0
	}

	results := make([]*domain.RoomPricing, len(missing))
	var g errgroup.Group
	g.SetLimit(c.fanout)
	for i, m := range missing {
		g.Go(func() error {
			p, err := c.fetch(ctx, m.key, hotelID, &m.date)
			if err == nil {
				results[i] = &p
			}
			return nil // failures only leave the key absent
		})
	}
	_ = g.Wait()

	added := 0
	c.mu.Lock()
	for i, r := range results {
		if r != nil {
			c.entries[missing[i].key] = *r
			added++
		}
	}
	c.mu.Unlock()

	log.Debug().Str("hotel_id", hotelID).Int("year", year).Int("month", int(month)).
		Int("requested", len(missing)).Int("added", added).Msg("month pricing loaded")
	return added
}

// fetch collapses concurrent requests for the same key into one call. The
// shared call is detached from any single caller's cancellation; each caller
// stops waiting when its own ctx ends.
func (c *PricingCache) fetch(ctx context.Context, key, hotelID string, date *time.Time) (domain.RoomPricing, error) {
	ch := c.inflight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		raw, err := c.client.GetRoomPrices(fctx, hotelID, date)
		if err != nil {
			observability.ObservePricingFetch("error")
			log.Warn().Err(err).Str("key", key).Msg("room pricing fetch failed")
			return nil, err
		}
		observability.ObservePricingFetch("ok")
		return trip.NormalizePricing(raw), nil
	})
	select {
	case <-ctx.Done():
		return domain.RoomPricing{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return domain.RoomPricing{}, r.Err
		}
		return r.Val.(domain.RoomPricing), nil
	}
}
