package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"family_trip/internal/app"
	"family_trip/internal/domain"
)

func TestPricingKey(t *testing.T) {
	d := day(2025, 11, 5)
	if got := app.PricingKey("H1", nil); got != "H1" {
		t.Fatalf("current key = %q", got)
	}
	if got := app.PricingKey("H1", &d); got != "H1|2025-11-05" {
		t.Fatalf("dated key = %q", got)
	}
}

func TestPricingCache_ResolveCachesSuccessOnly(t *testing.T) {
	ctx := context.Background()
	fp := newFakePricing(`{"S": 500}`)
	d := day(2025, 11, 5)
	fp.failOn["H1|2025-11-05"] = true
	c := app.NewPricingCache(fp, 4)

	// failure degrades to empty pricing and leaves no entry
	if p := c.Resolve(ctx, "H1", &d); !p.Empty() {
		t.Fatalf("expected empty pricing on failure, got %+v", p)
	}
	if c.Has("H1|2025-11-05") {
		t.Fatalf("failed fetch must not be cached")
	}

	fp.failOn["H1|2025-11-05"] = false
	p := c.Resolve(ctx, "H1", &d)
	if v, ok := p.Price("S"); !ok || !v.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("price S = %v ok=%v", v, ok)
	}
	_ = c.Resolve(ctx, "H1", &d)
	if n := fp.count("H1|2025-11-05"); n != 2 {
		t.Fatalf("expected 2 fetches (fail + success), got %d", n)
	}
}

func TestPricingCache_BatchLoadMonth(t *testing.T) {
	ctx := context.Background()
	fp := newFakePricing(`{"S": 500}`)
	fp.failOn["H1|2025-11-20"] = true
	c := app.NewPricingCache(fp, 3)

	// pre-seeded days are not fetched again
	for _, d := range []int{1, 15} {
		day := day(2025, 11, d)
		c.Put(app.PricingKey("H1", &day), domain.RoomPricing{})
	}

	added := c.BatchLoadMonth(ctx, "H1", 2025, time.November)
	if added != 27 {
		t.Fatalf("expected 27 days added, got %d", added)
	}
	if fp.total() != 28 {
		t.Fatalf("expected 28 fetches, got %d", fp.total())
	}
	for d := 1; d <= 30; d++ {
		day := day(2025, 11, d)
		key := app.PricingKey("H1", &day)
		if n := fp.count(key); n > 1 {
			t.Fatalf("%s fetched %d times", key, n)
		}
		if d == 20 {
			if c.Has(key) {
				t.Fatalf("failed day must stay absent")
			}
			continue
		}
		if !c.Has(key) {
			t.Fatalf("missing %s", key)
		}
	}

	// a second pass only retries what is still missing
	fp.failOn["H1|2025-11-20"] = false
	if added := c.BatchLoadMonth(ctx, "H1", 2025, time.November); added != 1 {
		t.Fatalf("expected 1 retried day, got %d", added)
	}
	if c.Len() != 30 {
		t.Fatalf("expected 30 entries, got %d", c.Len())
	}
}

func TestPricingCache_BatchLoadLeapFebruary(t *testing.T) {
	fp := newFakePricing(`{"S": 500}`)
	c := app.NewPricingCache(fp, 0)
	if added := c.BatchLoadMonth(context.Background(), "H9", 2028, time.February); added != 29 {
		t.Fatalf("expected 29 days, got %d", added)
	}
}

// gatedPricing blocks every fetch until release is closed or its ctx ends,
// then reports how the fetch ended on done.
type gatedPricing struct {
	started chan struct{}
	release chan struct{}
	done    chan error
}

func (g *gatedPricing) GetRoomPrices(ctx context.Context, hotelID string, date *time.Time) (json.RawMessage, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		g.done <- nil
		return json.RawMessage(`{"S": 500}`), nil
	case <-ctx.Done():
		g.done <- ctx.Err()
		return nil, ctx.Err()
	}
}

func TestPricingCache_SharedFetchOutlivesCancelledCaller(t *testing.T) {
	g := &gatedPricing{started: make(chan struct{}, 2), release: make(chan struct{}), done: make(chan error, 2)}
	c := app.NewPricingCache(g, 4)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan domain.RoomPricing, 1)
	go func() { first <- c.Resolve(ctx, "H1", nil) }()
	<-g.started

	// the caller gives up while the upstream call is still blocked
	cancel()
	if p := <-first; !p.Empty() {
		t.Fatalf("cancelled caller should get empty pricing, got %+v", p)
	}
	if c.Has("H1") {
		t.Fatalf("nothing should be cached for a cancelled caller")
	}

	close(g.release)
	if err := <-g.done; err != nil {
		t.Fatalf("shared fetch must not inherit the caller's cancellation, ended with %v", err)
	}

	p := c.Resolve(context.Background(), "H1", nil)
	if v, ok := p.Price("S"); !ok || !v.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("later caller should resolve pricing, got %+v", p)
	}
}
