package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"family_trip/internal/adapters/observability"
	"family_trip/internal/domain"
)

// PrefetchService warms the shared pricing tier so the first session touching
// a hotel does not pay for a month of upstream calls.
type PrefetchService struct {
	catalog domain.Catalog
	warmer  domain.PricingWarmer
}

func NewPrefetchService(c domain.Catalog, w domain.PricingWarmer) *PrefetchService {
	return &PrefetchService{catalog: c, warmer: w}
}

// Hotels lists the ids of every hotel in every city.
func (s *PrefetchService) Hotels(ctx context.Context, lang string) ([]string, error) {
	cities, err := s.catalog.ListCities(ctx, lang)
	if err != nil {
		return nil, err
	}
	var ids []string
	seen := map[string]bool{}
	for _, c := range cities {
		hs, err := s.catalog.ListHotelsByCity(ctx, c.Code, lang)
		if err != nil {
			if isMiss(err) {
				log.Warn().Err(err).Str("city", c.Code).Msg("city skipped")
				continue
			}
			return nil, err
		}
		for _, h := range hs {
			if !seen[h.ID] {
				seen[h.ID] = true
				ids = append(ids, h.ID)
			}
		}
	}
	return ids, nil
}

// PrefetchHotel refreshes current pricing and then every given day. A hotel
// the portal no longer knows (or hides from us) has its entries dropped and
// counts as done; any other failure is returned.
func (s *PrefetchService) PrefetchHotel(ctx context.Context, hotelID string, days []time.Time) error {
	if _, err := s.warmer.Refresh(ctx, hotelID, nil); err != nil {
		if isMiss(err) {
			log.Info().Err(err).Str("hotel_id", hotelID).Msg("hotel pricing gone, evicting")
			s.evict(ctx, hotelID, days)
			return nil
		}
		return err
	}
	for _, d := range days {
		day := domain.TruncateDay(d)
		if _, err := s.warmer.Refresh(ctx, hotelID, &day); err != nil {
			if isMiss(err) {
				// no pricing published for that day; drop any stale entry
				_ = s.warmer.Evict(ctx, hotelID, &day)
				observability.ObservePrefetch("evicted")
				continue
			}
			observability.ObservePrefetch("error")
			return err
		}
		observability.ObservePrefetch("warmed")
	}
	return nil
}

func (s *PrefetchService) evict(ctx context.Context, hotelID string, days []time.Time) {
	_ = s.warmer.Evict(ctx, hotelID, nil)
	for _, d := range days {
		day := domain.TruncateDay(d)
		_ = s.warmer.Evict(ctx, hotelID, &day)
	}
}

func isMiss(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized)
}

// MonthDays lists every day of the month in UTC.
func MonthDays(year int, month time.Month) []time.Time {
	var out []time.Time
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
