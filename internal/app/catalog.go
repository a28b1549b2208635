package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"family_trip/internal/domain"
)

// CatalogService is a read-through cache in front of the catalog provider.
// Companions are per employee and always read live.
type CatalogService struct {
	src      domain.Catalog
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogService(src domain.Catalog, c domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{src: src, cache: c, cacheTTL: ttl}
}

func (s *CatalogService) ListCities(ctx context.Context, lang string) ([]domain.City, error) {
	key := fmt.Sprintf("cities:%s", strings.ToLower(lang))
	var out []domain.City
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	cs, err := s.src.ListCities(ctx, lang)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, cs, int(s.cacheTTL.Seconds()))
	return cs, nil
}

func (s *CatalogService) ListHotelsByCity(ctx context.Context, city, lang string) ([]domain.Hotel, error) {
	key := fmt.Sprintf("hotels:%s:%s", city, strings.ToLower(lang))
	var out []domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	hs, err := s.src.ListHotelsByCity(ctx, city, lang)
	if err != nil {
		return nil, err
	}
	// copy to avoid aliasing the provider's backing array
	cp := append([]domain.Hotel(nil), hs...)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func (s *CatalogService) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	const key = "room_types"
	var out []domain.RoomType
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	rts, err := s.src.ListRoomTypes(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, rts, int(s.cacheTTL.Seconds()))
	return rts, nil
}

func (s *CatalogService) ListCompanions(ctx context.Context, employeeID, lang string) ([]domain.Companion, error) {
	return s.src.ListCompanions(ctx, employeeID, lang)
}

// FindHotel looks a hotel up among those offered in city.
func (s *CatalogService) FindHotel(ctx context.Context, city, hotelID, lang string) (domain.Hotel, error) {
	return findHotel(ctx, s, city, hotelID, lang)
}

func findHotel(ctx context.Context, c domain.Catalog, city, hotelID, lang string) (domain.Hotel, error) {
	hs, err := c.ListHotelsByCity(ctx, city, lang)
	if err != nil {
		return domain.Hotel{}, err
	}
	for _, h := range hs {
		if h.ID == hotelID {
			return h, nil
		}
	}
	return domain.Hotel{}, domain.ErrUnknownHotel
}
