package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"family_trip/internal/adapters/observability"
	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

// Deps are the external providers a trip session is built on.
type Deps struct {
	Catalog   domain.Catalog
	Policy    domain.PolicyProvider
	Pricing   domain.PricingClient
	Last      domain.LastSelection
	Reviewer  domain.ReviewAuthority
	Submitter domain.SubmissionAuthority

	PricingFanout int
}

// Sessions keeps one trip session per employee.
type Sessions struct {
	deps Deps

	mu         sync.RWMutex
	byEmployee map[string]*Session
}

func NewSessions(deps Deps) *Sessions {
	return &Sessions{deps: deps, byEmployee: map[string]*Session{}}
}

func (m *Sessions) Get(employeeID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byEmployee[employeeID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Open (re)builds the employee's session from policy and catalog data, then
// rehydrates it from the last submitted request. Any previous session for the
// employee is replaced.
func (m *Sessions) Open(ctx context.Context, employeeID, lang string) (*Session, error) {
	policy, err := m.deps.Policy.GetPolicy(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load policy for %s: %w", employeeID, err)
	}

	// catalog data degrades to empty; the session stays usable
	roomTypes, err := m.deps.Catalog.ListRoomTypes(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("room types unavailable")
	}
	companions, err := m.deps.Catalog.ListCompanions(ctx, employeeID, lang)
	if err != nil {
		log.Warn().Err(err).Str("employee_id", employeeID).Msg("companions unavailable")
	}

	s := newSession(employeeID, lang, policy, roomTypes, companions, m.deps)
	m.rehydrate(ctx, s)

	m.mu.Lock()
	m.byEmployee[employeeID] = s
	n := len(m.byEmployee)
	m.mu.Unlock()
	observability.SetOpenSessions(n)

	log.Info().Str("employee_id", employeeID).Int("max_hotels", policy.MaxHotels).
		Int("max_companions", policy.MaxCompanions).Bool("enabled", policy.Enabled).Msg("trip session opened")
	return s, nil
}

// rehydrate replays the last submission through the normal mutations, so every
// slot invariant and the current policy window apply. Entries that no longer
// fit are dropped from that point on.
func (m *Sessions) rehydrate(ctx context.Context, s *Session) {
	if m.deps.Last == nil {
		return
	}
	last, err := m.deps.Last.GetLastHotels(ctx, s.employeeID, s.lang)
	if err != nil {
		log.Warn().Err(err).Str("employee_id", s.employeeID).Msg("last hotels unavailable")
	}
	for i, lh := range last {
		if i >= len(s.slots) {
			break
		}
		if err := replayHotel(ctx, s, i, lh); err != nil {
			log.Debug().Err(err).Int("slot", i+1).Str("hotel_id", lh.HotelID).Msg("last hotel not restored in full")
		}
	}

	prev, err := m.deps.Last.GetLastCompanions(ctx, s.employeeID, s.lang)
	if err != nil {
		log.Warn().Err(err).Str("employee_id", s.employeeID).Msg("last companions unavailable")
	}
	for _, c := range prev {
		if err := s.SelectCompanion(c.ID); err != nil && !errors.Is(err, domain.ErrUnknownCompanion) {
			break
		}
	}
}

func replayHotel(ctx context.Context, s *Session, idx int, lh domain.LastHotel) error {
	if lh.City == "" {
		return nil
	}
	if err := s.SetCity(idx, lh.City); err != nil {
		return err
	}
	if lh.HotelID == "" {
		return nil
	}
	if err := s.SelectHotel(ctx, idx, lh.HotelID); err != nil {
		return err
	}
	d, err := time.Parse(domain.DateLayout, lh.Date)
	if err != nil {
		return err
	}
	if err := s.SetArrivalDate(ctx, idx, d); err != nil {
		return err
	}
	for _, r := range trip.ParseRoomsData(lh.RoomsData) {
		if err := s.SetRoomCount(idx, r.Key, r.Rooms); err != nil {
			return err
		}
		if err := s.SetExtraBedCount(idx, r.Key, r.ExtraBeds); err != nil {
			return err
		}
	}
	return nil
}
