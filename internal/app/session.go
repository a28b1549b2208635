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

type ReviewState string

const (
	StateUnreviewed   ReviewState = "unreviewed"
	StateReviewing    ReviewState = "reviewing"
	StateReviewed     ReviewState = "reviewed"
	StateReviewFailed ReviewState = "review_failed"
)

const (
	msgReviewUnavailable = "cost review is temporarily unavailable, please try again"
	msgSubmitUnavailable = "submission is temporarily unavailable, please try again"
	msgReviewFirst       = "review the trip cost before submitting"
	msgNoCompleteSlot    = "select at least one destination with hotel, arrival date and rooms"
	msgReviewInProgress  = "a cost review is already in progress"
	msgSubmitInProgress  = "the trip is already being submitted"
	msgSelectionChanged  = "the selection changed during review, please review again"
	msgIncompleteCosts   = "cost review returned incomplete results"
)

var ErrSelectionChanged = errors.New("selection changed concurrently")

// Session is one employee's trip configuration: slots, companions and the
// review gate. A mutex guards the state; authority calls run outside it and a
// revision counter detects mutations that land while they are in flight.
type Session struct {
	employeeID string
	lang       string

	catalog   domain.Catalog
	pricing   *PricingCache
	reviewer  domain.ReviewAuthority
	submitter domain.SubmissionAuthority

	mu          sync.Mutex
	policy      domain.Policy
	roomTypes   []domain.RoomType
	slots       []trip.Slot
	companions  *trip.CompanionSelector
	state       ReviewState
	message     string
	revision    uint64
	reviewedRev uint64
	submitting  bool
}

type ReviewOutcome struct {
	State   ReviewState `json:"state"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

type SubmitOutcome struct {
	State     ReviewState `json:"state"`
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func newSession(employeeID, lang string, policy domain.Policy, roomTypes []domain.RoomType,
	companions []domain.Companion, deps Deps) *Session {
	return &Session{
		employeeID: employeeID,
		lang:       lang,
		catalog:    deps.Catalog,
		pricing:    NewPricingCache(deps.Pricing, deps.PricingFanout),
		reviewer:   deps.Reviewer,
		submitter:  deps.Submitter,
		policy:     policy,
		roomTypes:  roomTypes,
		slots:      trip.NewSlots(policy.MaxHotels),
		companions: trip.NewCompanionSelector(companions, policy.MaxCompanions),
		state:      StateUnreviewed,
	}
}

func (s *Session) EmployeeID() string { return s.employeeID }

func (s *Session) State() ReviewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Slots returns a copy of the current slots.
func (s *Session) Slots() []trip.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]trip.Slot(nil), s.slots...)
}

func (s *Session) Pricing() *PricingCache { return s.pricing }

func (s *Session) roomKeys() []domain.RoomTypeKey {
	keys := make([]domain.RoomTypeKey, 0, len(s.roomTypes))
	for _, rt := range s.roomTypes {
		keys = append(keys, rt.Key)
	}
	return keys
}

// invalidate closes the review gate. Caller holds mu.
func (s *Session) invalidate() {
	s.revision++
	s.state = StateUnreviewed
	s.message = ""
}

// apply replaces slot idx with fn's result. Caller holds mu.
func (s *Session) apply(idx int, fn func(trip.Slot) trip.Slot) error {
	if idx < 0 || idx >= len(s.slots) {
		return domain.ErrSlotOutOfRange
	}
	s.slots[idx] = trip.ClearCosts(fn(s.slots[idx]))
	s.invalidate()
	return nil
}

func (s *Session) slot(idx int) (trip.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.slots) {
		return trip.Slot{}, domain.ErrSlotOutOfRange
	}
	return s.slots[idx], nil
}

/********** slot mutations **********/

func (s *Session) SetCity(idx int, city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(idx, func(sl trip.Slot) trip.Slot { return trip.SetCity(sl, city) })
}

// SelectHotel binds one of the hotels offered in the slot's city. When the
// slot already has an arrival date, that date's pricing is re-applied for the
// new hotel so unpriced room types drop to zero; otherwise current pricing is
// loaded for display.
func (s *Session) SelectHotel(ctx context.Context, idx int, hotelID string) error {
	cur, err := s.slot(idx)
	if err != nil {
		return err
	}
	if cur.City == "" {
		return domain.ErrNoCity
	}
	h, err := findHotel(ctx, s.catalog, cur.City, hotelID, s.lang)
	if err != nil {
		return err
	}
	var datePricing *domain.RoomPricing
	if cur.ArrivalDate != nil {
		p := s.pricing.Resolve(ctx, h.ID, cur.ArrivalDate)
		datePricing = &p
	} else {
		// current pricing under the undated key, shown until a date is picked
		s.pricing.Resolve(ctx, h.ID, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sl := s.slots[idx]; sl.City != cur.City || !sameDay(sl.ArrivalDate, cur.ArrivalDate) {
		return ErrSelectionChanged
	}
	keys := s.roomKeys()
	return s.apply(idx, func(sl trip.Slot) trip.Slot {
		out := trip.SelectHotel(sl, h, keys)
		if datePricing != nil && out.ArrivalDate != nil {
			out = trip.SetArrivalDate(out, *out.ArrivalDate, *datePricing)
		}
		return out
	})
}

// SetArrivalDate checks the policy window, resolves that day's pricing and
// applies it to the slot.
func (s *Session) SetArrivalDate(ctx context.Context, idx int, date time.Time) error {
	cur, err := s.slot(idx)
	if err != nil {
		return err
	}
	if cur.Hotel == nil {
		return domain.ErrNoHotel
	}
	s.mu.Lock()
	policy := s.policy
	s.mu.Unlock()
	if date.IsZero() || !policy.Contains(date) {
		return domain.ErrDateOutsideWindow
	}
	day := domain.TruncateDay(date)
	p := s.pricing.Resolve(ctx, cur.Hotel.ID, &day)

	s.mu.Lock()
	defer s.mu.Unlock()
	if h := s.slots[idx].Hotel; h == nil || h.ID != cur.Hotel.ID {
		return ErrSelectionChanged
	}
	return s.apply(idx, func(sl trip.Slot) trip.Slot { return trip.SetArrivalDate(sl, day, p) })
}

// SetRoomCount sets the room count for one type. Once the slot has an arrival
// date, a type without a price on that date stays at zero.
func (s *Session) SetRoomCount(idx int, key domain.RoomTypeKey, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx >= 0 && idx < len(s.slots) && n > 0 && !s.bookable(s.slots[idx], key) {
		n = 0
	}
	return s.apply(idx, func(sl trip.Slot) trip.Slot { return trip.SetRoomCount(sl, key, n) })
}

// bookable reports whether key has a price on the slot's arrival date. Slots
// without a date are not restricted yet. Caller holds mu.
func (s *Session) bookable(sl trip.Slot, key domain.RoomTypeKey) bool {
	if sl.Hotel == nil || sl.ArrivalDate == nil {
		return true
	}
	p, _ := s.pricing.Get(PricingKey(sl.Hotel.ID, sl.ArrivalDate))
	_, ok := p.Price(key)
	return ok
}

func (s *Session) SetExtraBedCount(idx int, key domain.RoomTypeKey, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(idx, func(sl trip.Slot) trip.Slot { return trip.SetExtraBedCount(sl, key, n) })
}

/********** companions **********/

// SetCompanions replaces the companion selection. Any change reopens review and
// drops every slot's costs, since the employee share depends on who travels.
func (s *Session) SetCompanions(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.companions.Replace(ids)
	if err != nil || !changed {
		return err
	}
	s.companionsChanged()
	return nil
}

func (s *Session) SelectCompanion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.companions.Select(id)
	if err != nil || !changed {
		return err
	}
	s.companionsChanged()
	return nil
}

func (s *Session) DeselectCompanion(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.companions.Deselect(id) {
		s.companionsChanged()
	}
}

func (s *Session) companionsChanged() {
	for i := range s.slots {
		s.slots[i] = trip.ClearCosts(s.slots[i])
	}
	s.invalidate()
}

/********** review / submit **********/

// RequestReview runs the cost review. Input defects are returned as messages
// without a state change; authority and transport failures end in
// review_failed with the message surfaced.
func (s *Session) RequestReview(ctx context.Context) ReviewOutcome {
	s.mu.Lock()
	if s.state == StateReviewed && s.reviewedRev == s.revision {
		out := ReviewOutcome{State: s.state, Success: true, Message: s.message}
		s.mu.Unlock()
		observability.ObserveReview("unchanged")
		return out
	}
	if errs := s.reviewDefects(); len(errs) > 0 {
		out := ReviewOutcome{State: s.state, Errors: errs}
		s.mu.Unlock()
		observability.ObserveReview("refused")
		return out
	}
	subs, positions := s.submittable()
	companions := s.companions.Encode()
	rev := s.revision
	s.state = StateReviewing
	s.mu.Unlock()

	res, err := s.reviewer.Review(ctx, s.employeeID, companions, subs, s.lang)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision != rev {
		observability.ObserveReview("stale")
		return ReviewOutcome{State: s.state, Message: msgSelectionChanged}
	}
	fail := func(msg string) ReviewOutcome {
		s.state = StateReviewFailed
		s.message = msg
		observability.ObserveReview("failure")
		return ReviewOutcome{State: s.state, Message: msg}
	}
	if err != nil {
		log.Warn().Err(err).Str("employee_id", s.employeeID).Msg("cost review call failed")
		return fail(msgReviewUnavailable)
	}
	if !res.Success {
		if res.Message == "" {
			return fail(msgReviewUnavailable)
		}
		return fail(res.Message)
	}
	costs, ok := matchCosts(subs, res.Costs)
	if !ok {
		log.Warn().Str("employee_id", s.employeeID).Int("slots", len(subs)).Int("costs", len(res.Costs)).
			Msg("cost review result does not cover every destination")
		return fail(msgIncompleteCosts)
	}
	for i, pos := range positions {
		s.slots[pos] = trip.WithCosts(s.slots[pos], costs[i].TotalCost, costs[i].EmployeeCost)
	}
	s.state = StateReviewed
	s.reviewedRev = s.revision
	s.message = res.Message
	observability.ObserveReview("success")
	return ReviewOutcome{State: s.state, Success: true, Message: res.Message}
}

// Submit hands the reviewed trip to the submission authority. On success the
// session starts over empty; on failure review is required again.
func (s *Session) Submit(ctx context.Context) SubmitOutcome {
	s.mu.Lock()
	if s.submitting || s.state != StateReviewed || s.reviewedRev != s.revision {
		out := SubmitOutcome{State: s.state, Message: msgReviewFirst}
		if s.submitting {
			out.Message = msgSubmitInProgress
		}
		s.mu.Unlock()
		observability.ObserveSubmission("refused")
		return out
	}
	subs, _ := s.submittable()
	companions := s.companions.Encode()
	s.submitting = true
	s.mu.Unlock()

	res, err := s.submitter.Submit(ctx, s.employeeID, companions, subs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil || !res.Success {
		msg := res.Message
		if err != nil {
			log.Warn().Err(err).Str("employee_id", s.employeeID).Msg("trip submission failed")
			msg = msgSubmitUnavailable
		} else if msg == "" {
			msg = msgSubmitUnavailable
		}
		s.invalidate()
		s.message = msg
		observability.ObserveSubmission("failure")
		return SubmitOutcome{State: s.state, Message: msg}
	}

	log.Info().Str("employee_id", s.employeeID).Str("request_id", res.RequestID).Int("destinations", len(subs)).
		Msg("trip submitted")
	s.slots = trip.NewSlots(s.policy.MaxHotels)
	s.companions.Clear()
	s.invalidate()
	observability.ObserveSubmission("success")
	return SubmitOutcome{State: s.state, Success: true, Message: res.Message, RequestID: res.RequestID}
}

func (s *Session) CheckSubmission(ctx context.Context) (domain.CheckResult, error) {
	return s.submitter.CheckSubmission(ctx, s.employeeID, s.lang)
}

// MonthPricing prefetches a month of pricing for the slot's hotel and returns
// the days that have any price.
func (s *Session) MonthPricing(ctx context.Context, idx int, year int, month time.Month) (map[string]domain.RoomPricing, error) {
	cur, err := s.slot(idx)
	if err != nil {
		return nil, err
	}
	if cur.Hotel == nil {
		return nil, domain.ErrNoHotel
	}
	s.pricing.BatchLoadMonth(ctx, cur.Hotel.ID, year, month)

	out := map[string]domain.RoomPricing{}
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		day := d
		if p, ok := s.pricing.Get(PricingKey(cur.Hotel.ID, &day)); ok && !p.Empty() {
			out[day.Format(domain.DateLayout)] = p
		}
	}
	return out, nil
}

// reviewDefects lists what blocks a review. Caller holds mu.
func (s *Session) reviewDefects() []string {
	if s.state == StateReviewing {
		return []string{msgReviewInProgress}
	}
	if !s.policy.Enabled {
		return []string{domain.ErrPolicyDisabled.Error()}
	}
	errs := trip.Defects(s.slots)
	if len(errs) == 0 && len(trip.CollectSubmittable(s.slots)) == 0 {
		errs = append(errs, msgNoCompleteSlot)
	}
	return errs
}

// submittable returns the wire slots and the index of the slot each came from.
func (s *Session) submittable() ([]domain.SubmittableSlot, []int) {
	subs := trip.CollectSubmittable(s.slots)
	positions := make([]int, 0, len(subs))
	for i, sl := range s.slots {
		if trip.IsComplete(sl) {
			positions = append(positions, i)
		}
	}
	return subs, positions
}

// matchCosts aligns review costs with the submitted slots. When every cost
// echoes hotel id and date they are matched on that key; otherwise by position.
func matchCosts(subs []domain.SubmittableSlot, costs []domain.SlotCost) ([]domain.SlotCost, bool) {
	keyed := len(costs) > 0
	for _, c := range costs {
		if c.HotelID == "" || c.Date == "" {
			keyed = false
			break
		}
	}
	if !keyed {
		if len(costs) < len(subs) {
			return nil, false
		}
		return costs[:len(subs)], true
	}

	byKey := map[string][]domain.SlotCost{}
	for _, c := range costs {
		k := costKey(c.HotelID, c.Date)
		byKey[k] = append(byKey[k], c)
	}
	out := make([]domain.SlotCost, len(subs))
	for i, sub := range subs {
		k := costKey(sub.HotelID, sub.Date)
		q := byKey[k]
		if len(q) == 0 {
			return nil, false
		}
		out[i], byKey[k] = q[0], q[1:]
	}
	return out, true
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func costKey(hotelID, date string) string { return fmt.Sprintf("%s|%s", hotelID, date) }
