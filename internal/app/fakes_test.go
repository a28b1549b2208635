package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"family_trip/internal/app"
	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

// ---- fakes ----

type fakePricing struct {
	mu     sync.Mutex
	calls  map[string]int
	byKey  map[string]string
	def    string
	failOn map[string]bool
	during map[string]func() // runs while that key's fetch is in flight
}

func newFakePricing(def string) *fakePricing {
	return &fakePricing{calls: map[string]int{}, byKey: map[string]string{}, def: def, failOn: map[string]bool{}, during: map[string]func(){}}
}

func (f *fakePricing) GetRoomPrices(ctx context.Context, hotelID string, date *time.Time) (json.RawMessage, error) {
	key := app.PricingKey(hotelID, date)
	f.mu.Lock()
	hook := f.during[key]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if f.failOn[key] {
		return nil, errors.New("pricing backend down")
	}
	if raw, ok := f.byKey[key]; ok {
		return json.RawMessage(raw), nil
	}
	return json.RawMessage(f.def), nil
}

func (f *fakePricing) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakePricing) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type fakeCatalog struct {
	cities     []domain.City
	hotels     map[string][]domain.Hotel
	roomTypes  []domain.RoomType
	companions []domain.Companion
	hotelCalls int
}

func (f *fakeCatalog) ListCities(ctx context.Context, lang string) ([]domain.City, error) {
	return f.cities, nil
}
func (f *fakeCatalog) ListHotelsByCity(ctx context.Context, city, lang string) ([]domain.Hotel, error) {
	f.hotelCalls++
	return f.hotels[city], nil
}
func (f *fakeCatalog) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	return f.roomTypes, nil
}
func (f *fakeCatalog) ListCompanions(ctx context.Context, employeeID, lang string) ([]domain.Companion, error) {
	return f.companions, nil
}

type fakePolicy struct{ p domain.Policy }

func (f fakePolicy) GetPolicy(ctx context.Context, employeeID string) (domain.Policy, error) {
	return f.p, nil
}

type fakeLast struct {
	hotels     []domain.LastHotel
	companions []domain.Companion
}

func (f fakeLast) GetLastHotels(ctx context.Context, employeeID, lang string) ([]domain.LastHotel, error) {
	return f.hotels, nil
}
func (f fakeLast) GetLastCompanions(ctx context.Context, employeeID, lang string) ([]domain.Companion, error) {
	return f.companions, nil
}

type reviewCall struct {
	companions string
	slots      []domain.SubmittableSlot
}

type fakeReviewer struct {
	res    domain.ReviewResult
	err    error
	during func() // runs while the call is in flight
	calls  []reviewCall
}

func (f *fakeReviewer) Review(ctx context.Context, employeeID, companionIDs string, slots []domain.SubmittableSlot, lang string) (domain.ReviewResult, error) {
	f.calls = append(f.calls, reviewCall{companions: companionIDs, slots: slots})
	if f.during != nil {
		f.during()
	}
	return f.res, f.err
}

type fakeSubmitter struct {
	res   domain.SubmitResult
	err   error
	calls []reviewCall
}

func (f *fakeSubmitter) Submit(ctx context.Context, employeeID, companionIDs string, slots []domain.SubmittableSlot) (domain.SubmitResult, error) {
	f.calls = append(f.calls, reviewCall{companions: companionIDs, slots: slots})
	return f.res, f.err
}
func (f *fakeSubmitter) CheckSubmission(ctx context.Context, employeeID, lang string) (domain.CheckResult, error) {
	return domain.CheckResult{Success: true}, nil
}

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

// ---- fixture ----

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func mkHotel(id, city, rooms, beds string) domain.Hotel {
	return domain.Hotel{
		ID: id, Name: "Hotel " + id, City: city,
		RoomTypesRaw: rooms, ExtraBedsRaw: beds,
		Capabilities: trip.ParseCapabilities(rooms, beds),
	}
}

type fixture struct {
	catalog   *fakeCatalog
	pricing   *fakePricing
	reviewer  *fakeReviewer
	submitter *fakeSubmitter
	last      fakeLast
	policy    domain.Policy
}

func newFixture() *fixture {
	return &fixture{
		catalog: &fakeCatalog{
			cities: []domain.City{{Code: "BKK", Name: "Bangkok"}, {Code: "CNX", Name: "Chiang Mai"}},
			hotels: map[string][]domain.Hotel{
				"BKK": {mkHotel("H1", "BKK", "S,D", "S:1,D:2"), mkHotel("H2", "BKK", "", "S:1")},
				"CNX": {mkHotel("H3", "CNX", "S,D,F", "F:1")},
			},
			roomTypes: []domain.RoomType{{Key: "S", Name: "Single"}, {Key: "D", Name: "Double"}, {Key: "F", Name: "Family"}},
			companions: []domain.Companion{
				{ID: "c1", Relation: "SPOUSE", Name: "Malee"},
				{ID: "c2", Relation: "CHILD", Name: "Niran"},
				{ID: "c3", Relation: "CHILD", Name: "Ploy"},
			},
		},
		pricing:   newFakePricing(`[{"ROOM_TYPE":"S","ROOM_PRICE":500},{"ROOM_TYPE":"D","ROOM_PRICE":800,"EXTRA_BED_PRICE":"150"},{"ROOM_TYPE":"F","ROOM_PRICE":1200}]`),
		reviewer:  &fakeReviewer{},
		submitter: &fakeSubmitter{res: domain.SubmitResult{Success: true, RequestID: "req-1"}},
		policy: domain.Policy{
			MaxCompanions: 2, MaxHotels: 3, Enabled: true,
			StartDate: day(2025, 11, 1), EndDate: day(2025, 11, 30),
		},
	}
}

func (f *fixture) deps() app.Deps {
	return app.Deps{
		Catalog:   f.catalog,
		Policy:    fakePolicy{p: f.policy},
		Pricing:   f.pricing,
		Last:      f.last,
		Reviewer:  f.reviewer,
		Submitter: f.submitter,
	}
}

func cost(total, employee int64) domain.SlotCost {
	return domain.SlotCost{TotalCost: decimal.NewFromInt(total), EmployeeCost: decimal.NewFromInt(employee)}
}
