package trip

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"family_trip/internal/domain"
)

// Slot is one destination of the trip. Slots are values: every operation below
// takes the prior slot and returns a new one, leaving the input untouched.
type Slot struct {
	City        string
	Hotel       *domain.Hotel
	ArrivalDate *time.Time

	// RoomOrder is the catalog order of room types known for the hotel.
	RoomOrder    []domain.RoomTypeKey
	Rooms        map[domain.RoomTypeKey]int
	ExtraBeds    map[domain.RoomTypeKey]int
	MaxExtraBeds map[domain.RoomTypeKey]int

	// Populated only by a successful review.
	TotalCost    *decimal.Decimal
	EmployeeCost *decimal.Decimal
}

func NewSlots(n int) []Slot {
	if n < 0 {
		n = 0
	}
	out := make([]Slot, n)
	for i := range out {
		out[i] = emptySlot("")
	}
	return out
}

func emptySlot(city string) Slot {
	return Slot{
		City:         city,
		Rooms:        map[domain.RoomTypeKey]int{},
		ExtraBeds:    map[domain.RoomTypeKey]int{},
		MaxExtraBeds: map[domain.RoomTypeKey]int{},
	}
}

func (s Slot) clone() Slot {
	out := s
	out.Rooms = copyCounts(s.Rooms)
	out.ExtraBeds = copyCounts(s.ExtraBeds)
	out.MaxExtraBeds = copyCounts(s.MaxExtraBeds)
	out.RoomOrder = append([]domain.RoomTypeKey(nil), s.RoomOrder...)
	if s.Hotel != nil {
		h := *s.Hotel
		out.Hotel = &h
	}
	if s.ArrivalDate != nil {
		d := *s.ArrivalDate
		out.ArrivalDate = &d
	}
	return out
}

func (s Slot) clearCosts() Slot {
	s.TotalCost = nil
	s.EmployeeCost = nil
	return s
}

// HasCosts reports whether a review wrote costs into the slot.
func (s Slot) HasCosts() bool { return s.TotalCost != nil && s.EmployeeCost != nil }

// RoomKeys returns every room type the slot tracks, catalog order first.
func (s Slot) RoomKeys() []domain.RoomTypeKey {
	seen := make(map[domain.RoomTypeKey]bool, len(s.RoomOrder))
	keys := make([]domain.RoomTypeKey, 0, len(s.RoomOrder))
	for _, k := range s.RoomOrder {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []domain.RoomTypeKey
	for _, m := range []map[domain.RoomTypeKey]int{s.Rooms, s.ExtraBeds, s.MaxExtraBeds} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(keys, rest...)
}

// SetCity resets everything chosen under the previous city.
func SetCity(s Slot, city string) Slot {
	return emptySlot(city)
}

// SelectHotel binds a hotel and re-resolves per-room-type capacity. Counts of
// room types the hotel does not offer drop to zero; others carry over, with
// extra beds clamped to the new capacity.
func SelectHotel(s Slot, h domain.Hotel, roomTypes []domain.RoomTypeKey) Slot {
	out := s.clone().clearCosts()
	out.Hotel = &h
	if len(roomTypes) == 0 {
		for k := range h.Capabilities.Supported {
			roomTypes = append(roomTypes, k)
		}
		sort.Slice(roomTypes, func(i, j int) bool { return roomTypes[i] < roomTypes[j] })
	}
	out.RoomOrder = append([]domain.RoomTypeKey(nil), roomTypes...)

	rooms := map[domain.RoomTypeKey]int{}
	beds := map[domain.RoomTypeKey]int{}
	maxBeds := map[domain.RoomTypeKey]int{}
	for k, c := range ResolveCapacity(h.Capabilities, roomTypes) {
		if !c.Supported {
			rooms[k], beds[k], maxBeds[k] = 0, 0, 0
			continue
		}
		maxBeds[k] = c.MaxExtraBeds
		rooms[k] = s.Rooms[k]
		beds[k] = clamp(s.ExtraBeds[k], 0, c.MaxExtraBeds*rooms[k])
	}
	out.Rooms, out.ExtraBeds, out.MaxExtraBeds = rooms, beds, maxBeds
	return out
}

// SetArrivalDate sets the date and zeroes every room type that has no positive
// price on it. The policy window is checked by the caller.
func SetArrivalDate(s Slot, date time.Time, pricing domain.RoomPricing) Slot {
	out := s.clone().clearCosts()
	d := domain.TruncateDay(date)
	out.ArrivalDate = &d
	for _, k := range out.RoomKeys() {
		if _, ok := pricing.Price(k); ok {
			continue
		}
		out.Rooms[k] = 0
		out.ExtraBeds[k] = 0
	}
	return out
}

// SetRoomCount clamps to >= 0. Lowering the count resets that type's extra beds.
func SetRoomCount(s Slot, key domain.RoomTypeKey, value int) Slot {
	if value < 0 {
		value = 0
	}
	if s.Hotel != nil && !s.Hotel.Capabilities.For(key).Supported {
		value = 0
	}
	out := s
	if value < s.Rooms[key] {
		out = SetExtraBedCount(out, key, 0)
	}
	out = out.clone().clearCosts()
	out.Rooms[key] = value
	return out
}

// SetExtraBedCount clamps to [0, MaxExtraBeds[key] * Rooms[key]].
func SetExtraBedCount(s Slot, key domain.RoomTypeKey, value int) Slot {
	out := s.clone().clearCosts()
	out.ExtraBeds[key] = clamp(value, 0, out.MaxExtraBeds[key]*out.Rooms[key])
	return out
}

// WithCosts records the reviewed cost pair.
func WithCosts(s Slot, total, employee decimal.Decimal) Slot {
	out := s.clone()
	out.TotalCost = &total
	out.EmployeeCost = &employee
	return out
}

// ClearCosts drops reviewed costs without touching the selection.
func ClearCosts(s Slot) Slot {
	return s.clone().clearCosts()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func copyCounts(m map[domain.RoomTypeKey]int) map[domain.RoomTypeKey]int {
	out := make(map[domain.RoomTypeKey]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
