package app

import (
	"time"

	"github.com/shopspring/decimal"

	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

type View struct {
	EmployeeID    string          `json:"employee_id"`
	Lang          string          `json:"lang"`
	Policy        PolicyView      `json:"policy"`
	State         ReviewState     `json:"state"`
	Message       string          `json:"message,omitempty"`
	CanSubmit     bool            `json:"can_submit"`
	Defects       []string        `json:"defects,omitempty"`
	Slots         []SlotView      `json:"slots"`
	Companions    []CompanionView `json:"companions"`
	CompanionsStr string          `json:"companions_str"`
}

type PolicyView struct {
	MaxCompanions int    `json:"max_companions"`
	MaxHotels     int    `json:"max_hotels"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	Enabled       bool   `json:"enabled"`
}

type SlotView struct {
	Position     int              `json:"position"`
	City         string           `json:"city"`
	HotelID      string           `json:"hotel_id,omitempty"`
	HotelName    string           `json:"hotel_name,omitempty"`
	ArrivalDate  string           `json:"arrival_date,omitempty"`
	Complete     bool             `json:"complete"`
	Rooms        []RoomView       `json:"rooms,omitempty"`
	TotalCost    *decimal.Decimal `json:"total_cost,omitempty"`
	EmployeeCost *decimal.Decimal `json:"employee_cost,omitempty"`
}

type RoomView struct {
	Key           domain.RoomTypeKey `json:"key"`
	Name          string             `json:"name"`
	Supported     bool               `json:"supported"`
	Rooms         int                `json:"rooms"`
	ExtraBeds     int                `json:"extra_beds"`
	MaxExtraBeds  int                `json:"max_extra_beds_per_room"`
	Price         *decimal.Decimal   `json:"price,omitempty"`
	ExtraBedPrice *string            `json:"extra_bed_price,omitempty"`
}

type CompanionView struct {
	ID       string `json:"id"`
	Relation string `json:"relation"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// View snapshots the session for display. Prices come from the session cache
// only; nothing is fetched.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		EmployeeID: s.employeeID,
		Lang:       s.lang,
		Policy: PolicyView{
			MaxCompanions: s.policy.MaxCompanions,
			MaxHotels:     s.policy.MaxHotels,
			StartDate:     fmtDate(s.policy.StartDate),
			EndDate:       fmtDate(s.policy.EndDate),
			Enabled:       s.policy.Enabled,
		},
		State:         s.state,
		Message:       s.message,
		CanSubmit:     s.state == StateReviewed && s.reviewedRev == s.revision,
		Defects:       trip.Defects(s.slots),
		CompanionsStr: s.companions.Encode(),
	}

	names := map[domain.RoomTypeKey]string{}
	for _, rt := range s.roomTypes {
		names[rt.Key] = rt.Name
	}
	for i, sl := range s.slots {
		v.Slots = append(v.Slots, s.slotView(i, sl, names))
	}

	selected := map[string]bool{}
	for _, id := range s.companions.IDs() {
		selected[id] = true
	}
	for _, c := range s.companions.Available() {
		v.Companions = append(v.Companions, CompanionView{ID: c.ID, Relation: c.Relation, Name: c.Name, Selected: selected[c.ID]})
	}
	return v
}

func (s *Session) slotView(i int, sl trip.Slot, names map[domain.RoomTypeKey]string) SlotView {
	sv := SlotView{
		Position:     i + 1,
		City:         sl.City,
		Complete:     trip.IsComplete(sl),
		TotalCost:    sl.TotalCost,
		EmployeeCost: sl.EmployeeCost,
	}
	if sl.Hotel == nil {
		return sv
	}
	sv.HotelID = sl.Hotel.ID
	sv.HotelName = sl.Hotel.DisplayName()

	if sl.ArrivalDate != nil {
		sv.ArrivalDate = sl.ArrivalDate.Format(domain.DateLayout)
	}
	pricing, _ := s.pricing.Get(PricingKey(sl.Hotel.ID, sl.ArrivalDate))
	for _, k := range sl.RoomKeys() {
		rv := RoomView{
			Key:           k,
			Name:          names[k],
			Supported:     sl.Hotel.Capabilities.For(k).Supported,
			Rooms:         sl.Rooms[k],
			ExtraBeds:     sl.ExtraBeds[k],
			MaxExtraBeds:  sl.MaxExtraBeds[k],
			ExtraBedPrice: pricing.ExtraBedPrice,
		}
		if p, ok := pricing.Price(k); ok {
			rv.Price = &p
		}
		sv.Rooms = append(sv.Rooms, rv)
	}
	return sv
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}
