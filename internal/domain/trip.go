package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type Companion struct {
	ID       string
	Relation string // relationship code, e.g. SPOUSE, CHILD
	Name     string
}

// Policy is the employer-defined window a trip request must fit in.
type Policy struct {
	MaxCompanions int
	MaxHotels     int
	StartDate     time.Time
	EndDate       time.Time
	Enabled       bool
}

// Contains reports whether d falls on a day within [StartDate, EndDate].
func (p Policy) Contains(d time.Time) bool {
	day := TruncateDay(d)
	if !p.StartDate.IsZero() && day.Before(TruncateDay(p.StartDate)) {
		return false
	}
	if !p.EndDate.IsZero() && day.After(TruncateDay(p.EndDate)) {
		return false
	}
	return true
}

func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RoomPricing is the canonical pricing shape every payload variant is normalized into.
type RoomPricing struct {
	PerRoomType map[RoomTypeKey]decimal.Decimal
	// ExtraBedPrice is display text only ("100", "USD 20", "10%"); never used for arithmetic.
	ExtraBedPrice *string
}

func (p RoomPricing) Price(k RoomTypeKey) (decimal.Decimal, bool) {
	v, ok := p.PerRoomType[k]
	if !ok || !v.IsPositive() {
		return decimal.Zero, false
	}
	return v, true
}

func (p RoomPricing) Empty() bool { return len(p.PerRoomType) == 0 && p.ExtraBedPrice == nil }

// SubmittableSlot is the wire form of one complete destination.
type SubmittableSlot struct {
	City      string `json:"city"`
	HotelID   string `json:"hotel_id"`
	HotelName string `json:"hotel_name"`
	Date      string `json:"date"`
	RoomsData string `json:"rooms_data"`
}

// LastHotel is one destination of the previously submitted request.
type LastHotel struct {
	City      string
	HotelID   string
	HotelName string
	Date      string
	RoomsData string
}

type SlotCost struct {
	HotelID      string
	Date         string
	TotalCost    decimal.Decimal
	EmployeeCost decimal.Decimal
}

type ReviewResult struct {
	Success bool
	Message string
	Costs   []SlotCost
}

type SubmitResult struct {
	Success   bool
	Message   string
	RequestID string
}

type CheckResult struct {
	Success bool
	Message string
}
