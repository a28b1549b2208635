package trip

import (
	"fmt"
	"strconv"
	"strings"

	"family_trip/internal/domain"
)

const segmentSep = "|"

// OrderingError reports the first empty destination that is followed by a filled one.
// Positions are 1-based.
type OrderingError struct {
	Empty  int
	Filled int
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("destination %d is empty but destination %d is filled; fill destinations in order", e.Empty, e.Filled)
}

// ValidateOrdering fails when a slot with a city follows one without.
func ValidateOrdering(slots []Slot) error {
	firstEmpty := -1
	for i, s := range slots {
		if strings.TrimSpace(s.City) == "" {
			if firstEmpty < 0 {
				firstEmpty = i
			}
			continue
		}
		if firstEmpty >= 0 {
			return &OrderingError{Empty: firstEmpty + 1, Filled: i + 1}
		}
	}
	return nil
}

func IsComplete(s Slot) bool {
	if s.Hotel == nil || s.ArrivalDate == nil || s.ArrivalDate.IsZero() {
		return false
	}
	for _, n := range s.Rooms {
		if n > 0 {
			return true
		}
	}
	return false
}

// CollectSubmittable serializes complete slots in order. Nothing is returned
// when the ordering is invalid.
func CollectSubmittable(slots []Slot) []domain.SubmittableSlot {
	if ValidateOrdering(slots) != nil {
		return nil
	}
	var out []domain.SubmittableSlot
	for _, s := range slots {
		if !IsComplete(s) {
			continue
		}
		out = append(out, domain.SubmittableSlot{
			City:      s.City,
			HotelID:   s.Hotel.ID,
			HotelName: s.Hotel.DisplayName(),
			Date:      s.ArrivalDate.Format(domain.DateLayout),
			RoomsData: EncodeRoomsData(s),
		})
	}
	return out
}

// Defects lists every partial selection individually, plus any ordering violation.
func Defects(slots []Slot) []string {
	var out []string
	if err := ValidateOrdering(slots); err != nil {
		out = append(out, err.Error())
	}
	for i, s := range slots {
		n := i + 1
		switch {
		case strings.TrimSpace(s.City) == "":
			continue
		case s.Hotel == nil:
			out = append(out, fmt.Sprintf("destination %d: city selected but no hotel", n))
		case s.ArrivalDate == nil || s.ArrivalDate.IsZero():
			out = append(out, fmt.Sprintf("destination %d: hotel selected but no arrival date", n))
		case !IsComplete(s):
			out = append(out, fmt.Sprintf("destination %d: hotel selected but no rooms", n))
		}
	}
	return out
}

// EncodeRoomsData renders booked room types as "<key>,<rooms>,<extraBeds>" joined by "|".
func EncodeRoomsData(s Slot) string {
	var segs []string
	for _, k := range s.RoomKeys() {
		n := s.Rooms[k]
		if n <= 0 {
			continue
		}
		segs = append(segs, fmt.Sprintf("%s,%d,%d", k, n, s.ExtraBeds[k]))
	}
	return strings.Join(segs, segmentSep)
}

type RoomSelection struct {
	Key       domain.RoomTypeKey
	Rooms     int
	ExtraBeds int
}

// ParseRoomsData decodes EncodeRoomsData output; malformed segments are skipped.
func ParseRoomsData(s string) []RoomSelection {
	var out []RoomSelection
	for _, seg := range strings.Split(s, segmentSep) {
		parts := strings.Split(strings.TrimSpace(seg), ",")
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
			continue
		}
		rooms, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || rooms < 0 {
			continue
		}
		beds := 0
		if len(parts) > 2 {
			if b, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil && b > 0 {
				beds = b
			}
		}
		out = append(out, RoomSelection{Key: domain.RoomTypeKey(strings.TrimSpace(parts[0])), Rooms: rooms, ExtraBeds: beds})
	}
	return out
}
