package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	ErrSessionNotFound   = errors.New("trip session not found")
	ErrSlotOutOfRange    = errors.New("destination index out of range")
	ErrDateOutsideWindow = errors.New("arrival date outside policy window")
	ErrUnknownHotel      = errors.New("hotel not offered in selected city")
	ErrNoCity            = errors.New("city must be selected first")
	ErrNoHotel           = errors.New("hotel must be selected first")
	ErrCompanionLimit    = errors.New("maximum number of companions reached")
	ErrUnknownCompanion  = errors.New("unknown companion")
	ErrPolicyDisabled    = errors.New("trip requests are closed for this employee")
)
