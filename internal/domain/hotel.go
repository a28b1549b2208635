package domain

import "strings"

type RoomTypeKey string

type RoomType struct {
	Key  RoomTypeKey
	Name string
}

type City struct {
	Code string
	Name string
}

type Hotel struct {
	ID     string
	Name   string // localized display name
	NameEn string
	City   string

	// Raw catalog encodings, e.g. "S,D,T" and "S:1,D:2".
	RoomTypesRaw string
	ExtraBedsRaw string

	Capabilities HotelCapabilities
}

// DisplayName prefers the localized name and falls back to the English one.
func (h Hotel) DisplayName() string {
	if strings.TrimSpace(h.Name) != "" {
		return h.Name
	}
	return h.NameEn
}

// Capacity is what a hotel allows for one room type.
type Capacity struct {
	Supported    bool
	MaxExtraBeds int
}

// HotelCapabilities is the parsed form of a hotel's room-type and extra-bed strings.
type HotelCapabilities struct {
	Supported    map[RoomTypeKey]bool
	MaxExtraBeds map[RoomTypeKey]int
}

func (c HotelCapabilities) For(k RoomTypeKey) Capacity {
	if len(c.Supported) == 0 || !c.Supported[k] {
		return Capacity{}
	}
	return Capacity{Supported: true, MaxExtraBeds: c.MaxExtraBeds[k]}
}
