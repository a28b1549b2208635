package trip

import (
	"strconv"
	"strings"

	"family_trip/internal/domain"
)

// ParseCapabilities turns a hotel's catalog encodings ("S,D,T" and "S:1,D:2")
// into typed maps. A hotel declaring no room types supports nothing, whatever
// its extra-bed declaration says.
func ParseCapabilities(roomTypesCSV, extraBedsCSV string) domain.HotelCapabilities {
	caps := domain.HotelCapabilities{
		Supported:    map[domain.RoomTypeKey]bool{},
		MaxExtraBeds: map[domain.RoomTypeKey]int{},
	}
	for _, tag := range splitCSV(roomTypesCSV) {
		caps.Supported[domain.RoomTypeKey(tag)] = true
	}
	if len(caps.Supported) == 0 {
		return caps
	}
	for _, pair := range splitCSV(extraBedsCSV) {
		tag, n, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		key := domain.RoomTypeKey(strings.TrimSpace(tag))
		if !caps.Supported[key] {
			continue
		}
		beds, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || beds < 0 {
			continue
		}
		caps.MaxExtraBeds[key] = beds
	}
	return caps
}

// ResolveCapacity reports support and extra-bed capacity for every room type.
func ResolveCapacity(caps domain.HotelCapabilities, roomTypes []domain.RoomTypeKey) map[domain.RoomTypeKey]domain.Capacity {
	out := make(map[domain.RoomTypeKey]domain.Capacity, len(roomTypes))
	for _, k := range roomTypes {
		out[k] = caps.For(k)
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
