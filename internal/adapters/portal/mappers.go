package portal

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"family_trip/internal/domain"
	"family_trip/internal/trip"
)

/********** alias registries (single source of truth) **********/

var cityAliases = map[string][]string{
	"code": {"city_code", "code", "city_id", "id"},
	"name": {"city_name", "name", "label"},
}

var hotelAliases = map[string][]string{
	"id":         {"hotel_id", "hotel_code", "id", "code"},
	"name":       {"hotel_name", "name", "name_local"},
	"name_en":    {"hotel_name_en", "name_en", "english_name"},
	"city":       {"city_code", "city", "location.city"},
	"room_types": {"room_types", "supported_room_types", "room_type_list", "rooms.types"},
	"extra_beds": {"extra_beds", "max_extra_beds", "extra_bed_list", "rooms.extra_beds"},
}

var roomTypeAliases = map[string][]string{
	"key":  {"room_type", "room_code", "code", "key", "type"},
	"name": {"room_type_name", "room_name", "name", "label"},
}

var companionAliases = map[string][]string{
	"id":       {"companion_id", "family_id", "member_id", "id"},
	"relation": {"relation", "relationship", "relation_code"},
	"name":     {"full_name", "companion_name", "name"},
}

var policyAliases = map[string][]string{
	"max_companions": {"max_companions", "companion_limit", "max_family", "limits.companions"},
	"max_hotels":     {"max_hotels", "hotel_limit", "max_destinations", "limits.hotels"},
	"start_date":     {"start_date", "date_from", "from", "window.start"},
	"end_date":       {"end_date", "date_to", "to", "window.end"},
	"enabled":        {"enabled", "is_open", "active", "open"},
}

var lastHotelAliases = map[string][]string{
	"city":       {"city_code", "city"},
	"hotel_id":   {"hotel_id", "hotel_code", "id"},
	"hotel_name": {"hotel_name", "name"},
	"date":       {"date", "arrival_date", "check_in"},
	"rooms_data": {"rooms_data", "rooms", "room_data"},
}

var resultAliases = map[string][]string{
	"success":    {"success", "ok", "succeeded"},
	"status":     {"status", "result"},
	"message":    {"message", "msg", "error", "detail"},
	"request_id": {"request_id", "trip_id", "id"},
	"costs":      {"costs", "hotels", "data", "rows"},
}

var costAliases = map[string][]string{
	"hotel_id":      {"hotel_id", "hotel_code"},
	"date":          {"date", "arrival_date"},
	"total_cost":    {"total_cost", "total", "cost"},
	"employee_cost": {"employee_cost", "employee_share", "emp_cost", "self_pay"},
}

var envelopeKeys = []string{"data", "rows", "items", "result", "results"}

/********** tiny helpers **********/

// lookupAny is a nested lookup with dot paths. Each segment matches exactly
// first, then case-insensitively (the portal mixes COLUMN_CASE and snake_case).
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			v, ok = foldKey(obj, part)
			if !ok {
				return nil
			}
		}
		cur = v
	}
	return cur
}

func foldKey(obj map[string]any, key string) (any, bool) {
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// lookupStr returns the value at path as text; numbers are rendered as-is.
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// firstNonEmptyAlias returns the first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// firstAny returns the first present value for a named alias set.
func firstAny(m map[string]any, aliases map[string][]string, key string) any {
	for _, p := range aliases[key] {
		if v := lookupAny(m, p); v != nil {
			return v
		}
	}
	return nil
}

// getIntFlexible reads an int from json.Number, float64 or a numeric string.
func getIntFlexible(m map[string]any, aliases map[string][]string, key string) (int, bool) {
	for _, p := range aliases[key] {
		switch v := lookupAny(m, p).(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n), true
			}
			if f, err := v.Float64(); err == nil {
				return int(f), true
			}
		case float64:
			return int(v), true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// getDecimalFlexible accepts numbers and strings such as "1,250.00".
func getDecimalFlexible(m map[string]any, aliases map[string][]string, key string) (decimal.Decimal, bool) {
	for _, p := range aliases[key] {
		var s string
		switch v := lookupAny(m, p).(type) {
		case json.Number:
			s = v.String()
		case float64:
			return decimal.NewFromFloat(v), true
		case string:
			s = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		default:
			continue
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// getBoolFlexible accepts true/false, 1/0 and Y/N style flags.
func getBoolFlexible(m map[string]any, aliases map[string][]string, key string) (bool, bool) {
	for _, p := range aliases[key] {
		switch v := lookupAny(m, p).(type) {
		case bool:
			return v, true
		case json.Number:
			return v.String() != "0", true
		case float64:
			return v != 0, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "y", "yes", "true", "1", "open", "success", "ok":
				return true, true
			case "n", "no", "false", "0", "closed", "fail", "failure", "error":
				return false, true
			}
		}
	}
	return false, false
}

var dateLayouts = []string{domain.DateLayout, time.RFC3339, "2006-01-02 15:04:05", "02/01/2006", "20060102"}

func getDateFlexible(m map[string]any, aliases map[string][]string, key string) time.Time {
	s := firstNonEmptyAlias(m, aliases, key)
	if s == "" {
		return time.Time{}
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return domain.TruncateDay(t)
		}
	}
	return time.Time{}
}

// csvFlexible accepts "S,D" as well as ["S","D"].
func csvFlexible(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			switch s := it.(type) {
			case string:
				parts = append(parts, s)
			case map[string]any:
				// {"type":"D","extra_beds":2} style entries
				k := firstNonEmptyAlias(s, roomTypeAliases, "key")
				if n := lookupStr(s, "extra_beds"); n != "" {
					k += ":" + n
				}
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// rows unwraps a top-level list, either bare or inside a common envelope key.
func rows(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		for _, k := range envelopeKeys {
			if inner := lookupAny(t, k); inner != nil {
				if _, isList := inner.([]any); isList {
					return rows(inner)
				}
			}
		}
	}
	return nil
}

// object unwraps a single record, possibly nested in an envelope.
func object(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		if rs := rows(v); len(rs) > 0 {
			return rs[0]
		}
		return nil
	}
	for _, k := range envelopeKeys {
		if inner, ok := lookupAny(m, k).(map[string]any); ok {
			return inner
		}
	}
	return m
}

/********** mappers **********/

func mapCities(v any) []domain.City {
	var out []domain.City
	for _, r := range rows(v) {
		code := firstNonEmptyAlias(r, cityAliases, "code")
		if code == "" {
			continue
		}
		name := firstNonEmptyAlias(r, cityAliases, "name")
		if name == "" {
			name = code
		}
		out = append(out, domain.City{Code: code, Name: name})
	}
	return out
}

// mapHotels parses capability strings at the catalog boundary so the engine
// only ever sees typed capacity.
func mapHotels(v any, city string) []domain.Hotel {
	var out []domain.Hotel
	for _, r := range rows(v) {
		id := firstNonEmptyAlias(r, hotelAliases, "id")
		if id == "" {
			continue
		}
		h := domain.Hotel{
			ID:           id,
			Name:         firstNonEmptyAlias(r, hotelAliases, "name"),
			NameEn:       firstNonEmptyAlias(r, hotelAliases, "name_en"),
			City:         firstNonEmptyAlias(r, hotelAliases, "city"),
			RoomTypesRaw: csvFlexible(firstAny(r, hotelAliases, "room_types")),
			ExtraBedsRaw: csvFlexible(firstAny(r, hotelAliases, "extra_beds")),
		}
		if h.City == "" {
			h.City = city
		}
		h.Capabilities = trip.ParseCapabilities(h.RoomTypesRaw, h.ExtraBedsRaw)
		out = append(out, h)
	}
	return out
}

func mapRoomTypes(v any) []domain.RoomType {
	var out []domain.RoomType
	seen := map[domain.RoomTypeKey]bool{}
	for _, r := range rows(v) {
		k := domain.RoomTypeKey(firstNonEmptyAlias(r, roomTypeAliases, "key"))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, domain.RoomType{Key: k, Name: firstNonEmptyAlias(r, roomTypeAliases, "name")})
	}
	return out
}

func mapCompanions(v any) []domain.Companion {
	var out []domain.Companion
	for _, r := range rows(v) {
		id := firstNonEmptyAlias(r, companionAliases, "id")
		if id == "" {
			continue
		}
		out = append(out, domain.Companion{
			ID:       id,
			Relation: strings.ToUpper(firstNonEmptyAlias(r, companionAliases, "relation")),
			Name:     firstNonEmptyAlias(r, companionAliases, "name"),
		})
	}
	return out
}

// mapPolicy defaults to a closed, zero-capacity policy when fields are missing.
func mapPolicy(v any) domain.Policy {
	m := object(v)
	if m == nil {
		return domain.Policy{}
	}
	var p domain.Policy
	if n, ok := getIntFlexible(m, policyAliases, "max_companions"); ok && n > 0 {
		p.MaxCompanions = n
	}
	if n, ok := getIntFlexible(m, policyAliases, "max_hotels"); ok && n > 0 {
		p.MaxHotels = n
	}
	p.StartDate = getDateFlexible(m, policyAliases, "start_date")
	p.EndDate = getDateFlexible(m, policyAliases, "end_date")
	p.Enabled, _ = getBoolFlexible(m, policyAliases, "enabled")
	return p
}

func mapLastHotels(v any) []domain.LastHotel {
	var out []domain.LastHotel
	for _, r := range rows(v) {
		lh := domain.LastHotel{
			City:      firstNonEmptyAlias(r, lastHotelAliases, "city"),
			HotelID:   firstNonEmptyAlias(r, lastHotelAliases, "hotel_id"),
			HotelName: firstNonEmptyAlias(r, lastHotelAliases, "hotel_name"),
			RoomsData: firstNonEmptyAlias(r, lastHotelAliases, "rooms_data"),
		}
		if d := getDateFlexible(r, lastHotelAliases, "date"); !d.IsZero() {
			lh.Date = d.Format(domain.DateLayout)
		}
		out = append(out, lh)
	}
	return out
}

// resultSuccess reads an explicit success flag, falling back to a status word.
func resultSuccess(m map[string]any) bool {
	if ok, found := getBoolFlexible(m, resultAliases, "success"); found {
		return ok
	}
	ok, _ := getBoolFlexible(m, resultAliases, "status")
	return ok
}

func mapReviewResult(v any) domain.ReviewResult {
	m := object(v)
	if m == nil {
		return domain.ReviewResult{}
	}
	res := domain.ReviewResult{
		Success: resultSuccess(m),
		Message: firstNonEmptyAlias(m, resultAliases, "message"),
	}
	for _, r := range rows(firstAny(m, resultAliases, "costs")) {
		total, ok1 := getDecimalFlexible(r, costAliases, "total_cost")
		emp, ok2 := getDecimalFlexible(r, costAliases, "employee_cost")
		if !ok1 || !ok2 {
			continue
		}
		c := domain.SlotCost{
			HotelID:      firstNonEmptyAlias(r, costAliases, "hotel_id"),
			TotalCost:    total,
			EmployeeCost: emp,
		}
		if d := getDateFlexible(r, costAliases, "date"); !d.IsZero() {
			c.Date = d.Format(domain.DateLayout)
		}
		res.Costs = append(res.Costs, c)
	}
	return res
}

func mapSubmitResult(v any) domain.SubmitResult {
	m := object(v)
	if m == nil {
		return domain.SubmitResult{}
	}
	return domain.SubmitResult{
		Success:   resultSuccess(m),
		Message:   firstNonEmptyAlias(m, resultAliases, "message"),
		RequestID: firstNonEmptyAlias(m, resultAliases, "request_id"),
	}
}

func mapCheckResult(v any) domain.CheckResult {
	m := object(v)
	if m == nil {
		return domain.CheckResult{}
	}
	return domain.CheckResult{
		Success: resultSuccess(m),
		Message: firstNonEmptyAlias(m, resultAliases, "message"),
	}
}
