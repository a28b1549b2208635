package trip

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"family_trip/internal/domain"
)

/********** alias registries **********/

var pricingAliases = map[string][]string{
	"room_type": {"room_type", "room_code", "type", "code"},
	"price":     {"room_price", "price", "amount"},
	"extra_bed": {"extra_bed_price", "extra_bed"},
	"envelope":  {"data", "rows", "prices", "result"},
}

// NormalizePricing resolves a raw pricing payload into the canonical shape.
// Accepted: an array of per-room-type records, a flat {roomType: price} map,
// or an object wrapping either under data/rows/prices/result.
// Malformed input yields an empty record, never an error.
func NormalizePricing(raw []byte) domain.RoomPricing {
	out := domain.RoomPricing{PerRoomType: map[domain.RoomTypeKey]decimal.Decimal{}}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return out
	}
	normalizeInto(&out, v, 0)
	return out
}

func normalizeInto(out *domain.RoomPricing, v any, depth int) {
	switch t := v.(type) {
	case []any:
		normalizeRows(out, t)
	case map[string]any:
		if depth == 0 {
			if inner, ok := fieldFold(t, pricingAliases["envelope"]); ok {
				switch inner.(type) {
				case []any, map[string]any:
					normalizeInto(out, inner, depth+1)
					if out.ExtraBedPrice == nil {
						out.ExtraBedPrice = extraBedFrom(t)
					}
					return
				}
			}
		}
		normalizeFlat(out, t)
	}
}

func normalizeRows(out *domain.RoomPricing, rows []any) {
	for _, r := range rows {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		tag, _ := fieldFold(rec, pricingAliases["room_type"])
		key := roomKey(tag)
		if key == "" {
			continue
		}
		if out.ExtraBedPrice == nil {
			out.ExtraBedPrice = extraBedFrom(rec)
		}
		pv, _ := fieldFold(rec, pricingAliases["price"])
		if d, ok := positiveDecimal(pv); ok {
			out.PerRoomType[key] = d
		}
	}
}

func normalizeFlat(out *domain.RoomPricing, m map[string]any) {
	skip := map[string]struct{}{}
	for _, a := range pricingAliases["extra_bed"] {
		skip[canon(a)] = struct{}{}
	}
	for k, v := range m {
		if _, ok := skip[canon(k)]; ok {
			continue
		}
		key := roomKey(k)
		if key == "" {
			continue
		}
		if d, ok := positiveDecimal(v); ok {
			out.PerRoomType[key] = d
		}
	}
	if out.ExtraBedPrice == nil {
		out.ExtraBedPrice = extraBedFrom(m)
	}
}

/********** tiny helpers **********/

// canon lowercases and drops separators so "EXTRA_BED_PRICE", "extraBedPrice"
// and "extra-bed-price" compare equal.
func canon(k string) string {
	return keyFolder.Replace(strings.ToLower(strings.TrimSpace(k)))
}

var keyFolder = strings.NewReplacer("_", "", "-", "", " ", "")

// fieldFold returns the first alias present in m; alias order is priority order.
func fieldFold(m map[string]any, aliases []string) (any, bool) {
	for _, a := range aliases {
		ca := canon(a)
		for k, v := range m {
			if canon(k) == ca {
				return v, true
			}
		}
	}
	return nil, false
}

func roomKey(v any) domain.RoomTypeKey {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return domain.RoomTypeKey(strings.TrimSpace(s))
}

// positiveDecimal accepts JSON numbers and numeric strings ("1,250.00").
func positiveDecimal(v any) (decimal.Decimal, bool) {
	var d decimal.Decimal
	var err error
	switch t := v.(type) {
	case json.Number:
		d, err = decimal.NewFromString(t.String())
	case float64:
		d = decimal.NewFromFloat(t)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if s == "" {
			return decimal.Zero, false
		}
		d, err = decimal.NewFromString(s)
	default:
		return decimal.Zero, false
	}
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func extraBedFrom(m map[string]any) *string {
	v, ok := fieldFold(m, pricingAliases["extra_bed"])
	if !ok {
		return nil
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case float64:
		s = decimal.NewFromFloat(t).String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}
