package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"family_trip/internal/domain"
)

var (
	_ domain.Catalog             = (*Client)(nil)
	_ domain.PolicyProvider      = (*Client)(nil)
	_ domain.PricingClient       = (*Client)(nil)
	_ domain.LastSelection       = (*Client)(nil)
	_ domain.ReviewAuthority     = (*Client)(nil)
	_ domain.SubmissionAuthority = (*Client)(nil)
)

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func langQuery(lang string) url.Values {
	q := url.Values{}
	if lang != "" {
		q.Set("lang", lang)
	}
	return q
}

/********** catalog **********/

func (c *Client) ListCities(ctx context.Context, lang string) ([]domain.City, error) {
	var raw any
	if err := c.get(ctx, "cities", c.endpoint("/cities", langQuery(lang)), &raw); err != nil {
		return nil, err
	}
	return mapCities(raw), nil
}

func (c *Client) ListHotelsByCity(ctx context.Context, city, lang string) ([]domain.Hotel, error) {
	var raw any
	u := c.endpoint("/cities/"+url.PathEscape(city)+"/hotels", langQuery(lang))
	if err := c.get(ctx, "hotels", u, &raw); err != nil {
		return nil, err
	}
	return mapHotels(raw, city), nil
}

func (c *Client) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	var raw any
	if err := c.get(ctx, "room_types", c.endpoint("/room-types", nil), &raw); err != nil {
		return nil, err
	}
	return mapRoomTypes(raw), nil
}

func (c *Client) ListCompanions(ctx context.Context, employeeID, lang string) ([]domain.Companion, error) {
	var raw any
	u := c.endpoint("/employees/"+url.PathEscape(employeeID)+"/companions", langQuery(lang))
	if err := c.get(ctx, "companions", u, &raw); err != nil {
		return nil, err
	}
	return mapCompanions(raw), nil
}

/********** policy & pricing **********/

func (c *Client) GetPolicy(ctx context.Context, employeeID string) (domain.Policy, error) {
	var raw any
	u := c.endpoint("/employees/"+url.PathEscape(employeeID)+"/policy", nil)
	if err := c.get(ctx, "policy", u, &raw); err != nil {
		return domain.Policy{}, err
	}
	return mapPolicy(raw), nil
}

// GetRoomPrices returns the raw pricing payload; shape normalization happens
// in the engine. Older portal deployments serve the date as a path segment.
func (c *Client) GetRoomPrices(ctx context.Context, hotelID string, date *time.Time) (json.RawMessage, error) {
	base := "/hotels/" + url.PathEscape(hotelID) + "/prices"
	candidates := []string{c.endpoint(base, nil)}
	if date != nil {
		d := date.Format(domain.DateLayout)
		candidates = []string{
			c.endpoint(base, url.Values{"date": {d}}),
			c.endpoint(base+"/"+d, nil),
		}
	}
	var raw json.RawMessage
	if err := c.getFirst(ctx, "prices", candidates, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

/********** last selection **********/

func (c *Client) GetLastHotels(ctx context.Context, employeeID, lang string) ([]domain.LastHotel, error) {
	var raw any
	u := c.endpoint("/employees/"+url.PathEscape(employeeID)+"/last-hotels", langQuery(lang))
	if err := c.get(ctx, "last_hotels", u, &raw); err != nil {
		return nil, err
	}
	return mapLastHotels(raw), nil
}

func (c *Client) GetLastCompanions(ctx context.Context, employeeID, lang string) ([]domain.Companion, error) {
	var raw any
	u := c.endpoint("/employees/"+url.PathEscape(employeeID)+"/last-companions", langQuery(lang))
	if err := c.get(ctx, "last_companions", u, &raw); err != nil {
		return nil, err
	}
	return mapCompanions(raw), nil
}

/********** review & submission **********/

type tripPayload struct {
	EmployeeID string                   `json:"employee_id"`
	Companions string                   `json:"companions"`
	Lang       string                   `json:"lang,omitempty"`
	Hotels     []domain.SubmittableSlot `json:"hotels"`
}

func (c *Client) Review(ctx context.Context, employeeID, companionIDs string, slots []domain.SubmittableSlot, lang string) (domain.ReviewResult, error) {
	var raw any
	u := c.endpoint("/employees/"+url.PathEscape(employeeID)+"/review", nil)
	body := tripPayload{EmployeeID: employeeID, Companions: companionIDs, Lang: lang, Hotels: slots}
	if err := c.post(ctx, "review", u, body, &raw); err != nil {
		return domain.ReviewResult{}, fmt.Errorf("review trip for %s: %w", employeeID, err)
	}
	return mapReviewResult(raw), nil
}

func (c *Client) Submit(ctx context.Context, employeeID, companionIDs string, slots []domain.SubmittableSlot) (domain.SubmitResult, error) {
	var raw any
	u := c.endpoint("/employees/"+url.PathEscape(employeeID)+"/submit", nil)
	body := tripPayload{EmployeeID: employeeID, Companions: companionIDs, Hotels: slots}
	if err := c.post(ctx, "submit", u, body, &raw); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("submit trip for %s: %w", employeeID, err)
	}
	return mapSubmitResult(raw), nil
}

func (c *Client) CheckSubmission(ctx context.Context, employeeID, lang string) (domain.CheckResult, error) {
	var raw any
	u := c.endpoint("/employees/"+url.PathEscape(employeeID)+"/submission-check", langQuery(lang))
	if err := c.get(ctx, "submission_check", u, &raw); err != nil {
		return domain.CheckResult{}, err
	}
	return mapCheckResult(raw), nil
}
