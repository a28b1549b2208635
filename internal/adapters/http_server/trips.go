package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"family_trip/internal/app"
	"family_trip/internal/domain"
)

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	s, err := h.Sessions.Get(chi.URLParam(r, "employee"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

// slotIndex reads the 1-based {n} path parameter.
func slotIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeProblem(w, http.StatusBadRequest, "Invalid destination", "destination must be a positive number")
		return 0, false
	}
	return n - 1, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	return true
}

func (h *Handlers) openTrip(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Open(r.Context(), chi.URLParam(r, "employee"), h.lang(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.View())
}

func (h *Handlers) getTrip(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	v := s.View()
	writeCached(w, r, v.Lang, v)
}

// mutate runs fn against the session and answers with the updated view.
func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, fn func(*app.Session, int) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	idx, ok := slotIndex(w, r)
	if !ok {
		return
	}
	if err := fn(s, idx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handlers) setCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		City string `json:"city"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.mutate(w, r, func(s *app.Session, idx int) error { return s.SetCity(idx, body.City) })
}

func (h *Handlers) selectHotel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HotelID string `json:"hotel_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.HotelID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "hotel_id is required")
		return
	}
	h.mutate(w, r, func(s *app.Session, idx int) error { return s.SelectHotel(r.Context(), idx, body.HotelID) })
}

func (h *Handlers) setDate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	d, err := time.Parse(domain.DateLayout, body.Date)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", "date must be YYYY-MM-DD")
		return
	}
	h.mutate(w, r, func(s *app.Session, idx int) error { return s.SetArrivalDate(r.Context(), idx, d) })
}

type countBody struct {
	Count int `json:"count"`
}

func (h *Handlers) setRooms(w http.ResponseWriter, r *http.Request) {
	var body countBody
	if !decodeBody(w, r, &body) {
		return
	}
	key := domain.RoomTypeKey(chi.URLParam(r, "roomType"))
	h.mutate(w, r, func(s *app.Session, idx int) error { return s.SetRoomCount(idx, key, body.Count) })
}

func (h *Handlers) setExtraBeds(w http.ResponseWriter, r *http.Request) {
	var body countBody
	if !decodeBody(w, r, &body) {
		return
	}
	key := domain.RoomTypeKey(chi.URLParam(r, "roomType"))
	h.mutate(w, r, func(s *app.Session, idx int) error { return s.SetExtraBedCount(idx, key, body.Count) })
}

func (h *Handlers) setCompanions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.SetCompanions(body.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *Handlers) review(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out := s.RequestReview(r.Context())
	switch {
	case out.Success:
		writeJSON(w, http.StatusOK, out)
	case len(out.Errors) > 0:
		writeProblemDoc(w, problem{Type: "about:blank", Title: "Trip not ready for review",
			Status: http.StatusUnprocessableEntity, Errors: out.Errors})
	case out.State == app.StateReviewFailed:
		writeJSON(w, http.StatusBadGateway, out)
	default:
		// the selection moved while the review was in flight
		writeJSON(w, http.StatusConflict, out)
	}
}

func (h *Handlers) submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	out := s.Submit(r.Context())
	if !out.Success {
		writeJSON(w, http.StatusConflict, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) checkSubmission(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.CheckSubmission(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": res.Success, "message": res.Message})
}

type dayPricing struct {
	Prices        map[domain.RoomTypeKey]decimal.Decimal `json:"prices"`
	ExtraBedPrice *string                                `json:"extra_bed_price,omitempty"`
}

func (h *Handlers) monthPrices(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	idx, ok := slotIndex(w, r)
	if !ok {
		return
	}
	m, err := time.Parse("2006-01", r.URL.Query().Get("month"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid month", "month must be YYYY-MM")
		return
	}
	days, err := s.MonthPricing(r.Context(), idx, m.Year(), m.Month())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]dayPricing, len(days))
	for d, p := range days {
		dp := dayPricing{Prices: map[domain.RoomTypeKey]decimal.Decimal{}, ExtraBedPrice: p.ExtraBedPrice}
		for k := range p.PerRoomType {
			if v, ok := p.Price(k); ok {
				dp.Prices[k] = v
			}
		}
		out[d] = dp
	}
	writeJSON(w, http.StatusOK, out)
}
