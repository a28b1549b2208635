// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"family_trip/internal/app"
	"family_trip/internal/domain"
)

type Handlers struct {
	Catalog     *app.CatalogService
	Sessions    *app.Sessions
	DefaultLang string
}

type problem struct {
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	Status int      `json:"status"`
	Detail string   `json:"detail,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/cities", h.listCities)
	s.mux.Get("/v1/cities/{city}/hotels", h.listHotels)

	s.mux.Route("/v1/trips/{employee}", func(r chi.Router) {
		r.Post("/", h.openTrip)
		r.Get("/", h.getTrip)
		r.Put("/slots/{n}/city", h.setCity)
		r.Put("/slots/{n}/hotel", h.selectHotel)
		r.Put("/slots/{n}/date", h.setDate)
		r.Put("/slots/{n}/rooms/{roomType}", h.setRooms)
		r.Put("/slots/{n}/extra-beds/{roomType}", h.setExtraBeds)
		r.Get("/slots/{n}/prices", h.monthPrices)
		r.Put("/companions", h.setCompanions)
		r.Post("/review", h.review)
		r.Post("/submit", h.submit)
		r.Get("/submission-check", h.checkSubmission)
	})
}

// lang prefers ?lang=, then Accept-Language, then the configured default.
func (h *Handlers) lang(r *http.Request) string {
	if l := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang"))); l != "" {
		return selectLang(l, h.DefaultLang)
	}
	return selectLang(r.Header.Get("Accept-Language"), h.DefaultLang)
}

func selectLang(al, def string) string {
	s := strings.ToLower(al)
	switch {
	case strings.HasPrefix(s, "th"):
		return "th"
	case strings.HasPrefix(s, "en"):
		return "en"
	}
	if def == "" {
		return "en"
	}
	return def
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemDoc(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemDoc(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps engine and provider errors onto problem documents.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "open the trip first")
	case errors.Is(err, domain.ErrSlotOutOfRange), errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrNoCity), errors.Is(err, domain.ErrNoHotel),
		errors.Is(err, domain.ErrUnknownHotel), errors.Is(err, domain.ErrDateOutsideWindow),
		errors.Is(err, domain.ErrCompanionLimit), errors.Is(err, domain.ErrUnknownCompanion):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Selection", err.Error())
	case errors.Is(err, app.ErrSelectionChanged):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusBadGateway, "Upstream Refused", "the portal refused the request")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "the portal is unavailable, please try again")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeCached writes v with a weak ETag and answers 304 when the client has it.
func writeCached(w http.ResponseWriter, r *http.Request, lang string, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	if lang != "" {
		w.Header().Set("Content-Language", lang)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

/********** catalog **********/

type cityView struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type hotelView struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	City         string         `json:"city"`
	RoomTypes    []string       `json:"room_types"`
	MaxExtraBeds map[string]int `json:"max_extra_beds"`
}

func (h *Handlers) listCities(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	cs, err := h.Catalog.ListCities(r.Context(), lang)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]cityView, 0, len(cs))
	for _, c := range cs {
		out = append(out, cityView{Code: c.Code, Name: c.Name})
	}
	writeCached(w, r, lang, out)
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	hs, err := h.Catalog.ListHotelsByCity(r.Context(), chi.URLParam(r, "city"), lang)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]hotelView, 0, len(hs))
	for _, ht := range hs {
		v := hotelView{ID: ht.ID, Name: ht.DisplayName(), City: ht.City, RoomTypes: []string{}, MaxExtraBeds: map[string]int{}}
		for k, ok := range ht.Capabilities.Supported {
			if ok {
				v.RoomTypes = append(v.RoomTypes, string(k))
				v.MaxExtraBeds[string(k)] = ht.Capabilities.MaxExtraBeds[k]
			}
		}
		sort.Strings(v.RoomTypes)
		out = append(out, v)
	}
	writeCached(w, r, lang, out)
}
