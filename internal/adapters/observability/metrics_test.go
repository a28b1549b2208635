package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"family_trip/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are exported
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveReview("success")
	observability.ObservePricingFetch("ok")
	observability.ObserveExternal("portal", "prices", 200, 80*time.Millisecond)
	observability.ObservePrefetch("warmed")
	observability.SetOpenSessions(3)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"trip_http_requests_total", "trip_review_outcomes_total", "trip_pricing_fetches_total",
		"trip_portal_requests_total", "trip_prefetch_days_total", "trip_open_sessions 3", "go_goroutines",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
