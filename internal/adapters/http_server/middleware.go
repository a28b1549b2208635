package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"family_trip/internal/adapters/observability"
)

const timeoutBody = `{"type":"about:blank","title":"Service Unavailable","status":503,"detail":"request took too long"}`

// Timeout bounds handler time. Slow portal calls surface as a problem document.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, timeoutBody) }
}

// Observe records request metrics and writes one access log line per request.
// Trip routes also carry the employee id.
func Observe(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route, employee := routeOf(r)
			dur := time.Since(start)
			observability.ObserveHTTP(route, r.Method, status, dur)

			ev := l.Info()
			if status >= http.StatusInternalServerError {
				ev = l.Warn()
			}
			if employee != "" {
				ev = ev.Str("employee_id", employee)
			}
			ev.Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", dur).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("remote", clientHost(r.RemoteAddr)).
				Msg("http_request")
		})
	}
}

// routeOf returns the matched pattern (raw path when nothing matched) and the
// {employee} parameter, if any.
func routeOf(r *http.Request) (string, string) {
	rc := chi.RouteContext(r.Context())
	if rc == nil || rc.RoutePattern() == "" {
		return r.URL.Path, ""
	}
	return rc.RoutePattern(), rc.URLParam("employee")
}

// clientHost strips the port; RealIP has already applied forwarding headers.
func clientHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
