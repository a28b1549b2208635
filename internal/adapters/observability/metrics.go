package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "trip"

// portal calls are slower than our own handlers; buckets reach 20s (client timeout)
var portalBuckets = []float64{.05, .1, .25, .5, 1, 2, 5, 10, 20}

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	PortalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "portal", Name: "requests_total", Help: "Outbound portal requests by operation and final status."},
		[]string{"service", "operation", "status"},
	)
	PortalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "portal", Name: "request_duration_seconds",
			Help:    "Outbound portal request duration seconds, retries included.",
			Buckets: portalBuckets,
		},
		[]string{"service", "operation"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache events per tier."},
		[]string{"cache", "event"}, // cache: memory|redis, event: hit|miss|set|del
	)
	PricingFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "pricing_fetches_total", Help: "Room pricing fetches by result."},
		[]string{"result"}, // ok|error
	)
	ReviewOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "review_outcomes_total", Help: "Cost review attempts by outcome."},
		[]string{"outcome"}, // success|failure|refused|stale|unchanged
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "submissions_total", Help: "Trip submissions by outcome."},
		[]string{"outcome"}, // success|failure|refused
	)
	OpenSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "open_sessions", Help: "Trip sessions held in memory."},
	)
	PrefetchDays = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "prefetch_days_total", Help: "Prefetched pricing entries by result."},
		[]string{"result"}, // warmed|evicted|error
	)
)

// Serve exposes reg on a standalone listener; an empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// InitRegistry builds a registry with the trip metrics plus Go runtime and
// process collectors.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests, HTTPLatency, PortalRequests, PortalLatency, CacheEvents,
		PricingFetches, ReviewOutcomes, Submissions, OpenSessions, PrefetchDays,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExternal records one outbound call; status 0 means no response arrived.
func ObserveExternal(service, operation string, status int, dur time.Duration) {
	PortalRequests.WithLabelValues(service, operation, strconv.Itoa(status)).Inc()
	PortalLatency.WithLabelValues(service, operation).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { CacheEvents.WithLabelValues(cache, event).Inc() }

func ObservePricingFetch(result string) { PricingFetches.WithLabelValues(result).Inc() }

func ObserveReview(outcome string) { ReviewOutcomes.WithLabelValues(outcome).Inc() }

func ObserveSubmission(outcome string) { Submissions.WithLabelValues(outcome).Inc() }

func SetOpenSessions(n int) { OpenSessions.Set(float64(n)) }

func ObservePrefetch(result string) { PrefetchDays.WithLabelValues(result).Inc() }
