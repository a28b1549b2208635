package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"family_trip/internal/adapters/observability"
	"family_trip/internal/adapters/portal"
	redisad "family_trip/internal/adapters/redis"
	"family_trip/internal/app"
	"family_trip/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	month := cfg.PrefetchMonth
	log.Info().
		Str("base", cfg.PortalBase).
		Int("workers", cfg.PrefetchWorkers).
		Str("month", month.Format("2006-01")).
		Msg("prefetch starting")

	client, err := portal.New(cfg.PortalBase, cfg.PortalKey, cfg.PortalRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize portal client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}

	tier := redisad.NewPricingTier(client, cache, cfg.PricingTTL)
	svc := app.NewPrefetchService(app.NewCatalogService(client, cache, cfg.CatalogTTL), tier)

	ids, err := svc.Hotels(ctx, cfg.DefaultLang)
	if err != nil {
		log.Fatal().Err(err).Msg("listing hotels failed")
	}
	days := app.MonthDays(month.Year(), month.Month())

	workers := cfg.PrefetchWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed atomic.Int64

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("prefetch interrupted")
			break
		}

		wg.Add(1)
		go func(hotelID string) {
			defer wg.Done()
			defer sem.Release(1)

			if err := svc.PrefetchHotel(ctx, hotelID, days); err != nil {
				failed.Add(1)
				log.Warn().Str("hotel_id", hotelID).Err(err).Msg("prefetch failed")
				return
			}
			log.Info().Str("hotel_id", hotelID).Msg("prefetch ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int("hotels", len(ids)).Int64("failed", failed.Load()).Msg("prefetch completed")
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
