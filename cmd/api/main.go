package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "family_trip/internal/adapters/http_server"
	"family_trip/internal/adapters/observability"
	"family_trip/internal/adapters/portal"
	redisad "family_trip/internal/adapters/redis"
	"family_trip/internal/app"
	"family_trip/internal/shared"
	mysqlrepo "family_trip/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	pc, err := portal.New(cfg.PortalBase, cfg.PortalKey, cfg.PortalRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize portal client")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := cache.Ping(ctx); err != nil {
		// reads fall through to the portal while redis is away
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}
	cancel()

	catalog := app.NewCatalogService(pc, cache, cfg.CatalogTTL)
	deps := app.Deps{
		Catalog:       catalog,
		Policy:        pc,
		Pricing:       redisad.NewPricingTier(pc, cache, cfg.PricingTTL),
		Last:          pc,
		Reviewer:      pc,
		Submitter:     pc,
		PricingFanout: cfg.PricingFanout,
	}

	if cfg.SubmissionBackend == shared.BackendMySQL {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")

		repo := mysqlrepo.New(db)
		deps.Last, deps.Submitter = repo, repo
	}

	sessions := app.NewSessions(deps)

	srv := server.New(server.Options{AllowedOrigins: cfg.AllowedOrigins})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Catalog: catalog, Sessions: sessions, DefaultLang: cfg.DefaultLang})

	log.Info().Str("addr", cfg.HTTPAddr).Str("submissions", cfg.SubmissionBackend).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 10 * time.Second}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
