package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	BackendMySQL  = "mysql"
	BackendPortal = "portal"
)

type Config struct {
	AppEnv         string
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	AllowedOrigins []string
	DefaultLang    string

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	PortalBase string
	PortalKey  string
	PortalRPS  int

	// SubmissionBackend selects who stores submitted requests: mysql or portal.
	SubmissionBackend string

	PricingTTL    time.Duration
	CatalogTTL    time.Duration
	PricingFanout int

	PrefetchWorkers int
	PrefetchMonth   time.Time
}

// Load reads the environment; a .env file in the working directory is applied
// first when present. Real environment variables win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		LogLevel:          env("LOG_LEVEL", "info"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ""),
		AllowedOrigins:    list(env("CORS_ALLOWED_ORIGINS", "")),
		DefaultLang:       env("DEFAULT_LANG", "en"),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/trip?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		PortalBase:        env("PORTAL_BASE_URL", "http://localhost:8090/api"),
		PortalKey:         env("PORTAL_API_KEY", ""),
		PortalRPS:         atoi("PORTAL_RPS", 5),
		SubmissionBackend: strings.ToLower(env("SUBMISSION_BACKEND", BackendMySQL)),
		PricingTTL:        time.Duration(atoi("PRICING_TTL_SECONDS", 600)) * time.Second,
		CatalogTTL:        time.Duration(atoi("CATALOG_TTL_SECONDS", 900)) * time.Second,
		PricingFanout:     atoi("PRICING_FANOUT", 8),
		PrefetchWorkers:   atoi("PREFETCH_WORKERS", 8),
		PrefetchMonth:     month(env("PREFETCH_MONTH", "")),
	}
	if c.PortalKey == "" {
		log.Warn().Msg("PORTAL_API_KEY is empty")
	}
	if c.SubmissionBackend != BackendMySQL && c.SubmissionBackend != BackendPortal {
		log.Warn().Str("backend", c.SubmissionBackend).Msg("unknown SUBMISSION_BACKEND, using mysql")
		c.SubmissionBackend = BackendMySQL
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// month parses YYYY-MM; empty or invalid means the month after the current one.
func month(s string) time.Time {
	if t, err := time.Parse("2006-01", s); err == nil {
		return t
	}
	if s != "" {
		log.Warn().Str("value", s).Msg("PREFETCH_MONTH must be YYYY-MM, using next month")
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
