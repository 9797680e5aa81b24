package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/auth_service/pkg/cache"
	pkgconfig "github.com/Skotchmaster/auth_service/pkg/config"
	"github.com/Skotchmaster/auth_service/services/auth/internal/audit"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
)

const minSecretLen = 32

const (
	MailDriverLog      = "log"
	MailDriverMailgun  = "mailgun"
	MailDriverSendgrid = "sendgrid"
	MailDriverKafka    = "kafka"
)

type MailConfig struct {
	Driver         string
	From           string
	AppURL         string
	MailgunDomain  string
	MailgunAPIKey  string
	SendgridAPIKey string
}

type Config struct {
	Addr     string
	LogLevel string

	DBDriver    string
	DatabaseURL string

	Tokens  tokens.Config
	Cookies tokens.CookieConfig

	RefreshRetention time.Duration
	AuditRetention   time.Duration
	PurgeInterval    time.Duration
	OneTimeTokenTTL  time.Duration
	RequireVerified  bool

	KafkaBrokers   []string
	KafkaAuthTopic string
	KafkaMailTopic string

	Mail      MailConfig
	ES        audit.ESConfig
	Redis     cache.RedisConfig
	RateLimit middleware.RateLimitConfig
	Google    oauth.GoogleConfig

	// CalendarEnabled turns on the Google Calendar integration when Google
	// is configured.
	CalendarEnabled  bool
	CalendarCacheTTL time.Duration

	CSRFEnabled bool
}

// Load reads the environment, after merging a .env file when one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv_load_failed", "error", err)
	}

	return Config{
		Addr:     pkgconfig.EnvDefault("AUTH_ADDR", ":8081"),
		LogLevel: pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    pkgconfig.EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		Tokens: tokens.Config{
			AccessSecret:  []byte(os.Getenv("JWT_SECRET")),
			RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
			AccessTTL:     pkgconfig.EnvDurationDefault("JWT_ACCESS_TTL", tokens.DefaultAccessTTL),
			RefreshTTL:    pkgconfig.EnvDurationDefault("JWT_REFRESH_TTL", tokens.DefaultRefreshTTL),
			Issuer:        os.Getenv("JWT_ISSUER"),
		},
		Cookies: tokens.CookieConfig{
			RefreshName:   pkgconfig.EnvDefault("REFRESH_COOKIE_NAME", "jwt_refresh"),
			AccessName:    pkgconfig.EnvDefault("ACCESS_COOKIE_NAME", "jwt"),
			AccessEnabled: pkgconfig.EnvBoolDefault("ACCESS_COOKIE_ENABLED", false),
			Domain:        os.Getenv("COOKIE_DOMAIN"),
			Secure:        pkgconfig.EnvBoolDefault("COOKIE_SECURE", true),
		},

		RefreshRetention: pkgconfig.EnvDurationDefault("REFRESH_RETENTION", 7*24*time.Hour),
		AuditRetention:   pkgconfig.EnvDurationDefault("AUDIT_RETENTION", 28*24*time.Hour),
		PurgeInterval:    pkgconfig.EnvDurationDefault("PURGE_INTERVAL", time.Hour),
		OneTimeTokenTTL:  pkgconfig.EnvDurationDefault("ONE_TIME_TOKEN_TTL", 24*time.Hour),
		RequireVerified:  pkgconfig.EnvBoolDefault("REQUIRE_VERIFIED", false),

		KafkaBrokers:   pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaAuthTopic: pkgconfig.EnvDefault("KAFKA_AUTH_TOPIC", "auth_events"),
		KafkaMailTopic: pkgconfig.EnvDefault("KAFKA_MAIL_TOPIC", "mail_events"),

		Mail: MailConfig{
			Driver:         pkgconfig.EnvDefault("MAIL_DRIVER", MailDriverLog),
			From:           pkgconfig.EnvDefault("MAIL_FROM", "no-reply@localhost"),
			AppURL:         pkgconfig.EnvDefault("APP_URL", "http://localhost:3000"),
			MailgunDomain:  os.Getenv("MAILGUN_DOMAIN"),
			MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
			SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		},
		ES: audit.ESConfig{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    pkgconfig.EnvDefault("ES_AUDIT_INDEX", "audit_logs"),
		},
		Redis: cache.RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       pkgconfig.EnvIntDefault("REDIS_DB", 0),
		},
		RateLimit: middleware.RateLimitConfig{
			Enabled:        pkgconfig.EnvBoolDefault("RATE_LIMIT_ENABLED", true),
			Prefix:         pkgconfig.EnvDefault("RATE_LIMIT_PREFIX", "auth:rl"),
			Capacity:       pkgconfig.EnvIntDefault("RATE_LIMIT_CAPACITY", 10),
			RefillTokens:   pkgconfig.EnvIntDefault("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: pkgconfig.EnvDurationDefault("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
			TTL:            pkgconfig.EnvDurationDefault("RATE_LIMIT_TTL", 10*time.Minute),
		},
		Google: oauth.GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},

		CalendarEnabled:  pkgconfig.EnvBoolDefault("GOOGLE_CALENDAR_ENABLED", true),
		CalendarCacheTTL: pkgconfig.EnvDurationDefault("GOOGLE_CALENDAR_CACHE_TTL", time.Hour),

		CSRFEnabled: pkgconfig.EnvBoolDefault("CSRF_ENABLED", false),
	}
}

// Validate reports the first setting the service cannot start with.
func (c Config) Validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("DATABASE_URL is required")
	case len(c.Tokens.AccessSecret) < minSecretLen:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	case len(c.Tokens.RefreshSecret) < minSecretLen:
		return fmt.Errorf("JWT_REFRESH_SECRET must be at least %d bytes", minSecretLen)
	case string(c.Tokens.AccessSecret) == string(c.Tokens.RefreshSecret):
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	switch c.Mail.Driver {
	case MailDriverLog, MailDriverMailgun, MailDriverSendgrid:
	case MailDriverKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("MAIL_DRIVER=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q", c.Mail.Driver)
	}
	return nil
}

// MustLoad exits the process when the configuration is unusable.
func MustLoad() Config {
	cfg := Load()
	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustSecret(cfg.Tokens.AccessSecret, "JWT_SECRET", minSecretLen)
	pkgconfig.MustSecret(cfg.Tokens.RefreshSecret, "JWT_REFRESH_SECRET", minSecretLen)
	if err := cfg.Validate(); err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	return cfg
}
