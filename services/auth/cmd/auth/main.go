package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/auth_service/pkg/cache"
	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/auth_service/pkg/middleware/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/app"
	"github.com/Skotchmaster/auth_service/services/auth/internal/audit"
	"github.com/Skotchmaster/auth_service/services/auth/internal/config"
	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/notify"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(cfg.LogLevel).With("service", "auth")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("db_init_failed", "error", err)
		os.Exit(1)
	}

	var (
		producer  *events.Producer
		publisher service.Publisher = events.Nop{}
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaAuthTopic)
		publisher = producer
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAuthTopic)
	}

	mailer, err := app.NewMailer(cfg, producer, logger)
	if err != nil {
		logger.Error("mailer_init_failed", "error", err)
		os.Exit(1)
	}
	notifier := notify.NewNotifier(mailer, cfg.Mail.AppURL)

	var extraAudit audit.Recorder
	if cfg.ES.URL != "" {
		es, err := audit.NewESClient(cfg.ES)
		if err != nil {
			logger.Warn("es_unavailable", "error", err)
		} else {
			extraAudit = &audit.ESIndexer{Client: es, Index: cfg.ES.Index}
		}
	}

	rdb := cache.NewRedisClient(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	var calendar service.CalendarProvider
	if c := oauth.NewCalendar(cfg.Google); cfg.CalendarEnabled && c.Enabled() {
		calendar = c
	}

	cc := csrf.DefaultConfig()
	cc.Enabled = cfg.CSRFEnabled
	cc.Domain = cfg.Cookies.Domain
	cc.Secure = cfg.Cookies.Secure

	a := app.New(gdb, app.Options{
		Tokens:           cfg.Tokens,
		Cookies:          cfg.Cookies,
		RefreshRetention: cfg.RefreshRetention,
		OneTimeTokenTTL:  cfg.OneTimeTokenTTL,
		RequireVerified:  cfg.RequireVerified,
		Notifier:         notifier,
		Events:           publisher,
		ExtraAudit:       extraAudit,
		Google:           oauth.NewGoogle(cfg.Google),
		Calendar:         calendar,
		Cache:            rdb,
		CalendarCacheTTL: cfg.CalendarCacheTTL,
		RateLimit:        middleware.RateLimit(cfg.RateLimit, rdb),
		CSRF:             &cc,
	})

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = a.Repo.Migrate(migrateCtx)
	cancel()
	if err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	purger := &worker.Purger{
		Sessions:         a.Repo.Sessions(),
		Tokens:           a.Repo.Tokens(),
		Audit:            a.Repo.Audit(),
		RefreshRetention: cfg.RefreshRetention,
		AuditRetention:   cfg.AuditRetention,
		Interval:         cfg.PurgeInterval,
		Log:              logger,
	}
	go purger.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	a.Routes(e)

	go func() {
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("echo_start_failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("auth_started", "addr", cfg.Addr)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_failed", "error", err)
	}
	notifier.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka_close_failed", "error", err)
		}
	}
	logger.Info("auth_stopped")
}
