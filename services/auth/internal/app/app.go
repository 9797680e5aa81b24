package app

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/pkg/middleware/csrf"
	"github.com/Skotchmaster/auth_service/services/auth/internal/audit"
	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/httpserver"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/notify"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
	"github.com/Skotchmaster/auth_service/services/auth/internal/repo"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
)

// Options carries everything the service graph needs besides the database.
// Zero values fall back to a log mailer, dropped events and no extra audit
// sinks.
type Options struct {
	Tokens           tokens.Config
	Cookies          tokens.CookieConfig
	RefreshRetention time.Duration
	OneTimeTokenTTL  time.Duration
	RequireVerified  bool

	Notifier service.Notifier
	Events   service.Publisher
	// ExtraAudit receives every audit entry after the database copy.
	ExtraAudit audit.Recorder
	Google     *oauth.Google
	// Calendar enables the Google Calendar integration. Its events are
	// cached in Cache, which may be nil.
	Calendar         service.CalendarProvider
	Cache            *redis.Client
	CalendarCacheTTL time.Duration

	RateLimit echo.MiddlewareFunc
	// CSRF guards logout, and refresh with the header required on GET.
	CSRF *csrf.Config

	// Now overrides the token clock.
	Now func() time.Time
}

type App struct {
	Repo      *repo.GormRepo
	Codec     *tokens.Codec
	Authority *service.Authority
	Verifier  *service.Verifier
	Users     *service.Users
	Passwords *service.Passwords
	Google    *service.GoogleAccounts
	Calendar  *service.Calendar
	Audit     audit.Recorder
	Guards    *middleware.Guards
	Deps      *httpserver.Deps
}

func New(db *gorm.DB, o Options) *App {
	if o.Notifier == nil {
		o.Notifier = notify.NewNotifier(notify.LogMailer{}, "")
	}
	if o.Events == nil {
		o.Events = events.Nop{}
	}

	gr := &repo.GormRepo{DB: db, RefreshRetention: o.RefreshRetention}
	userStore, sessions, oneTime := gr.Users(), gr.Sessions(), gr.Tokens()

	codec := tokens.NewCodec(o.Tokens)
	if o.Now != nil {
		codec = codec.WithClock(o.Now)
	}

	users := &service.Users{
		Store:    userStore,
		Sessions: sessions,
		Tokens:   oneTime,
		Notifier: o.Notifier,
		Events:   o.Events,
		TokenTTL: o.OneTimeTokenTTL,

		Integrations: gr.Integrations(),
	}
	authority := &service.Authority{
		Users:    userStore,
		Accounts: users,
		Sessions: sessions,
		Codec:    codec,
		Events:   o.Events,
	}
	passwords := &service.Passwords{
		Users:    userStore,
		Sessions: sessions,
		Tokens:   oneTime,
		Notifier: o.Notifier,
		Events:   o.Events,
		TokenTTL: o.OneTimeTokenTTL,
		Now:      o.Now,
	}
	verifier := &service.Verifier{Users: userStore, RequireVerified: o.RequireVerified}
	google := &service.GoogleAccounts{Users: userStore, Events: o.Events}
	recorder := audit.Multi{gr.Audit(), o.ExtraAudit}
	guards := middleware.NewGuards(authority, o.Cookies)

	deps := &httpserver.Deps{
		DB:          db,
		AuthHandler: &httpserver.AuthHTTP{Authority: authority, Verifier: verifier, Cookies: o.Cookies},
		Password:    &httpserver.PasswordHTTP{Passwords: passwords},
		UserHandler: &httpserver.UserHTTP{Users: users, Cookies: o.Cookies},
		Guards:      guards,
		Audit:       recorder,
		RateLimit:   o.RateLimit,
	}
	if o.CSRF != nil && o.CSRF.Enabled {
		strict := *o.CSRF
		strict.CheckSafeMethods = true
		deps.CSRF = csrf.Middleware(*o.CSRF)
		deps.CSRFRefresh = csrf.Middleware(strict)
	}
	if o.Google.Enabled() {
		deps.GoogleHandler = &httpserver.GoogleHTTP{
			Google:    o.Google,
			Accounts:  google,
			Authority: authority,
			Cookies:   o.Cookies,
		}
	}

	var calendar *service.Calendar
	if o.Calendar != nil {
		calendar = &service.Calendar{
			Integrations: gr.Integrations(),
			Provider:     o.Calendar,
			Cache:        o.Cache,
			CacheTTL:     o.CalendarCacheTTL,
			Now:          o.Now,
		}
		deps.CalendarHandler = &httpserver.CalendarHTTP{Calendar: calendar}
	}

	return &App{
		Repo:      gr,
		Codec:     codec,
		Authority: authority,
		Verifier:  verifier,
		Users:     users,
		Passwords: passwords,
		Google:    google,
		Calendar:  calendar,
		Audit:     recorder,
		Guards:    guards,
		Deps:      deps,
	}
}

// Routes mounts the HTTP API on e.
func (a *App) Routes(e *echo.Echo) {
	httpserver.Register(e, a.Deps)
}
