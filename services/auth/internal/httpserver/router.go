package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/services/auth/internal/audit"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type Deps struct {
	DB            *gorm.DB
	AuthHandler   *AuthHTTP
	Password      *PasswordHTTP
	GoogleHandler *GoogleHTTP
	UserHandler   *UserHTTP
	Guards        *middleware.Guards
	Audit         audit.Recorder

	// CalendarHandler is nil when Google is not configured.
	CalendarHandler *CalendarHTTP

	// RateLimit and the CSRF checks may be nil. CSRFRefresh guards the
	// refresh route, which rotates state on GET.
	RateLimit   echo.MiddlewareFunc
	CSRF        echo.MiddlewareFunc
	CSRFRefresh echo.MiddlewareFunc
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func orPassthrough(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return passthrough
	}
	return m
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}
	limit := orPassthrough(d.RateLimit)
	csrf := orPassthrough(d.CSRF)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB != nil {
			if err := db.Ping(c.Request().Context(), d.DB); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	auth := e.Group("/api/auth")
	auth.POST("/register", d.AuthHandler.Register, limit)
	auth.POST("/login", d.AuthHandler.Login, limit,
		middleware.Audit(models.AuditLogIn, models.AuditResourceUser, d.Audit))
	auth.POST("/logout", d.AuthHandler.LogOut, csrf, d.Guards.OptionalAccess,
		middleware.Audit(models.AuditLogOut, models.AuditResourceUser, d.Audit))
	auth.GET("/refresh", d.AuthHandler.Refresh, orPassthrough(d.CSRFRefresh), d.Guards.RequireRefresh)
	if d.CSRF != nil {
		// hands out the token cookie before the first refresh
		auth.GET("/csrf", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, csrf)
	}

	password := d.Password
	auth.POST("/forgot-password", password.ForgotPassword, limit)
	auth.POST("/change-password", password.ChangePassword)
	auth.POST("/verify-account", password.VerifyAccount)

	if d.GoogleHandler != nil {
		auth.GET("/google/url", d.GoogleHandler.AuthURL)
		auth.POST("/google", d.GoogleHandler.SignIn, limit)
	}

	users := e.Group("/api/users", d.Guards.RequireAccess)
	users.GET("/me", d.UserHandler.Me)
	users.PATCH("/me", d.UserHandler.UpdateMe)
	users.DELETE("/me", d.UserHandler.DeleteMe)

	if d.CalendarHandler != nil {
		cal := e.Group("/api/integrations/google-calendar", d.Guards.RequireAccess)
		cal.GET("", d.CalendarHandler.Events)
		cal.POST("", d.CalendarHandler.Activate, limit)
		cal.DELETE("", d.CalendarHandler.Disconnect)
	}
}
