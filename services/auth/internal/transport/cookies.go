package transport

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
)

// HeaderAccessToken carries an access token renewed from the refresh cookie.
const HeaderAccessToken = "X-Access-Token"

// Client collects the session credentials of the request. With access
// cookies enabled, the access cookie stands in for a missing Authorization
// header.
func Client(c echo.Context, cfg tokens.CookieConfig) service.ClientContext {
	req := c.Request()
	cc := service.ClientContext{
		UserAgent:     req.UserAgent(),
		IP:            c.RealIP(),
		Authorization: req.Header.Get(echo.HeaderAuthorization),
	}
	if ck, err := c.Cookie(cfg.RefreshName); err == nil {
		cc.RefreshToken = ck.Value
	}
	if cc.Authorization == "" && cfg.AccessEnabled {
		if ck, err := c.Cookie(cfg.AccessName); err == nil && ck.Value != "" {
			cc.Authorization = "Bearer " + ck.Value
		}
	}
	return cc
}

// SetSession writes the refresh cookie of s, replacing whatever the client
// sent, and the access cookie when enabled.
func SetSession(c echo.Context, cfg tokens.CookieConfig, s *service.Session) {
	now := time.Now()
	c.SetCookie(tokens.CreateCookie(cfg, cfg.RefreshName, s.Refresh.Token, s.Refresh.TTL, now))
	if cfg.AccessEnabled {
		c.SetCookie(tokens.CreateCookie(cfg, cfg.AccessName, s.Access.Token, s.Access.TTL, now))
	}
}

func SetRenewedAccess(c echo.Context, cfg tokens.CookieConfig, issued tokens.Issued) {
	c.Response().Header().Set(HeaderAccessToken, issued.Token)
	if cfg.AccessEnabled {
		c.SetCookie(tokens.CreateCookie(cfg, cfg.AccessName, issued.Token, issued.TTL, time.Now()))
	}
}

func ClearSession(c echo.Context, cfg tokens.CookieConfig) {
	c.SetCookie(tokens.DeleteCookie(cfg, cfg.RefreshName))
	if cfg.AccessEnabled {
		c.SetCookie(tokens.DeleteCookie(cfg, cfg.AccessName))
	}
}
