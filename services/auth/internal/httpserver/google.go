package httpserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
	"github.com/Skotchmaster/auth_service/services/auth/internal/transport"
)

const (
	stateCookie = "oauth_state"
	stateTTL    = 10 * time.Minute
)

type GoogleHTTP struct {
	Google    *oauth.Google
	Accounts  *service.GoogleAccounts
	Authority *service.Authority
	Cookies   tokens.CookieConfig
}

func (h *GoogleHTTP) AuthURL(c echo.Context) error {
	if !h.Google.Enabled() {
		return echo.NewHTTPError(http.StatusNotFound, "google sign-in disabled")
	}
	state, err := oauth.NewState()
	if err != nil {
		return transport.HTTPError(err)
	}
	url, err := h.Google.AuthURL(state)
	if err != nil {
		return transport.HTTPError(err)
	}
	c.SetCookie(tokens.CreateCookie(h.Cookies, stateCookie, state, stateTTL, time.Now()))
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

func (h *GoogleHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_google")

	if !h.Google.Enabled() {
		return echo.NewHTTPError(http.StatusNotFound, "google sign-in disabled")
	}
	var req transport.GoogleAuthRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	var (
		profile *oauth.Profile
		err     error
	)
	if req.Code != "" {
		if !h.stateMatches(c, req.State) {
			l.Warn("google_state_mismatch")
			return transport.HTTPError(domain.E(domain.KindUnauthorized, "auth.google", errors.New("state mismatch")))
		}
		c.SetCookie(tokens.DeleteCookie(h.Cookies, stateCookie))
		profile, err = h.Google.ProfileFromCode(ctx, req.Code)
	} else {
		profile, err = h.Google.ProfileFromToken(ctx, req.AccessToken)
	}
	if err != nil {
		l.Warn("google_profile_failed", "error", err)
		return transport.HTTPError(domain.E(domain.KindUnauthorized, "auth.google", err))
	}

	user, err := h.Accounts.Resolve(ctx, profile)
	if err != nil {
		he := transport.HTTPError(domain.Normalize("auth.google", err))
		l.Warn("google_signin_failed", "status", he.Code, "error", err)
		return he
	}
	middleware.SetUser(c, user)

	s, err := h.Authority.LogIn(ctx, user, transport.Client(c, h.Cookies))
	if err != nil {
		return transport.HTTPError(err)
	}
	transport.SetSession(c, h.Cookies, s)
	l.Info("google_signin_successful", "user_id", user.ID)
	return c.JSON(http.StatusOK, sessionResponse(s))
}

func (h *GoogleHTTP) stateMatches(c echo.Context, state string) bool {
	ck, err := c.Cookie(stateCookie)
	if err != nil || ck.Value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ck.Value), []byte(state)) == 1
}
