package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
	"github.com/Skotchmaster/auth_service/services/auth/internal/transport"
)

type AuthHTTP struct {
	Authority *service.Authority
	Verifier  *service.Verifier
	Cookies   tokens.CookieConfig
}

// bind decodes and validates the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(dst)
}

func sessionResponse(s *service.Session) transport.SessionResponse {
	return transport.SessionResponse{
		User:        transport.NewUserResponse(s.User),
		AccessToken: s.Access.Token,
		AccessExp:   s.Access.ExpiresAt,
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.SignUpRequest
	if err := bind(c, &req); err != nil {
		l.Warn("register_error", "status", http.StatusBadRequest, "error", err)
		return err
	}

	s, err := h.Authority.Register(ctx, service.NewUser{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Locale:    req.Locale,
	}, transport.Client(c, h.Cookies))
	if err != nil {
		he := transport.HTTPError(err)
		l.Warn("register_failed", "status", he.Code, "error", err)
		return he
	}

	transport.SetSession(c, h.Cookies, s)
	l.Info("register_successful", "user_id", s.User.ID)
	return c.JSON(http.StatusCreated, sessionResponse(s))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.SignInRequest
	if err := bind(c, &req); err != nil {
		l.Warn("login_error", "status", http.StatusBadRequest, "error", err)
		return err
	}

	user, err := h.Verifier.Verify(ctx, req.Identifier, req.Password)
	if err != nil {
		he := transport.HTTPError(domain.Normalize("auth.login", err))
		l.Warn("login_failed", "status", he.Code, "reason", domain.KindOf(err).String())
		return he
	}
	middleware.SetUser(c, user)

	s, err := h.Authority.LogIn(ctx, user, transport.Client(c, h.Cookies))
	if err != nil {
		he := transport.HTTPError(err)
		l.Error("login_failed", "status", he.Code, "error", err)
		return he
	}

	transport.SetSession(c, h.Cookies, s)
	l.Info("login_successful", "user_id", user.ID)
	return c.JSON(http.StatusOK, sessionResponse(s))
}

// LogOut always succeeds and always clears the session cookies.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()

	h.Authority.LogOut(ctx, transport.Client(c, h.Cookies), middleware.UserFrom(c))
	transport.ClearSession(c, h.Cookies)

	logging.FromContext(ctx).Info("successful_logout", "handler", "auth_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	user, rec := middleware.UserFrom(c), middleware.RefreshRecordFrom(c)
	if user == nil || rec == nil {
		return transport.HTTPError(domain.E(domain.KindUnauthorized, "auth.refresh", errors.New("refresh guard not applied")))
	}

	s, err := h.Authority.RefreshToken(ctx, user, rec, transport.Client(c, h.Cookies))
	if err != nil {
		if service.SessionEnded(err) {
			transport.ClearSession(c, h.Cookies)
		}
		he := transport.HTTPError(err)
		l.Warn("refresh_failed", "status", he.Code, "error", err)
		return he
	}

	transport.SetSession(c, h.Cookies, s)
	l.Info("refresh_successful", "user_id", user.ID)
	return c.JSON(http.StatusOK, sessionResponse(s))
}
