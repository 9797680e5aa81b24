package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/repo"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
	"github.com/Skotchmaster/auth_service/services/auth/internal/transport"
)

// UserHTTP serves the signed-in user's own account. Every route sits
// behind RequireAccess.
type UserHTTP struct {
	Users   *service.Users
	Cookies tokens.CookieConfig
}

func (h *UserHTTP) Me(c echo.Context) error {
	user, err := h.Users.Profile(c.Request().Context(), middleware.UserFrom(c).UUID)
	if err != nil {
		return transport.HTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func (h *UserHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.ProfileUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.Users.UpdateProfile(ctx, middleware.UserFrom(c).ID, repo.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Locale:    req.Locale,
		Avatar:    req.Avatar,
	})
	if err != nil {
		he := transport.HTTPError(err)
		logging.FromContext(ctx).Warn("profile_update_failed", "handler", "users_update_me", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

func (h *UserHTTP) DeleteMe(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.Users.Delete(ctx, middleware.UserFrom(c)); err != nil {
		he := transport.HTTPError(err)
		logging.FromContext(ctx).Error("user_delete_failed", "handler", "users_delete_me", "status", he.Code, "error", err)
		return he
	}
	transport.ClearSession(c, h.Cookies)
	return c.NoContent(http.StatusNoContent)
}
