package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/transport"
)

type PasswordHTTP struct {
	Passwords *service.Passwords
}

func (h *PasswordHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_forgot_password")

	var req transport.ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.Passwords.ForgotPassword(ctx, req.Identifier); err != nil {
		he := transport.HTTPError(err)
		l.Error("forgot_password_failed", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if the account exists, a reset link was sent"})
}

func (h *PasswordHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	var req transport.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token, err := parseToken(req.Token)
	if err != nil {
		return err
	}
	if err := h.Passwords.ChangePassword(ctx, token, req.Password); err != nil {
		he := transport.HTTPError(err)
		l.Warn("change_password_failed", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

func (h *PasswordHTTP) VerifyAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify_account")

	var req transport.VerifyAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token, err := parseToken(req.Token)
	if err != nil {
		return err
	}
	if err := h.Passwords.VerifyAccount(ctx, token); err != nil {
		he := transport.HTTPError(err)
		l.Warn("verify_account_failed", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account verified"})
}

func parseToken(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid token")
	}
	return id, nil
}
