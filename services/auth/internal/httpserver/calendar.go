package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/middleware"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/transport"
)

// CalendarHTTP serves the signed-in user's Google Calendar link.
type CalendarHTTP struct {
	Calendar *service.Calendar
}

func (h *CalendarHTTP) Activate(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.CalendarActivationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := h.Calendar.Activate(ctx, middleware.UserFrom(c), req.ActivationCode)
	if err != nil {
		he := transport.HTTPError(err)
		logging.FromContext(ctx).Warn("calendar_activate_failed", "handler", "calendar_activate", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, transport.NewIntegrationResponse(in))
}

func (h *CalendarHTTP) Events(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := h.Calendar.Events(ctx, middleware.UserFrom(c))
	if err != nil {
		he := transport.HTTPError(err)
		if he.Code != http.StatusNotFound {
			logging.FromContext(ctx).Error("calendar_events_failed", "handler", "calendar_events", "status", he.Code, "error", err)
		}
		return he
	}
	return c.JSON(http.StatusOK, events)
}

func (h *CalendarHTTP) Disconnect(c echo.Context) error {
	if err := h.Calendar.Disconnect(c.Request().Context(), middleware.UserFrom(c)); err != nil {
		return transport.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
