package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/audit"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

// Audit records the outcome of the wrapped handler. A request succeeded
// when the handler returned no error and answered below 400. Recording is
// best effort and never changes the response.
func Audit(action models.AuditAction, resource models.AuditResource, rec audit.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if rec == nil {
			return next
		}
		return func(c echo.Context) error {
			err := next(c)

			status := c.Response().Status
			entry := &models.AuditLog{
				Action:    action,
				Resource:  resource,
				UserAgent: c.Request().UserAgent(),
				IP:        c.RealIP(),
				CreatedAt: time.Now().UTC(),
			}
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
					entry.FailureReason = fmt.Sprint(he.Message)
				} else {
					status = http.StatusInternalServerError
					entry.FailureReason = http.StatusText(status)
				}
			} else if status >= http.StatusBadRequest {
				entry.FailureReason = http.StatusText(status)
			}
			entry.IsSuccessful = err == nil && status < http.StatusBadRequest
			if u := UserFrom(c); u != nil {
				id := u.ID
				entry.UserID = &id
			}

			ctx := c.Request().Context()
			if rerr := rec.Record(ctx, entry); rerr != nil {
				logging.FromContext(ctx).Warn("audit_record_failed", "action", action, "error", rerr)
			}
			return err
		}
	}
}
