package transport

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
)

// HTTPError turns a service error into the response clients see. The cause
// is kept as Internal for the request log only.
func HTTPError(err error) *echo.HTTPError {
	k := domain.KindOf(err)
	he := echo.NewHTTPError(domain.HTTPStatus(k), domain.PublicMessage(k))
	he.Internal = err
	return he
}
