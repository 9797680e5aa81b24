package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
	"github.com/Skotchmaster/auth_service/services/auth/internal/service"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
	"github.com/Skotchmaster/auth_service/services/auth/internal/transport"
)

const (
	ctxUser          = "user"
	ctxUserID        = "user_id"
	ctxRefreshRecord = "refresh_record"
)

type Guards struct {
	Authority *service.Authority
	Cookies   tokens.CookieConfig
}

func NewGuards(a *service.Authority, cookies tokens.CookieConfig) *Guards {
	return &Guards{Authority: a, Cookies: cookies}
}

// RequireAccess lets a request through with a valid access token, or with
// a valid refresh cookie from which a new access token is minted and
// returned in the X-Access-Token header.
func (g *Guards) RequireAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		acc, err := g.Authority.ValidateAccess(ctx, transport.Client(c, g.Cookies))
		if err != nil {
			if service.SessionEnded(err) {
				transport.ClearSession(c, g.Cookies)
			}
			logging.FromContext(ctx).Warn("access_denied", "error", err)
			return transport.HTTPError(err)
		}
		if acc.Renewed != nil {
			transport.SetRenewedAccess(c, g.Cookies, *acc.Renewed)
		}
		setUser(c, acc.User)
		return next(c)
	}
}

// OptionalAccess resolves the user when it can and never rejects.
func (g *Guards) OptionalAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		acc, err := g.Authority.ValidateAccess(ctx, transport.Client(c, g.Cookies))
		if err == nil {
			setUser(c, acc.User)
		} else {
			logging.FromContext(ctx).Debug("optional_access_unresolved", "error", err)
		}
		return next(c)
	}
}

// RequireRefresh guards the refresh endpoint and hands the matched
// lineage to the handler.
func (g *Guards) RequireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, rec, err := g.Authority.ValidateRefresh(ctx, transport.Client(c, g.Cookies))
		if err != nil {
			if service.SessionEnded(err) {
				transport.ClearSession(c, g.Cookies)
			}
			logging.FromContext(ctx).Warn("refresh_denied", "error", err)
			return transport.HTTPError(err)
		}
		setUser(c, user)
		c.Set(ctxRefreshRecord, rec)
		return next(c)
	}
}

func setUser(c echo.Context, u *models.User) {
	c.Set(ctxUser, u)
	c.Set(ctxUserID, u.UUID.String())
}

// SetUser records u as the acting user, for handlers that authenticate by
// themselves such as login.
func SetUser(c echo.Context, u *models.User) { setUser(c, u) }

func UserFrom(c echo.Context) *models.User {
	u, _ := c.Get(ctxUser).(*models.User)
	return u
}

func RefreshRecordFrom(c echo.Context) *models.RefreshToken {
	rec, _ := c.Get(ctxRefreshRecord).(*models.RefreshToken)
	return rec
}
