package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/auth_service/pkg/cache"
	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
)

const (
	DefaultCalendarCacheTTL = time.Hour
	calendarLookback        = 30 * 24 * time.Hour
)

// CalendarProvider is the Google side of the integration.
type CalendarProvider interface {
	Exchange(ctx context.Context, code string) (string, error)
	Events(ctx context.Context, refreshToken string, from, to time.Time) (*oauth.CalendarEvents, error)
}

var _ CalendarProvider = (*oauth.Calendar)(nil)

// Calendar connects a user's Google Calendar and reads their events.
// Events are cached per user for CacheTTL when Cache is set.
type Calendar struct {
	Integrations IntegrationStore
	Provider     CalendarProvider
	Cache        *redis.Client
	CacheTTL     time.Duration
	Now          func() time.Time
}

// Activate stores the refresh token behind code. A reconnect that gets no
// new token from Google keeps the one already stored.
func (c *Calendar) Activate(ctx context.Context, user *models.User, code string) (*models.ServiceIntegration, error) {
	const op = "calendar.activate"
	l := logging.FromContext(ctx).With("svc", op)

	refresh, err := c.Provider.Exchange(ctx, code)
	if err != nil {
		if oauth.IsRejectedCode(err) {
			return nil, domain.E(domain.KindValidation, op, err)
		}
		return nil, domain.E(domain.KindUpstream, op, err)
	}

	in, err := c.Integrations.Find(ctx, user.ID, models.IntegrationGoogle)
	switch {
	case errors.Is(err, domain.ErrIntegrationNotFound):
		in = &models.ServiceIntegration{UserID: user.ID, Service: models.IntegrationGoogle}
	case err != nil:
		return nil, domain.E(domain.KindInternal, op, err)
	}

	if refresh != "" {
		in.RefreshToken = &refresh
	}
	if in.RefreshToken == nil {
		return nil, domain.E(domain.KindValidation, op, errors.New("google granted no refresh token"))
	}
	if !in.HasAPI(models.APIGoogleCalendar) {
		in.APIs = append(in.APIs, models.APIGoogleCalendar)
	}
	in.IsActive = true

	if err := c.Integrations.Save(ctx, in); err != nil {
		return nil, domain.E(domain.KindInternal, op, err)
	}
	c.invalidate(ctx, user)
	l.Info("calendar_activated", "user_id", user.ID)
	return in, nil
}

// Events returns the user's events from thirty days ago to the end of the
// current week. It reports ErrIntegrationNotFound when no calendar is
// connected.
func (c *Calendar) Events(ctx context.Context, user *models.User) (*oauth.CalendarEvents, error) {
	const op = "calendar.events"

	in, err := c.connected(ctx, user)
	if err != nil {
		return nil, err
	}

	from, to := c.eventWindow()
	ttl := c.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCalendarCacheTTL
	}
	events, err := cache.GetOrLoad(ctx, c.Cache, calendarCacheKey(user), ttl,
		func(ctx context.Context) (*oauth.CalendarEvents, error) {
			return c.Provider.Events(ctx, *in.RefreshToken, from, to)
		})
	if err != nil {
		if oauth.IsRevoked(err) {
			logging.FromContext(ctx).Warn("calendar_grant_revoked", "svc", op, "user_id", user.ID)
			if derr := c.Integrations.Deactivate(ctx, user.ID, models.IntegrationGoogle); derr != nil {
				logging.FromContext(ctx).Error("calendar_deactivate_failed", "svc", op, "user_id", user.ID, "error", derr)
			}
			return nil, domain.E(domain.KindIntegrationNotFound, op, err)
		}
		return nil, domain.E(domain.KindUpstream, op, err)
	}
	return events, nil
}

// Disconnect forgets the stored grant and any cached events.
func (c *Calendar) Disconnect(ctx context.Context, user *models.User) error {
	if err := c.Integrations.Deactivate(ctx, user.ID, models.IntegrationGoogle); err != nil {
		return err
	}
	c.invalidate(ctx, user)
	logging.FromContext(ctx).Info("calendar_disconnected", "svc", "calendar.disconnect", "user_id", user.ID)
	return nil
}

func (c *Calendar) connected(ctx context.Context, user *models.User) (*models.ServiceIntegration, error) {
	in, err := c.Integrations.Find(ctx, user.ID, models.IntegrationGoogle)
	if err != nil {
		return nil, err
	}
	if !in.IsActive || in.RefreshToken == nil || !in.HasAPI(models.APIGoogleCalendar) {
		return nil, domain.E(domain.KindIntegrationNotFound, "calendar.connected", nil)
	}
	return in, nil
}

// eventWindow ends at the close of the Saturday of the current week, UTC.
func (c *Calendar) eventWindow() (time.Time, time.Time) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now().UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	to := day.AddDate(0, 0, 7-int(day.Weekday())).Add(-time.Second)
	return t.Add(-calendarLookback), to
}

func (c *Calendar) invalidate(ctx context.Context, user *models.User) {
	if err := cache.Invalidate(ctx, c.Cache, calendarCacheKey(user)); err != nil {
		logging.FromContext(ctx).Warn("calendar_cache_invalidate_failed", "user_id", user.ID, "error", err)
	}
}

func calendarCacheKey(user *models.User) string {
	return "calendar:events:" + user.UUID.String() + ":" + string(models.IntegrationGoogle) + ":" + models.APIGoogleCalendar
}
