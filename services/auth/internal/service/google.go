package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
	"github.com/Skotchmaster/auth_service/services/auth/internal/repo"
)

const usernameAttempts = 3

// GoogleAccounts maps a Google profile onto a local user, linking or
// creating one as needed. Signing in is left to the Authority.
type GoogleAccounts struct {
	Users  UserStore
	Events Publisher
}

func (g *GoogleAccounts) Resolve(ctx context.Context, p *oauth.Profile) (*models.User, error) {
	const op = "google.resolve"
	l := logging.FromContext(ctx).With("svc", op)

	if !p.VerifiedEmail {
		return nil, domain.E(domain.KindUnauthorized, op, errors.New("google email not verified"))
	}

	user, err := g.Users.FindByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if !user.IsActive {
			return nil, domain.E(domain.KindAccountDisabled, op, nil)
		}
		if user.GoogleID == nil {
			if err := g.Users.LinkGoogle(ctx, user, p.ID, profileUpdate(p)); err != nil {
				return nil, err
			}
			l.Info("google_linked", "user_id", user.ID)
		}
		return user, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	return g.create(ctx, p)
}

func (g *GoogleAccounts) create(ctx context.Context, p *oauth.Profile) (*models.User, error) {
	googleID := p.ID
	base := domain.UsernameFromEmail(p.Email)
	var avatar *string
	if p.Picture != "" {
		avatar = &p.Picture
	}

	var err error
	for i := 0; i < usernameAttempts; i++ {
		username := base
		if i > 0 {
			username = base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		}
		user := &models.User{
			Email:      p.Email,
			Username:   username,
			GoogleID:   &googleID,
			IsActive:   true,
			IsVerified: true,
			AuthMethod: domain.AuthMethodGoogle,
			FirstName:  p.GivenName,
			LastName:   p.FamilyName,
			Locale:     p.Locale,
			Avatar:     avatar,
		}
		err = g.Users.Create(ctx, user)
		if err == nil {
			publish(ctx, g.Events, events.Event{
				Type:   events.TypeUserRegistered,
				UserID: user.UUID.String(),
				Meta:   map[string]string{"auth_method": domain.AuthMethodGoogle},
			})
			logging.FromContext(ctx).Info("google_user_registered", "svc", "google.create", "user_id", user.ID)
			return user, nil
		}
		if !errors.Is(err, domain.ErrUsernameInUse) {
			return nil, err
		}
	}
	return nil, err
}

func profileUpdate(p *oauth.Profile) repo.ProfileUpdate {
	var u repo.ProfileUpdate
	if p.GivenName != "" {
		u.FirstName = &p.GivenName
	}
	if p.FamilyName != "" {
		u.LastName = &p.FamilyName
	}
	if p.Picture != "" {
		u.Avatar = &p.Picture
	}
	return u
}
