package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/pkg/hash"
	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
	"github.com/Skotchmaster/auth_service/services/auth/internal/repo"
)

const DefaultTokenTTL = 24 * time.Hour

type NewUser struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Locale    string
}

// Users manages accounts on behalf of the Authority and the profile
// endpoints.
type Users struct {
	Store    UserStore
	Sessions RefreshStore
	Tokens   TokenStore
	Notifier Notifier
	Events   Publisher
	// TokenTTL is the lifetime of the verification token mailed on sign up.
	TokenTTL time.Duration
	// Integrations, when set, drops the user's third party grants on delete.
	Integrations IntegrationStore
}

func (s *Users) Create(ctx context.Context, in NewUser) (*models.User, error) {
	const op = "users.create"
	l := logging.FromContext(ctx).With("svc", op)

	if !domain.StrongPassword(in.Password) {
		return nil, domain.E(domain.KindValidation, op, errors.New("password too weak"))
	}
	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, domain.E(domain.KindInternal, op, err)
	}

	user := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: &pwHash,
		IsActive:     true,
		AuthMethod:   domain.AuthMethodLocal,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Locale:       in.Locale,
	}
	if err := s.Store.Create(ctx, user); err != nil {
		if k := domain.KindOf(err); k == domain.KindEmailInUse || k == domain.KindUsernameInUse {
			l.Info("register_conflict", "reason", k.String())
		} else {
			l.Error("register_error", "error", err)
		}
		return nil, err
	}

	s.sendVerification(ctx, user)
	publish(ctx, s.Events, events.Event{Type: events.TypeUserRegistered, UserID: user.UUID.String()})
	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

// sendVerification failures leave the account usable and unverified.
func (s *Users) sendVerification(ctx context.Context, user *models.User) {
	if s.Tokens == nil {
		return
	}
	tok, err := s.Tokens.Create(ctx, user.ID, models.TokenVerifyAccount, ttlOr(s.TokenTTL))
	if err != nil {
		logging.FromContext(ctx).Error("verify_token_create_failed", "user_id", user.ID, "error", err)
		return
	}
	if s.Notifier != nil {
		s.Notifier.AccountCreated(ctx, user, tok.UUID.String())
	}
}

func (s *Users) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.Store.FindByUUID(ctx, id)
}

func (s *Users) UpdateProfile(ctx context.Context, id uint, p repo.ProfileUpdate) (*models.User, error) {
	return s.Store.UpdateProfile(ctx, id, p)
}

// Delete soft deletes the account and ends every session it has.
func (s *Users) Delete(ctx context.Context, user *models.User) error {
	const op = "users.delete"
	if err := s.Store.SoftDelete(ctx, user.ID); err != nil {
		return err
	}
	if err := s.Sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return domain.E(domain.KindInternal, op, err)
	}
	if s.Integrations != nil {
		if err := s.Integrations.DeleteForUser(ctx, user.ID); err != nil {
			return domain.E(domain.KindInternal, op, err)
		}
	}
	publish(ctx, s.Events, events.Event{Type: events.TypeUserDeleted, UserID: user.UUID.String()})
	logging.FromContext(ctx).Info("user_deleted", "svc", op, "user_id", user.ID)
	return nil
}

func ttlOr(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTokenTTL
	}
	return d
}
