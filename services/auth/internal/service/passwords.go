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
)

// Passwords runs the mailed one-time token flows: password reset and
// account verification.
type Passwords struct {
	Users    UserStore
	Sessions RefreshStore
	Tokens   TokenStore
	Notifier Notifier
	Events   Publisher
	TokenTTL time.Duration
	Now      func() time.Time
}

func (p *Passwords) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// ForgotPassword mails a reset link. Unknown identifiers succeed silently so
// the endpoint cannot be used to enumerate accounts.
func (p *Passwords) ForgotPassword(ctx context.Context, identifier string) error {
	const op = "passwords.forgot"
	l := logging.FromContext(ctx).With("svc", op)

	user, err := p.Users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			l.Info("forgot_password_unknown_identifier")
			return nil
		}
		return domain.Normalize(op, err)
	}

	tok, err := p.Tokens.Create(ctx, user.ID, models.TokenChangePassword, ttlOr(p.TokenTTL))
	if err != nil {
		return domain.Normalize(op, err)
	}
	if p.Notifier != nil {
		p.Notifier.PasswordResetRequested(ctx, user, tok.UUID.String())
	}
	l.Info("forgot_password_requested", "user_id", user.ID)
	return nil
}

// ChangePassword spends a reset token. Reusing the current password is
// rejected before the token is consumed, so the link stays usable.
func (p *Passwords) ChangePassword(ctx context.Context, token uuid.UUID, password string) error {
	const op = "passwords.change"
	l := logging.FromContext(ctx).With("svc", op)

	tok, err := p.Tokens.FindByUUID(ctx, token, models.TokenChangePassword)
	if err != nil {
		return err
	}
	user, err := p.Users.FindByID(ctx, tok.UserID)
	if err != nil {
		return err
	}
	if user.PasswordHash != nil && hash.CheckPassword(*user.PasswordHash, password) {
		return domain.E(domain.KindSamePassword, op, nil)
	}
	if !domain.StrongPassword(password) {
		return domain.E(domain.KindValidation, op, errors.New("password too weak"))
	}
	if err := p.Tokens.Consume(ctx, tok.UUID); err != nil {
		return err
	}
	if !p.now().Before(tok.ExpiresAt) {
		return domain.E(domain.KindTokenExpired, op, nil)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return domain.E(domain.KindInternal, op, err)
	}
	if err := p.Users.UpdatePasswordHash(ctx, user.ID, pwHash); err != nil {
		return err
	}
	if err := p.Sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		l.Error("revoke_failed", "user_id", user.ID, "error", err)
	}

	if p.Notifier != nil {
		p.Notifier.PasswordChanged(ctx, user)
	}
	publish(ctx, p.Events, events.Event{Type: events.TypePasswordChanged, UserID: user.UUID.String()})
	l.Info("password_changed", "user_id", user.ID)
	return nil
}

func (p *Passwords) VerifyAccount(ctx context.Context, token uuid.UUID) error {
	const op = "passwords.verify_account"

	tok, err := p.Tokens.FindByUUID(ctx, token, models.TokenVerifyAccount)
	if err != nil {
		return err
	}
	if err := p.Tokens.Consume(ctx, tok.UUID); err != nil {
		return err
	}
	if !p.now().Before(tok.ExpiresAt) {
		return domain.E(domain.KindTokenExpired, op, nil)
	}
	if err := p.Users.MarkVerified(ctx, tok.UserID); err != nil {
		return err
	}

	if user, err := p.Users.FindByID(ctx, tok.UserID); err == nil {
		publish(ctx, p.Events, events.Event{Type: events.TypeAccountVerified, UserID: user.UUID.String()})
	}
	logging.FromContext(ctx).Info("account_verified", "svc", op, "user_id", tok.UserID)
	return nil
}
