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
	"github.com/Skotchmaster/auth_service/services/auth/internal/repo"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
)

// ClientContext is what the transport knows about the calling client.
type ClientContext struct {
	UserAgent string
	IP        string
	// Authorization is the raw Authorization header.
	Authorization string
	// RefreshToken is the refresh cookie value, empty when none was sent.
	RefreshToken string
}

// Session is the result of every operation that signs a client in.
type Session struct {
	User    *models.User
	Access  tokens.Issued
	Refresh tokens.Issued
}

// Access is what ValidateAccess resolves a request to.
type Access struct {
	User *models.User
	// Renewed is set when the access token was minted from the refresh
	// cookie because the presented one no longer verified.
	Renewed *tokens.Issued
}

// ErrSessionEnded is wrapped into failures after which the client's refresh
// cookie is no longer usable and must be cleared.
var ErrSessionEnded = errors.New("session ended")

func SessionEnded(err error) bool { return errors.Is(err, ErrSessionEnded) }

var (
	errNoBearer        = errors.New("missing bearer token")
	errNoRefreshCookie = errors.New("missing refresh cookie")
	errBadSubject      = errors.New("token subject is not a user id")
)

type UserCreator interface {
	Create(ctx context.Context, in NewUser) (*models.User, error)
}

// Authority issues, rotates, validates and revokes sessions. Every error it
// returns has already been normalized: callers may map its kind straight to
// a response.
type Authority struct {
	Users    UserStore
	Accounts UserCreator
	Sessions RefreshStore
	Codec    *tokens.Codec
	Events   Publisher
}

func (a *Authority) Register(ctx context.Context, in NewUser, cc ClientContext) (*Session, error) {
	const op = "authority.register"
	if a.Accounts == nil {
		return nil, domain.E(domain.KindInternal, op, errors.New("no user collaborator configured"))
	}
	user, err := a.Accounts.Create(ctx, in)
	if err != nil {
		return nil, domain.Normalize(op, err)
	}
	return a.LogIn(ctx, user, cc)
}

// LogIn signs user in on the calling client. A refresh cookie that matches
// one of the user's lineages is rotated in place; one that matches nothing
// is treated as replay and revokes every lineage before a new one starts.
func (a *Authority) LogIn(ctx context.Context, user *models.User, cc ClientContext) (*Session, error) {
	const op = "authority.log_in"
	l := logging.FromContext(ctx).With("svc", op, "user_id", user.ID)

	s, err := a.issuePair(user)
	if err != nil {
		return nil, domain.E(domain.KindInternal, op, err)
	}

	var rec *models.RefreshToken
	if cc.RefreshToken != "" {
		found, err := a.Sessions.FindActive(ctx, cc.RefreshToken, user.ID)
		switch {
		case err == nil:
			rec = found
		case errors.Is(err, repo.ErrRefreshNotFound):
			l.Warn("login_unknown_refresh_cookie")
			if err := a.revokeAll(ctx, user, "unknown_refresh_cookie"); err != nil {
				return nil, domain.Normalize(op, err)
			}
		default:
			return nil, domain.Normalize(op, err)
		}
	}

	if rec != nil {
		_, err := a.Sessions.UpdateTokenValue(ctx, rec.ID, s.Refresh.Token, cc.UserAgent)
		switch {
		case errors.Is(err, repo.ErrRefreshNotFound):
			// revoked between lookup and update
			rec = nil
		case err != nil:
			return nil, domain.Normalize(op, err)
		}
	}
	if rec == nil {
		if _, err := a.Sessions.Create(ctx, user.ID, s.Refresh.Token, cc.UserAgent); err != nil {
			return nil, domain.Normalize(op, err)
		}
	}

	l.Info("login_succeeded", "rotated", rec != nil)
	return s, nil
}

// LogOut never fails. The lineage of the presented cookie is removed only
// when the caller resolved a user; the transport clears the cookie either
// way.
func (a *Authority) LogOut(ctx context.Context, cc ClientContext, user *models.User) {
	l := logging.FromContext(ctx).With("svc", "authority.log_out")
	if user == nil || cc.RefreshToken == "" {
		l.Debug("logout_without_session")
		return
	}
	if err := a.Sessions.DeleteByTokenValue(ctx, cc.RefreshToken); err != nil {
		l.Error("logout_delete_failed", "user_id", user.ID, "error", err)
		return
	}
	l.Info("logout_succeeded", "user_id", user.ID)
}

// RefreshToken rotates rec, which ValidateRefresh matched against the
// presented cookie.
func (a *Authority) RefreshToken(ctx context.Context, user *models.User, rec *models.RefreshToken, cc ClientContext) (*Session, error) {
	const op = "authority.refresh_token"

	s, err := a.issuePair(user)
	if err != nil {
		return nil, domain.E(domain.KindInternal, op, err)
	}
	if _, err := a.Sessions.UpdateTokenValue(ctx, rec.ID, s.Refresh.Token, cc.UserAgent); err != nil {
		if errors.Is(err, repo.ErrRefreshNotFound) {
			return nil, ended(op, err)
		}
		return nil, domain.Normalize(op, err)
	}
	logging.FromContext(ctx).Info("refresh_rotated", "svc", op, "user_id", user.ID, "record_id", rec.ID)
	return s, nil
}

// ValidateAccess authenticates a request by its bearer token. When that
// token no longer verifies, a valid refresh cookie with a live lineage mints
// a new access token without rotating the lineage.
func (a *Authority) ValidateAccess(ctx context.Context, cc ClientContext) (*Access, error) {
	const op = "authority.validate_access"

	token, ok := BearerToken(cc.Authorization)
	if !ok {
		return nil, domain.E(domain.KindUnauthorized, op, errNoBearer)
	}
	if p, err := a.Codec.Verify(token, tokens.Access); err == nil {
		user, err := a.userFor(ctx, p)
		if err == nil {
			return &Access{User: user}, nil
		}
		if domain.KindOf(err) == domain.KindInternal {
			return nil, domain.Normalize(op, err)
		}
	}
	return a.renewAccess(ctx, cc)
}

func (a *Authority) renewAccess(ctx context.Context, cc ClientContext) (*Access, error) {
	const op = "authority.renew_access"
	l := logging.FromContext(ctx).With("svc", op)

	if cc.RefreshToken == "" {
		return nil, ended(op, errNoRefreshCookie)
	}
	p, err := a.Codec.Verify(cc.RefreshToken, tokens.Refresh)
	if err != nil {
		a.dropLineage(ctx, cc.RefreshToken)
		return nil, ended(op, err)
	}
	user, err := a.userFor(ctx, p)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			return nil, domain.Normalize(op, err)
		}
		a.dropLineage(ctx, cc.RefreshToken)
		return nil, ended(op, err)
	}
	if _, err := a.Sessions.FindActive(ctx, cc.RefreshToken, user.ID); err != nil {
		if !errors.Is(err, repo.ErrRefreshNotFound) {
			return nil, domain.Normalize(op, err)
		}
		l.Warn("refresh_reuse_detected", "user_id", user.ID)
		if err := a.revokeAll(ctx, user, "stale_refresh_cookie"); err != nil {
			l.Error("revoke_failed", "user_id", user.ID, "error", err)
		}
		return nil, ended(op, err)
	}

	issued, err := a.Codec.Issue(user.UUID.String(), user.Email, tokens.Access)
	if err != nil {
		return nil, domain.E(domain.KindInternal, op, err)
	}
	l.Debug("access_renewed", "user_id", user.ID)
	return &Access{User: user, Renewed: &issued}, nil
}

// ValidateRefresh authenticates the refresh endpoint. A signature-valid
// cookie without a live lineage is reuse of a rotated or revoked token and
// revokes every lineage of its user.
func (a *Authority) ValidateRefresh(ctx context.Context, cc ClientContext) (*models.User, *models.RefreshToken, error) {
	const op = "authority.validate_refresh"
	l := logging.FromContext(ctx).With("svc", op)

	if cc.RefreshToken == "" {
		return nil, nil, ended(op, errNoRefreshCookie)
	}
	p, err := a.Codec.Verify(cc.RefreshToken, tokens.Refresh)
	if err != nil {
		return nil, nil, ended(op, err)
	}
	user, err := a.userFor(ctx, p)
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			return nil, nil, domain.Normalize(op, err)
		}
		return nil, nil, ended(op, err)
	}
	rec, err := a.Sessions.FindActive(ctx, cc.RefreshToken, user.ID)
	if err != nil {
		if !errors.Is(err, repo.ErrRefreshNotFound) {
			return nil, nil, domain.Normalize(op, err)
		}
		l.Warn("refresh_reuse_detected", "user_id", user.ID)
		if err := a.revokeAll(ctx, user, "refresh_reuse"); err != nil {
			l.Error("revoke_failed", "user_id", user.ID, "error", err)
		}
		return nil, nil, ended(op, err)
	}
	return user, rec, nil
}

// RevokeAll ends every session of user without any client involvement.
func (a *Authority) RevokeAll(ctx context.Context, user *models.User, reason string) error {
	return domain.Normalize("authority.revoke_all", a.revokeAll(ctx, user, reason))
}

func (a *Authority) revokeAll(ctx context.Context, user *models.User, reason string) error {
	if err := a.Sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return err
	}
	logging.FromContext(ctx).Warn("sessions_revoked", "user_id", user.ID, "reason", reason)
	publish(ctx, a.Events, events.Event{
		Type:   events.TypeSessionsRevoked,
		UserID: user.UUID.String(),
		Meta:   map[string]string{"reason": reason},
	})
	return nil
}

func (a *Authority) dropLineage(ctx context.Context, tokenValue string) {
	if err := a.Sessions.DeleteByTokenValue(ctx, tokenValue); err != nil {
		logging.FromContext(ctx).Error("refresh_delete_failed", "error", err)
	}
}

func (a *Authority) issuePair(user *models.User) (*Session, error) {
	sub := user.UUID.String()
	access, err := a.Codec.Issue(sub, user.Email, tokens.Access)
	if err != nil {
		return nil, err
	}
	refresh, err := a.Codec.Issue(sub, user.Email, tokens.Refresh)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Access: access, Refresh: refresh}, nil
}

func (a *Authority) userFor(ctx context.Context, p *tokens.Principal) (*models.User, error) {
	const op = "authority.resolve_principal"
	id, err := uuid.Parse(p.Subject)
	if err != nil {
		return nil, domain.E(domain.KindUnauthorized, op, errBadSubject)
	}
	user, err := a.Users.FindByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.E(domain.KindAccountDisabled, op, nil)
	}
	return user, nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func ended(op string, cause error) error {
	return domain.E(domain.KindUnauthorized, op, errors.Join(ErrSessionEnded, cause))
}

func publish(ctx context.Context, p Publisher, e events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "error", err)
	}
}
