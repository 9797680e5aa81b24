package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
	"github.com/Skotchmaster/auth_service/services/auth/internal/repo"
)

// UserStore is the part of the user repository the services depend on.
// Lookup misses are reported as domain.ErrUserNotFound or
// domain.ErrUserWithIdNotFound.
type UserStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
	MarkVerified(ctx context.Context, id uint) error
	LinkGoogle(ctx context.Context, u *models.User, googleID string, p repo.ProfileUpdate) error
	UpdateProfile(ctx context.Context, id uint, p repo.ProfileUpdate) (*models.User, error)
	SoftDelete(ctx context.Context, id uint) error
}

// RefreshStore persists session lineages. FindActive and UpdateTokenValue
// return repo.ErrRefreshNotFound when no record matches.
type RefreshStore interface {
	Create(ctx context.Context, userID uint, tokenValue, userAgent string) (*models.RefreshToken, error)
	FindActive(ctx context.Context, tokenValue string, userID uint) (*models.RefreshToken, error)
	UpdateTokenValue(ctx context.Context, id uint, tokenValue, userAgent string) (*models.RefreshToken, error)
	DeleteByTokenValue(ctx context.Context, tokenValue string) error
	DeleteAllForUser(ctx context.Context, userID uint) error
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type TokenStore interface {
	Create(ctx context.Context, userID uint, typ models.TokenType, ttl time.Duration) (*models.Token, error)
	FindByUUID(ctx context.Context, id uuid.UUID, typ models.TokenType) (*models.Token, error)
	Consume(ctx context.Context, id uuid.UUID) error
	DeleteForUser(ctx context.Context, userID uint, typ models.TokenType) error
}

// IntegrationStore keeps third party grants. Find and Deactivate report
// domain.ErrIntegrationNotFound when the user has no such integration.
type IntegrationStore interface {
	Find(ctx context.Context, userID uint, svc models.IntegrationService) (*models.ServiceIntegration, error)
	Save(ctx context.Context, in *models.ServiceIntegration) error
	Deactivate(ctx context.Context, userID uint, svc models.IntegrationService) error
	DeleteForUser(ctx context.Context, userID uint) error
}

// Notifier sends account mail. Implementations must not block on delivery.
type Notifier interface {
	AccountCreated(ctx context.Context, u *models.User, token string)
	PasswordResetRequested(ctx context.Context, u *models.User, token string)
	PasswordChanged(ctx context.Context, u *models.User)
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

var (
	_ UserStore    = (*repo.UserRepo)(nil)
	_ RefreshStore = (*repo.RefreshRepo)(nil)
	_ TokenStore   = (*repo.TokenRepo)(nil)

	_ IntegrationStore = (*repo.IntegrationRepo)(nil)
	_ Publisher    = (*events.Producer)(nil)
	_ Publisher    = events.Nop{}
)
