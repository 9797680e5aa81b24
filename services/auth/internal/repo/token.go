package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type TokenRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func (r *TokenRepo) Create(ctx context.Context, userID uint, typ models.TokenType, ttl time.Duration) (*models.Token, error) {
	tok := models.Token{
		UUID:      uuid.New(),
		UserID:    userID,
		Type:      typ,
		ExpiresAt: r.now().UTC().Add(ttl),
	}
	if err := r.db.WithContext(ctx).Create(&tok).Error; err != nil {
		return nil, fmt.Errorf("repo.create_token: %w", err)
	}
	return &tok, nil
}

// FindByUUID only returns tokens of the requested type.
func (r *TokenRepo) FindByUUID(ctx context.Context, id uuid.UUID, typ models.TokenType) (*models.Token, error) {
	var tok models.Token
	if err := r.db.WithContext(ctx).Where("uuid = ? AND type = ?", id, typ).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindTokenNotFound, "repo.find_token", err)
		}
		return nil, fmt.Errorf("repo.find_token: %w", err)
	}
	return &tok, nil
}

// Consume deletes the token and reports TokenNotFound when another request
// already used it.
func (r *TokenRepo) Consume(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&models.Token{})
	if res.Error != nil {
		return fmt.Errorf("repo.consume_token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.E(domain.KindTokenNotFound, "repo.consume_token", nil)
	}
	return nil
}

func (r *TokenRepo) DeleteForUser(ctx context.Context, userID uint, typ models.TokenType) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, typ).
		Delete(&models.Token{}).Error; err != nil {
		return fmt.Errorf("repo.delete_user_tokens: %w", err)
	}
	return nil
}

func (r *TokenRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", r.now().UTC()).
		Delete(&models.Token{})
	if res.Error != nil {
		return 0, fmt.Errorf("repo.purge_tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
