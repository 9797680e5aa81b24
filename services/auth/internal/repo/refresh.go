package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
)

// RefreshRepo stores session lineages. Token values are hashed before they
// reach the database; every method takes the raw signed value.
type RefreshRepo struct {
	db        *gorm.DB
	retention time.Duration
	now       func() time.Time
}

var ErrRefreshNotFound = errors.New("refresh token record not found")

func (r *RefreshRepo) Create(ctx context.Context, userID uint, tokenValue, userAgent string) (*models.RefreshToken, error) {
	rec := models.RefreshToken{
		UserID:    userID,
		Token:     tokens.Sha256Hex(tokenValue),
		UserAgent: userAgent,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("repo.create_refresh: %w", err)
	}
	return &rec, nil
}

// FindActive requires both the token value and the owner to match. A
// record not updated within the retention window no longer counts.
func (r *RefreshRepo) FindActive(ctx context.Context, tokenValue string, userID uint) (*models.RefreshToken, error) {
	if tokenValue == "" {
		return nil, ErrRefreshNotFound
	}
	q := r.db.WithContext(ctx).
		Where("token = ? AND user_id = ?", tokens.Sha256Hex(tokenValue), userID)
	if r.retention > 0 {
		q = q.Where("updated_at >= ?", r.now().UTC().Add(-r.retention))
	}

	var rec models.RefreshToken
	if err := q.Order("updated_at DESC").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, fmt.Errorf("repo.find_refresh: %w", err)
	}
	return &rec, nil
}

// UpdateTokenValue replaces the lineage's token in a single UPDATE, so
// concurrent rotations resolve as last writer wins.
func (r *RefreshRepo) UpdateTokenValue(ctx context.Context, id uint, tokenValue, userAgent string) (*models.RefreshToken, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"token":      tokens.Sha256Hex(tokenValue),
			"user_agent": userAgent,
			"updated_at": r.now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("repo.update_refresh: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrRefreshNotFound
	}

	var rec models.RefreshToken
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, fmt.Errorf("repo.update_refresh: %w", err)
	}
	return &rec, nil
}

func (r *RefreshRepo) DeleteByTokenValue(ctx context.Context, tokenValue string) error {
	if tokenValue == "" {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Where("token = ?", tokens.Sha256Hex(tokenValue)).
		Delete(&models.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("repo.delete_refresh: %w", err)
	}
	return nil
}

func (r *RefreshRepo) DeleteAllForUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error; err != nil {
		return fmt.Errorf("repo.delete_user_refresh: %w", err)
	}
	return nil
}

// PurgeExpired hard deletes every record last updated before
// now-retention, including rows already soft deleted by a logout.
func (r *RefreshRepo) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := r.now().UTC().Add(-retention)
	res := r.db.WithContext(ctx).Unscoped().
		Where("updated_at < ?", cutoff).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("repo.purge_refresh: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *RefreshRepo) ListForUser(ctx context.Context, userID uint) ([]models.RefreshToken, error) {
	var recs []models.RefreshToken
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("repo.list_refresh: %w", err)
	}
	return recs, nil
}
