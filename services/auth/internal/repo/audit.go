package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type AuditRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func (r *AuditRepo) Record(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("repo.create_audit: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListForUser(ctx context.Context, userID uint, offset, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("repo.list_audit: %w", err)
	}
	return logs, nil
}

func (r *AuditRepo) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", r.now().UTC().Add(-retention)).
		Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("repo.purge_audit: %w", res.Error)
	}
	return res.RowsAffected, nil
}
