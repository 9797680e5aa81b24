package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type IntegrationRepo struct {
	db *gorm.DB
}

// Find returns the user's integration with svc, active or not.
func (r *IntegrationRepo) Find(ctx context.Context, userID uint, svc models.IntegrationService) (*models.ServiceIntegration, error) {
	var in models.ServiceIntegration
	err := r.db.WithContext(ctx).Where("user_id = ? AND service = ?", userID, svc).First(&in).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(domain.KindIntegrationNotFound, "repo.find_integration", err)
		}
		return nil, fmt.Errorf("repo.find_integration: %w", err)
	}
	return &in, nil
}

// Save inserts in when it has no ID yet and updates every column otherwise.
func (r *IntegrationRepo) Save(ctx context.Context, in *models.ServiceIntegration) error {
	if err := r.db.WithContext(ctx).Save(in).Error; err != nil {
		return fmt.Errorf("repo.save_integration: %w", err)
	}
	return nil
}

// Deactivate drops the stored grant. The row stays so a later activation
// keeps its API list.
func (r *IntegrationRepo) Deactivate(ctx context.Context, userID uint, svc models.IntegrationService) error {
	res := r.db.WithContext(ctx).Model(&models.ServiceIntegration{}).
		Where("user_id = ? AND service = ? AND is_active = ?", userID, svc, true).
		Updates(map[string]any{"is_active": false, "refresh_token": nil})
	if res.Error != nil {
		return fmt.Errorf("repo.deactivate_integration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.E(domain.KindIntegrationNotFound, "repo.deactivate_integration", nil)
	}
	return nil
}

// DeleteForUser removes every integration of the user.
func (r *IntegrationRepo) DeleteForUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.ServiceIntegration{}).Error; err != nil {
		return fmt.Errorf("repo.delete_integrations: %w", err)
	}
	return nil
}
