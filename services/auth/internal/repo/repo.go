package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
	// RefreshRetention bounds how long an untouched refresh record stays
	// usable, independent of whether the purge job has run.
	RefreshRetention time.Duration
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

func (r *GormRepo) Users() *UserRepo { return &UserRepo{db: r.DB} }

func (r *GormRepo) Sessions() *RefreshRepo {
	return &RefreshRepo{db: r.DB, retention: r.RefreshRetention, now: time.Now}
}

func (r *GormRepo) Tokens() *TokenRepo { return &TokenRepo{db: r.DB, now: time.Now} }

func (r *GormRepo) Audit() *AuditRepo { return &AuditRepo{db: r.DB, now: time.Now} }

func (r *GormRepo) Integrations() *IntegrationRepo { return &IntegrationRepo{db: r.DB} }
