package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type UserRepo struct {
	db *gorm.DB
}

// ProfileUpdate holds the optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Locale    *string
	Avatar    *string
}

func (r *UserRepo) first(ctx context.Context, kind domain.Kind, op string, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.E(kind, op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// FindByIdentifier looks the user up by email when the identifier contains
// an @, by username otherwise.
func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	if domain.IsEmailIdentifier(identifier) {
		return r.first(ctx, domain.KindUserNotFound, "repo.find_by_email", "email = ?", domain.NormalizeEmail(identifier))
	}
	return r.first(ctx, domain.KindUserNotFound, "repo.find_by_username", "username = ?", strings.TrimSpace(identifier))
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, domain.KindUserNotFound, "repo.find_by_email", "email = ?", domain.NormalizeEmail(email))
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, domain.KindUserWithIdNotFound, "repo.find_by_id", "id = ?", id)
}

func (r *UserRepo) FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, domain.KindUserWithIdNotFound, "repo.find_by_uuid", "uuid = ?", id)
}

func (r *UserRepo) exists(ctx context.Context, column, value string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where(column+" = ?", value).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts u. Duplicate emails or usernames are reported as
// EmailInUse or UsernameInUse, whether found by the pre-check or by the
// unique index when two registrations race.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}

	taken, err := r.exists(ctx, "email", u.Email)
	if err != nil {
		return fmt.Errorf("repo.create_user: %w", err)
	}
	if taken {
		return domain.E(domain.KindEmailInUse, "repo.create_user", nil)
	}
	taken, err = r.exists(ctx, "username", u.Username)
	if err != nil {
		return fmt.Errorf("repo.create_user: %w", err)
	}
	if taken {
		return domain.E(domain.KindUsernameInUse, "repo.create_user", nil)
	}

	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if constraint, ok := db.IsUniqueViolation(err); ok {
			if strings.Contains(constraint, "username") {
				return domain.E(domain.KindUsernameInUse, "repo.create_user", err)
			}
			return domain.E(domain.KindEmailInUse, "repo.create_user", err)
		}
		return fmt.Errorf("repo.create_user: %w", err)
	}
	return nil
}

func (r *UserRepo) updateColumns(ctx context.Context, op string, id uint, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.E(domain.KindUserWithIdNotFound, op, nil)
	}
	return nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	return r.updateColumns(ctx, "repo.update_password", id, map[string]any{"password": hash})
}

func (r *UserRepo) MarkVerified(ctx context.Context, id uint) error {
	return r.updateColumns(ctx, "repo.mark_verified", id, map[string]any{"is_verified": true})
}

func (r *UserRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumns(ctx, "repo.set_active", id, map[string]any{"is_active": active})
}

// LinkGoogle attaches a Google id to an existing account. Profile fields
// are only filled where they are still empty.
func (r *UserRepo) LinkGoogle(ctx context.Context, u *models.User, googleID string, p ProfileUpdate) error {
	values := map[string]any{"google_id": googleID}
	if u.FirstName == "" && p.FirstName != nil {
		values["first_name"] = *p.FirstName
	}
	if u.LastName == "" && p.LastName != nil {
		values["last_name"] = *p.LastName
	}
	if u.Avatar == nil && p.Avatar != nil {
		values["avatar"] = *p.Avatar
	}
	if err := r.updateColumns(ctx, "repo.link_google", u.ID, values); err != nil {
		return err
	}
	u.GoogleID = &googleID
	return nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uint, p ProfileUpdate) (*models.User, error) {
	values := map[string]any{}
	if p.FirstName != nil {
		values["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		values["last_name"] = *p.LastName
	}
	if p.Locale != nil {
		values["locale"] = *p.Locale
	}
	if p.Avatar != nil {
		values["avatar"] = *p.Avatar
	}
	if len(values) > 0 {
		if err := r.updateColumns(ctx, "repo.update_profile", id, values); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// SoftDelete marks the user deleted; the row stays for audit purposes.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("repo.delete_user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.E(domain.KindUserWithIdNotFound, "repo.delete_user", nil)
	}
	return nil
}
