package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"          json:"id"`
	UUID         uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"    json:"uuid"`
	GoogleID     *string        `gorm:"size:64;uniqueIndex"               json:"-"`
	Email        string         `gorm:"size:50;not null;uniqueIndex:idx_users_email,where:deleted_at IS NULL"    json:"email"`
	Username     string         `gorm:"size:50;not null;uniqueIndex:idx_users_username,where:deleted_at IS NULL" json:"username"`
	PasswordHash *string        `gorm:"column:password"                   json:"-"`
	IsActive     bool           `gorm:"not null;default:true"             json:"is_active"`
	IsVerified   bool           `gorm:"not null;default:false"            json:"is_verified"`
	AuthMethod   string         `gorm:"size:16;not null;default:local"    json:"auth_method"`
	FirstName    string         `gorm:"size:100"                          json:"first_name"`
	LastName     string         `gorm:"size:100"                          json:"last_name"`
	Locale       string         `gorm:"size:10;default:en_CA"             json:"locale"`
	Avatar       *string        `                                         json:"avatar,omitempty"`
	CreatedAt    time.Time      `                                         json:"created_at"`
	UpdatedAt    time.Time      `                                         json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index"                             json:"-"`
}

// RefreshToken is one session lineage of a user on one client. Token holds
// the SHA-256 hex digest of the signed refresh token currently valid for it.
type RefreshToken struct {
	ID        uint           `gorm:"primaryKey"              json:"id"`
	UserID    uint           `gorm:"index;not null"          json:"user_id"`
	Token     string         `gorm:"size:64;index;not null"  json:"-"`
	UserAgent string         `gorm:"size:512"                json:"user_agent"`
	CreatedAt time.Time      `                               json:"created_at"`
	UpdatedAt time.Time      `gorm:"index"                   json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"                   json:"-"`
}

type TokenType string

const (
	TokenVerifyAccount  TokenType = "verify_account"
	TokenChangePassword TokenType = "change_password"
)

// Token is a single use token mailed to the user.
type Token struct {
	ID        uint      `gorm:"primaryKey"                     json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	UserID    uint      `gorm:"index;not null"                 json:"user_id"`
	Type      TokenType `gorm:"size:32;not null"               json:"type"`
	ExpiresAt time.Time `gorm:"index;not null"                 json:"expires_at"`
	CreatedAt time.Time `                                      json:"created_at"`
}

type AuditAction string

const (
	AuditLogIn  AuditAction = "log_in"
	AuditLogOut AuditAction = "log_out"
)

type AuditResource string

const AuditResourceUser AuditResource = "user"

type AuditLog struct {
	ID            uint          `gorm:"primaryKey"        json:"id"`
	IsSuccessful  bool          `gorm:"not null"          json:"is_successful"`
	FailureReason string        `gorm:"size:255"          json:"failure_reason,omitempty"`
	Action        AuditAction   `gorm:"size:32;not null"  json:"action"`
	Resource      AuditResource `gorm:"size:32;not null"  json:"resource"`
	UserAgent     string        `gorm:"size:512"          json:"user_agent"`
	IP            string        `gorm:"size:64"           json:"ip"`
	UserID        *uint         `gorm:"index"             json:"user_id,omitempty"`
	CreatedAt     time.Time     `gorm:"index"             json:"created_at"`
}

type IntegrationService string

const IntegrationGoogle IntegrationService = "google"

const APIGoogleCalendar = "google_calendar"

// ServiceIntegration links a user to a third party account. RefreshToken
// is the offline grant used to call the APIs listed in APIs.
type ServiceIntegration struct {
	ID           uint               `gorm:"primaryKey"                                              json:"id"`
	UserID       uint               `gorm:"not null;uniqueIndex:idx_integrations_user_service"      json:"user_id"`
	Service      IntegrationService `gorm:"size:32;not null;uniqueIndex:idx_integrations_user_service" json:"service"`
	RefreshToken *string            `gorm:"type:text"                                               json:"-"`
	APIs         []string           `gorm:"type:text;serializer:json"                               json:"apis"`
	IsActive     bool               `gorm:"not null;default:false"                                  json:"is_active"`
	CreatedAt    time.Time          `                                                               json:"created_at"`
	UpdatedAt    time.Time          `                                                               json:"updated_at"`
}

// HasAPI reports whether api is enabled on the integration.
func (s *ServiceIntegration) HasAPI(api string) bool {
	for _, a := range s.APIs {
		if a == api {
			return true
		}
	}
	return false
}

func All() []any {
	return []any{&User{}, &RefreshToken{}, &Token{}, &AuditLog{}, &ServiceIntegration{}}
}
