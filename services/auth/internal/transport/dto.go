package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type SignUpRequest struct {
	Email           string `json:"email"           validate:"required,email,max=250"`
	Username        string `json:"username"        validate:"required,min=3,max=50"`
	Password        string `json:"password"        validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	FirstName       string `json:"firstName"       validate:"omitempty,max=100"`
	LastName        string `json:"lastName"        validate:"omitempty,max=100"`
	Locale          string `json:"locale"          validate:"omitempty,max=10"`
}

// SignInRequest accepts an email or a username as identifier.
type SignInRequest struct {
	Identifier string `json:"identifier" validate:"required,max=250"`
	Password   string `json:"password"   validate:"required"`
}

type ForgotPasswordRequest struct {
	Identifier string `json:"identifier" validate:"required,max=250"`
}

type ChangePasswordRequest struct {
	Token           string `json:"token"           validate:"required,uuid"`
	Password        string `json:"password"        validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type VerifyAccountRequest struct {
	Token string `json:"token" validate:"required,uuid"`
}

// GoogleAuthRequest carries either an access token obtained by the client
// or an authorization code to exchange.
type GoogleAuthRequest struct {
	AccessToken string `json:"accessToken" validate:"required_without=Code"`
	Code        string `json:"code"        validate:"required_without=AccessToken"`
	State       string `json:"state"`
}

// CalendarActivationRequest carries the code from Google's popup consent
// flow.
type CalendarActivationRequest struct {
	ActivationCode string `json:"activationCode" validate:"required,max=2048"`
}

type IntegrationResponse struct {
	Service  string    `json:"service"`
	APIs     []string  `json:"apis"`
	IsActive bool      `json:"isActive"`
	Updated  time.Time `json:"updatedAt"`
}

func NewIntegrationResponse(in *models.ServiceIntegration) IntegrationResponse {
	return IntegrationResponse{
		Service:  string(in.Service),
		APIs:     in.APIs,
		IsActive: in.IsActive,
		Updated:  in.UpdatedAt,
	}
}

type ProfileUpdateRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName"  validate:"omitempty,max=100"`
	Locale    *string `json:"locale"    validate:"omitempty,min=2,max=10"`
	Avatar    *string `json:"avatar"    validate:"omitempty,url,max=2048"`
}

type UserResponse struct {
	UUID       uuid.UUID `json:"uuid"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FirstName  string    `json:"firstName,omitempty"`
	LastName   string    `json:"lastName,omitempty"`
	Locale     string    `json:"locale,omitempty"`
	Avatar     *string   `json:"avatar,omitempty"`
	AuthMethod string    `json:"authMethod"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionResponse is the body of every sign-in. The refresh token only
// travels in its cookie.
type SessionResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	AccessExp   time.Time    `json:"accessTokenExpiresAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		UUID:       u.UUID,
		Email:      u.Email,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Locale:     u.Locale,
		Avatar:     u.Avatar,
		AuthMethod: u.AuthMethod,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
