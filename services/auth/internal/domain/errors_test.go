package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", E(KindSamePassword, "auth.change_password", nil))

	assert.ErrorIs(t, err, ErrSamePassword)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, KindSamePassword, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want Kind
	}{
		{name: "invalid credentials", in: ErrInvalidCredentials, want: KindUnauthorized},
		{name: "user not found", in: E(KindUserNotFound, "verify", nil), want: KindUnauthorized},
		{name: "user with id not found", in: ErrUserWithIdNotFound, want: KindUnauthorized},
		{name: "account disabled", in: ErrAccountDisabled, want: KindUnauthorized},
		{name: "unauthorized stays", in: ErrUnauthorized, want: KindUnauthorized},
		{name: "same password stays", in: ErrSamePassword, want: KindSamePassword},
		{name: "email in use stays", in: ErrEmailInUse, want: KindEmailInUse},
		{name: "username in use stays", in: ErrUsernameInUse, want: KindUsernameInUse},
		{name: "not verified stays", in: ErrAccountNotVerified, want: KindAccountNotVerified},
		{name: "plain error is internal", in: errors.New("db down"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize("op", tt.in)
			assert.Equal(t, tt.want, KindOf(got))
			assert.ErrorIs(t, got, tt.in)
		})
	}

	assert.NoError(t, Normalize("op", nil))
}

func TestHTTPStatusAndMessage(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(KindInvalidCredentials))
	assert.Equal(t, http.StatusConflict, HTTPStatus(KindEmailInUse))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(KindSamePassword))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindTokenNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindInternal))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(KindIntegrationNotFound))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(KindUpstream))

	assert.Equal(t, "unauthorized", PublicMessage(KindUserNotFound))
	assert.Equal(t, "unauthorized", PublicMessage(KindInvalidCredentials))
	assert.Equal(t, "email in use", PublicMessage(KindEmailInUse))
	assert.Equal(t, "integration not connected", PublicMessage(KindIntegrationNotFound))
}
