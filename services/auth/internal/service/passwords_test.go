package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/pkg/hash"
	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

func (e *testEnv) resetToken(t *testing.T, identifier string) uuid.UUID {
	t.Helper()
	require.NoError(t, e.passwords.ForgotPassword(context.Background(), identifier))
	m, ok := e.mail.last("password_reset")
	require.True(t, ok)
	return uuid.MustParse(m.token)
}

func TestPasswords_ForgotPassword_UnknownIsSilent(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.passwords.ForgotPassword(context.Background(), "nobody@x.com"))
	_, ok := env.mail.last("password_reset")
	assert.False(t, ok)
}

func TestPasswords_ChangePassword_SamePasswordKeepsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.register(t, "a@x.com", "a")
	before, err := env.repo.Users().FindByID(ctx, s.User.ID)
	require.NoError(t, err)
	tok := env.resetToken(t, "a")

	err = env.passwords.ChangePassword(ctx, tok, testPassword)
	assert.ErrorIs(t, err, domain.ErrSamePassword)

	after, err := env.repo.Users().FindByID(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, *before.PasswordHash, *after.PasswordHash)
	_, err = env.repo.Tokens().FindByUUID(ctx, tok, models.TokenChangePassword)
	assert.NoError(t, err, "token must survive a rejected attempt")
	assert.Len(t, env.lineages(t, s.User.ID), 1)
}

func TestPasswords_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.register(t, "a@x.com", "a")
	tok := env.resetToken(t, "a@x.com")

	require.NoError(t, env.passwords.ChangePassword(ctx, tok, "Newpass1!"))

	u, err := env.repo.Users().FindByID(ctx, s.User.ID)
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(*u.PasswordHash, "Newpass1!"))
	assert.Empty(t, env.lineages(t, s.User.ID))
	_, ok := env.mail.last("password_changed")
	assert.True(t, ok)
	assert.Contains(t, env.events.types(), events.TypePasswordChanged)

	err = env.passwords.ChangePassword(ctx, tok, "Other123!")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestPasswords_ChangePassword_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "a@x.com", "a")

	err := env.passwords.ChangePassword(ctx, uuid.New(), "Newpass1!")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	tok := env.resetToken(t, "a")
	err = env.passwords.ChangePassword(ctx, tok, "weak")
	assert.ErrorIs(t, err, domain.ErrValidation)

	env.passwords.Now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	err = env.passwords.ChangePassword(ctx, tok, "Newpass1!")
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
	_, err = env.repo.Tokens().FindByUUID(ctx, tok, models.TokenChangePassword)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound, "expired token is consumed")
}

func TestPasswords_VerifyAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.register(t, "a@x.com", "a")
	m, ok := env.mail.last("account_created")
	require.True(t, ok)
	tok := uuid.MustParse(m.token)

	// a verification token cannot reset a password
	assert.ErrorIs(t, env.passwords.ChangePassword(ctx, tok, "Newpass1!"), domain.ErrTokenNotFound)

	require.NoError(t, env.passwords.VerifyAccount(ctx, tok))
	u, err := env.repo.Users().FindByID(ctx, s.User.ID)
	require.NoError(t, err)
	assert.True(t, u.IsVerified)
	assert.Contains(t, env.events.types(), events.TypeAccountVerified)

	assert.ErrorIs(t, env.passwords.VerifyAccount(ctx, tok), domain.ErrTokenNotFound)
}
