package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
)

func TestGoogleAccounts_Resolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := &GoogleAccounts{Users: env.repo.Users(), Events: env.events}

	t.Run("creates a verified google user", func(t *testing.T) {
		u, err := g.Resolve(ctx, &oauth.Profile{
			ID: "g-1", Email: "New.User@x.com", VerifiedEmail: true,
			GivenName: "New", FamilyName: "User", Picture: "https://img/1",
		})
		require.NoError(t, err)
		assert.Equal(t, "new.user@x.com", u.Email)
		assert.Equal(t, "New.User", u.Username)
		assert.Equal(t, domain.AuthMethodGoogle, u.AuthMethod)
		assert.True(t, u.IsVerified)
		assert.Nil(t, u.PasswordHash)
		require.NotNil(t, u.Avatar)

		again, err := g.Resolve(ctx, &oauth.Profile{ID: "g-1", Email: "new.user@x.com", VerifiedEmail: true})
		require.NoError(t, err)
		assert.Equal(t, u.ID, again.ID)
	})

	t.Run("links an existing local user", func(t *testing.T) {
		local := env.register(t, "a@x.com", "a").User

		u, err := g.Resolve(ctx, &oauth.Profile{ID: "g-2", Email: "a@x.com", VerifiedEmail: true, GivenName: "Alice"})
		require.NoError(t, err)
		assert.Equal(t, local.ID, u.ID)
		require.NotNil(t, u.GoogleID)
		assert.Equal(t, "g-2", *u.GoogleID)

		stored, err := env.repo.Users().FindByID(ctx, local.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", stored.FirstName)
		assert.Equal(t, domain.AuthMethodLocal, stored.AuthMethod)
	})

	t.Run("derives another username on collision", func(t *testing.T) {
		env.register(t, "bob@x.com", "bob")

		u, err := g.Resolve(ctx, &oauth.Profile{ID: "g-3", Email: "bob@other.com", VerifiedEmail: true})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u.Username, "bob_"), u.Username)
	})

	t.Run("rejects unverified google email", func(t *testing.T) {
		_, err := g.Resolve(ctx, &oauth.Profile{ID: "g-4", Email: "c@x.com"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
