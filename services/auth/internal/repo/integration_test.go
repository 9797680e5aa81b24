package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/services/auth/internal/domain"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

func TestIntegrationRepo_Lifecycle(t *testing.T) {
	gr := newTestRepo(t)
	r := gr.Integrations()
	ctx := context.Background()

	u := newUser("a@x.com", "a")
	require.NoError(t, gr.Users().Create(ctx, u))

	_, err := r.Find(ctx, u.ID, models.IntegrationGoogle)
	assert.ErrorIs(t, err, domain.ErrIntegrationNotFound)
	assert.ErrorIs(t, r.Deactivate(ctx, u.ID, models.IntegrationGoogle), domain.ErrIntegrationNotFound)

	rt := "refresh-1"
	in := &models.ServiceIntegration{
		UserID:       u.ID,
		Service:      models.IntegrationGoogle,
		RefreshToken: &rt,
		APIs:         []string{models.APIGoogleCalendar},
		IsActive:     true,
	}
	require.NoError(t, r.Save(ctx, in))
	require.NotZero(t, in.ID)

	got, err := r.Find(ctx, u.ID, models.IntegrationGoogle)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, rt, *got.RefreshToken)
	assert.Equal(t, []string{models.APIGoogleCalendar}, got.APIs)
	assert.True(t, got.HasAPI(models.APIGoogleCalendar))

	// one row per user and service
	dup := &models.ServiceIntegration{UserID: u.ID, Service: models.IntegrationGoogle}
	assert.Error(t, r.Save(ctx, dup))

	require.NoError(t, r.Deactivate(ctx, u.ID, models.IntegrationGoogle))
	got, err = r.Find(ctx, u.ID, models.IntegrationGoogle)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Nil(t, got.RefreshToken)
	assert.Equal(t, []string{models.APIGoogleCalendar}, got.APIs)
	assert.ErrorIs(t, r.Deactivate(ctx, u.ID, models.IntegrationGoogle), domain.ErrIntegrationNotFound)

	require.NoError(t, r.DeleteForUser(ctx, u.ID))
	_, err = r.Find(ctx, u.ID, models.IntegrationGoogle)
	assert.ErrorIs(t, err, domain.ErrIntegrationNotFound)
}
