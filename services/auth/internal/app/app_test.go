package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/services/auth/internal/config"
	"github.com/Skotchmaster/auth_service/services/auth/internal/notify"
	"github.com/Skotchmaster/auth_service/services/auth/internal/oauth"
	"github.com/Skotchmaster/auth_service/services/auth/internal/tokens"
)

func TestNew_WiresGraph(t *testing.T) {
	ctx := context.Background()
	gdb, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)

	a := New(gdb, Options{Tokens: tokens.Config{
		AccessSecret:  []byte(strings.Repeat("a", 32)),
		RefreshSecret: []byte(strings.Repeat("b", 32)),
	}})
	require.NoError(t, a.Repo.Migrate(ctx))

	assert.Same(t, a.Authority, a.Guards.Authority)
	assert.Nil(t, a.Deps.GoogleHandler)
	assert.NotNil(t, a.Deps.Audit)

	withGoogle := New(gdb, Options{Google: oauth.NewGoogle(oauth.GoogleConfig{ClientID: "id", ClientSecret: "s"})})
	assert.NotNil(t, withGoogle.Deps.GoogleHandler)
}

func TestNewMailer(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{driver: config.MailDriverLog},
		{driver: config.MailDriverKafka, wantErr: true},
		{driver: "smtp", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := config.Config{Mail: config.MailConfig{Driver: tc.driver}}
			m, err := NewMailer(cfg, nil, nil)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, notify.LogMailer{}, m)
		})
	}
}
