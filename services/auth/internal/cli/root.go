package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/services/auth/internal/app"
	"github.com/Skotchmaster/auth_service/services/auth/internal/config"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type runtime struct {
	cfg    config.Config
	driver string
	dsn    string
	app    *app.App
}

// NewRootCmd builds the authctl command tree. Database settings default to
// the same environment the service reads.
func NewRootCmd() *cobra.Command {
	rt := &runtime{cfg: config.Load()}

	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Administrative tasks for the auth service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return rt.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.close()
		},
	}
	root.PersistentFlags().StringVar(&rt.driver, "db-driver", rt.cfg.DBDriver, "database driver (postgres or sqlite)")
	root.PersistentFlags().StringVar(&rt.dsn, "database-url", rt.cfg.DatabaseURL, "database connection string")

	root.AddCommand(
		newMigrateCommand(rt),
		newPurgeCommand(rt),
		newRevokeCommand(rt),
		newSessionsCommand(rt),
		newDisableCommand(rt),
	)
	return root
}

func (rt *runtime) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	gdb, err := db.Open(ctx, rt.driver, rt.dsn)
	if err != nil {
		return err
	}
	rt.app = app.New(gdb, app.Options{
		Tokens:           rt.cfg.Tokens,
		Cookies:          rt.cfg.Cookies,
		RefreshRetention: rt.cfg.RefreshRetention,
	})
	return nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	sqlDB, err := rt.app.Repo.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// lookupUser accepts a user uuid, email or username.
func (rt *runtime) lookupUser(ctx context.Context, ref string) (*models.User, error) {
	if ref == "" {
		return nil, fmt.Errorf("--user is required")
	}
	users := rt.app.Repo.Users()
	if id, err := uuid.Parse(ref); err == nil {
		return users.FindByUUID(ctx, id)
	}
	return users.FindByIdentifier(ctx, ref)
}
