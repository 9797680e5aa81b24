package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/auth_service/services/auth/internal/worker"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Create or update the auth tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

func newPurgeCommand(rt *runtime) *cobra.Command {
	var refreshRetention, auditRetention time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Args:  cobra.NoArgs,
		Short: "Delete stale sessions, expired one-time tokens and old audit rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := &worker.Purger{
				Sessions:         rt.app.Repo.Sessions(),
				Tokens:           rt.app.Repo.Tokens(),
				Audit:            rt.app.Repo.Audit(),
				RefreshRetention: refreshRetention,
				AuditRetention:   auditRetention,
			}
			res, err := p.RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "sessions=%d tokens=%d audit=%d\n", res.Sessions, res.Tokens, res.Audit)
			return err
		},
	}
	cmd.Flags().DurationVar(&refreshRetention, "refresh-retention", rt.cfg.RefreshRetention, "age after which refresh records are removed")
	cmd.Flags().DurationVar(&auditRetention, "audit-retention", rt.cfg.AuditRetention, "age after which audit rows are removed")
	return cmd
}

func newRevokeCommand(rt *runtime) *cobra.Command {
	var user, reason string

	cmd := &cobra.Command{
		Use:   "revoke",
		Args:  cobra.NoArgs,
		Short: "End every session of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := rt.lookupUser(cmd.Context(), user)
			if err != nil {
				return err
			}
			if err := rt.app.Authority.RevokeAll(cmd.Context(), u, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked sessions of %s\n", u.UUID)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user uuid, email or username")
	cmd.Flags().StringVar(&reason, "reason", "admin_revoke", "reason recorded with the revocation")
	return cmd
}

func newSessionsCommand(rt *runtime) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "sessions",
		Args:  cobra.NoArgs,
		Short: "List the live sessions of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := rt.lookupUser(cmd.Context(), user)
			if err != nil {
				return err
			}
			recs, err := rt.app.Repo.Sessions().ListForUser(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER AGENT\tUPDATED")
			for _, r := range recs {
				fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.UserAgent, r.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user uuid, email or username")
	return cmd
}

func newDisableCommand(rt *runtime) *cobra.Command {
	var (
		user   string
		enable bool
	)

	cmd := &cobra.Command{
		Use:   "disable",
		Args:  cobra.NoArgs,
		Short: "Disable a user and end their sessions, or re-enable them with --enable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			u, err := rt.lookupUser(ctx, user)
			if err != nil {
				return err
			}
			if err := rt.app.Repo.Users().SetActive(ctx, u.ID, enable); err != nil {
				return err
			}
			if enable {
				fmt.Fprintf(cmd.OutOrStdout(), "enabled %s\n", u.UUID)
				return nil
			}
			if err := rt.app.Authority.RevokeAll(ctx, u, "account_disabled"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "disabled %s\n", u.UUID)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user uuid, email or username")
	cmd.Flags().BoolVar(&enable, "enable", false, "re-enable instead of disabling")
	return cmd
}
