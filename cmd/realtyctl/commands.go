package main

import (
	"context"
	"errors"
	"fmt"

	"realtycore/internal/auth"
	"realtycore/internal/config"
	"realtycore/internal/logger"
	"realtycore/internal/seed"
	"realtycore/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type env struct {
	cfg *config.Config
	lg  *zap.SugaredLogger
	st  *storage.Store
}

func connect(ctx context.Context) (*env, error) {
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel)
	db, err := storage.OpenPostgres(ctx, cfg, lg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, lg: lg, st: storage.New(db, lg, nil)}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := storage.Migrate(e.st.DB()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date.")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and, optionally, demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			demo, _ := cmd.Flags().GetBool("demo")
			password, _ := cmd.Flags().GetString("password")

			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := storage.Migrate(e.st.DB()); err != nil {
				return err
			}
			if e.cfg.AdminEmail != "" {
				if _, err := seed.Admin(cmd.Context(), e.st, e.lg, e.cfg.AdminEmail, e.cfg.AdminPassword); err != nil {
					return err
				}
			}
			if !demo {
				return nil
			}
			d, err := seed.DemoData(cmd.Context(), e.st, e.lg, password)
			if err != nil {
				var dup *storage.ErrDuplicate
				if errors.As(err, &dup) {
					return fmt.Errorf("demo data already present: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Demo owner %s (id %d), affiliate %s (id %d)\n",
				d.Owner.Email, d.Owner.ID, d.Affiliate.Email, d.Affiliate.ID)
			return nil
		},
	}
	cmd.Flags().Bool("demo", false, "Also create demo agents, listings and leads")
	cmd.Flags().String("password", "realtycore-demo", "Password for the demo accounts")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetInt64("user-id")
			if userID < 1 {
				return fmt.Errorf("--user-id is required")
			}
			e, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			u, err := e.st.GetUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			tok, jti, exp, err := auth.NewIssuer(e.cfg.JWTSecret, e.cfg.JWTExpiresIn).Sign(u.ID, u.Role)
			if err != nil {
				return err
			}
			if err := e.st.CreateSession(cmd.Context(), u.ID, jti, exp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Int64("user-id", 0, "User to issue the token for")
	return cmd
}
