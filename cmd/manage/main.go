package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"profinder/internal/config"
	"profinder/internal/database"
	"profinder/internal/domain"
	jwtsvc "profinder/internal/pkg/jwt"
	"profinder/internal/repository"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "manage",
		Short:         "Operator tasks for the profinder database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newPromoteCommand())
	cmd.AddCommand(newTokenCommand())
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := open()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newPromoteCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the superadmin role to an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := open()
			if err != nil {
				return err
			}
			users := repository.NewUserRepository(db)
			u, err := users.GetByEmail(cmd.Context(), email)
			if err != nil {
				return err
			}
			if err := users.UpdateRole(cmd.Context(), u.ID, domain.RoleSuperAdmin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d (%s) is now superadmin\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// newTokenCommand mints a bearer token for local testing. Token issuance for
// real clients lives outside this service.
func newTokenCommand() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT for an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := open()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("token minting is disabled in %s", cfg.AppEnv)
			}
			u, err := repository.NewUserRepository(db).GetByID(cmd.Context(), userID)
			if err != nil {
				return err
			}
			token, err := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL).GenerateToken(u.ID, string(u.Role))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "account id")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func open() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect failed: %w", err)
	}
	return cfg, db, nil
}
