package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FoadGhasemi/CodeSpark/internal/config"
	"github.com/FoadGhasemi/CodeSpark/internal/infra/postgres"
	"github.com/FoadGhasemi/CodeSpark/internal/logging"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := postgres.Migrate(ctx, cfg.Postgres.URL); err != nil {
		return err
	}
	logger := logging.New(cfg.App.Name, cfg.App.Env)
	logger.Info().Msg("migrations applied")
	return nil
}
