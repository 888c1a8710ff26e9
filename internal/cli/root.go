package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/FoadGhasemi/CodeSpark/internal/config"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "codespark",
		Short:         "CodeSpark: a bilingual programming quiz bot for Telegram",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadDotEnv(configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewSeedCmd(&configPath))
	return cmd
}

// loadDotEnv reads .env files unless the config at path targets production,
// where real environment variables are injected. It reports whether it loaded.
func loadDotEnv(path string, files ...string) bool {
	if cfg, err := config.Load(path); err == nil && cfg.IsProduction() {
		return false
	}
	_ = godotenv.Load(files...)
	return true
}
