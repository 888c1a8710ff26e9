package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/FoadGhasemi/CodeSpark/internal/app"
	"github.com/FoadGhasemi/CodeSpark/internal/config"
	"github.com/FoadGhasemi/CodeSpark/internal/domain"
	"github.com/FoadGhasemi/CodeSpark/internal/logging"
)

// NewSeedCmd imports JSON documents from a directory into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		dir   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import <name>.json documents into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.App.Name, cfg.App.Env)
			store, closeStore, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			imported, skipped, err := seedDocuments(cmd.Context(), store, dir, force, logger)
			if err != nil {
				return err
			}
			logger.Info().Int("imported", imported).Int("skipped", skipped).Msg("seed finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data", "directory holding <name>.json documents")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite documents that already exist")
	return cmd
}

func seedDocuments(ctx context.Context, store app.DocumentStore, dir string, force bool, logger zerolog.Logger) (imported, skipped int, err error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, 0, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		if !force {
			_, err := store.Get(ctx, name)
			if err == nil {
				logger.Info().Str("document", name).Msg("exists, skipping")
				skipped++
				continue
			}
			if !errors.Is(err, domain.ErrDocumentNotFound) {
				return imported, skipped, err
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return imported, skipped, fmt.Errorf("read %s: %w", path, err)
		}
		if !json.Valid(data) {
			return imported, skipped, fmt.Errorf("%s is not valid JSON", path)
		}
		if err := store.Put(ctx, name, data); err != nil {
			return imported, skipped, err
		}
		logger.Info().Str("document", name).Msg("imported")
		imported++
	}
	return imported, skipped, nil
}
