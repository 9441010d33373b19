package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitease/internal/config"
	"github.com/mmynk/splitease/internal/storage/sqlite"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}

			version, err := sqlite.Migrate(cfg.DBPath)
			if err != nil {
				return err
			}

			slog.Info("Migrations applied", "database", cfg.DBPath, "version", version)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return err
		},
	}
}
