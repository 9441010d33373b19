// Package cli implements the splitease command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitease/internal/config"
	"github.com/mmynk/splitease/pkg/logging"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:           "splitease",
		Short:         "SplitEase shared-expense ledger",
		Long:          "SplitEase records shared expenses and settlements and works out who owes whom.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			*cfg = *config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd(cfg))
	rootCmd.AddCommand(newMigrateCmd(cfg))
	rootCmd.AddCommand(newDebtsCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
