// Package cli implements the carbon-ledger command line.
package cli

import (
	"carbon-ledger/internal/config"
	"carbon-ledger/internal/logging"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "carbon-ledger",
	Short: "Carbon credit ledger service",
	Long: `carbon-ledger keeps a registry of organizations and the carbon credits
they issue, transfer and retire. Run "serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if v, _ := cmd.Flags().GetString("log-level"); v != "" {
			level = v
		}
		logging.Configure(level, !cfg.IsProduction())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
}

// loadConfig is replaced in tests.
var loadConfig = config.Load

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
