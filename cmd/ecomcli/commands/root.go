// Package commands defines the ecomcli command tree.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ecomcli/internal/config"
	"ecomcli/internal/infrastructure"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ecomcli",
	Short: "Customer analytics pipeline for e-commerce transaction data",
	Long: `ecomcli recomputes the customer analytics tables from a frozen raw
extract: canonical customer identities, order facts, RFM and time-window
features, cohort retention and churn-risk prioritization.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default config.yaml)")
}

// loadConfig loads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if _, err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}
