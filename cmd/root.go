package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/batimetric/pricing-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pricing-engine",
	Short: "Deterministic pricing for construction proposals",
	Long:  "Prices labor tasks from benchmark hourly-rate tables and materials from semantic catalog matches, refined over time by contractor feedback.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
