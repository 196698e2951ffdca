package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nearby/internal/env"
)

var cfg *env.Config

var rootCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Location-aware proximity search and suggestions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := env.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if _, err := env.Logger(cfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, locateCmd, suggestCmd, placesCmd, radiusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
