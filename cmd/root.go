package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwalkowiak/flatwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "flatwatch",
	Short: "Apartment listing monitor for Wrocław",
	Long:  "Polls Otodom, OLX and Gratka for apartments matching configured criteria, tracks new offers and price changes in SQLite, renders a dashboard and sends notifications.",
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
