package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single monitoring cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initMonitor(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		scan, err := env.Runner.Run(ctx, cfg.Criteria)
		if err != nil {
			return err
		}

		fmt.Printf("Scanned %s in %s\n", scan.Portals, scan.Duration.Round(time.Millisecond))
		fmt.Printf("  found:   %d\n", scan.Found)
		fmt.Printf("  new:     %d\n", scan.New)
		fmt.Printf("  changed: %d\n", scan.Changed)
		fmt.Printf("  failed:  %d\n", scan.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
