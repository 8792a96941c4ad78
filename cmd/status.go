package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracked listing counts and recent scans",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initMonitor(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		counts, err := env.Store.CountByPortal(ctx)
		if err != nil {
			return err
		}
		total := 0
		fmt.Println("Tracked listings:")
		for portal, n := range counts {
			fmt.Printf("  %-8s %d\n", portal, n)
			total += n
		}
		fmt.Printf("  %-8s %d\n", "total", total)

		scans, err := env.Store.RecentScans(ctx, statusLimit)
		if err != nil {
			return err
		}
		fmt.Println("\nRecent scans:")
		if len(scans) == 0 {
			fmt.Println("  none yet")
			return nil
		}
		for _, s := range scans {
			fmt.Printf("  %s  %-18s found=%-3d new=%-3d changed=%-3d failed=%-3d %s\n",
				s.StartedAt.Local().Format("2006-01-02 15:04"),
				s.Portals, s.Found, s.New, s.Changed, s.Failed,
				s.Duration.Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "number of scans to show")
	rootCmd.AddCommand(statusCmd)
}
