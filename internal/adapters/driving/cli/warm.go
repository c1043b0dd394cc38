package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var warmParams map[string]string

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Keep the cache warm for tracked businesses",
	Long: `The warmer re-gathers tracked businesses in the background with a forced
refresh, so interactive gathers are served from a fresh cache.`,
}

var warmTrackCmd = &cobra.Command{
	Use:   "track [business-url]",
	Short: "Track a business for warming",
	Args:  cobra.ExactArgs(1),
	RunE:  runWarmTrack,
}

var warmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked businesses",
	Args:  cobra.NoArgs,
	RunE:  runWarmList,
}

var warmRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the warmer in the foreground until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWarmRun,
}

func init() {
	warmTrackCmd.Flags().StringToStringVarP(&warmParams, "param", "p", nil, "query param used for every warm run (key=value)")
	warmCmd.AddCommand(warmTrackCmd)
	warmCmd.AddCommand(warmListCmd)
	warmCmd.AddCommand(warmRunCmd)
	rootCmd.AddCommand(warmCmd)
}

func runWarmTrack(cmd *cobra.Command, args []string) error {
	if warmer == nil {
		return notConfigured("warmer")
	}
	if err := warmer.Track(cmd.Context(), args[0], warmParams); err != nil {
		return fmt.Errorf("track failed: %w", err)
	}
	cmd.Printf("Tracking %s.\n", args[0])
	return nil
}

func runWarmList(cmd *cobra.Command, _ []string) error {
	if warmer == nil {
		return notConfigured("warmer")
	}

	targets, err := warmer.Targets(cmd.Context())
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}
	if len(targets) == 0 {
		cmd.Println("No businesses tracked.")
		return nil
	}

	cmd.Println("Tracked businesses:")
	for i := range targets {
		t := &targets[i]
		last := "never"
		if !t.LastRun.IsZero() {
			last = t.LastRun.Local().Format(time.DateTime)
		}
		cmd.Printf("  %-30s every %-8s last %s (confidence %.2f)\n", t.Business, t.Interval, last, t.LastConfidence)
		if t.LastError != "" {
			cmd.Printf("    last error: %s\n", t.LastError)
		}
	}
	return nil
}

func runWarmRun(cmd *cobra.Command, _ []string) error {
	if warmer == nil {
		return notConfigured("warmer")
	}

	cmd.Println("Warming tracked businesses. Press Ctrl+C to stop.")
	err := warmer.Start(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
