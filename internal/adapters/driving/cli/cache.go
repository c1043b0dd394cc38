package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cacheSource string
	cacheParams map[string]string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached source payloads",
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate [business-url]",
	Short: "Drop cached payloads for a business",
	Long: `Drops cached payloads for one business so the next gather queries the
sources live. Use --source to limit it to one source.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheInvalidate,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge [source-id]",
	Short: "Drop every cached payload of a source, or of all sources",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCachePurge,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired cache entries",
	Long:  `Deletes expired entries from durable cache backends. Memory and Redis caches expire entries themselves.`,
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	cacheInvalidateCmd.Flags().StringVarP(&cacheSource, "source", "s", "", "only invalidate this source")
	cacheInvalidateCmd.Flags().StringToStringVarP(&cacheParams, "param", "p", nil, "query params the payload was gathered with (key=value)")
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	if cacheAdmin == nil {
		return notConfigured("cache")
	}

	n, err := cacheAdmin.Invalidate(cmd.Context(), cacheSource, args[0], cacheParams)
	if err != nil {
		return fmt.Errorf("invalidate failed: %w", err)
	}
	cmd.Printf("Invalidated %s for %d source(s).\n", args[0], n)
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	if cacheAdmin == nil {
		return notConfigured("cache")
	}

	sourceID := ""
	if len(args) > 0 {
		sourceID = args[0]
	}

	n, err := cacheAdmin.Purge(cmd.Context(), sourceID)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	if sourceID == "" {
		cmd.Printf("Purged %d cached payload(s).\n", n)
	} else {
		cmd.Printf("Purged %d cached payload(s) of %s.\n", n, sourceID)
	}
	return nil
}

func runCachePrune(cmd *cobra.Command, _ []string) error {
	if pruner == nil {
		cmd.Println("The configured cache backend expires entries itself; nothing to prune.")
		return nil
	}

	n, err := pruner.PruneExpired(cmd.Context())
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	cmd.Printf("Pruned %d expired entr%s.\n", n, plural(n, "y", "ies"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
