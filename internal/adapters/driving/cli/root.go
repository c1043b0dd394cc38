// Package cli provides the synapse command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/core/ports/driving"
	"github.com/synapse-labs/synapse/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Pruner drops expired cache entries. Only durable cache backends implement it.
type Pruner interface {
	PruneExpired(ctx context.Context) (int, error)
}

// Services holds the driving ports the commands use.
type Services struct {
	Gatherer  driving.IntelligenceGatherer
	Catalogue driving.SourceCatalogue
	Cache     driving.CacheAdmin
	Settings  driving.SettingsService
	Warmer    driving.Warmer

	// Credentials reports which source credentials are set. Optional.
	Credentials driven.CredentialProvider

	// WarmerEnabled starts the warmer alongside serve.
	WarmerEnabled bool

	// Pruner is nil when the cache backend expires entries itself.
	Pruner Pruner

	// Metrics is served by the HTTP server when set.
	Metrics prometheus.Gatherer

	// MinViable is the viability threshold in force, for display.
	MinViable int

	// InitErr explains why the orchestrator could not be built, if it
	// could not. Settings commands still work.
	InitErr error
}

var (
	gatherer        driving.IntelligenceGatherer
	catalogue       driving.SourceCatalogue
	cacheAdmin      driving.CacheAdmin
	settingsService driving.SettingsService
	warmer          driving.Warmer
	creds           driven.CredentialProvider
	warmerEnabled   bool
	pruner          Pruner
	metrics         prometheus.Gatherer
	minViable       int
	initErr         error

	// serverAddr is the default listen address for serve.
	serverAddr = ":8080"
)

var rootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Parallel business intelligence orchestrator",
	Long: `Synapse queries many third-party intelligence sources for a business in
parallel, within a global deadline, and merges the answers into one scored
bundle. Cached payloads stand in for sources that fail or time out.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose") //nolint:errcheck // flag is always registered
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print debug logs to stderr")
}

// SetServices wires the driving ports into the commands.
func SetServices(s *Services) {
	gatherer = s.Gatherer
	catalogue = s.Catalogue
	cacheAdmin = s.Cache
	settingsService = s.Settings
	warmer = s.Warmer
	creds = s.Credentials
	warmerEnabled = s.WarmerEnabled
	pruner = s.Pruner
	metrics = s.Metrics
	minViable = s.MinViable
	initErr = s.InitErr
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServerAddr sets the default listen address for serve.
func SetServerAddr(addr string) {
	if addr != "" {
		serverAddr = addr
	}
}

// notConfigured reports a missing service, with the startup error when
// there was one.
func notConfigured(name string) error {
	if initErr != nil {
		return fmt.Errorf("%s not configured: %w", name, initErr)
	}
	return errors.New(name + " not configured")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
