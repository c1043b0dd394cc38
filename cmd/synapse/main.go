// Command synapse gathers business intelligence from many sources in parallel.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/synapse-labs/synapse/internal/adapters/driven/config/file"
	"github.com/synapse-labs/synapse/internal/adapters/driven/credentials"
	"github.com/synapse-labs/synapse/internal/adapters/driven/storage/memory"
	"github.com/synapse-labs/synapse/internal/adapters/driven/storage/redis"
	"github.com/synapse-labs/synapse/internal/adapters/driven/storage/sqlite"
	"github.com/synapse-labs/synapse/internal/adapters/driven/telemetry"
	"github.com/synapse-labs/synapse/internal/adapters/driving/cli"
	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/core/services"
	"github.com/synapse-labs/synapse/internal/logger"
	"github.com/synapse-labs/synapse/internal/sources"
)

// version is set at build time via -ldflags.
var version = "dev"

// homeEnv overrides the config directory.
const homeEnv = "SYNAPSE_HOME"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	svc, closers := wire(ctx)
	cli.SetVersion(version)
	cli.SetServices(svc)

	err := cli.Execute(ctx)
	for _, c := range closers {
		if cerr := c.Close(); cerr != nil {
			logger.Warn("close: %v", cerr)
		}
	}
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// wire builds the services from settings. Failures after the settings
// service is up are reported through InitErr so settings commands still
// work on a broken configuration.
func wire(ctx context.Context) (*cli.Services, []io.Closer) {
	svc := &cli.Services{}

	dir, err := configDir()
	if err != nil {
		svc.InitErr = err
		return svc, nil
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		svc.InitErr = fmt.Errorf("loading config: %w", err)
		return svc, nil
	}
	settingsService := services.NewSettingsService(configStore)
	svc.Settings = settingsService

	settings, err := settingsService.Get()
	if err != nil {
		svc.InitErr = fmt.Errorf("reading settings: %w", err)
		return svc, nil
	}
	cli.SetServerAddr(settings.Server.Addr)

	descs, err := loadSources(ctx, settings.SourcesFile)
	if err != nil {
		svc.InitErr = err
		return svc, nil
	}

	creds := credentials.Chain{credentials.NewEnvProvider(), credentials.NewConfigProvider(configStore)}
	factory := sources.NewDefaultFactory(creds, &http.Client{Timeout: 2 * settings.Orchestrator.GlobalDeadline})

	clk := clock.WallClock
	registry, err := services.NewRegistry(descs, factory, creds, settings.Orchestrator, clk)
	if err != nil {
		svc.InitErr = err
		return svc, nil
	}

	var closers []io.Closer
	cache, warmStore, pruner, closer, err := openCache(ctx, settings.Cache, dir, clk)
	if err != nil {
		svc.InitErr = err
		return svc, nil
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	collector := telemetry.NewCollector()
	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collector)

	intelligence := services.NewIntelligenceService(
		registry, cache, telemetry.Combine(telemetry.NewLog(), collector), settings.Orchestrator, clk)

	svc.Gatherer = intelligence
	svc.Catalogue = registry
	svc.Credentials = creds
	svc.Cache = services.NewCacheAdminService(cache, registry)
	svc.Warmer = services.NewWarmer(settings.Warmer, warmStore, intelligence, clk)
	svc.WarmerEnabled = settings.Warmer.Enabled
	svc.Pruner = pruner
	svc.Metrics = metrics
	svc.MinViable = settings.Orchestrator.MinViableSources

	return svc, closers
}

func configDir() (string, error) {
	if dir := os.Getenv(homeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".synapse"), nil
}

func loadSources(ctx context.Context, path string) ([]domain.SourceDescriptor, error) {
	if path == "" {
		return file.DefaultSources()
	}
	descs, err := file.NewSourceStore(path).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading sources from %s: %w", path, err)
	}
	return descs, nil
}

// openCache opens the configured backend. Only SQLite keeps warm targets
// across restarts and needs pruning.
func openCache(
	ctx context.Context,
	settings domain.CacheSettings,
	configDir string,
	clk clock.Clock,
) (driven.IntelligenceCache, driven.WarmStore, cli.Pruner, io.Closer, error) {
	switch settings.Backend {
	case domain.CacheBackendSQLite:
		dir := settings.Dir
		if dir == "" {
			dir = filepath.Join(configDir, "data")
		}
		store, err := sqlite.NewStore(dir, sqlite.WithClock(clk))
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("opening sqlite cache: %w", err)
		}
		return store.Cache(), store.WarmStore(), store.Cache(), store, nil

	case domain.CacheBackendRedis:
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		cache, err := redis.Dial(dialCtx, settings)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return cache, memory.NewWarmStore(), nil, cache, nil

	default:
		return memory.NewCache(clk), memory.NewWarmStore(), nil, nil, nil
	}
}
