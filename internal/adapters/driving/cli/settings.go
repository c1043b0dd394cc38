package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the orchestrator, cache backend and warmer.

Use subcommands to configure specific settings or run the interactive wizard.
Every setting can also be overridden with a SYNAPSE_* environment variable,
e.g. SYNAPSE_CACHE_BACKEND=redis.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsCacheCmd = &cobra.Command{
	Use:   "cache [backend]",
	Short: "Set the cache backend",
	Long: `Set the cache backend.

Available backends:
  memory - In-process cache, lost on exit (no setup required)
  sqlite - Durable local cache under the data directory
  redis  - Shared cache for several Synapse instances`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsCache,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the current settings",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsCacheCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

var cacheBackends = []domain.CacheBackend{
	domain.CacheBackendMemory,
	domain.CacheBackendSQLite,
	domain.CacheBackendRedis,
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	o := settings.Orchestrator
	cmd.Println("[Orchestrator]")
	cmd.Printf("  Min viable sources: %d\n", o.MinViableSources)
	cmd.Printf("  Global deadline: %s\n", o.GlobalDeadline)
	cmd.Printf("  Retry attempts: %d (delay %s)\n", o.RetryAttempts, o.RetryDelay)
	if o.RateLimitWait > 0 {
		cmd.Printf("  Rate limit wait: %s\n", o.RateLimitWait)
	} else {
		cmd.Printf("  Rate limit wait: fail fast\n")
	}
	cmd.Println()

	cmd.Println("[Scoring]")
	cmd.Printf("  Fresh score: %.1f\n", o.Scoring.FreshScore)
	cmd.Printf("  Cached ceiling: %.1f\n", o.Scoring.CachedCeiling)
	cmd.Printf("  Cache floor ratio: %.2f\n", o.Scoring.CacheFloorRatio)
	cmd.Printf("  Completeness weight: %.2f\n", o.Scoring.CompletenessWeight)
	cmd.Println()

	c := settings.Cache
	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", c.Backend)
	switch c.Backend {
	case domain.CacheBackendSQLite:
		dir := c.Dir
		if dir == "" {
			dir = "(default data directory)"
		}
		cmd.Printf("  Directory: %s\n", dir)
	case domain.CacheBackendRedis:
		cmd.Printf("  Address: %s (db %d)\n", c.RedisAddr, c.RedisDB)
		cmd.Printf("  Key prefix: %s\n", c.RedisPrefix)
		if c.RedisPassword != "" {
			cmd.Printf("  Password: %s\n", maskAPIKey(c.RedisPassword))
		} else {
			cmd.Printf("  Password: (not set)\n")
		}
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	w := settings.Warmer
	cmd.Println("[Warmer]")
	if w.Enabled {
		cmd.Printf("  Enabled: yes\n")
		cmd.Printf("  Interval: %s (check every %s)\n", w.Interval, w.Tick)
		if len(w.Businesses) > 0 {
			cmd.Printf("  Businesses: %s\n", strings.Join(w.Businesses, ", "))
		}
	} else {
		cmd.Printf("  Enabled: no\n")
	}
	cmd.Println()

	cmd.Println("[Sources]")
	if settings.SourcesFile != "" {
		cmd.Printf("  File: %s\n", settings.SourcesFile)
	} else {
		cmd.Printf("  File: (built-in defaults)\n")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'synapse settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Synapse Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Cache backend
	cmd.Println("Step 1: Select Cache Backend")
	cmd.Println("----------------------------")
	backend := chooseCacheBackend(cmd, reader, settings.Cache.Backend)
	settings.Cache.Backend = backend
	if backend == domain.CacheBackendRedis {
		configureRedis(cmd, reader, &settings.Cache)
	}
	cmd.Println()

	// Step 2: Viability
	cmd.Println("Step 2: Orchestrator")
	cmd.Println("--------------------")
	cmd.Printf("Minimum usable sources [%d]: ", settings.Orchestrator.MinViableSources)
	if n, err := strconv.Atoi(readLine(reader)); err == nil && n >= 0 {
		settings.Orchestrator.MinViableSources = n
	}
	cmd.Printf("Global deadline [%s]: ", settings.Orchestrator.GlobalDeadline)
	if d, err := time.ParseDuration(readLine(reader)); err == nil && d > 0 {
		settings.Orchestrator.GlobalDeadline = d
	}
	cmd.Println()

	// Step 3: Warmer
	cmd.Println("Step 3: Cache Warmer")
	cmd.Println("--------------------")
	cmd.Printf("Enable the cache warmer? [%s]: ", yesNo(settings.Warmer.Enabled))
	settings.Warmer.Enabled = parseYesNo(readLine(reader), settings.Warmer.Enabled)
	if settings.Warmer.Enabled {
		cmd.Print("Businesses to warm, comma separated (empty keeps current): ")
		if list := readLine(reader); list != "" {
			settings.Warmer.Businesses = splitCommaList(list)
		}
	}
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsCache(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var backend domain.CacheBackend
	if len(args) > 0 {
		backend = domain.CacheBackend(strings.ToLower(args[0]))
	} else {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		backend = chooseCacheBackend(cmd, bufio.NewReader(cmd.InOrStdin()), settings.Cache.Backend)
	}

	if err := settingsService.SetCacheBackend(backend); err != nil {
		return fmt.Errorf("failed to set cache backend: %w", err)
	}
	cmd.Printf("Cache backend set to: %s\n", backend)

	if backend == domain.CacheBackendRedis {
		cmd.Println("\nNote: Redis needs an address.")
		cmd.Println("Run 'synapse settings wizard' or set SYNAPSE_REDIS_ADDR.")
	}
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func chooseCacheBackend(cmd *cobra.Command, reader *bufio.Reader, current domain.CacheBackend) domain.CacheBackend {
	def := 1
	for i, b := range cacheBackends {
		marker := ""
		if b == current {
			marker = " (current)"
			def = i + 1
		}
		cmd.Printf("  %d. %s%s\n", i+1, b, marker)
	}
	cmd.Printf("\nEnter choice [%d]: ", def)
	idx := parseChoice(readLine(reader), len(cacheBackends), def)
	return cacheBackends[idx-1]
}

func configureRedis(cmd *cobra.Command, reader *bufio.Reader, c *domain.CacheSettings) {
	cmd.Printf("Redis address [%s]: ", c.RedisAddr)
	if addr := readLine(reader); addr != "" {
		c.RedisAddr = addr
	}
	cmd.Printf("Redis database [%d]: ", c.RedisDB)
	if db, err := strconv.Atoi(readLine(reader)); err == nil && db >= 0 {
		c.RedisDB = db
	}
	cmd.Print("Redis password (empty keeps current): ")
	if password := readPassword(reader); password != "" {
		c.RedisPassword = password
	}
	cmd.Println()
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parseYesNo(input string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return defaultVal
	}
}

func yesNo(v bool) string {
	if v {
		return "Y/n"
	}
	return "y/N"
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readPassword reads without echo from a terminal, falling back to reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
