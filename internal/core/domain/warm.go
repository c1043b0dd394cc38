package domain

import "time"

// WarmTarget is a tracked business whose cache is refreshed in the background.
type WarmTarget struct {
	// Business is the normalised business host.
	Business string

	// Params are the caller params used for every warm run.
	Params map[string]string

	// Interval defines how often the target is warmed.
	Interval time.Duration

	// LastRun is when the target was last warmed.
	LastRun time.Time

	// NextRun is when the target should be warmed next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastConfidence is the overall confidence of the last warm run.
	LastConfidence float64
}

// Due reports whether the target should run at now.
func (t *WarmTarget) Due(now time.Time) bool {
	return t.NextRun.IsZero() || !now.Before(t.NextRun)
}

// WarmResult is the outcome of one warm run.
type WarmResult struct {
	Business  string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// Usable counts success or cached outcomes of the run.
	Usable int
}

// WarmerConfig holds cache warmer configuration.
type WarmerConfig struct {
	// Enabled is the master switch for the warmer.
	Enabled bool

	// Interval is the default interval for targets without their own.
	Interval time.Duration

	// Tick is how often due targets are checked.
	Tick time.Duration

	// Businesses are the tracked business URLs.
	Businesses []string
}

// DefaultWarmerConfig returns the default warmer configuration.
func DefaultWarmerConfig() WarmerConfig {
	return WarmerConfig{
		Enabled:  false,
		Interval: 6 * time.Hour,
		Tick:     time.Minute,
	}
}
