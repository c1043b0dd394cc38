package file

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

//go:embed defaults.toml
var defaultSourcesTOML []byte

// sourceFile is the on-disk layout of a sources file.
type sourceFile struct {
	Sources []sourceEntry `toml:"source"`
}

type sourceEntry struct {
	ID         string            `toml:"id"`
	Name       string            `toml:"name"`
	Kind       string            `toml:"kind"`
	Critical   bool              `toml:"critical"`
	Tier       string            `toml:"tier"`
	Timeout    string            `toml:"timeout"`
	CacheTTL   string            `toml:"cache_ttl"`
	Credential string            `toml:"credential"`
	RateLimit  *rateLimitEntry   `toml:"rate_limit"`
	Params     map[string]string `toml:"params"`
}

type rateLimitEntry struct {
	Calls  int    `toml:"calls"`
	Window string `toml:"window"`
}

// SourceStore loads source descriptors from a TOML file.
// When no file is configured the built-in source set is used.
type SourceStore struct {
	path string
}

// NewSourceStore creates a source store reading path. An empty path uses the
// built-in sources.
func NewSourceStore(path string) *SourceStore {
	return &SourceStore{path: path}
}

// Path returns the configured file, or "" for the built-in sources.
func (s *SourceStore) Path() string {
	return s.path
}

// List returns the descriptors in file order.
func (s *SourceStore) List(_ context.Context) ([]domain.SourceDescriptor, error) {
	if s.path == "" {
		return DefaultSources()
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: sources file %s does not exist", domain.ErrConfiguration, s.path)
		}
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

// DefaultSources returns the built-in source set.
func DefaultSources() ([]domain.SourceDescriptor, error) {
	return ParseSources(defaultSourcesTOML)
}

// ParseSources decodes [[source]] entries. Every malformed field is reported
// in a single *domain.ConfigurationError.
func ParseSources(data []byte) ([]domain.SourceDescriptor, error) {
	var f sourceFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, domain.NewConfigurationError([]string{"sources file: " + err.Error()})
	}

	var problems []string
	descs := make([]domain.SourceDescriptor, 0, len(f.Sources))
	for i, e := range f.Sources {
		label := e.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		d := domain.SourceDescriptor{
			ID:            e.ID,
			DisplayName:   e.Name,
			Kind:          e.Kind,
			IsCritical:    e.Critical,
			CredentialEnv: e.Credential,
			Params:        e.Params,
		}

		tier := e.Tier
		if tier == "" {
			tier = string(domain.TierMedium)
			if e.Critical {
				tier = string(domain.TierCritical)
			}
		}
		t, err := domain.ParsePriorityTier(tier)
		if err != nil {
			problems = append(problems, fmt.Sprintf("source %s: unknown priority tier %q", label, e.Tier))
		}
		d.Tier = t

		d.Timeout = parseDuration(e.Timeout, "timeout", label, &problems)
		d.CacheTTL = parseDuration(e.CacheTTL, "cache_ttl", label, &problems)
		if e.RateLimit != nil {
			d.RateLimit = domain.RateLimit{
				Calls:  e.RateLimit.Calls,
				Window: parseDuration(e.RateLimit.Window, "rate_limit.window", label, &problems),
			}
		}

		descs = append(descs, d)
	}

	if err := domain.NewConfigurationError(problems); err != nil {
		return nil, err
	}
	return descs, nil
}

func parseDuration(s, field, label string, problems *[]string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("source %s: invalid %s %q", label, field, s))
		return 0
	}
	return d
}
