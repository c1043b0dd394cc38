package services

import (
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/core/ports/driving"
	"github.com/synapse-labs/synapse/internal/logger"
)

// Ensure Registry implements the interface.
var _ driving.SourceCatalogue = (*Registry)(nil)

// Registry holds the guarded sources in registration order.
// It is built once at startup and read-only afterwards.
type Registry struct {
	guards []*Guard
	byID   map[string]*Guard
}

// NewRegistry validates the descriptors and builds one guarded adapter per
// source. Every problem found is reported in a single
// *domain.ConfigurationError so misconfiguration fails fast before any
// fan-out.
func NewRegistry(
	descs []domain.SourceDescriptor,
	factory driven.AdapterFactory,
	creds driven.CredentialProvider,
	settings domain.OrchestratorSettings,
	clk clock.Clock,
) (*Registry, error) {
	log := logger.For("registry")
	problems := settings.Validate()

	if len(descs) == 0 {
		problems = append(problems, "no sources configured")
	}
	if settings.MinViableSources > len(descs) {
		problems = append(problems, fmt.Sprintf(
			"min viable sources (%d) exceeds configured sources (%d)", settings.MinViableSources, len(descs)))
	}

	kinds := make(map[string]bool)
	if factory != nil {
		for _, k := range factory.SupportedKinds() {
			kinds[k] = true
		}
	}

	r := &Registry{byID: make(map[string]*Guard, len(descs))}
	seen := make(map[string]bool, len(descs))

	for _, desc := range descs {
		if p := desc.Validate(); len(p) > 0 {
			problems = append(problems, p...)
			continue
		}
		if seen[desc.ID] {
			problems = append(problems, fmt.Sprintf("duplicate source id %q", desc.ID))
			continue
		}
		seen[desc.ID] = true

		if !kinds[desc.Kind] {
			problems = append(problems, fmt.Sprintf("source %s: unsupported kind %q", desc.ID, desc.Kind))
			continue
		}

		if desc.CredentialEnv != "" && !hasCredential(creds, desc.CredentialEnv) {
			if desc.IsCritical {
				problems = append(problems, fmt.Sprintf(
					"source %s: critical source is missing credential %s", desc.ID, desc.CredentialEnv))
				continue
			}
			log.Warn("%s: credential %s not set, source will fail with auth errors", desc.ID, desc.CredentialEnv)
		}

		adapter, err := factory.Create(desc)
		if err != nil {
			problems = append(problems, fmt.Sprintf("source %s: %v", desc.ID, err))
			continue
		}

		g := NewGuard(desc, adapter, settings, clk)
		r.guards = append(r.guards, g)
		r.byID[desc.ID] = g
	}

	if err := domain.NewConfigurationError(problems); err != nil {
		return nil, err
	}

	log.Info("registered %d sources", len(r.guards))
	return r, nil
}

func hasCredential(creds driven.CredentialProvider, name string) bool {
	if creds == nil {
		return false
	}
	_, ok := creds.Lookup(name)
	return ok
}

// Guards returns the guarded sources in registration order.
func (r *Registry) Guards() []*Guard {
	return r.guards
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.guards)
}

// List returns all sources in registration order.
func (r *Registry) List() []domain.SourceDescriptor {
	out := make([]domain.SourceDescriptor, len(r.guards))
	for i, g := range r.guards {
		out[i] = g.desc
	}
	return out
}

// Get retrieves a source by ID.
func (r *Registry) Get(id string) (*domain.SourceDescriptor, error) {
	g, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", id, domain.ErrNotFound)
	}
	desc := g.desc
	return &desc, nil
}

// BackoffUntil returns when the source's rate limit backoff ends, or the
// zero time when the source is unknown or not backing off.
func (r *Registry) BackoffUntil(id string) time.Time {
	g, ok := r.byID[id]
	if !ok {
		return time.Time{}
	}
	until := g.limiter.BackoffUntil()
	if !until.After(g.clock.Now()) {
		return time.Time{}
	}
	return until
}
