package sources

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/github"
	"github.com/synapse-labs/synapse/internal/sources/google"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
	"github.com/synapse-labs/synapse/internal/sources/news"
	"github.com/synapse-labs/synapse/internal/sources/openai"
	"github.com/synapse-labs/synapse/internal/sources/reddit"
	"github.com/synapse-labs/synapse/internal/sources/serper"
	"github.com/synapse-labs/synapse/internal/sources/weather"
	"github.com/synapse-labs/synapse/internal/sources/website"
)

// Ensure Factory implements the interface.
var _ driven.AdapterFactory = (*Factory)(nil)

// Factory maps adapter kinds to their builders.
type Factory struct {
	mu       sync.RWMutex
	builders map[string]driven.AdapterBuilder
	creds    driven.CredentialProvider
}

// NewFactory creates an empty factory. Credentials are handed to every
// builder.
func NewFactory(creds driven.CredentialProvider) *Factory {
	return &Factory{
		builders: make(map[string]driven.AdapterBuilder),
		creds:    creds,
	}
}

// NewDefaultFactory creates a factory with every built-in kind registered.
func NewDefaultFactory(creds driven.CredentialProvider, httpClient *http.Client) *Factory {
	f := NewFactory(creds)
	RegisterDefaults(f, httpClient)
	return f
}

// Register adds a builder for the given kind, replacing any existing one.
func (f *Factory) Register(kind string, builder driven.AdapterBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[kind] = builder
}

// Create returns an adapter for the descriptor.
func (f *Factory) Create(desc domain.SourceDescriptor) (driven.SourceAdapter, error) {
	f.mu.RLock()
	builder, ok := f.builders[desc.Kind]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: source kind %q", domain.ErrUnsupportedType, desc.Kind)
	}

	adapter, err := builder(desc, f.creds)
	if err != nil {
		return nil, fmt.Errorf("build %s adapter for %s: %w", desc.Kind, desc.ID, err)
	}
	return adapter, nil
}

// SupportedKinds returns all registered kinds, sorted.
func (f *Factory) SupportedKinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	kinds := make([]string, 0, len(f.builders))
	for k := range f.builders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// RegisterDefaults registers all built-in adapter kinds. Every adapter
// shares httpClient; a nil client uses http.DefaultClient.
func RegisterDefaults(f *Factory, httpClient *http.Client) {
	f.Register(website.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return website.New(d, c, httpClient)
	})
	f.Register(serper.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return serper.New(d, c, httpClient)
	})
	f.Register(google.PageSpeedKind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return google.NewPageSpeed(d, c, httpClient)
	})
	f.Register(google.YouTubeKind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return google.NewYouTube(d, c, httpClient)
	})
	f.Register(reddit.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return reddit.New(d, c, httpClient)
	})
	f.Register(news.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return news.New(d, c, httpClient)
	})
	f.Register(weather.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return weather.New(d, c, httpClient)
	})
	f.Register(openai.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return openai.New(d, c, httpClient)
	})
	f.Register(github.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return github.New(d, c, httpClient)
	})
	f.Register(httpjson.Kind, func(d domain.SourceDescriptor, c driven.CredentialProvider) (driven.SourceAdapter, error) {
		return httpjson.New(d, c, httpClient)
	})
}
