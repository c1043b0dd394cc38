package driven

import (
	"context"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// SourceAdapter calls exactly one third-party API.
// Each source kind (serper, website, youtube, etc.) implements this interface.
//
// Adapters translate the API's auth and response shape into a RawPayload.
// They must not retry, cache or impose their own timeouts; the guard and
// cache layer own those concerns. Errors should wrap domain.ErrSourceAuth,
// domain.ErrMalformedResponse or be a *domain.RateLimitError where they
// apply. Transport errors are returned as-is.
type SourceAdapter interface {
	// Kind returns the adapter kind identifier.
	Kind() string

	// Fetch performs the API call for one query.
	Fetch(ctx context.Context, query domain.SourceQuery) (domain.RawPayload, error)
}

// AdapterBuilder creates a SourceAdapter from a descriptor.
// Credentials are resolved through the provider at build time.
type AdapterBuilder func(desc domain.SourceDescriptor, creds CredentialProvider) (SourceAdapter, error)

// AdapterFactory creates adapters from source descriptors.
// It maintains a registry of adapter kinds and their builders.
type AdapterFactory interface {
	// Create returns an adapter for the descriptor.
	// Returns ErrUnsupportedType if the kind is unknown.
	Create(desc domain.SourceDescriptor) (SourceAdapter, error)

	// Register adds a builder for the given kind.
	Register(kind string, builder AdapterBuilder)

	// SupportedKinds returns all registered kinds, sorted.
	SupportedKinds() []string
}
