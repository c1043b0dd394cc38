// Package domain defines the core business entities for Synapse intelligence
// gathering.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDescriptor: Static configuration of one third-party source
//   - SourceQuery: A normalised request for one source
//   - RawPayload: Opaque data returned by a source adapter
//   - SourceOutcome: The settled result of one source attempt
//   - CacheEntry: A cached source payload with its expiry
//   - IntelligenceBundle: The merged, scored result of one fan-out
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
