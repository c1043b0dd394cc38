// Package memory provides in-memory implementations of the driven ports.
//
// Adapters:
//   - Cache: process-local IntelligenceCache, the default backend
//   - WarmStore: cache warmer targets and history
//   - ConfigStore: configuration values, used in tests
package memory
