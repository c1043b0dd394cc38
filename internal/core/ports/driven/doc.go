// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SourceAdapter: Calls one third-party API
//   - AdapterFactory: Creates source adapters from descriptors
//   - IntelligenceCache: Per-source payload cache (memory, SQLite, Redis)
//   - SourceStore: Source descriptor configuration
//   - CredentialProvider: Per-source API credentials
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Telemetry: Outcome and bundle observers (logging, Prometheus)
//   - WarmStore: Cache warmer state. Without it the warmer keeps state in memory.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or source package
package driven
