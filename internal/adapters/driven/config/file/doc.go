// Package file provides file-based implementations of driven port interfaces.
// These adapters read and persist data on the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with SYNAPSE_* overrides
//   - SourceStore: TOML source descriptor files, with a built-in default set
package file
