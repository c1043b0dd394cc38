// Package mcp provides an MCP (Model Context Protocol) server adapter for Synapse.
// It lets AI assistants gather business intelligence and inspect the
// configured sources.
package mcp

import "errors"

// ErrMissingGatherer is returned when the intelligence gatherer is not provided.
var ErrMissingGatherer = errors.New("mcp: intelligence gatherer is required")
