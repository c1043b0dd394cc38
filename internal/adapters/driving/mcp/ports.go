package mcp

import (
	"github.com/synapse-labs/synapse/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Gatherer runs the fan-out.
	Gatherer driving.IntelligenceGatherer

	// Catalogue lists the configured sources. Optional.
	Catalogue driving.SourceCatalogue

	// Cache manages cached payloads. Optional; without it the
	// invalidate_cache tool is not registered.
	Cache driving.CacheAdmin
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Gatherer == nil {
		return ErrMissingGatherer
	}
	return nil
}
