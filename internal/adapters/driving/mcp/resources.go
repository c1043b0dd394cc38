package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Synapse resources.
	uriScheme = "synapse://"
)

// sourceInfo is the resource view of a source descriptor.
type sourceInfo struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Tier       string            `json:"tier"`
	Critical   bool              `json:"critical"`
	Timeout    string            `json:"timeout"`
	CacheTTL   string            `json:"cache_ttl"`
	RateLimit  string            `json:"rate_limit,omitempty"`
	Backoff    *time.Time        `json:"backoff_until,omitempty"`
	Credential string            `json:"credential,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "List of all configured intelligence sources",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sources/{sourceId}",
		Name:        "source",
		Description: "Configuration of a specific intelligence source",
		MIMEType:    "application/json",
	}, s.handleSourceResource)
}

// handleSourcesResource returns a list of all configured sources.
func (s *Server) handleSourcesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalogue == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	descs := s.ports.Catalogue.List()
	infos := make([]sourceInfo, len(descs))
	for i := range descs {
		infos[i] = s.describe(&descs[i])
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sources: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// handleSourceResource returns the configuration of one source.
func (s *Server) handleSourceResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalogue == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	sourceID := extractSourceID(req.Params.URI)
	if sourceID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	desc, err := s.ports.Catalogue.Get(sourceID)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(s.describe(desc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling source: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

// describe adds the live rate limit backoff to a source's configuration.
func (s *Server) describe(d *domain.SourceDescriptor) sourceInfo {
	info := describeSource(d)
	if until := s.ports.Catalogue.BackoffUntil(d.ID); !until.IsZero() {
		info.Backoff = &until
	}
	return info
}

func describeSource(d *domain.SourceDescriptor) sourceInfo {
	info := sourceInfo{
		ID:         d.ID,
		Name:       d.Name(),
		Kind:       d.Kind,
		Tier:       d.Tier.String(),
		Critical:   d.IsCritical,
		Timeout:    d.Timeout.String(),
		CacheTTL:   d.CacheTTL.String(),
		Credential: d.CredentialEnv,
		Params:     d.Params,
	}
	if !d.RateLimit.IsUnlimited() {
		info.RateLimit = fmt.Sprintf("%d/%s", d.RateLimit.Calls, d.RateLimit.Window)
	}
	return info
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractSourceID extracts the source ID from a URI like synapse://sources/{sourceId}.
func extractSourceID(uri string) string {
	const prefix = uriScheme + "sources/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
