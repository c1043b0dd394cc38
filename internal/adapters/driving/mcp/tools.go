package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// maxDeadlineSeconds caps the per-call deadline an assistant may request.
const maxDeadlineSeconds = 120

// GatherInput is the input schema for the gather_intelligence tool.
type GatherInput struct {
	Business        string            `json:"business" jsonschema:"the business website URL or host, e.g. acme.com"`
	ForceRefresh    bool              `json:"force_refresh,omitempty" jsonschema:"skip cached payloads and query every source live"`
	DeadlineSeconds int               `json:"deadline_seconds,omitempty" jsonschema:"overall deadline in seconds (default from settings, max 120)"`
	Params          map[string]string `json:"params,omitempty" jsonschema:"extra query params passed to every source, e.g. location or industry"`
	IncludePayloads bool              `json:"include_payloads,omitempty" jsonschema:"include raw source payloads in the result"`
}

// GatherOutput is the output schema for the gather_intelligence tool.
type GatherOutput struct {
	BundleID          string          `json:"bundle_id,omitempty"`
	Business          string          `json:"business"`
	Viable            bool            `json:"viable"`
	Reason            string          `json:"reason,omitempty"`
	OverallConfidence float64         `json:"overall_confidence"`
	Usable            int             `json:"usable"`
	Required          int             `json:"required,omitempty"`
	MissingCritical   []string        `json:"missing_critical,omitempty"`
	ElapsedMillis     int64           `json:"elapsed_ms"`
	Sources           []SourceSummary `json:"sources,omitempty"`
	Payloads          map[string]any  `json:"payloads,omitempty"`
}

// SourceSummary is the per-source part of a gather result.
type SourceSummary struct {
	SourceID        string  `json:"source_id"`
	Status          string  `json:"status"`
	Score           float64 `json:"score"`
	Completeness    float64 `json:"completeness"`
	ErrorKind       string  `json:"error_kind,omitempty"`
	Error           string  `json:"error,omitempty"`
	CacheAgeSeconds float64 `json:"cache_age_seconds,omitempty"`
	DurationMillis  int64   `json:"duration_ms,omitempty"`
}

// InvalidateInput is the input schema for the invalidate_cache tool.
type InvalidateInput struct {
	Business string `json:"business" jsonschema:"the business website URL or host"`
	SourceID string `json:"source_id,omitempty" jsonschema:"source to invalidate; empty invalidates every source"`
}

// InvalidateOutput is the output schema for the invalidate_cache tool.
type InvalidateOutput struct {
	Invalidated int `json:"invalidated"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "gather_intelligence",
		Description: "Query every configured intelligence source for a business in parallel " +
			"and return a scored bundle. A non-viable result explains which sources were missing.",
	}, s.handleGather)

	if s.ports.Cache != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "invalidate_cache",
			Description: "Drop cached source payloads for a business so the next gather queries live",
		}, s.handleInvalidate)
	}
}

// handleGather handles the gather_intelligence tool invocation. An
// insufficient result is returned as a non-viable output, not a tool error.
func (s *Server) handleGather(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GatherInput,
) (*mcp.CallToolResult, GatherOutput, error) {
	deadline := input.DeadlineSeconds
	if deadline > maxDeadlineSeconds {
		deadline = maxDeadlineSeconds
	}

	opts := domain.GatherOptions{
		ForceRefresh: input.ForceRefresh,
		Params:       input.Params,
	}
	if deadline > 0 {
		opts.Deadline = time.Duration(deadline) * time.Second
	}

	bundle, err := s.ports.Gatherer.Gather(ctx, input.Business, opts)
	if err != nil {
		insufficient, ok := domain.IsInsufficientIntelligence(err)
		if !ok {
			return nil, GatherOutput{}, err
		}
		output := summarise(insufficient.Bundle, input.IncludePayloads)
		output.Viable = false
		output.Reason = insufficient.Error()
		output.Usable = insufficient.Usable
		output.Required = insufficient.Required
		output.MissingCritical = insufficient.MissingCritical
		if output.Business == "" {
			output.Business = input.Business
		}
		return nil, output, nil
	}

	return nil, summarise(bundle, input.IncludePayloads), nil
}

// handleInvalidate handles the invalidate_cache tool invocation.
func (s *Server) handleInvalidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InvalidateInput,
) (*mcp.CallToolResult, InvalidateOutput, error) {
	n, err := s.ports.Cache.Invalidate(ctx, input.SourceID, input.Business, nil)
	if err != nil {
		return nil, InvalidateOutput{}, err
	}
	return nil, InvalidateOutput{Invalidated: n}, nil
}

func summarise(bundle *domain.IntelligenceBundle, withPayloads bool) GatherOutput {
	if bundle == nil {
		return GatherOutput{}
	}

	output := GatherOutput{
		BundleID:          bundle.ID,
		Business:          bundle.BusinessID,
		Viable:            bundle.Viable,
		OverallConfidence: bundle.OverallConfidence,
		Usable:            bundle.UsableCount(),
		ElapsedMillis:     bundle.Elapsed.Milliseconds(),
		Sources:           make([]SourceSummary, len(bundle.Outcomes)),
	}

	for i, o := range bundle.Outcomes {
		summary := SourceSummary{
			SourceID:       o.SourceID,
			Status:         o.Status.String(),
			Score:          bundle.SourceScores[o.SourceID],
			Completeness:   o.Completeness,
			ErrorKind:      o.ErrorKind.String(),
			Error:          o.Error,
			DurationMillis: o.Duration.Milliseconds(),
		}
		if o.CacheAge != nil {
			summary.CacheAgeSeconds = o.CacheAge.Seconds()
		}
		output.Sources[i] = summary

		if withPayloads && len(o.Payload) > 0 {
			var v any
			if err := json.Unmarshal(o.Payload, &v); err == nil {
				if output.Payloads == nil {
					output.Payloads = make(map[string]any)
				}
				output.Payloads[o.SourceID] = v
			}
		}
	}

	return output
}
