package driven

import (
	"context"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// WarmStore persists cache warmer state so warm schedules survive restarts.
type WarmStore interface {
	// GetTarget retrieves a target by business.
	// Returns nil and no error if the target does not exist.
	GetTarget(ctx context.Context, business string) (*domain.WarmTarget, error)

	// ListTargets returns all tracked targets.
	ListTargets(ctx context.Context) ([]domain.WarmTarget, error)

	// SaveTarget creates or updates a target.
	SaveTarget(ctx context.Context, target *domain.WarmTarget) error

	// DeleteTarget stops tracking a business.
	DeleteTarget(ctx context.Context, business string) error

	// RecordResult logs a warm run result.
	RecordResult(ctx context.Context, result *domain.WarmResult) error

	// History returns recent results for a business, most recent first.
	History(ctx context.Context, business string, limit int) ([]domain.WarmResult, error)

	// PruneHistory keeps the most recent 'keep' results per business.
	PruneHistory(ctx context.Context, keep int) error
}
