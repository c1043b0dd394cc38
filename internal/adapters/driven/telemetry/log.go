package telemetry

import (
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/logger"
)

// Ensure Log implements the interface.
var _ driven.Telemetry = (*Log)(nil)

// Log reports gathering through the component logger. Outcomes are logged
// at debug level so they only show with --verbose.
type Log struct {
	log logger.Component
}

// NewLog creates a logging observer.
func NewLog() *Log {
	return &Log{log: logger.For("telemetry")}
}

// OutcomeRecorded logs one settled outcome.
func (l *Log) OutcomeRecorded(o domain.SourceOutcome) {
	switch o.Status {
	case domain.StatusSuccess:
		l.log.Debug("%s: success in %s (completeness %.2f, %d attempt(s))",
			o.SourceID, o.Duration.Round(time.Millisecond), o.Completeness, o.Attempts)
	case domain.StatusCached:
		age := time.Duration(0)
		if o.CacheAge != nil {
			age = *o.CacheAge
		}
		l.log.Debug("%s: cached, age %s", o.SourceID, age.Round(time.Second))
	case domain.StatusTimedOut:
		l.log.Debug("%s: timed out after %s: %s", o.SourceID, o.Duration.Round(time.Millisecond), o.Error)
	default:
		l.log.Debug("%s: %s (%s): %s", o.SourceID, o.Status, o.ErrorKind, o.Error)
	}
}

// BundleAssembled logs a one line summary of the bundle.
func (l *Log) BundleAssembled(b *domain.IntelligenceBundle) {
	counts := b.StatusCounts()
	l.log.Info("%s: bundle %s confidence=%.2f viable=%t success=%d cached=%d failed=%d timed-out=%d in %s",
		b.BusinessID, b.ID, b.OverallConfidence, b.Viable,
		counts[domain.StatusSuccess], counts[domain.StatusCached],
		counts[domain.StatusFailure], counts[domain.StatusTimedOut],
		b.Elapsed.Round(time.Millisecond))
}

// GatherFailed logs a failed gather.
func (l *Log) GatherFailed(business string, err error, elapsed time.Duration) {
	l.log.Warn("%s: gather failed after %s: %v", business, elapsed.Round(time.Millisecond), err)
}
