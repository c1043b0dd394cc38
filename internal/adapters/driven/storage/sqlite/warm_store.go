package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// timeLayout is fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// warmStore implements driven.WarmStore.
type warmStore struct {
	store *Store
}

var _ driven.WarmStore = (*warmStore)(nil)

// GetTarget retrieves a warm target by business.
// Returns nil and no error if the target does not exist.
func (s *warmStore) GetTarget(ctx context.Context, business string) (*domain.WarmTarget, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT business, params, interval_ns, last_run, next_run, last_error, last_confidence
		FROM warm_targets WHERE business = ?
	`, business)

	target, err := scanWarmTarget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

// ListTargets returns all warm targets ordered by business.
func (s *warmStore) ListTargets(ctx context.Context) ([]domain.WarmTarget, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT business, params, interval_ns, last_run, next_run, last_error, last_confidence
		FROM warm_targets ORDER BY business
	`)
	if err != nil {
		return nil, fmt.Errorf("querying warm targets: %w", err)
	}
	defer rows.Close()

	var targets []domain.WarmTarget //nolint:prealloc // size unknown from query
	for rows.Next() {
		target, err := scanWarmTarget(rows.Scan)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *target)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating warm targets: %w", err)
	}

	return targets, nil
}

// SaveTarget creates or updates a target.
func (s *warmStore) SaveTarget(ctx context.Context, target *domain.WarmTarget) error {
	if target == nil {
		return domain.ErrInvalidInput
	}

	var params any
	if len(target.Params) > 0 {
		data, err := json.Marshal(target.Params)
		if err != nil {
			return fmt.Errorf("marshalling params: %w", err)
		}
		params = string(data)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO warm_targets (business, params, interval_ns, last_run, next_run, last_error, last_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(business) DO UPDATE SET
			params = excluded.params,
			interval_ns = excluded.interval_ns,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_confidence = excluded.last_confidence
	`, target.Business, params, int64(target.Interval),
		formatNullableTime(target.LastRun), formatNullableTime(target.NextRun),
		nullString(target.LastError), target.LastConfidence)
	if err != nil {
		return fmt.Errorf("saving warm target: %w", err)
	}
	return nil
}

// DeleteTarget removes a target and its history.
func (s *warmStore) DeleteTarget(ctx context.Context, business string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM warm_results WHERE business = ?", business); err != nil {
		return fmt.Errorf("deleting warm history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM warm_targets WHERE business = ?", business); err != nil {
		return fmt.Errorf("deleting warm target: %w", err)
	}
	return tx.Commit()
}

// RecordResult logs a warm run result.
func (s *warmStore) RecordResult(ctx context.Context, result *domain.WarmResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO warm_results (business, started_at, ended_at, success, error, usable)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.Business,
		formatTime(result.StartedAt),
		formatTime(result.EndedAt),
		boolToInt(result.Success),
		nullString(result.Error),
		result.Usable)
	if err != nil {
		return fmt.Errorf("recording warm result: %w", err)
	}
	return nil
}

// History returns recent results for a business, most recent first.
// A limit <= 0 returns every result.
func (s *warmStore) History(ctx context.Context, business string, limit int) ([]domain.WarmResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT business, started_at, ended_at, success, error, usable
		FROM warm_results
		WHERE business = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, business, limit)
	if err != nil {
		return nil, fmt.Errorf("querying warm history: %w", err)
	}
	defer rows.Close()

	var results []domain.WarmResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanWarmResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating warm history: %w", err)
	}

	return results, nil
}

// PruneHistory keeps the most recent 'keep' results per business.
func (s *warmStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM warm_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY business ORDER BY started_at DESC, id DESC) as rn
				FROM warm_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning warm history: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanWarmTarget scans a warm target from a row or rows.
func scanWarmTarget(scan func(dest ...any) error) (*domain.WarmTarget, error) {
	var t domain.WarmTarget
	var params, lastRun, nextRun, lastError sql.NullString
	var intervalNS int64

	if err := scan(&t.Business, &params, &intervalNS, &lastRun, &nextRun, &lastError, &t.LastConfidence); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning warm target: %w", err)
	}

	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &t.Params); err != nil {
			return nil, fmt.Errorf("unmarshalling params for %s: %w", t.Business, err)
		}
	}
	t.Interval = time.Duration(intervalNS)
	t.LastRun = parseNullableTime(lastRun)
	t.NextRun = parseNullableTime(nextRun)
	if lastError.Valid {
		t.LastError = lastError.String
	}
	return &t, nil
}

// scanWarmResult scans a warm result from *sql.Rows.
func scanWarmResult(rows *sql.Rows) (*domain.WarmResult, error) {
	var r domain.WarmResult
	var startedAt, endedAt string
	var success int
	var errMsg sql.NullString

	if err := rows.Scan(&r.Business, &startedAt, &endedAt, &success, &errMsg, &r.Usable); err != nil {
		return nil, fmt.Errorf("scanning warm result: %w", err)
	}

	r.StartedAt = parseNullableTime(sql.NullString{String: startedAt, Valid: true})
	r.EndedAt = parseNullableTime(sql.NullString{String: endedAt, Valid: true})
	r.Success = success == 1
	if errMsg.Valid {
		r.Error = errMsg.String
	}
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// formatNullableTime formats a time, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime returns zero time for null or unparseable values.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
