package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Ensure WarmStore implements the interface.
var _ driven.WarmStore = (*WarmStore)(nil)

// WarmStore is an in-memory implementation of driven.WarmStore.
type WarmStore struct {
	mu      sync.RWMutex
	targets map[string]domain.WarmTarget
	results map[string][]domain.WarmResult
}

// NewWarmStore creates a new in-memory warm store.
func NewWarmStore() *WarmStore {
	return &WarmStore{
		targets: make(map[string]domain.WarmTarget),
		results: make(map[string][]domain.WarmResult),
	}
}

// GetTarget retrieves a target by business, nil if untracked.
func (s *WarmStore) GetTarget(_ context.Context, business string) (*domain.WarmTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.targets[business]
	if !ok {
		return nil, nil
	}
	t.Params = copyParams(t.Params)
	return &t, nil
}

// ListTargets returns all targets ordered by business.
func (s *WarmStore) ListTargets(_ context.Context) ([]domain.WarmTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WarmTarget, 0, len(s.targets))
	for _, t := range s.targets {
		t.Params = copyParams(t.Params)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Business < out[j].Business })
	return out, nil
}

// SaveTarget creates or updates a target.
func (s *WarmStore) SaveTarget(_ context.Context, target *domain.WarmTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *target
	t.Params = copyParams(t.Params)
	s.targets[t.Business] = t
	return nil
}

// DeleteTarget removes a target and its history.
func (s *WarmStore) DeleteTarget(_ context.Context, business string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.targets, business)
	delete(s.results, business)
	return nil
}

// RecordResult appends a warm result.
func (s *WarmStore) RecordResult(_ context.Context, result *domain.WarmResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Business] = append(s.results[result.Business], *result)
	return nil
}

// History returns recent results, most recent first. A limit <= 0 returns all.
func (s *WarmStore) History(_ context.Context, business string, limit int) ([]domain.WarmResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.results[business]
	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.WarmResult, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// PruneHistory keeps the most recent keep results per business.
func (s *WarmStore) PruneHistory(_ context.Context, keep int) error {
	if keep < 0 {
		keep = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for business, results := range s.results {
		if len(results) > keep {
			s.results[business] = append([]domain.WarmResult(nil), results[len(results)-keep:]...)
		}
	}
	return nil
}

func copyParams(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
