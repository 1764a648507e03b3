package alert

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL
// implementation.
type InMemoryRepository struct {
	mu     sync.RWMutex
	alerts map[string]*Alert
	order  []string // insertion order, oldest first
}

// NewInMemoryRepository creates a new in-memory alert repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		alerts: make(map[string]*Alert),
	}
}

// Insert appends a new alert row.
func (r *InMemoryRepository) Insert(_ context.Context, a *Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts[a.ID] = copyAlert(a)
	r.order = append(r.order, a.ID)
	return nil
}

// Get retrieves an alert by id.
func (r *InMemoryRepository) Get(_ context.Context, alertID string) (*Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.alerts[alertID]
	if !ok {
		return nil, ErrAlertNotFound
	}
	return copyAlert(a), nil
}

// List retrieves alerts, newest first, with optional filters.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Alert
	for _, id := range r.order {
		a := r.alerts[id]
		if opts.DeviceID != "" && a.DeviceID != opts.DeviceID {
			continue
		}
		if opts.Level != "" && a.ThreatLevel != opts.Level {
			continue
		}
		items = append(items, copyAlert(a))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return &ListResult{Items: items}, nil
}

// Review updates the reviewed/falsePositive flags.
func (r *InMemoryRepository) Review(_ context.Context, alertID string, update ReviewUpdate) (*Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[alertID]
	if !ok {
		return nil, ErrAlertNotFound
	}
	if update.Reviewed != nil {
		a.Reviewed = *update.Reviewed
	}
	if update.FalsePositive != nil {
		a.FalsePositive = *update.FalsePositive
	}
	return copyAlert(a), nil
}

// Delete removes an alert row.
func (r *InMemoryRepository) Delete(_ context.Context, alertID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[alertID]; !ok {
		return ErrAlertNotFound
	}
	delete(r.alerts, alertID)
	for i, id := range r.order {
		if id == alertID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func copyAlert(a *Alert) *Alert {
	c := *a
	if a.CellularPeak != nil {
		v := *a.CellularPeak
		c.CellularPeak = &v
	}
	if a.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(a.Metadata))
		for k, v := range a.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
