package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
)

var (
	ErrVariableNotFound = errors.New("variable item not found")
	ErrAlreadyCompleted = errors.New("variable item already completed")
)

// VariableRegistry owns the one-off, month-scoped plans. Unlike fixed
// items there is no period matching: a variable item belongs to exactly one
// month and is either completed or not.
type VariableRegistry struct {
	mu    sync.RWMutex
	items map[string]core.VariableItem
	now   func() time.Time
}

// VariablePatch is a partial update; nil fields are left untouched.
type VariablePatch struct {
	Title       *string
	Estimated   *core.Money
	CategoryID  *string
	Description *string
}

func NewVariableRegistry() *VariableRegistry {
	return &VariableRegistry{
		items: make(map[string]core.VariableItem),
		now:   time.Now,
	}
}

func (r *VariableRegistry) Add(item core.VariableItem) (core.VariableItem, error) {
	item.Completed = false
	item.Actual = core.Money{}
	if err := item.Validate(); err != nil {
		return core.VariableItem{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = item
	return item, nil
}

func (r *VariableRegistry) Update(id string, patch VariablePatch) (core.VariableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return core.VariableItem{}, ErrVariableNotFound
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Estimated != nil {
		item.Estimated = *patch.Estimated
	}
	if patch.CategoryID != nil {
		item.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if err := item.Validate(); err != nil {
		return core.VariableItem{}, err
	}
	item.UpdatedAt = r.now()
	r.items[id] = item
	return item, nil
}

func (r *VariableRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrVariableNotFound
	}
	delete(r.items, id)
	return nil
}

// Complete marks the item done with its realized amount. Completing twice
// is refused so the caller does not double-book the ledger.
func (r *VariableRegistry) Complete(id string, actual core.Money) (core.VariableItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return core.VariableItem{}, ErrVariableNotFound
	}
	if item.Completed {
		return core.VariableItem{}, ErrAlreadyCompleted
	}
	if err := actual.Validate(); err != nil {
		return core.VariableItem{}, err
	}
	item.Completed = true
	item.Actual = actual
	item.UpdatedAt = r.now()
	r.items[id] = item
	return item, nil
}

func (r *VariableRegistry) ByID(id string) (core.VariableItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok
}

// ByMonth returns the items scoped to one month, optionally filtered by
// direction, newest first.
func (r *VariableRegistry) ByMonth(month core.MonthKey, d core.Direction) []core.VariableItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []core.VariableItem
	for _, item := range r.items {
		if item.Month != month {
			continue
		}
		if d != "" && item.Direction != d {
			continue
		}
		out = append(out, item)
	}
	sortVariables(out)
	return out
}

func (r *VariableRegistry) Snapshot() []core.VariableItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.VariableItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sortVariables(out)
	return out
}

func (r *VariableRegistry) Restore(items []core.VariableItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]core.VariableItem, len(items))
	for _, item := range items {
		r.items[item.ID] = item
	}
}

func sortVariables(items []core.VariableItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
