package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
)

// FixedItemRegistry owns the recurring plan definitions. Income and expense
// items share the registry and are told apart by Direction. No period logic
// lives here; the registry only stores definitions.
type FixedItemRegistry struct {
	mu    sync.RWMutex
	items map[string]core.FixedItem
	now   func() time.Time
}

// FixedItemPatch is a partial update; nil fields are left untouched. The
// active flag is flipped through Toggle, not patched.
type FixedItemPatch struct {
	Title       *string
	Amount      *core.Money
	CategoryID  *string
	Description *string
	PeriodDay   *int
	StartDate   *time.Time
	EndDate     *time.Time // pointer to zero time clears the end date
}

func NewFixedItemRegistry() *FixedItemRegistry {
	return &FixedItemRegistry{
		items: make(map[string]core.FixedItem),
		now:   time.Now,
	}
}

// Add validates the definition, assigns id and timestamps, and stores it
// active by default.
func (r *FixedItemRegistry) Add(item core.FixedItem) (core.FixedItem, error) {
	item.Active = true
	if err := item.Validate(); err != nil {
		return core.FixedItem{}, err
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

// Update merges the patch into the stored item, revalidates, and refreshes
// UpdatedAt.
func (r *FixedItemRegistry) Update(id string, patch FixedItemPatch) (core.FixedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return core.FixedItem{}, core.ErrItemNotFound
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Amount != nil {
		item.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		item.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.PeriodDay != nil {
		item.PeriodDay = *patch.PeriodDay
	}
	if patch.StartDate != nil {
		item.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		item.EndDate = *patch.EndDate
	}
	if err := item.Validate(); err != nil {
		return core.FixedItem{}, err
	}
	item.UpdatedAt = r.now()
	r.items[id] = item
	return item, nil
}

// Remove deletes the definition only. Cascading the item's generated
// transactions is the reconciler's job and must happen before this call.
func (r *FixedItemRegistry) Remove(id string) (core.FixedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return core.FixedItem{}, core.ErrItemNotFound
	}
	delete(r.items, id)
	return item, nil
}

// Toggle flips the active flag.
func (r *FixedItemRegistry) Toggle(id string) (core.FixedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return core.FixedItem{}, core.ErrItemNotFound
	}
	item.Active = !item.Active
	item.UpdatedAt = r.now()
	r.items[id] = item
	return item, nil
}

func (r *FixedItemRegistry) ByID(id string) (core.FixedItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok
}

// List returns all items, optionally filtered by direction, ordered by
// period day ascending with title as tiebreaker.
func (r *FixedItemRegistry) List(d core.Direction) []core.FixedItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.FixedItem, 0, len(r.items))
	for _, item := range r.items {
		if d != "" && item.Direction != d {
			continue
		}
		out = append(out, item)
	}
	sortItems(out)
	return out
}

// Active returns only items whose active flag is set.
func (r *FixedItemRegistry) Active(d core.Direction) []core.FixedItem {
	all := r.List(d)
	out := all[:0:0]
	for _, item := range all {
		if item.Active {
			out = append(out, item)
		}
	}
	return out
}

// ByCategory returns items referencing the given category.
func (r *FixedItemRegistry) ByCategory(categoryID string) []core.FixedItem {
	all := r.List("")
	out := all[:0:0]
	for _, item := range all {
		if item.CategoryID == categoryID {
			out = append(out, item)
		}
	}
	return out
}

func (r *FixedItemRegistry) Snapshot() []core.FixedItem {
	return r.List("")
}

func (r *FixedItemRegistry) Restore(items []core.FixedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]core.FixedItem, len(items))
	for _, item := range items {
		r.items[item.ID] = item
	}
}

func sortItems(items []core.FixedItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].PeriodDay != items[j].PeriodDay {
			return items[i].PeriodDay < items[j].PeriodDay
		}
		return items[i].Title < items[j].Title
	})
}
