package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
)

var ErrCategoryNotFound = errors.New("category not found")

// CategoryRegistry maps category ids to display metadata. Consumers must
// tolerate a failed Resolve and render a fallback; nothing in the tracker
// treats a dangling category reference as a data error.
type CategoryRegistry struct {
	mu         sync.RWMutex
	categories map[string]core.Category
	now        func() time.Time
}

func NewCategoryRegistry() *CategoryRegistry {
	return &CategoryRegistry{
		categories: make(map[string]core.Category),
		now:        time.Now,
	}
}

func (r *CategoryRegistry) Add(c core.Category) (core.Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return core.Category{}, errors.New("empty category name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = r.now()
	r.categories[c.ID] = c
	return c, nil
}

func (r *CategoryRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}

// Resolve returns the category's display metadata; ok is false when the id
// is unknown.
func (r *CategoryRegistry) Resolve(id string) (core.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	return c, ok
}

func (r *CategoryRegistry) List() []core.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *CategoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.categories)
}

// SeedDefaults installs a starter set of categories on first run. A
// registry that already has entries is left alone.
func (r *CategoryRegistry) SeedDefaults() {
	if r.Len() > 0 {
		return
	}
	defaults := []core.Category{
		{Name: "Housing", Color: "#e07a5f", Icon: "home"},
		{Name: "Groceries", Color: "#81b29a", Icon: "cart"},
		{Name: "Transport", Color: "#f2cc8f", Icon: "bus"},
		{Name: "Health", Color: "#3d405b", Icon: "heart"},
		{Name: "Leisure", Color: "#6d597a", Icon: "ticket"},
		{Name: "Salary", Color: "#2a9d8f", Icon: "wallet"},
		{Name: "Other", Color: "#8d99ae", Icon: "dots"},
	}
	for _, c := range defaults {
		_, _ = r.Add(c)
	}
}

func (r *CategoryRegistry) Snapshot() []core.Category {
	return r.List()
}

func (r *CategoryRegistry) Restore(categories []core.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.categories = make(map[string]core.Category, len(categories))
	for _, c := range categories {
		r.categories[c.ID] = c
	}
}
