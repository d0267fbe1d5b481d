package store

import (
	"sort"
	"sync"

	"carteira/internal/core"
)

// GenerationLedger is the bookkeeping collection recording which
// (item, month) pairs have already been materialized into a ledger
// transaction. It is the single source of truth for "generated this month";
// Append enforces the at-most-one-record-per-pair invariant.
type GenerationLedger struct {
	mu      sync.RWMutex
	records []core.GenerationRecord
}

func NewGenerationLedger() *GenerationLedger {
	return &GenerationLedger{}
}

// Find returns the record for (itemID, month) if one exists.
func (g *GenerationLedger) Find(itemID string, month core.MonthKey) (core.GenerationRecord, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, rec := range g.records {
		if rec.ItemID == itemID && rec.Month == month {
			return rec, true
		}
	}
	return core.GenerationRecord{}, false
}

// Append adds a record, refusing a duplicate (itemID, month) pair.
func (g *GenerationLedger) Append(rec core.GenerationRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, existing := range g.records {
		if existing.ItemID == rec.ItemID && existing.Month == rec.Month {
			return core.ErrAlreadyGenerated
		}
	}
	g.records = append(g.records, rec)
	return nil
}

// Remove deletes the record for (itemID, month); false when absent.
func (g *GenerationLedger) Remove(itemID string, month core.MonthKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, rec := range g.records {
		if rec.ItemID == itemID && rec.Month == month {
			g.records = append(g.records[:i], g.records[i+1:]...)
			return true
		}
	}
	return false
}

// ByMonth returns all records for one month.
func (g *GenerationLedger) ByMonth(month core.MonthKey) []core.GenerationRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []core.GenerationRecord
	for _, rec := range g.records {
		if rec.Month == month {
			out = append(out, rec)
		}
	}
	return out
}

// ByItem returns all records referencing one fixed item, across months.
func (g *GenerationLedger) ByItem(itemID string) []core.GenerationRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []core.GenerationRecord
	for _, rec := range g.records {
		if rec.ItemID == itemID {
			out = append(out, rec)
		}
	}
	return out
}

// Months returns the sorted distinct set of months with generated
// transactions.
func (g *GenerationLedger) Months() []core.MonthKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[core.MonthKey]struct{})
	var out []core.MonthKey
	for _, rec := range g.records {
		if _, ok := seen[rec.Month]; ok {
			continue
		}
		seen[rec.Month] = struct{}{}
		out = append(out, rec.Month)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (g *GenerationLedger) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

func (g *GenerationLedger) Snapshot() []core.GenerationRecord {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]core.GenerationRecord, len(g.records))
	copy(out, g.records)
	return out
}

func (g *GenerationLedger) Restore(records []core.GenerationRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.records = make([]core.GenerationRecord, len(records))
	copy(g.records, records)
}
