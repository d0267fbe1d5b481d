package store

import (
	"errors"
	"testing"
	"time"

	"carteira/internal/core"
)

func sampleItem(title string, day int) core.FixedItem {
	return core.FixedItem{
		Title:     title,
		Amount:    core.Money{Cents: 10000},
		Direction: core.Expense,
		PeriodDay: day,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFixedItemRegistry_AddDefaultsActive(t *testing.T) {
	r := NewFixedItemRegistry()

	item, err := r.Add(sampleItem("Rent", 5))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !item.Active {
		t.Error("Add() did not default the item to active")
	}
	if item.ID == "" {
		t.Error("Add() did not assign an id")
	}

	if _, err := r.Add(sampleItem("", 5)); err == nil {
		t.Error("Add() with empty title succeeded")
	}
}

func TestFixedItemRegistry_UpdateMergesPartially(t *testing.T) {
	r := NewFixedItemRegistry()
	item, _ := r.Add(sampleItem("Rent", 5))

	amount := core.Money{Cents: 125000}
	updated, err := r.Update(item.ID, FixedItemPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Amount.Cents != 125000 {
		t.Errorf("amount = %d, want 125000", updated.Amount.Cents)
	}
	if updated.Title != "Rent" {
		t.Errorf("title changed to %q", updated.Title)
	}
	if !updated.UpdatedAt.After(item.UpdatedAt) && !updated.UpdatedAt.Equal(item.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}

	if _, err := r.Update("no-such-id", FixedItemPatch{}); !errors.Is(err, core.ErrItemNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrItemNotFound", err)
	}

	bad := 0
	if _, err := r.Update(item.ID, FixedItemPatch{PeriodDay: &bad}); !errors.Is(err, core.ErrInvalidPeriodDay) {
		t.Errorf("Update(day=0) error = %v, want ErrInvalidPeriodDay", err)
	}
}

func TestFixedItemRegistry_Toggle(t *testing.T) {
	r := NewFixedItemRegistry()
	item, _ := r.Add(sampleItem("Rent", 5))

	toggled, err := r.Toggle(item.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if toggled.Active {
		t.Error("Toggle() left the item active")
	}

	toggled, _ = r.Toggle(item.ID)
	if !toggled.Active {
		t.Error("second Toggle() left the item inactive")
	}

	if _, err := r.Toggle("no-such-id"); !errors.Is(err, core.ErrItemNotFound) {
		t.Errorf("Toggle(unknown) error = %v, want ErrItemNotFound", err)
	}
}

func TestFixedItemRegistry_Queries(t *testing.T) {
	r := NewFixedItemRegistry()
	a, _ := r.Add(sampleItem("Internet", 20))
	b, _ := r.Add(sampleItem("Rent", 5))
	salary := sampleItem("Salary", 1)
	salary.Direction = core.Income
	r.Add(salary)
	r.Toggle(a.ID)

	if got := len(r.List("")); got != 3 {
		t.Errorf("List(all) = %d items, want 3", got)
	}
	if got := len(r.List(core.Expense)); got != 2 {
		t.Errorf("List(expense) = %d items, want 2", got)
	}

	active := r.Active(core.Expense)
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("Active(expense) = %v, want only %q", active, b.Title)
	}

	// List orders by period day ascending.
	all := r.List("")
	for i := 1; i < len(all); i++ {
		if all[i-1].PeriodDay > all[i].PeriodDay {
			t.Errorf("List() out of order: day %d before day %d", all[i-1].PeriodDay, all[i].PeriodDay)
		}
	}
}

func TestGenerationLedger_AppendEnforcesUniqueness(t *testing.T) {
	g := NewGenerationLedger()
	rec := core.GenerationRecord{ItemID: "item-1", Month: "2024-03", TransactionID: "tx-1"}

	if err := g.Append(rec); err != nil {
		t.Fatalf("first Append() error = %v", err)
	}
	if err := g.Append(rec); !errors.Is(err, core.ErrAlreadyGenerated) {
		t.Errorf("duplicate Append() error = %v, want ErrAlreadyGenerated", err)
	}

	// Same item, different month is fine.
	rec.Month = "2024-04"
	rec.TransactionID = "tx-2"
	if err := g.Append(rec); err != nil {
		t.Errorf("Append() for another month error = %v", err)
	}
}

func TestGenerationLedger_FindRemoveMonths(t *testing.T) {
	g := NewGenerationLedger()
	g.Append(core.GenerationRecord{ItemID: "a", Month: "2024-03", TransactionID: "t1"})
	g.Append(core.GenerationRecord{ItemID: "b", Month: "2024-03", TransactionID: "t2"})
	g.Append(core.GenerationRecord{ItemID: "a", Month: "2024-01", TransactionID: "t3"})

	if _, ok := g.Find("a", "2024-03"); !ok {
		t.Error("Find(a, 2024-03) = not found")
	}
	if _, ok := g.Find("a", "2024-02"); ok {
		t.Error("Find(a, 2024-02) = found")
	}

	if got := len(g.ByMonth("2024-03")); got != 2 {
		t.Errorf("ByMonth(2024-03) = %d records, want 2", got)
	}
	if got := len(g.ByItem("a")); got != 2 {
		t.Errorf("ByItem(a) = %d records, want 2", got)
	}

	months := g.Months()
	if len(months) != 2 || months[0] != "2024-01" || months[1] != "2024-03" {
		t.Errorf("Months() = %v, want [2024-01 2024-03]", months)
	}

	if !g.Remove("a", "2024-03") {
		t.Error("Remove(a, 2024-03) = false")
	}
	if g.Remove("a", "2024-03") {
		t.Error("second Remove(a, 2024-03) = true")
	}
	if g.Len() != 2 {
		t.Errorf("Len() after remove = %d, want 2", g.Len())
	}
}
