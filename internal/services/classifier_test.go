package services

import (
	"context"
	"testing"
	"time"

	"carteira/internal/core"
	"carteira/internal/store"
)

func TestClassify_Precedence(t *testing.T) {
	today := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	base := testItem("Rent", 10)
	base.ID = "item-1"
	base.Active = true

	paid := store.NewGenerationLedger()
	paid.Append(core.GenerationRecord{ItemID: "item-1", Month: "2024-03", TransactionID: "tx-1"})
	empty := store.NewGenerationLedger()

	inactive := base
	inactive.Active = false

	ended := base
	ended.EndDate = time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	dueLater := base
	dueLater.PeriodDay = 20

	tests := []struct {
		name      string
		item      core.FixedItem
		month     core.MonthKey
		generated GenerationReader
		want      core.Status
	}{
		{"inactive wins over paid", inactive, "2024-03", paid, core.StatusInactive},
		{"outside window wins over paid", ended, "2024-03", paid, core.StatusInactive},
		{"before start month", base, "2023-12", empty, core.StatusInactive},
		{"generated means paid", base, "2024-03", paid, core.StatusPaid},
		{"current month past due", base, "2024-03", empty, core.StatusOverdue},
		{"current month due later", dueLater, "2024-03", empty, core.StatusUpcoming},
		{"future month", base, "2024-05", empty, core.StatusUpcoming},
		{"past month never generated", base, "2024-02", empty, core.StatusUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.item, tt.month, tt.generated, today); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_DueTodayIsUpcoming(t *testing.T) {
	today := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	item := testItem("Rent", 10)
	item.ID = "item-1"
	item.Active = true

	got := Classify(item, "2024-03", store.NewGenerationLedger(), today)
	if got != core.StatusUpcoming {
		t.Errorf("Classify() on the due day = %v, want upcoming", got)
	}
}

func TestSummarize_BucketsAndTotals(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s := store.NewStores()
	r := NewReconciler(s.Fixed, s.Ledger, s.Generated)

	rent := testItem("Rent", 5)
	rent.Amount = core.Money{Cents: 10000}
	rentItem, _ := s.Fixed.Add(rent)

	internet := testItem("Internet", 10)
	internet.Amount = core.Money{Cents: 5000}
	s.Fixed.Add(internet)

	gym := testItem("Gym", 25)
	gym.Amount = core.Money{Cents: 7500}
	s.Fixed.Add(gym)

	paused := testItem("Paused", 1)
	paused.Amount = core.Money{Cents: 99900}
	pausedItem, _ := s.Fixed.Add(paused)
	s.Fixed.Toggle(pausedItem.ID)

	r.Generate(context.Background(), rentItem.ID, "2024-03")

	rollup := Summarize(s.Fixed.List(core.Expense), "2024-03", s.Generated, today)

	if rollup.Total.Count != 3 || rollup.Total.Amount.Cents != 22500 {
		t.Errorf("total = %d items / %d cents, want 3 / 22500", rollup.Total.Count, rollup.Total.Amount.Cents)
	}
	if rollup.Paid.Count != 1 || rollup.Paid.Amount.Cents != 10000 {
		t.Errorf("paid = %d items / %d cents, want 1 / 10000", rollup.Paid.Count, rollup.Paid.Amount.Cents)
	}
	if rollup.Overdue.Count != 1 || rollup.Overdue.Amount.Cents != 5000 {
		t.Errorf("overdue = %d items / %d cents, want 1 / 5000", rollup.Overdue.Count, rollup.Overdue.Amount.Cents)
	}
	if rollup.Upcoming.Count != 1 || rollup.Upcoming.Amount.Cents != 7500 {
		t.Errorf("upcoming = %d items / %d cents, want 1 / 7500", rollup.Upcoming.Count, rollup.Upcoming.Amount.Cents)
	}

	sum := rollup.Paid.Amount.Add(rollup.Overdue.Amount).Add(rollup.Upcoming.Amount)
	if sum.Cents != rollup.Total.Amount.Cents {
		t.Errorf("bucket sum %d != total %d", sum.Cents, rollup.Total.Amount.Cents)
	}
}

func TestRemainingCount(t *testing.T) {
	open := testItem("Rent", 5)

	ending := open
	ending.EndDate = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	if got := RemainingCount(open, "2024-03"); got != nil {
		t.Errorf("RemainingCount(open-ended) = %v, want nil", *got)
	}

	tests := []struct {
		from core.MonthKey
		want int
	}{
		{"2024-03", 4},
		{"2024-06", 1},
		{"2024-07", 0},
	}
	for _, tt := range tests {
		got := RemainingCount(ending, tt.from)
		if got == nil || *got != tt.want {
			t.Errorf("RemainingCount(from %s) = %v, want %d", tt.from, got, tt.want)
		}
	}
}
