package services

import (
	"context"
	"errors"
	"testing"

	"carteira/internal/core"
	"carteira/internal/store"
)

type fakePersister struct {
	saves int
	last  store.State
	err   error
}

func (f *fakePersister) Save(_ context.Context, state store.State) error {
	f.saves++
	f.last = state
	return f.err
}

type fakePublisher struct {
	events []string
	ids    []string
	err    error
}

func (f *fakePublisher) PublishMutation(_ context.Context, entity, action, id string) error {
	f.events = append(f.events, entity+"/"+action)
	f.ids = append(f.ids, id)
	return f.err
}

func TestTracker_PersistsAfterEveryMutation(t *testing.T) {
	persister := &fakePersister{}
	publisher := &fakePublisher{}
	tr := NewTracker(store.NewStores(), persister, publisher)
	ctx := context.Background()

	item, err := tr.CreateFixedItem(ctx, testItem("Rent", 5))
	if err != nil {
		t.Fatalf("CreateFixedItem() error = %v", err)
	}
	if _, err := tr.Generate(ctx, item.ID, "2024-03"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := tr.Undo(ctx, item.ID, "2024-03"); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}

	if persister.saves != 3 {
		t.Errorf("persister saw %d saves, want 3", persister.saves)
	}
	if len(persister.last.FixedItems) != 1 {
		t.Errorf("last snapshot has %d fixed items, want 1", len(persister.last.FixedItems))
	}
	want := []string{"fixed_item/create", "generation/create", "generation/delete"}
	if len(publisher.events) != len(want) {
		t.Fatalf("publisher events = %v, want %v", publisher.events, want)
	}
	for i := range want {
		if publisher.events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, publisher.events[i], want[i])
		}
	}
}

func TestTracker_PublishFailureDoesNotFailMutation(t *testing.T) {
	tr := NewTracker(store.NewStores(), &fakePersister{}, &fakePublisher{err: errors.New("broker down")})

	if _, err := tr.CreateFixedItem(context.Background(), testItem("Rent", 5)); err != nil {
		t.Errorf("CreateFixedItem() with failing publisher error = %v", err)
	}
}

func TestTracker_PersistFailurePropagates(t *testing.T) {
	tr := NewTracker(store.NewStores(), &fakePersister{err: errors.New("disk full")}, nil)

	_, err := tr.CreateFixedItem(context.Background(), testItem("Rent", 5))
	if err == nil {
		t.Fatal("CreateFixedItem() with failing persister succeeded")
	}
	// The item is still in memory; only persistence is behind.
	if got := len(tr.FixedItems("")); got != 1 {
		t.Errorf("FixedItems() = %d, want 1", got)
	}
}

func TestTracker_CompleteVariableItemBooksTransaction(t *testing.T) {
	tr := NewTracker(store.NewStores(), nil, nil)
	ctx := context.Background()

	item, err := tr.CreateVariableItem(ctx, core.VariableItem{
		Title:     "Car service",
		Estimated: core.Money{Cents: 30000},
		Direction: core.Expense,
		Month:     "2024-03",
	})
	if err != nil {
		t.Fatalf("CreateVariableItem() error = %v", err)
	}

	done, err := tr.CompleteVariableItem(ctx, item.ID, core.Money{Cents: 34500})
	if err != nil {
		t.Fatalf("CompleteVariableItem() error = %v", err)
	}
	if !done.Completed || done.Actual.Cents != 34500 {
		t.Errorf("completed = %v / %d cents", done.Completed, done.Actual.Cents)
	}

	txs := tr.Transactions()
	if len(txs) != 1 {
		t.Fatalf("ledger has %d transactions, want 1", len(txs))
	}
	if txs[0].Amount.Cents != 34500 || txs[0].Title != "Car service" {
		t.Errorf("booked transaction = %q / %d cents", txs[0].Title, txs[0].Amount.Cents)
	}
}

func TestTracker_CompleteVariableItemAnnouncesTransaction(t *testing.T) {
	publisher := &fakePublisher{}
	tr := NewTracker(store.NewStores(), nil, publisher)
	ctx := context.Background()

	item, err := tr.CreateVariableItem(ctx, core.VariableItem{
		Title:     "Car service",
		Estimated: core.Money{Cents: 30000},
		Direction: core.Expense,
		Month:     "2024-03",
	})
	if err != nil {
		t.Fatalf("CreateVariableItem() error = %v", err)
	}
	if _, err := tr.CompleteVariableItem(ctx, item.ID, core.Money{Cents: 34500}); err != nil {
		t.Fatalf("CompleteVariableItem() error = %v", err)
	}

	want := []string{"variable_item/create", "variable_item/complete", "transaction/create"}
	if len(publisher.events) != len(want) {
		t.Fatalf("publisher events = %v, want %v", publisher.events, want)
	}
	for i := range want {
		if publisher.events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, publisher.events[i], want[i])
		}
	}

	// The transaction event must carry the booked transaction's id, not the
	// variable item's, so the export worker can resolve it.
	txs := tr.Transactions()
	if len(txs) != 1 {
		t.Fatalf("ledger has %d transactions, want 1", len(txs))
	}
	if got := publisher.ids[len(publisher.ids)-1]; got != txs[0].ID {
		t.Errorf("transaction event id = %q, want %q", got, txs[0].ID)
	}
}

func TestTracker_MonthDashboard(t *testing.T) {
	tr := NewTracker(store.NewStores(), nil, nil)
	ctx := context.Background()

	rent, _ := tr.CreateFixedItem(ctx, testItem("Rent", 5))
	salary := testItem("Salary", 27)
	salary.Direction = core.Income
	salary.Amount = core.Money{Cents: 300000}
	tr.CreateFixedItem(ctx, salary)
	tr.Generate(ctx, rent.ID, "2024-03")

	d := tr.MonthDashboard("2024-03")
	if d.Month != "2024-03" {
		t.Errorf("month = %s", d.Month)
	}
	if d.TotalExpense.Cents != 120000 {
		t.Errorf("total expense = %d, want 120000", d.TotalExpense.Cents)
	}
	if d.Balance.Cents != -120000 {
		t.Errorf("balance = %d, want -120000", d.Balance.Cents)
	}
	if d.FixedExpenses.Paid.Count != 1 {
		t.Errorf("paid fixed expenses = %d, want 1", d.FixedExpenses.Paid.Count)
	}
	if d.FixedIncomes.Total.Count != 1 {
		t.Errorf("fixed incomes = %d, want 1", d.FixedIncomes.Total.Count)
	}
	if len(d.Transactions) != 1 {
		t.Errorf("month transactions = %d, want 1", len(d.Transactions))
	}
}
