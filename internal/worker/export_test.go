package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/services"
	"carteira/internal/store"
)

type fakeLoader struct {
	state store.State
	ok    bool
	err   error
}

func (f *fakeLoader) Load(context.Context) (store.State, bool, error) {
	return f.state, f.ok, f.err
}

type fakeAppender struct {
	appended []core.LedgerTransaction
	batches  [][]core.LedgerTransaction
	rollups  []core.Rollup
	err      error
}

func (f *fakeAppender) AppendTransaction(_ context.Context, tx core.LedgerTransaction) error {
	f.appended = append(f.appended, tx)
	return f.err
}

func (f *fakeAppender) AppendTransactions(_ context.Context, txs []core.LedgerTransaction) error {
	f.batches = append(f.batches, txs)
	return f.err
}

func (f *fakeAppender) AppendRollup(_ context.Context, r core.Rollup) error {
	f.rollups = append(f.rollups, r)
	return f.err
}

func TestExportWorker_HandleMutation(t *testing.T) {
	tx := core.LedgerTransaction{
		ID:     "tx-1",
		Title:  "Rent (recurring)",
		Amount: core.Money{Cents: 120000},
	}
	state := store.State{Transactions: []core.LedgerTransaction{tx}}

	generated := store.State{
		Transactions: []core.LedgerTransaction{tx},
		FixedItems: []core.FixedItem{{
			ID:        "item-1",
			Title:     "Rent",
			Amount:    core.Money{Cents: 120000},
			Direction: core.Expense,
			PeriodDay: 5,
			Active:    true,
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
		GenerationRecords: []core.GenerationRecord{{
			ItemID:        "item-1",
			Month:         "2024-03",
			TransactionID: "tx-1",
		}},
	}

	tests := []struct {
		name        string
		msg         *amqp.MutationMessage
		loader      *fakeLoader
		appender    *fakeAppender
		wantErr     bool
		wantExport  int
		wantRollups int
	}{
		{
			name:       "transaction create is exported",
			msg:        &amqp.MutationMessage{Entity: "transaction", Action: "create", ID: "tx-1"},
			loader:     &fakeLoader{state: state, ok: true},
			appender:   &fakeAppender{},
			wantExport: 1,
		},
		{
			name:        "generation create exports transaction and rollup",
			msg:         &amqp.MutationMessage{Entity: "generation", Action: "create", ID: "tx-1"},
			loader:      &fakeLoader{state: generated, ok: true},
			appender:    &fakeAppender{},
			wantExport:  1,
			wantRollups: 1,
		},
		{
			name:     "delete is ignored",
			msg:      &amqp.MutationMessage{Entity: "transaction", Action: "delete", ID: "tx-1"},
			loader:   &fakeLoader{state: state, ok: true},
			appender: &fakeAppender{},
		},
		{
			name:     "category mutation is ignored",
			msg:      &amqp.MutationMessage{Entity: "category", Action: "create", ID: "cat-1"},
			loader:   &fakeLoader{state: state, ok: true},
			appender: &fakeAppender{},
		},
		{
			name:     "missing transaction is dropped",
			msg:      &amqp.MutationMessage{Entity: "transaction", Action: "create", ID: "gone"},
			loader:   &fakeLoader{state: state, ok: true},
			appender: &fakeAppender{},
		},
		{
			name:     "no snapshot yet is dropped",
			msg:      &amqp.MutationMessage{Entity: "transaction", Action: "create", ID: "tx-1"},
			loader:   &fakeLoader{ok: false},
			appender: &fakeAppender{},
		},
		{
			name:     "snapshot load error is retried",
			msg:      &amqp.MutationMessage{Entity: "transaction", Action: "create", ID: "tx-1"},
			loader:   &fakeLoader{err: errors.New("db locked")},
			appender: &fakeAppender{},
			wantErr:  true,
		},
		{
			name:     "export failure is retried",
			msg:      &amqp.MutationMessage{Entity: "transaction", Action: "create", ID: "tx-1"},
			loader:   &fakeLoader{state: state, ok: true},
			appender: &fakeAppender{err: errors.New("api quota")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewExportWorker(tt.loader, tt.appender, 50)

			err := w.HandleMutation(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("HandleMutation() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && len(tt.appender.appended) != tt.wantExport {
				t.Errorf("exported %d transactions, want %d", len(tt.appender.appended), tt.wantExport)
			}
			if !tt.wantErr && len(tt.appender.rollups) != tt.wantRollups {
				t.Errorf("exported %d rollups, want %d", len(tt.appender.rollups), tt.wantRollups)
			}
		})
	}
}

func TestExportWorker_BatchCreateExportsInChunks(t *testing.T) {
	state := store.State{}
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("tx-%d", i)
		state.Transactions = append(state.Transactions, core.LedgerTransaction{
			ID:     id,
			Title:  "Rent (recurring)",
			Amount: core.Money{Cents: 120000},
		})
		state.GenerationRecords = append(state.GenerationRecords, core.GenerationRecord{
			ItemID:        fmt.Sprintf("item-%d", i),
			Month:         "2024-03",
			TransactionID: id,
		})
	}
	// A record for another month must not leak into the export.
	state.GenerationRecords = append(state.GenerationRecords, core.GenerationRecord{
		ItemID:        "item-1",
		Month:         "2024-02",
		TransactionID: "tx-feb",
	})

	appender := &fakeAppender{}
	w := NewExportWorker(&fakeLoader{state: state, ok: true}, appender, 2)

	msg := &amqp.MutationMessage{Entity: "generation", Action: "batch_create", ID: "2024-03"}
	if err := w.HandleMutation(context.Background(), msg); err != nil {
		t.Fatalf("HandleMutation() error = %v", err)
	}

	if len(appender.batches) != 2 {
		t.Fatalf("appended %d batches, want 2", len(appender.batches))
	}
	if len(appender.batches[0]) != 2 || len(appender.batches[1]) != 1 {
		t.Errorf("batch sizes = %d/%d, want 2/1", len(appender.batches[0]), len(appender.batches[1]))
	}
}

type fakeReconciler struct {
	restored []store.State
	months   []core.MonthKey
	count    int
	err      error
}

func (f *fakeReconciler) RestoreState(state store.State) {
	f.restored = append(f.restored, state)
}

func (f *fakeReconciler) ReconcileMonth(_ context.Context, month core.MonthKey) (int, error) {
	f.months = append(f.months, month)
	return f.count, f.err
}

func TestReconcileWorker_RunOnce(t *testing.T) {
	tracker := &fakeReconciler{count: 2}
	w := NewReconcileWorker(tracker, nil, time.Hour)
	w.now = func() time.Time { return time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC) }

	w.RunOnce(context.Background())

	if len(tracker.months) != 1 || tracker.months[0] != "2024-03" {
		t.Errorf("reconciled months = %v, want [2024-03]", tracker.months)
	}
}

func TestReconcileWorker_RunOnceSwallowsErrors(t *testing.T) {
	tracker := &fakeReconciler{err: errors.New("persist failed")}
	w := NewReconcileWorker(tracker, nil, time.Hour)

	// Must not panic or propagate; the next tick will retry.
	w.RunOnce(context.Background())

	if len(tracker.months) != 1 {
		t.Errorf("ReconcileMonth called %d times, want 1", len(tracker.months))
	}
}

func TestReconcileWorker_RunOnceRestoresLatestSnapshot(t *testing.T) {
	latest := store.State{
		Transactions: []core.LedgerTransaction{{ID: "tx-groceries", Title: "Groceries"}},
	}
	tracker := &fakeReconciler{}
	w := NewReconcileWorker(tracker, &fakeLoader{state: latest, ok: true}, time.Hour)

	w.RunOnce(context.Background())

	if len(tracker.restored) != 1 {
		t.Fatalf("RestoreState called %d times, want 1", len(tracker.restored))
	}
	if len(tracker.restored[0].Transactions) != 1 || tracker.restored[0].Transactions[0].ID != "tx-groceries" {
		t.Errorf("restored state = %+v, want the loaded snapshot", tracker.restored[0])
	}
	if len(tracker.months) != 1 {
		t.Errorf("ReconcileMonth called %d times, want 1", len(tracker.months))
	}
}

func TestReconcileWorker_RunOnceSkipsOnSnapshotError(t *testing.T) {
	tracker := &fakeReconciler{}
	w := NewReconcileWorker(tracker, &fakeLoader{err: errors.New("db locked")}, time.Hour)

	// Reconciling without the latest state would flush stale state over
	// another process's writes; the tick must do nothing.
	w.RunOnce(context.Background())

	if len(tracker.months) != 0 {
		t.Errorf("ReconcileMonth called %d times, want 0", len(tracker.months))
	}
}

// Two processes share one snapshot: the API server books a transaction,
// then the worker's tick runs against the server's snapshot. The final
// snapshot must keep both the server's transaction and the generated one.
func TestReconcileWorker_TickKeepsOtherWritersState(t *testing.T) {
	serverState := store.State{
		Transactions: []core.LedgerTransaction{{
			ID:        "tx-groceries",
			Title:     "Groceries",
			Amount:    core.Money{Cents: 5430},
			Direction: core.Expense,
		}},
		FixedItems: []core.FixedItem{{
			ID:        "item-rent",
			Title:     "Rent",
			Amount:    core.Money{Cents: 120000},
			Direction: core.Expense,
			PeriodDay: 5,
			Active:    true,
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}

	saver := &fakeSaver{}
	tracker := services.NewTracker(store.NewStores(), saver, nil)
	w := NewReconcileWorker(tracker, &fakeLoader{state: serverState, ok: true}, time.Hour)
	w.now = func() time.Time { return time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC) }

	w.RunOnce(context.Background())

	if saver.saves != 1 {
		t.Fatalf("snapshot saved %d times, want 1", saver.saves)
	}
	if got := len(saver.last.Transactions); got != 2 {
		t.Fatalf("final snapshot has %d transactions, want 2", got)
	}
	found := false
	for _, tx := range saver.last.Transactions {
		if tx.ID == "tx-groceries" {
			found = true
		}
	}
	if !found {
		t.Error("final snapshot lost the other writer's transaction")
	}
	if got := len(saver.last.GenerationRecords); got != 1 {
		t.Errorf("final snapshot has %d generation records, want 1", got)
	}
}

type fakeSaver struct {
	saves int
	last  store.State
}

func (f *fakeSaver) Save(_ context.Context, state store.State) error {
	f.saves++
	f.last = state
	return nil
}
