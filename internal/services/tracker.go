package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/core"
	"carteira/internal/store"
)

// SnapshotWriter persists the whole state after a mutation. The tracker
// calls it synchronously so callers observe mutation completion and
// persistence as one step.
type SnapshotWriter interface {
	Save(ctx context.Context, state store.State) error
}

// MutationPublisher announces a completed mutation to interested
// consumers. Best-effort: a publish failure never fails the mutation.
type MutationPublisher interface {
	PublishMutation(ctx context.Context, entity, action, id string) error
}

// Dashboard is the month overview the presentation layer renders: ledger
// aggregates plus the fixed-item rollups for both directions.
type Dashboard struct {
	Month         core.MonthKey            `json:"month"`
	Balance       core.Money               `json:"balance"`
	TotalIncome   core.Money               `json:"totalIncome"`
	TotalExpense  core.Money               `json:"totalExpense"`
	FixedExpenses core.Rollup              `json:"fixedExpenses"`
	FixedIncomes  core.Rollup              `json:"fixedIncomes"`
	Transactions  []core.LedgerTransaction `json:"transactions"`
}

// Tracker is the facade the HTTP layer talks to. Every mutating method
// runs the store operation, flushes a snapshot through the persister, and
// then publishes a mutation event.
type Tracker struct {
	stores     *store.Stores
	reconciler *Reconciler
	persister  SnapshotWriter
	publisher  MutationPublisher
	now        func() time.Time
}

// NewTracker wires the facade. Persister and publisher may be nil (tests,
// ephemeral runs); a nil persister means mutations live only in memory.
func NewTracker(stores *store.Stores, persister SnapshotWriter, publisher MutationPublisher) *Tracker {
	return &Tracker{
		stores:     stores,
		reconciler: NewReconciler(stores.Fixed, stores.Ledger, stores.Generated),
		persister:  persister,
		publisher:  publisher,
		now:        time.Now,
	}
}

// Stores exposes the underlying collections for read paths.
func (t *Tracker) Stores() *store.Stores { return t.stores }

// State snapshots the full model, e.g. for an explicit export.
func (t *Tracker) State() store.State { return t.stores.Snapshot() }

// RestoreState replaces the in-memory model with a persisted snapshot.
// Processes that share the snapshot with another writer call this before
// mutating so they never flush a stale state over newer work.
func (t *Tracker) RestoreState(state store.State) { t.stores.Restore(state) }

// --- fixed items ---

func (t *Tracker) CreateFixedItem(ctx context.Context, item core.FixedItem) (core.FixedItem, error) {
	created, err := t.stores.Fixed.Add(item)
	if err != nil {
		return core.FixedItem{}, err
	}
	return created, t.committed(ctx, "fixed_item", "create", created.ID)
}

func (t *Tracker) UpdateFixedItem(ctx context.Context, id string, patch store.FixedItemPatch) (core.FixedItem, error) {
	updated, err := t.stores.Fixed.Update(id, patch)
	if err != nil {
		return core.FixedItem{}, err
	}
	return updated, t.committed(ctx, "fixed_item", "update", id)
}

// RemoveFixedItem cascades through the reconciler: generated transactions
// and their control records go first, the definition last.
func (t *Tracker) RemoveFixedItem(ctx context.Context, id string) error {
	if _, err := t.reconciler.RemoveItem(ctx, id); err != nil {
		return err
	}
	return t.committed(ctx, "fixed_item", "delete", id)
}

func (t *Tracker) ToggleFixedItem(ctx context.Context, id string) (core.FixedItem, error) {
	toggled, err := t.stores.Fixed.Toggle(id)
	if err != nil {
		return core.FixedItem{}, err
	}
	return toggled, t.committed(ctx, "fixed_item", "toggle", id)
}

func (t *Tracker) FixedItems(d core.Direction) []core.FixedItem {
	return t.stores.Fixed.List(d)
}

func (t *Tracker) FixedItem(id string) (core.FixedItem, bool) {
	return t.stores.Fixed.ByID(id)
}

// FixedItemStatus classifies one item for a month and reports the
// remaining occurrences (nil for open-ended items).
func (t *Tracker) FixedItemStatus(id string, month core.MonthKey) (core.Status, *int, error) {
	item, ok := t.stores.Fixed.ByID(id)
	if !ok {
		return "", nil, core.ErrItemNotFound
	}
	status := Classify(item, month, t.stores.Generated, t.now())
	return status, RemainingCount(item, month), nil
}

// --- reconciliation ---

func (t *Tracker) Generate(ctx context.Context, itemID string, month core.MonthKey) (string, error) {
	txID, err := t.reconciler.Generate(ctx, itemID, month)
	if err != nil {
		return "", err
	}
	return txID, t.committed(ctx, "generation", "create", txID)
}

func (t *Tracker) Undo(ctx context.Context, itemID string, month core.MonthKey) error {
	if err := t.reconciler.Undo(ctx, itemID, month); err != nil {
		return err
	}
	return t.committed(ctx, "generation", "delete", itemID)
}

func (t *Tracker) ReconcileMonth(ctx context.Context, month core.MonthKey) (int, error) {
	count := t.reconciler.GenerateAllDue(ctx, month)
	if count == 0 {
		return 0, nil
	}
	return count, t.committed(ctx, "generation", "batch_create", string(month))
}

func (t *Tracker) ClearMonth(ctx context.Context, month core.MonthKey) (int, error) {
	count := t.reconciler.ClearMonth(ctx, month)
	if count == 0 {
		return 0, nil
	}
	return count, t.committed(ctx, "generation", "batch_delete", string(month))
}

// --- ledger transactions ---

func (t *Tracker) CreateTransaction(ctx context.Context, tx core.LedgerTransaction) (core.LedgerTransaction, error) {
	if err := tx.Validate(); err != nil {
		return core.LedgerTransaction{}, err
	}
	created := t.stores.Ledger.Add(tx)
	return created, t.committed(ctx, "transaction", "create", created.ID)
}

func (t *Tracker) UpdateTransaction(ctx context.Context, id string, patch store.TransactionPatch) (core.LedgerTransaction, error) {
	updated, ok := t.stores.Ledger.Update(id, patch)
	if !ok {
		return core.LedgerTransaction{}, fmt.Errorf("update transaction %s: not found", id)
	}
	return updated, t.committed(ctx, "transaction", "update", id)
}

// DeleteTransaction removes a transaction from the ledger. Generation
// records pointing at it are left in place on purpose: undo tolerates the
// orphan and cleans it up, and deleting the record here would silently
// re-arm generation for the month.
func (t *Tracker) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if !t.stores.Ledger.Remove(id) {
		return false, nil
	}
	return true, t.committed(ctx, "transaction", "delete", id)
}

func (t *Tracker) Transactions() []core.LedgerTransaction {
	return t.stores.Ledger.List()
}

// --- categories ---

func (t *Tracker) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := t.stores.Categories.Add(c)
	if err != nil {
		return core.Category{}, err
	}
	return created, t.committed(ctx, "category", "create", created.ID)
}

func (t *Tracker) DeleteCategory(ctx context.Context, id string) error {
	if err := t.stores.Categories.Remove(id); err != nil {
		return err
	}
	return t.committed(ctx, "category", "delete", id)
}

func (t *Tracker) Categories() []core.Category {
	return t.stores.Categories.List()
}

// --- variable items ---

func (t *Tracker) CreateVariableItem(ctx context.Context, item core.VariableItem) (core.VariableItem, error) {
	created, err := t.stores.Variables.Add(item)
	if err != nil {
		return core.VariableItem{}, err
	}
	return created, t.committed(ctx, "variable_item", "create", created.ID)
}

func (t *Tracker) UpdateVariableItem(ctx context.Context, id string, patch store.VariablePatch) (core.VariableItem, error) {
	updated, err := t.stores.Variables.Update(id, patch)
	if err != nil {
		return core.VariableItem{}, err
	}
	return updated, t.committed(ctx, "variable_item", "update", id)
}

func (t *Tracker) RemoveVariableItem(ctx context.Context, id string) error {
	if err := t.stores.Variables.Remove(id); err != nil {
		return err
	}
	return t.committed(ctx, "variable_item", "delete", id)
}

// CompleteVariableItem marks the plan done and books the realized amount
// into the ledger, dated today within the item's month.
func (t *Tracker) CompleteVariableItem(ctx context.Context, id string, actual core.Money) (core.VariableItem, error) {
	done, err := t.stores.Variables.Complete(id, actual)
	if err != nil {
		return core.VariableItem{}, err
	}
	tx := t.stores.Ledger.Add(core.LedgerTransaction{
		Title:       done.Title,
		Amount:      actual,
		Direction:   done.Direction,
		CategoryID:  done.CategoryID,
		Date:        done.Month.DueDate(t.now().Day()),
		Description: annotate(done.Description, "completed variable item"),
	})
	if err := t.committed(ctx, "variable_item", "complete", id); err != nil {
		return done, err
	}
	// The booked transaction is a creation in its own right; consumers that
	// follow the ledger must hear about it too.
	t.publish(ctx, "transaction", "create", tx.ID)
	return done, nil
}

func (t *Tracker) VariableItems(month core.MonthKey, d core.Direction) []core.VariableItem {
	return t.stores.Variables.ByMonth(month, d)
}

// --- dashboard ---

// MonthDashboard assembles the read-only overview for one month.
func (t *Tracker) MonthDashboard(month core.MonthKey) Dashboard {
	today := t.now()
	return Dashboard{
		Month:         month,
		Balance:       t.stores.Ledger.TotalBalance(),
		TotalIncome:   t.stores.Ledger.TotalByDirection(core.Income),
		TotalExpense:  t.stores.Ledger.TotalByDirection(core.Expense),
		FixedExpenses: Summarize(t.stores.Fixed.List(core.Expense), month, t.stores.Generated, today),
		FixedIncomes:  Summarize(t.stores.Fixed.List(core.Income), month, t.stores.Generated, today),
		Transactions:  t.stores.Ledger.ListMonth(month),
	}
}

// committed flushes the snapshot and announces the mutation. Snapshot
// failures propagate (the mutation stands in memory but the caller must
// know persistence is behind); publish failures are logged and swallowed.
func (t *Tracker) committed(ctx context.Context, entity, action, id string) error {
	if t.persister != nil {
		if err := t.persister.Save(ctx, t.stores.Snapshot()); err != nil {
			return fmt.Errorf("persist state after %s %s: %w", entity, action, err)
		}
	}
	t.publish(ctx, entity, action, id)
	return nil
}

// publish announces a mutation, best-effort.
func (t *Tracker) publish(ctx context.Context, entity, action, id string) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishMutation(ctx, entity, action, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish mutation event",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err)
	}
}
