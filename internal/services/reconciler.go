// Package services provides the business logic sitting between the HTTP
// layer and the stores: the period reconciler, the status classifier, and
// the tracker facade that persists and publishes after each mutation.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/core"
	"carteira/internal/store"
)

// Reconciler materializes a fixed item's recurring effect into a concrete
// ledger transaction for exactly one target month, and reverses that
// materialization on demand. It holds references to the three collections
// it coordinates; all writes go through their public methods so the
// ordering guarantees below stay honest.
//
// Ordering: Generate validates everything first, inserts the ledger
// transaction, then appends the generation record. A failure between the
// two steps is compensated by deleting the transaction, so a record never
// points at a transaction that was not committed. Undo removes the
// transaction first and the record second, and tolerates the transaction
// already being gone.
type Reconciler struct {
	items     *store.FixedItemRegistry
	ledger    *store.LedgerStore
	generated *store.GenerationLedger
	now       func() time.Time
}

func NewReconciler(items *store.FixedItemRegistry, ledger *store.LedgerStore, generated *store.GenerationLedger) *Reconciler {
	return &Reconciler{
		items:     items,
		ledger:    ledger,
		generated: generated,
		now:       time.Now,
	}
}

// Generate creates the ledger transaction for (itemID, month) and records
// it in the generation ledger. Preconditions are checked in order; the
// first failure wins:
//
//  1. item exists            -> core.ErrItemNotFound
//  2. item is active         -> core.ErrItemInactive
//  3. not yet generated      -> core.ErrAlreadyGenerated
//  4. month >= start month   -> core.ErrBeforeActivation
//  5. month <= end month     -> core.ErrAfterDeactivation
//
// On success it returns the new transaction's id.
func (r *Reconciler) Generate(ctx context.Context, itemID string, month core.MonthKey) (string, error) {
	item, ok := r.items.ByID(itemID)
	if !ok {
		return "", fmt.Errorf("generate %s for %s: %w", itemID, month, core.ErrItemNotFound)
	}
	if !item.Active {
		return "", fmt.Errorf("generate %q for %s: %w", item.Title, month, core.ErrItemInactive)
	}
	if _, exists := r.generated.Find(itemID, month); exists {
		return "", fmt.Errorf("generate %q for %s: %w", item.Title, month, core.ErrAlreadyGenerated)
	}
	if month.Before(core.MonthOf(item.StartDate)) {
		return "", fmt.Errorf("generate %q for %s: %w", item.Title, month, core.ErrBeforeActivation)
	}
	if !item.EndDate.IsZero() && month.After(core.MonthOf(item.EndDate)) {
		return "", fmt.Errorf("generate %q for %s: %w", item.Title, month, core.ErrAfterDeactivation)
	}

	tx := r.ledger.Add(core.LedgerTransaction{
		Title:       item.Title + " (recurring)",
		Amount:      item.Amount,
		Direction:   item.Direction,
		CategoryID:  item.CategoryID,
		Date:        month.DueDate(item.PeriodDay),
		Description: annotate(item.Description, "generated from fixed item"),
	})

	rec := core.GenerationRecord{
		ItemID:        itemID,
		Month:         month,
		TransactionID: tx.ID,
		GeneratedAt:   r.now(),
	}
	if err := r.generated.Append(rec); err != nil {
		// Lost the race against a concurrent generate; take the
		// transaction back out so the two collections stay consistent.
		r.ledger.Remove(tx.ID)
		return "", fmt.Errorf("generate %q for %s: %w", item.Title, month, err)
	}

	slog.InfoContext(ctx, "Generated transaction from fixed item",
		"item_id", itemID,
		"title", item.Title,
		"month", month,
		"transaction_id", tx.ID,
		"due_date", tx.Date.Format("2006-01-02"),
		"amount_cents", tx.Amount.Cents)

	return tx.ID, nil
}

// Undo removes the generated transaction for (itemID, month) together with
// its generation record. A record whose transaction was already deleted by
// hand is still cleaned up: an orphaned control record must never persist.
func (r *Reconciler) Undo(ctx context.Context, itemID string, month core.MonthKey) error {
	rec, ok := r.generated.Find(itemID, month)
	if !ok {
		return fmt.Errorf("undo %s for %s: %w", itemID, month, core.ErrNothingToUndo)
	}

	if !r.ledger.Remove(rec.TransactionID) {
		slog.WarnContext(ctx, "Generated transaction already gone, removing control record anyway",
			"item_id", itemID,
			"month", month,
			"transaction_id", rec.TransactionID)
	}
	r.generated.Remove(itemID, month)

	slog.InfoContext(ctx, "Undid generated transaction",
		"item_id", itemID,
		"month", month,
		"transaction_id", rec.TransactionID)

	return nil
}

// GenerateAllDue attempts Generate for every active item and returns how
// many succeeded. Individual failures (already generated, outside the
// activation window) are skipped, not fatal: partial completion is the
// normal outcome of a batch run.
func (r *Reconciler) GenerateAllDue(ctx context.Context, month core.MonthKey) int {
	count := 0
	for _, item := range r.items.Active("") {
		if _, err := r.Generate(ctx, item.ID, month); err != nil {
			slog.DebugContext(ctx, "Skipped item during batch generation",
				"item_id", item.ID,
				"title", item.Title,
				"month", month,
				"reason", err)
			continue
		}
		count++
	}

	slog.InfoContext(ctx, "Batch generation complete",
		"month", month,
		"generated", count)

	return count
}

// ClearMonth undoes every generation for the month and returns how many
// records were removed.
func (r *Reconciler) ClearMonth(ctx context.Context, month core.MonthKey) int {
	count := 0
	for _, rec := range r.generated.ByMonth(month) {
		if err := r.Undo(ctx, rec.ItemID, month); err != nil {
			slog.WarnContext(ctx, "Failed to undo during month clear",
				"item_id", rec.ItemID,
				"month", month,
				"error", err)
			continue
		}
		count++
	}

	slog.InfoContext(ctx, "Cleared generated transactions for month",
		"month", month,
		"removed", count)

	return count
}

// RemoveItem deletes a fixed item and cascades: every generation record of
// the item goes, and each record's transaction is deleted before its
// control record so no orphan survives a failure in between.
func (r *Reconciler) RemoveItem(ctx context.Context, itemID string) (core.FixedItem, error) {
	if _, ok := r.items.ByID(itemID); !ok {
		return core.FixedItem{}, fmt.Errorf("remove item %s: %w", itemID, core.ErrItemNotFound)
	}

	removed := 0
	for _, rec := range r.generated.ByItem(itemID) {
		r.ledger.Remove(rec.TransactionID)
		r.generated.Remove(rec.ItemID, rec.Month)
		removed++
	}

	item, err := r.items.Remove(itemID)
	if err != nil {
		return core.FixedItem{}, fmt.Errorf("remove item %s: %w", itemID, err)
	}

	slog.InfoContext(ctx, "Removed fixed item with cascade",
		"item_id", itemID,
		"title", item.Title,
		"transactions_removed", removed)

	return item, nil
}

func annotate(description, note string) string {
	if description == "" {
		return note
	}
	return description + " - " + note
}
