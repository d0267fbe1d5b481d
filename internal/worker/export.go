// Package worker holds the background loops: the mutation export consumer
// and the periodic reconcile ticker.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/services"
	"carteira/internal/store"
)

// StateLoader reads the last persisted state snapshot.
type StateLoader interface {
	Load(ctx context.Context) (store.State, bool, error)
}

// ExportTarget writes transactions and month rollups to the export
// destination.
type ExportTarget interface {
	AppendTransaction(ctx context.Context, tx core.LedgerTransaction) error
	AppendTransactions(ctx context.Context, txs []core.LedgerTransaction) error
	AppendRollup(ctx context.Context, r core.Rollup) error
}

// ExportWorker consumes mutation messages and exports newly booked
// transactions. Messages only carry ids; the worker resolves the full
// transaction from the shared snapshot.
type ExportWorker struct {
	snapshots StateLoader
	exporter  ExportTarget
	batchSize int
}

// NewExportWorker wires the consumer. batchSize caps how many rows a month
// export appends per call.
func NewExportWorker(snapshots StateLoader, exporter ExportTarget, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &ExportWorker{
		snapshots: snapshots,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleMutation processes one mutation message. Messages that do not
// announce a new transaction are acknowledged without work. A transaction
// that is gone by the time the message arrives was deleted or undone in the
// meantime; the message is dropped, not requeued.
func (w *ExportWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	if msg.Entity == "generation" && msg.Action == "batch_create" {
		return w.exportMonth(ctx, core.MonthKey(msg.ID))
	}
	if msg.Action != "create" || (msg.Entity != "transaction" && msg.Entity != "generation") {
		return nil
	}

	state, ok, err := w.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		slog.WarnContext(ctx, "No snapshot available while handling mutation",
			"entity", msg.Entity,
			"id", msg.ID)
		return nil
	}

	tx, found := findTransaction(state, msg.ID)
	if !found {
		slog.WarnContext(ctx, "Transaction from mutation message no longer exists",
			"transaction_id", msg.ID)
		return nil
	}

	if err := w.exporter.AppendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("export transaction %s: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", tx.ID,
		"title", tx.Title,
		"amount_cents", tx.Amount.Cents)

	if msg.Entity == "generation" {
		w.exportRollup(ctx, state, tx.ID)
	}

	return nil
}

// exportMonth exports every transaction generated for the month, appending
// at most batchSize rows per call. Batch reconcile messages carry the month
// key as their id, not a transaction id.
func (w *ExportWorker) exportMonth(ctx context.Context, month core.MonthKey) error {
	state, ok, err := w.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		slog.WarnContext(ctx, "No snapshot available for month export", "month", month)
		return nil
	}

	var txs []core.LedgerTransaction
	for _, rec := range state.GenerationRecords {
		if rec.Month != month {
			continue
		}
		if tx, found := findTransaction(state, rec.TransactionID); found {
			txs = append(txs, tx)
		}
	}
	if len(txs) == 0 {
		return nil
	}

	for start := 0; start < len(txs); start += w.batchSize {
		end := min(start+w.batchSize, len(txs))
		if err := w.exporter.AppendTransactions(ctx, txs[start:end]); err != nil {
			return fmt.Errorf("export month %s: %w", month, err)
		}
	}

	slog.InfoContext(ctx, "Month transactions exported",
		"month", month,
		"count", len(txs))

	return nil
}

// exportRollup recomputes the month rollup for the direction of the item
// whose generation triggered the message. A failure here is logged and
// dropped; requeueing would duplicate the transaction row appended above.
func (w *ExportWorker) exportRollup(ctx context.Context, state store.State, transactionID string) {
	var record core.GenerationRecord
	found := false
	for _, rec := range state.GenerationRecords {
		if rec.TransactionID == transactionID {
			record = rec
			found = true
			break
		}
	}
	if !found {
		return
	}

	var direction core.Direction
	for _, item := range state.FixedItems {
		if item.ID == record.ItemID {
			direction = item.Direction
			break
		}
	}

	items := make([]core.FixedItem, 0, len(state.FixedItems))
	for _, item := range state.FixedItems {
		if item.Direction == direction {
			items = append(items, item)
		}
	}

	rollup := services.Summarize(items, record.Month, recordSet(state.GenerationRecords), time.Now())
	if err := w.exporter.AppendRollup(ctx, rollup); err != nil {
		slog.WarnContext(ctx, "Failed to export month rollup",
			"month", record.Month,
			"error", err)
		return
	}

	slog.InfoContext(ctx, "Month rollup exported",
		"month", record.Month,
		"direction", direction)
}

// recordSet adapts a snapshot's generation records to the classifier's
// lookup interface.
type recordSet []core.GenerationRecord

func (s recordSet) Find(itemID string, month core.MonthKey) (core.GenerationRecord, bool) {
	for _, rec := range s {
		if rec.ItemID == itemID && rec.Month == month {
			return rec, true
		}
	}
	return core.GenerationRecord{}, false
}

func findTransaction(state store.State, id string) (core.LedgerTransaction, bool) {
	for _, tx := range state.Transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.LedgerTransaction{}, false
}
