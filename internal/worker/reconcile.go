package worker

import (
	"context"
	"log/slog"
	"time"

	"carteira/internal/core"
	"carteira/internal/store"
)

// MonthReconciler generates the due transactions for a month over a state
// that can be swapped out for a freshly loaded snapshot.
type MonthReconciler interface {
	RestoreState(state store.State)
	ReconcileMonth(ctx context.Context, month core.MonthKey) (int, error)
}

// ReconcileWorker periodically generates the current month's due
// transactions so fixed items materialize without manual action.
type ReconcileWorker struct {
	tracker   MonthReconciler
	snapshots StateLoader
	interval  time.Duration
	now       func() time.Time
}

// NewReconcileWorker builds the ticker loop. snapshots may be nil when the
// tracker's state has no other writer.
func NewReconcileWorker(tracker MonthReconciler, snapshots StateLoader, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		tracker:   tracker,
		snapshots: snapshots,
		interval:  interval,
		now:       time.Now,
	}
}

// Run reconciles once immediately, then on every tick until the context
// ends.
func (w *ReconcileWorker) Run(ctx context.Context) error {
	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Reconcile worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce reconciles the month containing the current time. The API server
// owns the snapshot between ticks, so the run starts from the latest
// persisted state; reconciling what this process restored at startup would
// flush stale state over the server's mutations.
func (w *ReconcileWorker) RunOnce(ctx context.Context) {
	if w.snapshots != nil {
		state, ok, err := w.snapshots.Load(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping reconcile run, snapshot load failed",
				"error", err)
			return
		}
		if ok {
			w.tracker.RestoreState(state)
		}
	}

	month := core.MonthOf(w.now())

	count, err := w.tracker.ReconcileMonth(ctx, month)
	if err != nil {
		slog.ErrorContext(ctx, "Reconcile run failed",
			"month", month,
			"error", err)
		return
	}

	if count > 0 {
		slog.InfoContext(ctx, "Reconcile run generated transactions",
			"month", month,
			"generated", count)
	}
}
