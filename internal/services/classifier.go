package services

import (
	"time"

	"carteira/internal/core"
)

// GenerationReader is the slice of the generation ledger the classifier
// needs: lookups only, no mutation.
type GenerationReader interface {
	Find(itemID string, month core.MonthKey) (core.GenerationRecord, bool)
}

// Classify derives the status of a fixed item for one month. Pure: the
// same inputs always produce the same status. Precedence, first match
// wins:
//
//  1. inactive flag
//  2. month outside the activation window
//  3. generation record exists        -> paid
//  4. current month, due date passed  -> overdue, else upcoming
//  5. any other month                 -> upcoming
//
// Rule 5 means a past month that was never generated reads upcoming, not
// overdue. Deliberately preserved; see DESIGN.md.
func Classify(item core.FixedItem, month core.MonthKey, generated GenerationReader, today time.Time) core.Status {
	if !item.Active {
		return core.StatusInactive
	}
	if !item.Window(month) {
		return core.StatusInactive
	}
	if _, ok := generated.Find(item.ID, month); ok {
		return core.StatusPaid
	}
	if month == core.MonthOf(today) {
		if month.DueDate(item.PeriodDay).Before(truncateToDay(today)) {
			return core.StatusOverdue
		}
		return core.StatusUpcoming
	}
	return core.StatusUpcoming
}

// Summarize buckets the month's eligible fixed items by status and sums
// each bucket. Eligible means currently active with an activation window
// containing the month; inactive items never enter the rollup. Buckets
// keep the registry's period-day ordering.
func Summarize(items []core.FixedItem, month core.MonthKey, generated GenerationReader, today time.Time) core.Rollup {
	rollup := core.Rollup{Month: month}

	for _, item := range items {
		if !item.Active || !item.Window(month) {
			continue
		}
		addToBucket(&rollup.Total, item)
		switch Classify(item, month, generated, today) {
		case core.StatusPaid:
			addToBucket(&rollup.Paid, item)
		case core.StatusOverdue:
			addToBucket(&rollup.Overdue, item)
		case core.StatusUpcoming:
			addToBucket(&rollup.Upcoming, item)
		}
	}
	return rollup
}

// RemainingCount returns how many monthly occurrences are left from
// fromMonth through the item's end month, inclusive. Open-ended items
// return nil.
func RemainingCount(item core.FixedItem, fromMonth core.MonthKey) *int {
	if item.EndDate.IsZero() {
		return nil
	}
	n := core.MonthsBetween(fromMonth, core.MonthOf(item.EndDate)) + 1
	if n < 0 {
		n = 0
	}
	return &n
}

func addToBucket(b *core.Bucket, item core.FixedItem) {
	b.Items = append(b.Items, item)
	b.Count++
	b.Amount = b.Amount.Add(item.Amount)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
