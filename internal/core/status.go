package core

const (
	// StatusInactive: paused item, or the month falls outside the
	// activation window. Takes precedence over everything else.
	StatusInactive Status = "inactive"
	// StatusPaid: a generation record exists for the month.
	StatusPaid Status = "paid"
	// StatusOverdue: not generated and the due date has already passed.
	// Only the current calendar month can read overdue.
	StatusOverdue Status = "overdue"
	// StatusUpcoming: not generated and the due date not yet reached, or
	// any non-current month with no generation.
	StatusUpcoming Status = "upcoming"
)

// Status is the per-item-per-month classification derived from the fixed
// item, the generation ledger, and the current date.
type Status string

// Bucket groups the items sharing one status within a monthly rollup.
type Bucket struct {
	Items  []FixedItem `json:"items"`
	Count  int         `json:"count"`
	Amount Money       `json:"amount"`
}

// Rollup is the monthly summary of fixed items eligible in a month: the
// four status buckets plus a grand total over the eligible set.
type Rollup struct {
	Month    MonthKey `json:"month"`
	Total    Bucket   `json:"total"`
	Paid     Bucket   `json:"paid"`
	Overdue  Bucket   `json:"overdue"`
	Upcoming Bucket   `json:"upcoming"`
}
