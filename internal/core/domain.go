package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

type (
	// Direction distinguishes money coming in from money going out.
	Direction string

	Money struct {
		Cents int64 `json:"cents"`
	}

	// FixedItem is a recurring income or expense plan: a nominal day of the
	// month it is due, an activation window bounded by StartDate and an
	// optional EndDate, and an active flag that pauses it entirely.
	FixedItem struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Direction   Direction `json:"direction"`
		CategoryID  string    `json:"categoryId"`
		Description string    `json:"description,omitempty"`
		PeriodDay   int       `json:"periodDay"` // 1-31, clamped at use time
		Active      bool      `json:"active"`
		StartDate   time.Time `json:"startDate"`
		EndDate     time.Time `json:"endDate"` // zero means open-ended
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// LedgerTransaction is a realized movement of money. Owned by the ledger
	// store; the reconciler only ever creates or removes them through it.
	LedgerTransaction struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Amount      Money     `json:"amount"`
		Direction   Direction `json:"direction"`
		CategoryID  string    `json:"categoryId"`
		Date        time.Time `json:"date"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// GenerationRecord links a fixed item to the transaction materialized for
	// one month. At most one record may exist per (ItemID, Month) pair; that
	// uniqueness is the idempotency guarantee of the whole reconciler.
	GenerationRecord struct {
		ItemID        string    `json:"itemId"`
		Month         MonthKey  `json:"month"`
		TransactionID string    `json:"transactionId"`
		GeneratedAt   time.Time `json:"generatedAt"`
	}

	// Category carries display metadata only. Resolution failures are
	// tolerated everywhere; a missing category is never a data error.
	Category struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Color     string    `json:"color,omitempty"`
		Icon      string    `json:"icon,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// VariableItem is a one-off, month-scoped plan with an estimate and an
	// optional realized amount once completed.
	VariableItem struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Estimated   Money     `json:"estimated"`
		Actual      Money     `json:"actual"`
		Direction   Direction `json:"direction"`
		CategoryID  string    `json:"categoryId"`
		Description string    `json:"description,omitempty"`
		Month       MonthKey  `json:"month"`
		Completed   bool      `json:"completed"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}
)

// Reconciliation failures. Engine operations return these as wrapped
// sentinels so callers can branch with errors.Is.
var (
	ErrItemNotFound      = errors.New("fixed item not found")
	ErrItemInactive      = errors.New("fixed item is inactive")
	ErrAlreadyGenerated  = errors.New("transaction already generated for this month")
	ErrBeforeActivation  = errors.New("month precedes the item's start date")
	ErrAfterDeactivation = errors.New("month follows the item's end date")
	ErrNothingToUndo     = errors.New("no generated transaction for this month")
)

// Validation failures.
var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidPeriodDay = errors.New("period day must be between 1 and 31")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidWindow    = errors.New("end date must not precede start date")
)

func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i FixedItem) Validate() error {
	if len(strings.TrimSpace(i.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(i.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if !i.Direction.Valid() {
		return ErrInvalidDirection
	}
	if i.PeriodDay < 1 || i.PeriodDay > 31 {
		return ErrInvalidPeriodDay
	}
	if i.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if !i.EndDate.IsZero() && i.EndDate.Before(i.StartDate) {
		return ErrInvalidWindow
	}
	return nil
}

// Window reports whether the item's activation window contains the given
// month. Comparison is by (year, month) pair on both bounds; the end bound is
// inclusive and open-ended when EndDate is zero.
func (i FixedItem) Window(m MonthKey) bool {
	if m.Before(MonthOf(i.StartDate)) {
		return false
	}
	if !i.EndDate.IsZero() && m.After(MonthOf(i.EndDate)) {
		return false
	}
	return true
}

func (t LedgerTransaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Direction.Valid() {
		return ErrInvalidDirection
	}
	if t.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

func (v VariableItem) Validate() error {
	if len(strings.TrimSpace(v.Title)) == 0 {
		return ErrEmptyTitle
	}
	if err := v.Estimated.Validate(); err != nil {
		return err
	}
	if !v.Direction.Valid() {
		return ErrInvalidDirection
	}
	if err := v.Month.Validate(); err != nil {
		return err
	}
	return nil
}
