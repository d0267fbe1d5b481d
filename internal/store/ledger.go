// Package store holds the in-memory collections backing the tracker. Each
// store owns one entity type, guards it with a mutex, and knows how to
// snapshot and restore itself for the whole-state persistence layer.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"carteira/internal/core"
)

// LedgerStore owns the flat list of realized transactions. It has no
// recurrence logic; the reconciler is just another caller going through
// Add and Remove.
type LedgerStore struct {
	mu           sync.RWMutex
	transactions map[string]core.LedgerTransaction
	now          func() time.Time
}

// TransactionPatch is a partial update; nil fields are left untouched.
type TransactionPatch struct {
	Title       *string
	Amount      *core.Money
	CategoryID  *string
	Date        *time.Time
	Description *string
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		transactions: make(map[string]core.LedgerTransaction),
		now:          time.Now,
	}
}

// Add stores the transaction under a freshly assigned id and returns it.
func (s *LedgerStore) Add(tx core.LedgerTransaction) core.LedgerTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	s.transactions[tx.ID] = tx
	return tx
}

// Remove deletes the transaction. A missing id is a no-op reported as
// false, never an error: the reconciler relies on being able to call this
// with an id the user already deleted by hand.
func (s *LedgerStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return false
	}
	delete(s.transactions, id)
	return true
}

// Update applies a partial patch and refreshes UpdatedAt.
func (s *LedgerStore) Update(id string, patch TransactionPatch) (core.LedgerTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[id]
	if !ok {
		return core.LedgerTransaction{}, false
	}
	if patch.Title != nil {
		tx.Title = *patch.Title
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		tx.CategoryID = *patch.CategoryID
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	tx.UpdatedAt = s.now()
	s.transactions[id] = tx
	return tx, true
}

func (s *LedgerStore) Get(id string) (core.LedgerTransaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	return tx, ok
}

// List returns all transactions ordered by date descending, ties broken by
// id so the ordering is stable across calls.
func (s *LedgerStore) List() []core.LedgerTransaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.LedgerTransaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListMonth returns transactions dated within the given month, same order
// as List.
func (s *LedgerStore) ListMonth(month core.MonthKey) []core.LedgerTransaction {
	all := s.List()
	out := all[:0:0]
	for _, tx := range all {
		if core.MonthOf(tx.Date) == month {
			out = append(out, tx)
		}
	}
	return out
}

func (s *LedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// TotalBalance is income minus expense over the whole ledger.
func (s *LedgerStore) TotalBalance() core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cents int64
	for _, tx := range s.transactions {
		if tx.Direction == core.Income {
			cents += tx.Amount.Cents
		} else {
			cents -= tx.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// TotalByDirection sums all transactions flowing one way.
func (s *LedgerStore) TotalByDirection(d core.Direction) core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cents int64
	for _, tx := range s.transactions {
		if tx.Direction == d {
			cents += tx.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// Snapshot returns a copy of the backing collection for persistence.
func (s *LedgerStore) Snapshot() []core.LedgerTransaction {
	return s.List()
}

// Restore replaces the backing collection with a previously saved snapshot.
func (s *LedgerStore) Restore(txs []core.LedgerTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = make(map[string]core.LedgerTransaction, len(txs))
	for _, tx := range txs {
		s.transactions[tx.ID] = tx
	}
}
