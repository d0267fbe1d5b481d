package store

import "carteira/internal/core"

// State is the whole persisted model: every collection serialized together.
// Persistence is all-or-nothing; there is no partial or incremental
// contract, so the snapshot repository treats this as an opaque blob.
type State struct {
	Transactions      []core.LedgerTransaction `json:"transactions"`
	FixedItems        []core.FixedItem         `json:"fixedItems"`
	GenerationRecords []core.GenerationRecord  `json:"generationRecords"`
	Categories        []core.Category          `json:"categories"`
	VariableItems     []core.VariableItem      `json:"variableItems"`
}

// Stores bundles the live collections so they can be snapshotted and
// restored as one unit.
type Stores struct {
	Ledger     *LedgerStore
	Fixed      *FixedItemRegistry
	Generated  *GenerationLedger
	Categories *CategoryRegistry
	Variables  *VariableRegistry
}

func NewStores() *Stores {
	return &Stores{
		Ledger:     NewLedgerStore(),
		Fixed:      NewFixedItemRegistry(),
		Generated:  NewGenerationLedger(),
		Categories: NewCategoryRegistry(),
		Variables:  NewVariableRegistry(),
	}
}

// Snapshot captures every collection into one State.
func (s *Stores) Snapshot() State {
	return State{
		Transactions:      s.Ledger.Snapshot(),
		FixedItems:        s.Fixed.Snapshot(),
		GenerationRecords: s.Generated.Snapshot(),
		Categories:        s.Categories.Snapshot(),
		VariableItems:     s.Variables.Snapshot(),
	}
}

// Restore replaces every collection from a previously saved State.
func (s *Stores) Restore(state State) {
	s.Ledger.Restore(state.Transactions)
	s.Fixed.Restore(state.FixedItems)
	s.Generated.Restore(state.GenerationRecords)
	s.Categories.Restore(state.Categories)
	s.Variables.Restore(state.VariableItems)
}
