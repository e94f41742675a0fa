package router

import "sync/atomic"

// Snapshot holds the process-wide active routing table. Writers build a
// complete new table and Swap it in; readers always observe a fully built,
// immutable table.
type Snapshot struct {
	table atomic.Pointer[Table]
}

// NewSnapshot creates a snapshot holding the given table.
func NewSnapshot(t *Table) *Snapshot {
	s := &Snapshot{}
	s.table.Store(t)
	return s
}

// Load returns the active table.
func (s *Snapshot) Load() *Table {
	return s.table.Load()
}

// Swap atomically replaces the active table and returns the previous one.
func (s *Snapshot) Swap(t *Table) *Table {
	return s.table.Swap(t)
}
