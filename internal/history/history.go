// Package history implements snapshot-based undo and redo over a topology.
//
// Callers invoke Push before each mutation. A fresh Push invalidates the redo
// stack; redo is only meaningful directly after an undo.
package history

import (
	"errors"
	"fmt"

	"netsim/internal/domain"
)

// DefaultCapacity is the number of undo steps kept when none is configured
const DefaultCapacity = 50

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Store is the state the manager checkpoints
type Store interface {
	Snapshot() domain.Snapshot
	Restore(domain.Snapshot) error
}

// Manager holds two bounded stacks of detached snapshots
type Manager struct {
	store    Store
	capacity int
	undo     []domain.Snapshot
	redo     []domain.Snapshot
}

// New creates a manager over store. A non-positive capacity selects
// DefaultCapacity.
func New(store Store, capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		store:    store,
		capacity: capacity,
	}
}

// Push checkpoints the current state and clears the redo stack
func (m *Manager) Push() {
	m.undo = append(m.undo, m.store.Snapshot())
	m.redo = m.redo[:0]

	if len(m.undo) > m.capacity {
		// Drop the oldest entry; copy so the backing array does not grow forever
		m.undo = append(m.undo[:0:0], m.undo[len(m.undo)-m.capacity:]...)
	}
}

// Undo restores the most recent checkpoint, saving the current state for redo
func (m *Manager) Undo() error {
	if len(m.undo) == 0 {
		return ErrNothingToUndo
	}
	return m.step(&m.undo, &m.redo)
}

// Redo reapplies the most recently undone state
func (m *Manager) Redo() error {
	if len(m.redo) == 0 {
		return ErrNothingToRedo
	}
	return m.step(&m.redo, &m.undo)
}

// step pops from src, saving the current state onto dst. If the restore
// fails both stacks are left as they were.
func (m *Manager) step(src, dst *[]domain.Snapshot) error {
	current := m.store.Snapshot()
	top := (*src)[len(*src)-1]

	if err := m.store.Restore(top); err != nil {
		return fmt.Errorf("restore checkpoint: %w", err)
	}

	*src = (*src)[:len(*src)-1]
	*dst = append(*dst, current)
	return nil
}

// Clear empties both stacks
func (m *Manager) Clear() {
	m.undo = nil
	m.redo = nil
}

// CanUndo reports whether Undo has anything to restore
func (m *Manager) CanUndo() bool {
	return len(m.undo) > 0
}

// CanRedo reports whether Redo has anything to restore
func (m *Manager) CanRedo() bool {
	return len(m.redo) > 0
}

// Depth returns the sizes of the undo and redo stacks
func (m *Manager) Depth() (undo, redo int) {
	return len(m.undo), len(m.redo)
}
