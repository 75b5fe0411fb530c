package editor

import (
	"pagecraft/internal/domain/models"
)

// History is a linear undo/redo stack over full element-sequence snapshots:
// an array plus a cursor, no branching. Pushing while the cursor sits behind
// the tail discards the redo branch, which is the standard linear-undo
// contract.
//
// History is not safe for concurrent use; the owning Session serializes
// access.
type History struct {
	entries [][]models.Element
	cursor  int
}

// NewHistory creates a history whose single entry is a snapshot of the
// initial tree. The initial snapshot is never undoable.
func NewHistory(initial []models.Element) *History {
	return &History{
		entries: [][]models.Element{models.CloneElements(initial)},
		cursor:  0,
	}
}

// Push records a new snapshot. Entries after the cursor are truncated first,
// so any redo tail is discarded.
func (h *History) Push(snapshot []models.Element) {
	h.entries = append(h.entries[:h.cursor+1], models.CloneElements(snapshot))
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor back one entry and returns that snapshot. Returns
// ok=false at the initial snapshot: a reported no-op, not an error.
func (h *History) Undo() ([]models.Element, bool) {
	if h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return models.CloneElements(h.entries[h.cursor]), true
}

// Redo moves the cursor forward one entry and returns that snapshot. Returns
// ok=false at the most recent snapshot.
func (h *History) Redo() ([]models.Element, bool) {
	if h.cursor >= len(h.entries)-1 {
		return nil, false
	}
	h.cursor++
	return models.CloneElements(h.entries[h.cursor]), true
}

// CanUndo reports whether the cursor can move back.
func (h *History) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether the cursor can move forward.
func (h *History) CanRedo() bool {
	return h.cursor < len(h.entries)-1
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	return len(h.entries)
}
