package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
)

// DefaultDebounce is the quiescence window for coalescing persistence
// writes. Rapid successive mutations inside the window produce one write.
const DefaultDebounce = 500 * time.Millisecond

// Session is the live editing context for exactly one open document: the
// element tree, its undo/redo history, the current selection, and the
// debounced flush to the persistence adapter. One logical editor drives one
// session; there is no cross-session locking because concurrent multi-user
// editing is out of scope.
//
// Mutations are synchronous against the in-memory tree; durable writes are
// asynchronous and debounced. A crash inside the debounce window can lose
// the most recent mutations from storage while they stay visible in the
// live session — an accepted trade, not a bug. Open is the only operation
// that flushes pending writes before proceeding.
type Session struct {
	store    repositories.DocumentStore
	logger   *slog.Logger
	debounce time.Duration

	mu         sync.Mutex
	docID      string
	tree       *Tree
	history    *History
	selectedID *string
	dirty      bool
	timer      *time.Timer
}

// NewSession creates a session over the given store. A non-positive debounce
// falls back to DefaultDebounce.
func NewSession(store repositories.DocumentStore, logger *slog.Logger, debounce time.Duration) *Session {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		store:    store,
		logger:   logger,
		debounce: debounce,
		tree:     NewTree(nil),
		history:  NewHistory(nil),
	}
}

// Open switches the session to the given document. Opening the already-open
// document is a no-op. Otherwise the outgoing document's unsaved tail is
// flushed, the in-memory tree, history and selection are cleared
// unconditionally, and the new document's persisted elements are loaded (an
// empty tree when none exist). The unconditional clear before load is the
// mechanism that keeps a newly opened document from inheriting the previous
// document's in-memory state.
//
// A load failure still leaves the session open on an empty tree; the error
// is returned so the caller can surface it.
func (s *Session) Open(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if documentID == s.docID && s.docID != "" {
		return nil
	}

	// Flush the outgoing document before anything else, or its debounced
	// tail would be written under the wrong id after the switch.
	if s.docID != "" && s.tree.Len() > 0 {
		if err := s.flushLocked(ctx); err != nil {
			s.logger.Warn("flush on document switch failed",
				"document_id", s.docID,
				"error", err,
			)
		}
	}

	s.stopTimerLocked()
	s.tree = NewTree(nil)
	s.history = NewHistory(nil)
	s.selectedID = nil
	s.dirty = false
	s.docID = documentID

	elements, err := s.store.GetElements(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.history = NewHistory(nil)
			return nil
		}
		return fmt.Errorf("load elements for %s: %w", documentID, &domain.PersistenceError{Message: err.Error()})
	}

	s.tree = NewTree(elements)
	s.history = NewHistory(elements)
	return nil
}

// DocumentID returns the id of the open document, empty when none is open.
func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}

// AddElement appends a new element, records a history snapshot and schedules
// a debounced flush.
func (s *Session) AddElement(el models.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	if err := s.tree.Add(el); err != nil {
		return err
	}
	s.commitLocked()
	return nil
}

// UpdateElement applies a strict partial update; a missing id is an error,
// never a silent create. Use UpsertElement for paste/restore flows.
func (s *Session) UpdateElement(id string, patch *models.ElementPatch) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOpenLocked(); err != nil {
		return models.Element{}, err
	}
	el, err := s.tree.Update(id, patch)
	if err != nil {
		return models.Element{}, err
	}
	s.commitLocked()
	return el, nil
}

// UpsertElement applies a partial update, creating the element from defaults
// when the id is unknown.
func (s *Session) UpsertElement(id string, patch *models.ElementPatch) (models.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOpenLocked(); err != nil {
		return models.Element{}, err
	}
	el := s.tree.Upsert(id, patch)
	s.commitLocked()
	return el, nil
}

// DeleteElement removes the element with the given id. A missing id is a
// reported no-op: no history entry, no flush. Deleting the selected element
// clears the selection.
func (s *Session) DeleteElement(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docID == "" {
		return false
	}
	if !s.tree.Delete(id) {
		s.logger.Debug("delete of missing element ignored", "element_id", id)
		return false
	}
	if s.selectedID != nil && *s.selectedID == id {
		s.selectedID = nil
	}
	s.commitLocked()
	return true
}

// Undo replaces the tree wholesale with the previous history snapshot.
// Moving the cursor is not a new edit: no history entry is pushed, but the
// restored state is scheduled for persistence. Returns false when there is
// nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.tree.Replace(snapshot)
	s.dirty = true
	s.scheduleFlushLocked()
	return true
}

// Redo replaces the tree wholesale with the next history snapshot. Returns
// false when there is nothing to redo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.tree.Replace(snapshot)
	s.dirty = true
	s.scheduleFlushLocked()
	return true
}

// CanUndo reports whether an undo step is available.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Select marks an element as the current selection. An empty id clears the
// selection. Selection changes are transient: they never push history and
// never schedule a flush.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.selectedID = nil
		return
	}
	s.selectedID = &id
}

// Selected returns the id of the selected element, nil when none.
func (s *Session) Selected() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == nil {
		return nil
	}
	id := *s.selectedID
	return &id
}

// Elements returns a deep copy of the current element sequence.
func (s *Session) Elements() []models.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Elements()
}

// Roots returns the root-level elements in insertion order.
func (s *Session) Roots() []models.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Roots()
}

// Children returns the children of the given parent in insertion order.
func (s *Session) Children(parentID string) []models.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Children(parentID)
}

// Flush cancels any pending debounced write and persists the tree now.
// In-memory state is untouched either way; a persistence failure leaves the
// session dirty so a later flush retries the write.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

// Clear empties the tree, resets history to a single empty snapshot and
// removes the persisted element set of the open document. The document
// metadata survives: the document stays open in the editor, just blank.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOpenLocked(); err != nil {
		return err
	}

	s.stopTimerLocked()
	s.tree = NewTree(nil)
	s.history = NewHistory(nil)
	s.selectedID = nil
	s.dirty = false

	if err := s.store.SaveElements(ctx, s.docID, nil); err != nil {
		return fmt.Errorf("clear persisted elements for %s: %w", s.docID, &domain.PersistenceError{Message: err.Error()})
	}
	return nil
}

// Dirty reports whether mutations are awaiting a flush.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) requireOpenLocked() error {
	if s.docID == "" {
		return fmt.Errorf("%w: no document open", domain.ErrValidation)
	}
	return nil
}

// commitLocked records the post-mutation snapshot and schedules the
// debounced write. Exactly one history entry per material mutation.
func (s *Session) commitLocked() {
	s.history.Push(s.tree.Elements())
	s.dirty = true
	s.scheduleFlushLocked()
}

func (s *Session) scheduleFlushLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushAsync)
}

// flushAsync runs on timer expiry. Failures are logged, never fatal: the
// editor stays usable when the backing store is unavailable, and the dirty
// flag keeps the data eligible for the next flush.
func (s *Session) flushAsync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(context.Background()); err != nil {
		s.logger.Warn("debounced flush failed",
			"document_id", s.docID,
			"error", err,
		)
	}
}

func (s *Session) flushLocked(ctx context.Context) error {
	s.stopTimerLocked()
	if !s.dirty || s.docID == "" {
		return nil
	}
	if err := s.store.SaveElements(ctx, s.docID, s.tree.Elements()); err != nil {
		return fmt.Errorf("save elements for %s: %w", s.docID, &domain.PersistenceError{Message: err.Error()})
	}
	s.dirty = false
	s.logger.Debug("elements flushed",
		"document_id", s.docID,
		"count", s.tree.Len(),
	)
	return nil
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
