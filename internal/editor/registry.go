package editor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
)

// Registry hands out one Session per (editor, kind) pair, creating sessions
// lazily. There is no ambient "current document" global: every call site gets
// an explicit Session handle, so two editors never share tree state.
type Registry struct {
	stores   map[models.DocumentKind]repositories.DocumentStore
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry over the per-kind stores.
func NewRegistry(stores map[models.DocumentKind]repositories.DocumentStore, logger *slog.Logger, debounce time.Duration) *Registry {
	return &Registry{
		stores:   stores,
		logger:   logger,
		debounce: debounce,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for the given editor and kind, creating it on
// first use. Returns ErrValidation for an unknown kind.
func (r *Registry) Session(editorID string, kind models.DocumentKind) (*Session, error) {
	store, ok := r.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, kind)
	}

	key := editorID + "/" + string(kind)

	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[key]; ok {
		return sess, nil
	}
	sess := NewSession(store, r.logger.With("editor_id", editorID, "kind", kind), r.debounce)
	r.sessions[key] = sess
	return sess, nil
}
