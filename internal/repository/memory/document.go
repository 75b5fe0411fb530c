package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
)

// DocumentStore is a map-backed DocumentStore used in tests and as the
// no-database dev fallback. It honors the same contract as the Postgres
// store: kind scoping, defaulting on create, metadata+elements delete
// pairing, share lookups.
type DocumentStore struct {
	kind   models.DocumentKind
	logger *slog.Logger

	mu       sync.RWMutex
	docs     map[string]*models.Document
	elements map[string][]models.Element
}

// NewDocumentStore creates an empty in-memory store scoped to the kind.
func NewDocumentStore(kind models.DocumentKind, logger *slog.Logger) repositories.DocumentStore {
	return &DocumentStore{
		kind:     kind,
		logger:   logger,
		docs:     make(map[string]*models.Document),
		elements: make(map[string][]models.Element),
	}
}

// Kind returns the document kind this store is scoped to.
func (s *DocumentStore) Kind() models.DocumentKind {
	return s.kind
}

// List retrieves all documents, most recently updated first.
func (s *DocumentStore) List(ctx context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, *doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc.Clone(), nil
}

// Create persists a new document, filling defaults for missing metadata.
func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, exists := s.docs[doc.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("document %s already exists", doc.ID),
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}

	applyCreateDefaults(doc, s.kind)

	s.docs[doc.ID] = doc.Clone()
	s.elements[doc.ID] = nil
	return nil
}

// Update merges partial fields into an existing record.
func (s *DocumentStore) Update(ctx context.Context, id string, patch *models.DocumentPatch) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	if patch.Name != nil {
		doc.Name = *patch.Name
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
	}
	if patch.Settings != nil {
		doc.Settings = *patch.Settings
	}
	doc.UpdatedAt = time.Now()

	return doc.Clone(), nil
}

// Delete removes the document metadata and its element set together.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(s.docs, id)
	delete(s.elements, id)
	return nil
}

// GetElements loads the persisted element sequence for a document.
func (s *DocumentStore) GetElements(ctx context.Context, id string) ([]models.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.docs[id]; !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return models.CloneElements(s.elements[id]), nil
}

// SaveElements replaces the persisted element sequence for a document.
func (s *DocumentStore) SaveElements(ctx context.Context, id string, elements []models.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	s.elements[id] = models.CloneElements(elements)
	return nil
}

// SetShare replaces the share sub-record. Metadata timestamps are untouched:
// share rotation is independent of content edits.
func (s *DocumentStore) SetShare(ctx context.Context, id string, share *models.ShareRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if share == nil {
		doc.Share = nil
		return nil
	}
	rec := *share
	doc.Share = &rec
	return nil
}

// FindBySlug retrieves the document whose share record carries the slug.
func (s *DocumentStore) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.Share != nil && doc.Share.Slug == slug {
			return doc.Clone(), nil
		}
	}
	return nil, fmt.Errorf("slug %s: %w", slug, domain.ErrNotFound)
}

// FindByToken retrieves the document whose share record carries the token.
func (s *DocumentStore) FindByToken(ctx context.Context, token string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.Share != nil && doc.Share.Token == token {
			return doc.Clone(), nil
		}
	}
	return nil, fmt.Errorf("token: %w", domain.ErrNotFound)
}

// applyCreateDefaults fills the metadata defaults shared by all store
// implementations: title mirrors name, draft status, fresh timestamps.
func applyCreateDefaults(doc *models.Document, kind models.DocumentKind) {
	doc.Kind = kind
	if doc.Status == "" {
		doc.Status = models.StatusDraft
	}
	if doc.Settings.Title == "" {
		doc.Settings.Title = doc.Name
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
}
