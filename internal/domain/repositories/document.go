package repositories

import (
	"context"

	"pagecraft/internal/domain/models"
)

// DocumentStore defines the persistence contract for one document kind.
// An instance is scoped to a single kind (project or template), so document
// ids and slugs from different kinds never collide even when equal.
//
// All operations are safe to retry on transient failure. No cross-record
// transactionality is guaranteed between Update and SaveElements; a crash
// between the two may leave metadata and elements inconsistent, which is
// acceptable for this durability tier.
type DocumentStore interface {
	// Kind returns the document kind this store is scoped to
	Kind() models.DocumentKind

	// List retrieves all documents of this kind, ordered by updated_at DESC
	List(ctx context.Context) ([]models.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*models.Document, error)

	// Create persists a new document, filling defaults for missing metadata
	// (title mirrors name, empty CSS/JS, draft status) and generating an id
	// when the caller did not supply one. The stored record is written back
	// into doc.
	Create(ctx context.Context, doc *models.Document) error

	// Update merges partial fields into an existing record and refreshes
	// the updated_at timestamp. Returns ErrNotFound if the id is absent.
	Update(ctx context.Context, id string, patch *models.DocumentPatch) (*models.Document, error)

	// Delete removes both the document metadata and its persisted element
	// set. Returns ErrNotFound if the id is absent.
	Delete(ctx context.Context, id string) error

	// GetElements loads the persisted element sequence for a document.
	// A document with no saved elements yields an empty slice, not an error.
	GetElements(ctx context.Context, id string) ([]models.Element, error)

	// SaveElements replaces the persisted element sequence for a document
	SaveElements(ctx context.Context, id string, elements []models.Element) error

	// SetShare replaces the document's share sub-record. A nil record
	// revokes sharing. Returns ErrNotFound if the id is absent.
	SetShare(ctx context.Context, id string, share *models.ShareRecord) error

	// FindBySlug retrieves the document whose share record carries the slug.
	// Returns ErrNotFound if no document matches.
	FindBySlug(ctx context.Context, slug string) (*models.Document, error)

	// FindByToken retrieves the document whose share record carries the token.
	// Returns ErrNotFound if no document matches.
	FindByToken(ctx context.Context, token string) (*models.Document, error)
}
