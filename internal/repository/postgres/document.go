package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
)

// DocumentStore implements repositories.DocumentStore on Postgres. One
// instance per document kind, each on its own (environment-prefixed) table,
// so project and template namespaces never collide.
//
// Element sequences, settings and share records are stored as JSONB columns
// on the document row. Deleting the row therefore removes metadata and
// elements in one statement, which is the only cross-record atomicity this
// tier promises.
type DocumentStore struct {
	pool   *pgxpool.Pool
	table  string
	kind   models.DocumentKind
	logger *slog.Logger
}

// NewDocumentStore creates a store scoped to the given kind.
func NewDocumentStore(config *RepositoryConfig, kind models.DocumentKind) repositories.DocumentStore {
	table := config.Tables.Projects
	if kind == models.KindTemplate {
		table = config.Tables.Templates
	}
	return &DocumentStore{
		pool:   config.Pool,
		table:  table,
		kind:   kind,
		logger: config.Logger,
	}
}

// Kind returns the document kind this store is scoped to.
func (s *DocumentStore) Kind() models.DocumentKind {
	return s.kind
}

const documentColumns = "id, name, status, settings, share, created_at, updated_at"

// List retrieves all documents of this kind, most recently updated first.
func (s *DocumentStore) List(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY updated_at DESC
	`, documentColumns, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := s.scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, documentColumns, s.table)

	doc, err := s.scanDocument(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Create persists a new document with defaults for missing metadata and a
// generated id when the caller did not supply one.
func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.Kind = s.kind
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

	settings, err := json.Marshal(doc.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, status, settings, elements, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '[]', $5, $6)
	`, s.table)

	_, err = s.pool.Exec(ctx, query,
		doc.ID,
		doc.Name,
		doc.Status,
		settings,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document %s already exists", doc.ID),
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Update merges partial fields into an existing record and refreshes the
// updated_at timestamp.
func (s *DocumentStore) Update(ctx context.Context, id string, patch *models.DocumentPatch) (*models.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
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

	settings, err := json.Marshal(doc.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, status = $3, settings = $4, updated_at = $5
		WHERE id = $1
	`, s.table)

	tag, err := s.pool.Exec(ctx, query, id, doc.Name, doc.Status, settings, doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// Delete removes the document row, taking metadata and elements with it.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetElements loads the persisted element sequence for a document.
func (s *DocumentStore) GetElements(ctx context.Context, id string) ([]models.Element, error) {
	query := fmt.Sprintf(`SELECT elements FROM %s WHERE id = $1`, s.table)

	var raw []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get elements: %w", err)
	}

	var elements []models.Element
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return elements, nil
}

// SaveElements replaces the persisted element sequence for a document.
func (s *DocumentStore) SaveElements(ctx context.Context, id string, elements []models.Element) error {
	if elements == nil {
		elements = []models.Element{}
	}
	raw, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("encode elements: %w", err)
	}

	query := fmt.Sprintf(`UPDATE %s SET elements = $2 WHERE id = $1`, s.table)

	tag, err := s.pool.Exec(ctx, query, id, raw)
	if err != nil {
		return fmt.Errorf("save elements: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SetShare replaces the share sub-record. updated_at is deliberately left
// alone: credential rotation is not a content edit.
func (s *DocumentStore) SetShare(ctx context.Context, id string, share *models.ShareRecord) error {
	var raw any
	if share != nil {
		encoded, err := json.Marshal(share)
		if err != nil {
			return fmt.Errorf("encode share record: %w", err)
		}
		raw = encoded
	}

	query := fmt.Sprintf(`UPDATE %s SET share = $2 WHERE id = $1`, s.table)

	tag, err := s.pool.Exec(ctx, query, id, raw)
	if err != nil {
		return fmt.Errorf("set share record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// FindBySlug retrieves the document whose share record carries the slug.
func (s *DocumentStore) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE share->>'slug' = $1
	`, documentColumns, s.table)

	doc, err := s.scanDocument(s.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("slug %s: %w", slug, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find by slug: %w", err)
	}
	return doc, nil
}

// FindByToken retrieves the document whose share record carries the token.
func (s *DocumentStore) FindByToken(ctx context.Context, token string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE share->>'token' = $1
	`, documentColumns, s.table)

	doc, err := s.scanDocument(s.pool.QueryRow(ctx, query, token))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find by token: %w", err)
	}
	return doc, nil
}

// scanDocument reads one document row, decoding the JSONB settings and
// share columns.
func (s *DocumentStore) scanDocument(row pgx.Row) (*models.Document, error) {
	var (
		doc         models.Document
		rawSettings []byte
		rawShare    []byte
	)
	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Status,
		&rawSettings,
		&rawShare,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Kind = s.kind
	if len(rawSettings) > 0 {
		if err := json.Unmarshal(rawSettings, &doc.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	if len(rawShare) > 0 {
		var share models.ShareRecord
		if err := json.Unmarshal(rawShare, &share); err != nil {
			return nil, fmt.Errorf("decode share record: %w", err)
		}
		doc.Share = &share
	}
	return &doc, nil
}
