package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
)

// MaxDocumentNameLength bounds user-supplied document names.
const MaxDocumentNameLength = 200

// CreateDocumentRequest is the payload for creating a project or template.
// ID is optional; the store generates one when absent. SeedElements lets
// "new page from template" flows persist an initial element set atomically
// with creation.
type CreateDocumentRequest struct {
	ID           string                   `json:"id,omitempty"`
	Name         string                   `json:"name"`
	Settings     *models.DocumentSettings `json:"settings,omitempty"`
	SeedElements []models.Element         `json:"elements,omitempty"`
}

// DocumentService owns document metadata lifecycle across both kinds:
// creation with defaults, partial updates, publishing transitions, deletion.
// Element editing goes through the editor session, not here.
type DocumentService struct {
	stores map[models.DocumentKind]repositories.DocumentStore
	logger *slog.Logger
}

// NewDocumentService creates a document service over the per-kind stores.
func NewDocumentService(stores map[models.DocumentKind]repositories.DocumentStore, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		stores: stores,
		logger: logger,
	}
}

// Create validates the request and persists a new document. When the
// request carries seed elements they are saved immediately after the
// metadata record; a failure between the two leaves a document with empty
// elements, consistent with this tier's no-transactionality contract.
func (s *DocumentService) Create(ctx context.Context, kind models.DocumentKind, req *CreateDocumentRequest) (*models.Document, error) {
	store, err := s.storeFor(kind)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, MaxDocumentNameLength),
		),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc := &models.Document{
		ID:   req.ID,
		Name: req.Name,
	}
	if req.Settings != nil {
		doc.Settings = *req.Settings
	}

	if err := store.Create(ctx, doc); err != nil {
		return nil, err
	}

	if len(req.SeedElements) > 0 {
		if err := store.SaveElements(ctx, doc.ID, req.SeedElements); err != nil {
			return nil, err
		}
	}

	s.logger.Info("document created",
		"kind", kind,
		"document_id", doc.ID,
		"name", doc.Name,
	)
	return doc, nil
}

// List retrieves all documents of a kind, most recently updated first.
func (s *DocumentService) List(ctx context.Context, kind models.DocumentKind) ([]models.Document, error) {
	store, err := s.storeFor(kind)
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

// Get retrieves a document by id.
func (s *DocumentService) Get(ctx context.Context, kind models.DocumentKind, id string) (*models.Document, error) {
	store, err := s.storeFor(kind)
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// GetElements loads the persisted element sequence of a document.
func (s *DocumentService) GetElements(ctx context.Context, kind models.DocumentKind, id string) ([]models.Element, error) {
	store, err := s.storeFor(kind)
	if err != nil {
		return nil, err
	}
	return store.GetElements(ctx, id)
}

// Update applies a validated partial metadata update.
func (s *DocumentService) Update(ctx context.Context, kind models.DocumentKind, id string, patch *models.DocumentPatch) (*models.Document, error) {
	store, err := s.storeFor(kind)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := validation.Validate(*patch.Name,
			validation.Required,
			validation.Length(1, MaxDocumentNameLength),
		); err != nil {
			return nil, fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
		}
	}
	if patch.Status != nil && *patch.Status != models.StatusDraft && *patch.Status != models.StatusPublished {
		return nil, fmt.Errorf("%w: invalid status %q", domain.ErrValidation, *patch.Status)
	}

	return store.Update(ctx, id, patch)
}

// Publish moves a document into published status, making it eligible for
// public traffic.
func (s *DocumentService) Publish(ctx context.Context, kind models.DocumentKind, id string) (*models.Document, error) {
	status := models.StatusPublished
	return s.Update(ctx, kind, id, &models.DocumentPatch{Status: &status})
}

// Unpublish moves a document back to draft status.
func (s *DocumentService) Unpublish(ctx context.Context, kind models.DocumentKind, id string) (*models.Document, error) {
	status := models.StatusDraft
	return s.Update(ctx, kind, id, &models.DocumentPatch{Status: &status})
}

// Delete removes the document metadata and its element set.
func (s *DocumentService) Delete(ctx context.Context, kind models.DocumentKind, id string) error {
	store, err := s.storeFor(kind)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("document deleted", "kind", kind, "document_id", id)
	return nil
}

func (s *DocumentService) storeFor(kind models.DocumentKind) (repositories.DocumentStore, error) {
	store, ok := s.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, kind)
	}
	return store, nil
}
