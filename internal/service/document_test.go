package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
	"pagecraft/internal/repository/memory"
)

func newService(t *testing.T) *DocumentService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := map[models.DocumentKind]repositories.DocumentStore{
		models.KindProject:  memory.NewDocumentStore(models.KindProject, logger),
		models.KindTemplate: memory.NewDocumentStore(models.KindTemplate, logger),
	}
	return NewDocumentService(stores, logger)
}

func TestDocumentService_CreateValidatesName(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, models.KindProject, &CreateDocumentRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, models.KindProject, &CreateDocumentRequest{
		Name: strings.Repeat("x", MaxDocumentNameLength+1),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	doc, err := svc.Create(ctx, models.KindProject, &CreateDocumentRequest{Name: "Valid"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, models.StatusDraft, doc.Status)
}

func TestDocumentService_CreateWithSeedElements(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	parent := "hero"
	hero := models.DefaultElement("hero")
	hero.Type = "section"
	heading := models.DefaultElement("hero-heading")
	heading.Type = "heading"
	heading.Content = "Welcome"
	heading.ParentID = &parent

	doc, err := svc.Create(ctx, models.KindProject, &CreateDocumentRequest{
		Name:         "From Template",
		SeedElements: []models.Element{hero, heading},
	})
	require.NoError(t, err)

	elements, err := svc.GetElements(ctx, models.KindProject, doc.ID)
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, "hero", elements[0].ID)
	assert.Equal(t, "Welcome", elements[1].Content)
}

func TestDocumentService_UnknownKindRejected(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	bogus := models.DocumentKind("bogus")

	_, err := svc.Create(ctx, bogus, &CreateDocumentRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.List(ctx, bogus)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Get(ctx, bogus, "id")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, svc.Delete(ctx, bogus, "id"), domain.ErrValidation)
}

func TestDocumentService_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	doc, err := svc.Create(ctx, models.KindProject, &CreateDocumentRequest{Name: "Page"})
	require.NoError(t, err)

	empty := ""
	_, err = svc.Update(ctx, models.KindProject, doc.ID, &models.DocumentPatch{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)

	badStatus := models.DocumentStatus("archived")
	_, err = svc.Update(ctx, models.KindProject, doc.ID, &models.DocumentPatch{Status: &badStatus})
	assert.ErrorIs(t, err, domain.ErrValidation)

	name := "Renamed"
	updated, err := svc.Update(ctx, models.KindProject, doc.ID, &models.DocumentPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestDocumentService_PublishUnpublishTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	doc, err := svc.Create(ctx, models.KindProject, &CreateDocumentRequest{Name: "Page"})
	require.NoError(t, err)
	require.Equal(t, models.StatusDraft, doc.Status)

	published, err := svc.Publish(ctx, models.KindProject, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)

	// Publishing twice is a harmless no-op transition
	published, err = svc.Publish(ctx, models.KindProject, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, published.Status)

	draft, err := svc.Unpublish(ctx, models.KindProject, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)

	_, err = svc.Publish(ctx, models.KindProject, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_KindsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	proj, err := svc.Create(ctx, models.KindProject, &CreateDocumentRequest{Name: "Project"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, models.KindTemplate, &CreateDocumentRequest{Name: "Template"})
	require.NoError(t, err)

	// The project is not visible through the template store
	_, err = svc.Get(ctx, models.KindTemplate, proj.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	projects, err := svc.List(ctx, models.KindProject)
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	doc, err := svc.Create(ctx, models.KindProject, &CreateDocumentRequest{Name: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, models.KindProject, doc.ID))
	_, err = svc.Get(ctx, models.KindProject, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, models.KindProject, doc.ID), domain.ErrNotFound)
}
