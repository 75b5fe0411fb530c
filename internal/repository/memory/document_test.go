package memory

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
)

func newStore(kind models.DocumentKind) repositories.DocumentStore {
	return NewDocumentStore(kind, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDocumentStore_CreateFillsDefaults(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)

	doc := &models.Document{Name: "My Landing Page"}
	require.NoError(t, store.Create(ctx, doc))

	assert.NotEmpty(t, doc.ID, "id generated when absent")
	assert.Equal(t, models.KindProject, doc.Kind)
	assert.Equal(t, models.StatusDraft, doc.Status)
	assert.Equal(t, "My Landing Page", doc.Settings.Title, "title mirrors name")
	assert.False(t, doc.CreatedAt.IsZero())
	assert.False(t, doc.UpdatedAt.IsZero())

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestDocumentStore_CreateKeepsExplicitFields(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindTemplate)

	doc := &models.Document{
		ID:   "landing-basic",
		Name: "Basic Landing Page",
		Settings: models.DocumentSettings{
			Title:       "Custom Title",
			Description: "A template",
		},
	}
	require.NoError(t, store.Create(ctx, doc))

	got, err := store.Get(ctx, "landing-basic")
	require.NoError(t, err)
	assert.Equal(t, "Custom Title", got.Settings.Title)
	assert.Equal(t, models.KindTemplate, got.Kind)
}

func TestDocumentStore_CreateDuplicateIDConflicts(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)

	require.NoError(t, store.Create(ctx, &models.Document{ID: "dup", Name: "First"}))

	err := store.Create(ctx, &models.Document{ID: "dup", Name: "Second"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDocumentStore_UpdateMergesPartialFields(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)

	doc := &models.Document{ID: "doc-1", Name: "Before"}
	require.NoError(t, store.Create(ctx, doc))

	name := "After"
	got, err := store.Update(ctx, "doc-1", &models.DocumentPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, models.StatusDraft, got.Status, "unpatched fields untouched")

	_, err = store.Update(ctx, "missing", &models.DocumentPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteRemovesMetadataAndElements(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)

	require.NoError(t, store.Create(ctx, &models.Document{ID: "doc-1", Name: "Doomed"}))
	require.NoError(t, store.SaveElements(ctx, "doc-1", []models.Element{models.DefaultElement("e1")}))

	require.NoError(t, store.Delete(ctx, "doc-1"))

	_, err := store.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetElements(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "doc-1"), domain.ErrNotFound)
}

func TestDocumentStore_ElementsRoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)
	require.NoError(t, store.Create(ctx, &models.Document{ID: "doc-1", Name: "Page"}))

	el := models.DefaultElement("e1")
	el.Styles = map[string]any{"color": "red"}
	saved := []models.Element{el}
	require.NoError(t, store.SaveElements(ctx, "doc-1", saved))

	// Mutating the caller's slice after save must not leak into the store
	saved[0].Styles["color"] = "blue"

	got, err := store.GetElements(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "red", got[0].Styles["color"])

	// And mutating the loaded copy must not leak back either
	got[0].Styles["color"] = "green"
	again, err := store.GetElements(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "red", again[0].Styles["color"])

	assert.ErrorIs(t, store.SaveElements(ctx, "missing", nil), domain.ErrNotFound)
}

func TestDocumentStore_ListOrdersByMostRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)

	require.NoError(t, store.Create(ctx, &models.Document{ID: "old", Name: "Old"}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.Create(ctx, &models.Document{ID: "new", Name: "New"}))

	docs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[1].ID)

	// Touching the older document moves it to the front
	time.Sleep(2 * time.Millisecond)
	name := "Old (edited)"
	_, err = store.Update(ctx, "old", &models.DocumentPatch{Name: &name})
	require.NoError(t, err)

	docs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", docs[0].ID)
}

func TestDocumentStore_ShareRotationDoesNotTouchUpdatedAt(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)

	doc := &models.Document{ID: "doc-1", Name: "Page"}
	require.NoError(t, store.Create(ctx, doc))
	before, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)

	require.NoError(t, store.SetShare(ctx, "doc-1", &models.ShareRecord{
		Token: "tok", Slug: "page", CustomName: "Page", Public: true,
	}))

	after, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	require.NotNil(t, after.Share)
	assert.Equal(t, "page", after.Share.Slug)
}

func TestDocumentStore_FindBySlugAndToken(t *testing.T) {
	ctx := context.Background()
	store := newStore(models.KindProject)

	require.NoError(t, store.Create(ctx, &models.Document{ID: "doc-1", Name: "Page"}))
	require.NoError(t, store.SetShare(ctx, "doc-1", &models.ShareRecord{
		Token: "tok-1", Slug: "my-page", CustomName: "My Page", Public: true,
	}))

	bySlug, err := store.FindBySlug(ctx, "my-page")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", bySlug.ID)

	byToken, err := store.FindByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", byToken.ID)

	_, err = store.FindBySlug(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.FindByToken(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Revocation removes both lookups
	require.NoError(t, store.SetShare(ctx, "doc-1", nil))
	_, err = store.FindBySlug(ctx, "my-page")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.FindByToken(ctx, "tok-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_KindScoping(t *testing.T) {
	ctx := context.Background()
	projects := newStore(models.KindProject)
	templates := newStore(models.KindTemplate)

	assert.Equal(t, models.KindProject, projects.Kind())
	assert.Equal(t, models.KindTemplate, templates.Kind())

	require.NoError(t, projects.Create(ctx, &models.Document{ID: "shared-id", Name: "Project"}))

	// Same id in the other kind's namespace is fine, and invisible across it
	require.NoError(t, templates.Create(ctx, &models.Document{ID: "shared-id", Name: "Template"}))
	_, err := templates.Get(ctx, "shared-id")
	require.NoError(t, err)

	got, err := projects.Get(ctx, "shared-id")
	require.NoError(t, err)
	assert.Equal(t, "Project", got.Name)
}
