package share

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
	"pagecraft/internal/repository/memory"
)

// fakeClock is an advanceable time source for expiry tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func intPtr(n int) *int {
	return &n
}

func namePtr(s string) *string {
	return &s
}

func newIssuerFixture(t *testing.T) (*Issuer, map[models.DocumentKind]repositories.DocumentStore, *fakeClock) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := map[models.DocumentKind]repositories.DocumentStore{
		models.KindProject:  memory.NewDocumentStore(models.KindProject, logger),
		models.KindTemplate: memory.NewDocumentStore(models.KindTemplate, logger),
	}
	clock := newFakeClock()
	return NewIssuer(stores, logger, WithClock(clock.Now)), stores, clock
}

func createDoc(t *testing.T, stores map[models.DocumentKind]repositories.DocumentStore, kind models.DocumentKind, id string) {
	t.Helper()
	doc := &models.Document{ID: id, Name: "Doc " + id}
	require.NoError(t, stores[kind].Create(context.Background(), doc))
}

func TestIssuer_IssueMintsTokenAndSlug(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	record, err := issuer.Issue(ctx, models.KindProject, "doc-1", "My Cool Page!!", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, record.Token)
	assert.Equal(t, "my-cool-page", record.Slug)
	assert.Equal(t, "My Cool Page!!", record.CustomName)
	assert.Nil(t, record.ExpiresAt)
	assert.True(t, record.Public)

	doc, err := issuer.ResolveBySlug(ctx, "my-cool-page")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, models.KindProject, doc.Kind)
}

func TestIssuer_IssueValidation(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	_, err := issuer.Issue(ctx, models.KindProject, "doc-1", "", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = issuer.Issue(ctx, models.KindProject, "doc-1", "Name", intPtr(0))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = issuer.Issue(ctx, models.KindProject, "missing", "Name", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = issuer.Issue(ctx, models.DocumentKind("bogus"), "doc-1", "Name", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIssuer_SlugCollisionProbesSuffixes(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")
	createDoc(t, stores, models.KindProject, "doc-2")
	createDoc(t, stores, models.KindProject, "doc-3")

	first, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Landing", nil)
	require.NoError(t, err)
	second, err := issuer.Issue(ctx, models.KindProject, "doc-2", "Landing!", nil)
	require.NoError(t, err)
	third, err := issuer.Issue(ctx, models.KindProject, "doc-3", "landing", nil)
	require.NoError(t, err)

	assert.Equal(t, "landing", first.Slug)
	assert.Equal(t, "landing-1", second.Slug)
	assert.Equal(t, "landing-2", third.Slug)
}

func TestIssuer_SlugUniqueAcrossKinds(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "proj-1")
	createDoc(t, stores, models.KindTemplate, "tmpl-1")

	_, err := issuer.Issue(ctx, models.KindProject, "proj-1", "Portfolio", nil)
	require.NoError(t, err)

	// The slug namespace has no kind discriminator, so the template must
	// step aside even though it lives in a different store.
	record, err := issuer.Issue(ctx, models.KindTemplate, "tmpl-1", "Portfolio", nil)
	require.NoError(t, err)
	assert.Equal(t, "portfolio-1", record.Slug)
}

func TestIssuer_SymbolOnlyNameFallsBackToPageSlug(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	record, err := issuer.Issue(ctx, models.KindProject, "doc-1", "!!!", nil)
	require.NoError(t, err)
	assert.Equal(t, "page", record.Slug)
}

func TestIssuer_ExpiredLinkResolvesAsExpiredNotMissing(t *testing.T) {
	ctx := context.Background()
	issuer, stores, clock := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	record, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Short Lived", intPtr(1))
	require.NoError(t, err)
	require.NotNil(t, record.ExpiresAt)

	// Still valid inside the expiry window
	_, err = issuer.ResolveBySlug(ctx, record.Slug)
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)

	_, err = issuer.ResolveBySlug(ctx, record.Slug)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExpired)

	_, err = issuer.ResolveByToken(ctx, record.Token)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestIssuer_RevokedLinkResolvesAsNotFound(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	record, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Soon Gone", nil)
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(ctx, models.KindProject, "doc-1"))

	_, err = issuer.ResolveBySlug(ctx, record.Slug)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = issuer.ResolveByToken(ctx, record.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Revoking again is idempotent
	assert.NoError(t, issuer.Revoke(ctx, models.KindProject, "doc-1"))
}

func TestIssuer_RevokeFreesSlugForReuse(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")
	createDoc(t, stores, models.KindProject, "doc-2")

	first, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Landing", nil)
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(ctx, models.KindProject, "doc-1"))

	second, err := issuer.Issue(ctx, models.KindProject, "doc-2", "Landing", nil)
	require.NoError(t, err)
	assert.Equal(t, first.Slug, second.Slug)
}

func TestIssuer_ReissueRotatesToken(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	first, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Landing", nil)
	require.NoError(t, err)
	second, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Landing", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	// The old credential no longer resolves
	_, err = issuer.ResolveByToken(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = issuer.ResolveByToken(ctx, second.Token)
	assert.NoError(t, err)
}

func TestIssuer_UpdateRegeneratesSlugOnlyWhenNameChanges(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	record, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Landing", nil)
	require.NoError(t, err)

	// Same name: slug untouched
	updated, err := issuer.Update(ctx, models.KindProject, "doc-1", namePtr("Landing"), nil)
	require.NoError(t, err)
	assert.Equal(t, record.Slug, updated.Slug)

	// Nil name: everything untouched
	updated, err = issuer.Update(ctx, models.KindProject, "doc-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, record.Slug, updated.Slug)
	assert.Equal(t, "Landing", updated.CustomName)

	// New name: fresh slug, token preserved
	updated, err = issuer.Update(ctx, models.KindProject, "doc-1", namePtr("Product Tour"), nil)
	require.NoError(t, err)
	assert.Equal(t, "product-tour", updated.Slug)
	assert.Equal(t, record.Token, updated.Token)
}

func TestIssuer_UpdateExpirySentinels(t *testing.T) {
	ctx := context.Background()
	issuer, stores, clock := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	_, err := issuer.Issue(ctx, models.KindProject, "doc-1", "Landing", intPtr(7))
	require.NoError(t, err)

	// nil leaves the expiry in place
	updated, err := issuer.Update(ctx, models.KindProject, "doc-1", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.ExpiresAt)

	// positive recomputes from now
	updated, err = issuer.Update(ctx, models.KindProject, "doc-1", nil, intPtr(30))
	require.NoError(t, err)
	require.NotNil(t, updated.ExpiresAt)
	assert.Equal(t, clock.Now().AddDate(0, 0, 30), *updated.ExpiresAt)

	// explicit zero clears it: the link never expires
	updated, err = issuer.Update(ctx, models.KindProject, "doc-1", nil, intPtr(0))
	require.NoError(t, err)
	assert.Nil(t, updated.ExpiresAt)

	// negative is rejected
	_, err = issuer.Update(ctx, models.KindProject, "doc-1", nil, intPtr(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIssuer_UpdateUnsharedDocumentIsNotFound(t *testing.T) {
	ctx := context.Background()
	issuer, stores, _ := newIssuerFixture(t)
	createDoc(t, stores, models.KindProject, "doc-1")

	_, err := issuer.Update(ctx, models.KindProject, "doc-1", namePtr("Name"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
