package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
)

// maxSlugProbes bounds the suffix search before falling back to a
// timestamp-suffixed slug that is unique at that instant.
const maxSlugProbes = 100

// maxCustomNameLength bounds the user-supplied share name.
const maxCustomNameLength = 120

// Issuer manages the public access credential of a document: an opaque token
// plus a unique human-readable slug, with optional expiry. State machine per
// document: unshared → shared → (expired) → revoked/unshared.
//
// Slug uniqueness is global across all kinds, because /share/{slug} carries
// no kind discriminator. Issue/update/revoke touch only the share sub-record
// and are safe to run concurrently with tree editing.
type Issuer struct {
	stores map[models.DocumentKind]repositories.DocumentStore
	order  []models.DocumentKind
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the issuer's time source. Tests use this to advance a
// logical clock past an expiry date.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates an issuer over the per-kind stores. Resolution probes
// stores in a fixed order (projects first, then templates) so lookups are
// deterministic.
func NewIssuer(stores map[models.DocumentKind]repositories.DocumentStore, logger *slog.Logger, opts ...Option) *Issuer {
	i := &Issuer{
		stores: stores,
		logger: logger,
		now:    time.Now,
	}
	for _, kind := range []models.DocumentKind{models.KindProject, models.KindTemplate} {
		if _, ok := stores[kind]; ok {
			i.order = append(i.order, kind)
		}
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue mints a fresh credential for the document: a globally unique opaque
// token and a slug derived from customName, probed to uniqueness. A nil
// expiryDays means the link never expires. Re-issuing on an already shared
// document rotates both token and slug.
func (i *Issuer) Issue(ctx context.Context, kind models.DocumentKind, documentID, customName string, expiryDays *int) (*models.ShareRecord, error) {
	store, err := i.storeFor(kind)
	if err != nil {
		return nil, err
	}

	if err := validation.Validate(customName,
		validation.Required.Error("custom name is required"),
		validation.Length(1, maxCustomNameLength),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if expiryDays != nil && *expiryDays < 1 {
		return nil, fmt.Errorf("%w: expiry days must be positive", domain.ErrValidation)
	}

	// Document must exist before a credential is minted.
	if _, err := store.Get(ctx, documentID); err != nil {
		return nil, err
	}

	slug, err := i.uniqueSlug(ctx, Slugify(customName))
	if err != nil {
		return nil, err
	}

	record := &models.ShareRecord{
		Token:      i.newToken(documentID),
		Slug:       slug,
		CustomName: customName,
		ExpiresAt:  i.expiryFrom(expiryDays),
		Public:     true,
	}

	if err := store.SetShare(ctx, documentID, record); err != nil {
		return nil, err
	}

	i.logger.Info("share link issued",
		"kind", kind,
		"document_id", documentID,
		"slug", slug,
	)
	return record, nil
}

// Update rewrites parts of an existing credential. The document must already
// be shared. A nil customName leaves name and slug unchanged; a changed name
// regenerates the slug with the same probing. Expiry sentinel convention:
// nil leaves expiry unchanged, explicit 0 clears it (never expires), a
// positive value recomputes it from now.
func (i *Issuer) Update(ctx context.Context, kind models.DocumentKind, documentID string, customName *string, expiryDays *int) (*models.ShareRecord, error) {
	store, err := i.storeFor(kind)
	if err != nil {
		return nil, err
	}

	doc, err := store.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Share == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("document %s has no share link", documentID)}
	}

	record := *doc.Share

	if customName != nil {
		if err := validation.Validate(*customName,
			validation.Required.Error("custom name is required"),
			validation.Length(1, maxCustomNameLength),
		); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if *customName != record.CustomName {
			slug, err := i.uniqueSlug(ctx, Slugify(*customName))
			if err != nil {
				return nil, err
			}
			record.CustomName = *customName
			record.Slug = slug
		}
	}

	if expiryDays != nil {
		switch {
		case *expiryDays < 0:
			return nil, fmt.Errorf("%w: expiry days must not be negative", domain.ErrValidation)
		case *expiryDays == 0:
			record.ExpiresAt = nil
		default:
			record.ExpiresAt = i.expiryFrom(expiryDays)
		}
	}

	if err := store.SetShare(ctx, documentID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Revoke clears the document's share sub-record. Revoking an unshared
// document is a no-op, so the operation is idempotent.
func (i *Issuer) Revoke(ctx context.Context, kind models.DocumentKind, documentID string) error {
	store, err := i.storeFor(kind)
	if err != nil {
		return err
	}

	if err := store.SetShare(ctx, documentID, nil); err != nil {
		return err
	}

	i.logger.Info("share link revoked",
		"kind", kind,
		"document_id", documentID,
	)
	return nil
}

// ResolveBySlug looks up the shared document behind a slug. A revoked or
// never-issued slug resolves as NotFound; a link past its expiry resolves as
// Expired, a distinct outcome so callers can render "this link has expired"
// instead of a 404.
func (i *Issuer) ResolveBySlug(ctx context.Context, slug string) (*models.Document, error) {
	return i.resolve(ctx, func(store repositories.DocumentStore) (*models.Document, error) {
		return store.FindBySlug(ctx, slug)
	}, "slug "+slug)
}

// ResolveByToken looks up the shared document behind an opaque token, with
// the same revoked/expired semantics as ResolveBySlug. The token remains a
// valid fallback identifier after a slug exists; consumers should redirect
// token access to the canonical slug URL.
func (i *Issuer) ResolveByToken(ctx context.Context, token string) (*models.Document, error) {
	return i.resolve(ctx, func(store repositories.DocumentStore) (*models.Document, error) {
		return store.FindByToken(ctx, token)
	}, "token")
}

func (i *Issuer) resolve(ctx context.Context, find func(repositories.DocumentStore) (*models.Document, error), what string) (*models.Document, error) {
	for _, kind := range i.order {
		doc, err := find(i.stores[kind])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if doc.Share == nil || !doc.Share.Public {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("share %s not found", what)}
		}
		if doc.Share.Expired(i.now()) {
			return nil, &domain.ExpiredError{Message: fmt.Sprintf("share %s has expired", what)}
		}
		doc.Kind = kind
		return doc, nil
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("share %s not found", what)}
}

// uniqueSlug probes base, base-1, base-2, ... across every kind's namespace
// until a free slug is found. After maxSlugProbes collisions it falls back
// to a timestamp suffix, unique at that instant.
func (i *Issuer) uniqueSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		// Name normalized to nothing (all symbols); keep the URL readable.
		base = "page"
	}

	for n := 0; n <= maxSlugProbes; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		taken, err := i.slugTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	fallback := fmt.Sprintf("%s-%d", base, i.now().UnixMilli())
	i.logger.Warn("slug probes exhausted, using timestamp fallback",
		"base", base,
		"slug", fallback,
	)
	return fallback, nil
}

func (i *Issuer) slugTaken(ctx context.Context, slug string) (bool, error) {
	for _, kind := range i.order {
		_, err := i.stores[kind].FindBySlug(ctx, slug)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}

// newToken builds an opaque credential combining the document id, randomness
// and a timestamp component. Unguessable enough for share links; not a
// substitute for authentication.
func (i *Issuer) newToken(documentID string) string {
	return fmt.Sprintf("%s-%s-%d", documentID, uuid.NewString(), i.now().UnixNano())
}

func (i *Issuer) expiryFrom(expiryDays *int) *time.Time {
	if expiryDays == nil || *expiryDays == 0 {
		return nil
	}
	exp := i.now().AddDate(0, 0, *expiryDays)
	return &exp
}

func (i *Issuer) storeFor(kind models.DocumentKind) (repositories.DocumentStore, error) {
	store, ok := i.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown document kind %q", domain.ErrValidation, kind)
	}
	return store, nil
}
