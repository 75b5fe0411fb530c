package models

import (
	"time"
)

// DocumentKind selects the persistence namespace a document lives in.
// Projects (free-form pages) and curated templates never collide even when
// ids coincide, because each kind is backed by its own store instance.
type DocumentKind string

const (
	KindProject  DocumentKind = "project"
	KindTemplate DocumentKind = "template"
)

// DocumentStatus represents the publishing state of a document.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPublished DocumentStatus = "published"
)

// DocumentSettings holds page-level metadata rendered into the published
// page head plus user-supplied CSS/JS overrides.
type DocumentSettings struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CustomCSS   string `json:"custom_css"`
	CustomJS    string `json:"custom_js"`
	Keywords    string `json:"keywords"`
}

// ShareRecord is the public access credential for a document: an opaque
// token, a human-readable unique slug, and an optional expiry. Present only
// once a share link has been issued.
type ShareRecord struct {
	Token      string     `json:"token"`
	Slug       string     `json:"slug"`
	CustomName string     `json:"custom_name"`
	ExpiresAt  *time.Time `json:"expires_at"` // nil = never expires
	Public     bool       `json:"is_publicly_shared"`
}

// Expired reports whether the credential is past its expiry at the given
// instant. A nil ExpiresAt never expires.
func (s *ShareRecord) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// Document is the unit of persistence, editing and sharing: a project or a
// template. Elements are persisted separately (keyed by document id) and are
// not carried on the metadata record.
type Document struct {
	ID        string           `json:"id" db:"id"`
	Kind      DocumentKind     `json:"kind"`
	Name      string           `json:"name" db:"name"`
	Status    DocumentStatus   `json:"status" db:"status"`
	Settings  DocumentSettings `json:"settings" db:"settings"`
	Share     *ShareRecord     `json:"share,omitempty" db:"share"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// IsPublished returns true if the document accepts public traffic.
func (d *Document) IsPublished() bool {
	return d.Status == StatusPublished
}

// Clone returns a deep copy of the document metadata.
func (d *Document) Clone() *Document {
	out := *d
	if d.Share != nil {
		share := *d.Share
		if d.Share.ExpiresAt != nil {
			exp := *d.Share.ExpiresAt
			share.ExpiresAt = &exp
		}
		out.Share = &share
	}
	return &out
}

// DocumentPatch carries a partial metadata update. Nil means "leave
// unchanged". The share sub-record is managed separately
// (DocumentStore.SetShare) because issuance, rotation and revocation are
// independent of metadata edits.
type DocumentPatch struct {
	Name     *string           `json:"name,omitempty"`
	Status   *DocumentStatus   `json:"status,omitempty"`
	Settings *DocumentSettings `json:"settings,omitempty"`
}
