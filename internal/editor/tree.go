package editor

import (
	"fmt"

	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
)

// Tree is the in-memory element sequence for one open document. Insertion
// order is significant: siblings render in the order they were added, there
// is no explicit order field. The tree does not enforce a type schema and
// tolerates dangling parent references; renderers treat those as
// root-equivalent.
//
// Tree is not safe for concurrent use; the owning Session serializes access.
type Tree struct {
	elements []models.Element
}

// NewTree creates a tree seeded with the given elements (loaded state).
func NewTree(elements []models.Element) *Tree {
	return &Tree{elements: models.CloneElements(elements)}
}

// Len returns the number of elements in the tree.
func (t *Tree) Len() int {
	return len(t.elements)
}

// Elements returns a deep copy of the full element sequence in order.
func (t *Tree) Elements() []models.Element {
	return models.CloneElements(t.elements)
}

// Replace swaps the whole sequence, used by undo/redo snapshot restore.
func (t *Tree) Replace(elements []models.Element) {
	t.elements = models.CloneElements(elements)
}

// Get returns a copy of the element with the given id.
func (t *Tree) Get(id string) (models.Element, bool) {
	for _, el := range t.elements {
		if el.ID == id {
			return el.Clone(), true
		}
	}
	return models.Element{}, false
}

// Add inserts the element at the end of the sequence. Returns a ConflictError
// if the id is already present; callers pre-generate unique ids.
func (t *Tree) Add(el models.Element) error {
	for _, existing := range t.elements {
		if existing.ID == el.ID {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("element %s already exists", el.ID),
				ResourceType: "element",
				ResourceID:   el.ID,
			}
		}
	}
	t.elements = append(t.elements, el.Clone())
	return nil
}

// Update shallow-merges the patch into the element with the given id.
// Fields absent from the patch are preserved. Returns ErrNotFound if the id
// is absent; use Upsert for the permissive create-on-missing flow.
func (t *Tree) Update(id string, patch *models.ElementPatch) (models.Element, error) {
	for i, el := range t.elements {
		if el.ID == id {
			t.elements[i] = patch.Apply(el)
			return t.elements[i].Clone(), nil
		}
	}
	return models.Element{}, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
}

// Upsert behaves like Update when the id exists. When it does not, a new
// element is created from defaults merged with the patch and appended to the
// sequence. Editors rely on this for paste and restore flows, where the
// element arrives as a patch against an id the tree has never seen.
func (t *Tree) Upsert(id string, patch *models.ElementPatch) models.Element {
	if el, err := t.Update(id, patch); err == nil {
		return el
	}
	el := patch.Apply(models.DefaultElement(id))
	t.elements = append(t.elements, el)
	return el.Clone()
}

// Delete removes the element with the given id. Returns false when the id is
// absent: a reported no-op, not an error. Deleting a parent does NOT cascade
// to its children; they keep their (now dangling) parent reference and are
// treated as root-equivalent by renderers. Cascade deletion, when wanted, is
// an opt-in traversal in the caller.
func (t *Tree) Delete(id string) bool {
	for i, el := range t.elements {
		if el.ID == id {
			t.elements = append(t.elements[:i], t.elements[i+1:]...)
			return true
		}
	}
	return false
}

// Children returns the elements whose parent is parentID, preserving
// insertion order.
func (t *Tree) Children(parentID string) []models.Element {
	var out []models.Element
	for _, el := range t.elements {
		if el.ParentID != nil && *el.ParentID == parentID {
			out = append(out, el.Clone())
		}
	}
	return out
}

// Roots returns the elements with no parent, preserving insertion order.
func (t *Tree) Roots() []models.Element {
	var out []models.Element
	for _, el := range t.elements {
		if el.ParentID == nil {
			out = append(out, el.Clone())
		}
	}
	return out
}

// FilterByType returns the elements of the given type, preserving insertion
// order. Used by export and rendering projections (e.g. collecting all forms
// on a page).
func (t *Tree) FilterByType(elementType string) []models.Element {
	var out []models.Element
	for _, el := range t.elements {
		if el.Type == elementType {
			out = append(out, el.Clone())
		}
	}
	return out
}
