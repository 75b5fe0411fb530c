package models

import (
	"bytes"
	"encoding/json"
)

// Position is a free-form canvas coordinate used by legacy element types
// that are not laid out by the tree (e.g. absolutely positioned stickers).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is one node of a document's content tree. Type is an open set
// (heading, text, image, button, section, column, form, video, ...) and the
// core stays polymorphic over it: Content, Styles and Settings are opaque
// payloads whose meaning depends on Type and is resolved by the renderer.
type Element struct {
	ID       string         `json:"id" db:"id"`
	Type     string         `json:"type" db:"type"`
	Content  string         `json:"content" db:"content"`
	Styles   map[string]any `json:"styles" db:"styles"`
	Settings map[string]any `json:"settings" db:"settings"`
	ParentID *string        `json:"parent_id" db:"parent_id"` // NULL = root level
	Position *Position      `json:"position,omitempty"`
}

// DefaultElement returns the baseline element used when an update targets an
// id that does not exist yet (upsert flow: paste, restore, import).
func DefaultElement(id string) Element {
	return Element{
		ID:       id,
		Type:     "text",
		Content:  "",
		Styles:   map[string]any{},
		Settings: map[string]any{},
	}
}

// Clone returns a deep copy of the element. Styles/Settings maps are copied
// one level deep; nested values are shared, which is safe because patches
// replace whole maps rather than mutating entries in place.
func (e Element) Clone() Element {
	out := e
	if e.Styles != nil {
		out.Styles = make(map[string]any, len(e.Styles))
		for k, v := range e.Styles {
			out.Styles[k] = v
		}
	}
	if e.Settings != nil {
		out.Settings = make(map[string]any, len(e.Settings))
		for k, v := range e.Settings {
			out.Settings[k] = v
		}
	}
	if e.ParentID != nil {
		pid := *e.ParentID
		out.ParentID = &pid
	}
	if e.Position != nil {
		pos := *e.Position
		out.Position = &pos
	}
	return out
}

// CloneElements deep-copies an element sequence, preserving order.
func CloneElements(elements []Element) []Element {
	out := make([]Element, len(elements))
	for i, el := range elements {
		out[i] = el.Clone()
	}
	return out
}

// OptionalParent tracks presence and value for JSON PATCH semantics on the
// nullable parent reference. Go's *string cannot distinguish "field absent"
// from "field null", and both are meaningful here:
//   - Present=false: don't reparent
//   - Present=true, Value=nil: move to root level
//   - Present=true, Value=&id: reparent under id
type OptionalParent struct {
	Present bool
	Value   *string
}

// UnmarshalJSON implements json.Unmarshaler.
// When this method is called, the field was present in the JSON.
func (o *OptionalParent) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON round-trips the tri-state for logging and tests.
func (o OptionalParent) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// ElementPatch carries a partial element update. Nil pointer / nil map means
// "leave unchanged"; a provided Styles or Settings map replaces the previous
// map wholesale (field-level shallow merge, matching editor save payloads
// which always send the full map for a changed field).
type ElementPatch struct {
	Type     *string        `json:"type,omitempty"`
	Content  *string        `json:"content,omitempty"`
	Styles   map[string]any `json:"styles,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
	ParentID OptionalParent `json:"parent_id"`
	Position *Position      `json:"position,omitempty"`
}

// Apply merges the patch into el and returns the result. el itself is not
// modified.
func (p *ElementPatch) Apply(el Element) Element {
	out := el.Clone()
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.Styles != nil {
		out.Styles = p.Styles
	}
	if p.Settings != nil {
		out.Settings = p.Settings
	}
	if p.ParentID.Present {
		if p.ParentID.Value == nil {
			out.ParentID = nil
		} else {
			pid := *p.ParentID.Value
			out.ParentID = &pid
		}
	}
	if p.Position != nil {
		pos := *p.Position
		out.Position = &pos
	}
	return out
}
