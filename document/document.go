// Package document defines the vector document model shared across the
// engine: the document itself, its metadata, validation rules, and the
// metadata filter applied by search and listing.
package document

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Type classifies the prompt artifact a document embeds.
type Type string

const (
	TypePrompt   Type = "prompt"
	TypeTemplate Type = "template"
	TypeExample  Type = "example"
	TypeFeedback Type = "feedback"
)

// Valid reports whether t is one of the known document types.
func (t Type) Valid() bool {
	switch t {
	case TypePrompt, TypeTemplate, TypeExample, TypeFeedback:
		return true
	default:
		return false
	}
}

// Metadata carries the descriptive fields attached to a document.
// Effectiveness, when present, must lie in [0,1]. Extra holds open extension
// fields that the engine stores but never interprets.
type Metadata struct {
	Domain        string
	Type          Type
	Created       time.Time
	Updated       time.Time
	Tags          []string
	Effectiveness *float64
	UsageCount    *int
	Extra         map[string]any
}

// HasTag reports whether tag is present in the metadata tag set.
func (m *Metadata) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// Document is a single embedded prompt artifact. Vector length must equal the
// engine dimension; the store L2-normalizes it on write.
type Document struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata Metadata
}

// Clone returns a deep copy of the document. Extension field values are
// copied by reference.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		ID:       d.ID,
		Content:  d.Content,
		Vector:   slices.Clone(d.Vector),
		Metadata: d.Metadata,
	}
	out.Metadata.Tags = slices.Clone(d.Metadata.Tags)
	if d.Metadata.Effectiveness != nil {
		eff := *d.Metadata.Effectiveness
		out.Metadata.Effectiveness = &eff
	}
	if d.Metadata.UsageCount != nil {
		count := *d.Metadata.UsageCount
		out.Metadata.UsageCount = &count
	}
	if d.Metadata.Extra != nil {
		out.Metadata.Extra = maps.Clone(d.Metadata.Extra)
	}
	return out
}

var (
	// ErrNil is returned when a nil document is passed to a write operation.
	ErrNil = errors.New("document is nil")

	// ErrEmptyID is returned when a document has no id.
	ErrEmptyID = errors.New("document id is empty")
)

// DimensionMismatchError indicates a vector whose length differs from the
// engine dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// InvalidTypeError indicates a document type outside the known set.
type InvalidTypeError struct {
	Type Type
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid document type %q", e.Type)
}

// EffectivenessRangeError indicates an effectiveness value outside [0,1].
type EffectivenessRangeError struct {
	Value float64
}

func (e *EffectivenessRangeError) Error() string {
	return fmt.Sprintf("effectiveness %v outside [0,1]", e.Value)
}

// Validate checks the structural invariants of a document against the engine
// dimension dim.
func Validate(d *Document, dim int) error {
	if d == nil {
		return ErrNil
	}
	if d.ID == "" {
		return ErrEmptyID
	}
	if len(d.Vector) != dim {
		return &DimensionMismatchError{Expected: dim, Actual: len(d.Vector)}
	}
	if !d.Metadata.Type.Valid() {
		return &InvalidTypeError{Type: d.Metadata.Type}
	}
	if eff := d.Metadata.Effectiveness; eff != nil && (*eff < 0 || *eff > 1) {
		return &EffectivenessRangeError{Value: *eff}
	}
	return nil
}
