package document

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Filter selects documents by metadata. The zero value matches every
// document. All populated conditions must hold together; Domains and Types
// match any of their listed values, Tags matches when the document carries at
// least one of the listed tags, and the time bounds are strict.
type Filter struct {
	Domains          []string
	Types            []Type
	Tags             []string
	EffectivenessMin *float64
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
}

// IsZero reports whether the filter has no conditions.
func (f *Filter) IsZero() bool {
	if f == nil {
		return true
	}
	return len(f.Domains) == 0 && len(f.Types) == 0 && len(f.Tags) == 0 &&
		f.EffectivenessMin == nil && f.CreatedAfter == nil && f.CreatedBefore == nil
}

// Matches reports whether doc satisfies every condition of the filter. A
// document without an effectiveness value never satisfies EffectivenessMin.
func (f *Filter) Matches(doc *Document) bool {
	if doc == nil {
		return false
	}
	if f.IsZero() {
		return true
	}
	if len(f.Domains) > 0 && !slices.Contains(f.Domains, doc.Metadata.Domain) {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, doc.Metadata.Type) {
		return false
	}
	if len(f.Tags) > 0 {
		any := false
		for _, tag := range f.Tags {
			if doc.Metadata.HasTag(tag) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if f.EffectivenessMin != nil {
		eff := doc.Metadata.Effectiveness
		if eff == nil || *eff < *f.EffectivenessMin {
			return false
		}
	}
	if f.CreatedAfter != nil && !doc.Metadata.Created.After(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && !doc.Metadata.Created.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

// Key returns a canonical serialization of the filter. Set-valued conditions
// are sorted so logically equal filters produce equal keys.
func (f *Filter) Key() string {
	if f.IsZero() {
		return ""
	}
	var b strings.Builder
	writeSet := func(prefix string, values []string) {
		if len(values) == 0 {
			return
		}
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		b.WriteString(prefix)
		b.WriteString(strings.Join(sorted, ","))
		b.WriteByte(';')
	}
	writeSet("d=", f.Domains)
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		writeSet("t=", types)
	}
	writeSet("g=", f.Tags)
	if f.EffectivenessMin != nil {
		b.WriteString("e=")
		b.WriteString(strconv.FormatFloat(*f.EffectivenessMin, 'f', 4, 64))
		b.WriteByte(';')
	}
	if f.CreatedAfter != nil {
		b.WriteString("a=")
		b.WriteString(strconv.FormatInt(f.CreatedAfter.UnixNano(), 10))
		b.WriteByte(';')
	}
	if f.CreatedBefore != nil {
		b.WriteString("b=")
		b.WriteString(strconv.FormatInt(f.CreatedBefore.UnixNano(), 10))
		b.WriteByte(';')
	}
	return b.String()
}
