package etl

import (
	"slices"

	"github.com/samber/lo"
)

// ── Field Schema ───────────────────────────────────────────
// Per-field operator configuration derived from the keys of the first
// record. Persisted between sessions by the configuration store.

// Field configures how one record key is rendered.
type Field struct {
	Key    string   `json:"key"`
	Suffix string   `json:"suffix"`
	Mark   MarkKind `json:"mark"`
}

// Schema is the ordered list of field configurations.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field keys.
func (s *Schema) FieldNames() []string {
	if s == nil {
		return nil
	}
	return lo.Map(s.Fields, func(f Field, _ int) string { return f.Key })
}

// Field returns the configuration for key.
func (s *Schema) Field(key string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Fields {
		if s.Fields[i].Key == key {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// SameKeys reports whether both schemas carry the same ordered key sequence.
func (s *Schema) SameKeys(o *Schema) bool {
	return slices.Equal(s.FieldNames(), o.FieldNames())
}

// Clone returns an independent copy.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	return &Schema{Fields: slices.Clone(s.Fields)}
}

// InferSchema builds a fresh schema from the keys of the first record.
// Every field starts with an empty suffix and no mark.
func InferSchema(c Collection) *Schema {
	if len(c) == 0 {
		return &Schema{}
	}
	keys := c[0].Keys()
	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Field{Key: k, Mark: MarkUnset}
	}
	return &Schema{Fields: fields}
}

// Reconcile decides which schema survives a re-import. The existing one,
// operator edits included, is kept when its ordered keys match the inferred
// ones; otherwise the inferred schema replaces it.
func Reconcile(existing, inferred *Schema) (*Schema, bool) {
	if existing != nil && len(existing.Fields) > 0 && existing.SameKeys(inferred) {
		return existing, false
	}
	return inferred, true
}
