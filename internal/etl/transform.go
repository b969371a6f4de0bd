package etl

import (
	"fmt"
	"strings"
)

// ── Transformer ────────────────────────────────────────────
// Transformers rewrite one record in-flight between import and binding.
// They are composable: each takes a record and returns the modified
// record plus whether to keep it.
//
// Pattern: Benthos processor chain.

// Transformer processes a single record.
// Returns (transformed record, keep). If keep is false, the record is dropped.
type Transformer interface {
	Transform(Record) (Record, bool)
}

// TransformerFunc adapts a plain function to the Transformer interface.
type TransformerFunc func(Record) (Record, bool)

func (f TransformerFunc) Transform(r Record) (Record, bool) { return f(r) }

// ── Built-in Transforms ────────────────────────────────────

// SuffixTransform appends " <suffix>" to a field and trims the result.
// The field is stringified even when Suffix is empty.
type SuffixTransform struct {
	Key    string
	Suffix string
}

func (t *SuffixTransform) Transform(r Record) (Record, bool) {
	v, ok := r.Get(t.Key)
	if !ok {
		return r, true
	}
	r.Set(t.Key, strings.TrimSpace(ValueString(v)+" "+t.Suffix))
	return r, true
}

// MaskTransform applies a registered mask to an already stringified field.
type MaskTransform struct {
	Key  string
	Mask MaskFunc
}

func (t *MaskTransform) Transform(r Record) (Record, bool) {
	v, ok := r.Get(t.Key)
	if !ok {
		return r, true
	}
	r.Set(t.Key, t.Mask(ValueString(v)))
	return r, true
}

// ── Pipeline ───────────────────────────────────────────────

// BuildTransformers turns a schema into a transformer chain: for each field,
// suffix first, then the mask when one is set. Unknown marks fall back to
// identity and are returned as warnings.
func BuildTransformers(s *Schema) ([]Transformer, []Warning) {
	if s == nil {
		return nil, nil
	}
	var (
		ts    []Transformer
		warns []Warning
	)
	for _, f := range s.Fields {
		ts = append(ts, &SuffixTransform{Key: f.Key, Suffix: f.Suffix})
		if f.Mark == "" || f.Mark == MarkUnset {
			continue
		}
		mask, err := GetMask(f.Mark)
		if err != nil {
			warns = append(warns, Warning{
				Kind:   WarnUnknownMark,
				Detail: fmt.Sprintf("field %q: %s", f.Key, err),
			})
			continue
		}
		ts = append(ts, &MaskTransform{Key: f.Key, Mask: mask})
	}
	return ts, warns
}

// ApplySchema runs the schema's transformer chain over a copy of c.
// Keys without a schema entry keep their raw value. Inputs are not mutated.
func ApplySchema(c Collection, s *Schema) (Collection, []Warning) {
	ts, warns := BuildTransformers(s)
	out := make(Collection, 0, len(c))
	for _, rec := range c {
		transformed, keep := ApplyTransformers(rec.Clone(), ts)
		if keep {
			out = append(out, transformed)
		}
	}
	return out, warns
}

// ApplyTransformers runs a chain of transformers on a record.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}
