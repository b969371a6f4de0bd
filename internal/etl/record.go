package etl

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ── Record ─────────────────────────────────────────────────
// One imported data row. Keys keep the order they had in the JSON
// payload so the inferred schema follows first-seen key order.
//
// Values are scalars (string, float64, bool, nil). Anything nested is
// carried as-is and rendered as JSON when stringified.

// Record is a single row of data flowing through the pipeline.
type Record struct {
	Data *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{Data: orderedmap.New[string, any]()}
}

// RecordOf builds a record from alternating key/value pairs.
// It panics on an odd argument count or a non-string key.
func RecordOf(kv ...any) Record {
	if len(kv)%2 != 0 {
		panic("etl.RecordOf: odd number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("etl.RecordOf: key %v is not a string", kv[i]))
		}
		r.Set(k, kv[i+1])
	}
	return r
}

// Len returns the number of keys.
func (r Record) Len() int {
	if r.Data == nil {
		return 0
	}
	return r.Data.Len()
}

// Keys returns the keys in insertion order.
func (r Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	if r.Data == nil {
		return keys
	}
	for p := r.Data.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Get returns the raw value stored under key.
func (r Record) Get(key string) (any, bool) {
	if r.Data == nil {
		return nil, false
	}
	return r.Data.Get(key)
}

// Set stores a value, keeping the original position of an existing key.
func (r Record) Set(key string, v any) {
	r.Data.Set(key, v)
}

// Clone returns a shallow copy with its own key order.
func (r Record) Clone() Record {
	out := NewRecord()
	if r.Data == nil {
		return out
	}
	for p := r.Data.Oldest(); p != nil; p = p.Next() {
		out.Data.Set(p.Key, p.Value)
	}
	return out
}

// String returns the value under key rendered for a text element.
func (r Record) String(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	return ValueString(v), true
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.Data == nil {
		return []byte("{}"), nil
	}
	return r.Data.MarshalJSON()
}

func (r *Record) UnmarshalJSON(b []byte) error {
	r.Data = orderedmap.New[string, any]()
	return r.Data.UnmarshalJSON(b)
}

// ValueString converts a record value to its text form.
// nil renders as the empty string; nested values render as JSON.
func ValueString(v any) string {
	switch v.(type) {
	case nil:
		return ""
	case map[string]any, []any, *orderedmap.OrderedMap[string, any]:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// ── Collection ─────────────────────────────────────────────

// Collection is an ordered, index-addressable set of records.
// After a successful Import it is never empty.
type Collection []Record

// Clone deep-copies every record.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, r := range c {
		out[i] = r.Clone()
	}
	return out
}
