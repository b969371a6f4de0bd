package etl

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ── Import ─────────────────────────────────────────────────
// Turns a raw JSON payload into a non-empty Collection.
//
//   object            → one-element collection + NON_ARRAY warning
//   array of objects  → collection; empty objects dropped, EMPTY_OBJECT once
//   anything else     → ErrParse

var (
	// ErrParse marks a payload that cannot become a record collection.
	// Nothing downstream is mutated when Import returns it.
	ErrParse = errors.New("invalid import payload")

	// ErrEmptyCollection is returned when no non-empty record survives. Import
	// wraps it together with ErrParse.
	ErrEmptyCollection = errors.New("no records to import")
)

// WarningKind identifies an advisory condition surfaced to the operator.
type WarningKind string

const (
	WarnNonArray    WarningKind = "NON_ARRAY"
	WarnEmptyObject WarningKind = "EMPTY_OBJECT"
	WarnUnknownMark WarningKind = "UNKNOWN_MARK"
)

// Warning is a non-fatal condition found during import or transform.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

// ImportResult is the outcome of Import.
type ImportResult struct {
	Records  Collection `json:"records"`
	Warnings []Warning  `json:"warnings,omitempty"`
	// Dropped counts records removed for having no keys.
	Dropped int `json:"dropped"`
}

// Has reports whether a warning of the given kind was raised.
func (r *ImportResult) Has(kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// Import parses payload and normalizes it into a record collection.
func Import(payload []byte) (*ImportResult, error) {
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: malformed json", ErrParse)
	}

	value, dataType, _, err := jsonparser.Get(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	res := &ImportResult{}
	var raw [][]byte

	switch dataType {
	case jsonparser.Object:
		res.Warnings = append(res.Warnings, Warning{Kind: WarnNonArray})
		raw = append(raw, value)
	case jsonparser.Array:
		var itemErr error
		_, err := jsonparser.ArrayEach(value, func(item []byte, t jsonparser.ValueType, _ int, _ error) {
			if itemErr != nil {
				return
			}
			if t != jsonparser.Object {
				itemErr = fmt.Errorf("%w: array element %d is %s, want object", ErrParse, len(raw), t)
				return
			}
			raw = append(raw, item)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if itemErr != nil {
			return nil, itemErr
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: %w: empty array", ErrParse, ErrEmptyCollection)
		}
	default:
		return nil, fmt.Errorf("%w: top-level value is %s, want object or array", ErrParse, dataType)
	}

	for i, item := range raw {
		var rec Record
		if err := rec.UnmarshalJSON(item); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrParse, i, err)
		}
		if rec.Len() == 0 {
			if res.Dropped == 0 {
				res.Warnings = append(res.Warnings, Warning{Kind: WarnEmptyObject})
			}
			res.Dropped++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	if len(res.Records) == 0 {
		// Warnings are still returned so the caller can surface them.
		return res, fmt.Errorf("%w: %w", ErrParse, ErrEmptyCollection)
	}
	return res, nil
}
