// Package binding distributes record values into named text elements.
//
// A pass walks the selection roots in order. A root that is itself a
// text element is bound to the first record. A container root is searched,
// per schema key, for descendants named exactly like the key; in iterate
// mode each further occurrence of a key takes the next record, wrapping
// around, so repeated layout groups receive successive records.
package binding

import (
	"context"
	"errors"
	"fmt"
)

// ErrResourceUnavailable is wrapped by resolvers that cannot prepare an
// element for writing (typically a missing font).
var ErrResourceUnavailable = errors.New("resource unavailable")

// Element is a document node whose text can be overwritten.
type Element interface {
	ID() string
	Name() string
	SetText(string)
}

// Root is one entry of the current selection.
type Root interface {
	// Leaf returns the root itself when it is a bindable element.
	Leaf() (Element, bool)
	// FindAll returns bindable descendants accepted by match, depth-first
	// in document order.
	FindAll(match func(Element) bool) []Element
}

// Resolver prepares elements (fonts, styles) before their text changes.
type Resolver interface {
	EnsureReady(ctx context.Context, elems []Element) error
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, elems []Element) error

func (f ResolverFunc) EnsureReady(ctx context.Context, elems []Element) error { return f(ctx, elems) }

// Mode selects how records are assigned to repeated elements.
type Mode int

const (
	// ModeIterate gives each further occurrence of a key the next record.
	ModeIterate Mode = iota
	// ModeDirect gives every occurrence the first record.
	ModeDirect
)

func (m Mode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "iterate"
}

// ParseMode maps "iterate"/"direct" to a Mode; anything else is iterate.
func ParseMode(s string) Mode {
	if s == "direct" {
		return ModeDirect
	}
	return ModeIterate
}

// ErrUnknownMode is returned by LookupMode for names other than
// "iterate" and "direct".
var ErrUnknownMode = errors.New("unknown mode")

// LookupMode is the strict form of ParseMode for operator input.
func LookupMode(s string) (Mode, error) {
	switch s {
	case "iterate":
		return ModeIterate, nil
	case "direct":
		return ModeDirect, nil
	}
	return ModeIterate, fmt.Errorf("%w %q: want iterate or direct", ErrUnknownMode, s)
}

// Binding records one element write.
type Binding struct {
	ElementID string `json:"elementId"`
	Key       string `json:"key"`
	Record    int    `json:"record"`
	Value     string `json:"value"`
}

// Failure records an element that matched a key but could not be written.
type Failure struct {
	ElementID string `json:"elementId"`
	Key       string `json:"key"`
	Record    int    `json:"record"`
	Reason    string `json:"reason"`
}

// Result summarizes a distribution pass.
type Result struct {
	Bound    int            `json:"bound"`
	Failed   int            `json:"failed"`
	PerKey   map[string]int `json:"perKey"`
	Bindings []Binding      `json:"bindings"`
	Failures []Failure      `json:"failures,omitempty"`
}

func newResult() *Result {
	return &Result{PerKey: make(map[string]int)}
}
