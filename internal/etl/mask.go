package etl

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ── Masks ──────────────────────────────────────────────────
// Named one-way text transformations applied after the suffix.
// Registered at init time, looked up by MarkKind.

// MarkKind names a registered mask.
type MarkKind string

const (
	MarkUnset     MarkKind = "UNSET"
	MarkHidePhone MarkKind = "HIDE_PHONE_MARK"
)

// MaskFunc transforms a rendered value.
type MaskFunc func(string) string

var (
	maskMu   sync.RWMutex
	maskRegs = map[MarkKind]MaskFunc{}
)

func init() {
	RegisterMask(MarkUnset, func(s string) string { return s })
	RegisterMask(MarkHidePhone, HidePhone)
}

// RegisterMask adds or replaces a mask.
func RegisterMask(kind MarkKind, fn MaskFunc) {
	maskMu.Lock()
	defer maskMu.Unlock()
	maskRegs[kind] = fn
}

// GetMask returns the mask registered under kind.
func GetMask(kind MarkKind) (MaskFunc, error) {
	maskMu.RLock()
	defer maskMu.RUnlock()
	fn, ok := maskRegs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown mark: %q", kind)
	}
	return fn, nil
}

// ListMasks returns the registered kinds, UNSET first, the rest sorted.
func ListMasks() []MarkKind {
	maskMu.RLock()
	defer maskMu.RUnlock()
	kinds := make([]MarkKind, 0, len(maskRegs))
	for k := range maskRegs {
		if k != MarkUnset {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return append([]MarkKind{MarkUnset}, kinds...)
}

const (
	phoneMaskStart = 4
	phoneMaskToken = "***"
)

// HidePhone redacts runes 4..6 with "***". Shorter strings get the slice
// clamped to their length, so the rune count never changes.
func HidePhone(s string) string {
	runes := []rune(s)
	if len(runes) <= phoneMaskStart {
		return s
	}
	end := min(phoneMaskStart+len(phoneMaskToken), len(runes))
	var b strings.Builder
	b.WriteString(string(runes[:phoneMaskStart]))
	b.WriteString(phoneMaskToken[:end-phoneMaskStart])
	b.WriteString(string(runes[end:]))
	return b.String()
}
