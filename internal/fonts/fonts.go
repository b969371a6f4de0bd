// Package fonts resolves the typefaces text elements need before their
// characters can be rewritten.
package fonts

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/sync/errgroup"

	"datafill/internal/binding"
	"datafill/internal/document"
)

// fontCarrier is implemented by elements that know their typeface.
type fontCarrier interface {
	Font() (document.FontName, bool)
}

// Passthrough treats every element as ready. Used when no font
// directories are configured.
type Passthrough struct{}

func (Passthrough) EnsureReady(context.Context, []binding.Element) error { return nil }

// Loader indexes font files under a set of directories and checks that
// every element's typeface is available. The index is built on first use
// and kept for the life of the loader.
type Loader struct {
	dirs  []string
	limit int
	log   *slog.Logger

	mu      sync.Mutex
	indexed bool
	fonts   map[string]*sfnt.Font // key(family, style) → parsed font
}

// NewLoader creates a loader over dirs. Files are parsed with at most
// limit goroutines; limit <= 0 means 4.
func NewLoader(dirs []string, limit int, log *slog.Logger) *Loader {
	if limit <= 0 {
		limit = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loader{dirs: dirs, limit: limit, log: log.With("component", "fonts")}
}

func key(family, style string) string {
	return strings.ToLower(strings.TrimSpace(family)) + "|" + strings.ToLower(strings.TrimSpace(style))
}

// EnsureReady fails with binding.ErrResourceUnavailable when an element's
// font is not among the indexed files. Elements without a font are ready.
func (l *Loader) EnsureReady(ctx context.Context, elems []binding.Element) error {
	if err := l.ensureIndex(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	checked := make(map[string]bool)
	for _, e := range elems {
		fc, ok := e.(fontCarrier)
		if !ok {
			continue
		}
		fn, ok := fc.Font()
		if !ok {
			continue
		}
		k := key(fn.Family, fn.Style)
		if checked[k] {
			continue
		}
		checked[k] = true
		if !l.hasLocked(fn) {
			return fmt.Errorf("%w: font %q for element %s", binding.ErrResourceUnavailable, fn.String(), e.ID())
		}
	}
	return nil
}

// hasLocked looks fn up by family and style. Fonts that only carry the
// legacy names fold extra weights into the family ("Go Medium" / "Regular"),
// so that form is accepted as well.
func (l *Loader) hasLocked(fn document.FontName) bool {
	if _, ok := l.fonts[key(fn.Family, fn.Style)]; ok {
		return true
	}
	_, ok := l.fonts[key(fn.Family+" "+fn.Style, "Regular")]
	return ok
}

// Families returns the "Family Style" names found in the index.
func (l *Loader) Families(ctx context.Context) ([]string, error) {
	if err := l.ensureIndex(ctx); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.fonts))
	for k := range l.fonts {
		out = append(out, k)
	}
	return out, nil
}

func (l *Loader) ensureIndex(ctx context.Context) error {
	l.mu.Lock()
	if l.indexed {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	var paths []string
	for _, dir := range l.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf":
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: scan font dir %s: %v", binding.ErrResourceUnavailable, dir, err)
		}
	}

	parsed := make([]*sfnt.Font, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read font %s: %w", path, err)
			}
			f, err := sfnt.Parse(data)
			if err != nil {
				// Unreadable files are skipped, not fatal.
				l.log.Warn("skip font file", "path", path, "error", err)
				return nil
			}
			parsed[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %v", binding.ErrResourceUnavailable, err)
	}

	index := make(map[string]*sfnt.Font, len(parsed))
	var buf sfnt.Buffer
	for _, f := range parsed {
		if f == nil {
			continue
		}
		for _, k := range faceKeys(f, &buf) {
			index[k] = f
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.indexed {
		l.fonts = index
		l.indexed = true
		l.log.Debug("font index built", "files", len(paths), "faces", len(index))
	}
	return nil
}

// faceKeys returns the index keys of f: the typographic family and
// subfamily (name IDs 16/17) when present, and the legacy pair (1/2).
func faceKeys(f *sfnt.Font, buf *sfnt.Buffer) []string {
	var keys []string
	legacyStyle, err := f.Name(buf, sfnt.NameIDSubfamily)
	if err != nil {
		legacyStyle = "Regular"
	}
	if family, err := f.Name(buf, sfnt.NameIDTypographicFamily); err == nil && family != "" {
		style, err := f.Name(buf, sfnt.NameIDTypographicSubfamily)
		if err != nil || style == "" {
			style = legacyStyle
		}
		keys = append(keys, key(family, style))
	}
	if family, err := f.Name(buf, sfnt.NameIDFamily); err == nil && family != "" {
		keys = append(keys, key(family, legacyStyle))
	}
	return keys
}
