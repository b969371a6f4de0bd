package binding

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"datafill/internal/etl"
)

// Options tune a distribution pass.
type Options struct {
	Mode     Mode
	Resolver Resolver // nil means elements need no preparation
}

// cursor tracks which record feeds the next occurrence of one key inside
// one root. The first occurrence takes the current index; every later one
// advances it first, wrapping at the record count.
type cursor struct {
	index int
	seen  bool
}

func (c *cursor) next(n int) int {
	if c.seen {
		c.index++
		c.seen = false
	}
	if c.index >= n {
		c.index = 0
	}
	c.seen = true
	return c.index
}

// Distribute binds record values into the elements under roots.
//
// Writes happen in place and are not rolled back: when the resolver fails
// partway, elements written before the failure keep their new text and the
// partial result is returned with the error.
func Distribute(ctx context.Context, roots []Root, schema *etl.Schema, records etl.Collection, opts Options) (*Result, error) {
	res := newResult()
	keys := schema.FieldNames()
	if len(keys) == 0 || len(records) == 0 {
		return res, nil
	}

	ensure := func(elems []Element) error {
		if opts.Resolver == nil || len(elems) == 0 {
			return nil
		}
		if err := opts.Resolver.EnsureReady(ctx, elems); err != nil {
			return fmt.Errorf("prepare %d element(s): %w", len(elems), err)
		}
		return nil
	}

	for _, root := range roots {
		if leaf, ok := root.Leaf(); ok {
			key := leaf.Name()
			if !lo.Contains(keys, key) {
				continue
			}
			if err := ensure([]Element{leaf}); err != nil {
				return res, err
			}
			res.write(leaf, key, 0, records)
			continue
		}

		for _, key := range keys {
			k := key
			elems := root.FindAll(func(e Element) bool { return e.Name() == k })
			if len(elems) == 0 {
				continue
			}

			if opts.Mode == ModeDirect {
				for _, e := range elems {
					if err := ensure([]Element{e}); err != nil {
						return res, err
					}
					res.write(e, key, 0, records)
				}
				continue
			}

			if err := ensure(elems); err != nil {
				return res, err
			}
			var cur cursor
			for _, e := range elems {
				res.write(e, key, cur.next(len(records)), records)
			}
		}
	}
	return res, nil
}

func (r *Result) write(e Element, key string, idx int, records etl.Collection) {
	value, ok := records[idx].String(key)
	if !ok {
		r.Failed++
		r.Failures = append(r.Failures, Failure{
			ElementID: e.ID(),
			Key:       key,
			Record:    idx,
			Reason:    fmt.Sprintf("record %d has no %q", idx, key),
		})
		return
	}
	e.SetText(value)
	r.Bound++
	r.PerKey[key]++
	r.Bindings = append(r.Bindings, Binding{ElementID: e.ID(), Key: key, Record: idx, Value: value})
}
