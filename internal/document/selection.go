package document

import (
	"fmt"

	"github.com/samber/lo"

	"datafill/internal/binding"
)

// TextElement exposes a text node to the binding engine.
type TextElement struct {
	node *Node
}

// NewTextElement wraps a text node.
func NewTextElement(n *Node) *TextElement { return &TextElement{node: n} }

func (e *TextElement) ID() string       { return e.node.ID }
func (e *TextElement) Name() string     { return e.node.Name }
func (e *TextElement) SetText(s string) { e.node.Characters = s }

// Text returns the current characters.
func (e *TextElement) Text() string { return e.node.Characters }

// Font returns the node's typeface; ok is false when none is set.
func (e *TextElement) Font() (FontName, bool) {
	if e.node.FontName == nil {
		return FontName{}, false
	}
	return *e.node.FontName, true
}

// nodeRoot adapts a node to a selection root.
type nodeRoot struct {
	node *Node
}

// AsRoot wraps a node as a selection root.
func AsRoot(n *Node) binding.Root { return nodeRoot{node: n} }

func (r nodeRoot) Leaf() (binding.Element, bool) {
	if r.node.Type != TypeText {
		return nil, false
	}
	return NewTextElement(r.node), true
}

// FindAll searches descendants only, never the root itself.
func (r nodeRoot) FindAll(match func(binding.Element) bool) []binding.Element {
	var out []binding.Element
	for _, c := range r.node.Children {
		walk(c, func(n *Node) bool {
			if n.Type == TypeText {
				if e := NewTextElement(n); match(e) {
					out = append(out, e)
				}
			}
			return true
		})
	}
	return out
}

// Select resolves selection references to roots, in the order given. A
// reference matches a node id first, then the first node with that name.
// With no references, the children of the first page (or of the document
// root when it has no pages) form the selection.
func (d *Document) Select(refs []string) ([]binding.Root, error) {
	if len(refs) == 0 {
		return lo.Map(d.defaultSelection(), func(n *Node, _ int) binding.Root { return AsRoot(n) }), nil
	}

	roots := make([]binding.Root, 0, len(refs))
	for _, ref := range refs {
		n := d.FindByID(ref)
		if n == nil {
			n = d.findByName(ref)
		}
		if n == nil {
			return nil, fmt.Errorf("selection %q: no node with that id or name", ref)
		}
		roots = append(roots, AsRoot(n))
	}
	return roots, nil
}

func (d *Document) defaultSelection() []*Node {
	page, ok := lo.Find(d.Root.Children, func(n *Node) bool { return n.Type == TypePage })
	if ok {
		return page.Children
	}
	return d.Root.Children
}

func (d *Document) findByName(name string) *Node {
	var found *Node
	d.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// TextElements wraps every text node for resource warm-up.
func (d *Document) TextElements() []binding.Element {
	return lo.Map(d.TextNodes(), func(n *Node, _ int) binding.Element { return NewTextElement(n) })
}
