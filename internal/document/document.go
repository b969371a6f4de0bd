// Package document holds the visual document tree that records are bound
// into: a JSON file of nested nodes, some of which are text layers.
package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// NodeType is the layer kind. Only TEXT nodes are bindable.
type NodeType string

const (
	TypeDocument  NodeType = "DOCUMENT"
	TypePage      NodeType = "PAGE"
	TypeFrame     NodeType = "FRAME"
	TypeGroup     NodeType = "GROUP"
	TypeComponent NodeType = "COMPONENT"
	TypeInstance  NodeType = "INSTANCE"
	TypeRectangle NodeType = "RECTANGLE"
	TypeText      NodeType = "TEXT"
)

// FontName identifies the typeface a text node renders with.
type FontName struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

func (f FontName) String() string {
	if f.Style == "" {
		return f.Family
	}
	return f.Family + " " + f.Style
}

// Node is one layer of the document tree.
type Node struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       NodeType  `json:"type"`
	Characters string    `json:"characters,omitempty"`
	FontName   *FontName `json:"fontName,omitempty"`
	Children   []*Node   `json:"children,omitempty"`
}

// Document is a loaded document file.
type Document struct {
	Name string `json:"name"`
	Root *Node  `json:"document"`
}

// Parse decodes a document and assigns ids to nodes that lack one.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("parse document: missing \"document\" root node")
	}
	doc.Walk(func(n *Node) bool {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		return true
	})
	return &doc, nil
}

// Load reads and parses a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// Save writes the document through a temp file so readers never see a
// half-written file.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".datafill-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Walk visits nodes depth-first in document order. Returning false from fn
// skips the node's children.
func (d *Document) Walk(fn func(*Node) bool) {
	walk(d.Root, fn)
}

func walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		walk(c, fn)
	}
}

// FindByID returns the node with the given id, or nil.
func (d *Document) FindByID(id string) *Node {
	var found *Node
	d.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// TextNodes returns every text node in the document.
func (d *Document) TextNodes() []*Node {
	var out []*Node
	d.Walk(func(n *Node) bool {
		if n.Type == TypeText {
			out = append(out, n)
		}
		return true
	})
	return out
}
