// Package dom holds the parsed HTML page that page-change handlers mutate.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoParent is returned when a node that must be placed relative to a
// target has no parent to be placed into.
var ErrNoParent = errors.New("dom: target node has no parent")

// Page is one parsed HTML document.
type Page struct {
	root *html.Node
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Page{root: root}, nil
}

// NewPage wraps an already parsed document node.
func NewPage(root *html.Node) *Page {
	return &Page{root: root}
}

// Render writes the page back out as HTML.
func (p *Page) Render(w io.Writer) error {
	return html.Render(w, p.root)
}

// String renders the page, returning the empty string on a write error.
func (p *Page) String() string {
	var b strings.Builder
	if err := p.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// Find returns the first element matching sel in document order, or nil.
func (p *Page) Find(sel Selector) *html.Node {
	return sel.First(p.root)
}

// FindAll returns every element matching sel in document order.
func (p *Page) FindAll(sel Selector) []*html.Node {
	return sel.All(p.root)
}

// Selector is a compiled CSS selector group.
type Selector struct {
	raw   string
	group cascadia.SelectorGroup
}

// CompileSelector parses a CSS selector such as ".book-header".
func CompileSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, errors.New("dom: empty selector")
	}
	group, err := cascadia.ParseGroup(s)
	if err != nil {
		return Selector{}, fmt.Errorf("invalid selector %q: %w", s, err)
	}
	return Selector{raw: s, group: group}, nil
}

// MustCompileSelector is CompileSelector for constant selectors.
func MustCompileSelector(s string) Selector {
	sel, err := CompileSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

func (s Selector) String() string { return s.raw }

// First returns the first descendant of n matching s, or nil.
func (s Selector) First(n *html.Node) *html.Node {
	if s.group == nil || n == nil {
		return nil
	}
	return cascadia.Query(n, s.group)
}

// All returns every descendant of n matching s.
func (s Selector) All(n *html.Node) []*html.Node {
	if s.group == nil || n == nil {
		return nil
	}
	return cascadia.QueryAll(n, s.group)
}

// InsertAfter places node immediately after target. When target is the last
// child of its parent, node is appended to the parent instead.
func InsertAfter(node, target *html.Node) error {
	parent := target.Parent
	if parent == nil {
		return ErrNoParent
	}
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
	if parent.LastChild == target {
		parent.AppendChild(node)
		return nil
	}
	parent.InsertBefore(node, target.NextSibling)
	return nil
}

// Element builds a detached element node.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
		Attr:     attrs,
	}
}

// Text builds a detached text node. Render escapes its content.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attr returns the value of n's attribute key, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether class appears in n's class attribute.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// ElementChildren returns the element children of n, skipping text and comments.
func ElementChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// TextContent concatenates all text below n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	addText(&b, n)
	return b.String()
}

func addText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		addText(b, c)
	}
}
