package dom

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrNilNode is returned when an operation receives a nil node
	ErrNilNode = errors.New("dom: nil node")

	// ErrHierarchy is returned when an insertion would make a node its own ancestor
	ErrHierarchy = errors.New("dom: node cannot be inserted into itself or a descendant")
)

// ValidName reports whether name can be used as an element tag name.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && !unicode.IsLetter(r) {
			return false
		}
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
		switch r {
		case '<', '>', '/', '=', '"', '\'', '`':
			return false
		}
	}
	return true
}

// NewElement creates a detached element node. The tag name is lower-cased and
// its atom is resolved so the node can be used as a fragment parsing context.
func NewElement(name string) *html.Node {
	name = strings.ToLower(name)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     name,
		DataAtom: atom.Lookup([]byte(name)),
	}
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{
		Type: html.TextNode,
		Data: data,
	}
}

// Root returns the topmost ancestor of n (n itself when detached).
func Root(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Contains reports whether other is n or one of its descendants.
func Contains(n, other *html.Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Append moves child to the end of parent's children. A child that already
// has a parent is detached first.
func Append(parent, child *html.Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if Contains(child, parent) {
		return ErrHierarchy
	}
	Detach(child)
	parent.AppendChild(child)
	return nil
}

// InsertBefore moves child in front of ref. A nil ref appends.
func InsertBefore(parent, child, ref *html.Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if Contains(child, parent) {
		return ErrHierarchy
	}
	if ref != nil && ref.Parent != parent {
		return errors.New("dom: reference node is not a child of parent")
	}
	if child == ref {
		return nil
	}
	Detach(child)
	parent.InsertBefore(child, ref)
	return nil
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// ReplaceChildren detaches n's children and appends nodes in order.
func ReplaceChildren(n *html.Node, nodes ...*html.Node) {
	RemoveChildren(n)
	for _, c := range nodes {
		Detach(c)
		n.AppendChild(c)
	}
}

// ChildNodes returns all children of n, including text and comment nodes.
func ChildNodes(n *html.Node) []*html.Node {
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	return nodes
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// Clone copies n. With deep set, descendants are copied too. The copy is detached.
func Clone(n *html.Node, deep bool) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      make([]html.Attribute, len(n.Attr)),
	}
	copy(c.Attr, n.Attr)

	if deep {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.AppendChild(Clone(child, true))
		}
	}
	return c
}

// Walk calls fn for n and every descendant in document order. Returning false
// from fn stops the walk.
func Walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// IsElement reports whether n is an element with the given tag name.
func IsElement(n *html.Node, name string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == name
}
