package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextContent concatenates the text of every descendant text node.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode || n.Type == html.CommentNode {
		return n.Data
	}
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// SetTextContent replaces n's children with a single text node. An empty
// string leaves n without children.
func SetTextContent(n *html.Node, text string) {
	if n.Type == html.TextNode || n.Type == html.CommentNode {
		n.Data = text
		return
	}
	RemoveChildren(n)
	if text != "" {
		n.AppendChild(NewText(text))
	}
}

// ParseFragment parses markup in the context of n. A nil or non-element
// context parses as if inside <body>. The returned nodes are detached.
func ParseFragment(n *html.Node, markup string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext(n))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	return nodes, nil
}

// fragmentContext returns a context node the fragment parser accepts.
func fragmentContext(n *html.Node) *html.Node {
	if n == nil || n.Type != html.ElementNode {
		return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	if n.Namespace == "" && n.DataAtom != atom.Lookup([]byte(n.Data)) {
		ctx := Clone(n, false)
		ctx.DataAtom = atom.Lookup([]byte(n.Data))
		return ctx
	}
	return n
}

// SetInnerHTML parses markup in the context of n and replaces n's children
// with the result. The markup is used as given.
func SetInnerHTML(n *html.Node, markup string) error {
	if n == nil {
		return ErrNilNode
	}
	nodes, err := ParseFragment(n, markup)
	if err != nil {
		return err
	}
	ReplaceChildren(n, nodes...)
	return nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	if n == nil {
		return "", ErrNilNode
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render node: %w", err)
		}
	}
	return buf.String(), nil
}

// OuterHTML serializes n including its own tag.
func OuterHTML(n *html.Node) (string, error) {
	if n == nil {
		return "", ErrNilNode
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render node: %w", err)
	}
	return buf.String(), nil
}
