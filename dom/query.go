package dom

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// QuerySelectorAll returns the descendants of n matching a CSS selector, in
// document order. n itself is never part of the result.
func QuerySelectorAll(n *html.Node, selector string) ([]*html.Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return goquery.NewDocumentFromNode(n).FindMatcher(sel).Nodes, nil
}

// MatchAll is QuerySelectorAll with n itself included as a candidate.
func MatchAll(n *html.Node, selector string) ([]*html.Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel.MatchAll(n), nil
}

// QuerySelector returns the first descendant of n matching a CSS selector, or
// nil when nothing matches.
func QuerySelector(n *html.Node, selector string) (*html.Node, error) {
	nodes, err := QuerySelectorAll(n, selector)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// QueryXPathAll evaluates an XPath expression against n.
func QueryXPathAll(n *html.Node, expr string) ([]*html.Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	nodes, err := htmlquery.QueryAll(n, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return nodes, nil
}

// QueryXPath returns the first node matching an XPath expression.
func QueryXPath(n *html.Node, expr string) (*html.Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	node, err := htmlquery.Query(n, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return node, nil
}

// ElementByID returns the first element under n (n included) with the given id.
func ElementByID(n *html.Node, id string) *html.Node {
	if n == nil || id == "" {
		return nil
	}
	var found *html.Node
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && ID(c) == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// ElementsByTagName returns the descendant elements of n with the given tag
// name. "*" matches every element.
func ElementsByTagName(n *html.Node, name string) []*html.Node {
	name = strings.ToLower(name)
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, func(d *html.Node) bool {
			if d.Type == html.ElementNode && (name == "*" || d.Data == name) {
				nodes = append(nodes, d)
			}
			return true
		})
	}
	return nodes
}

// ElementsByClassName returns the descendant elements of n carrying every
// class in the space-separated list.
func ElementsByClassName(n *html.Node, classes string) []*html.Node {
	want := strings.Fields(classes)
	if len(want) == 0 {
		return nil
	}
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, func(d *html.Node) bool {
			if d.Type != html.ElementNode {
				return true
			}
			for _, class := range want {
				if !HasClass(d, class) {
					return true
				}
			}
			nodes = append(nodes, d)
			return true
		})
	}
	return nodes
}

// InnerText returns the rendered text of n as htmlquery computes it.
func InnerText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.InnerText(n)
}
