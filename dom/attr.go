package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Attribute returns the value of the named attribute.
func Attribute(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttribute reports whether the named attribute is present.
func HasAttribute(n *html.Node, key string) bool {
	_, ok := Attribute(n, key)
	return ok
}

// SetAttribute sets the named attribute, replacing an existing value in place.
func SetAttribute(n *html.Node, key, val string) {
	key = strings.ToLower(key)
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttribute deletes the named attribute, keeping the order of the rest.
func RemoveAttribute(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// ID returns the id attribute.
func ID(n *html.Node) string {
	id, _ := Attribute(n, "id")
	return id
}

// ClassList returns the class tokens of n in order.
func ClassList(n *html.Node) []string {
	class, _ := Attribute(n, "class")
	return strings.Fields(class)
}

// HasClass reports whether n carries the given class token.
func HasClass(n *html.Node, class string) bool {
	return selection(n).HasClass(class)
}

// AddClass appends class tokens not already present, in order.
func AddClass(n *html.Node, classes ...string) {
	selection(n).AddClass(classes...)
}

// RemoveClass removes the given class tokens.
func RemoveClass(n *html.Node, classes ...string) {
	if len(classes) == 0 {
		return
	}
	selection(n).RemoveClass(classes...)
}

// ToggleClass flips a class token and reports whether it is now present.
func ToggleClass(n *html.Node, class string) bool {
	if HasClass(n, class) {
		RemoveClass(n, class)
		return false
	}
	AddClass(n, class)
	return true
}

// SetClassList replaces the class list of n.
func SetClassList(n *html.Node, classes []string) {
	RemoveAttribute(n, "class")
	AddClass(n, classes...)
}

func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}
