package dom

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// ParseStyle parses an inline style declaration list such as
// "color: red; margin: 0 auto !important".
func ParseStyle(text string) ([]*css.Declaration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	// The last declaration only gets its value once it is terminated
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}

	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil, fmt.Errorf("invalid style %q: %w", text, err)
	}
	for _, d := range decls {
		if d.Property == "" || d.Value == "" {
			return nil, fmt.Errorf("invalid style %q: incomplete declaration", text)
		}
		d.Property = strings.ToLower(d.Property)
	}
	return decls, nil
}

// FormatStyle renders declarations as a normalized style attribute value.
func FormatStyle(decls []*css.Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, " ")
}

// SetStyle merges the declarations in text into n's style attribute. Properties
// already present are overwritten in place; new ones are appended.
func SetStyle(n *html.Node, text string) error {
	decls, err := ParseStyle(text)
	if err != nil {
		return err
	}
	if len(decls) == 0 {
		return nil
	}

	current, _ := Attribute(n, "style")
	existing, err := ParseStyle(current)
	if err != nil {
		// An unparsable attribute set by hand is replaced outright
		existing = nil
	}

	for _, d := range decls {
		replaced := false
		for i, e := range existing {
			if e.Property == d.Property {
				existing[i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, d)
		}
	}

	SetAttribute(n, "style", FormatStyle(existing))
	return nil
}

// StyleProperty returns the value of one inline style property.
func StyleProperty(n *html.Node, property string) (string, bool) {
	current, ok := Attribute(n, "style")
	if !ok {
		return "", false
	}
	decls, err := ParseStyle(current)
	if err != nil {
		return "", false
	}
	property = strings.ToLower(property)
	for _, d := range decls {
		if d.Property == property {
			return d.Value, true
		}
	}
	return "", false
}

// RemoveStyleProperty deletes one inline style property. The style attribute
// is dropped once empty.
func RemoveStyleProperty(n *html.Node, property string) {
	current, ok := Attribute(n, "style")
	if !ok {
		return
	}
	decls, err := ParseStyle(current)
	if err != nil {
		return
	}
	property = strings.ToLower(property)
	kept := decls[:0]
	for _, d := range decls {
		if d.Property != property {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		RemoveAttribute(n, "style")
		return
	}
	SetAttribute(n, "style", FormatStyle(kept))
}
