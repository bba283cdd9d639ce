package element

import (
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/domkit/dom"
)

// TextOptions selects a case transform for SetText. ToUpperCase wins when
// both are set.
type TextOptions struct {
	ToUpperCase bool `json:"toUpperCase,omitempty" yaml:"toUpperCase,omitempty" toml:"toUpperCase,omitempty"`
	ToLowerCase bool `json:"toLowerCase,omitempty" yaml:"toLowerCase,omitempty" toml:"toLowerCase,omitempty"`
}

// Transform applies the selected case mapping. Mappings are language neutral
// and may change the length of text, as with "ß" to "SS".
func (t TextOptions) Transform(text string) string {
	switch {
	case t.ToUpperCase:
		return cases.Upper(language.Und).String(text)
	case t.ToLowerCase:
		return cases.Lower(language.Und).String(text)
	}
	return text
}

// SetText replaces n's children with a single text node. Multiple options
// are merged.
func SetText(n *html.Node, text string, opts ...TextOptions) error {
	if n == nil {
		return invalid("setText", "node is nil")
	}
	var merged TextOptions
	for _, o := range opts {
		merged.ToUpperCase = merged.ToUpperCase || o.ToUpperCase
		merged.ToLowerCase = merged.ToLowerCase || o.ToLowerCase
	}
	dom.SetTextContent(n, merged.Transform(text))
	return nil
}
