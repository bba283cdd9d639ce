package element

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/dom"
)

// Descriptor describes an element to construct. Empty fields are not applied.
type Descriptor struct {
	Name      string            `json:"name" yaml:"name" toml:"name"`
	Class     []string          `json:"class,omitempty" yaml:"class,omitempty" toml:"class,omitempty"`
	Attr      map[string]string `json:"attr,omitempty" yaml:"attr,omitempty" toml:"attr,omitempty"`
	InnerText string            `json:"innerText,omitempty" yaml:"innerText,omitempty" toml:"innerText,omitempty"`
	InnerHTML string            `json:"innerHTML,omitempty" yaml:"innerHTML,omitempty" toml:"innerHTML,omitempty"`
	Children  []*html.Node      `json:"-" yaml:"-" toml:"-"`
	Draggable bool              `json:"draggable,omitempty" yaml:"draggable,omitempty" toml:"draggable,omitempty"`
	Style     string            `json:"style,omitempty" yaml:"style,omitempty" toml:"style,omitempty"`
}

// Create builds a new element from d and passes it to each callback before
// returning it. Parts are applied in order: classes, attributes, text, HTML,
// draggable, style, children. InnerHTML is trusted and not sanitized.
func (o *Ops) Create(d *Descriptor, callbacks ...func(*html.Node)) (*html.Node, error) {
	if d == nil || strings.TrimSpace(d.Name) == "" {
		return nil, &ArgumentError{Op: "create", Message: MissingNameMessage}
	}

	name := strings.TrimSpace(d.Name)
	if !dom.ValidName(name) {
		return nil, invalid("create", "invalid element name %q", name)
	}
	n := dom.NewElement(name)

	if len(d.Class) > 0 {
		dom.AddClass(n, d.Class...)
	}

	keys := make([]string, 0, len(d.Attr))
	for k := range d.Attr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !dom.ValidName(k) {
			return nil, invalid("create", "invalid attribute name %q", k)
		}
		dom.SetAttribute(n, k, d.Attr[k])
	}

	if d.InnerText != "" {
		dom.SetTextContent(n, d.InnerText)
	}
	if d.InnerHTML != "" {
		if err := dom.SetInnerHTML(n, d.InnerHTML); err != nil {
			return nil, fmt.Errorf("failed to set inner HTML: %w", err)
		}
	}
	if d.Draggable {
		dom.SetAttribute(n, "draggable", "true")
	}
	if d.Style != "" {
		if err := dom.SetStyle(n, d.Style); err != nil {
			return nil, &ArgumentError{Op: "create", Message: "invalid style", Err: err}
		}
	}

	for i, child := range d.Children {
		if child == nil {
			return nil, invalid("create", "child %d is nil", i)
		}
	}
	for i, child := range d.Children {
		if err := dom.Append(n, child); err != nil {
			return nil, &ArgumentError{Op: "create", Message: fmt.Sprintf("cannot append child %d", i), Err: err}
		}
	}

	o.metrics.IncElementsCreated()
	o.logger.Debug("Created element",
		zap.String("tag", n.Data),
		zap.Int("classes", len(d.Class)),
		zap.Int("attributes", len(d.Attr)),
		zap.Int("children", len(d.Children)))

	for _, cb := range callbacks {
		if cb != nil {
			cb(n)
		}
	}
	return n, nil
}
