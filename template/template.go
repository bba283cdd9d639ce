// Package template decodes declarative element templates from YAML, TOML or
// JSON and builds them into element trees.
//
// A template mirrors element.Descriptor, except that children are nested
// templates:
//
//	name: ul
//	class: [menu]
//	children:
//	  - name: li
//	    innerText: Home
//	  - name: li
//	    innerText: About
//	    transform: {toUpperCase: true}
package template

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/element"
)

// Format names a template encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// MaxDepth bounds template nesting
const MaxDepth = 64

// ErrUnknownFormat is returned for unsupported encodings or file extensions
var ErrUnknownFormat = errors.New("unknown template format")

// strictJSON rejects unknown keys like the YAML and TOML decoders do
var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// Template describes an element and its descendants
type Template struct {
	Name      string               `json:"name" yaml:"name" toml:"name"`
	Class     []string             `json:"class,omitempty" yaml:"class,omitempty" toml:"class,omitempty"`
	Attr      map[string]string    `json:"attr,omitempty" yaml:"attr,omitempty" toml:"attr,omitempty"`
	InnerText string               `json:"innerText,omitempty" yaml:"innerText,omitempty" toml:"innerText,omitempty"`
	InnerHTML string               `json:"innerHTML,omitempty" yaml:"innerHTML,omitempty" toml:"innerHTML,omitempty"`
	Draggable bool                 `json:"draggable,omitempty" yaml:"draggable,omitempty" toml:"draggable,omitempty"`
	Style     string               `json:"style,omitempty" yaml:"style,omitempty" toml:"style,omitempty"`
	Transform *element.TextOptions `json:"transform,omitempty" yaml:"transform,omitempty" toml:"transform,omitempty"`
	Children  []*Template          `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Parse decodes one template. Unknown keys are rejected.
func Parse(data []byte, format Format) (*Template, error) {
	var t Template
	var err error

	switch format {
	case FormatYAML:
		err = yaml.UnmarshalWithOptions(data, &t, yaml.Strict())
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&t)
	case FormatJSON:
		err = strictJSON.Unmarshal(data, &t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s template: %w", format, err)
	}
	return &t, nil
}

// ParseFile reads and decodes a template, choosing the format by extension
func ParseFile(path string) (*Template, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return Parse(data, format)
}

// Descriptor converts t to an element descriptor without children
func (t *Template) Descriptor() *element.Descriptor {
	text := t.InnerText
	if t.Transform != nil {
		text = t.Transform.Transform(text)
	}
	return &element.Descriptor{
		Name:      t.Name,
		Class:     t.Class,
		Attr:      t.Attr,
		InnerText: text,
		InnerHTML: t.InnerHTML,
		Draggable: t.Draggable,
		Style:     t.Style,
	}
}

// Build creates the element tree for t with the default element operations
func Build(t *Template) (*html.Node, error) {
	return build(element.Create, t, 0)
}

// BuildWith creates the element tree for t with ops
func BuildWith(ops *element.Ops, t *Template) (*html.Node, error) {
	return build(ops.Create, t, 0)
}

type createFunc func(*element.Descriptor, ...func(*html.Node)) (*html.Node, error)

// build creates children first so they are appended in order by Create
func build(create createFunc, t *Template, depth int) (*html.Node, error) {
	if t == nil {
		return nil, &element.ArgumentError{Op: "build", Message: "template is nil"}
	}
	if depth >= MaxDepth {
		return nil, &element.ArgumentError{Op: "build", Message: fmt.Sprintf("template nesting exceeds %d levels", MaxDepth)}
	}

	d := t.Descriptor()
	for i, c := range t.Children {
		child, err := build(create, c, depth+1)
		if err != nil {
			return nil, fmt.Errorf("child %d of <%s>: %w", i, t.Name, err)
		}
		d.Children = append(d.Children, child)
	}
	return create(d)
}
