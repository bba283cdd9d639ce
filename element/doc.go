// Package element builds and mutates HTML element trees from declarative
// descriptors.
//
// Operations:
//   - Create: build an element from a Descriptor, then run callbacks
//   - SetHTML: replace content with sanitized markup, optionally re-running scripts
//   - GetHTML: serialize content, sanitized at read time
//   - SetText: set text content with optional case transforms
//   - AppendElement / AppendElements: append children, optionally spreading one level
//   - CloneElementWithClasses: deep clone a node with its classes into a target
//
// The package-level functions use a shared Ops with default settings. Build an
// Ops with New or FromEnv to choose the sanitization policy, the script runner,
// logging and metrics.
//
// Nodes are ordinary *html.Node values from golang.org/x/net/html owned by
// the caller. Mutations are synchronous and assume a single writer per tree.
//
// Example Usage:
//
//	label, err := element.Create(&element.Descriptor{
//		Name:      "label",
//		Class:     []string{"field", "required"},
//		Attr:      map[string]string{"for": "email"},
//		InnerText: "Email",
//	})
//
//	err = element.SetHTML(body, markup, true)
//	safe, err := element.GetHTML(body)
package element
