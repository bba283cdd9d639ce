// Package dom provides element tree primitives over golang.org/x/net/html.
//
// Nodes are plain *html.Node values owned by the caller. The package keeps no
// state of its own; every function mutates or reads the tree it is given.
//
// Built on specialized libraries:
//   - x/net/html: parsing, fragment parsing and serialization
//   - goquery / cascadia: class lists and CSS selectors
//   - htmlquery: XPath queries
//   - douceur: inline style declarations
//   - chardet: charset detection when loading documents
//
// Example Usage:
//
//	div := dom.NewElement("div")
//	dom.AddClass(div, "card", "card--wide")
//	if err := dom.SetInnerHTML(div, "<strong>Hello</strong>"); err != nil {
//		return err
//	}
//	markup, _ := dom.InnerHTML(div)
package dom
