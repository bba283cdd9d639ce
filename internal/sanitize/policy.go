// Package sanitize builds the HTML sanitization policy used for every markup
// read and write.
//
// The policy is an allowlist on top of bluemonday. Elements named in the deny
// list are removed even when they are also allowed, and a fixed set of
// active-content elements (script, iframe, link, ...) can never be allowed.
package sanitize

import (
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/GriffinCanCode/domkit/internal/config"
)

// AlwaysDenied lists elements no configuration can allow.
var AlwaysDenied = []string{
	"base", "embed", "frame", "frameset", "iframe", "link",
	"meta", "noscript", "object", "script", "style", "template",
}

// DefaultElements is the built-in element allowlist.
var DefaultElements = []string{
	"a", "abbr", "address", "article", "aside", "b", "bdi", "bdo", "blockquote",
	"br", "caption", "cite", "code", "col", "colgroup", "data", "dd", "del",
	"details", "dfn", "div", "dl", "dt", "em", "figcaption", "figure", "footer",
	"h1", "h2", "h3", "h4", "h5", "h6", "header", "hr", "i", "img", "ins", "kbd",
	"label", "li", "main", "mark", "nav", "ol", "p", "pre", "q", "rp", "rt",
	"ruby", "s", "samp", "section", "small", "span", "strong", "sub", "summary",
	"sup", "table", "tbody", "td", "tfoot", "th", "thead", "time", "tr", "u",
	"ul", "var", "wbr",
}

// DefaultAttrs is the built-in list of attributes allowed on every element.
var DefaultAttrs = []string{
	"id", "title", "lang", "dir", "role", "draggable", "tabindex",
	"aria-label", "aria-labelledby", "aria-describedby", "aria-hidden",
}

// DefaultStyles is the built-in list of inline style properties.
var DefaultStyles = []string{
	"color", "background-color", "font-size", "font-style", "font-weight",
	"text-align", "text-decoration", "margin", "padding", "border",
	"display", "width", "height",
}

// Policy sanitizes markup.
type Policy struct {
	policy  *bluemonday.Policy
	allowed map[string]struct{}
}

// Default returns the policy built from config.Default().
func Default() *Policy {
	return New(config.Default().Sanitizer)
}

// New builds a policy from configuration.
func New(cfg config.SanitizerConfig) *Policy {
	allowed := effectiveElements(cfg.AllowElements, cfg.DenyElements)
	names := make([]string, 0, len(allowed))
	for name := range allowed {
		names = append(names, name)
	}
	sort.Strings(names)

	p := bluemonday.NewPolicy()
	p.AllowElements(names...)
	// Keep allowed elements even after every attribute was stripped
	p.AllowNoAttrs().OnElements(names...)

	attrs := cfg.AllowAttrs
	if len(attrs) == 0 {
		attrs = DefaultAttrs
	}
	p.AllowAttrs(attrs...).Globally()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()

	if cfg.DataAttributes {
		p.AllowDataAttributes()
	}

	styles := cfg.Styles
	if len(styles) == 0 {
		styles = DefaultStyles
	}
	p.AllowStyles(styles...).Globally()

	schemes := cfg.URLSchemes
	if len(schemes) == 0 {
		schemes = config.Default().Sanitizer.URLSchemes
	}
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes(schemes...)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src").OnElements("img")
	p.AllowAttrs("alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("img", "col", "td", "th")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.AllowAttrs("scope", "headers").OnElements("td", "th")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("value").Matching(bluemonday.Integer).OnElements("li")
	p.AllowAttrs("datetime").OnElements("time", "del", "ins")
	p.AllowAttrs("value").OnElements("data")
	p.AllowAttrs("for").OnElements("label")
	p.AllowAttrs("open").OnElements("details")
	p.AllowAttrs("cite").OnElements("blockquote", "q", "del", "ins")

	if cfg.Comments {
		p.AllowComments()
	}

	// Drop the text of denied containers, not only their tags
	p.SkipElementsContent(AlwaysDenied...)

	return &Policy{policy: p, allowed: allowed}
}

// Sanitize returns markup with every disallowed element and attribute removed.
func (p *Policy) Sanitize(markup string) string {
	return p.policy.Sanitize(markup)
}

// SanitizeBytes is Sanitize for byte slices.
func (p *Policy) SanitizeBytes(markup []byte) []byte {
	return p.policy.SanitizeBytes(markup)
}

// Allows reports whether the element survives sanitization.
func (p *Policy) Allows(element string) bool {
	_, ok := p.allowed[strings.ToLower(element)]
	return ok
}

// effectiveElements applies the deny lists to the allow list.
func effectiveElements(allow, deny []string) map[string]struct{} {
	if len(allow) == 0 {
		allow = DefaultElements
	}

	set := make(map[string]struct{}, len(allow))
	for _, name := range allow {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			set[name] = struct{}{}
		}
	}
	for _, name := range deny {
		delete(set, strings.ToLower(strings.TrimSpace(name)))
	}
	for _, name := range AlwaysDenied {
		delete(set, name)
	}
	return set
}
