package script

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/dom"
)

// DOM node type constants as scripts see them
const (
	elementNode  = 1
	textNode     = 3
	commentNode  = 8
	documentNode = 9
	doctypeNode  = 10
)

// bridge exposes one *html.Node tree to a VM for the length of a run.
// Wrappers are cached per node so identity comparisons hold in scripts.
type bridge struct {
	vm     *goja.Runtime
	root   *html.Node
	logger *zap.Logger

	objects map[*html.Node]*goja.Object
	nodes   map[*goja.Object]*html.Node
}

func newBridge(vm *goja.Runtime, node *html.Node, logger *zap.Logger) *bridge {
	return &bridge{
		vm:      vm,
		root:    dom.Root(node),
		logger:  logger,
		objects: make(map[*html.Node]*goja.Object),
		nodes:   make(map[*goja.Object]*html.Node),
	}
}

// install binds the document global. Without a tree, document is null.
func (b *bridge) install() {
	if b.root == nil {
		b.vm.Set("document", goja.Null())
		return
	}
	b.vm.Set("document", b.newDocument())
}

// --- Document ---

func (b *bridge) newDocument() *goja.Object {
	doc := b.vm.NewObject()
	if b.root.Type == html.DocumentNode {
		b.register(b.root, doc)
		b.defineNode(doc, b.root)
	} else {
		doc.Set("nodeType", documentNode)
		doc.Set("nodeName", "#document")
	}

	doc.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		nodes := b.match(b.root, call.Argument(0).String(), true)
		if len(nodes) == 0 {
			return goja.Null()
		}
		return b.wrap(nodes[0])
	})
	doc.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return b.wrapList(b.match(b.root, call.Argument(0).String(), true))
	})
	doc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return b.wrap(dom.ElementByID(b.root, call.Argument(0).String()))
	})
	doc.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		return b.wrapList(b.inclusive(b.root, func(n *html.Node) []*html.Node {
			return dom.ElementsByTagName(n, name)
		}, func(n *html.Node) bool {
			return name == "*" || strings.EqualFold(n.Data, name)
		}))
	})
	doc.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		classes := call.Argument(0).String()
		return b.wrapList(b.inclusive(b.root, func(n *html.Node) []*html.Node {
			return dom.ElementsByClassName(n, classes)
		}, func(n *html.Node) bool {
			for _, c := range strings.Fields(classes) {
				if !dom.HasClass(n, c) {
					return false
				}
			}
			return classes != ""
		}))
	})
	doc.Set("createElement", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		if !dom.ValidName(name) {
			panic(b.vm.NewTypeError(fmt.Sprintf("createElement: invalid tag name %q", name)))
		}
		return b.wrap(dom.NewElement(name))
	})
	doc.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		return b.wrap(dom.NewText(call.Argument(0).String()))
	})
	doc.Set("createComment", func(call goja.FunctionCall) goja.Value {
		return b.wrap(&html.Node{Type: html.CommentNode, Data: call.Argument(0).String()})
	})

	b.getter(doc, "documentElement", func() goja.Value { return b.wrap(dom.DocumentElement(b.root)) })
	b.getter(doc, "body", func() goja.Value { return b.wrap(dom.Body(b.root)) })
	b.getter(doc, "head", func() goja.Value { return b.wrap(dom.Head(b.root)) })
	b.defineEvents(doc)

	return doc
}

// inclusive runs find under root and, for a detached element root, also
// tests root itself.
func (b *bridge) inclusive(root *html.Node, find func(*html.Node) []*html.Node, self func(*html.Node) bool) []*html.Node {
	nodes := find(root)
	if root.Type == html.ElementNode && self(root) {
		nodes = append([]*html.Node{root}, nodes...)
	}
	return nodes
}

// match evaluates a CSS selector and throws on invalid input.
func (b *bridge) match(n *html.Node, selector string, includeSelf bool) []*html.Node {
	var (
		nodes []*html.Node
		err   error
	)
	if includeSelf {
		nodes, err = dom.MatchAll(n, selector)
	} else {
		nodes, err = dom.QuerySelectorAll(n, selector)
	}
	if err != nil {
		panic(b.vm.NewGoError(err))
	}
	return nodes
}

// --- Wrapping ---

func (b *bridge) register(n *html.Node, obj *goja.Object) {
	b.objects[n] = obj
	b.nodes[obj] = n
}

// wrap returns the cached wrapper for n, creating it on first use.
func (b *bridge) wrap(n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if obj, ok := b.objects[n]; ok {
		return obj
	}

	obj := b.vm.NewObject()
	b.register(n, obj)
	b.defineNode(obj, n)

	switch n.Type {
	case html.ElementNode:
		b.defineElement(obj, n)
	case html.TextNode, html.CommentNode:
		data := func() goja.Value { return b.vm.ToValue(n.Data) }
		setData := func(v goja.Value) { n.Data = v.String() }
		b.accessor(obj, "data", data, setData)
		b.accessor(obj, "nodeValue", data, setData)
		b.getter(obj, "length", func() goja.Value { return b.vm.ToValue(len([]rune(n.Data))) })
	}
	return obj
}

func (b *bridge) wrapList(nodes []*html.Node) goja.Value {
	items := make([]interface{}, len(nodes))
	for i, n := range nodes {
		items[i] = b.wrap(n)
	}
	return b.vm.NewArray(items...)
}

// unwrap maps a script value back to its node, throwing for anything else.
func (b *bridge) unwrap(method string, v goja.Value) *html.Node {
	if obj, ok := v.(*goja.Object); ok {
		if n, ok := b.nodes[obj]; ok {
			return n
		}
	}
	panic(b.vm.NewTypeError(method + ": argument is not a node"))
}

func (b *bridge) getter(obj *goja.Object, name string, get func() goja.Value) {
	b.accessor(obj, name, get, nil)
}

// accessor defines get and set in one descriptor. A nil set leaves the
// property read-only.
func (b *bridge) accessor(obj *goja.Object, name string, get func() goja.Value, set func(goja.Value)) {
	getter := b.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() })
	var setter goja.Value
	if set != nil {
		setter = b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0))
			return goja.Undefined()
		})
	}
	if err := obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_TRUE, goja.FLAG_TRUE); err != nil {
		b.logger.Error("Failed to define property", zap.String("property", name), zap.Error(err))
	}
}

// --- Node ---

func (b *bridge) defineNode(obj *goja.Object, n *html.Node) {
	obj.Set("nodeType", nodeType(n))
	obj.Set("nodeName", nodeName(n))

	b.getter(obj, "parentNode", func() goja.Value { return b.wrap(n.Parent) })
	b.getter(obj, "parentElement", func() goja.Value {
		if n.Parent != nil && n.Parent.Type == html.ElementNode {
			return b.wrap(n.Parent)
		}
		return goja.Null()
	})
	b.getter(obj, "childNodes", func() goja.Value { return b.wrapList(dom.ChildNodes(n)) })
	b.getter(obj, "firstChild", func() goja.Value { return b.wrap(n.FirstChild) })
	b.getter(obj, "lastChild", func() goja.Value { return b.wrap(n.LastChild) })
	b.getter(obj, "nextSibling", func() goja.Value { return b.wrap(n.NextSibling) })
	b.getter(obj, "previousSibling", func() goja.Value { return b.wrap(n.PrevSibling) })
	b.accessor(obj, "textContent",
		func() goja.Value {
			if n.Type == html.DocumentNode || n.Type == html.DoctypeNode {
				return goja.Null()
			}
			return b.vm.ToValue(dom.TextContent(n))
		},
		func(v goja.Value) {
			if n.Type != html.DocumentNode && n.Type != html.DoctypeNode {
				dom.SetTextContent(n, textArg(v))
			}
		})

	obj.Set("hasChildNodes", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(n.FirstChild != nil)
	})
	obj.Set("contains", func(call goja.FunctionCall) goja.Value {
		other := call.Argument(0)
		if goja.IsNull(other) || goja.IsUndefined(other) {
			return b.vm.ToValue(false)
		}
		return b.vm.ToValue(dom.Contains(n, b.unwrap("contains", other)))
	})
	obj.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child := b.unwrap("appendChild", call.Argument(0))
		b.check(dom.Append(n, child))
		return call.Argument(0)
	})
	obj.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		child := b.unwrap("removeChild", call.Argument(0))
		if child.Parent != n {
			panic(b.vm.NewGoError(fmt.Errorf("removeChild: node is not a child of this node")))
		}
		n.RemoveChild(child)
		return call.Argument(0)
	})
	obj.Set("insertBefore", func(call goja.FunctionCall) goja.Value {
		child := b.unwrap("insertBefore", call.Argument(0))
		var ref *html.Node
		if v := call.Argument(1); !goja.IsNull(v) && !goja.IsUndefined(v) {
			ref = b.unwrap("insertBefore", v)
		}
		b.check(dom.InsertBefore(n, child, ref))
		return call.Argument(0)
	})
	obj.Set("replaceChild", func(call goja.FunctionCall) goja.Value {
		child := b.unwrap("replaceChild", call.Argument(0))
		old := b.unwrap("replaceChild", call.Argument(1))
		if old.Parent != n {
			panic(b.vm.NewGoError(fmt.Errorf("replaceChild: node is not a child of this node")))
		}
		if child != old {
			b.check(dom.InsertBefore(n, child, old))
			n.RemoveChild(old)
		}
		return call.Argument(1)
	})
	obj.Set("remove", func(goja.FunctionCall) goja.Value {
		dom.Detach(n)
		return goja.Undefined()
	})
	obj.Set("cloneNode", func(call goja.FunctionCall) goja.Value {
		return b.wrap(dom.Clone(n, call.Argument(0).ToBoolean()))
	})
}

// check converts a tree error into a script exception
func (b *bridge) check(err error) {
	if err != nil {
		panic(b.vm.NewGoError(err))
	}
}

// --- Element ---

func (b *bridge) defineElement(obj *goja.Object, n *html.Node) {
	obj.Set("tagName", strings.ToUpper(n.Data))
	obj.Set("localName", n.Data)

	b.accessor(obj, "id",
		func() goja.Value { return b.vm.ToValue(dom.ID(n)) },
		func(v goja.Value) { dom.SetAttribute(n, "id", v.String()) })
	b.accessor(obj, "className",
		func() goja.Value {
			class, _ := dom.Attribute(n, "class")
			return b.vm.ToValue(class)
		},
		func(v goja.Value) { dom.SetAttribute(n, "class", v.String()) })
	b.getter(obj, "classList", func() goja.Value { return b.classList(n) })
	b.getter(obj, "style", func() goja.Value { return b.vm.NewDynamicObject(&styleDeclaration{b: b, n: n}) })

	text := func() goja.Value { return b.vm.ToValue(dom.TextContent(n)) }
	setText := func(v goja.Value) { dom.SetTextContent(n, textArg(v)) }
	b.accessor(obj, "innerText", text, setText)

	b.accessor(obj, "innerHTML",
		func() goja.Value {
			markup, err := dom.InnerHTML(n)
			b.check(err)
			return b.vm.ToValue(markup)
		},
		func(v goja.Value) { b.check(dom.SetInnerHTML(n, textArg(v))) })
	b.getter(obj, "outerHTML", func() goja.Value {
		markup, err := dom.OuterHTML(n)
		b.check(err)
		return b.vm.ToValue(markup)
	})

	b.getter(obj, "children", func() goja.Value { return b.wrapList(dom.Children(n)) })
	b.getter(obj, "childElementCount", func() goja.Value { return b.vm.ToValue(len(dom.Children(n))) })
	b.getter(obj, "firstElementChild", func() goja.Value {
		children := dom.Children(n)
		if len(children) == 0 {
			return goja.Null()
		}
		return b.wrap(children[0])
	})
	b.getter(obj, "lastElementChild", func() goja.Value {
		children := dom.Children(n)
		if len(children) == 0 {
			return goja.Null()
		}
		return b.wrap(children[len(children)-1])
	})

	obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := dom.Attribute(n, strings.ToLower(call.Argument(0).String())); ok {
			return b.vm.ToValue(v)
		}
		return goja.Null()
	})
	obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		dom.SetAttribute(n, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	obj.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		dom.RemoveAttribute(n, strings.ToLower(call.Argument(0).String()))
		return goja.Undefined()
	})
	obj.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		return b.vm.ToValue(dom.HasAttribute(n, strings.ToLower(call.Argument(0).String())))
	})

	obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		nodes := b.match(n, call.Argument(0).String(), false)
		if len(nodes) == 0 {
			return goja.Null()
		}
		return b.wrap(nodes[0])
	})
	obj.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return b.wrapList(b.match(n, call.Argument(0).String(), false))
	})
	obj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return b.wrapList(dom.ElementsByTagName(n, call.Argument(0).String()))
	})
	obj.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return b.wrapList(dom.ElementsByClassName(n, call.Argument(0).String()))
	})
	obj.Set("matches", func(call goja.FunctionCall) goja.Value {
		for _, m := range b.match(n, call.Argument(0).String(), true) {
			if m == n {
				return b.vm.ToValue(true)
			}
		}
		return b.vm.ToValue(false)
	})
	obj.Set("closest", func(call goja.FunctionCall) goja.Value {
		selector := call.Argument(0).String()
		for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
			for _, m := range b.match(p, selector, true) {
				if m == p {
					return b.wrap(p)
				}
			}
		}
		return goja.Null()
	})

	b.defineEvents(obj)
}

// defineEvents installs listener methods. There is no event loop, so
// listeners are accepted and never called.
func (b *bridge) defineEvents(obj *goja.Object) {
	obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		b.logger.Debug("Ignoring event listener", zap.String("event", call.Argument(0).String()))
		return goja.Undefined()
	})
	obj.Set("removeEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	obj.Set("dispatchEvent", func(goja.FunctionCall) goja.Value { return b.vm.ToValue(true) })
}

func (b *bridge) classList(n *html.Node) goja.Value {
	list := b.vm.NewObject()
	tokens := func(call goja.FunctionCall) []string {
		out := make([]string, 0, len(call.Arguments))
		for _, a := range call.Arguments {
			out = append(out, a.String())
		}
		return out
	}

	list.Set("add", func(call goja.FunctionCall) goja.Value {
		dom.AddClass(n, tokens(call)...)
		return goja.Undefined()
	})
	list.Set("remove", func(call goja.FunctionCall) goja.Value {
		dom.RemoveClass(n, tokens(call)...)
		return goja.Undefined()
	})
	list.Set("contains", func(call goja.FunctionCall) goja.Value {
		return b.vm.ToValue(dom.HasClass(n, call.Argument(0).String()))
	})
	list.Set("toggle", func(call goja.FunctionCall) goja.Value {
		class := call.Argument(0).String()
		if force := call.Argument(1); !goja.IsUndefined(force) {
			if force.ToBoolean() {
				dom.AddClass(n, class)
				return b.vm.ToValue(true)
			}
			dom.RemoveClass(n, class)
			return b.vm.ToValue(false)
		}
		return b.vm.ToValue(dom.ToggleClass(n, class))
	})
	list.Set("item", func(call goja.FunctionCall) goja.Value {
		classes := dom.ClassList(n)
		i := call.Argument(0).ToInteger()
		if i < 0 || i >= int64(len(classes)) {
			return goja.Null()
		}
		return b.vm.ToValue(classes[i])
	})
	b.getter(list, "length", func() goja.Value { return b.vm.ToValue(len(dom.ClassList(n))) })
	b.getter(list, "value", func() goja.Value { return b.vm.ToValue(strings.Join(dom.ClassList(n), " ")) })
	return list
}

// styleDeclaration backs element.style. Property names are accepted in
// camelCase or kebab-case.
type styleDeclaration struct {
	b *bridge
	n *html.Node
}

func (s *styleDeclaration) Get(key string) goja.Value {
	vm := s.b.vm
	switch key {
	case "cssText":
		v, _ := dom.Attribute(s.n, "style")
		return vm.ToValue(v)
	case "setProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			s.set(call.Argument(0).String(), call.Argument(1).String())
			return goja.Undefined()
		})
	case "getPropertyValue":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			v, _ := dom.StyleProperty(s.n, call.Argument(0).String())
			return vm.ToValue(v)
		})
	case "removeProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			prop := call.Argument(0).String()
			old, _ := dom.StyleProperty(s.n, prop)
			dom.RemoveStyleProperty(s.n, prop)
			return vm.ToValue(old)
		})
	}
	v, _ := dom.StyleProperty(s.n, kebab(key))
	return vm.ToValue(v)
}

func (s *styleDeclaration) Set(key string, val goja.Value) bool {
	if key == "cssText" {
		text := val.String()
		if _, err := dom.ParseStyle(text); err != nil {
			return true
		}
		dom.RemoveAttribute(s.n, "style")
		if strings.TrimSpace(text) != "" {
			// Already validated above
			_ = dom.SetStyle(s.n, text)
		}
		return true
	}
	s.set(kebab(key), val.String())
	return true
}

func (s *styleDeclaration) set(prop, value string) {
	if strings.TrimSpace(value) == "" {
		dom.RemoveStyleProperty(s.n, prop)
		return
	}
	if err := dom.SetStyle(s.n, prop+": "+value); err != nil {
		// Invalid values are ignored like in browsers
		s.b.logger.Debug("Ignoring style value", zap.String("property", prop), zap.Error(err))
	}
}

func (s *styleDeclaration) Has(key string) bool {
	_, ok := dom.StyleProperty(s.n, kebab(key))
	return ok
}

func (s *styleDeclaration) Delete(key string) bool {
	dom.RemoveStyleProperty(s.n, kebab(key))
	return true
}

func (s *styleDeclaration) Keys() []string {
	current, _ := dom.Attribute(s.n, "style")
	decls, err := dom.ParseStyle(current)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(decls))
	for _, d := range decls {
		keys = append(keys, d.Property)
	}
	return keys
}

// kebab converts backgroundColor to background-color
func kebab(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			sb.WriteByte('-')
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// textArg converts a setter argument the way DOM string setters do: null
// becomes the empty string.
func textArg(v goja.Value) string {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}

func nodeType(n *html.Node) int {
	switch n.Type {
	case html.ElementNode:
		return elementNode
	case html.TextNode:
		return textNode
	case html.CommentNode:
		return commentNode
	case html.DocumentNode:
		return documentNode
	case html.DoctypeNode:
		return doctypeNode
	}
	return 0
}

func nodeName(n *html.Node) string {
	switch n.Type {
	case html.ElementNode:
		return strings.ToUpper(n.Data)
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	case html.DocumentNode:
		return "#document"
	}
	return n.Data
}
