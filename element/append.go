package element

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/GriffinCanCode/domkit/dom"
)

// AppendElement appends child to parent. A child that already has a parent is
// moved. With spreadChildren, deep copies of child's own children are appended
// instead of child itself, and child is left unchanged.
func AppendElement(parent, child *html.Node, spreadChildren bool) error {
	if parent == nil {
		return invalid("appendElement", "parent node is nil")
	}
	if child == nil {
		return invalid("appendElement", "child node is nil")
	}

	if !spreadChildren {
		return appendChild("appendElement", parent, child)
	}
	for _, c := range dom.ChildNodes(child) {
		if err := appendChild("appendElement", parent, dom.Clone(c, true)); err != nil {
			return err
		}
	}
	return nil
}

// AppendElements appends each child to parent in argument order
func AppendElements(parent *html.Node, children ...*html.Node) error {
	if parent == nil {
		return invalid("appendElements", "parent node is nil")
	}
	for i, c := range children {
		if c == nil {
			return invalid("appendElements", "child %d is nil", i)
		}
		if err := appendChild("appendElements", parent, c); err != nil {
			return err
		}
	}
	return nil
}

// CloneElementWithClasses appends a deep clone of source, carrying source's
// class list, to target and returns the clone.
func CloneElementWithClasses(source, target *html.Node) (*html.Node, error) {
	if source == nil {
		return nil, invalid("cloneElementWithClasses", "source node is nil")
	}
	if target == nil {
		return nil, invalid("cloneElementWithClasses", "target node is nil")
	}

	clone := dom.Clone(source, true)
	if classes := dom.ClassList(source); len(classes) > 0 {
		dom.SetClassList(clone, classes)
	}
	if err := appendChild("cloneElementWithClasses", target, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func appendChild(op string, parent, child *html.Node) error {
	if err := dom.Append(parent, child); err != nil {
		return &ArgumentError{Op: op, Message: fmt.Sprintf("cannot append <%s> to <%s>", child.Data, parent.Data), Err: err}
	}
	return nil
}
