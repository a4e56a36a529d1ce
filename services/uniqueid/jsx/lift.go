// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsx

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/svgid/services/uniqueid/markup"
	"github.com/AleutianAI/svgid/services/uniqueid/patterns"
)

// textOrigin remembers how a lifted string literal was written.
type textOrigin struct {
	quote byte

	// wrap is set when the literal is part of a larger expression, so a
	// concatenation replacing it needs parentheses.
	wrap bool
}

// lifter converts tree-sitter JSX into markup nodes and remembers which
// markup values came from which source ranges.
type lifter struct {
	content []byte
	attrs   []*markup.Attribute
	texts   map[*markup.Text]textOrigin
	order   []*markup.Text
}

func newLifter(content []byte) *lifter {
	return &lifter{content: content, texts: make(map[*markup.Text]textOrigin)}
}

func isElement(n *sitter.Node) bool {
	t := n.Type()
	return t == "jsx_element" || t == "jsx_self_closing_element"
}

// openingTag returns the node carrying an element's name and attributes.
func openingTag(n *sitter.Node) *sitter.Node {
	if n.Type() == "jsx_self_closing_element" {
		return n
	}
	if open := n.ChildByFieldName("open_tag"); open != nil {
		return open
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "jsx_opening_element" {
			return c
		}
	}
	return nil
}

// elementName classifies the tag name of a JSX element without lifting it.
func (l *lifter) elementName(n *sitter.Node) markup.Name {
	open := openingTag(n)
	if open == nil {
		return markup.Name{}
	}
	name := open.ChildByFieldName("name")
	if name == nil {
		// Fragments (<>...</>) have no name.
		return markup.Name{}
	}
	return l.name(name)
}

func (l *lifter) name(n *sitter.Node) markup.Name {
	switch n.Type() {
	case "identifier", "jsx_identifier", "property_identifier":
		return markup.Plain(n.Content(l.content))
	case "jsx_namespace_name":
		count := int(n.NamedChildCount())
		if count < 2 {
			return markup.Name{Kind: markup.NameUnrecognized, Local: n.Content(l.content)}
		}
		return markup.Namespaced(n.NamedChild(0).Content(l.content), n.NamedChild(count-1).Content(l.content))
	case "member_expression", "nested_identifier":
		return markup.Name{Kind: markup.NameMember, Local: n.Content(l.content)}
	default:
		return markup.Name{Kind: markup.NameUnrecognized, Local: n.Content(l.content)}
	}
}

// isContainerElement reports whether n is a JSX element the rewriter roots at.
func (l *lifter) isContainerElement(n *sitter.Node) bool {
	if !isElement(n) {
		return false
	}
	return patterns.IsContainer(&markup.Node{Name: l.elementName(n)}, patterns.ContainerTags)
}

// element lifts a JSX element and its subtree.
func (l *lifter) element(n *sitter.Node) *markup.Node {
	node := &markup.Node{
		Name: l.elementName(n),
		Span: span(n),
	}

	if open := openingTag(n); open != nil {
		for i := 0; i < int(open.NamedChildCount()); i++ {
			if c := open.NamedChild(i); c.Type() == "jsx_attribute" {
				node.Attrs = append(node.Attrs, l.attribute(c))
			}
		}
	}

	if n.Type() == "jsx_element" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "jsx_opening_element", "jsx_closing_element":
				continue
			case "jsx_element", "jsx_self_closing_element":
				node.Children = append(node.Children, markup.ElementChild(l.element(c)))
			case "jsx_expression":
				node.Children = append(node.Children, l.expression(c)...)
			default:
				node.Children = append(node.Children, markup.Child{Kind: markup.ChildUnrecognized})
			}
		}
	}
	return node
}

func (l *lifter) attribute(n *sitter.Node) *markup.Attribute {
	attr := &markup.Attribute{Span: span(n)}
	count := int(n.NamedChildCount())
	if count == 0 {
		attr.Name = markup.Name{Kind: markup.NameUnrecognized}
		attr.Value = markup.Value{Kind: markup.ValueUnrecognized}
		return attr
	}
	attr.Name = l.name(n.NamedChild(0))
	if count == 1 {
		attr.Value = markup.Value{Kind: markup.ValueNone}
		return attr
	}

	value := n.NamedChild(count - 1)
	attr.Span = span(value)
	switch value.Type() {
	case "string":
		attr.Value = markup.Literal(l.stringBody(value))
		l.attrs = append(l.attrs, attr)
	case "jsx_expression", "jsx_element", "jsx_self_closing_element":
		attr.Value = markup.Expression(value.Content(l.content))
	default:
		attr.Value = markup.Value{Kind: markup.ValueUnrecognized, Text: value.Content(l.content)}
	}
	return attr
}

// expression lifts the contents of a {...} child. JSX elements anywhere
// inside become element children and string literals become text, so
// elements rendered by callbacks like items.map(...) stay in the subtree.
func (l *lifter) expression(n *sitter.Node) []markup.Child {
	var out []markup.Child
	var visit func(c *sitter.Node)
	visit = func(c *sitter.Node) {
		switch {
		case isElement(c):
			out = append(out, markup.ElementChild(l.element(c)))
			return
		case c.Type() == "string" && isPairKey(c):
			return
		case c.Type() == "string":
			out = append(out, markup.TextChild(l.text(c)))
			return
		case c.Type() == "template_string" || c.Type() == "comment":
			return
		}
		for i := 0; i < int(c.NamedChildCount()); i++ {
			visit(c.NamedChild(i))
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		visit(n.NamedChild(i))
	}
	if len(out) == 0 {
		out = append(out, markup.Child{Kind: markup.ChildUnrecognized})
	}
	return out
}

// isPairKey reports whether n is the key of an object literal property.
// Rewriting a key into a template literal is not valid syntax.
func isPairKey(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil || p.Type() != "pair" {
		return false
	}
	key := p.ChildByFieldName("key")
	return key != nil && key.Equal(n)
}

func (l *lifter) text(n *sitter.Node) *markup.Text {
	t := &markup.Text{Value: markup.Literal(l.stringBody(n)), Span: span(n)}
	origin := textOrigin{quote: '\''}
	if raw := n.Content(l.content); len(raw) > 0 {
		origin.quote = raw[0]
	}
	if p := n.Parent(); p != nil && p.Type() != "jsx_expression" {
		origin.wrap = true
	}
	l.texts[t] = origin
	l.order = append(l.order, t)
	return t
}

// stringBody returns the source between a string literal's quotes,
// escapes untouched.
func (l *lifter) stringBody(n *sitter.Node) string {
	start, end := int(n.StartByte()), int(n.EndByte())
	if end-start < 2 {
		return ""
	}
	return string(l.content[start+1 : end-1])
}

func span(n *sitter.Node) markup.Span {
	return markup.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}
