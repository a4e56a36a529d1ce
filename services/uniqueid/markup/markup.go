// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package markup defines the mutable tree the identifier rewriter works on.
//
// The tree is a closed set of tagged shapes: element names, attribute values,
// children and value parts each carry a Kind. Hosts lift whatever syntax they
// parse into these shapes and map anything they cannot represent to the
// Unrecognized kinds, which every predicate in the rewriter treats as "no".
//
// Nodes are owned by the tree and edited in place. Span fields are opaque to
// the rewriter; hosts use them to map rewritten values back to source ranges.
package markup

import "strings"

// =============================================================================
// Names
// =============================================================================

// NameKind identifies the syntactic shape of an element or attribute name.
type NameKind int

const (
	// NameUnrecognized is any shape the host could not classify.
	NameUnrecognized NameKind = iota

	// NamePlain is a single identifier: svg, fill, xlinkHref.
	NamePlain

	// NameNamespaced is prefix:local, e.g. xlink:href.
	NameNamespaced

	// NameMember is a dotted component reference, e.g. Icons.Svg.
	NameMember
)

// String returns the kind name for logs.
func (k NameKind) String() string {
	switch k {
	case NamePlain:
		return "plain"
	case NameNamespaced:
		return "namespaced"
	case NameMember:
		return "member"
	default:
		return "unrecognized"
	}
}

// Name is an element tag or attribute name.
//
// For NamePlain and NameMember only Local is set (members keep the dotted
// text). For NameNamespaced both Namespace and Local are set.
type Name struct {
	Kind      NameKind
	Namespace string
	Local     string
}

// Plain returns a plain name.
func Plain(local string) Name {
	return Name{Kind: NamePlain, Local: local}
}

// Namespaced returns a prefix:local name.
func Namespaced(namespace, local string) Name {
	return Name{Kind: NameNamespaced, Namespace: namespace, Local: local}
}

// String renders the name as it appears in source.
func (n Name) String() string {
	if n.Kind == NameNamespaced {
		return n.Namespace + ":" + n.Local
	}
	return n.Local
}

// =============================================================================
// Values
// =============================================================================

// ValueKind identifies the shape of an attribute value or text content.
type ValueKind int

const (
	// ValueUnrecognized is any value the host could not classify.
	ValueUnrecognized ValueKind = iota

	// ValueNone is a boolean attribute without a value.
	ValueNone

	// ValueLiteral is a plain string; Text holds it.
	ValueLiteral

	// ValueExpression is an authored expression; Text holds its raw source.
	ValueExpression

	// ValueComputed is a value produced by the rewriter; Parts hold it.
	ValueComputed
)

// String returns the kind name for logs.
func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueLiteral:
		return "literal"
	case ValueExpression:
		return "expression"
	case ValueComputed:
		return "computed"
	default:
		return "unrecognized"
	}
}

// PartKind identifies one piece of a computed value.
type PartKind int

const (
	// PartLiteral is verbatim text.
	PartLiteral PartKind = iota

	// PartToken evaluates to the token's runtime value.
	PartToken

	// PartIRI evaluates to "url(#" + token + ")".
	PartIRI

	// PartFragment evaluates to "#" + token.
	PartFragment
)

// String returns the kind name for logs.
func (k PartKind) String() string {
	switch k {
	case PartLiteral:
		return "literal"
	case PartToken:
		return "token"
	case PartIRI:
		return "iri"
	case PartFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Part is one element of a computed value. Literal parts carry Text,
// the others carry Token.
type Part struct {
	Kind  PartKind
	Text  string
	Token string
}

// LiteralPart returns a verbatim text part.
func LiteralPart(text string) Part {
	return Part{Kind: PartLiteral, Text: text}
}

// TokenPart returns a part that evaluates to the token itself.
func TokenPart(token string) Part {
	return Part{Kind: PartToken, Token: token}
}

// IRIPart returns a part that evaluates to url(#token).
func IRIPart(token string) Part {
	return Part{Kind: PartIRI, Token: token}
}

// FragmentPart returns a part that evaluates to #token.
func FragmentPart(token string) Part {
	return Part{Kind: PartFragment, Token: token}
}

// Resolve evaluates the part given the runtime value of its token.
func (p Part) Resolve(lookup func(token string) string) string {
	switch p.Kind {
	case PartLiteral:
		return p.Text
	case PartToken:
		return lookup(p.Token)
	case PartIRI:
		return "url(#" + lookup(p.Token) + ")"
	case PartFragment:
		return "#" + lookup(p.Token)
	default:
		return ""
	}
}

// Value is an attribute value or text content.
type Value struct {
	Kind  ValueKind
	Text  string
	Parts []Part
}

// Literal returns a plain string value.
func Literal(text string) Value {
	return Value{Kind: ValueLiteral, Text: text}
}

// Expression returns an authored expression value holding raw source.
func Expression(raw string) Value {
	return Value{Kind: ValueExpression, Text: raw}
}

// Computed returns a value built by concatenating parts.
func Computed(parts ...Part) Value {
	return Value{Kind: ValueComputed, Parts: parts}
}

// LiteralText returns the string of a literal value.
func (v Value) LiteralText() (string, bool) {
	if v.Kind != ValueLiteral {
		return "", false
	}
	return v.Text, true
}

// Resolve evaluates the value as the runtime would.
//
// Literal values return their text. Computed values concatenate their
// resolved parts. Other kinds return their raw text unchanged.
func (v Value) Resolve(lookup func(token string) string) string {
	if v.Kind != ValueComputed {
		return v.Text
	}
	var sb strings.Builder
	for _, p := range v.Parts {
		sb.WriteString(p.Resolve(lookup))
	}
	return sb.String()
}

// =============================================================================
// Tree
// =============================================================================

// Span is a host-defined source range. The rewriter never reads it.
type Span struct {
	Start int
	End   int
}

// Attribute is a name/value pair on an element.
type Attribute struct {
	Name  Name
	Value Value
	Span  Span

	// Rewritten is set when the rewriter replaced Value.
	Rewritten bool
}

// Replace swaps the attribute value and marks it rewritten.
func (a *Attribute) Replace(v Value) {
	a.Value = v
	a.Rewritten = true
}

// Text is a free-text child.
type Text struct {
	Value Value
	Span  Span

	// Rewritten is set when the rewriter replaced Value.
	Rewritten bool
}

// Replace swaps the text value and marks it rewritten.
func (t *Text) Replace(v Value) {
	t.Value = v
	t.Rewritten = true
}

// ChildKind identifies the shape of a child.
type ChildKind int

const (
	// ChildUnrecognized is content the host did not lift.
	ChildUnrecognized ChildKind = iota

	// ChildElement holds a nested Node.
	ChildElement

	// ChildText holds free text.
	ChildText
)

// Child is one entry in a node's ordered children.
type Child struct {
	Kind    ChildKind
	Element *Node
	Text    *Text
}

// ElementChild wraps a node as a child.
func ElementChild(n *Node) Child {
	return Child{Kind: ChildElement, Element: n}
}

// TextChild wraps text as a child.
func TextChild(t *Text) Child {
	return Child{Kind: ChildText, Text: t}
}

// Node is an element of the rendered tree.
type Node struct {
	Name     Name
	Attrs    []*Attribute
	Children []Child
	Span     Span
}

// NewElement builds a node with a plain tag name.
func NewElement(tag string, attrs []*Attribute, children ...Child) *Node {
	return &Node{Name: Plain(tag), Attrs: attrs, Children: children}
}

// Attr looks up the first attribute with the given rendered name.
func (n *Node) Attr(name string) *Attribute {
	for _, a := range n.Attrs {
		if a.Name.String() == name {
			return a
		}
	}
	return nil
}

// Walk visits n and its element descendants in pre-order. Returning false
// from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		if c.Kind == ChildElement {
			Walk(c.Element, fn)
		}
	}
}

// Texts returns every text child in the subtree rooted at n, in document order.
func Texts(n *Node) []*Text {
	var out []*Text
	var visit func(*Node)
	visit = func(node *Node) {
		for _, c := range node.Children {
			switch c.Kind {
			case ChildText:
				out = append(out, c.Text)
			case ChildElement:
				visit(c.Element)
			}
		}
	}
	if n != nil {
		visit(n)
	}
	return out
}
