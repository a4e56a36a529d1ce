// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rewrite makes SVG identifiers unique per component instance.
//
// Two passes run over each container subtree. The declaration pass replaces
// every literal id with a freshly minted token. The reference pass then
// rewrites every attribute and style text that refers to a registered id.
// Keeping the passes separate lets references appear before their
// declaration anywhere in the subtree.
//
// The passes never fail. Shapes they do not recognize are left exactly as
// authored.
package rewrite

import (
	"github.com/AleutianAI/svgid/services/uniqueid/markup"
	"github.com/AleutianAI/svgid/services/uniqueid/patterns"
	"github.com/AleutianAI/svgid/services/uniqueid/registry"
	"github.com/AleutianAI/svgid/services/uniqueid/segment"
)

// Form is the syntax a reference was written in.
type Form int

const (
	// FormIRI is an attribute value that is exactly url(#id).
	FormIRI Form = iota

	// FormFragment is a cross-link attribute value (href, xlinkHref or
	// xlink:href) that is exactly #id.
	FormFragment

	// FormEmbedded is url(#id) inside style text.
	FormEmbedded
)

// String returns the form name for logs and metric attributes.
func (f Form) String() string {
	switch f {
	case FormIRI:
		return "iri"
	case FormFragment:
		return "fragment"
	case FormEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// Declaration records one rewritten id attribute.
type Declaration struct {
	Value string
	Token string

	// InDefinitions is true when the element sits under a defs element.
	InDefinitions bool
}

// Reference records one rewritten reference.
type Reference struct {
	Form  Form
	Value string
	Token string

	// Attribute is the attribute name, empty for style text.
	Attribute string
}

// Declare runs the declaration pass over the subtree rooted at container.
//
// Every plain id attribute on a descendant of container holding a literal
// is registered and replaced by a reference to its token. The container's
// own id names the component's root element and is left alone. Non-literal
// values are skipped, which makes the pass idempotent.
func Declare(container *markup.Node, reg *registry.Registry) []Declaration {
	var out []Declaration
	var visit func(n *markup.Node, inDefs bool)
	visit = func(n *markup.Node, inDefs bool) {
		inDefs = inDefs || patterns.IsContainer(n, patterns.DefinitionsTags)
		if n == container {
			visitChildren(n, inDefs, visit)
			return
		}
		for _, attr := range n.Attrs {
			if !patterns.IsDeclarationAttribute(attr) {
				continue
			}
			value, ok := attr.Value.LiteralText()
			if !ok {
				continue
			}
			token := reg.CreateOrGet(value)
			attr.Replace(markup.Computed(markup.TokenPart(token)))
			out = append(out, Declaration{Value: value, Token: token, InDefinitions: inDefs})
		}
		visitChildren(n, inDefs, visit)
	}
	if container != nil {
		visit(container, false)
	}
	return out
}

func visitChildren(n *markup.Node, inDefs bool, visit func(*markup.Node, bool)) {
	for _, c := range n.Children {
		if c.Kind == markup.ChildElement {
			visit(c.Element, inDefs)
		}
	}
}

// ResolveReferences runs the reference pass over the subtree rooted at container.
//
// It must run after Declare has seen the whole subtree. Only identifiers
// already in reg are rewritten; unknown references are left untouched.
func ResolveReferences(container *markup.Node, reg *registry.Registry) []Reference {
	var out []Reference
	markup.Walk(container, func(n *markup.Node) bool {
		for _, attr := range n.Attrs {
			if ref, ok := referenceAttribute(attr, reg); ok {
				out = append(out, ref)
			}
		}
		if patterns.IsContainer(n, patterns.StyleTags) {
			for _, text := range markup.Texts(n) {
				out = append(out, referenceText(text, reg)...)
			}
		}
		return true
	})
	return out
}

func referenceAttribute(attr *markup.Attribute, reg *registry.Registry) (Reference, bool) {
	if patterns.IsDeclarationAttribute(attr) {
		return Reference{}, false
	}
	value, ok := attr.Value.LiteralText()
	if !ok {
		return Reference{}, false
	}

	if id, ok := patterns.MatchIRI(value); ok {
		if token, found := reg.TryGet(id); found {
			attr.Replace(markup.Computed(markup.IRIPart(token)))
			return Reference{Form: FormIRI, Value: id, Token: token, Attribute: attr.Name.String()}, true
		}
	}

	if patterns.IsCrossLinkAttribute(attr) {
		if id, ok := patterns.MatchFragment(value); ok {
			if token, found := reg.TryGet(id); found {
				attr.Replace(markup.Computed(markup.FragmentPart(token)))
				return Reference{Form: FormFragment, Value: id, Token: token, Attribute: attr.Name.String()}, true
			}
		}
	}
	return Reference{}, false
}

func referenceText(text *markup.Text, reg *registry.Registry) []Reference {
	value, ok := text.Value.LiteralText()
	if !ok {
		return nil
	}

	var pairs []segment.Pair
	for _, id := range patterns.EmbeddedIRIs(value) {
		if token, found := reg.TryGet(id); found {
			pairs = append(pairs, segment.Pair{Value: id, Token: token})
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	text.Replace(markup.Computed(segment.Split(value, pairs)...))

	refs := make([]Reference, len(pairs))
	for i, p := range pairs {
		refs[i] = Reference{Form: FormEmbedded, Value: p.Value, Token: p.Token}
	}
	return refs
}
