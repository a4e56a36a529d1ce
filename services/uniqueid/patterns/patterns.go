// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patterns recognizes SVG containers, identifier declarations and the
// reference syntaxes that point at them.
//
// All functions are pure and safe for concurrent use.
package patterns

import (
	"regexp"

	"github.com/AleutianAI/svgid/services/uniqueid/markup"
)

// TagSet is a case-sensitive set of element names.
type TagSet []string

// Contains reports whether name is a member of the set.
func (s TagSet) Contains(name string) bool {
	for _, t := range s {
		if t == name {
			return true
		}
	}
	return false
}

var (
	// ContainerTags are the top-level vector-graphics roots.
	ContainerTags = TagSet{"svg", "Svg"}

	// DefinitionsTags hold reusable definitions.
	DefinitionsTags = TagSet{"defs", "Defs"}

	// StyleTags hold free-form style text.
	StyleTags = TagSet{"style"}
)

const (
	// DeclarationAttribute is the attribute whose value is a document-scoped id.
	DeclarationAttribute = "id"

	crossLinkCamel     = "xlinkHref"
	crossLinkPlain     = "href"
	crossLinkNamespace = "xlink"
	crossLinkLocal     = "href"
)

// identifierPattern matches an identifier value: a letter followed by
// letters, digits, ':', '.', '-' or '_'.
const identifierPattern = `([a-zA-Z][\w:.-]*)`

var (
	fragmentExact = regexp.MustCompile(`^#` + identifierPattern + `$`)
	iriExact      = regexp.MustCompile(`^url\(#` + identifierPattern + `\)$`)
	iriEmbedded   = regexp.MustCompile(`url\(#` + identifierPattern + `\)`)
)

// IsContainer reports whether the node's plain tag name is in set.
func IsContainer(n *markup.Node, set TagSet) bool {
	if n == nil || n.Name.Kind != markup.NamePlain {
		return false
	}
	return set.Contains(n.Name.Local)
}

// IsDeclarationAttribute reports whether a is a plain "id" attribute.
func IsDeclarationAttribute(a *markup.Attribute) bool {
	return a != nil && a.Name.Kind == markup.NamePlain && a.Name.Local == DeclarationAttribute
}

// IsCrossLinkAttribute reports whether a is href, xlinkHref or xlink:href.
// Plain href is the SVG 2 spelling of the xlink attribute.
func IsCrossLinkAttribute(a *markup.Attribute) bool {
	if a == nil {
		return false
	}
	switch a.Name.Kind {
	case markup.NamePlain:
		return a.Name.Local == crossLinkCamel || a.Name.Local == crossLinkPlain
	case markup.NameNamespaced:
		return a.Name.Namespace == crossLinkNamespace && a.Name.Local == crossLinkLocal
	default:
		return false
	}
}

// MatchIRI extracts the identifier from a string that is exactly url(#id).
func MatchIRI(s string) (string, bool) {
	return capture(iriExact, s)
}

// MatchFragment extracts the identifier from a string that is exactly #id.
func MatchFragment(s string) (string, bool) {
	return capture(fragmentExact, s)
}

// EmbeddedIRIs returns the distinct identifiers referenced as url(#id)
// anywhere in s, in order of first occurrence.
func EmbeddedIRIs(s string) []string {
	matches := iriEmbedded.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// IRI renders url(#id).
func IRI(id string) string {
	return "url(#" + id + ")"
}

// IsIdentifier reports whether s is a whole identifier value.
func IsIdentifier(s string) bool {
	_, ok := MatchFragment("#" + s)
	return ok
}

func capture(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
