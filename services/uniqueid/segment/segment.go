// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package segment splits free text around url(#id) references so that each
// reference can be replaced by a computed value.
package segment

import (
	"strings"

	"github.com/AleutianAI/svgid/services/uniqueid/markup"
	"github.com/AleutianAI/svgid/services/uniqueid/patterns"
)

// Pair is an identifier value and the token that replaces it.
type Pair struct {
	Value string
	Token string
}

// Split cuts text on every occurrence of url(#value) for each pair in order,
// placing an IRI part for the pair's token between the pieces.
//
// Description:
//
//	The result starts as a single literal. Each pair splits every literal
//	produced so far; parts placed by earlier pairs are never rescanned.
//	Empty literals between adjacent references are kept, so the output
//	always alternates literal / IRI / literal.
//
// Inputs:
//
//	text  - The original text.
//	pairs - Registered identifiers in scan order.
//
// Outputs:
//
//	[]markup.Part - Literal and IRI parts whose concatenation, with each
//	token resolved to its identifier, equals text.
//
// Example:
//
//	Split(".a{fill:url(#g)}", []Pair{{"g", "_id"}})
//	// [".a{fill:", IRI(_id), "}"]
func Split(text string, pairs []Pair) []markup.Part {
	parts := []markup.Part{markup.LiteralPart(text)}
	for _, pair := range pairs {
		needle := patterns.IRI(pair.Value)
		next := make([]markup.Part, 0, len(parts))
		for _, p := range parts {
			if p.Kind != markup.PartLiteral {
				next = append(next, p)
				continue
			}
			pieces := strings.Split(p.Text, needle)
			for i, piece := range pieces {
				next = append(next, markup.LiteralPart(piece))
				if i < len(pieces)-1 {
					next = append(next, markup.IRIPart(pair.Token))
				}
			}
		}
		parts = next
	}
	return parts
}

// Join concatenates parts, resolving tokens with resolve.
func Join(parts []markup.Part, resolve func(token string) string) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.Resolve(resolve))
	}
	return sb.String()
}
