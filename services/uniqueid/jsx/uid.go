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
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"
)

// uidBase is the hint passed to the generator, mirroring the attribute the
// tokens stand for.
const uidBase = "id"

// uidGenerator mints binding names that do not collide with any identifier
// already written in the file: _id, _id2, _id3, ...
//
// Names are unique across the whole file, so two components in one module
// never share a token name.
type uidGenerator struct {
	used map[string]struct{}
	next int
}

func newUIDGenerator(root *sitter.Node, content []byte) *uidGenerator {
	g := &uidGenerator{used: make(map[string]struct{}), next: 1}
	collectIdentifiers(root, content, g.used)
	return g
}

// Mint returns the next free name and reserves it.
func (g *uidGenerator) Mint() string {
	for {
		name := "_" + uidBase
		if g.next > 1 {
			name += strconv.Itoa(g.next)
		}
		g.next++
		if _, taken := g.used[name]; taken {
			continue
		}
		g.used[name] = struct{}{}
		return name
	}
}

// collectIdentifiers records every binding or reference name in the tree.
func collectIdentifiers(n *sitter.Node, content []byte, into map[string]struct{}) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
		into[n.Content(content)] = struct{}{}
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		collectIdentifiers(n.Child(i), content, into)
	}
}
