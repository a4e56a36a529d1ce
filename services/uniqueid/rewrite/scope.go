// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rewrite

import (
	"context"

	"github.com/AleutianAI/svgid/services/uniqueid/markup"
	"github.com/AleutianAI/svgid/services/uniqueid/registry"
)

// Scope rewrites all containers rendered by one component function.
//
// Description:
//
//	A Scope owns the function's registry. Containers are handed to it in
//	document order; each runs its declaration pass then its reference pass
//	before the next container starts. Containers share the registry, so a
//	later container may reference an id declared by an earlier one.
//
// Thread Safety:
//
//	Not safe for concurrent use. Create one Scope per function.
//
// Example:
//
//	scope := rewrite.NewScope(minter)
//	for _, svg := range containers {
//	    scope.Container(svg)
//	}
//	if !scope.Empty() {
//	    emitBindings(scope.Tokens())
//	}
type Scope struct {
	reg          *registry.Registry
	declarations []Declaration
	references   []Reference
	containers   int
}

// NewScope creates a scope whose tokens come from mint.
func NewScope(mint registry.Minter) *Scope {
	return &Scope{reg: registry.New(mint)}
}

// Container rewrites one container subtree.
func (s *Scope) Container(container *markup.Node) {
	if container == nil {
		return
	}
	s.containers++
	s.declarations = append(s.declarations, Declare(container, s.reg)...)
	s.references = append(s.references, ResolveReferences(container, s.reg)...)
}

// Empty reports whether no identifier was registered. An empty scope made
// no changes to any container.
func (s *Scope) Empty() bool {
	return s.reg.IsEmpty()
}

// Tokens returns the minted tokens in creation order.
func (s *Scope) Tokens() []string {
	return s.reg.Tokens()
}

// Entries returns the registered identifiers in creation order.
func (s *Scope) Entries() []registry.Entry {
	return s.reg.Entries()
}

// Declarations returns every rewritten declaration.
func (s *Scope) Declarations() []Declaration {
	return s.declarations
}

// References returns every rewritten reference.
func (s *Scope) References() []Reference {
	return s.references
}

// Containers returns how many containers were processed.
func (s *Scope) Containers() int {
	return s.containers
}

// Finish records the scope's metrics. Call once after the last container.
func (s *Scope) Finish(ctx context.Context) {
	recordScopeMetrics(ctx, s)
}
