// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry maps original identifier values to replacement tokens for
// one component function.
package registry

// Minter produces a new token name. Names must be unique within the binding
// scope the tokens are emitted into; the registry does not check.
type Minter func() string

// Entry is one registered identifier.
type Entry struct {
	// Value is the identifier as authored, e.g. "grad1".
	Value string

	// Token is the binding name standing for the runtime identifier.
	Token string
}

// Registry is an insertion-ordered map from identifier value to token.
//
// Thread Safety: not safe for concurrent use. A registry belongs to exactly
// one function rewrite and is never shared.
type Registry struct {
	mint    Minter
	byValue map[string]string
	entries []Entry
}

// New creates an empty registry that mints tokens with mint.
func New(mint Minter) *Registry {
	return &Registry{
		mint:    mint,
		byValue: make(map[string]string),
	}
}

// CreateOrGet returns the token for value, minting one on first sight.
func (r *Registry) CreateOrGet(value string) string {
	if token, ok := r.byValue[value]; ok {
		return token
	}
	token := r.mint()
	r.byValue[value] = token
	r.entries = append(r.entries, Entry{Value: value, Token: token})
	return token
}

// TryGet returns the token for value without minting.
func (r *Registry) TryGet(value string) (string, bool) {
	token, ok := r.byValue[value]
	return token, ok
}

// IsEmpty reports whether nothing has been registered.
func (r *Registry) IsEmpty() bool {
	return len(r.entries) == 0
}

// Len returns the number of distinct registered values.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Tokens returns all tokens in creation order.
func (r *Registry) Tokens() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Token
	}
	return out
}

// Entries returns a copy of all entries in creation order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
