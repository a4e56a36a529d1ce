// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package generator mints the runtime tokens that rewritten components bind
// to their SVG identifiers.
//
// A Provider hands out prefix+counter strings (i0, i1, ...). Each rendered
// component instance owns an Instance whose hook slots remember the token
// minted on first render, so re-rendering keeps ids stable.
package generator

import (
	"strconv"
	"sync/atomic"

	"github.com/AleutianAI/svgid/services/uniqueid/config"
)

// Provider mints unique tokens.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Provider struct {
	prefix string
	next   atomic.Uint64
}

var defaultProvider = NewProvider(config.DefaultPrefix)

// Default returns the process-wide provider used when none is configured.
func Default() *Provider {
	return defaultProvider
}

// NewProvider creates a provider whose tokens start with prefix.
func NewProvider(prefix string) *Provider {
	return &Provider{prefix: prefix}
}

// ProviderFromConfig creates a provider from cfg's idPrefix. A nil cfg
// yields a provider with the default prefix.
func ProviderFromConfig(cfg *config.Config) *Provider {
	if cfg == nil {
		return NewProvider(config.DefaultPrefix)
	}
	return NewProvider(cfg.IDPrefix.String())
}

// Prefix returns the token prefix.
func (p *Provider) Prefix() string { return p.prefix }

// Next returns a token never returned before by this provider.
func (p *Provider) Next() string {
	n := p.next.Add(1) - 1
	return p.prefix + strconv.FormatUint(n, 10)
}

// Instance is one mounted component. Its slots are addressed by call order
// within a render, the way hooks are.
//
// Thread Safety:
//
//	Not safe for concurrent use. A component instance renders on one
//	goroutine at a time.
type Instance struct {
	provider *Provider
	slots    []string
	cursor   int
}

// NewInstance mounts a component against p. A nil p uses Default().
func (p *Provider) NewInstance() *Instance {
	if p == nil {
		p = Default()
	}
	return &Instance{provider: p}
}

// UseUniqueInlineID returns the token for the current slot, minting it on
// the first render.
func (in *Instance) UseUniqueInlineID() string {
	if in.cursor == len(in.slots) {
		in.slots = append(in.slots, in.provider.Next())
	}
	tok := in.slots[in.cursor]
	in.cursor++
	return tok
}

// Render starts a new render pass. Slots keep their tokens.
func (in *Instance) Render() {
	in.cursor = 0
}

// Tokens returns the tokens minted so far, in slot order.
func (in *Instance) Tokens() []string {
	out := make([]string, len(in.slots))
	copy(out, in.slots)
	return out
}
