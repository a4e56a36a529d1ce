// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultPrefix is used when idPrefix is absent or null.
const DefaultPrefix = "i"

// Prefix is the runtime token prefix. The zero value means "not set" and
// resolves to DefaultPrefix; an explicit empty string is kept.
type Prefix struct {
	value string
	set   bool
}

// NewPrefix returns an explicitly set prefix.
func NewPrefix(s string) Prefix {
	return Prefix{value: s, set: true}
}

// String returns the effective prefix.
func (p Prefix) String() string {
	if !p.set {
		return DefaultPrefix
	}
	return p.value
}

// IsSet reports whether the prefix was given explicitly.
func (p Prefix) IsSet() bool { return p.set }

// UnmarshalYAML accepts a string or null and rejects everything else.
func (p *Prefix) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	switch {
	case node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str":
		*p = NewPrefix(node.Value)
		return nil
	case node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null":
		*p = Prefix{}
		return nil
	}
	return &PrefixError{Got: typeName(node), Line: node.Line}
}

// MarshalYAML writes the effective prefix.
func (p Prefix) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// PrefixError is returned when idPrefix holds a non-string value.
type PrefixError struct {
	// Got names the offending type: number, boolean or object.
	Got string

	// Line is the 1-indexed YAML line, 0 when unknown.
	Line int
}

func (e *PrefixError) Error() string {
	return fmt.Sprintf("invalid value for %q, expected undefined or string, got %s", "idPrefix", e.Got)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *PrefixError) Unwrap() error { return ErrInvalidConfig }

// typeName names a YAML value the way a JavaScript caller would see it.
func typeName(node *yaml.Node) string {
	if node.Kind != yaml.ScalarNode {
		return "object"
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		return "number"
	case "!!bool":
		return "boolean"
	default:
		return "object"
	}
}
