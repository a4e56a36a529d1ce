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
)

// anonymous names functions with no binding.
const anonymous = "<anonymous>"

var functionTypes = map[string]bool{
	"function_declaration":           true,
	"function":                       true,
	"function_expression":            true,
	"generator_function":             true,
	"generator_function_declaration": true,
	"arrow_function":                 true,
	"method_definition":              true,
}

func isFunction(n *sitter.Node) bool {
	return functionTypes[n.Type()]
}

// outermostFunctions returns every function not nested in another function,
// in document order. JSX in nested callbacks belongs to the outer function.
func outermostFunctions(root *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if isFunction(n) {
			out = append(out, n)
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(root)
	return out
}

// findContainers returns the outermost container elements under n.
// Containers nested in a container are handled as part of it.
func findContainers(n *sitter.Node, l *lifter) []*sitter.Node {
	var out []*sitter.Node
	var visit func(c *sitter.Node)
	visit = func(c *sitter.Node) {
		if l.isContainerElement(c) {
			out = append(out, c)
			return
		}
		for i := 0; i < int(c.NamedChildCount()); i++ {
			visit(c.NamedChild(i))
		}
	}
	visit(n)
	return out
}

// functionName returns the name a function is known by: its own name, or
// the variable, property or assignment target it is bound to. Wrapping calls
// such as memo(...) or forwardRef(...) are looked through.
func functionName(fn *sitter.Node, content []byte) string {
	if name := fn.ChildByFieldName("name"); name != nil {
		return name.Content(content)
	}

	for p := fn.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "arguments", "call_expression", "parenthesized_expression":
			continue
		case "variable_declarator":
			if name := p.ChildByFieldName("name"); name != nil {
				return name.Content(content)
			}
		case "pair":
			if key := p.ChildByFieldName("key"); key != nil {
				return key.Content(content)
			}
		case "assignment_expression":
			if left := p.ChildByFieldName("left"); left != nil {
				return left.Content(content)
			}
		case "field_definition", "public_field_definition":
			if prop := p.ChildByFieldName("property"); prop != nil {
				return prop.Content(content)
			}
			if name := p.ChildByFieldName("name"); name != nil {
				return name.Content(content)
			}
		}
		return anonymous
	}
	return anonymous
}
