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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/svgid/services/uniqueid/edit"
	"github.com/AleutianAI/svgid/services/uniqueid/markup"
)

// renderParts renders a computed value as a JavaScript expression. Literal
// parts are written back with their original quote and escapes.
func renderParts(parts []markup.Part, quote byte) string {
	q := string(quote)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case markup.PartLiteral:
			if p.Text == "" {
				continue
			}
			items = append(items, q+p.Text+q)
		case markup.PartToken:
			items = append(items, p.Token)
		case markup.PartIRI:
			items = append(items, "`url(#${"+p.Token+"})`")
		case markup.PartFragment:
			items = append(items, "`#${"+p.Token+"}`")
		}
	}
	if len(items) == 0 {
		return q + q
	}
	return strings.Join(items, " + ")
}

// valueEdits turns rewritten attributes and texts into source edits.
func (l *lifter) valueEdits() []edit.Edit {
	var edits []edit.Edit
	for _, a := range l.attrs {
		if !a.Rewritten || a.Value.Kind != markup.ValueComputed {
			continue
		}
		edits = append(edits, edit.Replace(a.Span.Start, a.Span.End, "{"+renderParts(a.Value.Parts, '\'')+"}"))
	}
	for _, t := range l.order {
		if !t.Rewritten || t.Value.Kind != markup.ValueComputed {
			continue
		}
		origin := l.texts[t]
		expr := renderParts(t.Value.Parts, origin.quote)
		if origin.wrap && len(t.Value.Parts) > 1 {
			expr = "(" + expr + ")"
		}
		edits = append(edits, edit.Replace(t.Span.Start, t.Span.End, expr))
	}
	return edits
}

// bindingEdits declares one generator call per token at the top of the
// function body. Implicit-return arrow bodies are wrapped in a block.
func bindingEdits(fn *sitter.Node, content []byte, hook string, tokens []string) []edit.Edit {
	body := fn.ChildByFieldName("body")
	if body == nil || len(tokens) == 0 {
		return nil
	}

	if body.Type() == "statement_block" {
		indent := lineIndent(content, int(fn.StartByte())) + "  "
		if body.NamedChildCount() > 0 {
			indent = lineIndent(content, int(body.NamedChild(0).StartByte()))
		}
		var sb strings.Builder
		for _, tok := range tokens {
			sb.WriteString("\n" + indent + declaration(tok, hook))
		}
		return []edit.Edit{edit.Insert(afterDirectives(body, int(body.StartByte())+1), sb.String())}
	}

	outer := lineIndent(content, int(fn.StartByte()))
	inner := outer + "  "
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, tok := range tokens {
		sb.WriteString(inner + declaration(tok, hook) + "\n")
	}
	sb.WriteString(inner + "return ")
	return []edit.Edit{
		edit.Insert(int(body.StartByte()), sb.String()),
		edit.Insert(int(body.EndByte()), ";\n"+outer+"}"),
	}
}

func declaration(token, hook string) string {
	return "const " + token + " = " + hook + "();"
}

// importEdit adds the generator import after any hashbang or directive
// prologue, unless the file already imports the hook from the library.
func importEdit(root *sitter.Node, content []byte, hook, library string) (edit.Edit, bool) {
	if hasImport(root, content, hook, library) {
		return edit.Edit{}, false
	}
	stmt := "import { " + hook + " } from '" + library + "';"

	pos := 0
	for i := 0; i < int(root.NamedChildCount()); i++ {
		if c := root.NamedChild(i); c.Type() == "hash_bang_line" {
			pos = int(c.EndByte())
			break
		}
	}
	pos = afterDirectives(root, pos)
	if pos == 0 {
		return edit.Insert(0, stmt+"\n"), true
	}
	return edit.Insert(pos, "\n"+stmt), true
}

func hasImport(root *sitter.Node, content []byte, hook, library string) bool {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "import_statement" {
			continue
		}
		source := stmt.ChildByFieldName("source")
		if source == nil || strings.Trim(source.Content(content), `'"`) != library {
			continue
		}
		if importsName(stmt, content, hook) {
			return true
		}
	}
	return false
}

// importsName reports whether an import statement binds name locally, as a
// named, default or namespace import.
func importsName(n *sitter.Node, content []byte, name string) bool {
	switch n.Type() {
	case "import_specifier":
		local := n.ChildByFieldName("alias")
		if local == nil {
			local = n.ChildByFieldName("name")
		}
		return local != nil && local.Content(content) == name
	case "import_clause", "namespace_import":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "identifier" && c.Content(content) == name {
				return true
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if importsName(n.NamedChild(i), content, name) {
			return true
		}
	}
	return false
}

// afterDirectives returns the end of a leading "use ..." prologue in a
// program or block, or pos when there is none.
func afterDirectives(container *sitter.Node, pos int) int {
	for i := 0; i < int(container.NamedChildCount()); i++ {
		c := container.NamedChild(i)
		switch {
		case c.Type() == "hash_bang_line" || c.Type() == "comment":
			continue
		case c.Type() == "expression_statement" && c.NamedChildCount() > 0 && c.NamedChild(0).Type() == "string":
			pos = int(c.EndByte())
		default:
			return pos
		}
	}
	return pos
}

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(content []byte, offset int) string {
	start := offset
	for start > 0 && content[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(content) && (content[end] == ' ' || content[end] == '\t') {
		end++
	}
	return string(content[start:end])
}
