// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jsx rewrites JSX component sources so inline SVG identifiers are
// unique per component instance.
//
// For every outermost function in a file, each svg (or Svg) element it
// renders is lifted into a markup tree and handed to a rewrite.Scope. When
// the scope registered identifiers, the function gets one
//
//	const _id = useUniqueInlineId();
//
// per identifier, references are rewritten to template literals, and the
// file gets a single import of the hook. Functions that declare nothing are
// left byte-for-byte identical.
package jsx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/AleutianAI/svgid/services/uniqueid/edit"
	"github.com/AleutianAI/svgid/services/uniqueid/registry"
	"github.com/AleutianAI/svgid/services/uniqueid/rewrite"
)

const (
	// DefaultHookName is the generator hook imported and called per token.
	DefaultHookName = "useUniqueInlineId"

	// DefaultLibraryName is the module the hook is imported from.
	DefaultLibraryName = "@inline-svg-unique-id/react"

	// DefaultMaxFileSize is the largest source accepted (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged (1MB).
	WarnFileSize = 1024 * 1024
)

// grammar pairs a tree-sitter language with its name.
type grammar struct {
	name     string
	language func() *sitter.Language
}

var grammars = map[string]grammar{
	".js":  {"javascript", javascript.GetLanguage},
	".jsx": {"javascript", javascript.GetLanguage},
	".mjs": {"javascript", javascript.GetLanguage},
	".cjs": {"javascript", javascript.GetLanguage},
	".tsx": {"tsx", tsx.GetLanguage},
}

// Extensions returns the file extensions Transform accepts.
func Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".tsx"}
}

// Supports reports whether the path has a supported extension.
func Supports(path string) bool {
	_, ok := grammars[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithHookName sets the generator hook name. Empty values are ignored.
func WithHookName(name string) Option {
	return func(t *Transformer) {
		if name != "" {
			t.hookName = name
		}
	}
}

// WithLibraryName sets the module the hook is imported from. Empty values
// are ignored.
func WithLibraryName(name string) Option {
	return func(t *Transformer) {
		if name != "" {
			t.libraryName = name
		}
	}
}

// WithMaxFileSize sets the largest accepted source in bytes. Non-positive
// values are ignored.
func WithMaxFileSize(bytes int64) Option {
	return func(t *Transformer) {
		if bytes > 0 {
			t.maxFileSize = bytes
		}
	}
}

// WithLogger sets the logger. Nil uses slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Transformer rewrites one source file at a time.
//
// Thread Safety:
//
//	Safe for concurrent use. Each Transform call creates its own parser,
//	registry and uid generator; nothing is shared between calls.
type Transformer struct {
	hookName    string
	libraryName string
	maxFileSize int64
	logger      *slog.Logger
}

// NewTransformer creates a Transformer with defaults overridden by opts.
//
// Example:
//
//	t := jsx.NewTransformer(jsx.WithHookName("useSvgId"))
//	res, err := t.Transform(ctx, src, "Icon.tsx")
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		hookName:    DefaultHookName,
		libraryName: DefaultLibraryName,
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// HookName returns the configured hook name.
func (t *Transformer) HookName() string { return t.hookName }

// LibraryName returns the configured library name.
func (t *Transformer) LibraryName() string { return t.libraryName }

// Component reports what happened to one function.
type Component struct {
	// Name is the function's name, or "<anonymous>".
	Name string

	// Line is the 1-indexed line the function starts on.
	Line int

	// Identifiers are the registered ids and their tokens in creation order.
	Identifiers []registry.Entry

	// Containers is the number of svg roots rewritten.
	Containers int

	// Declarations and References count rewritten sites.
	Declarations int
	References   int
}

// Result is the outcome of transforming one file.
type Result struct {
	FilePath string
	Language string

	// Hash is the sha256 of the input.
	Hash string

	// Output is the rewritten source. It equals the input when Changed is
	// false.
	Output []byte

	// Edits produced Output from the input.
	Edits []edit.Edit

	// Components lists only functions that were rewritten.
	Components []Component

	Changed bool
}

// Identifiers returns the total number of registered ids.
func (r *Result) Identifiers() int {
	n := 0
	for _, c := range r.Components {
		n += len(c.Identifiers)
	}
	return n
}

// Transform rewrites the SVG identifiers in one source file.
//
// Description:
//
//	Parses content with the grammar chosen by filePath's extension, runs a
//	rewrite.Scope per outermost function, and applies the resulting edits.
//	A file with syntax errors is rejected rather than rewritten.
//
// Inputs:
//
//	ctx      - Checked before and after parsing. Tree-sitter parsing
//	           itself cannot be interrupted mid-parse.
//	content  - Source bytes. Must be valid UTF-8.
//	filePath - Used for grammar selection and error messages.
//
// Outputs:
//
//	*Result - Never nil on success.
//	error   - ErrUnsupportedLanguage, ErrFileTooLarge, ErrInvalidContent,
//	          a *ParseError wrapping ErrParseFailed, or a context error.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (t *Transformer) Transform(ctx context.Context, content []byte, filePath string) (res *Result, err error) {
	start := time.Now()
	ctx, span := startTransformSpan(ctx, filePath, len(content))
	defer func() {
		finishTransformSpan(span, res, err)
		recordTransformMetrics(ctx, time.Since(start), res, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transform canceled before start: %w", err)
	}

	g, ok := grammars[strings.ToLower(filepath.Ext(filePath))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filePath)
	}
	if int64(len(content)) > t.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), t.maxFileSize)
	}
	if len(content) > WarnFileSize {
		t.logger.Warn("transforming large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)
	res = &Result{
		FilePath: filePath,
		Language: g.name,
		Hash:     hex.EncodeToString(hash[:]),
		Output:   content,
	}

	parser := sitter.NewParser()
	parser.SetLanguage(g.language())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, &ParseError{FilePath: filePath, Message: "tree-sitter parse failed: " + err.Error(), Cause: ErrParseFailed}
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transform canceled after parse: %w", err)
	}

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{FilePath: filePath, Message: "tree-sitter returned nil root node", Cause: ErrParseFailed}
	}
	if root.HasError() {
		perr := &ParseError{FilePath: filePath, Message: "source contains syntax errors", Cause: ErrParseFailed}
		if bad := firstError(root); bad != nil {
			p := bad.StartPoint()
			perr.Line, perr.Column = int(p.Row)+1, int(p.Column)+1
		}
		return nil, perr
	}

	uids := newUIDGenerator(root, content)
	var edits []edit.Edit
	for _, fn := range outermostFunctions(root) {
		comp, fnEdits := t.rewriteFunction(ctx, fn, content, uids)
		if comp == nil {
			continue
		}
		res.Components = append(res.Components, *comp)
		edits = append(edits, fnEdits...)
	}

	if len(res.Components) == 0 {
		return res, nil
	}

	if imp, ok := importEdit(root, content, t.hookName, t.libraryName); ok {
		edits = append(edits, imp)
	}

	out, err := edit.Apply(content, edits)
	if err != nil {
		return nil, fmt.Errorf("apply edits to %s: %w", filePath, err)
	}
	res.Output = out
	res.Edits = edit.Sorted(edits)
	res.Changed = true
	return res, nil
}

// rewriteFunction runs one scope over every container fn renders. It
// returns nil when nothing was registered.
func (t *Transformer) rewriteFunction(ctx context.Context, fn *sitter.Node, content []byte, uids *uidGenerator) (*Component, []edit.Edit) {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil, nil
	}

	l := newLifter(content)
	scope := rewrite.NewScope(uids.Mint)
	for _, c := range findContainers(body, l) {
		scope.Container(l.element(c))
	}
	scope.Finish(ctx)

	if scope.Empty() {
		return nil, nil
	}

	comp := &Component{
		Name:         functionName(fn, content),
		Line:         int(fn.StartPoint().Row) + 1,
		Identifiers:  scope.Entries(),
		Containers:   scope.Containers(),
		Declarations: len(scope.Declarations()),
		References:   len(scope.References()),
	}

	t.logger.Debug("rewrote component",
		slog.String("component", comp.Name),
		slog.Int("line", comp.Line),
		slog.Int("identifiers", len(comp.Identifiers)),
		slog.Int("references", comp.References))
	for _, d := range scope.Declarations() {
		t.logger.Debug("declaration",
			slog.String("component", comp.Name),
			slog.String("id", d.Value),
			slog.String("token", d.Token),
			slog.Bool("in_defs", d.InDefinitions))
	}

	edits := l.valueEdits()
	edits = append(edits, bindingEdits(fn, content, t.hookName, scope.Tokens())...)
	return comp, edits
}

// firstError returns the first ERROR or missing node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.HasError() || c.IsMissing() {
			if bad := firstError(c); bad != nil {
				return bad
			}
		}
	}
	return nil
}
