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
	"errors"
	"fmt"
)

// Sentinel errors for transform failures.
//
// These errors can be checked using errors.Is() to decide how to report a
// file without inspecting messages.
var (
	// ErrUnsupportedLanguage indicates no grammar handles the file extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrFileTooLarge indicates the content exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates content that is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrParseFailed indicates the source could not be parsed cleanly.
	//
	// Files with syntax errors are never rewritten: a recovered tree may
	// not match what the author wrote.
	ErrParseFailed = errors.New("parse failed")
)

// ParseError reports where parsing failed.
//
// Example:
//
//	_, err := transformer.Transform(ctx, content, "Icon.jsx")
//	var parseErr *ParseError
//	if errors.As(err, &parseErr) {
//	    fmt.Printf("%s:%d:%d: %s\n", parseErr.FilePath, parseErr.Line, parseErr.Column, parseErr.Message)
//	}
type ParseError struct {
	// FilePath is the file being transformed.
	FilePath string

	// Line is 1-indexed; 0 when unknown.
	Line int

	// Column is 1-indexed; 0 when unknown.
	Column int

	// Message describes the failure.
	Message string

	// Cause is the underlying error, usually ErrParseFailed.
	Cause error
}

// Error formats the error with whatever location is known.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
