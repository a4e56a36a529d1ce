// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package edit applies byte-range replacements to source text and renders
// them as unified diffs.
package edit

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrOverlap indicates two edits touch the same bytes.
	ErrOverlap = errors.New("overlapping edits")

	// ErrOutOfRange indicates an edit outside the source.
	ErrOutOfRange = errors.New("edit out of range")
)

// Edit replaces src[Start:End] with Text. Start == End is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Insert returns an insertion at pos.
func Insert(pos int, text string) Edit {
	return Edit{Start: pos, End: pos, Text: text}
}

// Replace returns a replacement of src[start:end].
func Replace(start, end int, text string) Edit {
	return Edit{Start: start, End: end, Text: text}
}

// Sorted returns the edits ordered by position. Edits at the same position
// keep their relative order, and insertions sort before replacements that
// start where they are inserted.
func Sorted(edits []Edit) []Edit {
	out := make([]Edit, len(edits))
	copy(out, edits)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// Validate checks edits against a source of length n.
func Validate(n int, edits []Edit) error {
	prevEnd := 0
	for i, e := range Sorted(edits) {
		if e.Start < 0 || e.End < e.Start || e.End > n {
			return fmt.Errorf("%w: [%d,%d) in source of %d bytes", ErrOutOfRange, e.Start, e.End, n)
		}
		if i > 0 && e.Start < prevEnd {
			return fmt.Errorf("%w: edit at %d starts before previous edit ends at %d", ErrOverlap, e.Start, prevEnd)
		}
		prevEnd = e.End
	}
	return nil
}

// Apply returns src with edits applied. src is not modified.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if err := Validate(len(src), edits); err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(src) + 64*len(edits))
	pos := 0
	for _, e := range Sorted(edits) {
		buf.Write(src[pos:e.Start])
		buf.WriteString(e.Text)
		pos = e.End
	}
	buf.Write(src[pos:])
	return buf.Bytes(), nil
}
