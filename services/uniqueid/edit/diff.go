// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package edit

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sourcegraph/go-diff/diff"
)

// DiffContext is the number of unchanged lines shown around each change.
const DiffContext = 3

// lineIndex maps byte offsets to zero-based line numbers.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

func (li *lineIndex) count() int { return len(li.starts) }

// lineOf returns the line containing offset. The end of the source maps to
// the last line.
func (li *lineIndex) lineOf(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
}

// end returns the offset just past line n, including its newline.
func (li *lineIndex) end(n int) int {
	if n+1 < len(li.starts) {
		return li.starts[n+1]
	}
	return len(li.src)
}

func (li *lineIndex) line(n int) []byte {
	return li.src[li.starts[n]:li.end(n)]
}

// core is a run of original lines touched by edits, with its replacement.
type core struct {
	first, last int
	edits       []Edit
	newLines    [][]byte
}

// UnifiedDiff renders edits against src as a unified diff.
//
// Description:
//
//	Lines touched by edits are shown as removed and re-added with the edits
//	applied, surrounded by DiffContext lines of context. Nearby changes share
//	a hunk. The output is printed with go-diff.
//
// Inputs:
//
//	name  - File name used in the --- and +++ headers.
//	src   - Original content.
//	edits - Edits as passed to Apply.
//
// Outputs:
//
//	[]byte - The diff, or nil when there are no edits.
//	error  - Non-nil if the edits are invalid.
func UnifiedDiff(name string, src []byte, edits []Edit) ([]byte, error) {
	if err := Validate(len(src), edits); err != nil {
		return nil, err
	}
	if len(edits) == 0 || len(src) == 0 {
		return nil, nil
	}

	li := newLineIndex(src)
	cores, err := buildCores(li, Sorted(edits))
	if err != nil {
		return nil, err
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
		Hunks:    buildHunks(li, cores),
	}
	return diff.PrintFileDiff(fd)
}

func buildCores(li *lineIndex, edits []Edit) ([]*core, error) {
	var cores []*core
	for _, e := range edits {
		first := li.lineOf(e.Start)
		last := first
		if e.End > e.Start {
			last = li.lineOf(e.End - 1)
		}
		if n := len(cores); n > 0 && first <= cores[n-1].last {
			c := cores[n-1]
			if last > c.last {
				c.last = last
			}
			c.edits = append(c.edits, e)
			continue
		}
		cores = append(cores, &core{first: first, last: last, edits: []Edit{e}})
	}

	for _, c := range cores {
		base := li.starts[c.first]
		region := li.src[base:li.end(c.last)]
		shifted := make([]Edit, len(c.edits))
		for i, e := range c.edits {
			shifted[i] = Edit{Start: e.Start - base, End: e.End - base, Text: e.Text}
		}
		out, err := Apply(region, shifted)
		if err != nil {
			return nil, fmt.Errorf("render lines %d-%d: %w", c.first+1, c.last+1, err)
		}
		c.newLines = splitLines(out)
	}
	return cores, nil
}

func buildHunks(li *lineIndex, cores []*core) []*diff.Hunk {
	var hunks []*diff.Hunk
	delta := 0

	for i := 0; i < len(cores); {
		j := i
		for j+1 < len(cores) && cores[j+1].first-cores[j].last-1 <= 2*DiffContext {
			j++
		}

		start := max(0, cores[i].first-DiffContext)
		end := min(li.count()-1, cores[j].last+DiffContext)

		var body bytes.Buffer
		origLines, newLines := 0, 0
		emitContext := func(from, to int) {
			for n := from; n <= to; n++ {
				writeLine(&body, ' ', li.line(n))
				origLines++
				newLines++
			}
		}

		emitContext(start, cores[i].first-1)
		for k := i; k <= j; k++ {
			c := cores[k]
			if k > i {
				emitContext(cores[k-1].last+1, c.first-1)
			}
			for n := c.first; n <= c.last; n++ {
				writeLine(&body, '-', li.line(n))
				origLines++
			}
			for _, l := range c.newLines {
				writeLine(&body, '+', l)
				newLines++
			}
		}
		emitContext(cores[j].last+1, end)

		hunks = append(hunks, &diff.Hunk{
			OrigStartLine: int32(start + 1),
			OrigLines:     int32(origLines),
			NewStartLine:  int32(start + 1 + delta),
			NewLines:      int32(newLines),
			Body:          body.Bytes(),
		})
		delta += newLines - origLines
		i = j + 1
	}
	return hunks
}

// noNewline marks a final line that has no line terminator.
const noNewline = "\\ No newline at end of file\n"

func writeLine(buf *bytes.Buffer, prefix byte, line []byte) {
	buf.WriteByte(prefix)
	buf.Write(line)
	switch {
	case len(line) == 0:
		buf.WriteByte('\n')
	case line[len(line)-1] != '\n':
		buf.WriteByte('\n')
		buf.WriteString(noNewline)
	}
}

func splitLines(b []byte) [][]byte {
	if len(b) == 0 {
		return nil
	}
	var out [][]byte
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			out = append(out, b)
			break
		}
		out = append(out, b[:i+1])
		b = b[i+1:]
	}
	return out
}
