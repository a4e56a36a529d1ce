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
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	src := []byte(`<a id="x" fill="url(#x)"/>`)
	out, err := Apply(src, []Edit{
		Replace(15, 24, "{`url(#${_id})`}"),
		Replace(6, 9, "{_id}"),
	})
	require.NoError(t, err)
	assert.Equal(t, "<a id={_id} fill={`url(#${_id})`}/>", string(out))
	assert.Equal(t, `<a id="x" fill="url(#x)"/>`, string(src), "source must not be modified")
}

func TestApply_InsertionsAtSamePositionKeepOrder(t *testing.T) {
	out, err := Apply([]byte("ab"), []Edit{Insert(1, "1"), Insert(1, "2"), Replace(1, 2, "B")})
	require.NoError(t, err)
	assert.Equal(t, "a12B", string(out))
}

func TestApply_NoEdits(t *testing.T) {
	out, err := Apply([]byte("same"), nil)
	require.NoError(t, err)
	assert.Equal(t, "same", string(out))
}

func TestApply_Errors(t *testing.T) {
	_, err := Apply([]byte("abcdef"), []Edit{Replace(0, 3, "x"), Replace(2, 4, "y")})
	assert.True(t, errors.Is(err, ErrOverlap))

	_, err = Apply([]byte("abc"), []Edit{Replace(2, 9, "x")})
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = Apply([]byte("abc"), []Edit{Replace(2, 1, "x")})
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestUnifiedDiff_SingleLine(t *testing.T) {
	src := []byte("a\nb\nc\n")
	out, err := UnifiedDiff("f.js", src, []Edit{Replace(2, 3, "B")})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "--- a/f.js\n")
	assert.Contains(t, s, "+++ b/f.js\n")
	assert.Contains(t, s, "@@ -1,3 +1,3 @@")
	assert.True(t, strings.HasSuffix(s, " a\n-b\n+B\n c\n"), s)
}

func TestUnifiedDiff_InsertionAddsLines(t *testing.T) {
	src := []byte("x\ny\n")
	out, err := UnifiedDiff("f.js", src, []Edit{Insert(0, "import z;\n")})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "@@ -1,2 +1,3 @@")
	assert.True(t, strings.HasSuffix(s, "-x\n+import z;\n+x\n y\n"), s)
}

func TestUnifiedDiff_SeparateHunks(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = "l"
	}
	src := []byte(strings.Join(lines, "\n") + "\n")
	// Change the first and last line; they are far apart.
	out, err := UnifiedDiff("f.js", src, []Edit{Replace(0, 1, "A"), Replace(38, 39, "B")})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(out), "@@ -"))
	assert.Contains(t, string(out), "@@ -1,4 +1,4 @@")
	assert.Contains(t, string(out), "@@ -17,4 +17,4 @@")
}

func TestUnifiedDiff_MissingFinalNewline(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		edit   Edit
		suffix string
	}{
		{
			name:   "changed last line",
			src:    "a\nb\nc",
			edit:   Replace(4, 5, "C"),
			suffix: " b\n-c\n\\ No newline at end of file\n+C\n\\ No newline at end of file\n",
		},
		{
			name:   "context last line",
			src:    "a\nb",
			edit:   Replace(0, 1, "A"),
			suffix: "-a\n+A\n b\n\\ No newline at end of file\n",
		},
		{
			name:   "newline added",
			src:    "a\nb",
			edit:   Insert(3, "\n"),
			suffix: " a\n-b\n\\ No newline at end of file\n+b\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := UnifiedDiff("f.js", []byte(tt.src), []Edit{tt.edit})
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(string(out), tt.suffix), string(out))
		})
	}
}

func TestUnifiedDiff_NoEdits(t *testing.T) {
	out, err := UnifiedDiff("f.js", []byte("x\n"), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
