// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/svgid/services/uniqueid/cache"
	"github.com/AleutianAI/svgid/services/uniqueid/config"
)

const iconSource = `function Icon() {
  return <svg><path id="a" /><rect fill="url(#a)" /></svg>;
}
`

const plainSource = `function Button() {
  return <button>ok</button>;
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestCollect(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/Icon.jsx":                 iconSource,
		"src/Button.tsx":               plainSource,
		"src/readme.md":                "x",
		"src/util.ts":                  "x",
		"node_modules/lib/Icon.jsx":    iconSource,
		"src/nested/dist/Bundle.js":    iconSource,
		"src/nested/components/Box.js": plainSource,
	})

	files, err := Collect(config.Default(), []string{dir})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"src/Button.tsx", "src/Icon.jsx", "src/nested/components/Box.js"}, rel)
}

func TestCollect_ExplicitFileAndDuplicates(t *testing.T) {
	dir := writeTree(t, map[string]string{"dist/Icon.jsx": iconSource})
	file := filepath.Join(dir, "dist", "Icon.jsx")

	files, err := Collect(config.Default(), []string{file, file})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, files)

	_, err = Collect(config.Default(), []string{filepath.Join(dir, "missing")})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExcluded(t *testing.T) {
	patterns := []string{"node_modules", "*.min.js", "generated/*"}
	assert.True(t, Excluded("a/node_modules/b.js", patterns))
	assert.True(t, Excluded("lib/app.min.js", patterns))
	assert.True(t, Excluded("generated/x.js", patterns))
	assert.False(t, Excluded("src/app.js", patterns))
}

func TestRun_Check(t *testing.T) {
	dir := writeTree(t, map[string]string{"Icon.jsx": iconSource, "Button.jsx": plainSource})

	s, err := New(config.Default()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 1, s.Changed)
	assert.Equal(t, 1, s.Components)
	assert.Equal(t, 1, s.Identifiers)
	assert.True(t, errors.Is(s.Err(), ErrWouldChange))

	// Check mode never writes.
	got, err := os.ReadFile(filepath.Join(dir, "Icon.jsx"))
	require.NoError(t, err)
	assert.Equal(t, iconSource, string(got))

	require.Len(t, s.Reports, 2)
	assert.Equal(t, filepath.Join(dir, "Button.jsx"), s.Reports[0].Path)
	assert.Equal(t, filepath.Join(dir, "Icon.jsx"), s.Reports[1].Path)
}

func TestRun_LogsTransformerSettings(t *testing.T) {
	dir := writeTree(t, map[string]string{"Icon.jsx": iconSource})
	cfg := config.Default()
	cfg.HookName = "useSvgId"
	cfg.LibraryName = "svg-ids"

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := New(cfg, WithLogger(logger)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "hook=useSvgId")
	assert.Contains(t, logs.String(), "library=svg-ids")
}

func TestRun_Write(t *testing.T) {
	dir := writeTree(t, map[string]string{"Icon.jsx": iconSource})
	path := filepath.Join(dir, "Icon.jsx")
	require.NoError(t, os.Chmod(path, 0o640))

	s, err := New(config.Default(), WithMode(ModeWrite)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, s.Err())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got), "import { useUniqueInlineId } from '@inline-svg-unique-id/react';\n"))
	assert.Contains(t, string(got), "<path id={_id} />")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	// A second run finds nothing to do.
	s, err = New(config.Default(), WithMode(ModeCheck)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.NoError(t, s.Err())
	assert.Equal(t, 0, s.Changed)
}

func TestRun_Diff(t *testing.T) {
	dir := writeTree(t, map[string]string{"b/Icon.jsx": iconSource, "a/Icon.jsx": iconSource})

	var out bytes.Buffer
	s, err := New(config.Default(), WithMode(ModeDiff), WithDiffOutput(&out)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Changed)

	diff := out.String()
	first := strings.Index(diff, "a/Icon.jsx\n")
	second := strings.Index(diff, "b/Icon.jsx\n")
	require.True(t, first >= 0 && second >= 0, diff)
	assert.Less(t, first, second, "diffs are printed in path order")
	assert.Contains(t, diff, "+  const _id = useUniqueInlineId();")
}

func TestRun_FailuresDoNotStopOthers(t *testing.T) {
	dir := writeTree(t, map[string]string{"Broken.jsx": "function ( {", "Icon.jsx": iconSource})

	s, err := New(config.Default()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Changed)
	assert.True(t, errors.Is(s.Err(), ErrFilesFailed))
	require.Error(t, s.Reports[0].Err)
}

func TestRun_Cache(t *testing.T) {
	dir := writeTree(t, map[string]string{"Icon.jsx": iconSource, "Button.jsx": plainSource})
	c, err := cache.Open(cache.InMemoryConfig())
	require.NoError(t, err)
	defer c.Close()

	r := New(config.Default(), WithCache(c))
	s, err := r.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Cached)

	s, err = r.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Cached)
	assert.Equal(t, 1, s.Changed)
	assert.Equal(t, cache.Stats{Hits: 2, Misses: 2, Writes: 2}, c.Stats())

	// Writing from a cached result produces the same file as a fresh run.
	s, err = New(config.Default(), WithCache(c), WithMode(ModeWrite)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, s.Err())
	got, err := os.ReadFile(filepath.Join(dir, "Icon.jsx"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "const _id = useUniqueInlineId();")
}

func TestRun_Canceled(t *testing.T) {
	dir := writeTree(t, map[string]string{"Icon.jsx": iconSource})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.Default()).Run(ctx, []string{dir})
	assert.True(t, errors.Is(err, context.Canceled))
}
