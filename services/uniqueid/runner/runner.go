// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner rewrites many files concurrently.
//
// Every file gets its own Transform call; nothing is shared between files
// except the read-only configuration and the result cache.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/svgid/services/uniqueid/cache"
	"github.com/AleutianAI/svgid/services/uniqueid/config"
	"github.com/AleutianAI/svgid/services/uniqueid/edit"
	"github.com/AleutianAI/svgid/services/uniqueid/jsx"
)

var (
	// ErrFilesFailed is returned by Summary.Err when any file failed.
	ErrFilesFailed = errors.New("some files failed")

	// ErrWouldChange is returned by Summary.Err in check mode when any
	// file needs rewriting.
	ErrWouldChange = errors.New("some files need rewriting")
)

// Mode selects what happens to rewritten output.
type Mode int

const (
	// ModeCheck only reports which files would change.
	ModeCheck Mode = iota

	// ModeWrite writes rewritten files in place.
	ModeWrite

	// ModeDiff prints a unified diff per changed file.
	ModeDiff
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeWrite:
		return "write"
	case ModeDiff:
		return "diff"
	default:
		return "unknown"
	}
}

// FileReport is the outcome for one file.
type FileReport struct {
	Path    string
	Changed bool

	// Cached is true when the result came from the cache; Components is
	// then empty.
	Cached     bool
	Components []jsx.Component

	// Diff holds the unified diff in ModeDiff.
	Diff []byte

	Err error
}

// Summary aggregates a run.
type Summary struct {
	Mode        Mode
	Files       int
	Changed     int
	Failed      int
	Cached      int
	Components  int
	Identifiers int
	Duration    time.Duration

	// Reports is sorted by path.
	Reports []FileReport
}

// Err returns ErrFilesFailed if any file failed, ErrWouldChange in check
// mode if any file would change, or nil.
func (s *Summary) Err() error {
	if s.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, s.Failed, s.Files)
	}
	if s.Mode == ModeCheck && s.Changed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrWouldChange, s.Changed, s.Files)
	}
	return nil
}

// Option configures a Runner.
type Option func(*Runner)

// WithMode sets the mode. The default is ModeCheck.
func WithMode(m Mode) Option {
	return func(r *Runner) { r.mode = m }
}

// WithCache enables the result cache.
func WithCache(c *cache.Cache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithDiffOutput sets where ModeDiff prints. Nil discards.
func WithDiffOutput(w io.Writer) Option {
	return func(r *Runner) { r.diffOut = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner transforms batches of files.
//
// Thread Safety:
//
//	Safe for concurrent use; Run calls do not share state beyond the cache.
type Runner struct {
	cfg         *config.Config
	transformer *jsx.Transformer
	cache       *cache.Cache
	mode        Mode
	diffOut     io.Writer
	logger      *slog.Logger
}

// New creates a Runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		mode:    ModeCheck,
		diffOut: io.Discard,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.diffOut == nil {
		r.diffOut = io.Discard
	}
	r.transformer = jsx.NewTransformer(
		jsx.WithHookName(cfg.HookName),
		jsx.WithLibraryName(cfg.LibraryName),
		jsx.WithMaxFileSize(cfg.MaxFileSize),
		jsx.WithLogger(r.logger),
	)
	return r
}

// Mode returns the configured mode.
func (r *Runner) Mode() Mode { return r.mode }

// Run collects paths and processes every file found.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	files, err := Collect(r.cfg, paths)
	if err != nil {
		return nil, err
	}
	return r.RunFiles(ctx, files)
}

// RunFiles processes files concurrently.
//
// Description:
//
//	At most cfg.Concurrency files (GOMAXPROCS when 0) are in flight. A file
//	that fails is recorded in its report and does not stop the others.
//	Only context cancellation aborts the run.
//
// Outputs:
//
//	*Summary - Reports sorted by path. Diffs are printed in that order.
//	error    - The context error if the run was canceled.
func (r *Runner) RunFiles(ctx context.Context, files []string) (*Summary, error) {
	start := time.Now()
	limit := r.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	r.logger.Debug("run starting",
		slog.String("mode", r.mode.String()),
		slog.Int("files", len(files)),
		slog.Int("concurrency", limit),
		slog.String("hook", r.transformer.HookName()),
		slog.String("library", r.transformer.LibraryName()))

	reports := make([]FileReport, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			reports[i] = r.processFile(gCtx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run canceled: %w", err)
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })

	s := &Summary{Mode: r.mode, Files: len(reports), Reports: reports}
	for _, rep := range reports {
		switch {
		case rep.Err != nil:
			s.Failed++
			continue
		case rep.Changed:
			s.Changed++
		}
		if rep.Cached {
			s.Cached++
		}
		s.Components += len(rep.Components)
		for _, c := range rep.Components {
			s.Identifiers += len(c.Identifiers)
		}
		if len(rep.Diff) > 0 {
			if _, err := r.diffOut.Write(rep.Diff); err != nil {
				return nil, fmt.Errorf("write diff: %w", err)
			}
		}
	}
	s.Duration = time.Since(start)

	r.logger.Info("run complete",
		slog.String("mode", r.mode.String()),
		slog.Int("files", s.Files),
		slog.Int("changed", s.Changed),
		slog.Int("failed", s.Failed),
		slog.Int("cached", s.Cached),
		slog.Duration("duration", s.Duration))
	return s, nil
}

func (r *Runner) processFile(ctx context.Context, path string) FileReport {
	rep := FileReport{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		rep.Err = fmt.Errorf("read: %w", err)
		return rep
	}

	// Diffs need edits, which the cache does not keep.
	useCache := r.cache != nil && r.mode != ModeDiff
	var key []byte
	if useCache {
		key = cache.Key(r.cfg.Fingerprint(), filepath.Ext(path), content)
		if entry, ok := r.cache.Get(key); ok {
			rep.Cached = true
			rep.Changed = entry.Changed
			if entry.Changed && r.mode == ModeWrite {
				rep.Err = writeFile(path, entry.Output)
			}
			return rep
		}
	}

	res, err := r.transformer.Transform(ctx, content, path)
	if err != nil {
		r.logger.Warn("transform failed", slog.String("file", path), slog.String("error", err.Error()))
		rep.Err = err
		return rep
	}
	rep.Changed = res.Changed
	rep.Components = res.Components

	if useCache {
		entry := cache.Entry{Changed: res.Changed}
		if res.Changed {
			entry.Output = res.Output
		}
		if err := r.cache.Put(key, entry); err != nil {
			r.logger.Debug("cache put failed", slog.String("file", path), slog.String("error", err.Error()))
		}
	}

	if !res.Changed {
		return rep
	}
	switch r.mode {
	case ModeWrite:
		rep.Err = writeFile(path, res.Output)
	case ModeDiff:
		rep.Diff, rep.Err = edit.UnifiedDiff(strings.TrimPrefix(filepath.ToSlash(path), "/"), content, res.Edits)
	}
	if rep.Err == nil {
		r.logger.Debug("file rewritten",
			slog.String("file", path),
			slog.String("mode", r.mode.String()),
			slog.Int("components", len(res.Components)),
			slog.Int("identifiers", res.Identifiers()))
	}
	return rep
}

// writeFile replaces path atomically, keeping its permissions.
func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".svgid-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}
