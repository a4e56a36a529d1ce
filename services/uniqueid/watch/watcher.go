// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-runs the rewriter when component sources change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/svgid/services/uniqueid/runner"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "svgid_watch_events_total",
		Help: "File system events accepted by the watcher, by operation",
	}, []string{"op"})

	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "svgid_watch_dropped_events_total",
		Help: "Events dropped because the change buffer was full",
	})

	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "svgid_watch_batches_total",
		Help: "Debounced batches handed to the handler",
	})

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "svgid_watch_batch_size",
		Help:    "Files per debounced batch",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
	})
)

// Op is the kind of change seen for a file.
type Op int

const (
	// OpCreate indicates a file was created.
	OpCreate Op = iota

	// OpWrite indicates a file was modified.
	OpWrite

	// OpRemove indicates a file was deleted.
	OpRemove

	// OpRename indicates a file was renamed away.
	OpRename
)

// String returns the operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one file system change.
type Change struct {
	Path string
	Op   Op
	Time time.Time
}

// Batch is a debounced set of changes, one per path.
type Batch struct {
	// ID correlates log lines for one batch.
	ID      string
	Changes []Change
}

// Paths returns the paths of changes that may need rewriting: everything
// except removals and renames away, sorted.
func (b Batch) Paths() []string {
	var out []string
	for _, c := range b.Changes {
		if c.Op == OpRemove || c.Op == OpRename {
			continue
		}
		out = append(out, c.Path)
	}
	sort.Strings(out)
	return out
}

// Handler receives debounced batches. It is called from one goroutine.
type Handler func(ctx context.Context, batch Batch)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long to wait for more changes before flushing.
	// Default: 200ms.
	Debounce time.Duration

	// Exclude are glob patterns for paths to ignore, matched like
	// runner.Excluded.
	Exclude []string

	// Extensions limits file events to these extensions. Empty accepts all.
	Extensions []string

	// BufferSize is the size of the change channel. Default: 1000.
	BufferSize int

	Logger *slog.Logger
}

// DefaultOptions returns defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:   200 * time.Millisecond,
		Exclude:    []string{".git", "node_modules", ".idea", "*.swp", "*.tmp"},
		BufferSize: 1000,
	}
}

// Watcher watches a tree and hands debounced batches to a Handler.
//
// Thread Safety:
//
//	Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	handler Handler
	opts    Options
	logger  *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// New creates a watcher for root. Call Start to begin.
func New(root string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("handler must not be nil")
	}
	defaults := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = defaults.Debounce
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaults.BufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:    filepath.Clean(root),
		fsw:     fsw,
		handler: handler,
		opts:    opts,
		logger:  logger,
		changes: make(chan Change, opts.BufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Start watches root and every non-excluded subdirectory.
//
// Two goroutines run until Stop is called or ctx is canceled: one converts
// fsnotify events, the other debounces them into batches. A pending batch
// is flushed on shutdown.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops watching and waits for the last batch to be handled.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()

		w.mu.Lock()
		started := w.watching
		w.watching = false
		w.mu.Unlock()

		if started {
			<-w.stopped
		}
	})
}

// Done is closed once the debounce loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.stopped
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return true
	}
	return rel != "." && runner.Excluded(rel, w.opts.Exclude)
}

func (w *Watcher) accepts(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range w.opts.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.ignored(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("watch new directory", slog.String("dir", event.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !w.accepts(event.Name) {
				continue
			}

			change := Change{Path: event.Name, Op: convertOp(event.Op), Time: time.Now()}
			select {
			case w.changes <- change:
				eventsTotal.WithLabelValues(change.Op.String()).Inc()
			default:
				droppedTotal.Inc()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer close(w.stopped)

	var pending []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) > 0 {
			batch := Batch{ID: uuid.NewString(), Changes: deduplicate(pending)}
			batchesTotal.Inc()
			batchSize.Observe(float64(len(batch.Changes)))
			w.handler(ctx, batch)
			pending = nil
		}
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			pending = append(pending, change)
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.opts.Debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// deduplicate keeps the latest change per path, in first-seen order.
func deduplicate(changes []Change) []Change {
	seen := make(map[string]int, len(changes))
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if i, ok := seen[c.Path]; ok {
			out[i] = c
			continue
		}
		seen[c.Path] = len(out)
		out = append(out, c)
	}
	return out
}
