// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache stores transform results in BadgerDB, keyed by content.
//
// A key covers everything that decides the output: the config fingerprint,
// the file extension (grammar) and the source bytes. Unchanged files are
// stored too, so a second run over a tree skips parsing entirely.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package cache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	keyPrefix = "svgid/v1/"

	flagUnchanged byte = 0
	flagChanged   byte = 1
)

// ErrCorrupt indicates a stored value that could not be decoded.
var ErrCorrupt = errors.New("corrupt cache entry")

// Config holds configuration for the cache database.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes.
	SyncWrites bool

	// TTL expires entries. 0 keeps them until garbage collected.
	TTL time.Duration

	// GCInterval is how often to run value log garbage collection.
	// Set to 0 to disable.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64

	// Logger is the logger for cache and BadgerDB operations.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns defaults for an on-disk cache at path.
//
// A cache can always be rebuilt, so writes are not synced.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		TTL:            30 * 24 * time.Hour,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{
		InMemory: true,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Infof is demoted to debug; badger is chatty at info.
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Entry is a cached transform result.
type Entry struct {
	Changed bool

	// Output is the rewritten source. Empty when Changed is false.
	Output []byte
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
}

// Cache is a content-addressed store of transform results.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Cache struct {
	db     *badger.DB
	gc     *gcRunner
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	writes atomic.Int64
}

// Open opens the cache described by cfg.
//
// Description:
//
//	Opens a BadgerDB at cfg.Path, creating the directory, or in memory when
//	cfg.InMemory is set. Starts value log GC when cfg.GCInterval is set on
//	a persistent cache.
//
// Outputs:
//
//	*Cache - Call Close when done.
//	error  - Non-nil if the path is missing or the database cannot open.
func Open(cfg Config) (*Cache, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent cache")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(filepath.Clean(cfg.Path))
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	c := &Cache{db: db, ttl: cfg.TTL, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.gc = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, logger)
		c.gc.start()
	}
	return c, nil
}

// Key derives the cache key for content transformed under fingerprint with
// the grammar for ext.
func Key(fingerprint, ext string, content []byte) []byte {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(ext)))
	h.Write([]byte{0})
	h.Write(content)
	return append([]byte(keyPrefix), fmt.Sprintf("%x", h.Sum(nil))...)
}

// Get returns the entry for key. ok is false on a miss. Undecodable values
// count as misses and are logged.
func (c *Cache) Get(key []byte) (Entry, bool) {
	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, derr := decode(val)
			if derr != nil {
				return derr
			}
			entry = decoded
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Debug("cache read failed",
				slog.String("key", string(key)),
				slog.String("error", err.Error()))
		}
		c.misses.Add(1)
		return Entry{}, false
	}
	c.hits.Add(1)
	return entry, true
}

// Put stores entry under key.
func (c *Cache) Put(key []byte, entry Entry) error {
	e := badger.NewEntry(key, encode(entry))
	if c.ttl > 0 {
		e = e.WithTTL(c.ttl)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	}); err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	c.writes.Add(1)
	return nil
}

// Stats returns lookup counters since Open.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Writes: c.writes.Load()}
}

// Close stops GC and closes the database.
func (c *Cache) Close() error {
	if c.gc != nil {
		c.gc.stop()
	}
	return c.db.Close()
}

func encode(e Entry) []byte {
	if !e.Changed {
		return []byte{flagUnchanged}
	}
	out := make([]byte, 0, len(e.Output)+1)
	out = append(out, flagChanged)
	return append(out, e.Output...)
}

func decode(val []byte) (Entry, error) {
	if len(val) == 0 {
		return Entry{}, ErrCorrupt
	}
	switch val[0] {
	case flagUnchanged:
		if len(val) != 1 {
			return Entry{}, ErrCorrupt
		}
		return Entry{}, nil
	case flagChanged:
		// val is only valid inside the transaction.
		out := make([]byte, len(val)-1)
		copy(out, val[1:])
		return Entry{Changed: true, Output: out}, nil
	default:
		return Entry{}, ErrCorrupt
	}
}
