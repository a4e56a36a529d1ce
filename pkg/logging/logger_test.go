// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.toSlogLevel(); got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestNew_TextToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Service: "svgid", Writer: &buf})

	logger.Debug("hidden")
	logger.Info("file rewritten", slog.String("file", "Icon.jsx"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out, "file rewritten") || !strings.Contains(out, "file=Icon.jsx") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "service=svgid") {
		t.Errorf("service attribute missing: %s", out)
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, JSON: true, Writer: &buf})
	logger.Warn("transform failed", "error", "boom")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "transform failed" || entry["level"] != "WARN" || entry["error"] != "boom" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_QuietWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Writer: &buf})
	logger.Error("nobody hears this")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}
}

func TestNew_WithLogDir(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, LogDir: dir, Service: "svgid", Writer: &buf})

	logger.Info("batch processed", "files", 3)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	name := "svgid_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"batch processed"`) {
		t.Errorf("file log missing entry: %s", data)
	}
	if !strings.Contains(buf.String(), "batch processed") {
		t.Errorf("stderr log missing entry: %s", buf.String())
	}
}

func TestNew_WithLogDir_InvalidPath(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail.
	parent := t.TempDir()
	blocker := filepath.Join(parent, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := New(Config{LogDir: filepath.Join(blocker, "logs"), Writer: &buf})
	defer logger.Close()

	logger.Info("still logs")
	if !strings.Contains(buf.String(), "still logs") {
		t.Error("logger should fall back to the writer")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})
	logger.With("batch_id", "b-1").Info("processed")
	if !strings.Contains(buf.String(), "batch_id=b-1") {
		t.Errorf("With attribute missing: %s", buf.String())
	}
}

func TestLogger_Slog(t *testing.T) {
	logger := New(Config{Quiet: true})
	if logger.Slog() == nil {
		t.Fatal("Slog() returned nil")
	}
}

func TestLogger_Close_Twice(t *testing.T) {
	logger := New(Config{Quiet: true, LogDir: t.TempDir()})
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	var buf syncBuffer
	logger := New(Config{Writer: &buf})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("concurrent", "n", n)
		}(i)
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "concurrent"); got != 10 {
		t.Errorf("got %d lines, want 10", got)
	}
}

// =============================================================================
// Multi-Handler Tests
// =============================================================================

func TestMultiHandler_Handle(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled should be true when any handler accepts the level")
	}

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("k", "v")}))
	logger.Info("only first")

	if !strings.Contains(a.String(), "only first") || !strings.Contains(a.String(), "k=v") {
		t.Errorf("first handler output: %s", a.String())
	}
	if b.Len() != 0 {
		t.Errorf("second handler should filter info: %s", b.String())
	}
}

func TestMultiHandler_WithGroup(t *testing.T) {
	var a bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{slog.NewTextHandler(&a, nil)}}
	slog.New(h.WithGroup("g")).Info("grouped", "x", 1)
	if !strings.Contains(a.String(), "g.x=1") {
		t.Errorf("group missing: %s", a.String())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/.svgid/logs"); got != filepath.Join(home, ".svgid/logs") {
		t.Errorf("expandPath(~) = %s", got)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("expandPath(/var/log) = %s", got)
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
