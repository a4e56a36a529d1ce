// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/AleutianAI/svgid/pkg/logging"
	"github.com/AleutianAI/svgid/pkg/ux"
	"github.com/AleutianAI/svgid/services/uniqueid/cache"
	"github.com/AleutianAI/svgid/services/uniqueid/config"
	"github.com/AleutianAI/svgid/services/uniqueid/runner"
	"github.com/AleutianAI/svgid/services/uniqueid/telemetry"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK      = 0
	exitChanges = 1
	exitError   = 2

	shutdownTimeout = 5 * time.Second
)

// app holds state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// Persistent flags.
	logLevel   string
	logJSON    bool
	logDir     string
	metrics    string
	trace      string
	output     string
	configPath string

	// metricsAddr is set by watch before the pre-run hook reads it.
	metricsAddr string

	logger    *logging.Logger
	telemetry *telemetry.Telemetry

	// reported is set once an error has been printed.
	reported bool
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil && !a.reported && !errors.Is(err, runner.ErrWouldChange) {
		a.printer(stderr).Error(err.Error())
	}
	a.close()

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, runner.ErrWouldChange):
		return exitChanges
	default:
		return exitError
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "svgid",
		Short:         "Give every instance of an inline SVG component its own ids",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.logJSON, "log-json", false, "Write logs to stderr as JSON")
	flags.StringVar(&a.logDir, "log-dir", "", "Also write JSON logs to a daily file in this directory")
	flags.StringVar(&a.metrics, "metrics", "none", "Metric exporter: prometheus, stdout, none")
	flags.StringVar(&a.trace, "trace", "none", "Trace exporter: stdout, none")
	flags.StringVar(&a.output, "output", "", "Output style: full, minimal, machine (default: detect)")
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")

	root.AddCommand(
		newRewriteCmd(a),
		newWatchCmd(a),
		newTokensCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup installs logging and telemetry. Errors are reported by the caller.
func (a *app) setup(ctx context.Context) error {
	level, err := logging.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  a.logDir,
		Service: "svgid",
		JSON:    a.logJSON,
		Writer:  a.stderr,
	})
	slog.SetDefault(a.logger.Slog())

	metrics := a.metrics
	if a.metricsAddr != "" && (metrics == "" || metrics == "none") {
		metrics = "prometheus"
	}
	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "svgid",
		ServiceVersion: version,
		MetricExporter: metrics,
		TraceExporter:  a.trace,
		MetricsAddr:    a.metricsAddr,
		Writer:         a.stderr,
		Logger:         a.logger.Slog(),
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	a.telemetry = tel
	return nil
}

// close flushes telemetry and closes the log file.
func (a *app) close() {
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.telemetry.Shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
		cancel()
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// slog returns the configured logger, or the default before setup.
func (a *app) slog() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger.Slog()
}

// printer returns a Printer for w. Without --output the style is detected
// from w: a terminal gets full styling, anything else machine output.
func (a *app) printer(w io.Writer) *ux.Printer {
	if a.output != "" {
		return ux.NewPrinter(w, ux.ParsePersonalityLevel(a.output))
	}
	f, _ := w.(*os.File)
	return ux.NewPrinter(w, ux.DetectPersonality(f))
}

// loadConfig loads --config and applies command line overrides.
func (a *app) loadConfig(o config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(o); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openCache opens the result cache when cfg.CacheDir is set. The returned
// close function is never nil.
func (a *app) openCache(cfg *config.Config) (*cache.Cache, func(), error) {
	if cfg.CacheDir == "" {
		return nil, func() {}, nil
	}
	ccfg := cache.DefaultConfig(cfg.CacheDir)
	ccfg.Logger = a.slog()
	c, err := cache.Open(ccfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	return c, func() {
		st := c.Stats()
		a.slog().Debug("cache closed",
			slog.Int64("hits", st.Hits),
			slog.Int64("misses", st.Misses),
			slog.Int64("writes", st.Writes))
		if err := c.Close(); err != nil {
			a.slog().Warn("close cache", slog.String("error", err.Error()))
		}
	}, nil
}

// reportFiles prints changed and failed files.
func reportFiles(p *ux.Printer, mode runner.Mode, reports []runner.FileReport) {
	for _, rep := range reports {
		switch {
		case rep.Err != nil:
			p.FileStatus(rep.Path, ux.IconError, rep.Err.Error())
		case rep.Changed:
			reason := fmt.Sprintf("%d components", len(rep.Components))
			if mode == runner.ModeCheck {
				reason = "needs rewrite"
			}
			icon := ux.IconChanged
			if rep.Cached {
				icon = ux.IconCached
				reason += ", cached"
			}
			p.FileStatus(rep.Path, icon, reason)
		}
	}
}

// counts converts a runner summary for the printer.
func counts(s *runner.Summary) ux.Counts {
	return ux.Counts{
		Mode:        s.Mode.String(),
		Files:       s.Files,
		Changed:     s.Changed,
		Cached:      s.Cached,
		Failed:      s.Failed,
		Components:  s.Components,
		Identifiers: s.Identifiers,
		Duration:    s.Duration,
	}
}
