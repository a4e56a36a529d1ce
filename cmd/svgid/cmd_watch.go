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
	"log/slog"
	"time"

	"github.com/AleutianAI/svgid/services/uniqueid/config"
	"github.com/AleutianAI/svgid/services/uniqueid/runner"
	"github.com/AleutianAI/svgid/services/uniqueid/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		debounce time.Duration
		initial  bool
		cacheDir string
	)
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Rewrite JSX files in place as they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			cfg, err := a.loadConfig(config.Overrides{CacheDir: cacheDir})
			if err != nil {
				return a.fail(err)
			}
			c, closeCache, err := a.openCache(cfg)
			if err != nil {
				return a.fail(err)
			}
			defer closeCache()

			ctx := cmd.Context()
			logger := a.slog()
			p := a.printer(cmd.OutOrStdout())
			r := runner.New(cfg,
				runner.WithMode(runner.ModeWrite),
				runner.WithCache(c),
				runner.WithLogger(logger),
			)

			if initial {
				summary, err := r.Run(ctx, []string{dir})
				if err != nil {
					return a.fail(err)
				}
				reportFiles(p, runner.ModeWrite, summary.Reports)
				p.Summary(counts(summary))
			}

			handler := watch.RunnerHandler(r, logger, func(_ watch.Batch, s *runner.Summary) {
				reportFiles(p, runner.ModeWrite, s.Reports)
			})
			w, err := watch.New(dir, handler, watch.Options{
				Debounce:   debounce,
				Exclude:    cfg.Exclude,
				Extensions: cfg.Extensions,
				Logger:     logger,
			})
			if err != nil {
				return a.fail(err)
			}
			if err := w.Start(ctx); err != nil {
				return a.fail(err)
			}
			logger.Info("watching", slog.String("dir", dir), slog.Duration("debounce", debounce))

			select {
			case <-ctx.Done():
			case <-w.Done():
			}
			w.Stop()
			logger.Info("watch stopped")
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultOptions().Debounce, "Quiet period before a batch of changes is processed")
	cmd.Flags().StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address, e.g. :9464")
	cmd.Flags().BoolVar(&initial, "initial", true, "Rewrite existing files before watching")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for the result cache (overrides config)")
	return cmd
}
