// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"log/slog"
	"os"

	"github.com/AleutianAI/svgid/services/uniqueid/runner"
)

// RunnerHandler returns a Handler that feeds each batch to r.
//
// Paths that no longer exist or are not regular files are dropped. Files
// written by r trigger one more event each; the second pass finds nothing
// to rewrite, so the loop settles. report, when non-nil, receives every
// summary.
func RunnerHandler(r *runner.Runner, logger *slog.Logger, report func(Batch, *runner.Summary)) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, batch Batch) {
		var files []string
		for _, p := range batch.Paths() {
			if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
				files = append(files, p)
			}
		}
		log := logger.With(slog.String("batch_id", batch.ID))
		if len(files) == 0 {
			log.Debug("batch has no files to process", slog.Int("changes", len(batch.Changes)))
			return
		}

		summary, err := r.RunFiles(ctx, files)
		if err != nil {
			log.Warn("batch aborted", slog.String("error", err.Error()))
			return
		}
		for _, rep := range summary.Reports {
			if rep.Err != nil {
				log.Warn("file failed", slog.String("file", rep.Path), slog.String("error", rep.Err.Error()))
			}
		}
		log.Info("batch processed",
			slog.Int("files", summary.Files),
			slog.Int("changed", summary.Changed),
			slog.Int("failed", summary.Failed))
		if report != nil {
			report(batch, summary)
		}
	}
}
