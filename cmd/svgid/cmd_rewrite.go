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
	"github.com/AleutianAI/svgid/services/uniqueid/config"
	"github.com/AleutianAI/svgid/services/uniqueid/runner"
	"github.com/spf13/cobra"
)

type rewriteFlags struct {
	write       bool
	diff        bool
	check       bool
	hookName    string
	libraryName string
	concurrency int
	cacheDir    string
}

func newRewriteCmd(a *app) *cobra.Command {
	var f rewriteFlags
	cmd := &cobra.Command{
		Use:   "rewrite [paths...]",
		Short: "Rewrite SVG ids in JSX files (check only unless --write or --diff)",
		Long: `Rewrite finds components whose JSX renders inline <svg> elements with
literal id attributes and binds each id to a per-instance token from the
id generator hook. Files and directories may be mixed; directories are
walked recursively, honouring the configured extensions and exclude globs.

Without --write or --diff the command only reports, and exits with status 1
when any file would change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, a, &f, args)
		},
	}
	cmd.Flags().BoolVarP(&f.write, "write", "w", false, "Write changes in place")
	cmd.Flags().BoolVarP(&f.diff, "diff", "d", false, "Print unified diffs instead of writing")
	cmd.Flags().BoolVar(&f.check, "check", false, "Only report files that would change (default)")
	cmd.Flags().StringVar(&f.hookName, "hook-name", "", "Hook called for each id (overrides config)")
	cmd.Flags().StringVar(&f.libraryName, "library-name", "", "Module the hook is imported from (overrides config)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Files processed in parallel, 0 for one per CPU (overrides config)")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "Directory for the result cache (overrides config)")
	cmd.MarkFlagsMutuallyExclusive("write", "diff", "check")
	return cmd
}

func runRewrite(cmd *cobra.Command, a *app, f *rewriteFlags, args []string) error {
	overrides := config.Overrides{
		HookName:    f.hookName,
		LibraryName: f.libraryName,
		CacheDir:    f.cacheDir,
	}
	if cmd.Flags().Changed("concurrency") {
		overrides.Concurrency = &f.concurrency
	}
	cfg, err := a.loadConfig(overrides)
	if err != nil {
		return a.fail(err)
	}

	mode := runner.ModeCheck
	switch {
	case f.write:
		mode = runner.ModeWrite
	case f.diff:
		mode = runner.ModeDiff
	}

	c, closeCache, err := a.openCache(cfg)
	if err != nil {
		return a.fail(err)
	}
	defer closeCache()

	// Diffs own stdout; status lines move to stderr.
	p := a.printer(cmd.OutOrStdout())
	if mode == runner.ModeDiff {
		p = a.printer(cmd.ErrOrStderr())
	}

	r := runner.New(cfg,
		runner.WithMode(mode),
		runner.WithCache(c),
		runner.WithDiffOutput(cmd.OutOrStdout()),
		runner.WithLogger(a.slog()),
	)

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	summary, err := r.Run(cmd.Context(), paths)
	if err != nil {
		return a.fail(err)
	}

	reportFiles(p, mode, summary.Reports)
	p.Summary(counts(summary))
	return summary.Err()
}

// fail prints err and returns it so cobra stops.
func (a *app) fail(err error) error {
	a.printer(a.stderr).Error(err.Error())
	a.reported = true
	return err
}
