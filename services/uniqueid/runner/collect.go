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
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AleutianAI/svgid/services/uniqueid/config"
)

// Excluded reports whether rel matches one of the patterns. Each pattern is
// tried against the whole slash-separated path and against every segment,
// so "node_modules" excludes the directory at any depth.
func Excluded(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		for _, s := range segments {
			if ok, _ := filepath.Match(p, s); ok {
				return true
			}
		}
	}
	return false
}

// Collect expands paths into the sorted, de-duplicated list of files to
// transform.
//
// Directories are walked recursively, skipping excluded entries. Files
// named directly are kept when their extension is configured, even if an
// exclude pattern matches them.
func Collect(cfg *config.Config, paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", root, err)
		}
		if !info.IsDir() {
			if cfg.HasExtension(filepath.Ext(root)) {
				add(filepath.Clean(root))
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil || rel == "." {
				return nil
			}
			if Excluded(rel, cfg.Exclude) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && cfg.HasExtension(filepath.Ext(path)) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
