// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command svgid rewrites inline SVG ids in JSX components so that every
// mounted instance gets its own ids.
//
// Usage:
//
//	svgid rewrite src/            # report files that need rewriting
//	svgid rewrite -w src/         # rewrite in place
//	svgid rewrite -d src/ | less  # show unified diffs
//	svgid watch src/ --metrics-addr :9464
//	svgid tokens 3 --renders 2
//
// Exit status is 0 on success, 1 when `rewrite --check` finds files to
// rewrite, and 2 on any other failure.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
