// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel defines the richness of CLI output
type PersonalityLevel string

const (
	// PersonalityFull enables colors, icons and boxes
	PersonalityFull PersonalityLevel = "full"

	// PersonalityMinimal uses icons without color
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine outputs plain tab-separated text for scripts
	PersonalityMachine PersonalityLevel = "machine"
)

// EnvPersonality overrides the detected level.
const EnvPersonality = "SVGID_PERSONALITY"

// ParsePersonalityLevel converts a string to PersonalityLevel
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "f":
		return PersonalityFull
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityFull
	}
}

// DetectPersonality picks a level for f: the environment override first,
// then machine output when f is not a terminal.
func DetectPersonality(f *os.File) PersonalityLevel {
	if env := os.Getenv(EnvPersonality); env != "" {
		return ParsePersonalityLevel(env)
	}
	if f == nil || !IsTerminal(f) {
		return PersonalityMachine
	}
	return PersonalityFull
}

// IsTerminal reports whether f is a terminal, including Cygwin ptys.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
