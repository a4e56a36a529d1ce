// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the svgid CLI.
package ux

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorTealDeep    = lipgloss.Color("#16858E") // borders
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Box      lipgloss.Style
	ErrorBox lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorError).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconChanged Icon = "~"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconCached  Icon = "○"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconChanged, IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconCached:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Word is the machine-readable name for the icon.
func (i Icon) Word() string {
	switch i {
	case IconSuccess:
		return "ok"
	case IconChanged:
		return "changed"
	case IconWarning:
		return "warn"
	case IconError:
		return "error"
	case IconCached:
		return "cached"
	default:
		return string(i)
	}
}

// Counts is the run tally printed by Printer.Summary.
type Counts struct {
	Mode        string
	Files       int
	Changed     int
	Cached      int
	Failed      int
	Components  int
	Identifiers int
	Duration    time.Duration
}

// Printer writes styled output to a writer at a fixed personality level.
type Printer struct {
	w     io.Writer
	level PersonalityLevel
}

// NewPrinter creates a Printer.
func NewPrinter(w io.Writer, level PersonalityLevel) *Printer {
	return &Printer{w: w, level: level}
}

// Level returns the printer's personality level.
func (p *Printer) Level() PersonalityLevel { return p.level }

// FileStatus prints a file with its status and an optional reason.
func (p *Printer) FileStatus(path string, status Icon, reason string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "%s\t%s\t%s\n", status.Word(), path, reason)
	case PersonalityMinimal:
		if reason != "" {
			fmt.Fprintf(p.w, "%s %s (%s)\n", status, path, reason)
		} else {
			fmt.Fprintf(p.w, "%s %s\n", status, path)
		}
	default:
		if reason != "" {
			fmt.Fprintf(p.w, "%s %s %s\n", status.Render(), path, Styles.Muted.Render("("+reason+")"))
		} else {
			fmt.Fprintf(p.w, "%s %s\n", status.Render(), path)
		}
	}
}

// Summary prints the run tally.
func (p *Printer) Summary(c Counts) {
	dur := c.Duration.Round(time.Millisecond)
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "SUMMARY: mode=%s files=%d changed=%d cached=%d failed=%d components=%d identifiers=%d duration=%s\n",
			c.Mode, c.Files, c.Changed, c.Cached, c.Failed, c.Components, c.Identifiers, dur)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "%d files, %d changed, %d cached, %d failed (%s)\n",
			c.Files, c.Changed, c.Cached, c.Failed, dur)
	default:
		body := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s\n%s",
			Styles.Bold.Render(fmt.Sprint(c.Files)), Styles.Muted.Render("files"),
			Styles.Warning.Render(fmt.Sprint(c.Changed)), Styles.Muted.Render("changed"),
			Styles.Muted.Render(fmt.Sprint(c.Cached)), Styles.Muted.Render("cached"),
			Styles.Error.Render(fmt.Sprint(c.Failed)), Styles.Muted.Render("failed"),
			Styles.Muted.Render(fmt.Sprintf("%d components, %d identifiers in %s", c.Components, c.Identifiers, dur)),
		)
		box := Styles.Box
		if c.Failed > 0 {
			box = Styles.ErrorBox
		}
		fmt.Fprintln(p.w, box.Render(Styles.Title.Render("svgid "+c.Mode)+"\n"+body))
	}
}

// Error prints an error message.
func (p *Printer) Error(text string) {
	switch p.level {
	case PersonalityMachine:
		fmt.Fprintf(p.w, "ERROR: %s\n", text)
	case PersonalityMinimal:
		fmt.Fprintf(p.w, "%s %s\n", IconError, text)
	default:
		fmt.Fprintf(p.w, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}
