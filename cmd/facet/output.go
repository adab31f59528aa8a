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
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by every command.
var (
	colorTeal    = lipgloss.Color("#2CD7C7")
	colorPrimary = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#2C4A54")
)

const (
	iconSuccess = "✓"
	iconWarning = "⚠"
	iconError   = "✗"
	iconArrow   = "→"
)

type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
	hunk    lipgloss.Style
}

func colorStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorTeal),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		success: lipgloss.NewStyle().Foreground(colorTeal),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		err:     lipgloss.NewStyle().Foreground(colorError),
		added:   lipgloss.NewStyle().Foreground(colorTeal),
		removed: lipgloss.NewStyle().Foreground(colorError),
		hunk:    lipgloss.NewStyle().Foreground(colorPrimary),
	}
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{plain, plain, plain, plain, plain, plain, plain, plain}
}

// printer writes command output, styled when color is on.
type printer struct {
	w     io.Writer
	color bool
	s     styles
}

func newPrinter(w io.Writer, color bool) *printer {
	p := &printer{w: w, color: color, s: plainStyles()}
	if color {
		p.s = colorStyles()
	}
	return p
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *printer) title(s string) string { return p.render(p.s.title, s) }
func (p *printer) muted(s string) string { return p.render(p.s.muted, s) }

func (p *printer) success(s string) string {
	return p.render(p.s.success, iconSuccess) + " " + s
}

func (p *printer) warning(s string) string {
	return p.render(p.s.warning, iconWarning) + " " + s
}

func (p *printer) failure(s string) string {
	return p.render(p.s.err, iconError) + " " + s
}

// diffLine styles one line of a unified diff by its prefix.
func (p *printer) diffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "@@"):
		return p.render(p.s.hunk, line)
	case strings.HasPrefix(line, "+"):
		return p.render(p.s.added, line)
	case strings.HasPrefix(line, "-"):
		return p.render(p.s.removed, line)
	default:
		return line
	}
}

func (p *printer) println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *printer) printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}
