// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/dirload/lib/fwg"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// MaxPathWidth is the widest path shown in the blocking table; longer
// paths are truncated from the right.
const MaxPathWidth = 60

// Theme colors, ANSI 256.
var (
	headingColor = lipgloss.Color("255")
	faintColor   = lipgloss.Color("245")
	goodColor    = lipgloss.Color("114")
	warnColor    = lipgloss.Color("220")
	badColor     = lipgloss.Color("196")
)

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	faint   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func newStyles(renderer *lipgloss.Renderer) styles {
	return styles{
		title:   renderer.NewStyle().Bold(true).Foreground(headingColor),
		heading: renderer.NewStyle().Bold(true).Underline(true),
		faint:   renderer.NewStyle().Foreground(faintColor),
		good:    renderer.NewStyle().Foreground(goodColor),
		warn:    renderer.NewStyle().Foreground(warnColor),
		bad:     renderer.NewStyle().Bold(true).Foreground(badColor),
	}
}

// Render writes summary to w. color enables ANSI styling; pass false
// when w is not a terminal.
func Render(w io.Writer, summary *fwg.Summary, color bool) error {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	s := newStyles(renderer)

	var out strings.Builder

	mode := "mixed"
	if summary.Format {
		mode = "format"
	}
	title := "dirload run"
	if summary.Round > 1 {
		title = fmt.Sprintf("dirload run, round %d", summary.Round)
	}
	fmt.Fprintf(&out, "%s %s\n", s.title.Render(title), summary.Anchor)
	fmt.Fprintf(&out, "  %s %s  %s %dx%d  %s %s\n",
		s.faint.Render("mode"), mode,
		s.faint.Render("shape"), summary.Shape.Depth, summary.Shape.Width,
		s.faint.Render("stopped"), summary.Reason)
	fmt.Fprintf(&out, "  %s %s  %s %d (%.1f/s)  %s %d/%d\n\n",
		s.faint.Render("elapsed"), summary.Elapsed.Round(time.Millisecond),
		s.faint.Render("operations"), summary.Operations, summary.Rate(),
		s.faint.Render("existing"), summary.Existing, summary.Directories)

	var pools [][]string
	for _, pool := range summary.Pools {
		pools = append(pools, []string{
			pool.Operation,
			strconv.Itoa(pool.Threads),
			pool.Selection,
			strconv.FormatUint(pool.Completed, 10),
		})
	}
	writeTable(&out, s, "Workers", []string{"operation", "threads", "selection", "completed"}, pools)

	var events [][]string
	for _, event := range workload.Events() {
		count := summary.Events[event.String()]
		value := strconv.FormatUint(count, 10)
		switch {
		case count == 0:
			value = s.faint.Render(value)
		case !event.Operations():
			// Annotations mean the filesystem disagreed with the tree.
			value = s.warn.Render(value)
		}
		events = append(events, []string{event.String(), value})
	}
	writeTable(&out, s, "Events", []string{"event", "count"}, events)

	var blocks [][]string
	for _, entry := range summary.Blocked {
		value := strconv.FormatUint(entry.Count, 10)
		if entry.Count == 0 {
			value = s.faint.Render(value)
		}
		blocks = append(blocks, []string{
			entry.Reason.String(),
			value,
			ansi.Truncate(entry.LastPath, MaxPathWidth, "…"),
		})
	}
	writeTable(&out, s, "Blocked", []string{"reason", "count", "last path"}, blocks)

	if len(summary.Failures) > 0 {
		fmt.Fprintf(&out, "%s\n", s.bad.Render(fmt.Sprintf("%d worker(s) failed", len(summary.Failures))))
		for _, failure := range summary.Failures {
			firstLine, _, _ := strings.Cut(failure.Error, "\n")
			fmt.Fprintf(&out, "  worker %d (%s): %s\n", failure.Worker, failure.Operation, firstLine)
		}
		out.WriteString("\n")
	}
	if len(summary.LeakedLocks) > 0 {
		fmt.Fprintf(&out, "%s\n", s.bad.Render("directories still locked after the run"))
		for _, path := range summary.LeakedLocks {
			fmt.Fprintf(&out, "  %s\n", path)
		}
		out.WriteString("\n")
	}
	if len(summary.Failures) == 0 && len(summary.LeakedLocks) == 0 {
		fmt.Fprintf(&out, "%s\n", s.good.Render("no worker failures, no leaked locks"))
	}

	_, err := io.WriteString(w, out.String())
	return err
}

// writeTable writes a titled, left-aligned table. Cells may contain ANSI
// styling; widths are measured on the visible text.
func writeTable(out *strings.Builder, s styles, title string, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = ansi.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], ansi.StringWidth(cell))
		}
	}

	fmt.Fprintf(out, "%s\n", s.heading.Render(title))
	writeRow(out, widths, styled(headers, s.faint))
	for _, row := range rows {
		writeRow(out, widths, row)
	}
	out.WriteString("\n")
}

func writeRow(out *strings.Builder, widths []int, cells []string) {
	out.WriteString(" ")
	for i, cell := range cells {
		out.WriteString(" ")
		out.WriteString(cell)
		if i < len(cells)-1 {
			out.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)+1))
		}
	}
	out.WriteString("\n")
}

func styled(cells []string, style lipgloss.Style) []string {
	result := make([]string, len(cells))
	for i, cell := range cells {
		result[i] = style.Render(cell)
	}
	return result
}
