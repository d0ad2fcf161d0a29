// CLAUDE:SUMMARY Pure synthesis of verdicts, diagnostics and screenshots into one markdown report, with HTML rendering and atomic write.
// Package report turns the accumulated state of a run into one document.
//
// Synthesize is a pure function of its Input: the same input yields the same
// document byte for byte. The only time-dependent field is Meta.GeneratedAt,
// which the caller supplies.
package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/flipcheck/internal/diag"
	"github.com/hazyhaar/flipcheck/internal/facade"
	"github.com/hazyhaar/flipcheck/internal/verdict"
)

// Bounds applied while rendering.
const (
	MaxDetail       = 120
	MaxEventText    = 200
	MaxErrors       = 50
	MaxWarnings     = 20
	MaxFaults       = 50
	MaxPageText     = 2000
	DefaultTitle    = "FormatFlip - Automated Test Report"
	generatedFormat = "2006-01-02 15:04:05"
)

// Meta describes the run.
type Meta struct {
	Title         string
	RunID         string
	URL           string
	Mode          string
	GeneratedAt   time.Time
	ScreenshotDir string
	// Aborted is the reason remaining phases were abandoned, "" on a full run.
	Aborted string
	// PageText is a markdown excerpt of the page at abort time.
	PageText string
	// PageState is parsed from the same markup.
	PageState PageState
}

// Input is everything a report is computed from.
type Input struct {
	Meta        Meta
	Verdicts    []verdict.Verdict
	Diagnostics diag.Snapshot
	Screenshots []facade.Screenshot
	// Previous maps verdict ids to their status in the previous run.
	// Nil when no history is available.
	Previous map[string]verdict.Status
}

// Change is a verdict whose status differs from the previous run.
type Change struct {
	ID     string
	Name   string
	Before verdict.Status
	After  verdict.Status
}

// Report is the synthesised document.
type Report struct {
	Meta         Meta
	Counts       verdict.Counts
	Verdicts     []verdict.Verdict
	KnownDefects []verdict.Verdict
	Failed       []verdict.Verdict
	Regressions  []Change
	Recoveries   []Change
	md           []byte
}

// Synthesize computes the report. It never fails: any partial state yields
// a complete document.
func Synthesize(in Input) *Report {
	if in.Meta.Title == "" {
		in.Meta.Title = DefaultTitle
	}
	r := &Report{
		Meta:     in.Meta,
		Counts:   verdict.Tally(in.Verdicts),
		Verdicts: append([]verdict.Verdict(nil), in.Verdicts...),
	}
	for _, v := range in.Verdicts {
		if v.ID.KnownDefect() {
			r.KnownDefects = append(r.KnownDefects, v)
		}
		if v.Status == verdict.Fail {
			r.Failed = append(r.Failed, v)
		}
		if in.Previous == nil {
			continue
		}
		before, ok := in.Previous[v.ID.String()]
		if !ok {
			continue
		}
		ch := Change{ID: v.ID.String(), Name: v.Name, Before: before, After: v.Status}
		switch {
		case before == verdict.Pass && v.Status == verdict.Fail:
			r.Regressions = append(r.Regressions, ch)
		case before == verdict.Fail && v.Status == verdict.Pass:
			r.Recoveries = append(r.Recoveries, ch)
		}
	}
	r.md = render(r, in)
	return r
}

// Markdown returns the rendered document.
func (r *Report) Markdown() []byte { return r.md }

// DefectLabel derives the known-defect label from status alone.
func DefectLabel(s verdict.Status) string {
	if s == verdict.Pass {
		return "Confirmed fixed"
	}
	return "Not confirmed"
}

var stripTags = bluemonday.StrictPolicy()

// plain removes markup from page-originated text.
func plain(s string) string {
	return html.UnescapeString(stripTags.Sanitize(s))
}

// cell makes s safe inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

// truncate bounds s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max-3]) + "..."
}

func statusCell(s verdict.Status) string {
	if s == verdict.Fail {
		return "**FAIL**"
	}
	return s.String()
}

func render(r *Report, in Input) []byte {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	m := r.Meta
	line("# %s", m.Title)
	line("")
	line("**Generated:** %s", m.GeneratedAt.Format(generatedFormat))
	if m.RunID != "" {
		line("**Run:** %s", m.RunID)
	}
	line("**URL:** %s", m.URL)
	line("**Mode:** %s", m.Mode)
	if m.Aborted != "" {
		line("**Aborted:** %s", cell(m.Aborted))
	}
	line("")

	c := r.Counts
	line("## Summary")
	line("")
	line("| Metric | Count |")
	line("|--------|-------|")
	line("| Total Tests | %d |", c.Total)
	line("| Passed | %d |", c.Passed)
	line("| Failed | %d |", c.Failed)
	line("| Skipped | %d |", c.Skipped)
	line("| Pass Rate | %.1f%% |", c.PassRate())
	line("")

	line("## Test Results")
	line("")
	line("| # | Test | Status | Detail |")
	line("|---|------|--------|--------|")
	for _, v := range r.Verdicts {
		line("| %s | %s | %s | %s |", cell(v.ID.String()), cell(v.Name), statusCell(v.Status),
			truncate(cell(v.Detail), MaxDetail))
	}

	if len(r.KnownDefects) > 0 {
		line("")
		line("## Known Bugs Verified")
		line("")
		for _, v := range r.KnownDefects {
			line("### %s: %s", v.ID, v.Name)
			line("")
			line("**Status:** %s", DefectLabel(v.Status))
			line("")
			line("**Detail:** %s", cell(v.Detail))
			line("")
		}
	}

	d := in.Diagnostics
	events := func(title string, evs []diag.Event, max int) {
		if len(evs) == 0 {
			return
		}
		line("")
		line("## %s (%d)", title, len(evs))
		line("")
		for i, e := range evs {
			if i >= max {
				line("... %d more", len(evs)-max)
				break
			}
			text := strings.ReplaceAll(cell(plain(e.Text)), "`", "'")
			line("%d. `%s`", i+1, truncate(text, MaxEventText))
		}
	}
	events("Console Errors", d.Errors, MaxErrors)
	events("Console Warnings", d.Warnings, MaxWarnings)
	events("Page Faults", d.Faults, MaxFaults)
	if d.Dropped > 0 {
		line("")
		line("_%d diagnostic events dropped after the capture cap._", d.Dropped)
	}

	if m.PageText != "" || !m.PageState.Empty() {
		line("")
		line("## Page State at Abort")
		line("")
		st := m.PageState
		if st.Title != "" {
			line("- Title: %s", cell(st.Title))
		}
		if st.ActiveStep != "" {
			line("- Active step: %s", st.ActiveStep)
		}
		if len(st.Toasts) > 0 {
			line("- Toasts: %s", cell(truncate(strings.Join(st.Toasts, "; "), MaxEventText)))
		}
		if len(st.OpenModals) > 0 {
			line("- Open modals: %s", strings.Join(st.OpenModals, ", "))
		}
		if !st.Empty() {
			line("")
		}
	}
	if m.PageText != "" {
		line("```")
		line("%s", truncate(strings.ReplaceAll(m.PageText, "```", "'''"), MaxPageText))
		line("```")
	}

	if in.Previous != nil {
		line("")
		line("## Changes Since Previous Run")
		line("")
		if len(r.Regressions) == 0 && len(r.Recoveries) == 0 {
			line("No status changes.")
		}
		for _, ch := range r.Regressions {
			line("- **#%s %s**: %s -> %s", ch.ID, cell(ch.Name), ch.Before, ch.After)
		}
		for _, ch := range r.Recoveries {
			line("- #%s %s: %s -> %s", ch.ID, cell(ch.Name), ch.Before, ch.After)
		}
	}

	line("")
	line("## Screenshots")
	line("")
	if m.ScreenshotDir != "" {
		line("All screenshots saved to: `%s`", m.ScreenshotDir)
		line("")
	}
	for _, s := range in.Screenshots {
		line("- `%s`", s.Name())
	}

	if len(r.Failed) > 0 {
		line("")
		line("## Failed Tests - Action Items")
		line("")
		for _, v := range r.Failed {
			line("- **#%s %s**: %s", v.ID, cell(v.Name), cell(v.Detail))
		}
	}

	return []byte(b.String())
}
