// CLAUDE:SUMMARY Ordered phase registry and driver: gating aborts, phase-fault verdicts, fatal-fault recovery with final screenshot.
// Package scenario sequences the named phases of a verification run.
//
// Phases run one after another against a single session. A phase error is
// recorded and the run moves on, except for gating phases whose failure
// abandons the rest. A panic escaping a phase is a fatal fault: the driver
// recovers it once, captures a final screenshot and page markup, and
// returns so the caller can still write the report.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/flipcheck/internal/facade"
	"github.com/hazyhaar/flipcheck/internal/fixture"
	"github.com/hazyhaar/flipcheck/internal/verdict"
)

// ErrGating wraps the error of a failed gating phase.
var ErrGating = errors.New("scenario: gating phase failed")

// ErrFatal wraps a recovered fatal fault.
var ErrFatal = errors.New("scenario: fatal fault")

// Target is the application under test.
type Target struct {
	URL  string
	Live bool
}

// Env is what every phase executor receives.
type Env struct {
	F        *facade.Facade
	R        *verdict.Recorder
	Fixtures fixture.Set
	Target   Target
	Logger   *slog.Logger

	ctx context.Context // run context, set by Driver.Run
}

// Phase is a registered, named group of checks.
type Phase struct {
	Name   string
	Gating bool
	Run    func(ctx context.Context, e *Env) error
}

// Outcome summarises how far a run got.
type Outcome struct {
	Ran []string
	// Aborted is a human-readable reason, "" when every phase ran.
	Aborted string
	// Err is ErrGating, ErrFatal or a context error when the run stopped early.
	Err error
	// PageHTML is the document markup captured when the run stopped early.
	PageHTML string
}

// Driver runs phases in registration order.
type Driver struct {
	phases []Phase
	only   map[string]bool
	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithOnly restricts execution to the named phases. Gating phases always
// run since every other phase depends on them.
func WithOnly(names ...string) Option {
	return func(d *Driver) {
		if len(names) == 0 {
			return
		}
		d.only = make(map[string]bool, len(names))
		for _, n := range names {
			d.only[n] = true
		}
	}
}

// WithLogger sets the driver logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a Driver over phases.
func NewDriver(phases []Phase, opts ...Option) *Driver {
	d := &Driver{phases: phases, logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Names lists the registered phase names in order.
func (d *Driver) Names() []string {
	names := make([]string, len(d.phases))
	for i, p := range d.phases {
		names[i] = p.Name
	}
	return names
}

// Run executes the phases. It never panics.
func (d *Driver) Run(ctx context.Context, e *Env) (out Outcome) {
	current := ""
	e.ctx = ctx
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		d.logger.Error("scenario: fatal fault", "phase", current, "panic", r)
		out.Err = fmt.Errorf("%w: phase %s: %v", ErrFatal, current, r)
		out.Aborted = fmt.Sprintf("fatal fault in phase %q: %v", current, r)
		out.PageHTML = d.capture(e, "FATAL_ERROR")
	}()

	for _, p := range d.phases {
		if err := ctx.Err(); err != nil {
			out.Err = err
			out.Aborted = fmt.Sprintf("interrupted before phase %q", p.Name)
			d.logger.Warn("scenario: interrupted", "next_phase", p.Name)
			return out
		}
		if !p.Gating && d.only != nil && !d.only[p.Name] {
			d.logger.Debug("scenario: phase not selected", "phase", p.Name)
			continue
		}

		current = p.Name
		before := e.R.Len()
		d.logger.Info("scenario: phase start", "phase", p.Name, "gating", p.Gating)
		err := p.Run(ctx, e)
		out.Ran = append(out.Ran, p.Name)
		d.logger.Info("scenario: phase done", "phase", p.Name, "checks", e.R.Len()-before, "error", err)

		if cerr := ctx.Err(); cerr != nil {
			out.Err = cerr
			out.Aborted = fmt.Sprintf("interrupted during phase %q", p.Name)
			d.logger.Warn("scenario: interrupted", "phase", p.Name)
			return out
		}
		if err == nil {
			continue
		}
		if p.Gating {
			out.Err = fmt.Errorf("%w: %s: %v", ErrGating, p.Name, err)
			out.Aborted = fmt.Sprintf("gating phase %q failed: %v", p.Name, err)
			out.PageHTML = d.capture(e, p.Name+"_aborted")
			return out
		}
		e.R.Record(verdict.Tag(verdict.PhaseFaultPrefix+p.Name), "Phase "+p.Name+" completes", false, err.Error())
	}
	return out
}

// capture takes the final screenshot and page markup. Both go through the
// facade, so neither can fault.
func (d *Driver) capture(e *Env, label string) string {
	e.F.Screenshot(label)
	return e.F.PageHTML()
}

// Default returns the full ordered phase registry.
func Default() []Phase {
	return []Phase{
		{Name: "load", Gating: true, Run: loadPhase},
		{Name: "upload", Gating: true, Run: uploadPhase},
		{Name: "background", Run: backgroundPhase},
		{Name: "crop", Run: cropPhase},
		{Name: "rotate", Run: rotatePhase},
		{Name: "resize", Run: resizePhase},
		{Name: "format", Run: formatPhase},
		{Name: "download", Run: downloadPhase},
		{Name: "multifile", Run: multifilePhase},
		{Name: "edge", Run: edgePhase},
		{Name: "visual", Run: visualPhase},
		{Name: "oversized", Run: oversizedPhase},
		{Name: "undersized", Run: undersizedPhase},
		{Name: "colored", Run: coloredPhase},
		{Name: "known-defects", Run: knownDefectsPhase},
	}
}
