package scenario

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/flipcheck/internal/facade"
	"github.com/hazyhaar/flipcheck/internal/fixture"
	"github.com/hazyhaar/flipcheck/internal/verdict"
)

// reasonInterrupted is the Skip reason of checks observed after the run
// context ended.
const reasonInterrupted = "Run interrupted before the check completed"

func (e *Env) interrupted() bool { return e.ctx != nil && e.ctx.Err() != nil }

func (e *Env) record(n int, name string, passed bool, detail string) {
	e.check(verdict.Ord(n), name, passed, detail)
}

func (e *Env) skip(n int, name, reason string) {
	e.R.Skip(verdict.Ord(n), name, reason)
}

func (e *Env) defect(tag, name string, passed bool, detail string) {
	e.check(verdict.Tag(tag), name, passed, detail)
}

func (e *Env) check(id verdict.ID, name string, passed bool, detail string) {
	if e.interrupted() {
		e.R.Skip(id, name, reasonInterrupted)
		return
	}
	e.R.Record(id, name, passed, detail)
}

// eval is shorthand for a probe evaluation.
func (e *Env) eval(s facade.Script) facade.Value { return e.F.Evaluate(s) }

func (e *Env) click(selector string) bool { return e.F.SafeClick(selector, 0) }

// dims is a canvas size read from the page.
type dims struct {
	w, h int
	ok   bool
	raw  facade.Value
}

func (d dims) is(w, h int) bool { return d.ok && d.w == w && d.h == h }

func (d dims) equal(o dims) bool { return o.ok && d.is(o.w, o.h) }

func (d dims) String() string {
	if !d.ok {
		return d.raw.String()
	}
	return fmt.Sprintf("%dx%d", d.w, d.h)
}

func (e *Env) canvas(id string) dims {
	v := e.eval(probeCanvasDims(id))
	w, okW := v.Field("w").Int()
	h, okH := v.Field("h").Int()
	return dims{w: w, h: h, ok: okW && okH, raw: v}
}

func (e *Env) editCanvas() dims { return e.canvas("editCanvas") }

// bypassAuth hides the sign-in overlay so the workflow is reachable.
func (e *Env) bypassAuth() {
	e.eval(probeBypassAuth())
	e.F.Wait(500)
}

// reload navigates back to a fresh application state.
func (e *Env) reload() error {
	if err := e.F.Navigate(e.Target.URL); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	e.bypassAuth()
	return nil
}

var errNoFixture = errors.New("scenario: fixture unavailable")

// upload sets the fixtures of roles on the file input and waits settleMs.
func (e *Env) upload(settleMs int, roles ...fixture.Role) ([]fixture.Fixture, error) {
	fxs := make([]fixture.Fixture, 0, len(roles))
	paths := make([]string, 0, len(roles))
	for _, r := range roles {
		fx, ok := e.Fixtures.Get(r)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errNoFixture, r)
		}
		fxs = append(fxs, fx)
		paths = append(paths, fx.Path)
	}
	if err := e.F.Upload("#fileInput", paths...); err != nil {
		return nil, err
	}
	e.F.Wait(settleMs)
	return fxs, nil
}

func fixedOr(ok bool, fixed, broken string) string {
	if ok {
		return "FIXED: " + fixed
	}
	return "STILL BROKEN: " + broken
}
