// CLAUDE:SUMMARY Append-only log of Pass/Fail/Skip check outcomes with ordinal or tagged ids.
// Package verdict records the outcome of every check a run performs.
//
// The log is append-only: there is no update or delete. It is read once, at
// report synthesis time.
package verdict

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Status is the outcome of one check.
type Status int

const (
	Pass Status = iota
	Fail
	Skip
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	}
	return "UNKNOWN"
}

// ParseStatus is the inverse of String.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "PASS":
		return Pass, true
	case "FAIL":
		return Fail, true
	case "SKIP":
		return Skip, true
	}
	return 0, false
}

// KnownDefectPrefix marks regression checks for previously logged defects.
const KnownDefectPrefix = "BUG-"

// PhaseFaultPrefix marks verdicts synthesised from a failed phase.
const PhaseFaultPrefix = "PHASE-"

// ID identifies a check: either an ordinal (1, 2, ...) or a tag ("BUG-4").
type ID struct {
	ord int
	tag string
}

// Ord returns an ordinal id.
func Ord(n int) ID { return ID{ord: n} }

// Tag returns a tagged id.
func Tag(t string) ID { return ID{tag: t} }

// KnownDefect reports whether the id marks a known-defect regression check.
func (id ID) KnownDefect() bool { return strings.HasPrefix(id.tag, KnownDefectPrefix) }

// String never returns an empty string.
func (id ID) String() string {
	if id.tag != "" {
		return id.tag
	}
	if id.ord > 0 {
		return strconv.Itoa(id.ord)
	}
	return "?"
}

// Verdict is one recorded check outcome. Values are copied out of the
// Recorder, so callers cannot mutate the log.
type Verdict struct {
	ID     ID
	Name   string
	Status Status
	Detail string
}

// Counts summarises a verdict log.
type Counts struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// PassRate is Passed/Total*100, or 0 when Total is 0. Skips stay in Total.
func (c Counts) PassRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Passed) / float64(c.Total) * 100
}

// Tally counts a slice of verdicts.
func Tally(vs []Verdict) Counts {
	c := Counts{Total: len(vs)}
	for _, v := range vs {
		switch v.Status {
		case Pass:
			c.Passed++
		case Fail:
			c.Failed++
		case Skip:
			c.Skipped++
		}
	}
	return c
}

// Recorder is the append-only verdict log for one run.
type Recorder struct {
	mu     sync.Mutex
	log    []Verdict
	logger *slog.Logger
}

// NewRecorder creates an empty Recorder.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

// Record appends a Pass or Fail verdict.
func (r *Recorder) Record(id ID, name string, passed bool, detail string) {
	st := Fail
	if passed {
		st = Pass
	}
	r.append(Verdict{ID: id, Name: name, Status: st, Detail: detail})
}

// Skip appends a Skip verdict: the check could not apply, no defect implied.
func (r *Recorder) Skip(id ID, name, reason string) {
	r.append(Verdict{ID: id, Name: name, Status: Skip, Detail: reason})
}

func (r *Recorder) append(v Verdict) {
	r.mu.Lock()
	r.log = append(r.log, v)
	r.mu.Unlock()

	level := slog.LevelInfo
	if v.Status == Fail {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "verdict: "+v.Status.String(),
		"id", v.ID.String(), "name", v.Name, "detail", v.Detail)
}

// Verdicts returns a copy of the log in execution order.
func (r *Recorder) Verdicts() []Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Verdict, len(r.log))
	copy(out, r.log)
	return out
}

// Counts tallies the current log.
func (r *Recorder) Counts() Counts {
	return Tally(r.Verdicts())
}

// Len returns the number of verdicts recorded so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.log)
}
