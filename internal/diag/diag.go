// CLAUDE:SUMMARY Best-effort capture of console errors/warnings and uncaught page faults into capped logs.
// Package diag collects console output and uncaught in-page faults observed
// during a run. Capture is best effort: a failure inside the collector is
// swallowed and never reaches the scenario driver.
package diag

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Kind classifies a diagnostic event.
type Kind int

const (
	ConsoleError Kind = iota
	ConsoleWarning
	PageFault
)

func (k Kind) String() string {
	switch k {
	case ConsoleError:
		return "console-error"
	case ConsoleWarning:
		return "console-warning"
	case PageFault:
		return "page-fault"
	}
	return "unknown"
}

// Event is one observed diagnostic.
type Event struct {
	Kind Kind
	Text string
}

// Source delivers the session's passive event streams. Subscribe returns
// once the listeners are attached; delivery stops when ctx is done.
type Source interface {
	Subscribe(ctx context.Context, onConsole func(level, text string), onFault func(text string)) error
}

// DefaultMaxEvents caps each log.
const DefaultMaxEvents = 500

// Collector holds three independent capped logs. Events arrive on the
// browser's event goroutine, hence the mutex.
type Collector struct {
	mu       sync.Mutex
	max      int
	errors   []Event
	warnings []Event
	faults   []Event
	other    int
	dropped  int
	logger   *slog.Logger
}

// NewCollector creates a Collector capping each log at max (<=0 = default).
func NewCollector(max int, logger *slog.Logger) *Collector {
	if max <= 0 {
		max = DefaultMaxEvents
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{max: max, logger: logger}
}

// Attach subscribes to src. A subscription error is logged, not returned.
func (c *Collector) Attach(ctx context.Context, src Source) {
	defer c.swallow("attach")
	if err := src.Subscribe(ctx, c.OnConsole, c.OnFault); err != nil {
		c.logger.Warn("diag: subscribe failed", "error", err)
	}
}

// OnConsole files a console message by severity. Levels other than error
// and warning are counted only.
func (c *Collector) OnConsole(level, text string) {
	defer c.swallow("console")
	switch strings.ToLower(level) {
	case "error", "assert":
		c.push(&c.errors, Event{Kind: ConsoleError, Text: "[" + level + "] " + text})
	case "warning", "warn":
		c.push(&c.warnings, Event{Kind: ConsoleWarning, Text: "[" + level + "] " + text})
	default:
		c.mu.Lock()
		c.other++
		c.mu.Unlock()
	}
}

// OnFault records an uncaught in-page exception.
func (c *Collector) OnFault(text string) {
	defer c.swallow("fault")
	c.push(&c.faults, Event{Kind: PageFault, Text: "[PAGE ERROR] " + text})
}

func (c *Collector) push(log *[]Event, e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(*log) >= c.max {
		c.dropped++
		return
	}
	*log = append(*log, e)
}

func (c *Collector) swallow(op string) {
	if r := recover(); r != nil {
		c.logger.Warn("diag: collector fault swallowed", "op", op, "panic", r)
	}
}

// Snapshot is a copy of the collected logs.
type Snapshot struct {
	Errors   []Event
	Warnings []Event
	Faults   []Event
	Other    int
	Dropped  int
}

// Snapshot copies the logs for synthesis.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Errors:   append([]Event(nil), c.errors...),
		Warnings: append([]Event(nil), c.warnings...),
		Faults:   append([]Event(nil), c.faults...),
		Other:    c.other,
		Dropped:  c.dropped,
	}
}
