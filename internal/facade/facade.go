// CLAUDE:SUMMARY Never-panicking wrappers over browser actions: click, probes, typed evaluation, waits, numbered screenshots.
// Package facade wraps raw browser capabilities so that a broken control
// degrades one check instead of the run. Probes return false or an error
// marker; they never return errors to the caller and never panic.
package facade

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// Script is a named in-page function. Name identifies the probe in logs and
// lets test pages answer without a JavaScript engine.
type Script struct {
	Name string
	JS   string
	Args []any
}

// Page is the capability set of one browser page. Every method must honour
// ctx cancellation; the Facade sets a deadline on each call.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Visible(ctx context.Context, selector string) (bool, error)
	Count(ctx context.Context, selector string) (int, error)
	Eval(ctx context.Context, s Script) ([]byte, error)
	Fill(ctx context.Context, selector, value string) error
	SetFiles(ctx context.Context, selector string, paths []string) error
	Press(ctx context.Context, chord string) error
	Download(ctx context.Context, selector string) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
}

// Options configures a Facade.
type Options struct {
	// ScreenshotDir receives NN_label.png files.
	ScreenshotDir string

	ClickTimeout    time.Duration // default 5s
	VisibleTimeout  time.Duration // default 3s
	EvalTimeout     time.Duration // default 10s
	NavigateTimeout time.Duration // default 30s
	DownloadTimeout time.Duration // default 5s

	// Sleep replaces the cooperative delay (tests pass a no-op).
	Sleep func(time.Duration)

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.ClickTimeout <= 0 {
		o.ClickTimeout = 5 * time.Second
	}
	if o.VisibleTimeout <= 0 {
		o.VisibleTimeout = 3 * time.Second
	}
	if o.EvalTimeout <= 0 {
		o.EvalTimeout = 10 * time.Second
	}
	if o.NavigateTimeout <= 0 {
		o.NavigateTimeout = 30 * time.Second
	}
	if o.DownloadTimeout <= 0 {
		o.DownloadTimeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Facade is bound to one page and one run context. Not safe for concurrent
// use: the session has a single writer.
type Facade struct {
	ctx     context.Context
	page    Page
	opts    Options
	gallery *Gallery
	logger  *slog.Logger
}

// New creates a Facade over page. ctx bounds every interaction.
func New(ctx context.Context, page Page, opts Options) *Facade {
	opts.defaults()
	return &Facade{
		ctx:     ctx,
		page:    page,
		opts:    opts,
		gallery: &Gallery{},
		logger:  opts.Logger,
	}
}

// Gallery returns the screenshot index of the run.
func (f *Facade) Gallery() *Gallery { return f.gallery }

// call runs fn under a deadline and converts panics into errors.
func (f *Facade) call(op string, timeout time.Duration, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("facade: %s: panic: %v", op, r)
		}
	}()
	ctx, cancel := context.WithTimeout(f.ctx, timeout)
	defer cancel()
	return fn(ctx)
}

func pick(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// SafeClick clicks the first element matching selector. False on a missing
// element, timeout or non-interactable target.
func (f *Facade) SafeClick(selector string, timeout time.Duration) bool {
	err := f.call("click", pick(timeout, f.opts.ClickTimeout), func(ctx context.Context) error {
		return f.page.Click(ctx, selector)
	})
	if err != nil {
		f.logger.Debug("facade: click failed", "selector", selector, "error", err)
		return false
	}
	return true
}

// ElementVisible reports whether the first match is rendered and visible.
func (f *Facade) ElementVisible(selector string, timeout time.Duration) bool {
	var visible bool
	err := f.call("visible", pick(timeout, f.opts.VisibleTimeout), func(ctx context.Context) error {
		v, err := f.page.Visible(ctx, selector)
		visible = v
		return err
	})
	if err != nil {
		f.logger.Debug("facade: visibility probe failed", "selector", selector, "error", err)
		return false
	}
	return visible
}

// ElementExists reports DOM presence without waiting.
func (f *Facade) ElementExists(selector string) bool {
	var n int
	err := f.call("exists", f.opts.VisibleTimeout, func(ctx context.Context) error {
		c, err := f.page.Count(ctx, selector)
		n = c
		return err
	})
	if err != nil {
		f.logger.Debug("facade: existence probe failed", "selector", selector, "error", err)
		return false
	}
	return n > 0
}

// Evaluate runs s in the page and returns its tagged result.
func (f *Facade) Evaluate(s Script) Value {
	var raw []byte
	err := f.call("eval", f.opts.EvalTimeout, func(ctx context.Context) error {
		b, err := f.page.Eval(ctx, s)
		raw = b
		return err
	})
	if err != nil {
		f.logger.Debug("facade: eval failed", "script", s.Name, "error", err)
		return ErrorValue(err.Error())
	}
	return FromJSON(raw)
}

// Wait is a cooperative delay letting asynchronous rendering settle.
func (f *Facade) Wait(ms int) {
	d := time.Duration(ms) * time.Millisecond
	if f.opts.Sleep != nil {
		f.opts.Sleep(d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-f.ctx.Done():
	case <-t.C:
	}
}

// Navigate loads url. Unlike the probes it returns the error: navigation is
// only used where failure must abort.
func (f *Facade) Navigate(url string) error {
	return f.call("navigate", f.opts.NavigateTimeout, func(ctx context.Context) error {
		return f.page.Navigate(ctx, url)
	})
}

// Upload sets local file paths on a file input.
func (f *Facade) Upload(selector string, paths ...string) error {
	return f.call("upload", f.opts.ClickTimeout, func(ctx context.Context) error {
		return f.page.SetFiles(ctx, selector, paths)
	})
}

// Fill replaces the value of an input and fires its input event.
func (f *Facade) Fill(selector, value string) bool {
	err := f.call("fill", f.opts.ClickTimeout, func(ctx context.Context) error {
		return f.page.Fill(ctx, selector, value)
	})
	if err != nil {
		f.logger.Debug("facade: fill failed", "selector", selector, "error", err)
		return false
	}
	return true
}

// Press injects a key chord such as "Control+z".
func (f *Facade) Press(chord string) bool {
	err := f.call("press", f.opts.ClickTimeout, func(ctx context.Context) error {
		return f.page.Press(ctx, chord)
	})
	if err != nil {
		f.logger.Debug("facade: key press failed", "chord", chord, "error", err)
		return false
	}
	return true
}

// Undo presses Control+z n times with a short settle delay after each.
func (f *Facade) Undo(n, settleMs int) {
	for i := 0; i < n; i++ {
		f.Press("Control+z")
		f.Wait(settleMs)
	}
}

// ExpectDownload clicks selector and waits for a download to begin. It
// returns the suggested file name.
func (f *Facade) ExpectDownload(selector string, timeout time.Duration) (string, bool) {
	var name string
	err := f.call("download", pick(timeout, f.opts.DownloadTimeout), func(ctx context.Context) error {
		n, err := f.page.Download(ctx, selector)
		name = n
		return err
	})
	if err != nil {
		f.logger.Debug("facade: download not observed", "selector", selector, "error", err)
		return "", false
	}
	return name, true
}

// PageHTML returns the current document markup, or "" on failure.
func (f *Facade) PageHTML() string {
	var html string
	err := f.call("html", f.opts.EvalTimeout, func(ctx context.Context) error {
		h, err := f.page.HTML(ctx)
		html = h
		return err
	})
	if err != nil {
		f.logger.Debug("facade: html capture failed", "error", err)
		return ""
	}
	return html
}

var unsafeLabel = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Screenshot captures the visible viewport as NN_label.png and returns the
// path. A failed capture returns "" and consumes no index.
func (f *Facade) Screenshot(label string) string {
	var data []byte
	err := f.call("screenshot", f.opts.EvalTimeout, func(ctx context.Context) error {
		b, err := f.page.Screenshot(ctx)
		data = b
		return err
	})
	if err != nil {
		f.logger.Warn("facade: screenshot failed", "label", label, "error", err)
		return ""
	}

	idx := f.gallery.NextIndex()
	name := fmt.Sprintf("%02d_%s.png", idx, unsafeLabel.ReplaceAllString(label, "_"))
	path := filepath.Join(f.opts.ScreenshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.logger.Warn("facade: write screenshot", "path", path, "error", err)
		return ""
	}
	f.gallery.add(Screenshot{Index: idx, Label: label, Path: path})
	return path
}
