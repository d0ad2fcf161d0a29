package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/flipcheck/internal/facade"
)

// Session is the single page of a run. It satisfies facade.Page and
// diag.Source. Every call takes its deadline from ctx.
type Session struct {
	page        *rod.Page
	browser     *rod.Browser
	downloadDir string
	idle        time.Duration
	logger      *slog.Logger
}

var _ facade.Page = (*Session)(nil)

// Navigate loads url and waits for the load event, then briefly for idle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load %s: %w", url, err)
	}
	if err := p.WaitIdle(s.idle); err != nil {
		s.logger.Debug("browser: wait idle", "url", url, "error", err)
	}
	return nil
}

// element waits for the first match until ctx ends.
func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("browser: element %s: %w", selector, err)
	}
	return el, nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *Session) Visible(ctx context.Context, selector string) (bool, error) {
	el, err := s.element(ctx, selector)
	if err != nil {
		return false, err
	}
	return el.Visible()
}

// Count does not wait: absent elements count as zero.
func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// Eval runs the script and returns its result as JSON.
func (s *Session) Eval(ctx context.Context, sc facade.Script) ([]byte, error) {
	res, err := s.page.Context(ctx).Eval(sc.JS, sc.Args...)
	if err != nil {
		return nil, fmt.Errorf("browser: eval %s: %w", sc.Name, err)
	}
	return []byte(res.Value.JSON("", "")), nil
}

const fillJS = `function (v) {
	this.value = v;
	this.dispatchEvent(new Event("input", {bubbles: true}));
	this.dispatchEvent(new Event("change", {bubbles: true}));
}`

// Fill sets the value directly so range inputs work as well as text ones.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	_, err = el.Eval(fillJS, value)
	return err
}

func (s *Session) SetFiles(ctx context.Context, selector string, paths []string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.SetFiles(paths)
}

func (s *Session) Press(ctx context.Context, chord string) error {
	mods, key, err := parseChord(chord)
	if err != nil {
		return err
	}
	ka := s.page.Context(ctx).KeyActions()
	for _, m := range mods {
		ka = ka.Press(m)
	}
	return ka.Type(key).Do()
}

// Download clicks selector and returns the suggested name of the download
// it starts.
func (s *Session) Download(ctx context.Context, selector string) (string, error) {
	wait := s.browser.Context(ctx).WaitDownload(s.downloadDir)
	if err := s.Click(ctx, selector); err != nil {
		return "", err
	}

	done := make(chan *proto.PageDownloadWillBegin, 1)
	go func() { done <- wait() }()
	select {
	case info := <-done:
		if info == nil {
			return "", fmt.Errorf("browser: download not started")
		}
		return info.SuggestedFilename, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, nil)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// Subscribe forwards console messages and uncaught exceptions until ctx ends.
func (s *Session) Subscribe(ctx context.Context, onConsole func(level, text string), onFault func(text string)) error {
	wait := s.page.Context(ctx).EachEvent(
		func(e *proto.RuntimeConsoleAPICalled) {
			onConsole(string(e.Type), consoleText(e.Args))
		},
		func(e *proto.RuntimeExceptionThrown) {
			onFault(exceptionText(e.ExceptionDetails))
		},
	)
	go wait()
	return nil
}

// Close closes the page.
func (s *Session) Close() error {
	if s.page == nil {
		return nil
	}
	return s.page.Close()
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == nil {
			continue
		}
		if !a.Value.Nil() {
			parts = append(parts, a.Value.Str())
			continue
		}
		parts = append(parts, a.Description)
	}
	return strings.Join(parts, " ")
}

func exceptionText(d *proto.RuntimeExceptionDetails) string {
	if d == nil {
		return ""
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}
