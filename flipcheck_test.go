package flipcheck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/flipcheck/internal/config"
	"github.com/hazyhaar/flipcheck/internal/facade"
	"github.com/hazyhaar/flipcheck/internal/history"
)

var errGone = errors.New("no such element")

// stubPage loads (or not) and answers nothing else.
type stubPage struct {
	navErr error

	mu       sync.Mutex
	navs     []string
	released bool
}

func (p *stubPage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	p.navs = append(p.navs, url)
	p.mu.Unlock()
	return p.navErr
}
func (p *stubPage) Click(context.Context, string) error { return errGone }
func (p *stubPage) Visible(context.Context, string) (bool, error) { return false, errGone }
func (p *stubPage) Count(context.Context, string) (int, error) { return 0, nil }
func (p *stubPage) Fill(context.Context, string, string) error { return errGone }
func (p *stubPage) SetFiles(context.Context, string, []string) error { return errGone }
func (p *stubPage) Press(context.Context, string) error { return nil }
func (p *stubPage) Download(context.Context, string) (string, error) {
	return "", errGone
}
func (p *stubPage) Eval(_ context.Context, s facade.Script) ([]byte, error) {
	return nil, errors.New("eval " + s.Name + ": not available")
}
func (p *stubPage) Screenshot(context.Context) ([]byte, error) { return []byte("png"), nil }
func (p *stubPage) HTML(context.Context) (string, error) {
	return "<html><body><h1>Service unavailable</h1><p>Try later.</p></body></html>", nil
}
func (p *stubPage) Subscribe(_ context.Context, onConsole func(level, text string), onFault func(text string)) error {
	onConsole("error", "Failed to load resource")
	onFault("ReferenceError: formatFlip is not defined")
	return nil
}

func (p *stubPage) opener() Opener {
	return func(context.Context) (Page, func(), error) {
		return p, func() {
			p.mu.Lock()
			p.released = true
			p.mu.Unlock()
		}, nil
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	site := filepath.Join(dir, "site")
	if err := os.MkdirAll(site, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(site, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Target.LocalDir = site
	cfg.Output.ReportPath = filepath.Join(dir, "out", "test_report.md")
	cfg.Output.ScreenshotDir = filepath.Join(dir, "out", "screenshots")
	cfg.Output.FixtureDir = filepath.Join(dir, "out", "test_images")
	cfg.Timeouts.Click = 50 * time.Millisecond
	cfg.Timeouts.Visible = 50 * time.Millisecond
	cfg.Timeouts.Download = 50 * time.Millisecond
	return cfg
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// ticking returns a clock advancing one minute per call.
func ticking() func() time.Time {
	t := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestRun_UnreachableTargetStillReports(t *testing.T) {
	cfg := testConfig(t)
	page := &stubPage{navErr: errors.New("net::ERR_CONNECTION_REFUSED")}

	res, err := Run(context.Background(), cfg, Options{Open: page.opener(), Logger: quiet(), Now: ticking()})
	if err != nil {
		t.Fatal(err)
	}
	if res.Aborted == "" {
		t.Error("run not marked aborted")
	}
	if res.Counts.Total != 1 || res.Counts.Failed != 1 {
		t.Errorf("counts = %+v, want the single load failure", res.Counts)
	}
	if !page.released {
		t.Error("page not released")
	}
	if len(page.navs) != 1 || !strings.HasPrefix(page.navs[0], "http://127.0.0.1:") {
		t.Errorf("navigations = %v, want one loopback URL", page.navs)
	}

	md := readFile(t, res.ReportPath)
	for _, want := range []string{
		"## Summary",
		"ERR_CONNECTION_REFUSED",
		"## Page State at Abort",
		"Service unavailable",
		"Failed to load resource",
		"formatFlip is not defined",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(md, "Changes Since Previous Run") {
		t.Error("changes section without history")
	}

	if res.HTMLPath == "" {
		t.Fatal("html report not written")
	}
	if html := readFile(t, res.HTMLPath); !strings.Contains(html, "<h2") {
		t.Errorf("html report has no headings: %.200s", html)
	}
}

func TestRun_FileModeURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Target.FileMode = true
	cfg.Output.HTML = false
	page := &stubPage{navErr: errors.New("blocked")}

	res, err := Run(context.Background(), cfg, Options{Open: page.opener(), Logger: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.URL, "file://") || !strings.HasSuffix(res.URL, "/site/index.html") {
		t.Errorf("url = %q", res.URL)
	}
	if res.HTMLPath != "" {
		t.Errorf("html path = %q with html disabled", res.HTMLPath)
	}
	if !strings.Contains(readFile(t, res.ReportPath), "Local file://") {
		t.Error("mode missing from report header")
	}
}

func TestRun_HistoryShowsChanges(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.HistoryDB = filepath.Join(filepath.Dir(cfg.Output.ReportPath), "history.db")
	clock := ticking()

	down := &stubPage{navErr: errors.New("timeout")}
	first, err := Run(context.Background(), cfg, Options{Open: down.opener(), Logger: quiet(), Now: clock})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(readFile(t, first.ReportPath), "Changes Since Previous Run") {
		t.Error("changes section on the first archived run")
	}

	// Loads now, then aborts at upload.
	up := &stubPage{}
	res, err := Run(context.Background(), cfg, Options{Open: up.opener(), Logger: quiet(), Now: clock})
	if err != nil {
		t.Fatal(err)
	}
	if res.Aborted == "" {
		t.Error("upload failure did not abort")
	}

	md := readFile(t, res.ReportPath)
	if !strings.Contains(md, "## Changes Since Previous Run") {
		t.Fatal("changes section missing")
	}
	if !strings.Contains(md, "#1 Page loads: FAIL -> PASS") {
		t.Errorf("recovery of #1 not listed:\n%s", md)
	}

	store, err := history.Open(cfg.Output.HistoryDB, quiet())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("archived runs = %d, want 2", n)
	}
}

func TestRun_SetupErrorsWriteNoReport(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*config.Config, *Options)
	}{
		{"unknown phase", func(_ *config.Config, o *Options) { o.Phases = []string{"teleport"} }},
		{"missing artifact", func(c *config.Config, _ *Options) { c.Target.LocalIndex = "absent.html" }},
		{"browser launch", func(_ *config.Config, o *Options) {
			o.Open = func(context.Context) (Page, func(), error) { return nil, nil, errors.New("chrome not found") }
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			page := &stubPage{}
			opts := Options{Open: page.opener(), Logger: quiet()}
			tc.mod(cfg, &opts)

			if _, err := Run(context.Background(), cfg, opts); err == nil {
				t.Fatal("expected an error")
			}
			if _, err := os.Stat(cfg.Output.ReportPath); !os.IsNotExist(err) {
				t.Errorf("report exists after setup error (stat err %v)", err)
			}
		})
	}
}

func TestRun_InterruptedStillReports(t *testing.T) {
	cfg := testConfig(t)
	page := &stubPage{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	open := func(ctx context.Context) (Page, func(), error) {
		p, release, err := page.opener()(ctx)
		cancel() // signal arrives once the browser is up
		return p, release, err
	}

	res, err := Run(ctx, cfg, Options{Open: open, Logger: quiet()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Aborted, "interrupted") {
		t.Errorf("aborted = %q", res.Aborted)
	}
	if !page.released {
		t.Error("page not released")
	}
	if _, err := os.Stat(res.ReportPath); err != nil {
		t.Errorf("report not written: %v", err)
	}
}
