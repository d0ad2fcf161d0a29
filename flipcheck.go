// CLAUDE:SUMMARY One verification run end to end: fixtures, target, browser, phases, report, history, guaranteed release.
// Package flipcheck runs the end-to-end verification of the FormatFlip
// converter and writes one report per run.
//
// Setup failures (output directories, fixtures, target, browser launch)
// are returned as errors and no report is written. Once the page is open,
// every outcome ends with a report: a full run, a gating abort, a fatal
// fault or an interrupt. The report is written before the browser is
// released.
package flipcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/flipcheck/internal/browser"
	"github.com/hazyhaar/flipcheck/internal/config"
	"github.com/hazyhaar/flipcheck/internal/diag"
	"github.com/hazyhaar/flipcheck/internal/facade"
	"github.com/hazyhaar/flipcheck/internal/fixture"
	"github.com/hazyhaar/flipcheck/internal/history"
	"github.com/hazyhaar/flipcheck/internal/report"
	"github.com/hazyhaar/flipcheck/internal/scenario"
	"github.com/hazyhaar/flipcheck/internal/serve"
	"github.com/hazyhaar/flipcheck/internal/verdict"
)

// Page is what a run drives: the interaction capabilities plus the
// passive event streams.
type Page interface {
	facade.Page
	diag.Source
}

// Opener acquires the page of one run. release is called exactly once.
type Opener func(ctx context.Context) (page Page, release func(), err error)

// Options tunes a run.
type Options struct {
	// Phases restricts execution to the named phases. Empty = all.
	Phases []string
	// Open overrides the browser. Default: a rod session built from config.
	Open   Opener
	Logger *slog.Logger
	// Now is the clock of the report header. Default: time.Now.
	Now func() time.Time
}

// Result summarises a finished run.
type Result struct {
	RunID      string
	URL        string
	ReportPath string
	HTMLPath   string
	Counts     verdict.Counts
	Aborted    string
	Report     *report.Report
}

// Run performs one verification run.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if err := checkPhases(opts.Phases); err != nil {
		return nil, err
	}

	runID := uuid.Must(uuid.NewV7()).String()
	started := now()
	log = log.With("run_id", runID)

	for _, dir := range []string{cfg.Output.ScreenshotDir, filepath.Dir(cfg.Output.ReportPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("flipcheck: output dir: %w", err)
		}
	}

	fixtures, err := (&fixture.Generator{Dir: cfg.Output.FixtureDir}).Fixtures(ctx)
	if err != nil {
		return nil, fmt.Errorf("flipcheck: fixtures: %w", err)
	}

	target, closeTarget, err := resolveTarget(cfg, log)
	if err != nil {
		return nil, err
	}
	defer closeTarget()

	var previous map[string]verdict.Status
	var store *history.Store
	if cfg.Output.HistoryDB != "" {
		store, err = history.Open(cfg.Output.HistoryDB, log)
		if err != nil {
			log.Warn("flipcheck: history disabled", "error", err)
		} else {
			defer store.Close()
			prev, prevID, err := store.Previous(ctx)
			switch {
			case err != nil:
				log.Warn("flipcheck: previous run unavailable", "error", err)
			case prevID != "":
				previous = prev
				log.Debug("flipcheck: comparing with previous run", "previous_run", prevID)
			}
		}
	}

	open := opts.Open
	if open == nil {
		open = browserOpener(cfg, log)
	}
	page, release, err := open(ctx)
	if err != nil {
		return nil, fmt.Errorf("flipcheck: browser: %w", err)
	}
	defer release()

	collector := diag.NewCollector(cfg.Diagnostics.MaxEvents, log)
	collector.Attach(ctx, page)

	f := facade.New(ctx, page, facade.Options{
		ScreenshotDir:   cfg.Output.ScreenshotDir,
		ClickTimeout:    cfg.Timeouts.Click,
		VisibleTimeout:  cfg.Timeouts.Visible,
		NavigateTimeout: cfg.Timeouts.Navigate + cfg.Timeouts.Idle,
		DownloadTimeout: cfg.Timeouts.Download,
		Logger:          log,
	})
	rec := verdict.NewRecorder(log)
	env := &scenario.Env{
		F:        f,
		R:        rec,
		Fixtures: fixtures,
		Target:   scenario.Target{URL: target, Live: cfg.Target.Live},
		Logger:   log,
	}

	out := scenario.NewDriver(scenario.Default(),
		scenario.WithOnly(opts.Phases...),
		scenario.WithLogger(log),
	).Run(ctx, env)

	meta := report.Meta{
		RunID:         runID,
		URL:           target,
		Mode:          cfg.Mode(),
		GeneratedAt:   now(),
		ScreenshotDir: cfg.Output.ScreenshotDir,
		Aborted:       out.Aborted,
		PageText:      report.PageExcerpt(out.PageHTML, target),
		PageState:     report.ParsePageState(out.PageHTML),
	}
	rep := report.Synthesize(report.Input{
		Meta:        meta,
		Verdicts:    rec.Verdicts(),
		Diagnostics: collector.Snapshot(),
		Screenshots: f.Gallery().Shots(),
		Previous:    previous,
	})

	res := &Result{
		RunID:      runID,
		URL:        target,
		ReportPath: cfg.Output.ReportPath,
		Counts:     rep.Counts,
		Aborted:    out.Aborted,
		Report:     rep,
	}
	if err := report.WriteFile(cfg.Output.ReportPath, rep.Markdown()); err != nil {
		return res, err
	}
	log.Info("flipcheck: report written", "path", cfg.Output.ReportPath,
		"total", rep.Counts.Total, "passed", rep.Counts.Passed, "failed", rep.Counts.Failed)

	if cfg.Output.HTML {
		res.HTMLPath = htmlPath(cfg.Output.ReportPath)
		if err := writeHTML(rep, res.HTMLPath); err != nil {
			log.Warn("flipcheck: html report", "error", err)
			res.HTMLPath = ""
		}
	}

	if store != nil {
		// An interrupted run is still archived.
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := store.Save(sctx, history.Run{
			ID:        runID,
			StartedAt: started,
			URL:       target,
			Mode:      cfg.Mode(),
			Aborted:   out.Aborted,
			Counts:    rep.Counts,
			Verdicts:  rep.Verdicts,
		}); err != nil {
			log.Warn("flipcheck: history save", "error", err)
		} else if n, err := store.Count(sctx); err == nil {
			log.Info("flipcheck: run archived", "db", cfg.Output.HistoryDB, "runs", n)
		}
	}
	return res, nil
}

func checkPhases(names []string) error {
	all := scenario.NewDriver(scenario.Default()).Names()
	known := make(map[string]bool, len(all))
	for _, n := range all {
		known[n] = true
	}
	for _, n := range names {
		if !known[n] {
			return fmt.Errorf("flipcheck: unknown phase %q (known: %s)", n, strings.Join(all, ", "))
		}
	}
	return nil
}

// resolveTarget returns the URL under test and a release function.
func resolveTarget(cfg *config.Config, log *slog.Logger) (string, func(), error) {
	noop := func() {}
	if cfg.Target.Live {
		return cfg.Target.LiveURL, noop, nil
	}

	index, err := cfg.LocalIndexPath()
	if err != nil {
		return "", noop, err
	}
	if _, err := os.Stat(index); err != nil {
		return "", noop, fmt.Errorf("flipcheck: local artifact: %w", err)
	}
	if cfg.Target.FileMode {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(index)}).String(), noop, nil
	}

	srv, err := serve.Start(filepath.Dir(index), log)
	if err != nil {
		return "", noop, fmt.Errorf("flipcheck: %w", err)
	}
	closeSrv := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(ctx); err != nil {
			log.Warn("flipcheck: close server", "error", err)
		}
	}
	return srv.URL + "/" + url.PathEscape(filepath.Base(index)), closeSrv, nil
}

// browserOpener launches Chrome per config and opens the session page.
func browserOpener(cfg *config.Config, log *slog.Logger) Opener {
	return func(ctx context.Context) (Page, func(), error) {
		m := browser.NewManager(browser.Config{
			RemoteURL:   cfg.Browser.Remote,
			Headful:     cfg.Browser.Headful,
			XvfbDisplay: cfg.Browser.XvfbDisplay,
			Stealth:     cfg.Browser.Stealth,
			Width:       cfg.Browser.Width,
			Height:      cfg.Browser.Height,
			BlockHosts:  cfg.Browser.BlockHosts,
			BlockTypes:  cfg.Browser.BlockTypes,
			DownloadDir: filepath.Join(filepath.Dir(cfg.Output.ReportPath), "downloads"),
			IdleTimeout: cfg.Timeouts.Idle,
			Logger:      log,
		})
		if err := m.Start(ctx); err != nil {
			return nil, nil, err
		}
		s, err := m.Open(ctx)
		if err != nil {
			m.Close()
			return nil, nil, err
		}
		release := func() {
			if err := s.Close(); err != nil {
				log.Debug("flipcheck: close page", "error", err)
			}
			if err := m.Close(); err != nil {
				log.Warn("flipcheck: close browser", "error", err)
			}
		}
		return s, release, nil
	}
}

func htmlPath(reportPath string) string {
	return strings.TrimSuffix(reportPath, filepath.Ext(reportPath)) + ".html"
}

func writeHTML(rep *report.Report, path string) error {
	b, err := rep.HTML()
	if err != nil {
		return err
	}
	return report.WriteFile(path, b)
}
