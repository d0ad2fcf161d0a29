// CLAUDE:SUMMARY CLI entry point for flipcheck: one verification run against the local artifact or the live site.
// Command flipcheck drives the FormatFlip converter in Chrome and writes a
// verification report.
//
// Usage:
//
//	flipcheck                          # local artifact served on loopback
//	flipcheck -file                    # local artifact opened as file://
//	flipcheck -live                    # deployed site
//	flipcheck -config flipcheck.yaml -phases crop,rotate
//
// The exit status is 0 whatever the verdicts; it is non-zero only when the
// run could not be set up.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hazyhaar/flipcheck"
	"github.com/hazyhaar/flipcheck/internal/config"
)

func main() {
	live := flag.Bool("live", false, "test the deployed site instead of the local artifact")
	fileMode := flag.Bool("file", false, "open the local artifact as file:// instead of serving it")
	configPath := flag.String("config", "", "path to flipcheck.yaml config file")
	phases := flag.String("phases", "", "comma-separated phases to run (gating phases always run)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *live, *fileMode, splitList(*phases)); err != nil {
		logger.Error("flipcheck: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, live, fileMode bool, phases []string) error {
	cfg, err := loadConfig(configPath, live, fileMode)
	if err != nil {
		return err
	}

	res, err := flipcheck.Run(ctx, cfg, flipcheck.Options{Phases: phases, Logger: logger})
	if err != nil {
		return err
	}
	printSummary(os.Stdout, res)
	return nil
}

// loadConfig applies the mode flags over the file (or the defaults) and
// validates once.
func loadConfig(path string, live, fileMode bool) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if live {
		cfg.Target.Live = true
	}
	if fileMode {
		cfg.Target.FileMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func printSummary(w io.Writer, res *flipcheck.Result) {
	c := res.Counts
	fmt.Fprintf(w, "Target:  %s\n", res.URL)
	fmt.Fprintf(w, "Results: %d/%d passed (%.1f%%), %d failed, %d skipped\n",
		c.Passed, c.Total, c.PassRate(), c.Failed, c.Skipped)
	if res.Aborted != "" {
		fmt.Fprintf(w, "Aborted: %s\n", res.Aborted)
	}
	for _, v := range res.Report.Failed {
		fmt.Fprintf(w, "  FAIL #%s %s: %s\n", v.ID, v.Name, v.Detail)
	}
	fmt.Fprintf(w, "Report:  %s\n", res.ReportPath)
	if res.HTMLPath != "" {
		fmt.Fprintf(w, "HTML:    %s\n", res.HTMLPath)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
