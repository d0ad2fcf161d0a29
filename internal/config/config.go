// CLAUDE:SUMMARY YAML run configuration: defaults, file merge, validation, CLI overrides.
// Package config holds the flipcheck run configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Target      TargetConfig      `yaml:"target"`
	Browser     BrowserConfig     `yaml:"browser"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Output      OutputConfig      `yaml:"output"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// TargetConfig locates the application under test.
type TargetConfig struct {
	LiveURL    string `yaml:"live_url"`
	LocalDir   string `yaml:"local_dir"`
	LocalIndex string `yaml:"local_index"`
	// FileMode opens the local artifact as file:// instead of serving it.
	FileMode bool `yaml:"file_mode"`
	// Live targets LiveURL. Set from the command line only.
	Live bool `yaml:"-"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote      string   `yaml:"remote"`
	Headful     bool     `yaml:"headful"`
	XvfbDisplay string   `yaml:"xvfb_display"`
	Stealth     bool     `yaml:"stealth"`
	Width       int      `yaml:"width"`
	Height      int      `yaml:"height"`
	BlockHosts  []string `yaml:"block_hosts"`
	BlockTypes  []string `yaml:"block_types"`
}

// TimeoutConfig bounds every wait.
type TimeoutConfig struct {
	Navigate time.Duration `yaml:"navigate"`
	Idle     time.Duration `yaml:"idle"`
	Click    time.Duration `yaml:"click"`
	Visible  time.Duration `yaml:"visible"`
	Download time.Duration `yaml:"download"`
}

// OutputConfig places the artifacts of a run.
type OutputConfig struct {
	ReportPath    string `yaml:"report_path"`
	HTML          bool   `yaml:"html"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	FixtureDir    string `yaml:"fixture_dir"`
	// HistoryDB enables the run archive when non-empty.
	HistoryDB string `yaml:"history_db"`
}

// DiagnosticsConfig caps console capture.
type DiagnosticsConfig struct {
	MaxEvents int `yaml:"max_events"`
}

// DefaultConfig returns the local-mode defaults.
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			LiveURL:    "https://formatflip.pages.dev",
			LocalDir:   ".",
			LocalIndex: "index.html",
		},
		Browser: BrowserConfig{
			XvfbDisplay: ":99",
			Width:       1280,
			Height:      900,
		},
		Timeouts: TimeoutConfig{
			Navigate: 30 * time.Second,
			Idle:     15 * time.Second,
			Click:    5 * time.Second,
			Visible:  3 * time.Second,
			Download: 5 * time.Second,
		},
		Output: OutputConfig{
			ReportPath:    filepath.Join("out", "test_report.md"),
			HTML:          true,
			ScreenshotDir: filepath.Join("out", "screenshots"),
			FixtureDir:    filepath.Join("out", "test_images"),
		},
		Diagnostics: DiagnosticsConfig{MaxEvents: 500},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. The result is not
// validated: callers apply their overrides first, then call Validate.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Target.Live {
		u, err := url.Parse(c.Target.LiveURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("target.live_url %q is not an absolute URL", c.Target.LiveURL)
		}
	} else if c.Target.LocalIndex == "" {
		return fmt.Errorf("target.local_index is required")
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return fmt.Errorf("browser viewport must be > 0, got %dx%d", c.Browser.Width, c.Browser.Height)
	}
	if c.Browser.Headful && c.Browser.XvfbDisplay == "" {
		return fmt.Errorf("browser.xvfb_display is required in headful mode")
	}
	for name, d := range map[string]time.Duration{
		"navigate": c.Timeouts.Navigate,
		"idle":     c.Timeouts.Idle,
		"click":    c.Timeouts.Click,
		"visible":  c.Timeouts.Visible,
		"download": c.Timeouts.Download,
	} {
		if d <= 0 {
			return fmt.Errorf("timeouts.%s must be > 0", name)
		}
	}
	if c.Output.ReportPath == "" {
		return fmt.Errorf("output.report_path is required")
	}
	if c.Output.ScreenshotDir == "" {
		return fmt.Errorf("output.screenshot_dir is required")
	}
	if c.Output.FixtureDir == "" {
		return fmt.Errorf("output.fixture_dir is required")
	}
	if c.Diagnostics.MaxEvents <= 0 {
		return fmt.Errorf("diagnostics.max_events must be > 0")
	}
	return nil
}

// LocalIndexPath is the absolute path of the local entry document.
func (c *Config) LocalIndexPath() (string, error) {
	p, err := filepath.Abs(filepath.Join(c.Target.LocalDir, c.Target.LocalIndex))
	if err != nil {
		return "", fmt.Errorf("config: local index: %w", err)
	}
	return p, nil
}

// Mode describes the target for the report header.
func (c *Config) Mode() string {
	switch {
	case c.Target.Live:
		return "Live site"
	case c.Target.FileMode:
		return "Local file://"
	}
	return "Local (loopback)"
}
