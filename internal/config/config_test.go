package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "flipcheck.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaultConfig_Valid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if c.Browser.Width != 1280 || c.Browser.Height != 900 {
		t.Errorf("viewport: %dx%d", c.Browser.Width, c.Browser.Height)
	}
	if c.Mode() != "Local (loopback)" {
		t.Errorf("mode: %q", c.Mode())
	}
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	p := writeFile(t, `
target:
  local_dir: /srv/formatflip
  file_mode: true
browser:
  block_hosts: [googleapis.com]
timeouts:
  navigate: 45s
output:
  history_db: out/history.db
`)
	c, err := LoadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	if c.Timeouts.Navigate != 45*time.Second {
		t.Errorf("navigate: %v", c.Timeouts.Navigate)
	}
	if c.Timeouts.Click != 5*time.Second {
		t.Errorf("click default lost: %v", c.Timeouts.Click)
	}
	if c.Target.LocalIndex != "index.html" {
		t.Errorf("local_index default lost: %q", c.Target.LocalIndex)
	}
	if len(c.Browser.BlockHosts) != 1 || c.Output.HistoryDB != "out/history.db" {
		t.Errorf("file values not applied: %+v %+v", c.Browser, c.Output)
	}
	if c.Mode() != "Local file://" {
		t.Errorf("mode: %q", c.Mode())
	}
	idx, err := c.LocalIndexPath()
	if err != nil || idx != filepath.Join("/srv/formatflip", "index.html") {
		t.Errorf("index path: %q %v", idx, err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
	if _, err := LoadConfig(writeFile(t, "target: [")); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("bad yaml: %v", err)
	}
	c, err := LoadConfig(writeFile(t, "timeouts:\n  click: 0s\n"))
	if err != nil {
		t.Fatalf("zero timeout rejected before validation: %v", err)
	}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "click") {
		t.Errorf("zero timeout: %v", err)
	}
}

func TestLoadConfig_ValidatesAfterOverrides(t *testing.T) {
	// A live-only file has no local artifact.
	c, err := LoadConfig(writeFile(t, "target:\n  local_index: \"\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Validate(); err == nil {
		t.Error("empty local_index accepted for a local run")
	}
	c.Target.Live = true
	if err := c.Validate(); err != nil {
		t.Errorf("live override: %v", err)
	}
}

func TestValidate_Live(t *testing.T) {
	c := DefaultConfig()
	c.Target.Live = true
	if err := c.Validate(); err != nil {
		t.Fatalf("live default: %v", err)
	}
	c.Target.LiveURL = "formatflip"
	if err := c.Validate(); err == nil {
		t.Error("relative live url accepted")
	}
}
