// CLAUDE:SUMMARY Starts and stops the Xvfb virtual display used by headful runs.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// xvfbReadyTimeout bounds the wait for the display socket.
const xvfbReadyTimeout = 5 * time.Second

// xvfbSocket is the unix socket Xvfb creates for display ":N".
func xvfbSocket(display string) (string, error) {
	n := strings.TrimPrefix(display, ":")
	if i := strings.IndexByte(n, '.'); i >= 0 {
		n = n[:i]
	}
	if n == "" || strings.Trim(n, "0123456789") != "" {
		return "", fmt.Errorf("invalid display %q", display)
	}
	return filepath.Join("/tmp/.X11-unix", "X"+n), nil
}

// startXvfb launches a display sized to the viewport and waits until it
// accepts connections.
func (m *Manager) startXvfb(ctx context.Context) error {
	if m.xvfb != nil {
		return nil
	}
	display := m.cfg.XvfbDisplay
	sock, err := xvfbSocket(display)
	if err != nil {
		return err
	}

	screen := fmt.Sprintf("%dx%dx24", m.cfg.Width, m.cfg.Height)
	cmd := exec.Command("Xvfb", display, "-screen", "0", screen, "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	m.xvfb = cmd

	ctx, cancel := context.WithTimeout(ctx, xvfbReadyTimeout)
	defer cancel()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if _, err := os.Stat(sock); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			m.stopXvfb()
			return fmt.Errorf("xvfb %s not ready: %w", display, ctx.Err())
		case <-tick.C:
		}
	}

	m.cfg.Logger.Info("browser: xvfb started", "display", display, "screen", screen, "pid", cmd.Process.Pid)
	return nil
}

func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	if p := m.xvfb.Process; p != nil {
		_ = p.Kill()
		_ = m.xvfb.Wait()
	}
	m.cfg.Logger.Info("browser: xvfb stopped", "display", m.cfg.XvfbDisplay)
	m.xvfb = nil
}
