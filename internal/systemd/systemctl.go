// Package systemd manages the reachy-mini-daemon systemd service.
//
// This package wraps systemctl and journalctl for the daemon unit, and
// knows how to parse, compare and resync the installed unit file against
// the one shipped with the currently installed SDK.
package systemd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// UnitName is the daemon's systemd unit.
const UnitName = "reachy-mini-daemon.service"

// commandTimeout bounds individual systemctl invocations.
const commandTimeout = 30 * time.Second

// execCommand builds commands, swappable in tests.
var execCommand = exec.CommandContext

// Controller runs systemctl operations for the daemon unit.
type Controller struct {
	// useSudo prefixes mutating commands with sudo.
	useSudo bool
}

// NewController creates a controller for the daemon unit.
//
// Parameters:
//   - useSudo: Prefix mutating systemctl calls with sudo
//
// Returns:
//   - *Controller: A new controller instance
func NewController(useSudo bool) *Controller {
	return &Controller{useSudo: useSudo}
}

// run executes a command and returns its combined output.
func (c *Controller) run(ctx context.Context, sudo bool, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if sudo && c.useSudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}

	cmd := execCommand(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}

// IsActive reports whether the daemon unit is active.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - bool: True when systemctl reports "active"
//   - string: The raw state string (active, inactive, failed, ...)
func (c *Controller) IsActive(ctx context.Context) (bool, string) {
	out, _ := c.run(ctx, false, "systemctl", "is-active", UnitName)
	return out == "active", out
}

// IsEnabled reports whether the daemon unit starts at boot.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - bool: True when systemctl reports "enabled"
//   - string: The raw state string (enabled, disabled, ...)
func (c *Controller) IsEnabled(ctx context.Context) (bool, string) {
	out, _ := c.run(ctx, false, "systemctl", "is-enabled", UnitName)
	return out == "enabled", out
}

// Start starts the daemon unit.
func (c *Controller) Start(ctx context.Context) error {
	out, err := c.run(ctx, true, "systemctl", "start", UnitName)
	if err != nil {
		return fmt.Errorf("systemctl start failed: %s", firstLine(out, err))
	}
	return nil
}

// Stop stops the daemon unit. systemd waits up to the unit's
// TimeoutStopSec before escalating to SIGKILL, so the context should
// allow at least that long.
func (c *Controller) Stop(ctx context.Context) error {
	out, err := c.run(ctx, true, "systemctl", "stop", UnitName)
	if err != nil {
		return fmt.Errorf("systemctl stop failed: %s", firstLine(out, err))
	}
	return nil
}

// Restart restarts the daemon unit.
func (c *Controller) Restart(ctx context.Context) error {
	out, err := c.run(ctx, true, "systemctl", "restart", UnitName)
	if err != nil {
		return fmt.Errorf("systemctl restart failed: %s", firstLine(out, err))
	}
	return nil
}

// Enable enables the daemon unit at boot.
func (c *Controller) Enable(ctx context.Context) error {
	out, err := c.run(ctx, true, "systemctl", "enable", UnitName)
	if err != nil {
		return fmt.Errorf("systemctl enable failed: %s", firstLine(out, err))
	}
	return nil
}

// DaemonReload reloads systemd unit definitions. Required after the unit
// file changes on disk.
func (c *Controller) DaemonReload(ctx context.Context) error {
	out, err := c.run(ctx, true, "systemctl", "daemon-reload")
	if err != nil {
		return fmt.Errorf("systemctl daemon-reload failed: %s", firstLine(out, err))
	}
	return nil
}

// JournalTail returns the last n journal lines for the daemon unit.
//
// Parameters:
//   - ctx: Context for cancellation
//   - n: Number of lines to fetch
//
// Returns:
//   - []string: The journal lines, oldest first
//   - error: An error if journalctl fails
func (c *Controller) JournalTail(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		n = 50
	}

	out, err := c.run(ctx, false, "journalctl",
		"-u", UnitName, "-n", fmt.Sprintf("%d", n), "--no-pager", "-o", "short-iso")
	if err != nil {
		return nil, fmt.Errorf("journalctl failed: %s", firstLine(out, err))
	}

	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// FollowJournalArgs returns the argv for a user-visible follow of the
// daemon journal. The CLI prints this instead of running it so the user
// keeps control of the terminal.
func FollowJournalArgs() string {
	return "journalctl -u " + UnitName + " -f"
}

// firstLine prefers command output over the bare exec error.
func firstLine(out string, err error) string {
	if out != "" {
		if i := strings.IndexByte(out, '\n'); i >= 0 {
			return out[:i]
		}
		return out
	}
	return err.Error()
}

// HasSystemctl reports whether systemctl is on PATH. False on macOS or
// inside minimal containers, where service checks are skipped.
func HasSystemctl() bool {
	_, err := exec.LookPath("systemctl")
	return err == nil
}
