package systemd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// InstalledUnitPath is where the daemon unit lives on the robot.
const InstalledUnitPath = "/etc/systemd/system/reachy-mini-daemon.service"

// DefaultTimeoutStopSec is systemd's default stop timeout, used when the
// unit file does not set one.
const DefaultTimeoutStopSec = 90

// Unit holds the fields of the daemon unit file the CLI cares about.
type Unit struct {
	// ExecStart is the daemon launch command line.
	ExecStart string

	// WorkingDirectory is the daemon's working directory.
	WorkingDirectory string

	// TimeoutStopSec is how long systemd waits on stop before SIGKILL.
	TimeoutStopSec int

	// User is the account the daemon runs as.
	User string

	// Restart is the unit's restart policy.
	Restart string
}

// ParseUnit extracts the interesting fields from unit file content.
// Unknown keys and section headers are ignored. The last occurrence of a
// key wins, matching systemd behavior for non-list settings.
//
// Parameters:
//   - content: The unit file content
//
// Returns:
//   - *Unit: The parsed fields, with TimeoutStopSec defaulted when absent
func ParseUnit(content string) *Unit {
	unit := &Unit{TimeoutStopSec: DefaultTimeoutStopSec}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "[") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "ExecStart":
			unit.ExecStart = value
		case "WorkingDirectory":
			unit.WorkingDirectory = value
		case "TimeoutStopSec":
			if secs, err := parseTimeout(value); err == nil {
				unit.TimeoutStopSec = secs
			}
		case "User":
			unit.User = value
		case "Restart":
			unit.Restart = value
		}
	}

	return unit
}

// parseTimeout parses a TimeoutStopSec value. Accepts bare seconds and the
// common "90s" suffix form; "infinity" maps to 0 (no timeout).
func parseTimeout(value string) (int, error) {
	if value == "infinity" {
		return 0, nil
	}
	value = strings.TrimSuffix(value, "s")
	return strconv.Atoi(value)
}

// LoadInstalledUnit reads and parses the installed unit file.
//
// Returns:
//   - *Unit: The parsed unit, or nil if the file does not exist
//   - string: The raw content
//   - error: An error on read failures other than absence
func LoadInstalledUnit() (*Unit, string, error) {
	return loadUnit(InstalledUnitPath)
}

func loadUnit(path string) (*Unit, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseUnit(string(data)), string(data), nil
}

// StalePaths returns the unit paths that no longer exist on disk. A stale
// ExecStart or WorkingDirectory is the usual aftermath of reinstalling the
// SDK into a different venv.
//
// Parameters:
//   - unit: The parsed unit
//
// Returns:
//   - []string: The missing paths, empty when everything checks out
func StalePaths(unit *Unit) []string {
	var stale []string

	if exe := execStartBinary(unit.ExecStart); exe != "" {
		if _, err := os.Stat(exe); err != nil {
			stale = append(stale, exe)
		}
	}
	if unit.WorkingDirectory != "" {
		if _, err := os.Stat(unit.WorkingDirectory); err != nil {
			stale = append(stale, unit.WorkingDirectory)
		}
	}

	return stale
}

// execStartBinary extracts the executable path from an ExecStart line,
// stripping systemd's special prefix characters.
func execStartBinary(execStart string) string {
	fields := strings.Fields(execStart)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[0], "@-:+!")
}

// RenderUnit produces the unit file content for a daemon installed in the
// given venv. This is the content the installed unit is compared against.
//
// Parameters:
//   - venvPath: The virtualenv the daemon runs from
//   - user: The account the daemon runs as
//
// Returns:
//   - string: The unit file content
func RenderUnit(venvPath, user string) string {
	return fmt.Sprintf(`[Unit]
Description=Reachy Mini daemon
After=network.target

[Service]
Type=simple
User=%s
ExecStart=%s/bin/reachy-mini-daemon
WorkingDirectory=%s
Restart=on-failure
TimeoutStopSec=90

[Install]
WantedBy=multi-user.target
`, user, venvPath, venvPath)
}

// UnitsMatch reports whether the installed unit matches the expected
// content, comparing only the fields the CLI manages. Whitespace and
// comment changes made by hand do not count as drift.
//
// Parameters:
//   - installed: The installed unit file content
//   - expected: The expected unit file content
//
// Returns:
//   - bool: True when the managed fields agree
//   - []string: The names of the fields that differ
func UnitsMatch(installed, expected string) (bool, []string) {
	a := ParseUnit(installed)
	b := ParseUnit(expected)

	var diffs []string
	if a.ExecStart != b.ExecStart {
		diffs = append(diffs, "ExecStart")
	}
	if a.WorkingDirectory != b.WorkingDirectory {
		diffs = append(diffs, "WorkingDirectory")
	}
	if a.TimeoutStopSec != b.TimeoutStopSec {
		diffs = append(diffs, "TimeoutStopSec")
	}
	if a.User != b.User {
		diffs = append(diffs, "User")
	}
	if a.Restart != b.Restart {
		diffs = append(diffs, "Restart")
	}

	return len(diffs) == 0, diffs
}

// SyncUnitFile writes the expected unit content to the installed path and
// reloads systemd. Writing under /etc needs root, so the copy goes through
// sudo tee when the controller runs with sudo.
//
// Parameters:
//   - ctx: Context for cancellation
//   - c: The controller used for the privileged write and reload
//   - expected: The unit file content to install
//
// Returns:
//   - error: An error if the write or reload fails
func SyncUnitFile(ctx context.Context, c *Controller, expected string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var cmd *exec.Cmd
	if c.useSudo {
		cmd = execCommand(ctx, "sudo", "tee", InstalledUnitPath)
	} else {
		cmd = execCommand(ctx, "tee", InstalledUnitPath)
	}
	cmd.Stdin = strings.NewReader(expected)
	cmd.Stdout = nil

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write %s: %s", InstalledUnitPath, firstLine(stderr.String(), err))
	}

	return c.DaemonReload(ctx)
}
