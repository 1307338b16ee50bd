package systemd

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleUnit = `[Unit]
Description=Reachy Mini daemon
After=network.target

[Service]
Type=simple
User=pollen
ExecStart=/home/pollen/venv/bin/reachy-mini-daemon
WorkingDirectory=/home/pollen/venv
Restart=on-failure
TimeoutStopSec=90

[Install]
WantedBy=multi-user.target
`

func TestParseUnit(t *testing.T) {
	unit := ParseUnit(sampleUnit)

	if unit.ExecStart != "/home/pollen/venv/bin/reachy-mini-daemon" {
		t.Errorf("ExecStart = %q", unit.ExecStart)
	}
	if unit.WorkingDirectory != "/home/pollen/venv" {
		t.Errorf("WorkingDirectory = %q", unit.WorkingDirectory)
	}
	if unit.TimeoutStopSec != 90 {
		t.Errorf("TimeoutStopSec = %d, want 90", unit.TimeoutStopSec)
	}
	if unit.User != "pollen" {
		t.Errorf("User = %q, want %q", unit.User, "pollen")
	}
	if unit.Restart != "on-failure" {
		t.Errorf("Restart = %q, want %q", unit.Restart, "on-failure")
	}
}

func TestParseUnitDefaults(t *testing.T) {
	unit := ParseUnit("[Service]\nExecStart=/usr/bin/foo\n")

	if unit.TimeoutStopSec != DefaultTimeoutStopSec {
		t.Errorf("TimeoutStopSec = %d, want default %d", unit.TimeoutStopSec, DefaultTimeoutStopSec)
	}
}

func TestParseUnitTimeoutVariants(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"bare seconds", "TimeoutStopSec=30", 30},
		{"with suffix", "TimeoutStopSec=45s", 45},
		{"infinity", "TimeoutStopSec=infinity", 0},
		{"garbage keeps default", "TimeoutStopSec=soon", DefaultTimeoutStopSec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := ParseUnit("[Service]\n" + tt.value + "\n")
			if unit.TimeoutStopSec != tt.want {
				t.Errorf("TimeoutStopSec = %d, want %d", unit.TimeoutStopSec, tt.want)
			}
		})
	}
}

func TestExecStartBinaryPrefixes(t *testing.T) {
	tests := []struct {
		execStart string
		want      string
	}{
		{"/usr/bin/daemon --port 8000", "/usr/bin/daemon"},
		{"-/usr/bin/daemon", "/usr/bin/daemon"},
		{"@/usr/bin/daemon argv0", "/usr/bin/daemon"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := execStartBinary(tt.execStart); got != tt.want {
			t.Errorf("execStartBinary(%q) = %q, want %q", tt.execStart, got, tt.want)
		}
	}
}

func TestStalePaths(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(binDir, "reachy-mini-daemon")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	fresh := &Unit{ExecStart: exe, WorkingDirectory: dir}
	if stale := StalePaths(fresh); len(stale) != 0 {
		t.Errorf("StalePaths() = %v for existing paths, want none", stale)
	}

	gone := &Unit{
		ExecStart:        filepath.Join(dir, "old-venv", "bin", "reachy-mini-daemon"),
		WorkingDirectory: filepath.Join(dir, "old-venv"),
	}
	if stale := StalePaths(gone); len(stale) != 2 {
		t.Errorf("StalePaths() = %v, want both paths reported stale", stale)
	}
}

func TestUnitsMatch(t *testing.T) {
	expected := RenderUnit("/home/pollen/venv", "pollen")

	if ok, diffs := UnitsMatch(sampleUnit, expected); !ok {
		t.Errorf("UnitsMatch() = false, diffs = %v, want match", diffs)
	}

	// Comment and whitespace noise must not count as drift.
	noisy := "# hand edited\n" + sampleUnit + "\n\n; trailing note\n"
	if ok, _ := UnitsMatch(noisy, expected); !ok {
		t.Error("UnitsMatch() = false for comment-only changes, want match")
	}

	stale := RenderUnit("/home/pollen/old-venv", "pollen")
	ok, diffs := UnitsMatch(stale, expected)
	if ok {
		t.Error("UnitsMatch() = true for different venv, want mismatch")
	}
	wantDiffs := map[string]bool{"ExecStart": true, "WorkingDirectory": true}
	for _, d := range diffs {
		if !wantDiffs[d] {
			t.Errorf("unexpected diff field %q", d)
		}
		delete(wantDiffs, d)
	}
	if len(wantDiffs) != 0 {
		t.Errorf("missing diff fields: %v", wantDiffs)
	}
}

func TestRenderUnitRoundTrip(t *testing.T) {
	content := RenderUnit("/opt/reachy", "reachy")
	unit := ParseUnit(content)

	if unit.ExecStart != "/opt/reachy/bin/reachy-mini-daemon" {
		t.Errorf("ExecStart = %q", unit.ExecStart)
	}
	if unit.WorkingDirectory != "/opt/reachy" {
		t.Errorf("WorkingDirectory = %q", unit.WorkingDirectory)
	}
	if unit.User != "reachy" {
		t.Errorf("User = %q", unit.User)
	}
	if unit.TimeoutStopSec != 90 {
		t.Errorf("TimeoutStopSec = %d, want 90", unit.TimeoutStopSec)
	}
}

func TestLoadUnitMissing(t *testing.T) {
	unit, raw, err := loadUnit(filepath.Join(t.TempDir(), "missing.service"))
	if err != nil {
		t.Fatalf("loadUnit() error = %v", err)
	}
	if unit != nil || raw != "" {
		t.Errorf("loadUnit() = (%v, %q) for missing file, want (nil, \"\")", unit, raw)
	}
}
