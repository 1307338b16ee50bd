package venv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// makeVenv lays out the minimal skeleton of a virtualenv.
func makeVenv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join(root, "bin"),
		filepath.Join(root, "lib", "python3.11", "site-packages"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "bin", "python"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestExists(t *testing.T) {
	root := makeVenv(t)

	if !Exists(root) {
		t.Error("Exists() = false for venv skeleton, want true")
	}
	if Exists(t.TempDir()) {
		t.Error("Exists() = true for empty dir, want false")
	}
}

func TestDefaultPathOverride(t *testing.T) {
	t.Setenv("REACHY_MINI_VENV", "/opt/custom-venv")

	if got := DefaultPath(); got != "/opt/custom-venv" {
		t.Errorf("DefaultPath() = %q, want env override", got)
	}
}

func TestScanCorrupted(t *testing.T) {
	root := makeVenv(t)
	sitePackages := filepath.Join(root, "lib", "python3.11", "site-packages")

	for _, name := range []string{"numpy", "reachy_mini", "~umpy", "~eachy_mini"} {
		if err := os.MkdirAll(filepath.Join(sitePackages, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	corrupted, err := ScanCorrupted(root)
	if err != nil {
		t.Fatalf("ScanCorrupted() error = %v", err)
	}
	if len(corrupted) != 2 {
		t.Fatalf("ScanCorrupted() found %d entries, want 2: %v", len(corrupted), corrupted)
	}
	for _, path := range corrupted {
		if !strings.HasPrefix(filepath.Base(path), "~") {
			t.Errorf("unexpected corrupted entry %q", path)
		}
	}
}

func TestScanCorruptedCleanVenv(t *testing.T) {
	root := makeVenv(t)

	corrupted, err := ScanCorrupted(root)
	if err != nil {
		t.Fatalf("ScanCorrupted() error = %v", err)
	}
	if len(corrupted) != 0 {
		t.Errorf("ScanCorrupted() = %v for clean venv, want none", corrupted)
	}
}

func TestCheckOwnershipClean(t *testing.T) {
	root := makeVenv(t)

	report, err := CheckOwnership(root)
	if err != nil {
		t.Fatalf("CheckOwnership() error = %v", err)
	}
	if !report.Clean() {
		t.Errorf("Clean() = false for freshly created venv: %+v", report)
	}
	if report.OwnerUID != os.Getuid() {
		t.Errorf("OwnerUID = %d, want %d", report.OwnerUID, os.Getuid())
	}
}

func TestParseInstallSource(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		wantKind string
		wantRef  string
		wantPath string
	}{
		{
			name:     "pypi",
			output:   `{"version": "1.2.0"}`,
			wantKind: SourcePyPI,
		},
		{
			name:     "git with requested revision",
			output:   `{"version": "1.3.0.dev0", "direct_url": {"url": "https://github.com/pollen-robotics/reachy_mini", "vcs_info": {"vcs": "git", "requested_revision": "develop", "commit_id": "abc123"}}}`,
			wantKind: SourceGit,
			wantRef:  "develop",
		},
		{
			name:     "git pinned by commit",
			output:   `{"version": "1.3.0", "direct_url": {"url": "https://github.com/pollen-robotics/reachy_mini", "vcs_info": {"vcs": "git", "commit_id": "abc123"}}}`,
			wantKind: SourceGit,
			wantRef:  "abc123",
		},
		{
			name:     "editable",
			output:   `{"version": "1.3.0.dev0", "direct_url": {"url": "file:///home/pollen/dev/reachy_mini", "dir_info": {"editable": true}}}`,
			wantKind: SourceEditable,
			wantPath: "/home/pollen/dev/reachy_mini",
		},
		{
			name:     "local non-editable",
			output:   `{"version": "1.3.0", "direct_url": {"url": "file:///tmp/build", "dir_info": {}}}`,
			wantKind: SourceUnknown,
			wantPath: "/tmp/build",
		},
		{
			name:     "warning noise before JSON",
			output:   "warning: something\n{\"version\": \"1.2.0\"}",
			wantKind: SourcePyPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := parseInstallSource([]byte(tt.output))
			if err != nil {
				t.Fatalf("parseInstallSource() error = %v", err)
			}
			if src.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", src.Kind, tt.wantKind)
			}
			if src.Ref != tt.wantRef {
				t.Errorf("Ref = %q, want %q", src.Ref, tt.wantRef)
			}
			if src.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", src.Path, tt.wantPath)
			}
		})
	}
}

func TestParseInstallSourceErrors(t *testing.T) {
	if _, err := parseInstallSource([]byte(`{"error": "No package metadata was found for reachy_mini"}`)); err == nil {
		t.Error("parseInstallSource() expected error for missing package")
	}
	if _, err := parseInstallSource([]byte("Traceback (most recent call last):")); err == nil {
		t.Error("parseInstallSource() expected error for non-JSON output")
	}
}

func TestShouldSyncUnit(t *testing.T) {
	tests := []struct {
		name string
		src  *InstallSource
		want bool
	}{
		{"pypi", &InstallSource{Kind: SourcePyPI}, true},
		{"git", &InstallSource{Kind: SourceGit}, true},
		{"editable", &InstallSource{Kind: SourceEditable}, false},
		{"unknown", &InstallSource{Kind: SourceUnknown}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldSyncUnit(tt.src); got != tt.want {
				t.Errorf("ShouldSyncUnit(%+v) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestInstallCommand(t *testing.T) {
	venvPath := "/home/reachy/.reachy-mini/venv"
	python := PythonPath(venvPath)

	tests := []struct {
		name string
		src  *InstallSource
		want string
	}{
		{
			name: "nil source",
			src:  nil,
			want: "uv pip install --python " + python + " --force-reinstall reachy-mini",
		},
		{
			name: "pypi pinned",
			src:  &InstallSource{Kind: SourcePyPI, Version: "1.2.3"},
			want: "uv pip install --python " + python + " --force-reinstall reachy-mini==1.2.3",
		},
		{
			name: "git ref",
			src:  &InstallSource{Kind: SourceGit, Ref: "develop"},
			want: "uv pip install --python " + python + " --force-reinstall git+https://github.com/pollen-robotics/reachy_mini@develop",
		},
		{
			name: "editable",
			src:  &InstallSource{Kind: SourceEditable, Path: "/home/reachy/dev/reachy_mini"},
			want: "uv pip install --python " + python + " -e /home/reachy/dev/reachy_mini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InstallCommand(venvPath, tt.src); got != tt.want {
				t.Errorf("InstallCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}
