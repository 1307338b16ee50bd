// Package venv inspects and repairs the Python virtualenv the daemon runs
// from.
//
// The daemon and the reachy_mini SDK are installed into a venv on the
// robot. Updates that run partly under sudo leave root-owned files behind,
// and interrupted pip runs leave half-deleted packages. Both break the
// next update, so the doctor checks for them here.
package venv

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPath returns the expected daemon venv location.
// Checks REACHY_MINI_VENV first, then falls back to ~/.reachy-mini/venv.
//
// Returns:
//   - string: The venv path
func DefaultPath() string {
	if path := os.Getenv("REACHY_MINI_VENV"); path != "" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".reachy-mini", "venv")
}

// Exists reports whether path looks like a virtualenv (has bin/python).
//
// Parameters:
//   - path: The venv root
//
// Returns:
//   - bool: True when bin/python exists under the path
func Exists(path string) bool {
	_, err := os.Stat(PythonPath(path))
	return err == nil
}

// PythonPath returns the venv's python interpreter path.
func PythonPath(venvPath string) string {
	return filepath.Join(venvPath, "bin", "python")
}

// SitePackages locates the venv's site-packages directory. Venvs carry a
// single lib/pythonX.Y/site-packages; the first match wins.
//
// Parameters:
//   - venvPath: The venv root
//
// Returns:
//   - string: The site-packages path
//   - error: An error when no site-packages directory exists
func SitePackages(venvPath string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(venvPath, "lib", "python*", "site-packages"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no site-packages under %s", venvPath)
	}
	return matches[0], nil
}

// ScanCorrupted finds half-deleted package directories in site-packages.
// pip renames a package to "~ackage" while replacing it; leftovers mean an
// interrupted install and confuse later pip runs.
//
// Parameters:
//   - venvPath: The venv root
//
// Returns:
//   - []string: Paths of the leftover "~" directories
//   - error: An error if site-packages cannot be read
func ScanCorrupted(venvPath string) ([]string, error) {
	sitePackages, err := SitePackages(venvPath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(sitePackages)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sitePackages, err)
	}

	var corrupted []string
	for _, entry := range entries {
		if len(entry.Name()) > 0 && entry.Name()[0] == '~' {
			corrupted = append(corrupted, filepath.Join(sitePackages, entry.Name()))
		}
	}
	return corrupted, nil
}
