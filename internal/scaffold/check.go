package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Check statuses.
const (
	CheckPass = "pass"
	CheckWarn = "warn"
	CheckFail = "fail"
)

// CheckResult is one validation finding for an app workspace.
type CheckResult struct {
	// Name identifies the check.
	Name string `json:"name"`

	// Status is pass, warn or fail.
	Status string `json:"status"`

	// Message describes the finding.
	Message string `json:"message"`
}

// CheckReport is the outcome of validating an app workspace.
type CheckReport struct {
	// AppName is the package name found in pyproject.toml.
	AppName string `json:"app_name,omitempty"`

	// Results holds the individual findings.
	Results []CheckResult `json:"results"`
}

// Passed reports whether no check failed. Warnings do not fail the report.
func (r *CheckReport) Passed() bool {
	for _, res := range r.Results {
		if res.Status == CheckFail {
			return false
		}
	}
	return true
}

func (r *CheckReport) add(name, status, format string, args ...interface{}) {
	r.Results = append(r.Results, CheckResult{
		Name:    name,
		Status:  status,
		Message: fmt.Sprintf(format, args...),
	})
}

// pyproject mirrors the parts of pyproject.toml the checks read.
type pyproject struct {
	Project struct {
		Name         string            `toml:"name"`
		Version      string            `toml:"version"`
		Description  string            `toml:"description"`
		Dependencies []string          `toml:"dependencies"`
		EntryPoints  map[string]map[string]string `toml:"entry-points"`
	} `toml:"project"`
}

// entryPointGroup is where the daemon discovers installable apps.
const entryPointGroup = "reachy_mini_apps"

// Check validates an app workspace for daemon discovery and publishing.
//
// Parameters:
//   - dir: The app workspace root
//
// Returns:
//   - *CheckReport: The validation report
//   - error: An error only when the workspace cannot be read at all
func Check(dir string) (*CheckReport, error) {
	report := &CheckReport{}

	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", dir, err)
	}

	pyprojectPath := filepath.Join(dir, "pyproject.toml")
	data, err := os.ReadFile(pyprojectPath)
	if err != nil {
		report.add("pyproject", CheckFail, "pyproject.toml not found in %s", dir)
		return report, nil
	}

	var proj pyproject
	if err := toml.Unmarshal(data, &proj); err != nil {
		report.add("pyproject", CheckFail, "pyproject.toml does not parse: %v", err)
		return report, nil
	}
	report.add("pyproject", CheckPass, "pyproject.toml parsed")

	// Distribution names use dashes; the package dir uses underscores.
	pkgName := strings.ReplaceAll(proj.Project.Name, "-", "_")
	report.AppName = pkgName

	if proj.Project.Name == "" {
		report.add("name", CheckFail, "project.name is missing")
	} else if err := ValidateName(pkgName); err != nil {
		report.add("name", CheckFail, "%v", err)
	} else {
		report.add("name", CheckPass, "app name %s", pkgName)
	}

	if proj.Project.Version == "" {
		report.add("version", CheckFail, "project.version is missing")
	} else {
		report.add("version", CheckPass, "version %s", proj.Project.Version)
	}

	checkSDKDependency(report, proj.Project.Dependencies)
	checkEntryPoint(report, &proj, pkgName)
	checkPackageDir(report, dir, pkgName)

	if _, err := os.Stat(filepath.Join(dir, "README.md")); err != nil {
		report.add("readme", CheckWarn, "README.md missing, the Space page will be empty")
	} else {
		report.add("readme", CheckPass, "README.md present")
	}

	return report, nil
}

// checkSDKDependency verifies the app depends on the SDK.
func checkSDKDependency(report *CheckReport, deps []string) {
	for _, dep := range deps {
		normalized := strings.ReplaceAll(strings.ToLower(dep), "-", "_")
		if strings.HasPrefix(normalized, "reachy_mini") {
			report.add("sdk", CheckPass, "depends on %s", strings.TrimSpace(dep))
			return
		}
	}
	report.add("sdk", CheckFail, "missing reachy-mini dependency in project.dependencies")
}

// checkEntryPoint verifies the daemon can discover the app.
func checkEntryPoint(report *CheckReport, proj *pyproject, pkgName string) {
	group, ok := proj.Project.EntryPoints[entryPointGroup]
	if !ok || len(group) == 0 {
		report.add("entry-point", CheckFail,
			"missing [project.entry-points.%q] section, the daemon cannot discover the app", entryPointGroup)
		return
	}

	for name, target := range group {
		modPath, _, found := strings.Cut(target, ":")
		if !found {
			report.add("entry-point", CheckFail,
				"entry point %s = %q must be module:Class", name, target)
			return
		}
		if pkgName != "" && !strings.HasPrefix(modPath, pkgName) {
			report.add("entry-point", CheckWarn,
				"entry point %s targets module %s outside package %s", name, modPath, pkgName)
			return
		}
		report.add("entry-point", CheckPass, "entry point %s = %s", name, target)
		return
	}
}

// checkPackageDir verifies the package source tree exists. Scaffolded
// apps use the src layout; a flat package directory is also accepted.
func checkPackageDir(report *CheckReport, dir, pkgName string) {
	if pkgName == "" {
		return
	}

	pkgDir, rel := findPackageDir(dir, pkgName)
	if pkgDir == "" {
		report.add("package", CheckFail, "package directory src/%s/ not found", pkgName)
		return
	}
	if _, err := os.Stat(filepath.Join(pkgDir, "__init__.py")); err != nil {
		report.add("package", CheckFail, "%s/__init__.py missing", rel)
		return
	}
	report.add("package", CheckPass, "package %s/ present", rel)

	if _, err := os.Stat(filepath.Join(pkgDir, "static", "index.html")); err != nil {
		report.add("static", CheckWarn, "%s/static/index.html missing, the app has no web page", rel)
	} else {
		report.add("static", CheckPass, "static files present")
	}
}

// findPackageDir locates the app package, preferring the src layout.
func findPackageDir(dir, pkgName string) (string, string) {
	for _, rel := range []string{filepath.Join("src", pkgName), pkgName} {
		full := filepath.Join(dir, rel)
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			return full, rel
		}
	}
	return "", ""
}
