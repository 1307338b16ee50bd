package venv

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// inspectTimeout bounds the python interpreter round trip.
const inspectTimeout = 20 * time.Second

// sdkPackage is the distribution the daemon ships in.
const sdkPackage = "reachy_mini"

// Install source kinds.
const (
	SourcePyPI     = "pypi"
	SourceGit      = "git"
	SourceEditable = "editable"
	SourceUnknown  = "unknown"
)

// InstallSource describes how the SDK got into the venv.
type InstallSource struct {
	// Kind is pypi, git, editable or unknown.
	Kind string

	// Version is the installed distribution version.
	Version string

	// Ref is the git ref for git installs.
	Ref string

	// Path is the source checkout for editable installs.
	Path string
}

// inspectScript asks the venv's own interpreter about the SDK install.
// importlib.metadata reads the dist-info direct_url.json pip writes for
// non-PyPI installs.
const inspectScript = `
import json
try:
    from importlib import metadata
    dist = metadata.distribution("reachy_mini")
    out = {"version": dist.version}
    direct = dist.read_text("direct_url.json")
    if direct:
        out["direct_url"] = json.loads(direct)
    print(json.dumps(out))
except Exception as e:
    print(json.dumps({"error": str(e)}))
`

// InspectInstallSource determines how the SDK was installed into the venv.
//
// Parameters:
//   - ctx: Context for cancellation
//   - venvPath: The venv root
//
// Returns:
//   - *InstallSource: The detected source
//   - error: An error if the interpreter cannot be run or the SDK is absent
func InspectInstallSource(ctx context.Context, venvPath string) (*InstallSource, error) {
	ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	cmd := execCommand(ctx, PythonPath(venvPath), "-c", inspectScript)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to run venv python: %s", strings.TrimSpace(out.String()))
	}

	return parseInstallSource(out.Bytes())
}

// parseInstallSource interprets the inspect script's JSON output.
func parseInstallSource(output []byte) (*InstallSource, error) {
	// The script prints a single JSON line; tolerate warnings around it.
	line := lastJSONLine(output)
	if line == "" {
		return nil, fmt.Errorf("no JSON in interpreter output: %s", strings.TrimSpace(string(output)))
	}

	if errMsg := gjson.Get(line, "error").String(); errMsg != "" {
		return nil, fmt.Errorf("%s not installed in venv: %s", sdkPackage, errMsg)
	}

	src := &InstallSource{
		Kind:    SourcePyPI,
		Version: gjson.Get(line, "version").String(),
	}

	direct := gjson.Get(line, "direct_url")
	if !direct.Exists() {
		return src, nil
	}

	if direct.Get("dir_info.editable").Bool() {
		src.Kind = SourceEditable
		src.Path = strings.TrimPrefix(direct.Get("url").String(), "file://")
		return src, nil
	}

	if vcs := direct.Get("vcs_info"); vcs.Exists() {
		src.Kind = SourceGit
		src.Ref = vcs.Get("requested_revision").String()
		if src.Ref == "" {
			src.Ref = vcs.Get("commit_id").String()
		}
		return src, nil
	}

	if strings.HasPrefix(direct.Get("url").String(), "file://") {
		// Non-editable local install, treat like unknown provenance.
		src.Kind = SourceUnknown
		src.Path = strings.TrimPrefix(direct.Get("url").String(), "file://")
	}

	return src, nil
}

// lastJSONLine returns the last line of output that looks like a JSON
// object.
func lastJSONLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "{") {
			return line
		}
	}
	return ""
}

// InstallCommand builds the uv command that reinstalls the SDK the way it
// is currently installed. Useful as a repair hint after a corrupted or
// interrupted pip run.
//
// Parameters:
//   - venvPath: Path to the venv root
//   - src: The detected install source, may be nil
//
// Returns:
//   - string: A shell command reinstalling reachy-mini into the venv
func InstallCommand(venvPath string, src *InstallSource) string {
	python := PythonPath(venvPath)
	target := "reachy-mini"
	if src != nil {
		switch src.Kind {
		case SourceGit:
			target = "git+https://github.com/pollen-robotics/reachy_mini"
			if src.Ref != "" {
				target += "@" + src.Ref
			}
		case SourceEditable:
			if src.Path != "" {
				return fmt.Sprintf("uv pip install --python %s -e %s", python, src.Path)
			}
		case SourcePyPI:
			if src.Version != "" {
				target = "reachy-mini==" + src.Version
			}
		}
	}
	return fmt.Sprintf("uv pip install --python %s --force-reinstall %s", python, target)
}

// ShouldSyncUnit decides whether the systemd unit should be rewritten for
// this install. Editable installs are managed by developers who point the
// unit wherever they want, so the doctor leaves those alone.
//
// Parameters:
//   - src: The detected install source
//
// Returns:
//   - bool: True when unit drift should be repaired automatically
func ShouldSyncUnit(src *InstallSource) bool {
	if src == nil {
		return false
	}
	return src.Kind == SourcePyPI || src.Kind == SourceGit
}
