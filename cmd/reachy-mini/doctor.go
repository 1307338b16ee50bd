// Package main provides the doctor and ping commands for robot diagnostics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/auth"
	"github.com/pollen-robotics/reachy-mini-cli/internal/config"
	"github.com/pollen-robotics/reachy-mini-cli/internal/daemon"
	"github.com/pollen-robotics/reachy-mini-cli/internal/systemd"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
	"github.com/pollen-robotics/reachy-mini-cli/internal/venv"
)

// DoctorCheck represents a single diagnostic check result.
type DoctorCheck struct {
	// Name is the check name (e.g., "Daemon", "Service Unit").
	Name string `json:"name"`

	// Status is the check status: "ok", "warning", "error".
	Status string `json:"status"`

	// Message is the human-readable result message.
	Message string `json:"message"`

	// Details contains additional information (optional).
	Details string `json:"details,omitempty"`

	// Fixed is set when --fix repaired the finding.
	Fixed bool `json:"fixed,omitempty"`
}

// DoctorResult contains all diagnostic check results.
type DoctorResult struct {
	// Checks contains all individual check results.
	Checks []DoctorCheck `json:"checks"`

	// Issues is the count of checks with status "error" or "warning".
	Issues int `json:"issues"`

	// Healthy is true if no errors were found.
	Healthy bool `json:"healthy"`
}

var (
	doctorOutputJSON bool
	doctorFix        bool
	doctorSudo       bool
)

// doctorCmd runs diagnostic checks on the robot installation.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check robot health and repair common failures",
	Long: `Run diagnostic checks on the Reachy Mini installation.

CHECKS PERFORMED:
  - Daemon reachability and state (HTTP API on port 8000)
  - WebRTC media listener (port 8443)
  - systemd unit state and unit file drift (stale venv paths)
  - Virtualenv ownership (root-owned files from sudo'd updates)
  - Virtualenv corruption (half-deleted ~package directories)
  - SDK install source (pypi, git or editable)
  - Hugging Face authentication

The doctor never changes anything unless --fix is given. Repairs that
need root (chown, unit file rewrite) also need --sudo.

EXAMPLES:
  reachy-mini doctor                 # Run all checks
  reachy-mini doctor --json          # Output as JSON for scripting
  reachy-mini doctor --fix --sudo    # Repair what can be repaired`,
	RunE: runDoctor,
}

// pingCmd tests daemon connectivity.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test daemon connectivity",
	Long: `Test connectivity to the Reachy Mini daemon.

Performs a status request against the daemon HTTP API and reports the
response time.

EXAMPLES:
  reachy-mini ping           # Ping the configured daemon
  reachy-mini ping --dev     # Probe alternative ports too`,
	RunE: runPing,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorOutputJSON, "json", false, "Output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair repairable findings")
	doctorCmd.Flags().BoolVar(&doctorSudo, "sudo", false, "Allow repairs that need root")
}

// runDoctor executes all diagnostic checks.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runDoctor(cmd *cobra.Command, args []string) error {
	jsonOut := doctorOutputJSON || jsonOutput(cmd)
	devMode, _ := cmd.Root().PersistentFlags().GetBool("dev")

	result := DoctorResult{
		Checks:  make([]DoctorCheck, 0),
		Healthy: true,
	}

	if !jsonOut {
		ui.PrintBanner(version)
		ui.PrintInfo("Running diagnostic checks...")
		ui.Println()
	}

	record := func(check DoctorCheck) {
		result.Checks = append(result.Checks, check)
		if check.Status == "error" {
			result.Healthy = false
			result.Issues++
		} else if check.Status == "warning" {
			result.Issues++
		}
	}

	record(checkVersion())
	record(checkDaemon(cmd.Context(), devMode))
	record(checkWebRTC())

	if systemd.HasSystemctl() {
		record(checkServiceState(cmd.Context()))
		record(checkUnitFile(cmd.Context()))
	}

	venvPath := venv.DefaultPath()
	if venv.Exists(venvPath) {
		record(checkVenvOwnership(cmd.Context(), venvPath))
		record(checkVenvCorruption(venvPath))
		record(checkInstallSource(cmd.Context(), venvPath))
	} else {
		record(DoctorCheck{
			Name:    "Virtualenv",
			Status:  "warning",
			Message: "No venv found",
			Details: fmt.Sprintf("Expected at %s, set REACHY_MINI_VENV if it lives elsewhere", venvPath),
		})
	}

	record(checkHubAuth())

	if jsonOut {
		printJSON(result)
	} else {
		printDoctorResults(result)
	}

	if !result.Healthy {
		return fmt.Errorf("health check failed")
	}

	return nil
}

// checkVersion reports the CLI build.
//
// Returns:
//   - DoctorCheck: The check result
func checkVersion() DoctorCheck {
	check := DoctorCheck{
		Name:   "Version",
		Status: "ok",
	}

	if version == "dev" {
		check.Status = "warning"
		check.Message = "Development build"
		check.Details = "Running a development build, not a released version"
	} else {
		check.Message = fmt.Sprintf("v%s", version)
		check.Details = fmt.Sprintf("Commit: %s, Built: %s", commit, date)
	}

	return check
}

// checkDaemon tests connectivity to the daemon HTTP API.
func checkDaemon(ctx context.Context, devMode bool) DoctorCheck {
	check := DoctorCheck{
		Name:   "Daemon",
		Status: "ok",
	}

	client := daemon.NewClientWithDevMode(devMode)
	latency, err := client.Ping(ctx)
	if err != nil {
		check.Status = "error"
		check.Message = "Unreachable"
		check.Details = fmt.Sprintf("Could not reach %s: %v", client.BaseURL(), err)
		return check
	}

	status, err := client.GetStatus(ctx)
	if err != nil {
		check.Status = "warning"
		check.Message = fmt.Sprintf("Answers but status failed (latency: %dms)", latency.Milliseconds())
		check.Details = err.Error()
		return check
	}

	switch status.State {
	case "running":
		check.Message = fmt.Sprintf("Running (latency: %dms)", latency.Milliseconds())
	case "error":
		check.Status = "error"
		check.Message = "In error state"
		check.Details = status.Error
	default:
		check.Status = "warning"
		check.Message = fmt.Sprintf("State: %s", status.State)
	}

	if config.HasURLOverride() {
		check.Details = strings.TrimSpace(check.Details + "\nUsing custom endpoint: " + client.BaseURL())
	}
	return check
}

// checkWebRTC probes the media listener.
func checkWebRTC() DoctorCheck {
	check := DoctorCheck{
		Name:   "WebRTC",
		Status: "ok",
	}

	if daemon.CheckWebRTC() {
		check.Message = fmt.Sprintf("Listening on %s", config.GetWebRTCAddress())
	} else {
		check.Status = "warning"
		check.Message = "Media port closed"
		check.Details = fmt.Sprintf("Nothing listening on %s, browser streaming will not work", config.GetWebRTCAddress())
	}
	return check
}

// checkServiceState reports the systemd unit state.
func checkServiceState(ctx context.Context) DoctorCheck {
	check := DoctorCheck{
		Name:   "Service",
		Status: "ok",
	}

	ctl := systemd.NewController(doctorSudo)
	active, state := ctl.IsActive(ctx)
	enabled, _ := ctl.IsEnabled(ctx)

	switch {
	case active && enabled:
		check.Message = "Active and enabled at boot"
	case active:
		check.Status = "warning"
		check.Message = "Active but not enabled at boot"
		check.Details = "Run 'reachy-mini service enable --sudo' to start at boot"
	default:
		check.Status = "error"
		check.Message = fmt.Sprintf("Unit is %s", state)
		check.Details = fmt.Sprintf("Inspect with 'reachy-mini daemon logs', then 'systemctl start %s'", systemd.UnitName)
	}
	return check
}

// checkUnitFile compares the installed unit file against the expected one
// and flags stale paths. With --fix (and --sudo) the unit is rewritten.
func checkUnitFile(ctx context.Context) DoctorCheck {
	check := DoctorCheck{
		Name:   "Service Unit",
		Status: "ok",
	}

	unit, raw, err := systemd.LoadInstalledUnit()
	if err != nil {
		check.Status = "warning"
		check.Message = "Could not read unit file"
		check.Details = err.Error()
		return check
	}
	if unit == nil {
		check.Status = "error"
		check.Message = "Unit file not installed"
		check.Details = fmt.Sprintf("Expected at %s, run 'reachy-mini service sync --sudo'", systemd.InstalledUnitPath)
		return check
	}

	stale := systemd.StalePaths(unit)
	venvPath := venv.DefaultPath()
	expected := systemd.RenderUnit(venvPath, currentUsername())
	match, diffs := systemd.UnitsMatch(raw, expected)

	if len(stale) == 0 && match {
		check.Message = "Unit file matches the installed SDK"
		return check
	}

	if len(stale) > 0 {
		check.Status = "error"
		check.Message = "Unit file points at missing paths"
		check.Details = strings.Join(stale, "\n    ")
	} else {
		check.Status = "warning"
		check.Message = fmt.Sprintf("Unit file drifted (%s)", strings.Join(diffs, ", "))
	}

	if doctorFix {
		if !doctorSudo {
			check.Details = strings.TrimSpace(check.Details + "\nRewriting the unit needs --sudo")
			return check
		}
		// Only repair installs the CLI is allowed to manage.
		src, err := venv.InspectInstallSource(ctx, venvPath)
		if err == nil && !venv.ShouldSyncUnit(src) {
			check.Details = strings.TrimSpace(check.Details + "\nEditable install, not rewriting the unit")
			return check
		}
		ctl := systemd.NewController(true)
		if err := systemd.SyncUnitFile(ctx, ctl, expected); err != nil {
			check.Details = strings.TrimSpace(check.Details + "\nRewrite failed: " + err.Error())
			return check
		}
		check.Fixed = true
		check.Status = "ok"
		check.Message = "Unit file rewritten and systemd reloaded"
		check.Details = ""
	} else {
		check.Details = strings.TrimSpace(check.Details + "\nRepair with 'reachy-mini doctor --fix --sudo'")
	}
	return check
}

// checkVenvOwnership flags root-owned files in the venv.
func checkVenvOwnership(ctx context.Context, venvPath string) DoctorCheck {
	check := DoctorCheck{
		Name:   "Venv Ownership",
		Status: "ok",
	}

	report, err := venv.CheckOwnership(venvPath)
	if err != nil {
		check.Status = "warning"
		check.Message = "Could not check ownership"
		check.Details = err.Error()
		return check
	}

	if report.Clean() {
		check.Message = "Owned by the current user"
		return check
	}

	check.Status = "error"
	check.Message = fmt.Sprintf("%d path(s) owned by another user", report.ForeignCount)
	check.Details = strings.Join(report.Foreign, "\n    ")

	if doctorFix {
		if !doctorSudo {
			check.Details = strings.TrimSpace(check.Details + "\nchown needs --sudo")
			return check
		}
		if err := venv.FixOwnership(ctx, venvPath); err != nil {
			check.Details = strings.TrimSpace(check.Details + "\nchown failed: " + err.Error())
			return check
		}
		check.Fixed = true
		check.Status = "ok"
		check.Message = "Ownership repaired"
		check.Details = ""
	} else {
		check.Details = strings.TrimSpace(check.Details + "\nRepair with 'reachy-mini doctor --fix --sudo'")
	}
	return check
}

// checkVenvCorruption flags half-deleted pip leftovers.
func checkVenvCorruption(venvPath string) DoctorCheck {
	check := DoctorCheck{
		Name:   "Venv Integrity",
		Status: "ok",
	}

	corrupted, err := venv.ScanCorrupted(venvPath)
	if err != nil {
		check.Status = "warning"
		check.Message = "Could not scan site-packages"
		check.Details = err.Error()
		return check
	}

	if len(corrupted) == 0 {
		check.Message = "No leftover package directories"
		return check
	}

	check.Status = "error"
	check.Message = fmt.Sprintf("%d leftover ~package directorie(s) from an interrupted install", len(corrupted))
	check.Details = strings.Join(corrupted, "\n    ")

	if doctorFix {
		var failed []string
		for _, path := range corrupted {
			if err := os.RemoveAll(path); err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", path, err))
			}
		}
		if len(failed) > 0 {
			check.Details = strings.Join(failed, "\n    ")
			return check
		}
		check.Fixed = true
		check.Status = "ok"
		check.Message = "Leftover directories removed"
		check.Details = "If packages are missing, reinstall with: " + venv.InstallCommand(venvPath, nil)
	} else {
		check.Details = strings.TrimSpace(check.Details + "\nRepair with 'reachy-mini doctor --fix'")
	}
	return check
}

// checkInstallSource reports how the SDK was installed.
func checkInstallSource(ctx context.Context, venvPath string) DoctorCheck {
	check := DoctorCheck{
		Name:   "SDK Install",
		Status: "ok",
	}

	src, err := venv.InspectInstallSource(ctx, venvPath)
	if err != nil {
		check.Status = "error"
		check.Message = "SDK not found in venv"
		check.Details = fmt.Sprintf("%v\nReinstall with: %s", err, venv.InstallCommand(venvPath, nil))
		return check
	}

	switch src.Kind {
	case venv.SourcePyPI:
		check.Message = fmt.Sprintf("PyPI release %s", src.Version)
	case venv.SourceGit:
		check.Message = fmt.Sprintf("Git install %s (%s)", src.Version, src.Ref)
	case venv.SourceEditable:
		check.Status = "warning"
		check.Message = fmt.Sprintf("Editable install from %s", src.Path)
		check.Details = "Development install, the doctor will not manage the unit file"
	default:
		check.Status = "warning"
		check.Message = fmt.Sprintf("Unknown provenance (version %s)", src.Version)
	}
	return check
}

// checkHubAuth checks Hugging Face credentials.
func checkHubAuth() DoctorCheck {
	check := DoctorCheck{
		Name:   "Hugging Face",
		Status: "ok",
	}

	mgr := auth.NewManager()
	creds, err := mgr.GetCredentials()
	if err != nil || creds == nil || creds.Token == "" {
		check.Status = "warning"
		check.Message = "Not authenticated"
		check.Details = "Run 'reachy-mini auth login' to publish apps"
		return check
	}

	if creds.Username != "" {
		check.Message = fmt.Sprintf("Authenticated as %s", creds.Username)
	} else {
		check.Message = "Token present"
	}
	return check
}

// currentUsername returns the login name of the invoking user.
func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

// printDoctorResults prints the doctor results in human-readable format.
//
// Parameters:
//   - result: The doctor result to print
func printDoctorResults(result DoctorResult) {
	for _, check := range result.Checks {
		var icon string
		switch check.Status {
		case "ok":
			icon = ui.SuccessStyle.Render("✓")
		case "warning":
			icon = ui.WarningStyle.Render("⚠")
		case "error":
			icon = ui.ErrorStyle.Render("✗")
		}

		name := check.Name
		if check.Fixed {
			name += " (fixed)"
		}
		fmt.Printf("  %s %-16s %s\n", icon, name+":", check.Message)

		if check.Details != "" {
			fmt.Printf("    %s\n", ui.DimStyle.Render(check.Details))
		}
	}

	ui.Println()

	if result.Issues > 0 {
		ui.PrintWarning("%d issue(s) found", result.Issues)
	} else {
		ui.PrintSuccess("All checks passed")
	}

	// Print context-aware next steps based on check results
	var steps []ui.NextStep
	for _, check := range result.Checks {
		switch {
		case check.Name == "Daemon" && check.Status == "error":
			steps = append(steps, ui.NextStep{Label: "Check the service:", Command: "reachy-mini service status"})
		case check.Name == "Hugging Face" && check.Status == "warning":
			steps = append(steps, ui.NextStep{Label: "Authenticate:", Command: "reachy-mini auth login"})
		case (check.Name == "Venv Ownership" || check.Name == "Service Unit") && check.Status == "error" && !check.Fixed:
			steps = append(steps, ui.NextStep{Label: "Repair:", Command: "reachy-mini doctor --fix --sudo"})
		}
	}

	if result.Healthy && len(steps) == 0 {
		steps = append(steps, ui.NextStep{Label: "Watch the robot:", Command: "reachy-mini daemon watch"})
	}

	ui.PrintNextSteps(steps)
}

// runPing tests daemon connectivity with timing.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runPing(cmd *cobra.Command, args []string) error {
	jsonOut := jsonOutput(cmd)
	client := newDaemonClient(cmd)

	if !jsonOut {
		ui.PrintInfo("Pinging %s...", client.BaseURL())
	}

	latency, err := client.Ping(cmd.Context())
	if err != nil {
		if jsonOut {
			printJSON(map[string]interface{}{
				"ok":    false,
				"error": fmt.Sprintf("connection failed: %v", err),
			})
			return nil
		}
		ui.PrintError("Connection failed: %v", err)
		return err
	}

	if jsonOut {
		printJSON(map[string]interface{}{
			"ok":         true,
			"latency_ms": latency.Milliseconds(),
		})
		return nil
	}

	ui.PrintSuccess("Connected in %dms", latency.Milliseconds())
	return nil
}
