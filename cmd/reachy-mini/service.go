package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/systemd"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
	"github.com/pollen-robotics/reachy-mini-cli/internal/venv"
)

var serviceSudo bool

// serviceCmd is the parent command for systemd unit management.
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the reachy-mini-daemon systemd unit",
	Long: `Manage the reachy-mini-daemon systemd unit.

The daemon normally runs as a systemd service so it survives logouts
and starts at boot. These commands inspect the unit, keep the unit
file in sync with the installed SDK and control the service itself.

Mutating operations run systemctl through sudo when --sudo is given,
which is required on a stock install.

EXAMPLES:
  reachy-mini service status           # Unit state and unit file drift
  reachy-mini service sync --sudo      # Rewrite a drifted unit file
  reachy-mini service enable --sudo    # Start at boot
  reachy-mini service restart --sudo   # Restart the daemon service`,
}

// serviceStatusCmd reports unit state and drift.
var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show unit state and unit file drift",
	RunE:  runServiceStatus,
}

// serviceSyncCmd rewrites the unit file from the installed SDK.
var serviceSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rewrite the unit file to match the installed SDK",
	Long: `Rewrite the systemd unit file to match the installed SDK.

After the SDK moves (a new venv path, a different user) the installed
unit file keeps pointing at the old location and the service fails at
boot. Sync renders the expected unit from the current venv and user,
writes it to ` + systemd.InstalledUnitPath + ` and reloads systemd.

Editable (development) installs are never synced, their unit files are
assumed to be hand-maintained.`,
	RunE: runServiceSync,
}

// serviceEnableCmd enables the unit at boot.
var serviceEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the service at boot",
	RunE:  runServiceEnable,
}

// serviceRestartCmd restarts the unit.
var serviceRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the service",
	RunE:  runServiceRestart,
}

func init() {
	serviceCmd.PersistentFlags().BoolVar(&serviceSudo, "sudo", false, "Run systemctl through sudo")

	serviceCmd.AddCommand(serviceStatusCmd)
	serviceCmd.AddCommand(serviceSyncCmd)
	serviceCmd.AddCommand(serviceEnableCmd)
	serviceCmd.AddCommand(serviceRestartCmd)
}

// runServiceStatus shows unit state plus unit file drift.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runServiceStatus(cmd *cobra.Command, args []string) error {
	if !systemd.HasSystemctl() {
		return fmt.Errorf("systemctl not found, this host does not run systemd")
	}

	ctl := systemd.NewController(serviceSudo)
	active, state := ctl.IsActive(cmd.Context())
	enabled, enabledState := ctl.IsEnabled(cmd.Context())

	unit, raw, unitErr := systemd.LoadInstalledUnit()

	var stale, diffs []string
	unitInstalled := unit != nil
	if unitInstalled {
		stale = systemd.StalePaths(unit)
		expected := systemd.RenderUnit(venv.DefaultPath(), currentUsername())
		_, diffs = systemd.UnitsMatch(raw, expected)
	}

	if jsonOutput(cmd) {
		printJSON(map[string]interface{}{
			"unit":           systemd.UnitName,
			"active":         active,
			"state":          state,
			"enabled":        enabled,
			"unit_installed": unitInstalled,
			"stale_paths":    stale,
			"drift":          diffs,
		})
		return nil
	}

	if active {
		ui.PrintSuccess("%s is %s", systemd.UnitName, state)
	} else {
		ui.PrintWarning("%s is %s", systemd.UnitName, state)
	}

	if enabled {
		ui.PrintInfo("Enabled at boot")
	} else {
		ui.PrintInfo("Not enabled at boot (%s)", enabledState)
	}

	switch {
	case unitErr != nil:
		ui.PrintWarning("Could not read unit file: %v", unitErr)
	case !unitInstalled:
		ui.PrintWarning("Unit file not installed at %s", systemd.InstalledUnitPath)
	case len(stale) > 0:
		ui.PrintError("Unit file points at missing paths:")
		for _, p := range stale {
			ui.PrintDim("  %s", p)
		}
	case len(diffs) > 0:
		ui.PrintWarning("Unit file drifted: %s", strings.Join(diffs, ", "))
	default:
		ui.PrintSuccess("Unit file matches the installed SDK")
	}

	var steps []ui.NextStep
	if len(stale) > 0 || len(diffs) > 0 || !unitInstalled {
		steps = append(steps, ui.NextStep{Label: "Fix the unit:", Command: "reachy-mini service sync --sudo"})
	}
	if !enabled {
		steps = append(steps, ui.NextStep{Label: "Start at boot:", Command: "reachy-mini service enable --sudo"})
	}
	ui.PrintNextSteps(steps)
	return nil
}

// runServiceSync rewrites the unit file and reloads systemd.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runServiceSync(cmd *cobra.Command, args []string) error {
	if !systemd.HasSystemctl() {
		return fmt.Errorf("systemctl not found, this host does not run systemd")
	}

	venvPath := venv.DefaultPath()
	if !venv.Exists(venvPath) {
		return fmt.Errorf("no venv at %s, install the SDK first", venvPath)
	}

	src, err := venv.InspectInstallSource(cmd.Context(), venvPath)
	if err != nil {
		return fmt.Errorf("could not inspect the SDK install: %w", err)
	}
	if !venv.ShouldSyncUnit(src) {
		ui.PrintWarning("Editable install from %s, refusing to rewrite the unit file", src.Path)
		ui.PrintInfo("Maintain %s by hand for development installs", systemd.InstalledUnitPath)
		return nil
	}

	expected := systemd.RenderUnit(venvPath, currentUsername())

	_, raw, err := systemd.LoadInstalledUnit()
	if err == nil {
		if match, _ := systemd.UnitsMatch(raw, expected); match {
			ui.PrintSuccess("Unit file already matches the installed SDK")
			return nil
		}
	}

	ui.StartSpinner("Writing unit file...")
	ctl := systemd.NewController(serviceSudo)
	err = systemd.SyncUnitFile(cmd.Context(), ctl, expected)
	ui.StopSpinner()
	if err != nil {
		if !serviceSudo {
			ui.PrintInfo("Writing to /etc needs root, retry with --sudo")
		}
		return fmt.Errorf("failed to sync unit file: %w", err)
	}

	ui.PrintSuccess("Unit file written and systemd reloaded")
	ui.PrintNextSteps([]ui.NextStep{
		{Label: "Apply it:", Command: "reachy-mini service restart --sudo"},
	})
	return nil
}

// runServiceEnable enables the unit at boot.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runServiceEnable(cmd *cobra.Command, args []string) error {
	ctl := systemd.NewController(serviceSudo)
	if err := ctl.Enable(cmd.Context()); err != nil {
		if !serviceSudo {
			ui.PrintInfo("Enabling units needs root, retry with --sudo")
		}
		return fmt.Errorf("failed to enable %s: %w", systemd.UnitName, err)
	}
	ui.PrintSuccess("%s enabled at boot", systemd.UnitName)
	return nil
}

// runServiceRestart restarts the unit.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runServiceRestart(cmd *cobra.Command, args []string) error {
	ctl := systemd.NewController(serviceSudo)

	ui.StartSpinner("Restarting service...")
	err := ctl.Restart(cmd.Context())
	ui.StopSpinner()
	if err != nil {
		if !serviceSudo {
			ui.PrintInfo("Restarting the service needs root, retry with --sudo")
		}
		return fmt.Errorf("failed to restart %s: %w", systemd.UnitName, err)
	}

	ui.PrintSuccess("%s restarted", systemd.UnitName)
	ui.PrintNextSteps([]ui.NextStep{
		{Label: "Watch it come up:", Command: "reachy-mini daemon watch"},
	})
	return nil
}
