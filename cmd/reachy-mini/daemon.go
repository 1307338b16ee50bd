// Package main provides the daemon commands for robot lifecycle control.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/config"
	"github.com/pollen-robotics/reachy-mini-cli/internal/daemon"
	"github.com/pollen-robotics/reachy-mini-cli/internal/systemd"
	"github.com/pollen-robotics/reachy-mini-cli/internal/tui"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

// daemonCmd is the parent command for daemon lifecycle control.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Control the robot daemon",
	Long: `Control the Reachy Mini daemon running on the robot.

The daemon owns the motors, camera and audio, and exposes the HTTP API
the rest of the CLI talks to.

EXAMPLES:
  reachy-mini daemon status            # lifecycle state
  reachy-mini daemon start             # power on with the wake-up move
  reachy-mini daemon start --no-wake   # power on without moving
  reachy-mini daemon stop              # sleep move, then power off
  reachy-mini daemon restart           # stop + start
  reachy-mini daemon logs -n 100       # recent journal lines
  reachy-mini daemon watch             # live view of state and logs`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon state",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

var daemonStartNoWake bool

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Power on the robot",
	Long: `Ask the daemon to power on the robot.

By default the robot plays its wake-up move once the motors are online.
Use --no-wake to power on without moving, e.g. when the robot is packed
or surrounded.`,
	Args: cobra.NoArgs,
	RunE: runDaemonStart,
}

var daemonStopStayAwake bool

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Power off the robot",
	Long: `Ask the daemon to power off the robot.

The robot plays its sleep move before the motors power off. systemd
grants the daemon up to TimeoutStopSec (90s in the shipped unit) to
finish, so a slow stop is normal.`,
	Args: cobra.NoArgs,
	RunE: runDaemonStop,
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the robot",
	Args:  cobra.NoArgs,
	RunE:  runDaemonRestart,
}

var daemonLogsLines int

var daemonLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent daemon journal lines",
	Args:  cobra.NoArgs,
	RunE:  runDaemonLogs,
}

var daemonWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow daemon state and logs live",
	Long: `Follow the daemon in real time.

Subscribes to the daemon's event stream and renders state transitions,
app lifecycle events and log lines as they happen. Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: runDaemonWatch,
}

func init() {
	daemonStartCmd.Flags().BoolVar(&daemonStartNoWake, "no-wake", false, "Power on without the wake-up move")
	daemonStopCmd.Flags().BoolVar(&daemonStopStayAwake, "no-sleep", false, "Power off without the sleep move")
	daemonLogsCmd.Flags().IntVarP(&daemonLogsLines, "lines", "n", 50, "Number of journal lines to show")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonRestartCmd)
	daemonCmd.AddCommand(daemonLogsCmd)
	daemonCmd.AddCommand(daemonWatchCmd)
}

// newDaemonClient builds a daemon client honoring the global --dev flag.
func newDaemonClient(cmd *cobra.Command) *daemon.Client {
	// A project-local config.yaml may pin the daemon endpoint, e.g. to a
	// robot on the network rather than localhost.
	if cwd, err := os.Getwd(); err == nil {
		if root := config.FindProjectRoot(cwd); root != "" {
			if cfg, err := config.LoadProjectConfig(root); err == nil && cfg.DaemonURL != "" {
				return daemon.NewClientWithBaseURL(cfg.DaemonURL)
			}
		}
	}
	devMode, _ := cmd.Root().PersistentFlags().GetBool("dev")
	return daemon.NewClientWithDevMode(devMode)
}

// jsonOutput reports whether the global --json flag is set.
func jsonOutput(cmd *cobra.Command) bool {
	j, _ := cmd.Root().PersistentFlags().GetBool("json")
	return j
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	status, err := client.GetStatus(cmd.Context())
	if err != nil {
		if jsonOutput(cmd) {
			printJSON(map[string]interface{}{"reachable": false, "error": err.Error()})
			return nil
		}
		ui.PrintError("Daemon unreachable at %s: %v", client.BaseURL(), err)
		ui.PrintNextSteps([]ui.NextStep{
			{Label: "Diagnose:", Command: "reachy-mini doctor"},
			{Label: "Check the service:", Command: "reachy-mini service status"},
		})
		return err
	}

	if jsonOutput(cmd) {
		printJSON(status)
		return nil
	}

	printDaemonState(status)
	return nil
}

// printDaemonState renders a status with state-appropriate styling.
func printDaemonState(status *daemon.Status) {
	switch status.State {
	case "running":
		ui.PrintSuccess("Daemon is running")
	case "starting":
		ui.PrintInfo("Daemon is starting")
	case "stopping":
		ui.PrintInfo("Daemon is stopping")
	case "error":
		ui.PrintError("Daemon is in error state: %s", status.Error)
	default:
		ui.PrintWarning("Daemon is %s", status.State)
	}

	if status.Version != "" {
		ui.PrintDim("  version %s", status.Version)
	}
	if status.Backend != "" {
		ui.PrintDim("  backend %s", status.Backend)
	}
	if status.Uptime > 0 {
		ui.PrintDim("  up %.0fs", status.Uptime)
	}
	if status.ActiveApp != "" {
		ui.PrintDim("  running app %s", status.ActiveApp)
	}
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	if !jsonOutput(cmd) {
		if daemonStartNoWake {
			ui.StartSpinner("Powering on (no wake-up move)...")
		} else {
			ui.StartSpinner("Powering on, the robot will wake up...")
		}
	}

	status, err := client.Start(cmd.Context(), daemon.StartOptions{WakeUp: !daemonStartNoWake})
	ui.StopSpinner()

	if err != nil {
		if jsonOutput(cmd) {
			printJSON(map[string]interface{}{"ok": false, "error": err.Error()})
			return nil
		}
		ui.PrintError("Start failed: %v", err)
		return err
	}

	if jsonOutput(cmd) {
		printJSON(status)
		return nil
	}

	ui.PrintSuccess("Robot is %s", status.State)
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	if !jsonOutput(cmd) {
		ui.StartSpinner("Powering off...")
	}

	started := time.Now()
	status, err := client.Stop(cmd.Context(), daemon.StopOptions{GotoSleep: !daemonStopStayAwake})
	ui.StopSpinner()

	if err != nil {
		if jsonOutput(cmd) {
			printJSON(map[string]interface{}{"ok": false, "error": err.Error()})
			return nil
		}
		ui.PrintError("Stop failed: %v", err)
		return err
	}

	if jsonOutput(cmd) {
		printJSON(status)
		return nil
	}

	ui.PrintSuccess("Robot is %s", status.State)
	if elapsed := time.Since(started); elapsed > 15*time.Second {
		ui.PrintDim("Teardown took %s; the unit allows up to %s", elapsed.Round(time.Second), daemon.StopTimeout)
	}
	return nil
}

func runDaemonRestart(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	if !jsonOutput(cmd) {
		ui.StartSpinner("Restarting...")
	}

	status, err := client.Restart(cmd.Context(), daemon.StartOptions{WakeUp: true})
	ui.StopSpinner()

	if err != nil {
		if jsonOutput(cmd) {
			printJSON(map[string]interface{}{"ok": false, "error": err.Error()})
			return nil
		}
		ui.PrintError("Restart failed: %v", err)
		return err
	}

	if jsonOutput(cmd) {
		printJSON(status)
		return nil
	}

	ui.PrintSuccess("Robot is %s", status.State)
	return nil
}

func runDaemonLogs(cmd *cobra.Command, args []string) error {
	ctl := systemd.NewController(false)

	lines, err := ctl.JournalTail(cmd.Context(), daemonLogsLines)
	if err != nil {
		ui.PrintError("%v", err)
		ui.PrintDim("Follow live with: %s", systemd.FollowJournalArgs())
		return err
	}

	if jsonOutput(cmd) {
		printJSON(map[string]interface{}{"lines": lines})
		return nil
	}

	for _, line := range lines {
		fmt.Println(line)
	}
	if len(lines) == 0 {
		ui.PrintDim("No journal entries for %s", systemd.UnitName)
	}
	return nil
}

func runDaemonWatch(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("daemon watch needs a terminal, use 'daemon status --json' in scripts")
	}

	client := newDaemonClient(cmd)
	model := tui.NewWatchModel(client)

	p := tea.NewProgram(model, tea.WithContext(cmd.Context()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
