package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/auth"
	"github.com/pollen-robotics/reachy-mini-cli/internal/config"
	"github.com/pollen-robotics/reachy-mini-cli/internal/hub"
	"github.com/pollen-robotics/reachy-mini-cli/internal/scaffold"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

var (
	appCreateTemplate string
	appCreatePublish  bool
	appCreatePrivate  bool
	appCreateDir      string
	appDevPython      string
)

// appCmd is the parent command for app development operations.
var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Create, develop and run Reachy Mini apps",
	Long: `Create, develop and run Reachy Mini apps.

Apps are Python packages exposing a ReachyMiniApp entry point. The CLI
scaffolds them from templates, validates their structure, runs them
locally with auto-restart and publishes them as Hugging Face Spaces.

EXAMPLES:
  reachy-mini app create my_dance_app            # New app from template
  reachy-mini app check                          # Validate the workspace
  reachy-mini app dev                            # Run with auto-restart
  reachy-mini app list                           # Apps known to the daemon
  reachy-mini app start my_dance_app             # Run on the robot`,
}

// appCreateCmd scaffolds a new app workspace.
var appCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new app from a template",
	Long: `Create a new app workspace from a template.

The name must be snake_case (lowercase letters, digits, underscores,
starting with a letter). Two templates exist:

  simple        A minimal app swaying the robot's head (default)
  conversation  A fork of the conversation app with a locked voice profile

With --publish the app is also created as a Hugging Face Space and the
workspace is pushed to it. This needs a token with write access.

EXAMPLES:
  reachy-mini app create my_dance_app
  reachy-mini app create chatty --template conversation
  reachy-mini app create my_dance_app --publish --private`,
	Args: cobra.ExactArgs(1),
	RunE: runAppCreate,
}

// appCheckCmd validates an app workspace.
var appCheckCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Validate an app workspace",
	Long: `Validate an app workspace.

Checks pyproject.toml, the SDK dependency, the reachy_mini_apps entry
point and the package layout. Run from the workspace root or pass a
directory.

EXAMPLES:
  reachy-mini app check               # Check the current workspace
  reachy-mini app check ./my_app      # Check another directory
  reachy-mini app check --json        # Machine-readable findings`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAppCheck,
}

// appDevCmd runs the app locally with auto-restart.
var appDevCmd = &cobra.Command{
	Use:   "dev [dir]",
	Short: "Run the app locally, restarting on changes",
	Long: `Run the app locally and restart it whenever a source file changes.

Watches .py, .toml, .yaml and .json files in the workspace. The app is
launched with 'uv run' when uv is available, otherwise with the python
interpreter on PATH. Stop with Ctrl+C.

EXAMPLES:
  reachy-mini app dev                      # Run the current workspace
  reachy-mini app dev --python .venv/bin/python`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAppDev,
}

// appListCmd lists apps known to the daemon.
var appListCmd = &cobra.Command{
	Use:   "list",
	Short: "List apps installed on the robot",
	RunE:  runAppList,
}

// appStartCmd starts an installed app on the robot.
var appStartCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start an installed app on the robot",
	Args:  cobra.ExactArgs(1),
	RunE:  runAppStart,
}

// appStopCmd stops the running app.
var appStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running app",
	RunE:  runAppStop,
}

func init() {
	appCreateCmd.Flags().StringVar(&appCreateTemplate, "template", scaffold.TemplateSimple, "Template: simple or conversation")
	appCreateCmd.Flags().BoolVar(&appCreatePublish, "publish", false, "Also create and push a Hugging Face Space")
	appCreateCmd.Flags().BoolVar(&appCreatePrivate, "private", false, "Make the published Space private")
	appCreateCmd.Flags().StringVar(&appCreateDir, "dir", "", "Parent directory (default: current directory)")
	appDevCmd.Flags().StringVar(&appDevPython, "python", "", "Python interpreter to run the app with")

	appCmd.AddCommand(appCreateCmd)
	appCmd.AddCommand(appCheckCmd)
	appCmd.AddCommand(appDevCmd)
	appCmd.AddCommand(appListCmd)
	appCmd.AddCommand(appStartCmd)
	appCmd.AddCommand(appStopCmd)
}

// runAppCreate scaffolds a new app and optionally publishes it.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments, args[0] is the app name
//
// Returns:
//   - error: Any error that occurred
func runAppCreate(cmd *cobra.Command, args []string) error {
	name := args[0]

	// Validate publish credentials before touching the filesystem.
	var creds *auth.Credentials
	var identity *auth.Identity
	if appCreatePublish {
		mgr := auth.NewManager()
		var err error
		creds, err = mgr.GetCredentials()
		if err != nil {
			return err
		}
		if creds == nil || creds.Token == "" {
			ui.PrintError("Publishing needs a Hugging Face token")
			ui.PrintNextSteps([]ui.NextStep{
				{Label: "Authenticate:", Command: "reachy-mini auth login"},
			})
			return fmt.Errorf("not authenticated")
		}
		identity, err = auth.Whoami(cmd.Context(), creds.Token)
		if err != nil {
			return err
		}
		if !identity.CanWrite {
			return fmt.Errorf("token for %s is read-only, publishing needs write access", identity.Username)
		}
	}

	ui.StartSpinner(fmt.Sprintf("Creating %s from the %s template...", name, appCreateTemplate))
	result, err := scaffold.Create(scaffold.Options{
		Name:     name,
		Template: appCreateTemplate,
		Dir:      appCreateDir,
	})
	ui.StopSpinner()
	if err != nil {
		return err
	}

	cfg := &config.ProjectConfig{
		AppName:  name,
		Template: result.Template,
		Spaces:   map[string]string{},
		Env:      map[string]string{},
	}

	ui.PrintSuccess("Created %s", result.Path)
	ui.PrintInfo("Entry class: %s", result.ClassName)

	if appCreatePublish {
		space, err := publishApp(cmd.Context(), result.Path, name, identity.Username, creds.Token)
		if err != nil {
			// The workspace exists and is usable, report and keep it.
			ui.PrintError("Publish failed: %v", err)
			ui.PrintInfo("The local workspace was kept, retry with 'reachy-mini app create --publish' after fixing the issue")
		} else {
			cfg.Spaces[name] = space.ID
			ui.PrintSuccess("Published to %s", space.URL)
			if err := clipboard.WriteAll(space.URL); err == nil {
				ui.PrintDim("Space URL copied to clipboard")
			}
		}
	}

	if err := config.WriteProjectConfig(result.Path, cfg); err != nil {
		ui.PrintWarning("Could not write project config: %v", err)
	}

	steps := []ui.NextStep{
		{Label: "Validate it:", Command: fmt.Sprintf("cd %s && reachy-mini app check", name)},
		{Label: "Run it locally:", Command: "reachy-mini app dev"},
	}
	ui.PrintNextSteps(steps)
	return nil
}

// publishApp creates the Space and pushes the workspace to it.
func publishApp(ctx context.Context, dir, name, username, token string) (*hub.Space, error) {
	ui.StartSpinner("Creating Space on the Hub...")
	space, err := hub.CreateSpace(ctx, token, username, name, appCreatePrivate)
	ui.StopSpinner()
	if err != nil {
		return nil, err
	}

	ui.StartSpinner("Pushing workspace...")
	err = hub.PushWorkspace(ctx, dir, space, username, token)
	ui.StopSpinner()
	if err != nil {
		return nil, err
	}
	return space, nil
}

// runAppCheck validates an app workspace.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments, args[0] is an optional directory
//
// Returns:
//   - error: Any error that occurred
func runAppCheck(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if root := config.FindProjectRoot(dir); root != "" {
		dir = root
	}

	report, err := scaffold.Check(dir)
	if err != nil {
		return err
	}

	if jsonOutput(cmd) {
		printJSON(report)
		if !report.Passed() {
			return fmt.Errorf("check failed")
		}
		return nil
	}

	for _, res := range report.Results {
		switch res.Status {
		case scaffold.CheckPass:
			fmt.Printf("  %s %s\n", ui.SuccessStyle.Render("✓"), res.Message)
		case scaffold.CheckWarn:
			fmt.Printf("  %s %s\n", ui.WarningStyle.Render("⚠"), res.Message)
		case scaffold.CheckFail:
			fmt.Printf("  %s %s\n", ui.ErrorStyle.Render("✗"), res.Message)
		}
	}
	ui.Println()

	if !report.Passed() {
		ui.PrintError("Workspace has problems")
		return fmt.Errorf("check failed")
	}

	ui.PrintSuccess("%s looks good", report.AppName)
	if cfg, err := config.LoadProjectConfig(dir); err == nil {
		if spaceID, ok := cfg.Spaces[report.AppName]; ok {
			ui.PrintLink("Published at", "https://huggingface.co/spaces/"+spaceID)
		}
	}
	return nil
}

// runAppDev runs the app locally with auto-restart.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments, args[0] is an optional directory
//
// Returns:
//   - error: Any error that occurred
func runAppDev(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if root := config.FindProjectRoot(dir); root != "" {
		dir = root
	}

	report, err := scaffold.Check(dir)
	if err != nil {
		return err
	}
	if !report.Passed() {
		ui.PrintError("Workspace has problems, fix them first")
		ui.PrintNextSteps([]ui.NextStep{
			{Label: "See what failed:", Command: "reachy-mini app check"},
		})
		return fmt.Errorf("check failed")
	}

	cfg, err := config.LoadProjectConfig(dir)
	if err != nil {
		return err
	}

	launcher, launchArgs, err := devLauncher(dir, report.AppName)
	if err != nil {
		return err
	}
	log.Debug("Launching app", "launcher", launcher, "args", launchArgs, "dir", dir)
	ui.PrintInfo("Running %s with %s, watching for changes (Ctrl+C to stop)", report.AppName, launcher)

	run := func(ctx context.Context) error {
		c := exec.CommandContext(ctx, launcher, launchArgs...)
		c.Dir = dir
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		c.Env = os.Environ()
		for k, v := range cfg.Env {
			c.Env = append(c.Env, k+"="+v)
		}
		return c.Run()
	}

	return scaffold.DevLoop(cmd.Context(), dir, run, func(event string) {
		ui.PrintDim("%s", event)
	})
}

// devLauncher picks the command used to run the app. Prefers uv when
// present since the templates are uv projects.
func devLauncher(dir, appName string) (string, []string, error) {
	entry := devEntryFile(dir, appName)
	if entry == "" {
		return "", nil, fmt.Errorf("no main.py found under src/%s/ or %s/", appName, appName)
	}

	if appDevPython != "" {
		return appDevPython, []string{entry}, nil
	}
	if _, err := exec.LookPath("uv"); err == nil {
		return "uv", []string{"run", "python", entry}, nil
	}
	return "python3", []string{entry}, nil
}

// devEntryFile locates the app's entry file relative to the workspace
// root, preferring the src layout.
func devEntryFile(dir, appName string) string {
	for _, rel := range []string{
		filepath.Join("src", appName, "main.py"),
		filepath.Join(appName, "main.py"),
	} {
		if _, err := os.Stat(filepath.Join(dir, rel)); err == nil {
			return rel
		}
	}
	return ""
}

// runAppList lists apps known to the daemon.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runAppList(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	apps, err := client.ListApps(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	if jsonOutput(cmd) {
		printJSON(apps)
		return nil
	}

	if len(apps) == 0 {
		ui.PrintInfo("No apps installed on the robot")
		ui.PrintNextSteps([]ui.NextStep{
			{Label: "Create one:", Command: "reachy-mini app create my_app"},
		})
		return nil
	}

	for _, app := range apps {
		if app.Running {
			fmt.Printf("  %s %s %s\n", ui.SuccessStyle.Render("●"), app.Name, ui.DimStyle.Render("(running)"))
		} else {
			fmt.Printf("  %s %s\n", ui.DimStyle.Render("○"), app.Name)
		}
	}
	return nil
}

// runAppStart starts an installed app on the robot.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments, args[0] is the app name
//
// Returns:
//   - error: Any error that occurred
func runAppStart(cmd *cobra.Command, args []string) error {
	name := args[0]
	client := newDaemonClient(cmd)

	ui.StartSpinner(fmt.Sprintf("Starting %s...", name))
	err := client.StartApp(cmd.Context(), name)
	ui.StopSpinner()
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			ui.PrintNextSteps([]ui.NextStep{
				{Label: "See installed apps:", Command: "reachy-mini app list"},
			})
		}
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	ui.PrintSuccess("%s started", name)
	ui.PrintNextSteps([]ui.NextStep{
		{Label: "Watch it:", Command: "reachy-mini daemon watch"},
	})
	return nil
}

// runAppStop stops the running app.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runAppStop(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	if err := client.StopApp(cmd.Context()); err != nil {
		return fmt.Errorf("failed to stop the running app: %w", err)
	}

	ui.PrintSuccess("App stopped")
	return nil
}
