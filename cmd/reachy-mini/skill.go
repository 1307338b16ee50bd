// Package main provides the skill command for managing the Reachy Mini
// agent skills.
//
// The agent skills teach AI assistants (Cursor, Claude Code, Codex) how to
// drive the robot through this CLI and how to build apps for it. They are
// embedded in the binary at compile time and can be installed to any
// supported skill directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
	"github.com/pollen-robotics/reachy-mini-cli/skills"
)

// Supported skill directory locations for each tool, ordered by preference.
// Project-level directories are listed first, user-level (global) second.
var skillDirectories = map[string][]string{
	"cursor": {".cursor/skills", "~/.cursor/skills"},
	"claude": {".claude/skills", "~/.claude/skills"},
	"codex":  {".codex/skills", "~/.codex/skills"},
}

var (
	skillExportOutput  string
	skillInstallCursor bool
	skillInstallClaude bool
	skillInstallCodex  bool
	skillInstallGlobal bool
	skillInstallForce  bool
	skillName          string
)

// skillCmd is the parent command for agent skill management.
var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Manage the Reachy Mini agent skills",
	Long: `Manage the Reachy Mini agent skills for AI coding tools.

Two skills ship with the CLI:

  reachy-mini-cli    Operating the robot: daemon, service, camera,
                     diagnostics and the troubleshooting runbook
  reachy-mini-apps   Building apps: scaffolding, validation, local dev
                     and publishing to Hugging Face Spaces

Both are embedded in the CLI binary and can be installed to any
supported tool with a single command.

EXAMPLES:
  reachy-mini skill install              # Auto-detect tool, install both
  reachy-mini skill install --claude     # Install for Claude Code
  reachy-mini skill install --global     # Install to user-level directory
  reachy-mini skill show                 # Print the CLI skill to stdout
  reachy-mini skill show --name reachy-mini-apps
  reachy-mini skill export -o SKILL.md   # Export to a file`,
}

// skillShowCmd prints an embedded skill to stdout.
var skillShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print an agent skill to stdout",
	Long: `Print an embedded skill's content to stdout.

Useful for piping into other tools or inspecting the skill content
without installing it.

EXAMPLES:
  reachy-mini skill show                           # The CLI skill
  reachy-mini skill show --name reachy-mini-apps   # The apps skill
  reachy-mini skill show > SKILL.md                # Redirect to file`,
	Args: cobra.NoArgs,
	RunE: runSkillShow,
}

// skillExportCmd writes an embedded skill to a file.
var skillExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an agent skill to a file",
	Long: `Export an embedded skill to a file on disk.

If no output path is specified, writes to ./SKILL.md in the
current directory.

EXAMPLES:
  reachy-mini skill export                          # Write to ./SKILL.md
  reachy-mini skill export -o skills/SKILL.md       # Write to custom path
  reachy-mini skill export --name reachy-mini-apps  # The apps skill`,
	Args: cobra.NoArgs,
	RunE: runSkillExport,
}

// skillInstallCmd installs both skills to the appropriate directories.
var skillInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the agent skills for your AI coding tool",
	Long: `Install the Reachy Mini agent skills to the appropriate directory
for your AI coding tool.

Without flags, auto-detects which tools are present by checking
for their configuration directories. With a tool flag, installs
to that specific tool's skill directory.

By default installs to the project-level directory (e.g. .claude/skills/).
Use --global to install to the user-level directory instead.

EXAMPLES:
  reachy-mini skill install              # Auto-detect and install
  reachy-mini skill install --cursor     # Install for Cursor (project)
  reachy-mini skill install --global     # Auto-detect, install globally
  reachy-mini skill install --force      # Overwrite existing installation`,
	Args: cobra.NoArgs,
	RunE: runSkillInstall,
}

func init() {
	skillShowCmd.Flags().StringVar(&skillName, "name", skills.CLIName, "Skill to show")
	skillExportCmd.Flags().StringVar(&skillName, "name", skills.CLIName, "Skill to export")
	skillExportCmd.Flags().StringVarP(&skillExportOutput, "output", "o", "SKILL.md", "Output file path")

	skillInstallCmd.Flags().BoolVar(&skillInstallCursor, "cursor", false, "Install for Cursor")
	skillInstallCmd.Flags().BoolVar(&skillInstallClaude, "claude", false, "Install for Claude Code")
	skillInstallCmd.Flags().BoolVar(&skillInstallCodex, "codex", false, "Install for Codex")
	skillInstallCmd.Flags().BoolVar(&skillInstallGlobal, "global", false, "Install to user-level (global) directory instead of project-level")
	skillInstallCmd.Flags().BoolVar(&skillInstallForce, "force", false, "Overwrite existing skill installation")

	skillCmd.AddCommand(skillShowCmd)
	skillCmd.AddCommand(skillExportCmd)
	skillCmd.AddCommand(skillInstallCmd)
}

// lookupSkill resolves a skill name to its embedded content.
func lookupSkill(name string) (string, error) {
	content, ok := skills.All[name]
	if !ok {
		names := make([]string, 0, len(skills.All))
		for n := range skills.All {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", fmt.Errorf("unknown skill %q: choose %s", name, strings.Join(names, " or "))
	}
	return content, nil
}

// runSkillShow prints an embedded skill to stdout.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command arguments (unused, validated as empty by cobra)
//
// Returns:
//   - error: Any error that occurred during output
func runSkillShow(cmd *cobra.Command, args []string) error {
	content, err := lookupSkill(skillName)
	if err != nil {
		return err
	}
	fmt.Print(content)
	return nil
}

// runSkillExport writes an embedded skill to a file on disk.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command arguments (unused, validated as empty by cobra)
//
// Returns:
//   - error: If the file cannot be created or written
func runSkillExport(cmd *cobra.Command, args []string) error {
	content, err := lookupSkill(skillName)
	if err != nil {
		return err
	}

	outputPath := skillExportOutput
	dir := filepath.Dir(outputPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write skill file: %w", err)
	}

	ui.PrintSuccess("Exported %s to %s", skillName, outputPath)
	return nil
}

// runSkillInstall installs both skills to the appropriate directories.
//
// When no tool flag is provided, auto-detects installed tools by checking
// for their configuration directories. When --global is set, installs to
// the user-level directory instead of project-level.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command arguments (unused, validated as empty by cobra)
//
// Returns:
//   - error: If installation fails
func runSkillInstall(cmd *cobra.Command, args []string) error {
	targets := resolveInstallTargets()

	if len(targets) == 0 {
		ui.PrintError("No supported AI tools detected.")
		ui.Println()
		ui.PrintInfo("Specify a tool explicitly:")
		ui.PrintDim("  reachy-mini skill install --cursor")
		ui.PrintDim("  reachy-mini skill install --claude")
		ui.PrintDim("  reachy-mini skill install --codex")
		return fmt.Errorf("no install target found")
	}

	var installed []string
	var errors []string

	for _, target := range targets {
		for name, content := range skills.All {
			if err := installSkillTo(target, name, content); err != nil {
				errors = append(errors, fmt.Sprintf("%s: %v", target, err))
			}
		}
		installed = append(installed, target)
	}

	if len(errors) > 0 {
		ui.Println()
		ui.PrintWarning("Some installations failed:")
		for _, e := range errors {
			ui.PrintDim("  %s", e)
		}
		if len(errors) == len(targets)*len(skills.All) {
			return fmt.Errorf("all installations failed")
		}
	}

	ui.Println()
	ui.PrintSuccess("Installed Reachy Mini agent skills to:")
	for _, path := range installed {
		ui.PrintDim("  %s", path)
	}
	ui.Println()
	ui.PrintInfo("The skills will be automatically discovered by your AI agent.")
	ui.PrintInfo("Restart your IDE if it was already running.")

	return nil
}

// resolveInstallTargets determines which directories to install the skills
// to based on the provided flags and auto-detection.
//
// Returns:
//   - []string: List of resolved directory paths to install to
func resolveInstallTargets() []string {
	explicitTools := make([]string, 0)
	if skillInstallCursor {
		explicitTools = append(explicitTools, "cursor")
	}
	if skillInstallClaude {
		explicitTools = append(explicitTools, "claude")
	}
	if skillInstallCodex {
		explicitTools = append(explicitTools, "codex")
	}

	if len(explicitTools) > 0 {
		return resolveDirectories(explicitTools)
	}

	// Auto-detect: check which tool directories exist
	detected := make([]string, 0)
	for toolName, dirs := range skillDirectories {
		for _, dir := range dirs {
			expanded := expandHome(dir)
			if _, err := os.Stat(expanded); err == nil {
				detected = append(detected, toolName)
				break
			}
		}
	}

	if len(detected) == 0 {
		return nil
	}

	sort.Strings(detected)
	return resolveDirectories(detected)
}

// resolveDirectories maps tool names to their target install directories,
// respecting the --global flag.
//
// Parameters:
//   - tools: List of tool names (cursor, claude, codex)
//
// Returns:
//   - []string: Resolved directory paths
func resolveDirectories(tools []string) []string {
	paths := make([]string, 0, len(tools))

	for _, toolName := range tools {
		dirs, ok := skillDirectories[toolName]
		if !ok {
			continue
		}

		// dirs[0] = project-level, dirs[1] = user-level (global)
		idx := 0
		if skillInstallGlobal {
			idx = 1
		}

		if idx < len(dirs) {
			paths = append(paths, expandHome(dirs[idx]))
		}
	}

	return paths
}

// installSkillTo writes one skill to the given base skill directory.
// Creates the full path: <baseDir>/<name>/SKILL.md
//
// Parameters:
//   - baseDir: The skill directory root (e.g. .claude/skills)
//   - name: The skill name, used as the subdirectory
//   - content: The skill file content
//
// Returns:
//   - error: If the directory cannot be created or file cannot be written
func installSkillTo(baseDir, name, content string) error {
	skillDir := filepath.Join(baseDir, name)
	skillPath := filepath.Join(skillDir, skills.SkillFileName)

	if !skillInstallForce {
		if _, err := os.Stat(skillPath); err == nil {
			ui.PrintDim("  Already installed at %s (use --force to overwrite)", skillPath)
			return nil
		}
	}

	if err := os.MkdirAll(skillDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", skillDir, err)
	}

	if err := os.WriteFile(skillPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", skillPath, err)
	}

	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
//
// Parameters:
//   - path: File path that may start with ~
//
// Returns:
//   - string: Path with ~ expanded to the actual home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			home = os.Getenv("USERPROFILE")
		} else {
			home = os.Getenv("HOME")
		}
	}

	return filepath.Join(home, path[1:])
}
