package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// conversationRepo is the upstream conversation app this template forks.
const conversationRepo = "https://github.com/pollen-robotics/reachy_mini_conversation_app"

// conversationPackage is the upstream package name being renamed away.
const conversationPackage = "reachy_mini_conversation_app"

// cloneTimeout bounds the template clone.
const cloneTimeout = 3 * time.Minute

// cleanupDirs are upstream housekeeping directories a fork does not keep.
var cleanupDirs = []string{".github", ".idea", ".vscode"}

// cleanupFiles are upstream files a fork does not keep.
var cleanupFiles = []string{"uv.lock", "CONTRIBUTING.md", "CODE_OF_CONDUCT.md"}

// execCommand builds commands, swappable in tests.
var execCommand = exec.CommandContext

// fork creates an app by forking the conversation template repo.
func fork(opts Options, target string) (*Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cloneTimeout)
	defer cancel()

	// The develop branch carries the fork-ready layout.
	if err := runGit(ctx, "", "clone", "--depth", "1", "-b", "develop", conversationRepo, target); err != nil {
		return nil, fmt.Errorf("failed to clone conversation template: %w", err)
	}

	cleanup := func() { os.RemoveAll(target) }

	// Drop upstream history; the fork starts fresh.
	if err := os.RemoveAll(filepath.Join(target, ".git")); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to remove upstream history: %w", err)
	}
	for _, dir := range cleanupDirs {
		os.RemoveAll(filepath.Join(target, dir))
	}
	for _, file := range cleanupFiles {
		os.Remove(filepath.Join(target, file))
	}

	if err := RenameProject(target, conversationPackage, opts.Name); err != nil {
		cleanup()
		return nil, err
	}

	if err := lockProfile(target, opts.Name); err != nil {
		cleanup()
		return nil, err
	}

	// Fresh repository so the first commit is the user's.
	if err := runGit(ctx, target, "init"); err != nil {
		// A missing git is not fatal for the workspace itself.
		if !strings.Contains(err.Error(), "executable file not found") {
			cleanup()
			return nil, fmt.Errorf("failed to init repository: %w", err)
		}
	}

	return &Result{
		Path:      target,
		ClassName: ToPascalCase(opts.Name),
		Template:  TemplateConversation,
	}, nil
}

// profileInstructions seeds the locked profile's system prompt.
const profileInstructions = `You are a friendly assistant living inside a Reachy Mini robot.
Describe your assistant's personality and behavior here.
`

// profileTools lists the tools the locked profile may use. "all" keeps
// every tool available.
const profileTools = "all\n"

// lockProfile creates the fork's locked conversation profile and pins
// the app to it, so upstream profile updates do not change a published
// app's behavior. The upstream profiles are dropped; only the locked
// one ships.
func lockProfile(target, name string) error {
	profileName := fmt.Sprintf("_%s_locked_profile", name)
	pkgDir := filepath.Join(target, "src", name)
	profilesDir := filepath.Join(pkgDir, "profiles")

	profileDir := filepath.Join(profilesDir, profileName)
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(profileDir, "instructions.txt"), []byte(profileInstructions), 0o644); err != nil {
		return fmt.Errorf("failed to write profile instructions: %w", err)
	}
	if err := os.WriteFile(filepath.Join(profileDir, "tools.txt"), []byte(profileTools), 0o644); err != nil {
		return fmt.Errorf("failed to write profile tools: %w", err)
	}

	entries, err := os.ReadDir(profilesDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() && entry.Name() != profileName {
				os.RemoveAll(filepath.Join(profilesDir, entry.Name()))
			}
		}
	}

	return pinLockedProfile(filepath.Join(pkgDir, "config.py"), profileName)
}

// pinLockedProfile sets the LOCKED_PROFILE constant in the app's
// config.py. A changed upstream layout is tolerated; the app then falls
// back to runtime profile selection.
func pinLockedProfile(configPath, profileName string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil
	}

	const unset = "LOCKED_PROFILE: str | None = None"
	if !strings.Contains(string(data), unset) {
		return nil
	}

	pinned := fmt.Sprintf("LOCKED_PROFILE: str | None = %q", profileName)
	updated := strings.Replace(string(data), unset, pinned, 1)
	if err := os.WriteFile(configPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to pin locked profile: %w", err)
	}
	return nil
}

// runGit executes a git command in dir.
func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := execCommand(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("git %s: %s", args[0], msg)
	}
	return nil
}
