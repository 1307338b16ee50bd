package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/auth"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

var authLoginToken string

// authCmd is the parent command for authentication operations.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Hugging Face authentication",
	Long: `Manage Hugging Face authentication for the reachy-mini CLI.

Publishing apps as Spaces needs a Hugging Face token with write access.
Tokens are resolved from the HF_TOKEN environment variable, then from
the CLI's own credentials file, then from the token written by the
official 'hf auth login' tooling.

EXAMPLES:
  reachy-mini auth login     # Authenticate with a token
  reachy-mini auth whoami    # Show the active account
  reachy-mini auth logout    # Forget the stored token`,
}

// authLoginCmd authenticates with a Hugging Face token.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a Hugging Face token",
	Long: `Authenticate with a Hugging Face access token.

Create a token with write access at:
  https://huggingface.co/settings/tokens

The token is validated against the Hub before it is stored in
~/.reachy-mini/credentials.json with owner-only permissions.

EXAMPLES:
  reachy-mini auth login                   # Prompt for the token
  reachy-mini auth login --token hf_xxx    # Non-interactive`,
	RunE: runAuthLogin,
}

// authLogoutCmd removes stored credentials.
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE:  runAuthLogout,
}

// authWhoamiCmd shows the active account.
var authWhoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"status"},
	Short:   "Show the authenticated account",
	RunE:    runAuthWhoami,
}

func init() {
	authLoginCmd.Flags().StringVar(&authLoginToken, "token", "", "Hugging Face access token (prompts if omitted)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
}

// runAuthLogin validates and stores a Hugging Face token.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runAuthLogin(cmd *cobra.Command, args []string) error {
	token := strings.TrimSpace(authLoginToken)

	if token == "" {
		ui.PrintInfo("Create a token with write access at https://huggingface.co/settings/tokens")
		var err error
		token, err = ui.PromptSecret("Token")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(token)
	}

	if token == "" {
		return fmt.Errorf("no token provided")
	}

	ui.StartSpinner("Validating token...")
	id, err := auth.Whoami(cmd.Context(), token)
	ui.StopSpinner()
	if err != nil {
		return err
	}

	mgr := auth.NewManager()
	creds := &auth.Credentials{
		Token:    token,
		Username: id.Username,
		Fullname: id.Fullname,
	}
	if err := mgr.SaveCredentials(creds); err != nil {
		return err
	}

	ui.PrintSuccess("Logged in as %s", id.Username)
	if !id.CanWrite {
		ui.PrintWarning("Token is read-only, publishing apps will fail")
		ui.PrintInfo("Create a token with write access to publish Spaces")
	}

	ui.PrintNextSteps([]ui.NextStep{
		{Label: "Create an app:", Command: "reachy-mini app create my_app"},
	})
	return nil
}

// runAuthLogout removes stored credentials.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runAuthLogout(cmd *cobra.Command, args []string) error {
	mgr := auth.NewManager()
	if err := mgr.ClearCredentials(); err != nil {
		return err
	}

	ui.PrintSuccess("Logged out")
	if os.Getenv("HF_TOKEN") != "" {
		ui.PrintWarning("HF_TOKEN is still set in the environment and takes precedence")
	}
	return nil
}

// runAuthWhoami shows the active account.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runAuthWhoami(cmd *cobra.Command, args []string) error {
	mgr := auth.NewManager()
	creds, err := mgr.GetCredentials()
	if err != nil {
		return err
	}
	if creds == nil || creds.Token == "" {
		if jsonOutput(cmd) {
			printJSON(map[string]interface{}{"authenticated": false})
			return nil
		}
		ui.PrintWarning("Not authenticated")
		ui.PrintNextSteps([]ui.NextStep{
			{Label: "Authenticate:", Command: "reachy-mini auth login"},
		})
		return nil
	}

	id, err := auth.Whoami(cmd.Context(), creds.Token)
	if err != nil {
		return err
	}

	if jsonOutput(cmd) {
		printJSON(map[string]interface{}{
			"authenticated": true,
			"username":      id.Username,
			"fullname":      id.Fullname,
			"orgs":          id.Orgs,
			"can_write":     id.CanWrite,
		})
		return nil
	}

	ui.PrintSuccess("Authenticated as %s", id.Username)
	if id.Fullname != "" {
		ui.PrintInfo("Name: %s", id.Fullname)
	}
	if len(id.Orgs) > 0 {
		ui.PrintInfo("Orgs: %s", strings.Join(id.Orgs, ", "))
	}
	if !id.CanWrite {
		ui.PrintWarning("Token is read-only, publishing apps will fail")
	}
	return nil
}
