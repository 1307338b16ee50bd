// Package hub publishes app workspaces to Hugging Face Spaces.
//
// Publishing is a two step dance: create the Space repo through the Hub
// API, then push the workspace to it with git using the access token as
// credentials.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// hubURL is the Hugging Face Hub base URL, swappable in tests.
var hubURL = "https://huggingface.co"

// apiTimeout bounds Hub API calls.
const apiTimeout = 30 * time.Second

// pushTimeout bounds the git push of the workspace.
const pushTimeout = 5 * time.Minute

// execCommand builds commands, swappable in tests.
var execCommand = exec.CommandContext

// Space identifies a Hugging Face Space.
type Space struct {
	// ID is the full Space id, e.g. "alice/my_dance_app".
	ID string

	// URL is the Space page URL.
	URL string
}

// SpaceID builds the Space id for an app published by a user.
func SpaceID(username, appName string) string {
	return username + "/" + appName
}

// SpaceURL returns the page URL for a Space id.
func SpaceURL(spaceID string) string {
	return hubURL + "/spaces/" + spaceID
}

// CreateSpace creates a Space repo on the Hub. Creating a Space that
// already exists is not an error; the existing Space is returned.
//
// Parameters:
//   - ctx: Context for cancellation
//   - token: The Hugging Face access token (needs write role)
//   - username: The owning account
//   - appName: The app name, used as the Space name
//   - private: Create the Space as private
//
// Returns:
//   - *Space: The created (or existing) Space
//   - error: Any error that occurred
func CreateSpace(ctx context.Context, token, username, appName string, private bool) (*Space, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	payload := map[string]interface{}{
		"type":         "space",
		"name":         appName,
		"organization": username,
		"private":      private,
		"sdk":          "docker",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hubURL+"/api/repos/create", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach huggingface.co: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	spaceID := SpaceID(username, appName)
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if url := gjson.GetBytes(respBody, "url").String(); url != "" {
			return &Space{ID: spaceID, URL: url}, nil
		}
		return &Space{ID: spaceID, URL: SpaceURL(spaceID)}, nil

	case resp.StatusCode == http.StatusConflict:
		// Already exists, publishing pushes to it.
		return &Space{ID: spaceID, URL: SpaceURL(spaceID)}, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("the Hub rejected the token (status %d): a write token is required to publish", resp.StatusCode)

	default:
		msg := gjson.GetBytes(respBody, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return nil, fmt.Errorf("failed to create Space (status %d): %s", resp.StatusCode, msg)
	}
}

// PushWorkspace pushes the app workspace to its Space repo. Scaffolded
// workspaces are git repositories already; anything else gets one
// initialized on the spot.
//
// Parameters:
//   - ctx: Context for cancellation
//   - dir: The app workspace root
//   - space: The target Space
//   - username: The account name, used as the git credential user
//   - token: The access token, used as the git credential password
//
// Returns:
//   - error: Any error that occurred
func PushWorkspace(ctx context.Context, dir string, space *Space, username, token string) error {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	remote := fmt.Sprintf("%s/spaces/%s", hubURL, space.ID)
	pushURL := strings.Replace(remote, "https://",
		fmt.Sprintf("https://%s:%s@", username, token), 1)

	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		if err := runGit(ctx, dir, token, "init"); err != nil {
			return err
		}
	}

	steps := [][]string{
		{"add", "-A"},
		{"commit", "-m", "Publish app", "--allow-empty"},
		{"push", pushURL, "HEAD:main", "--force"},
	}
	for _, args := range steps {
		if err := runGit(ctx, dir, token, args...); err != nil {
			return err
		}
	}
	return nil
}

// runGit executes a git command, scrubbing the token from error output.
func runGit(ctx context.Context, dir, token string, args ...string) error {
	cmd := execCommand(ctx, "git", args...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			msg = err.Error()
		}
		if token != "" {
			msg = strings.ReplaceAll(msg, token, "***")
		}
		return fmt.Errorf("git %s failed: %s", args[0], msg)
	}
	return nil
}
