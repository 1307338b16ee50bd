// Package reachymini provides a public API for the Reachy Mini CLI.
//
// This package exposes the core functionality of the CLI as a Go library,
// making it easy to integrate with other tools like MCP servers or custom
// automation.
//
// Example usage:
//
//	client, err := reachymini.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	status, err := client.Status(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("daemon is %s\n", status.State)
package reachymini

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pollen-robotics/reachy-mini-cli/internal/config"
	"github.com/pollen-robotics/reachy-mini-cli/internal/daemon"
	"github.com/pollen-robotics/reachy-mini-cli/internal/scaffold"
)

// Client is the main entry point for the Reachy Mini public API.
type Client struct {
	daemon    *daemon.Client
	workDir   string
	daemonURL string
	devMode   bool
}

// Option configures a Client.
type Option func(*Client) error

// WithDaemonURL points the client at a specific daemon endpoint instead
// of the configured default.
func WithDaemonURL(url string) Option {
	return func(c *Client) error {
		if url == "" {
			return fmt.Errorf("daemon URL must not be empty")
		}
		c.daemonURL = url
		return nil
	}
}

// WithDevMode enables probing of alternative daemon ports when the
// default port is closed.
func WithDevMode() Option {
	return func(c *Client) error {
		c.devMode = true
		return nil
	}
}

// WithWorkDir sets the working directory for app operations.
func WithWorkDir(dir string) Option {
	return func(c *Client) error {
		c.workDir = dir
		return nil
	}
}

// NewClient creates a new Reachy Mini client.
//
// Parameters:
//   - opts: Configuration options
//
// Returns:
//   - *Client: A new client instance
//   - error: Any error that occurred during initialization
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	switch {
	case c.daemonURL != "":
		c.daemon = daemon.NewClientWithBaseURL(c.daemonURL)
	case c.devMode:
		c.daemon = daemon.NewClientWithDevMode(true)
	default:
		c.daemon = daemon.NewClient()
	}

	if c.workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		c.workDir = cwd
	}

	return c, nil
}

// DaemonURL returns the daemon endpoint the client talks to.
func (c *Client) DaemonURL() string {
	return c.daemon.BaseURL()
}

// Status queries the daemon state.
func (c *Client) Status(ctx context.Context) (*daemon.Status, error) {
	return c.daemon.GetStatus(ctx)
}

// Ping tests daemon connectivity and returns the round trip time.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	return c.daemon.Ping(ctx)
}

// Start powers the robot on. With wakeUp the robot plays its wake-up
// move once the motors are online.
func (c *Client) Start(ctx context.Context, wakeUp bool) (*daemon.Status, error) {
	return c.daemon.Start(ctx, daemon.StartOptions{WakeUp: wakeUp})
}

// Stop powers the robot down. With gotoSleep the robot moves to its
// sleep pose before the motors are released.
func (c *Client) Stop(ctx context.Context, gotoSleep bool) (*daemon.Status, error) {
	return c.daemon.Stop(ctx, daemon.StopOptions{GotoSleep: gotoSleep})
}

// Restart stops the robot and starts it again with the wake-up move.
func (c *Client) Restart(ctx context.Context) (*daemon.Status, error) {
	return c.daemon.Restart(ctx, daemon.StartOptions{WakeUp: true})
}

// CaptureFrame grabs one JPEG frame from the robot camera.
//
// Parameters:
//   - ctx: Context for cancellation
//   - quality: JPEG quality 1-100, 0 for the default
//
// Returns:
//   - []byte: The JPEG image data
//   - error: Any error that occurred
func (c *Client) CaptureFrame(ctx context.Context, quality int) ([]byte, error) {
	return c.daemon.GetCameraFrame(ctx, quality)
}

// ListApps lists the apps installed on the robot.
func (c *Client) ListApps(ctx context.Context) ([]daemon.AppInfo, error) {
	return c.daemon.ListApps(ctx)
}

// StartApp starts an installed app by name.
func (c *Client) StartApp(ctx context.Context, name string) error {
	return c.daemon.StartApp(ctx, name)
}

// StopApp stops the currently running app.
func (c *Client) StopApp(ctx context.Context) error {
	return c.daemon.StopApp(ctx)
}

// Events opens the daemon event stream. The caller owns the returned
// client and must Close it.
func (c *Client) Events(ctx context.Context) (*daemon.EventsClient, error) {
	wsURL, err := daemon.EventsURL(c.daemon.BaseURL())
	if err != nil {
		return nil, err
	}
	ec := daemon.NewEventsClient()
	if err := ec.Connect(ctx, wsURL); err != nil {
		return nil, err
	}
	return ec, nil
}

// CreateAppOptions controls app workspace creation.
type CreateAppOptions struct {
	// Template is the scaffold template, "simple" (default) or
	// "conversation".
	Template string

	// Dir is the parent directory. Defaults to the client's work dir.
	Dir string
}

// CreateApp scaffolds a new app workspace.
//
// Parameters:
//   - name: The app name in snake_case
//   - opts: Creation options (nil for defaults)
//
// Returns:
//   - *scaffold.Result: The created workspace
//   - error: Any error that occurred
func (c *Client) CreateApp(name string, opts *CreateAppOptions) (*scaffold.Result, error) {
	if opts == nil {
		opts = &CreateAppOptions{}
	}
	dir := opts.Dir
	if dir == "" {
		dir = c.workDir
	}

	result, err := scaffold.Create(scaffold.Options{
		Name:     name,
		Template: opts.Template,
		Dir:      dir,
	})
	if err != nil {
		return nil, err
	}

	cfg := &config.ProjectConfig{
		AppName:  name,
		Template: result.Template,
		Spaces:   map[string]string{},
		Env:      map[string]string{},
	}
	if err := config.WriteProjectConfig(result.Path, cfg); err != nil {
		return nil, err
	}
	return result, nil
}

// CheckApp validates an app workspace. Pass "" to check the client's
// work dir.
func (c *Client) CheckApp(dir string) (*scaffold.CheckReport, error) {
	if dir == "" {
		dir = c.workDir
	}
	return scaffold.Check(dir)
}
