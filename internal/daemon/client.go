// Package daemon provides the HTTP client for the Reachy Mini daemon.
//
// This package handles all communication with the daemon running on the
// robot, including lifecycle control (start, stop, restart), status
// queries, camera access, and the WebSocket event stream.
package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pollen-robotics/reachy-mini-cli/internal/config"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// StartTimeout bounds the daemon start call. Waking the robot moves the
// head and antennas, which takes a few seconds.
const StartTimeout = 60 * time.Second

// StopTimeout bounds the daemon stop call. Matches the unit file's
// TimeoutStopSec: the sleep move and media teardown can be slow.
const StopTimeout = 90 * time.Second

// Client is the Reachy Mini daemon client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new daemon client using the configured daemon URL.
//
// Returns:
//   - *Client: A new client instance
func NewClient() *Client {
	return NewClientWithBaseURL(config.GetDaemonURL(false))
}

// NewClientWithDevMode creates a new daemon client with dev mode support.
// When devMode is true, the client probes common alternative ports if the
// configured one is not listening.
//
// Parameters:
//   - devMode: If true, auto-detect the daemon port
//
// Returns:
//   - *Client: A new client instance
func NewClientWithDevMode(devMode bool) *Client {
	return NewClientWithBaseURL(config.GetDaemonURL(devMode))
}

// NewClientWithBaseURL creates a new daemon client with a custom base URL.
//
// Parameters:
//   - baseURL: The base URL for the daemon API
//
// Returns:
//   - *Client: A new client instance
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// BaseURL returns the base URL used by this client.
//
// Returns:
//   - string: The daemon base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents an error response from the daemon API.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

// Error returns a human-readable error message.
//
// Returns:
//   - string: The error message, with fallback to HTTP status if no message available
func (e *APIError) Error() string {
	if e.Message != "" && e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// doRequest performs an HTTP request against the daemon.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "reachy-mini-cli/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// parseResponse parses the response body into the target struct.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)

		// FastAPI puts errors in "detail", but accept common variants.
		var errResp struct {
			Error   string `json:"error"`
			Detail  string `json:"detail"`
			Message string `json:"message"`
		}
		json.Unmarshal(body, &errResp)

		message := errResp.Error
		if message == "" {
			message = errResp.Message
		}
		detail := errResp.Detail

		// Fallback to raw body if no structured error found
		if message == "" && detail == "" {
			bodyStr := string(body)
			if len(bodyStr) > 200 {
				bodyStr = bodyStr[:200] + "..."
			}
			if bodyStr != "" {
				detail = bodyStr
			}
		}

		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Detail:     detail,
		}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Status represents the daemon's reported state.
type Status struct {
	// State is the lifecycle state: stopped, starting, running, stopping
	// or error.
	State string `json:"state"`

	// Version is the daemon software version.
	Version string `json:"version,omitempty"`

	// Uptime is the daemon uptime in seconds.
	Uptime float64 `json:"uptime_s,omitempty"`

	// Error holds the failure reason when State is "error".
	Error string `json:"error,omitempty"`

	// Backend is the hardware backend in use (e.g. "serial", "mock").
	Backend string `json:"backend,omitempty"`

	// ActiveApp is the name of the currently running app, if any.
	ActiveApp string `json:"active_app,omitempty"`
}

// IsRunning reports whether the daemon considers the robot operational.
func (s *Status) IsRunning() bool {
	return s.State == "running"
}

// GetStatus queries the daemon state.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - *Status: The daemon status
//   - error: Any error that occurred
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/daemon/status", nil)
	if err != nil {
		return nil, err
	}

	var result Status
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// StartOptions controls daemon startup behavior.
type StartOptions struct {
	// WakeUp plays the wake-up move after the motors come online.
	// The daemon defaults to waking up, so this should normally be true.
	WakeUp bool
}

// Start asks the daemon to power on the robot.
//
// Parameters:
//   - ctx: Context for cancellation
//   - opts: Startup options
//
// Returns:
//   - *Status: The daemon status after the start request
//   - error: Any error that occurred
func (c *Client) Start(ctx context.Context, opts StartOptions) (*Status, error) {
	path := "/api/daemon/start?wake_up=" + strconv.FormatBool(opts.WakeUp)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "reachy-mini-cli/1.0")

	// Starting can outlast the default timeout while the robot wakes up.
	client := &http.Client{Timeout: StartTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var result Status
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// StopOptions controls daemon shutdown behavior.
type StopOptions struct {
	// GotoSleep plays the sleep move before powering the motors off.
	GotoSleep bool
}

// Stop asks the daemon to power down the robot.
//
// Parameters:
//   - ctx: Context for cancellation
//   - opts: Shutdown options
//
// Returns:
//   - *Status: The daemon status after the stop request
//   - error: Any error that occurred
func (c *Client) Stop(ctx context.Context, opts StopOptions) (*Status, error) {
	path := "/api/daemon/stop?goto_sleep=" + strconv.FormatBool(opts.GotoSleep)

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "reachy-mini-cli/1.0")

	// Teardown is granted the same window systemd gives the unit.
	client := &http.Client{Timeout: StopTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var result Status
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Restart stops the robot and starts it again. The daemon has no single
// restart endpoint, so the documented stop and start calls are chained.
// The sleep move is skipped on the way down since the start wakes the
// robot right back up.
//
// Parameters:
//   - ctx: Context for cancellation
//   - opts: Start options applied when the daemon comes back up
//
// Returns:
//   - *Status: The daemon status after the start
//   - error: Any error that occurred
func (c *Client) Restart(ctx context.Context, opts StartOptions) (*Status, error) {
	if _, err := c.Stop(ctx, StopOptions{GotoSleep: false}); err != nil {
		return nil, fmt.Errorf("restart: %w", err)
	}
	return c.Start(ctx, opts)
}

// Ping checks whether the daemon HTTP API answers at all.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - time.Duration: The round trip time
//   - error: An error if the daemon is unreachable
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	resp, err := c.doRequest(ctx, "GET", "/api/daemon/status", nil)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return time.Since(start), nil
}

// AppInfo describes an app known to the daemon.
type AppInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	Running     bool   `json:"running,omitempty"`
}

// ListApps lists the apps installed on the robot.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - []AppInfo: The installed apps
//   - error: Any error that occurred
func (c *Client) ListApps(ctx context.Context) ([]AppInfo, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/apps/list", nil)
	if err != nil {
		return nil, err
	}

	var result []AppInfo
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// StartApp launches an installed app by name.
//
// Parameters:
//   - ctx: Context for cancellation
//   - name: The app name
//
// Returns:
//   - error: Any error that occurred
func (c *Client) StartApp(ctx context.Context, name string) error {
	path := "/api/apps/start?name=" + url.QueryEscape(name)
	resp, err := c.doRequest(ctx, "POST", path, nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}

// StopApp stops the currently running app.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Any error that occurred
func (c *Client) StopApp(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "POST", "/api/apps/stop", nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}
