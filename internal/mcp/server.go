// Package mcp provides the MCP (Model Context Protocol) server implementation.
//
// This package exposes robot operations as tools that AI agents can call
// via the MCP protocol: daemon control, camera capture, app scaffolding
// and workspace validation.
package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pollen-robotics/reachy-mini-cli/internal/daemon"
	"github.com/pollen-robotics/reachy-mini-cli/internal/scaffold"
	"github.com/pollen-robotics/reachy-mini-cli/internal/systemd"
	"github.com/pollen-robotics/reachy-mini-cli/internal/venv"
)

// Server wraps the MCP server with robot-specific functionality.
type Server struct {
	mcpServer *mcp.Server
	client    *daemon.Client
	workDir   string
	version   string
}

// NewServer creates a new Reachy Mini MCP server.
//
// Parameters:
//   - version: The CLI version string
//
// Returns:
//   - *Server: A new server instance
//   - error: Any error that occurred during initialization
func NewServer(version string) (*Server, error) {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	s := &Server{
		client:  daemon.NewClient(),
		workDir: workDir,
		version: version,
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    "reachy-mini",
			Version: version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Any error that occurred during execution
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// registerTools registers all robot tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "daemon_status",
		Description: "Get the Reachy Mini daemon status: state, version, uptime and the active app.",
	}, s.handleDaemonStatus)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "daemon_start",
		Description: "Start the Reachy Mini daemon runtime, optionally waking the robot up.",
	}, s.handleDaemonStart)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "daemon_stop",
		Description: "Stop the Reachy Mini daemon runtime, optionally putting the robot to sleep first.",
	}, s.handleDaemonStop)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "camera_frame",
		Description: "Capture a single JPEG frame from the robot camera. Returns base64-encoded image data.",
	}, s.handleCameraFrame)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_apps",
		Description: "List apps installed on the robot and whether one is running.",
	}, s.handleListApps)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "start_app",
		Description: "Start an installed app on the robot by name.",
	}, s.handleStartApp)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "stop_app",
		Description: "Stop the app currently running on the robot.",
	}, s.handleStopApp)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_doctor",
		Description: "Run read-only health checks: daemon reachability, WebRTC media port, systemd unit state, venv ownership and integrity.",
	}, s.handleRunDoctor)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_app",
		Description: "Create a new Reachy Mini app workspace from a template (simple or conversation).",
	}, s.handleCreateApp)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "check_app",
		Description: "Validate a Reachy Mini app workspace: pyproject, SDK dependency, entry point and package layout.",
	}, s.handleCheckApp)
}

// DaemonStatusInput defines the input parameters for the daemon_status tool.
type DaemonStatusInput struct{}

// DaemonStatusOutput defines the output for the daemon_status tool.
type DaemonStatusOutput struct {
	Reachable    bool    `json:"reachable"`
	State        string  `json:"state,omitempty"`
	Version      string  `json:"version,omitempty"`
	UptimeSec    float64 `json:"uptime_s,omitempty"`
	ActiveApp    string  `json:"active_app,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// handleDaemonStatus handles the daemon_status tool call.
func (s *Server) handleDaemonStatus(ctx context.Context, req *mcp.CallToolRequest, input DaemonStatusInput) (*mcp.CallToolResult, DaemonStatusOutput, error) {
	status, err := s.client.GetStatus(ctx)
	if err != nil {
		return nil, DaemonStatusOutput{Reachable: false, ErrorMessage: err.Error()}, nil
	}

	return nil, DaemonStatusOutput{
		Reachable: true,
		State:     status.State,
		Version:   status.Version,
		UptimeSec: status.Uptime,
		ActiveApp: status.ActiveApp,
	}, nil
}

// DaemonStartInput defines the input parameters for the daemon_start tool.
type DaemonStartInput struct {
	WakeUp *bool `json:"wake_up,omitempty" jsonschema:"description=Wake the robot up after start (default true)"`
}

// DaemonStartOutput defines the output for the daemon_start tool.
type DaemonStartOutput struct {
	Success      bool   `json:"success"`
	State        string `json:"state,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleDaemonStart handles the daemon_start tool call.
func (s *Server) handleDaemonStart(ctx context.Context, req *mcp.CallToolRequest, input DaemonStartInput) (*mcp.CallToolResult, DaemonStartOutput, error) {
	wakeUp := true
	if input.WakeUp != nil {
		wakeUp = *input.WakeUp
	}

	status, err := s.client.Start(ctx, daemon.StartOptions{WakeUp: wakeUp})
	if err != nil {
		return nil, DaemonStartOutput{Success: false, ErrorMessage: err.Error()}, nil
	}

	return nil, DaemonStartOutput{Success: true, State: status.State}, nil
}

// DaemonStopInput defines the input parameters for the daemon_stop tool.
type DaemonStopInput struct {
	GotoSleep *bool `json:"goto_sleep,omitempty" jsonschema:"description=Move the robot to its sleep pose before stopping (default true)"`
}

// DaemonStopOutput defines the output for the daemon_stop tool.
type DaemonStopOutput struct {
	Success      bool   `json:"success"`
	State        string `json:"state,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleDaemonStop handles the daemon_stop tool call.
func (s *Server) handleDaemonStop(ctx context.Context, req *mcp.CallToolRequest, input DaemonStopInput) (*mcp.CallToolResult, DaemonStopOutput, error) {
	gotoSleep := true
	if input.GotoSleep != nil {
		gotoSleep = *input.GotoSleep
	}

	status, err := s.client.Stop(ctx, daemon.StopOptions{GotoSleep: gotoSleep})
	if err != nil {
		return nil, DaemonStopOutput{Success: false, ErrorMessage: err.Error()}, nil
	}

	return nil, DaemonStopOutput{Success: true, State: status.State}, nil
}

// CameraFrameInput defines the input parameters for the camera_frame tool.
type CameraFrameInput struct {
	Quality    int    `json:"quality,omitempty" jsonschema:"description=JPEG quality 1-100 (default 85)"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"description=Write the JPEG to this path instead of returning base64 data"`
}

// CameraFrameOutput defines the output for the camera_frame tool.
type CameraFrameOutput struct {
	Success      bool   `json:"success"`
	Path         string `json:"path,omitempty"`
	ImageBase64  string `json:"image_base64,omitempty"`
	Bytes        int    `json:"bytes,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleCameraFrame handles the camera_frame tool call.
func (s *Server) handleCameraFrame(ctx context.Context, req *mcp.CallToolRequest, input CameraFrameInput) (*mcp.CallToolResult, CameraFrameOutput, error) {
	data, err := s.client.GetCameraFrame(ctx, input.Quality)
	if err != nil {
		return nil, CameraFrameOutput{Success: false, ErrorMessage: err.Error()}, nil
	}

	if input.OutputPath != "" {
		path := input.OutputPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.workDir, path)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, CameraFrameOutput{Success: false, ErrorMessage: err.Error()}, nil
		}
		return nil, CameraFrameOutput{Success: true, Path: path, Bytes: len(data)}, nil
	}

	return nil, CameraFrameOutput{
		Success:     true,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		Bytes:       len(data),
	}, nil
}

// ListAppsInput defines the input parameters for the list_apps tool.
type ListAppsInput struct{}

// ListAppsOutput defines the output for the list_apps tool.
type ListAppsOutput struct {
	Apps         []daemon.AppInfo `json:"apps"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// handleListApps handles the list_apps tool call.
func (s *Server) handleListApps(ctx context.Context, req *mcp.CallToolRequest, input ListAppsInput) (*mcp.CallToolResult, ListAppsOutput, error) {
	apps, err := s.client.ListApps(ctx)
	if err != nil {
		return nil, ListAppsOutput{ErrorMessage: err.Error()}, nil
	}
	return nil, ListAppsOutput{Apps: apps}, nil
}

// StartAppInput defines the input parameters for the start_app tool.
type StartAppInput struct {
	Name string `json:"name" jsonschema:"description=The installed app's name"`
}

// StartAppOutput defines the output for the start_app tool.
type StartAppOutput struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleStartApp handles the start_app tool call.
func (s *Server) handleStartApp(ctx context.Context, req *mcp.CallToolRequest, input StartAppInput) (*mcp.CallToolResult, StartAppOutput, error) {
	if input.Name == "" {
		return nil, StartAppOutput{Success: false, ErrorMessage: "name is required"}, nil
	}

	if err := s.client.StartApp(ctx, input.Name); err != nil {
		return nil, StartAppOutput{Success: false, ErrorMessage: err.Error()}, nil
	}
	return nil, StartAppOutput{Success: true}, nil
}

// StopAppInput defines the input parameters for the stop_app tool.
type StopAppInput struct{}

// StopAppOutput defines the output for the stop_app tool.
type StopAppOutput struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleStopApp handles the stop_app tool call.
func (s *Server) handleStopApp(ctx context.Context, req *mcp.CallToolRequest, input StopAppInput) (*mcp.CallToolResult, StopAppOutput, error) {
	if err := s.client.StopApp(ctx); err != nil {
		return nil, StopAppOutput{Success: false, ErrorMessage: err.Error()}, nil
	}
	return nil, StopAppOutput{Success: true}, nil
}

// RunDoctorInput defines the input parameters for the run_doctor tool.
type RunDoctorInput struct{}

// DoctorFinding is one health check result.
type DoctorFinding struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RunDoctorOutput defines the output for the run_doctor tool.
type RunDoctorOutput struct {
	Healthy  bool            `json:"healthy"`
	Findings []DoctorFinding `json:"findings"`
}

// handleRunDoctor handles the run_doctor tool call. All checks are
// read-only; repairs go through 'reachy-mini doctor --fix'.
func (s *Server) handleRunDoctor(ctx context.Context, req *mcp.CallToolRequest, input RunDoctorInput) (*mcp.CallToolResult, RunDoctorOutput, error) {
	out := RunDoctorOutput{Healthy: true}

	record := func(name, status, message string) {
		out.Findings = append(out.Findings, DoctorFinding{Name: name, Status: status, Message: message})
		if status == "error" {
			out.Healthy = false
		}
	}

	if status, err := s.client.GetStatus(ctx); err != nil {
		record("daemon", "error", fmt.Sprintf("unreachable: %v", err))
	} else if status.State == "error" {
		record("daemon", "error", "daemon in error state: "+status.Error)
	} else {
		record("daemon", "ok", "state "+status.State)
	}

	if daemon.CheckWebRTC() {
		record("webrtc", "ok", "media port open")
	} else {
		record("webrtc", "warning", "media port closed")
	}

	if systemd.HasSystemctl() {
		ctl := systemd.NewController(false)
		if active, state := ctl.IsActive(ctx); active {
			record("service", "ok", "unit active")
		} else {
			record("service", "error", "unit is "+state)
		}
	}

	venvPath := venv.DefaultPath()
	if venv.Exists(venvPath) {
		if report, err := venv.CheckOwnership(venvPath); err == nil && !report.Clean() {
			record("venv_ownership", "error", fmt.Sprintf("%d path(s) owned by another user", report.ForeignCount))
		} else {
			record("venv_ownership", "ok", "owned by the current user")
		}
		if corrupted, err := venv.ScanCorrupted(venvPath); err == nil && len(corrupted) > 0 {
			record("venv_integrity", "error", fmt.Sprintf("%d leftover package directorie(s)", len(corrupted)))
		} else {
			record("venv_integrity", "ok", "no leftover package directories")
		}
	} else {
		record("venv", "warning", "no venv at "+venvPath)
	}

	return nil, out, nil
}

// CreateAppInput defines the input parameters for the create_app tool.
type CreateAppInput struct {
	Name     string `json:"name" jsonschema:"description=App name in snake_case (lowercase letters digits underscores)"`
	Template string `json:"template,omitempty" jsonschema:"description=Template: simple (default) or conversation"`
	Dir      string `json:"dir,omitempty" jsonschema:"description=Parent directory (default: current directory)"`
}

// CreateAppOutput defines the output for the create_app tool.
type CreateAppOutput struct {
	Success      bool   `json:"success"`
	Path         string `json:"path,omitempty"`
	ClassName    string `json:"class_name,omitempty"`
	Template     string `json:"template,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// handleCreateApp handles the create_app tool call.
func (s *Server) handleCreateApp(ctx context.Context, req *mcp.CallToolRequest, input CreateAppInput) (*mcp.CallToolResult, CreateAppOutput, error) {
	if input.Name == "" {
		return nil, CreateAppOutput{Success: false, ErrorMessage: "name is required"}, nil
	}

	dir := input.Dir
	if dir == "" {
		dir = s.workDir
	}

	result, err := scaffold.Create(scaffold.Options{
		Name:     input.Name,
		Template: input.Template,
		Dir:      dir,
	})
	if err != nil {
		return nil, CreateAppOutput{Success: false, ErrorMessage: err.Error()}, nil
	}

	return nil, CreateAppOutput{
		Success:   true,
		Path:      result.Path,
		ClassName: result.ClassName,
		Template:  result.Template,
	}, nil
}

// CheckAppInput defines the input parameters for the check_app tool.
type CheckAppInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"description=The app workspace root (default: current directory)"`
}

// CheckAppOutput defines the output for the check_app tool.
type CheckAppOutput struct {
	Passed       bool                   `json:"passed"`
	AppName      string                 `json:"app_name,omitempty"`
	Results      []scaffold.CheckResult `json:"results,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// handleCheckApp handles the check_app tool call.
func (s *Server) handleCheckApp(ctx context.Context, req *mcp.CallToolRequest, input CheckAppInput) (*mcp.CallToolResult, CheckAppOutput, error) {
	dir := input.Dir
	if dir == "" {
		dir = s.workDir
	}

	report, err := scaffold.Check(dir)
	if err != nil {
		return nil, CheckAppOutput{Passed: false, ErrorMessage: err.Error()}, nil
	}

	return nil, CheckAppOutput{
		Passed:  report.Passed(),
		AppName: report.AppName,
		Results: report.Results,
	}, nil
}
