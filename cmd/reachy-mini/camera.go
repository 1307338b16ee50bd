package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pollen-robotics/reachy-mini-cli/internal/config"
	"github.com/pollen-robotics/reachy-mini-cli/internal/daemon"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

var (
	cameraFrameOutput   string
	cameraFrameQuality  int
	cameraStreamQuality int
	cameraStreamFPS     int
	cameraStreamProbe   bool
)

// probeSDP is a minimal receive-only offer, enough for the signalling
// server to build an answer without opening a media session.
const probeSDP = "v=0\r\n" +
	"o=- 0 0 IN IP4 127.0.0.1\r\n" +
	"s=-\r\n" +
	"t=0 0\r\n" +
	"m=video 9 UDP/TLS/RTP/SAVPF 96\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"a=recvonly\r\n" +
	"a=rtpmap:96 VP8/90000\r\n"

// cameraCmd is the parent command for camera operations.
var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Inspect and capture from the robot camera",
	Long: `Inspect the robot camera and capture frames through the daemon.

The camera is owned by the daemon process. When an app holds the camera
the daemon reports it as in use and frame capture returns an error.

EXAMPLES:
  reachy-mini camera status             # Who holds the camera
  reachy-mini camera frame -o shot.jpg  # Grab a single JPEG
  reachy-mini camera stream             # Print the MJPEG stream URL`,
}

// cameraStatusCmd reports camera availability.
var cameraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show camera availability and resolution",
	RunE:  runCameraStatus,
}

// cameraFrameCmd captures a single JPEG frame.
var cameraFrameCmd = &cobra.Command{
	Use:   "frame",
	Short: "Capture a single JPEG frame",
	Long: `Capture a single JPEG frame from the robot camera.

The frame is written to the path given with -o. Without -o a timestamped
file is written to the current directory.

EXAMPLES:
  reachy-mini camera frame                     # frame-20260829-153000.jpg
  reachy-mini camera frame -o shot.jpg         # Explicit path
  reachy-mini camera frame --quality 95        # Higher JPEG quality`,
	RunE: runCameraFrame,
}

// cameraStreamCmd prints stream endpoints.
var cameraStreamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Show streaming endpoints",
	Long: `Show the camera streaming endpoints.

Prints the MJPEG URL for browsers and tools like VLC, and probes the
WebRTC media port used by the web dashboard. With --probe a real SDP
offer is exchanged with the daemon's signalling endpoint, exercising
the full media path instead of just the port.`,
	RunE: runCameraStream,
}

func init() {
	cameraFrameCmd.Flags().StringVarP(&cameraFrameOutput, "output", "o", "", "Output file path")
	cameraFrameCmd.Flags().IntVar(&cameraFrameQuality, "quality", daemon.DefaultFrameQuality, "JPEG quality (1-100)")
	cameraStreamCmd.Flags().IntVar(&cameraStreamQuality, "quality", daemon.DefaultStreamQuality, "MJPEG JPEG quality (1-100)")
	cameraStreamCmd.Flags().IntVar(&cameraStreamFPS, "fps", daemon.DefaultStreamFPS, "MJPEG frame rate (1-30)")
	cameraStreamCmd.Flags().BoolVar(&cameraStreamProbe, "probe", false, "Exchange an SDP offer with the signalling server")

	cameraCmd.AddCommand(cameraStatusCmd)
	cameraCmd.AddCommand(cameraFrameCmd)
	cameraCmd.AddCommand(cameraStreamCmd)
}

// runCameraStatus shows camera availability.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runCameraStatus(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	status, err := client.GetCameraStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get camera status: %w", err)
	}

	if jsonOutput(cmd) {
		printJSON(status)
		return nil
	}

	if !status.Available {
		ui.PrintWarning("Camera not available")
		ui.PrintNextSteps([]ui.NextStep{
			{Label: "Check the daemon:", Command: "reachy-mini doctor"},
		})
		return nil
	}

	ui.PrintSuccess("Camera available on %s (%dx%d)", status.Device, status.Width, status.Height)
	if status.InUse {
		ui.PrintInfo("Currently held by a running app, frame capture will fail")
	}
	return nil
}

// runCameraFrame captures one frame to disk.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runCameraFrame(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	output := cameraFrameOutput
	if output == "" {
		output = fmt.Sprintf("frame-%s.jpg", time.Now().Format("20060102-150405"))
	}

	ui.StartSpinner("Capturing frame...")
	data, err := client.GetCameraFrame(cmd.Context(), cameraFrameQuality)
	ui.StopSpinner()
	if err != nil {
		return fmt.Errorf("failed to capture frame: %w", err)
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if jsonOutput(cmd) {
		printJSON(map[string]interface{}{
			"path":  output,
			"bytes": len(data),
		})
		return nil
	}

	ui.PrintSuccess("Wrote %s (%d bytes)", output, len(data))
	return nil
}

// runCameraStream prints stream endpoints and probes WebRTC.
//
// Parameters:
//   - cmd: The cobra command being executed
//   - args: Command line arguments (unused)
//
// Returns:
//   - error: Any error that occurred
func runCameraStream(cmd *cobra.Command, args []string) error {
	client := newDaemonClient(cmd)

	mjpegURL := client.MJPEGStreamURL(cameraStreamQuality, cameraStreamFPS)
	webrtcUp := daemon.CheckWebRTC()

	// Signalling runs on the daemon API, so the offer is worth trying
	// even when the media port probe fails.
	var probeErr error
	probed := false
	if cameraStreamProbe {
		probed = true
		_, probeErr = client.WebRTCOffer(cmd.Context(), &daemon.SessionDescription{
			Type: "offer",
			SDP:  probeSDP,
		})
	}

	if jsonOutput(cmd) {
		out := map[string]interface{}{
			"mjpeg_url":      mjpegURL,
			"webrtc_address": config.GetWebRTCAddress(),
			"webrtc_up":      webrtcUp,
		}
		if probed {
			out["offer_answered"] = probeErr == nil
			if probeErr != nil {
				out["offer_error"] = probeErr.Error()
			}
		}
		printJSON(out)
		return nil
	}

	ui.PrintLink("MJPEG stream", mjpegURL)
	if webrtcUp {
		ui.PrintSuccess("WebRTC media listener on %s", config.GetWebRTCAddress())
	} else {
		ui.PrintWarning("WebRTC media port %s is closed", config.WebRTCPort)
	}
	if probed {
		if probeErr == nil {
			ui.PrintSuccess("Daemon answered the SDP offer")
		} else {
			ui.PrintWarning("Daemon rejected the SDP offer: %v", probeErr)
		}
	}

	ui.PrintNextSteps([]ui.NextStep{
		{Label: "Open in VLC:", Command: "vlc " + mjpegURL},
	})
	return nil
}
