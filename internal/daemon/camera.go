package daemon

import (
	"context"
	"fmt"
	"io"
)

const (
	// DefaultFrameQuality is the JPEG quality used when none is requested.
	DefaultFrameQuality = 80

	// DefaultStreamQuality is the MJPEG JPEG quality used when none is
	// requested. Lower than single frames since the stream re-encodes
	// continuously.
	DefaultStreamQuality = 60

	// DefaultStreamFPS is the MJPEG rate used when none is requested.
	DefaultStreamFPS = 10
)

// CameraStatus reports whether the daemon has a camera and who is using it.
type CameraStatus struct {
	// Available is true when a camera device was detected.
	Available bool `json:"available"`

	// InUse is true when the camera is claimed, typically by a WebRTC
	// session or a running app.
	InUse bool `json:"in_use"`

	// Device is the camera device path (e.g. /dev/video0).
	Device string `json:"device,omitempty"`

	// Width and Height describe the active capture resolution.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// GetCameraStatus queries the daemon camera state.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - *CameraStatus: The camera status
//   - error: Any error that occurred
func (c *Client) GetCameraStatus(ctx context.Context) (*CameraStatus, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/camera/status", nil)
	if err != nil {
		return nil, err
	}

	var result CameraStatus
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// clampQuality bounds the JPEG quality to what the encoder accepts.
func clampQuality(quality int) int {
	if quality < 1 {
		return 1
	}
	if quality > 100 {
		return 100
	}
	return quality
}

// clampFPS bounds the MJPEG frame rate to what the daemon serves.
func clampFPS(fps int) int {
	if fps < 1 {
		return 1
	}
	if fps > 30 {
		return 30
	}
	return fps
}

// GetCameraFrame grabs a single JPEG frame from the camera.
//
// Parameters:
//   - ctx: Context for cancellation
//   - quality: JPEG quality, clamped to 1..100 (0 means the default)
//
// Returns:
//   - []byte: The JPEG image data
//   - error: Any error that occurred
func (c *Client) GetCameraFrame(ctx context.Context, quality int) ([]byte, error) {
	if quality == 0 {
		quality = DefaultFrameQuality
	}
	quality = clampQuality(quality)

	path := fmt.Sprintf("/api/camera/frame?quality=%d", quality)
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, parseResponse(resp, nil)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("daemon returned an empty frame")
	}

	return data, nil
}

// MJPEGStreamURL returns the URL of the daemon's MJPEG stream.
//
// Parameters:
//   - quality: JPEG quality, clamped to 1..100 (0 means the default)
//   - fps: Frame rate, clamped to 1..30 (0 means the default)
//
// Returns:
//   - string: The stream URL, suitable for a browser or ffplay
func (c *Client) MJPEGStreamURL(quality, fps int) string {
	if quality == 0 {
		quality = DefaultStreamQuality
	}
	if fps == 0 {
		fps = DefaultStreamFPS
	}
	return fmt.Sprintf("%s/api/camera/stream?quality=%d&fps=%d", c.baseURL, clampQuality(quality), clampFPS(fps))
}
