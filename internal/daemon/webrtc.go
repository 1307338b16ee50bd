package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/pollen-robotics/reachy-mini-cli/internal/config"
)

// webrtcTimeout bounds the signalling round trip.
const webrtcTimeout = 10 * time.Second

// SessionDescription is an SDP offer or answer.
type SessionDescription struct {
	// Type is "offer" or "answer".
	Type string `json:"type"`

	// SDP is the session description payload.
	SDP string `json:"sdp"`
}

// WebRTCOffer sends an SDP offer to the daemon's signalling endpoint and
// returns its answer. Signalling goes over the daemon HTTP API; only the
// media itself flows on the separate WebRTC port.
//
// Parameters:
//   - ctx: Context for cancellation
//   - offer: The SDP offer
//
// Returns:
//   - *SessionDescription: The SDP answer
//   - error: Any error that occurred
func (c *Client) WebRTCOffer(ctx context.Context, offer *SessionDescription) (*SessionDescription, error) {
	if offer == nil || offer.SDP == "" {
		return nil, fmt.Errorf("offer must have an SDP payload")
	}
	if offer.Type == "" {
		offer.Type = "offer"
	}

	ctx, cancel := context.WithTimeout(ctx, webrtcTimeout)
	defer cancel()

	resp, err := c.doRequest(ctx, "POST", "/api/webrtc/offer", offer)
	if err != nil {
		return nil, err
	}

	var answer SessionDescription
	if err := parseResponse(resp, &answer); err != nil {
		return nil, err
	}

	return &answer, nil
}

// CheckWebRTC probes the signalling listener without starting a session.
//
// Returns:
//   - bool: True when something is listening on the WebRTC port
func CheckWebRTC() bool {
	return config.IsPortOpen(config.GetDaemonHost(), config.WebRTCPort)
}

// IsDaemonReachable probes the daemon HTTP port without issuing a request.
//
// Returns:
//   - bool: True when something is listening on the daemon port
func IsDaemonReachable() bool {
	return config.IsPortOpen(config.GetDaemonHost(), config.GetDaemonPort())
}
