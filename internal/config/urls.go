// Package config provides URL configuration management for the reachy-mini CLI.
//
// This package handles resolution of the daemon HTTP endpoint. The daemon
// normally listens on port 8000 on the robot itself; when the CLI runs on a
// developer machine it targets the robot's mDNS hostname instead. Both the
// host and the port can be overridden via environment variables, and the
// port can be auto-detected by probing for an open listener.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

const (
	// DefaultDaemonHost is the host the daemon listens on when the CLI
	// runs on the robot.
	DefaultDaemonHost = "localhost"

	// DefaultDaemonPort is the port the daemon HTTP API listens on.
	DefaultDaemonPort = "8000"

	// WebRTCPort is the port of the daemon's WebRTC media listener.
	// SDP offers go through the daemon HTTP API, not this port.
	WebRTCPort = "8443"

	// RecordingPort is the TCP port of the media pipeline's MPEG-TS fanout.
	RecordingPort = "9001"

	// portCheckTimeout is the timeout for checking if a port is open.
	portCheckTimeout = 250 * time.Millisecond
)

// commonDaemonPorts are the ports to try when auto-detecting the daemon.
// Order matters - most common ports first.
var commonDaemonPorts = []string{"8000", "8001", "8080"}

// GetDaemonHost returns the host the daemon is reachable on.
// Checks REACHY_MINI_HOST first, then falls back to localhost.
//
// Returns:
//   - string: The daemon host
func GetDaemonHost() string {
	if host := os.Getenv("REACHY_MINI_HOST"); host != "" {
		return host
	}
	return DefaultDaemonHost
}

// GetDaemonPort returns the configured daemon port.
// Checks REACHY_MINI_DAEMON_PORT first, then falls back to the default.
//
// Returns:
//   - string: The daemon port number
func GetDaemonPort() string {
	if port := os.Getenv("REACHY_MINI_DAEMON_PORT"); port != "" {
		return port
	}
	return DefaultDaemonPort
}

// GetDaemonPortWithAutoDetect returns the configured daemon port, and if
// nothing is listening on it, tries common alternative ports. Useful when
// the daemon was started with a non-standard --port.
//
// Returns:
//   - string: The daemon port (either configured or auto-detected)
func GetDaemonPortWithAutoDetect() string {
	if port := os.Getenv("REACHY_MINI_DAEMON_PORT"); port != "" {
		return port
	}

	configuredPort := GetDaemonPort()
	host := GetDaemonHost()

	if IsPortOpen(host, configuredPort) {
		return configuredPort
	}

	for _, port := range commonDaemonPorts {
		if port != configuredPort && IsPortOpen(host, port) {
			return port
		}
	}

	// Fall back to the configured port even if not responding
	// (let the actual request fail with a clear error)
	return configuredPort
}

// IsPortOpen checks if a TCP port is open on the given host.
//
// Parameters:
//   - host: The hostname to check
//   - port: The port number to check
//
// Returns:
//   - bool: True if the port is open and accepting connections
func IsPortOpen(host, port string) bool {
	address := net.JoinHostPort(host, port)
	conn, err := net.DialTimeout("tcp", address, portCheckTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// GetDaemonURL returns the daemon HTTP base URL.
//
// Resolution order:
//  1. REACHY_MINI_DAEMON_URL environment variable (full URL override)
//  2. host from REACHY_MINI_HOST (default localhost) plus the configured
//     port, with auto-detection in dev mode
//
// Parameters:
//   - devMode: If true, probe common ports when the configured one is closed
//
// Returns:
//   - string: The daemon base URL (no trailing slash)
func GetDaemonURL(devMode bool) string {
	if url := os.Getenv("REACHY_MINI_DAEMON_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}

	port := GetDaemonPort()
	if devMode {
		port = GetDaemonPortWithAutoDetect()
	}

	return fmt.Sprintf("http://%s", net.JoinHostPort(GetDaemonHost(), port))
}

// HasURLOverride reports whether the daemon URL is overridden via environment.
func HasURLOverride() bool {
	return os.Getenv("REACHY_MINI_DAEMON_URL") != "" ||
		os.Getenv("REACHY_MINI_HOST") != "" ||
		os.Getenv("REACHY_MINI_DAEMON_PORT") != ""
}

// GetWebRTCAddress returns the host:port of the daemon's WebRTC listener.
//
// Returns:
//   - string: The WebRTC listener address
func GetWebRTCAddress() string {
	return net.JoinHostPort(GetDaemonHost(), WebRTCPort)
}
