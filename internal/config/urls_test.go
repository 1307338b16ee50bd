package config

import (
	"net"
	"strings"
	"testing"
)

func TestGetDaemonURLDefault(t *testing.T) {
	t.Setenv("REACHY_MINI_DAEMON_URL", "")
	t.Setenv("REACHY_MINI_HOST", "")
	t.Setenv("REACHY_MINI_DAEMON_PORT", "")

	got := GetDaemonURL(false)
	want := "http://localhost:8000"
	if got != want {
		t.Errorf("GetDaemonURL(false) = %q, want %q", got, want)
	}
}

func TestGetDaemonURLEnvOverride(t *testing.T) {
	t.Setenv("REACHY_MINI_DAEMON_URL", "http://reachy-mini.local:8000/")

	got := GetDaemonURL(false)
	want := "http://reachy-mini.local:8000"
	if got != want {
		t.Errorf("GetDaemonURL(false) = %q, want %q (trailing slash stripped)", got, want)
	}
}

func TestGetDaemonURLHostOverride(t *testing.T) {
	t.Setenv("REACHY_MINI_DAEMON_URL", "")
	t.Setenv("REACHY_MINI_HOST", "reachy-mini.local")
	t.Setenv("REACHY_MINI_DAEMON_PORT", "")

	got := GetDaemonURL(false)
	want := "http://reachy-mini.local:8000"
	if got != want {
		t.Errorf("GetDaemonURL(false) = %q, want %q", got, want)
	}
}

func TestGetDaemonPortOverride(t *testing.T) {
	t.Setenv("REACHY_MINI_DAEMON_PORT", "9123")

	if got := GetDaemonPort(); got != "9123" {
		t.Errorf("GetDaemonPort() = %q, want %q", got, "9123")
	}
}

func TestIsPortOpen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to open listener: %v", err)
	}
	defer ln.Close()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	if !IsPortOpen("127.0.0.1", port) {
		t.Errorf("IsPortOpen(127.0.0.1, %s) = false, want true", port)
	}

	ln.Close()
	if IsPortOpen("127.0.0.1", port) {
		t.Errorf("IsPortOpen(127.0.0.1, %s) = true after close, want false", port)
	}
}

func TestGetWebRTCAddress(t *testing.T) {
	t.Setenv("REACHY_MINI_HOST", "")

	got := GetWebRTCAddress()
	if !strings.HasSuffix(got, ":8443") {
		t.Errorf("GetWebRTCAddress() = %q, want :8443 suffix", got)
	}
}

func TestHasURLOverride(t *testing.T) {
	t.Setenv("REACHY_MINI_DAEMON_URL", "")
	t.Setenv("REACHY_MINI_HOST", "")
	t.Setenv("REACHY_MINI_DAEMON_PORT", "")

	if HasURLOverride() {
		t.Error("HasURLOverride() = true with clean env, want false")
	}

	t.Setenv("REACHY_MINI_HOST", "reachy-mini.local")
	if !HasURLOverride() {
		t.Error("HasURLOverride() = false with REACHY_MINI_HOST set, want true")
	}
}
