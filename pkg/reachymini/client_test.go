package reachymini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func TestNewClientOptions(t *testing.T) {
	c, err := NewClient(WithDaemonURL("http://robot.local:8000"), WithWorkDir("/tmp"))
	if err != nil {
		t.Fatalf("NewClient error = %v", err)
	}
	if got := c.DaemonURL(); got != "http://robot.local:8000" {
		t.Fatalf("DaemonURL() = %q", got)
	}
	if c.workDir != "/tmp" {
		t.Fatalf("workDir = %q", c.workDir)
	}
}

func TestNewClientRejectsEmptyURL(t *testing.T) {
	if _, err := NewClient(WithDaemonURL("")); err == nil {
		t.Fatal("expected an error for an empty daemon URL")
	}
}

func TestStatusAgainstTestServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/daemon/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state":"running","version":"0.9.0"}`))
	}))
	defer ts.Close()

	c, err := NewClient(WithDaemonURL(ts.URL))
	if err != nil {
		t.Fatalf("NewClient error = %v", err)
	}

	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status error = %v", err)
	}
	if !status.IsRunning() {
		t.Fatalf("expected running, got %q", status.State)
	}
}

func TestCreateAndCheckApp(t *testing.T) {
	dir := t.TempDir()
	c, err := NewClient(WithDaemonURL("http://localhost:8000"), WithWorkDir(dir))
	if err != nil {
		t.Fatalf("NewClient error = %v", err)
	}

	result, err := c.CreateApp("wave_app", nil)
	if err != nil {
		t.Fatalf("CreateApp error = %v", err)
	}
	if result.Path != filepath.Join(dir, "wave_app") {
		t.Fatalf("Path = %q", result.Path)
	}
	if result.ClassName != "WaveApp" {
		t.Fatalf("ClassName = %q", result.ClassName)
	}

	report, err := c.CheckApp(result.Path)
	if err != nil {
		t.Fatalf("CheckApp error = %v", err)
	}
	if !report.Passed() {
		t.Fatalf("fresh workspace should pass checks: %+v", report.Results)
	}
}
