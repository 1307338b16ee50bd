package daemon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/daemon/status" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state": "running", "version": "1.2.3", "uptime_s": 42.5}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	status, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.State != "running" {
		t.Errorf("State = %q, want %q", status.State, "running")
	}
	if !status.IsRunning() {
		t.Error("IsRunning() = false, want true")
	}
	if status.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", status.Version, "1.2.3")
	}
}

func TestStartWakeUpQuery(t *testing.T) {
	tests := []struct {
		name   string
		wakeUp bool
		want   string
	}{
		{"wake up", true, "true"},
		{"no wake up", false, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %q, want POST", r.Method)
				}
				gotQuery = r.URL.Query().Get("wake_up")
				w.Write([]byte(`{"state": "starting"}`))
			}))
			defer server.Close()

			client := NewClientWithBaseURL(server.URL)
			status, err := client.Start(context.Background(), StartOptions{WakeUp: tt.wakeUp})
			if err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if gotQuery != tt.want {
				t.Errorf("wake_up query = %q, want %q", gotQuery, tt.want)
			}
			if status.State != "starting" {
				t.Errorf("State = %q, want %q", status.State, "starting")
			}
		})
	}
}

func TestStopGotoSleepQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("goto_sleep")
		w.Write([]byte(`{"state": "stopping"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	if _, err := client.Stop(context.Background(), StopOptions{GotoSleep: true}); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if gotQuery != "true" {
		t.Errorf("goto_sleep query = %q, want %q", gotQuery, "true")
	}
}

func TestAPIErrorFromDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "daemon already running"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.Start(context.Background(), StartOptions{WakeUp: true})
	if err == nil {
		t.Fatal("Start() expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusConflict)
	}
	if apiErr.Detail != "daemon already running" {
		t.Errorf("Detail = %q, want %q", apiErr.Detail, "daemon already running")
	}
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  APIError
		want string
	}{
		{
			name: "message and detail",
			err:  APIError{StatusCode: 500, Message: "boom", Detail: "motor bus offline"},
			want: "boom: motor bus offline",
		},
		{
			name: "message only",
			err:  APIError{StatusCode: 500, Message: "boom"},
			want: "boom",
		},
		{
			name: "detail only",
			err:  APIError{StatusCode: 500, Detail: "motor bus offline"},
			want: "motor bus offline",
		},
		{
			name: "status fallback",
			err:  APIError{StatusCode: 503},
			want: "HTTP 503: Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetCameraFrameQualityClamp(t *testing.T) {
	tests := []struct {
		name    string
		quality int
		want    string
	}{
		{"default", 0, "80"},
		{"in range", 50, "50"},
		{"below range", -10, "1"},
		{"above range", 250, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuality string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuality = r.URL.Query().Get("quality")
				w.Header().Set("Content-Type", "image/jpeg")
				w.Write([]byte{0xFF, 0xD8, 0xFF, 0xD9})
			}))
			defer server.Close()

			client := NewClientWithBaseURL(server.URL)
			frame, err := client.GetCameraFrame(context.Background(), tt.quality)
			if err != nil {
				t.Fatalf("GetCameraFrame() error = %v", err)
			}
			if gotQuality != tt.want {
				t.Errorf("quality query = %q, want %q", gotQuality, tt.want)
			}
			if len(frame) == 0 {
				t.Error("frame is empty")
			}
		})
	}
}

func TestGetCameraFrameEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	if _, err := client.GetCameraFrame(context.Background(), 0); err == nil {
		t.Error("GetCameraFrame() expected error for empty body")
	}
}

func TestMJPEGStreamURL(t *testing.T) {
	client := NewClientWithBaseURL("http://localhost:8000")

	tests := []struct {
		name    string
		quality int
		fps     int
		want    string
	}{
		{"defaults", 0, 0, "http://localhost:8000/api/camera/stream?quality=60&fps=10"},
		{"in range", 75, 15, "http://localhost:8000/api/camera/stream?quality=75&fps=15"},
		{"above range", 250, 120, "http://localhost:8000/api/camera/stream?quality=100&fps=30"},
		{"below range", -5, -1, "http://localhost:8000/api/camera/stream?quality=1&fps=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.MJPEGStreamURL(tt.quality, tt.fps); got != tt.want {
				t.Errorf("MJPEGStreamURL(%d, %d) = %q, want %q", tt.quality, tt.fps, got, tt.want)
			}
		})
	}
}

func TestListApps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "conversation", "running": true}, {"name": "dance"}]`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	apps, err := client.ListApps(context.Background())
	if err != nil {
		t.Fatalf("ListApps() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("len(apps) = %d, want 2", len(apps))
	}
	if apps[0].Name != "conversation" || !apps[0].Running {
		t.Errorf("apps[0] = %+v, want running conversation app", apps[0])
	}
}

func TestEventsURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"http", "http://localhost:8000", "ws://localhost:8000/api/events"},
		{"https", "https://reachy-mini.local:8000", "wss://reachy-mini.local:8000/api/events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EventsURL(tt.baseURL)
			if err != nil {
				t.Fatalf("EventsURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("EventsURL(%q) = %q, want %q", tt.baseURL, got, tt.want)
			}
		})
	}
}

func TestRestartStopsThenStarts(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path+"?"+r.URL.RawQuery)
		w.Write([]byte(`{"state": "running"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	status, err := client.Restart(context.Background(), StartOptions{WakeUp: true})
	if err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	if status.State != "running" {
		t.Errorf("State = %q, want running", status.State)
	}

	want := []string{
		"/api/daemon/stop?goto_sleep=false",
		"/api/daemon/start?wake_up=true",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestRestartStopsOnFailedStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "motors busy"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	if _, err := client.Restart(context.Background(), StartOptions{WakeUp: true}); err == nil {
		t.Error("Restart() expected error when stop fails")
	}
}
