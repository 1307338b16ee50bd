package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestEventsClientCloseIdempotent(t *testing.T) {
	c := NewEventsClient()

	if err := c.Close(); err != nil {
		t.Errorf("Close() on never-connected client error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() second call error = %v", err)
	}
}

func TestEventsClientConnectAndDemux(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(map[string]interface{}{"event_type": "LOG", "level": "info", "message": "motor bus online"})
		conn.WriteJSON(map[string]interface{}{"event_type": "STATE", "state": "running"})

		// Keep the connection open until the client disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	c := NewEventsClient()
	if err := c.Connect(context.Background(), wsURL); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if !c.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}

	select {
	case evt := <-c.Events():
		if evt.EventType != "LOG" || evt.Message != "motor bus online" {
			t.Errorf("event = %+v, want LOG event", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for LOG event")
	}

	if err := c.WaitForState(context.Background(), "running", 2*time.Second); err != nil {
		t.Errorf("WaitForState(running) error = %v", err)
	}
}

func TestEventsClientDoubleConnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	c := NewEventsClient()
	if err := c.Connect(context.Background(), wsURL); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if err := c.Connect(context.Background(), wsURL); err == nil {
		t.Error("second Connect() expected error")
	}
}

func TestWaitForStateDaemonError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(map[string]interface{}{"event_type": "ERROR", "message": "motor bus offline"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	c := NewEventsClient()
	if err := c.Connect(context.Background(), wsURL); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	err := c.WaitForState(context.Background(), "running", 2*time.Second)
	if err == nil || !strings.Contains(err.Error(), "motor bus offline") {
		t.Errorf("WaitForState() error = %v, want daemon error with message", err)
	}
}
