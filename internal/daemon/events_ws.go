// Package daemon provides the HTTP and WebSocket clients for the Reachy Mini
// daemon.
//
// This file contains the EventsClient for subscribing to the daemon's event
// stream: state transitions, app lifecycle, and log lines.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// EventsClient handles WebSocket communication with the daemon event stream.
// Used by `daemon watch` and the doctor to follow the robot in real time.
//
// Message Routing Architecture:
// The client uses a demultiplexer pattern to route messages to separate
// channels based on event type. This prevents race conditions where multiple
// goroutines compete to read from a single channel:
//   - stateEvents: receives STATE and ERROR events (consumed by WaitForState)
//   - events: receives everything else, LOG and APP events included
type EventsClient struct {
	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// mu protects concurrent access to the connection.
	mu sync.Mutex

	// done signals when the client should stop.
	done chan struct{}

	// events receives non-state messages from the daemon (LOG, APP, ...).
	events chan Event

	// stateEvents receives STATE and ERROR events.
	// Consumed by WaitForState to avoid racing the events consumer.
	stateEvents chan Event

	// errors receives connection errors.
	errors chan error

	// pingInterval is the interval between ping messages.
	pingInterval time.Duration

	// connected indicates if the connection is active.
	connected bool
}

// Event represents a message received from the daemon event stream.
type Event struct {
	// EventType is the type of event: "STATE", "LOG", "APP", "ERROR".
	EventType string `json:"event_type,omitempty"`

	// Type is an alternative field for message type (e.g., "ping", "pong").
	Type string `json:"type,omitempty"`

	// State is the daemon lifecycle state for STATE events.
	State string `json:"state,omitempty"`

	// Level is the log level for LOG events.
	Level string `json:"level,omitempty"`

	// Message is the log line or error text.
	Message string `json:"message,omitempty"`

	// App is the app name for APP events.
	App string `json:"app,omitempty"`

	// Data contains any extra payload.
	Data json.RawMessage `json:"data,omitempty"`

	// ID is used for ping/pong correlation.
	ID string `json:"id,omitempty"`

	// Timestamp is the event timestamp.
	Timestamp float64 `json:"timestamp,omitempty"`

	// Raw contains the original message bytes for debugging.
	Raw []byte `json:"-"`
}

// NewEventsClient creates a new EventsClient.
//
// Returns:
//   - *EventsClient: A new client instance
func NewEventsClient() *EventsClient {
	return &EventsClient{
		done:         make(chan struct{}),
		events:       make(chan Event, 100),
		stateEvents:  make(chan Event, 100),
		errors:       make(chan error, 10),
		pingInterval: 25 * time.Second,
	}
}

// EventsURL derives the WebSocket event stream URL from an HTTP base URL.
//
// Parameters:
//   - baseURL: The daemon HTTP base URL
//
// Returns:
//   - string: The ws:// or wss:// event stream URL
//   - error: An error if the base URL cannot be parsed
func EventsURL(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid daemon URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	}
	parsed.Path = "/api/events"
	return parsed.String(), nil
}

// Connect establishes a WebSocket connection to the daemon event stream.
//
// Parameters:
//   - ctx: Context for cancellation
//   - wsURL: The WebSocket URL (e.g., "ws://localhost:8000/api/events")
//
// Returns:
//   - error: Any error that occurred during connection
func (c *EventsClient) Connect(ctx context.Context, wsURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return fmt.Errorf("already connected")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 30 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("WebSocket connection failed: %w", err)
	}

	c.conn = conn
	c.connected = true

	go c.readLoop()
	go c.pingLoop()

	return nil
}

// Reconnect establishes a new WebSocket connection after a disconnect.
// Call this when the connection has been lost (e.g. readLoop exited).
// Re-initializes the done channel and message channels so new
// readLoop/pingLoop goroutines have a fresh done signal.
//
// Parameters:
//   - ctx: Context for cancellation (used for dial)
//   - wsURL: The WebSocket URL to connect to
//
// Returns:
//   - error: Any error that occurred during reconnection
func (c *EventsClient) Reconnect(ctx context.Context, wsURL string) error {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	// New done channel so new readLoop/pingLoop do not see a previously closed done
	c.done = make(chan struct{})
	// Replace channels so consumers can read from new ones
	c.events = make(chan Event, 100)
	c.stateEvents = make(chan Event, 100)
	c.errors = make(chan error, 10)
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("WebSocket reconnection failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// readLoop continuously reads messages from the WebSocket connection.
// It demultiplexes messages based on EventType:
//   - STATE and ERROR events go to the stateEvents channel
//   - everything else (LOG, APP, ...) goes to the events channel
func (c *EventsClient) readLoop() {
	// Capture the channels and done at start so defer closes only these, not
	// any channels created by a concurrent Reconnect().
	c.mu.Lock()
	events := c.events
	stateEvents := c.stateEvents
	done := c.done
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		close(events)
		close(stateEvents)
	}()

	for {
		select {
		case <-done:
			return
		default:
		}

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return
			case c.errors <- fmt.Errorf("read error: %w", err):
			default:
			}
			return
		}

		var evt Event
		json.Unmarshal(message, &evt)
		evt.Raw = message

		// Handle ping messages automatically
		if evt.Type == "ping" {
			c.sendPong(evt.ID)
			continue
		}

		switch evt.EventType {
		case "STATE", "ERROR":
			select {
			case <-done:
				return
			case stateEvents <- evt:
			}
		default:
			select {
			case <-done:
				return
			case events <- evt:
			}
		}
	}
}

// pingLoop sends periodic ping messages to keep the connection alive.
func (c *EventsClient) pingLoop() {
	// Capture done at start so we exit when THIS generation's done is closed,
	// preventing goroutine leaks during Reconnect().
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.connected || c.conn == nil {
				c.mu.Unlock()
				return
			}

			pingMsg := map[string]interface{}{
				"type":      "ping",
				"id":        uuid.NewString(),
				"timestamp": float64(time.Now().UnixNano()) / 1e9,
			}

			if err := c.conn.WriteJSON(pingMsg); err != nil {
				c.mu.Unlock()
				select {
				case c.errors <- fmt.Errorf("ping failed: %w", err):
				default:
				}
				return
			}
			c.mu.Unlock()
		}
	}
}

// sendPong sends a pong response to a ping message.
func (c *EventsClient) sendPong(pingID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		return
	}

	pongMsg := map[string]interface{}{
		"type": "pong",
		"id":   pingID,
	}

	_ = c.conn.WriteJSON(pongMsg)
}

// Events returns the channel for receiving non-state events.
//
// Returns:
//   - <-chan Event: Channel of incoming LOG and APP events
func (c *EventsClient) Events() <-chan Event {
	return c.events
}

// StateEvents returns the channel for receiving STATE and ERROR events.
//
// Returns:
//   - <-chan Event: Channel of incoming state events
func (c *EventsClient) StateEvents() <-chan Event {
	return c.stateEvents
}

// Errors returns the channel for receiving connection errors.
//
// Returns:
//   - <-chan error: Channel of connection errors
func (c *EventsClient) Errors() <-chan error {
	return c.errors
}

// IsConnected returns whether the client is currently connected.
//
// Returns:
//   - bool: True if connected, false otherwise
func (c *EventsClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close closes the WebSocket connection and signals readLoop/pingLoop to
// exit. Safe to call multiple times: only closes the current done channel
// once (then sets to nil). After Reconnect(), a new done channel exists so
// Close() can close it again.
//
// Returns:
//   - error: Any error that occurred during close
func (c *EventsClient) Close() error {
	c.mu.Lock()
	done := c.done
	if done != nil {
		c.done = nil // prevent double-close of the same channel
	}
	c.connected = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	var closeErr error
	if conn != nil {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing"),
		)
		closeErr = conn.Close()
	}
	return closeErr
}

// WaitForState waits until the daemon reports the wanted state.
//
// This method reads from the dedicated stateEvents channel which only
// receives STATE and ERROR events, so it does not race a consumer of the
// events channel.
//
// Parameters:
//   - ctx: Context for cancellation
//   - state: The state to wait for (e.g. "running")
//   - timeout: Maximum time to wait
//
// Returns:
//   - error: Nil once the state is reached, context or daemon error otherwise
func (c *EventsClient) WaitForState(ctx context.Context, state string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-c.errors:
			return fmt.Errorf("connection error: %w", err)

		case evt, ok := <-c.stateEvents:
			if !ok {
				return fmt.Errorf("connection closed")
			}

			if evt.EventType == "ERROR" {
				if evt.Message != "" {
					return fmt.Errorf("daemon error: %s", evt.Message)
				}
				return fmt.Errorf("daemon error (unknown)")
			}

			if evt.EventType == "STATE" && evt.State == state {
				return nil
			}
		}
	}
}
