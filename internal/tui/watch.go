// Package tui provides the live daemon watch view.
//
// The watch model subscribes to the daemon's WebSocket event stream and
// renders state transitions and log lines in an alternate screen, with a
// status poll as fallback when the stream is down.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pollen-robotics/reachy-mini-cli/internal/daemon"
	"github.com/pollen-robotics/reachy-mini-cli/internal/ui"
)

// maxLogLines bounds the scrollback kept in memory.
const maxLogLines = 500

// statusPollInterval is how often the HTTP status is refreshed.
const statusPollInterval = 2 * time.Second

// reconnectDelay is the wait before redialing a dropped event stream.
const reconnectDelay = 3 * time.Second

type statusMsg struct {
	status *daemon.Status
	err    error
}

type eventMsg daemon.Event

type streamConnectedMsg struct{ client *daemon.EventsClient }

type streamLostMsg struct{ err error }

type tickMsg time.Time

// WatchModel is the bubbletea model behind `daemon watch`.
type WatchModel struct {
	client *daemon.Client
	events *daemon.EventsClient

	status    *daemon.Status
	statusErr error
	connected bool

	spinner  spinner.Model
	viewport viewport.Model
	lines    []string
	ready    bool

	width  int
	height int
}

// NewWatchModel creates a watch model bound to a daemon client.
//
// Parameters:
//   - client: The daemon client to watch
//
// Returns:
//   - WatchModel: The initial model
func NewWatchModel(client *daemon.Client) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.Coral)

	return WatchModel{
		client:  client,
		spinner: s,
	}
}

// Init starts the status poll, the event stream dial and the spinner.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(
		m.pollStatus(),
		m.connectStream(),
		m.spinner.Tick,
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(statusPollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// pollStatus fetches the daemon status once.
func (m WatchModel) pollStatus() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusPollInterval)
		defer cancel()
		status, err := client.GetStatus(ctx)
		return statusMsg{status: status, err: err}
	}
}

// connectStream dials the event stream.
func (m WatchModel) connectStream() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		wsURL, err := daemon.EventsURL(client.BaseURL())
		if err != nil {
			return streamLostMsg{err: err}
		}

		events := daemon.NewEventsClient()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := events.Connect(ctx, wsURL); err != nil {
			return streamLostMsg{err: err}
		}
		return streamConnectedMsg{client: events}
	}
}

// waitForEvent blocks on the next stream event.
func waitForEvent(events *daemon.EventsClient) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt, ok := <-events.Events():
			if !ok {
				return streamLostMsg{err: fmt.Errorf("event stream closed")}
			}
			return eventMsg(evt)
		case evt, ok := <-events.StateEvents():
			if !ok {
				return streamLostMsg{err: fmt.Errorf("event stream closed")}
			}
			return eventMsg(evt)
		case err := <-events.Errors():
			return streamLostMsg{err: err}
		}
	}
}

// Update handles messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.events != nil {
				m.events.Close()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()

	case tickMsg:
		return m, tea.Batch(m.pollStatus(), tick())

	case statusMsg:
		m.status = msg.status
		m.statusErr = msg.err

	case streamConnectedMsg:
		m.events = msg.client
		m.connected = true
		m.appendLine(ui.DimStyle.Render("connected to event stream"))
		return m, waitForEvent(m.events)

	case streamLostMsg:
		m.connected = false
		if m.events != nil {
			m.events.Close()
			m.events = nil
		}
		m.appendLine(ui.DimStyle.Render(fmt.Sprintf("event stream lost: %v, retrying", msg.err)))
		return m, tea.Tick(reconnectDelay, func(time.Time) tea.Msg { return retryMsg{} })

	case retryMsg:
		return m, m.connectStream()

	case eventMsg:
		m.appendLine(renderEvent(daemon.Event(msg)))
		if m.events == nil {
			return m, nil
		}
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

type retryMsg struct{}

// appendLine adds a line to the scrollback, trimming old ones.
func (m *WatchModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	if m.ready {
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
	}
}

// renderEvent formats one stream event for the scrollback.
func renderEvent(evt daemon.Event) string {
	ts := time.Now().Format("15:04:05")
	switch evt.EventType {
	case "STATE":
		return fmt.Sprintf("%s %s", ui.DimStyle.Render(ts), stateStyle(evt.State).Render("state: "+evt.State))
	case "ERROR":
		return fmt.Sprintf("%s %s", ui.DimStyle.Render(ts), ui.ErrorStyle.Render(evt.Message))
	case "APP":
		return fmt.Sprintf("%s %s", ui.DimStyle.Render(ts), ui.AccentStyle.Render("app: "+evt.App+" "+evt.Message))
	case "LOG":
		level := strings.ToLower(evt.Level)
		switch level {
		case "error", "critical":
			return fmt.Sprintf("%s %s", ui.DimStyle.Render(ts), ui.ErrorStyle.Render(evt.Message))
		case "warning":
			return fmt.Sprintf("%s %s", ui.DimStyle.Render(ts), ui.WarningStyle.Render(evt.Message))
		default:
			return fmt.Sprintf("%s %s", ui.DimStyle.Render(ts), evt.Message)
		}
	default:
		return fmt.Sprintf("%s %s", ui.DimStyle.Render(ts), evt.Message)
	}
}

// stateStyle picks a style for a daemon state.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case "running":
		return ui.StatusRunningStyle
	case "starting", "stopping":
		return ui.StatusStartingStyle
	case "error", "stopped":
		return ui.StatusStoppedStyle
	default:
		return ui.DimStyle
	}
}

// View renders the watch screen.
func (m WatchModel) View() string {
	var header strings.Builder

	header.WriteString(ui.TitleStyle.Render("Reachy Mini"))
	header.WriteString("  ")

	switch {
	case m.statusErr != nil:
		header.WriteString(ui.StatusStoppedStyle.Render("daemon unreachable"))
	case m.status != nil:
		header.WriteString(stateStyle(m.status.State).Render(m.status.State))
		if m.status.ActiveApp != "" {
			header.WriteString(ui.DimStyle.Render("  app: " + m.status.ActiveApp))
		}
	default:
		header.WriteString(m.spinner.View())
		header.WriteString(ui.DimStyle.Render(" connecting"))
	}

	if m.connected {
		header.WriteString(ui.DimStyle.Render("  • live"))
	} else {
		header.WriteString(ui.DimStyle.Render("  • polling"))
	}

	header.WriteString("\n")
	header.WriteString(ui.DimStyle.Render(m.client.BaseURL()))
	header.WriteString("\n")
	header.WriteString(ui.DimStyle.Render(strings.Repeat("─", max(m.width, 10))))
	header.WriteString("\n")

	if !m.ready {
		return header.String()
	}
	return header.String() + m.viewport.View() + "\n" + ui.DimStyle.Render("q to quit")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
