// Package ui provides terminal UI components using Charm libraries.
//
// This package contains all the styling, rendering, and interactive
// components for the reachy-mini CLI's terminal interface.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Brand colors for Reachy Mini.
var (
	// Primary brand color - Pollen coral
	Coral = lipgloss.Color("#FF6F61")

	// Secondary colors
	Teal    = lipgloss.Color("#14B8A6")
	Red     = lipgloss.Color("#EF4444")
	Amber   = lipgloss.Color("#F59E0B")
	Green   = lipgloss.Color("#22C55E")
	Gray    = lipgloss.Color("#6B7280")
	DimGray = lipgloss.Color("#9CA3AF")
)

// quietMode suppresses non-essential output when set via --quiet.
var quietMode bool

// SetQuietMode enables or disables quiet output mode.
//
// Parameters:
//   - quiet: True to suppress banners and decorative output
func SetQuietMode(quiet bool) {
	quietMode = quiet
}

// IsQuiet reports whether quiet mode is active.
func IsQuiet() bool {
	return quietMode
}

// IsTerminal reports whether stdout is attached to a terminal.
// Spinners and in-place status updates are disabled when piping to a file.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Text styles.
var (
	// TitleStyle for main headings
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Coral)

	// SubtitleStyle for secondary headings
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	// SuccessStyle for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// ErrorStyle for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// WarningStyle for warning messages
	WarningStyle = lipgloss.NewStyle().
			Foreground(Amber)

	// InfoStyle for informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	// DimStyle for less important text
	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	// AccentStyle for markers and list numbers
	AccentStyle = lipgloss.NewStyle().
			Foreground(Coral)

	// LinkStyle for URLs
	LinkStyle = lipgloss.NewStyle().
			Foreground(Coral).
			Underline(true)

	// CodeStyle for inline code
	CodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F3F4F6")).
			Background(lipgloss.Color("#374151")).
			Padding(0, 1)
)

// Box styles.
var (
	// BoxStyle for content boxes
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Coral).
			Padding(0, 1)

	// BoxTitleStyle for box titles
	BoxTitleStyle = lipgloss.NewStyle().
			Foreground(Coral).
			Bold(true)
)

// Table styles.
var (
	// TableHeaderStyle for table headers
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(DimGray).
				Bold(true).
				Padding(0, 2)

	// TableCellStyle for table cells
	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 2)
)

// Status indicator styles.
var (
	// StatusRunningStyle for a running daemon or operation
	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(Teal)

	// StatusStoppedStyle for a stopped daemon
	StatusStoppedStyle = lipgloss.NewStyle().
				Foreground(Red)

	// StatusStartingStyle for a daemon that is coming up
	StatusStartingStyle = lipgloss.NewStyle().
				Foreground(Amber)
)

// Progress bar styles.
var (
	// ProgressBarStyle for the progress bar container
	ProgressBarStyle = lipgloss.NewStyle().
				Foreground(Coral)
)
