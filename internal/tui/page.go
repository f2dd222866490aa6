package tui

import tea "github.com/charmbracelet/bubbletea"

// Page is the content of one tab.
type Page interface {
	ID() string
	// Activate is called when the tab becomes active or is reloaded. It
	// resets the page and returns the command loading its data.
	Activate() tea.Cmd
	// Update receives key messages while the page is active and every other
	// message regardless of the active tab.
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
	// Capturing reports whether the page consumes all key presses, e.g.
	// while a text input is focused.
	Capturing() bool
	// Help returns the page specific key help.
	Help() string
}
