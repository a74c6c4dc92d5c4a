// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the recorder UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run creates the TUI program; the caller runs it
func Run(ctrl Controller, name string) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl, name), tea.WithAltScreen())
	return p, nil
}
