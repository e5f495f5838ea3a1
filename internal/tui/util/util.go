package util

import (
	tea "github.com/charmbracelet/bubbletea/v2"
)

// Model is a bubbletea model that renders itself.
type Model interface {
	tea.Model
	View() string
}

// CmdHandler wraps msg in a command.
func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
