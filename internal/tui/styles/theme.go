package styles

import (
	"image/color"
	"sync"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

type Theme struct {
	Name string

	Primary   color.Color
	Secondary color.Color
	Accent    color.Color
	FgBase    color.Color
	FgMuted   color.Color
	BgSubtle  color.Color
	Border    color.Color

	Header     lipgloss.Style
	Footer     lipgloss.Style
	Item       lipgloss.Style
	Muted      lipgloss.Style
	Flash      lipgloss.Style
	Title      lipgloss.Style
	Panel      lipgloss.Style
	PanelFocus lipgloss.Style
}

var (
	themeOnce sync.Once
	current   *Theme
)

// CurrentTheme returns the active theme.
func CurrentTheme() *Theme {
	themeOnce.Do(func() {
		current = NewCharmtoneTheme()
	})
	return current
}

func NewCharmtoneTheme() *Theme {
	t := &Theme{
		Name:      "charmtone",
		Primary:   charmtone.Charple,
		Secondary: charmtone.Dolly,
		Accent:    charmtone.Guac,
		FgBase:    charmtone.Salt,
		FgMuted:   charmtone.Squid,
		BgSubtle:  charmtone.Pepper,
		Border:    charmtone.Iron,
	}
	t.Header = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	t.Footer = lipgloss.NewStyle().Foreground(t.FgMuted).Italic(true)
	t.Item = lipgloss.NewStyle().Foreground(t.FgBase)
	t.Muted = lipgloss.NewStyle().Foreground(t.FgMuted)
	t.Flash = lipgloss.NewStyle().Foreground(t.BgSubtle).Background(t.Accent)
	t.Title = lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)
	t.Panel = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.PanelFocus = t.Panel.BorderForeground(t.Primary)
	return t
}
