package demo

import (
	"github.com/charmbracelet/bubbles/v2/key"
)

type KeyMap struct {
	ScrollAnimated,
	ScrollNow,
	Search,
	Invert,
	SwitchFocus,
	Reload,
	Quit key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScrollAnimated: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scroll to item 20"),
		),
		ScrollNow: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "jump to item 20"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Invert: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "invert drawer"),
		),
		SwitchFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch focus"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) KeyBindings() []key.Binding {
	return []key.Binding{
		k.ScrollAnimated,
		k.ScrollNow,
		k.Search,
		k.Invert,
		k.SwitchFocus,
		k.Reload,
		k.Quit,
	}
}

type searchKeyMap struct {
	Accept,
	Cancel key.Binding
}

func defaultSearchKeyMap() searchKeyMap {
	return searchKeyMap{
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "keep filter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
	}
}
