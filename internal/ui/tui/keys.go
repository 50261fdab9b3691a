package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Pause   key.Binding
	Reset   key.Binding
	Switch  key.Binding
	Extend  key.Binding
	Dismiss key.Binding
	Lock    key.Binding
	Presets key.Binding
	Up      key.Binding
	Down    key.Binding
	Choose  key.Binding
	SaveNew key.Binding
	Cancel  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Pause:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause/resume")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Switch:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "rest now / end rest")),
		Extend:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "extend rest")),
		Dismiss: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "hide rest banner")),
		Lock:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lock screen")),
		Presets: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "choose preset")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Choose:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
		SaveNew: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "save as new preset")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (keys keyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Pause, keys.Switch, keys.Extend, keys.Presets, keys.Help, keys.Quit}
}

func (keys keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{keys.Pause, keys.Reset, keys.Switch, keys.Extend},
		{keys.Dismiss, keys.Lock, keys.Presets, keys.SaveNew},
		{keys.Up, keys.Down, keys.Choose, keys.Cancel},
		{keys.Help, keys.Quit},
	}
}
