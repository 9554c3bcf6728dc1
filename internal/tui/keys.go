package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Switch  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Dismiss key.Binding
	Quit    key.Binding

	// notifications
	MarkRead key.Binding
	MarkAll  key.Binding
	Select   key.Binding
	Delete   key.Binding
	Send     key.Binding

	// reels
	Tap    key.Binding
	Like   key.Binding
	Mute   key.Binding
	Faster key.Binding
	Slower key.Binding
	Retry  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch screen")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		MarkRead: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "mark read")),
		MarkAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all read")),
		Select:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "select")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Send:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "send test notification")),

		Tap:    key.NewBinding(key.WithKeys(" ", "space", "t"), key.WithHelp("space", "tap (twice to like)")),
		Like:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like/unlike")),
		Mute:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Faster: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "rate")),
		Slower: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "slower")),
		Retry:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "retry media")),
	}
}

// screenHelp adapts keyMap to help.KeyMap for the active screen.
type screenHelp struct {
	keys   keyMap
	screen screen
}

func (h screenHelp) ShortHelp() []key.Binding {
	if h.screen == screenReels {
		return []key.Binding{h.keys.Down, h.keys.Tap, h.keys.Like, h.keys.Mute, h.keys.Switch, h.keys.Help}
	}
	return []key.Binding{h.keys.Down, h.keys.MarkRead, h.keys.Delete, h.keys.Switch, h.keys.Help}
}

func (h screenHelp) FullHelp() [][]key.Binding {
	common := []key.Binding{h.keys.Up, h.keys.Down, h.keys.Switch, h.keys.Refresh, h.keys.Dismiss, h.keys.Quit}
	if h.screen == screenReels {
		return [][]key.Binding{
			common,
			{h.keys.Tap, h.keys.Like, h.keys.Mute, h.keys.Faster, h.keys.Retry},
		}
	}
	return [][]key.Binding{
		common,
		{h.keys.MarkRead, h.keys.MarkAll, h.keys.Select, h.keys.Delete, h.keys.Send},
	}
}
