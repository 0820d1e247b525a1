package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Choose      key.Binding
	Cancel      key.Binding
	Inventory   key.Binding
	NextSetting key.Binding
	Toggle      key.Binding
	Reset       key.Binding
	Copy        key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Choose: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "choose"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave puzzle"),
		),
		Inventory: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "select item"),
		),
		NextSetting: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "next setting"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle setting"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy save"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Choose, k.Cancel, k.Inventory, k.NextSetting, k.Toggle, k.Reset, k.Copy, k.Quit}
}
