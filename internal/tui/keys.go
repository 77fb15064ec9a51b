package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keyboard bindings of the main surface.
type keyMap struct {
	// Global
	Quit   key.Binding
	Help   key.Binding
	Logout key.Binding

	// Calendar
	PrevDay    key.Binding
	NextDay    key.Binding
	PrevWeek   key.Binding
	NextWeek   key.Binding
	PrevMonth  key.Binding
	NextMonth  key.Binding
	Today      key.Binding
	NextTask   key.Binding
	PrevTask   key.Binding
	ToggleTask key.Binding
	DeleteTask key.Binding
	AddTask    key.Binding
	Diary      key.Binding
	Mood       key.Binding
	ClearDay   key.Binding

	// Vision board
	AddVision    key.Binding
	NextVision   key.Binding
	PrevVision   key.Binding
	DeleteVision key.Binding

	// Input and confirmation
	Submit  key.Binding
	Cancel  key.Binding
	Approve key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Leave room"),
		),

		PrevDay: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "Previous day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "Next day"),
		),
		PrevWeek: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "Previous week"),
		),
		NextWeek: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "Next week"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next month"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Today"),
		),
		NextTask: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next task"),
		),
		PrevTask: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous task"),
		),
		ToggleTask: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "Toggle task"),
		),
		DeleteTask: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Delete task"),
		),
		AddTask: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add task"),
		),
		Diary: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Edit diary"),
		),
		Mood: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5"),
			key.WithHelp("1-5", "Mood"),
		),
		ClearDay: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear day"),
		),

		AddVision: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Add image"),
		),
		NextVision: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "Next image"),
		),
		PrevVision: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "Previous image"),
		),
		DeleteVision: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Delete image"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Submit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
		Approve: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "Yes"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.AddTask, k.ToggleTask, k.Mood, k.Diary, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevDay, k.NextDay, k.PrevWeek, k.NextWeek, k.PrevMonth, k.NextMonth, k.Today},
		{k.AddTask, k.NextTask, k.PrevTask, k.ToggleTask, k.DeleteTask},
		{k.Mood, k.Diary, k.ClearDay},
		{k.AddVision, k.NextVision, k.PrevVision, k.DeleteVision},
		{k.Logout, k.Help, k.Quit},
	}
}
