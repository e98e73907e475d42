package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	Notices    key.Binding

	// Backend actions
	Connect key.Binding
	Seed    key.Binding
	Refresh key.Binding

	// File actions
	Delete   key.Binding
	Download key.Binding
	Confirm  key.Binding
	Dismiss  key.Binding

	// Sorting
	SortName     key.Binding
	SortSize     key.Binding
	SortModified key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear selection / back"),
		),
		Notices: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Notice history"),
		),

		// Backend actions
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Connect / disconnect"),
		),
		Seed: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Seeding on / off"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh files"),
		),

		// File actions
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete file"),
		),
		Download: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Download file"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "Confirm"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss notices"),
		),

		// Sorting
		SortName: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Sort by name"),
		),
		SortSize: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Sort by size"),
		),
		SortModified: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Sort by modified"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings grouped the way the help overlay shows them.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.Up, k.Down, k.Top, k.Bottom, k.Escape},
		// Files
		{k.SortName, k.SortSize, k.SortModified, k.Download, k.Delete, k.Refresh},
		// Backend
		{k.Connect, k.Seed, k.Notices, k.Dismiss},
		// General
		{k.CycleTheme, k.Help, k.Quit},
	}
}
