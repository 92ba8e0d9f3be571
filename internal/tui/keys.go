package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the application
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Selection
	Dependent key.Binding
	Toggle    key.Binding
	Analyze   key.Binding

	// Results
	Back      key.Binding
	ReportPDF key.Binding
	ReportXLS key.Binding
	Dashboard key.Binding

	// Session
	Upload  key.Binding
	Discard key.Binding
	Enter   key.Binding
	Escape  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Dependent: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "set dependent"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle independent"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "analyze"),
		),
		Back: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "back to selection"),
		),
		ReportPDF: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pdf report"),
		),
		ReportXLS: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "xlsx report"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "html dashboard"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "new upload"),
		),
		Discard: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "discard session"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "upload"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns a short help string
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Upload, k.Discard, k.Quit}
}

// FullHelp returns the full help string
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Dependent, k.Toggle, k.Analyze},
		{k.Back, k.ReportPDF, k.ReportXLS, k.Dashboard},
		{k.Upload, k.Discard, k.Help, k.Quit},
	}
}
