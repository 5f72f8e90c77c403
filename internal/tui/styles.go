package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#E8590C", Dark: "#FF922B"}
	colorUser    = lipgloss.AdaptiveColor{Light: "#1C7ED6", Dark: "#4DABF7"}
	colorBot     = lipgloss.AdaptiveColor{Light: "#495057", Dark: "#CED4DA"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#868E96", Dark: "#868E96"}
	colorSpinner = lipgloss.Color("63")
)

// Styles groups every lipgloss style the chat view uses.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Header   lipgloss.Style
	Label    lipgloss.Style
	User     lipgloss.Style
	Bot      lipgloss.Style
	Hint     lipgloss.Style
	Thinking lipgloss.Style
	Input    lipgloss.Style
	Disabled lipgloss.Style
	Footer   lipgloss.Style
	Spinner  lipgloss.Style
}

func DefaultStyles() Styles {
	bubble := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Subtitle: lipgloss.NewStyle().Foreground(colorMuted),
		Header:   lipgloss.NewStyle().Padding(0, 1).MarginBottom(1),
		Label:    lipgloss.NewStyle().Bold(true),
		User:     bubble.BorderForeground(colorUser),
		Bot:      bubble.BorderForeground(colorBot),
		Hint:     lipgloss.NewStyle().Foreground(colorMuted).Italic(true).Align(lipgloss.Center),
		Thinking: lipgloss.NewStyle().Foreground(colorMuted),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1),
		Disabled: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1),
		Footer:  lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1),
		Spinner: lipgloss.NewStyle().Foreground(colorSpinner).Bold(true),
	}
}
