package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Base      lipgloss.Style
	Header    lipgloss.Style
	Working   lipgloss.Style
	Resting   lipgloss.Style
	Countdown lipgloss.Style
	Paused    lipgloss.Style
	Preset    lipgloss.Style
	Selected  lipgloss.Style
	Input     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Dim       lipgloss.Style
	Banner    lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Base:      lipgloss.NewStyle().Margin(1, 2),
		Header:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Working:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Resting:   lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true),
		Countdown: lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")),
		Paused:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		Preset:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Input:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1).Width(40),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Banner:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("78")).Bold(true).Padding(0, 2),
	}
}
