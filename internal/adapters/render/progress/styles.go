package progress

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	prompt  lipgloss.Style
	detail  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	status  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		prompt:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		status:  lipgloss.NewStyle().Faint(true),
	}
}
