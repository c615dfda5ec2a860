package ui

import "github.com/charmbracelet/lipgloss"

// UI styling
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#43BF6D")).
		Padding(0, 1)

	recordingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#D22B2B")).
		Padding(0, 1)

	activeStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#43BF6D"))

	inactiveStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF0000"))

	docStyle = lipgloss.NewStyle().
		Margin(1, 2)

	highlightStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#874BFD"))

	statusStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#43BF6D"))

	helpStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666"))
)
