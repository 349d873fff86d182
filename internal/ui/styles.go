package ui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle is used for help section headers. ANSI 6 (cyan) reads well on dark and light terminals.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	// UsageStyle ANSI 2 (green) for arguments and usage lines
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle ANSI 8 (gray) keeps descriptions quieter than names
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// FlagStyle ANSI 3 (yellow) for flags
	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// HeaderStyle marks the first line of command reports.
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)
