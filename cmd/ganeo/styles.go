package main

import "github.com/charmbracelet/lipgloss"

var styles = struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Command lipgloss.Style
	Warning lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7D56F4")).
		Bold(true),

	Header: lipgloss.NewStyle().
		Bold(true).
		Underline(true),

	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6C6C6C")),

	Command: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Width(8),

	Warning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFB000")),
}
