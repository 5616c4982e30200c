// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// chromeHeight is the number of rows outside the history viewport:
// header, status line, and composer.
const chromeHeight = 4

// styles holds the lipgloss styles for one render profile.
type styles struct {
	header    lipgloss.Style
	userLabel lipgloss.Style
	botLabel  lipgloss.Style
	status    lipgloss.Style
	prompt    lipgloss.Style
	cursor    lipgloss.Style
	overlay   lipgloss.Style
	faint     lipgloss.Style

	// chromaTheme is the style name used for code block highlighting.
	chromaTheme string
}

func newStyles(theme string) styles {
	if theme == "" {
		theme = "monokai"
	}

	// Degrade gracefully on dumb terminals.
	accent := lipgloss.Color("6")
	user := lipgloss.Color("4")
	bot := lipgloss.Color("2")
	if termenv.ColorProfile() == termenv.Ascii {
		accent, user, bot = "", "", ""
	}

	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		userLabel: lipgloss.NewStyle().Bold(true).Foreground(user),
		botLabel:  lipgloss.NewStyle().Bold(true).Foreground(bot),
		status:    lipgloss.NewStyle().Faint(true),
		prompt:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		cursor:    lipgloss.NewStyle().Reverse(true),
		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		faint:       lipgloss.NewStyle().Faint(true),
		chromaTheme: theme,
	}
}
