package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray
	colorError     = lipgloss.Color("9")   // bright red

	styleInput = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	// navigation tree
	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	styleListSection = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Bold(true)

	styleListNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	stylePromptMark = lipgloss.NewStyle().
			Foreground(colorSecondary)

	// conversation
	styleUser = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleAssistant = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleQuestion = lipgloss.NewStyle().
			Foreground(colorHighlight)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleDim = lipgloss.NewStyle().
			Foreground(colorDim)
)
