package main

import "github.com/charmbracelet/lipgloss"

// Layout constants
const (
	cellW        = 11 // width of each moment column in characters
	labelVisualW = 7  // visual width of qubit label area
	gateNameW    = 5  // width of gate name inside box
	gateBoxW     = 7  // ┤ + gateNameW + ├ = 1 + 5 + 1
)

// Palette.
const (
	colBlue   = lipgloss.Color("#7aa2f7")
	colPurple = lipgloss.Color("#bb9af7")
	colAmber  = lipgloss.Color("#e0af68")
	colGreen  = lipgloss.Color("#9ece6a")
	colOrange = lipgloss.Color("#ff9e64")
	colCyan   = lipgloss.Color("#7dcfff")
	colTeal   = lipgloss.Color("#73daca")
	colMuted  = lipgloss.Color("#565f89")
	colRed    = lipgloss.Color("#f7768e")
	colText   = lipgloss.Color("#c0caf5")
)

// panel is a rounded box; the diagram and QASM panels get a full cell of
// padding, the rest a single column.
func panel(c lipgloss.Color, roomy bool) lipgloss.Style {
	s := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
	if roomy {
		return s.Padding(1)
	}
	return s.Padding(0, 1)
}

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	circuitStyle    = panel(colBlue, true)
	qasmStyle       = panel(colPurple, true)
	resultStyle     = panel(colAmber, false)
	controlsStyle   = panel(colGreen, false)
	menuBorderStyle = panel(colOrange, false)

	titleStyle        = fg(colOrange).Bold(true)
	cursorBoxStyle    = fg(colOrange).Bold(true)
	menuSelectedStyle = fg(colOrange).Bold(true)
	menuNormalStyle   = fg(colText)

	qubitLabelStyle = fg(colCyan)
	gateStyle       = fg(colTeal).Bold(true)
	unitaryStyle    = fg(colPurple).Bold(true)
	measureStyle    = fg(colAmber).Bold(true)
	activeGateStyle = fg(colAmber)

	dimStyle   = fg(colMuted)
	okStyle    = fg(colGreen)
	errorStyle = fg(colRed).Bold(true)
)
