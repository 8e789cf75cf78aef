package main

import (
	"fmt"
	"strconv"
	"strings"
)

// menuAction is what selecting a menu item does.
type menuAction int

const (
	actionPreset menuAction = iota
	actionView
	actionEdit
	actionRun
)

// circuitView selects which circuit the diagram and QASM panels show.
type circuitView int

const (
	viewBase circuitView = iota
	viewMeasured
	viewDiffusion
	viewAmplified
)

func (v circuitView) String() string {
	switch v {
	case viewMeasured:
		return "measured"
	case viewDiffusion:
		return "diffusion"
	case viewAmplified:
		return "amplified j=1"
	}
	return "base"
}

// paramField is an editable configuration value.
type paramField int

const (
	fieldMatrix paramField = iota
	fieldTime
	fieldC
	fieldRegisterSize
	fieldPrep
	fieldShots
)

// preset is a ready-made problem instance.
type preset struct {
	name         string
	matrix       string
	time         string
	prep         string
	registerSize int
}

var presets = []preset{
	{name: "Reference 2x2", matrix: defaultMatrix, time: defaultTime, prep: defaultPrep, registerSize: defaultRegisterSize},
	// Eigenvalues 4 and 1 are exact register values for t = π/8, n = 4.
	{name: "diag(4,1) |0>", matrix: "4,0;0,1", time: "pi/8", prep: "", registerSize: 4},
	{name: "diag(4,1) rx(pi/2)", matrix: "4,0;0,1", time: "pi/8", prep: "rx(pi/2)", registerSize: 4},
	{name: "[[2,1],[1,2]] H|0>", matrix: "2,1;1,2", time: "pi/8", prep: "h", registerSize: 4},
}

// menuItem represents a single choice in the menu.
type menuItem struct {
	name      string
	symbol    string
	action    menuAction
	preset    int
	view      circuitView
	field     paramField
	mode      Mode
	paramHint string
}

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// runMenu defines the menu categories and items.
var runMenu = buildMenu()

func buildMenu() []menuCategory {
	presetItems := make([]menuItem, len(presets))
	for i, p := range presets {
		presetItems[i] = menuItem{name: p.name, symbol: "n=" + strconv.Itoa(p.registerSize), action: actionPreset, preset: i}
	}
	return []menuCategory{
		{name: "Presets", items: presetItems},
		{
			name: "Circuit",
			items: []menuItem{
				{name: "Base circuit", symbol: "QPE·R·QPE†", action: actionView, view: viewBase},
				{name: "Measured", symbol: "M", action: actionView, view: viewMeasured},
				{name: "Diffusion", symbol: "I-2|0><0|", action: actionView, view: viewDiffusion},
				{name: "Amplified", symbol: "j=1", action: actionView, view: viewAmplified},
			},
		},
		{
			name: "Parameters",
			items: []menuItem{
				{name: "Matrix A", symbol: "A", action: actionEdit, field: fieldMatrix, paramHint: "4,0;0,1"},
				{name: "Time t", symbol: "t", action: actionEdit, field: fieldTime, paramHint: "pi/8"},
				{name: "Normalization C", symbol: "C", action: actionEdit, field: fieldC, paramHint: "empty = 2π/(t·2^n)"},
				{name: "Register size", symbol: "n", action: actionEdit, field: fieldRegisterSize, paramHint: "4"},
				{name: "Input prep", symbol: "|b>", action: actionEdit, field: fieldPrep, paramHint: "rx(pi/2),rz(1.2)"},
				{name: "Shots", symbol: "R", action: actionEdit, field: fieldShots, paramHint: "5000"},
			},
		},
		{
			name: "Run",
			items: []menuItem{
				{name: "Direct sampling", symbol: "r", action: actionRun, mode: ModeDirect},
				{name: "Amplified sampling", symbol: "A", action: actionRun, mode: ModeAmplified},
			},
		},
	}
}

// fieldValue returns the current text of a configuration field.
func (c *Config) fieldValue(f paramField) string {
	switch f {
	case fieldMatrix:
		return c.Matrix
	case fieldTime:
		return c.Time
	case fieldC:
		return c.C
	case fieldRegisterSize:
		return strconv.Itoa(c.RegisterSize)
	case fieldPrep:
		return c.Prep
	case fieldShots:
		return strconv.Itoa(c.Shots)
	}
	return ""
}

// withField returns a copy of c with f set to value, validated.
func (c Config) withField(f paramField, value string) (Config, error) {
	value = strings.TrimSpace(value)
	switch f {
	case fieldMatrix:
		c.Matrix = value
	case fieldTime:
		c.Time = value
	case fieldC:
		c.C = value
	case fieldRegisterSize, fieldShots:
		n, err := strconv.Atoi(value)
		if err != nil {
			return c, fmt.Errorf("%q is not an integer: %w", value, ErrInvalidParameter)
		}
		if f == fieldShots {
			c.Shots = n
		} else {
			c.RegisterSize = n
		}
	case fieldPrep:
		c.Prep = value
	}
	return c, c.Validate()
}

// withPreset returns a copy of c describing preset p.
func (c Config) withPreset(p preset) Config {
	c.Matrix = p.matrix
	c.Time = p.time
	c.C = ""
	c.Prep = p.prep
	c.RegisterSize = p.registerSize
	return c
}

// renderMenu renders the floating menu popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("HHL"))
	sb.WriteString("\n")

	for i, cat := range runMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeGateStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(runMenu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 42)))
	sb.WriteString("\n")

	cat := runMenu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-20s", item.name)))
			sb.WriteString(gateStyle.Render(item.symbol))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-20s", item.name)))
			sb.WriteString(dimStyle.Render(item.symbol))
		}
		if item.action == actionEdit {
			sb.WriteString(dimStyle.Render(fmt.Sprintf(" = %s", truncate(m.cfg.fieldValue(item.field), 18))))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  ←→ Cat  ⏎ Ok  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
