package main

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func controlsOf(op Operation) []int {
	switch op := op.(type) {
	case Gate:
		return op.Controls
	case ControlledUnitary:
		return op.Controls
	}
	return nil
}

func targetOf(op Operation) int {
	switch op := op.(type) {
	case Gate:
		return op.Target
	case ControlledUnitary:
		return op.Target
	case BasisChange:
		return op.Target
	case Measurement:
		return op.Qubit
	}
	return -1
}

// opDisplayName returns the short name drawn inside a gate box.
func opDisplayName(op Operation) string {
	switch op := op.(type) {
	case Gate:
		return op.Type
	case ControlledUnitary:
		e := strconv.FormatFloat(op.Unitary.Exponent, 'g', 3, 64)
		if op.Unitary.Exponent < 0 {
			return "U" + e
		}
		return "U^" + e
	case BasisChange:
		if op.Inverted {
			return "PXdg"
		}
		return "PX"
	case Measurement:
		return "M"
	}
	return "?"
}

// targetSymbol returns the wire symbol for a controlled target, or "" when
// the target is drawn as a box.
func targetSymbol(op Operation) string {
	g, ok := op.(Gate)
	if !ok || len(g.Controls) == 0 {
		return ""
	}
	switch g.Type {
	case "X":
		return "⊕"
	case "Z":
		return "●"
	}
	return ""
}

func opStyle(op Operation) lipgloss.Style {
	switch op.(type) {
	case ControlledUnitary:
		return unitaryStyle
	case Measurement, BasisChange:
		return measureStyle
	}
	return gateStyle
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
)

// cellInfo describes what a single (moment, qubit) cell shows.
type cellInfo struct {
	op          Operation
	isControl   bool
	isTarget    bool
	passThrough bool // inside the span of op without being touched by it
	vertAbove   bool
	vertBelow   bool
}

func cellInfoAt(m Moment, qubit int) cellInfo {
	op, ok := m.OpAt(qubit)
	if !ok {
		return cellInfo{}
	}
	lo, hi := span(op)
	info := cellInfo{op: op, vertAbove: qubit > lo, vertBelow: qubit < hi}
	switch {
	case slices.Contains(controlsOf(op), qubit):
		info.isControl = true
	case targetOf(op) == qubit:
		info.isTarget = true
	default:
		info.passThrough = true
	}
	return info
}

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW (11) visual characters wide.
func renderCell(info cellInfo, hl cellHighlight) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
	vertical := func(on bool) string {
		if on {
			return vertRow
		}
		return emptyRow
	}

	var symbol string
	switch {
	case info.isControl:
		symbol = gateStyle.Render("●")
	case info.isTarget:
		if s := targetSymbol(info.op); s != "" {
			symbol = gateStyle.Render(s)
		}
	case info.passThrough:
		symbol = "┼"
	}
	boxed := info.isTarget && symbol == ""

	if hl == hlCursor {
		innerW := cellW - 2
		dashL := (innerW - 1) / 2
		dashR := innerW - dashL - 1
		top = cursorBoxStyle.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = cursorBoxStyle.Render("╚" + strings.Repeat("═", innerW) + "╝")
		edge := cursorBoxStyle.Render("║")
		switch {
		case boxed:
			name := padCenter(opDisplayName(info.op), gateNameW)
			mid = edge + "─┤" + opStyle(info.op).Render(name) + "├─" + edge
		case symbol != "":
			mid = edge + strings.Repeat("─", dashL) + symbol + strings.Repeat("─", dashR) + edge
		default:
			mid = edge + strings.Repeat("─", innerW) + edge
		}
		return
	}

	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	switch {
	case boxed:
		margin := (cellW - gateBoxW) / 2
		rightMargin := cellW - margin - gateBoxW
		style := opStyle(info.op)
		name := padCenter(opDisplayName(info.op), gateNameW)
		edge := func(left, joint, right string, on bool) string {
			line := strings.Repeat("─", gateNameW)
			if on {
				half := gateNameW / 2
				line = strings.Repeat("─", half) + joint + strings.Repeat("─", gateNameW-half-1)
			}
			return strings.Repeat(" ", margin) + style.Render(left+line+right) + strings.Repeat(" ", rightMargin)
		}
		top = edge("┌", "┴", "┐", info.vertAbove)
		mid = strings.Repeat("─", margin) + style.Render("┤"+name+"├") + strings.Repeat("─", rightMargin)
		bot = edge("└", "┬", "┘", info.vertBelow)

	case symbol != "":
		top = vertical(info.vertAbove)
		mid = strings.Repeat("─", dashL) + symbol + strings.Repeat("─", dashR)
		bot = vertical(info.vertBelow)

	default:
		top = emptyRow
		mid = strings.Repeat("─", cellW)
		bot = emptyRow
	}
	return
}

// ──────────────────────────── Circuit diagram ────────────────────────────

// circuitWindow selects the visible moments and the highlighted cell.
type circuitWindow struct {
	start       int
	steps       int
	cursorStep  int
	cursorQubit int
	showCursor  bool
}

// qubitLabels names the HHL wires: ancilla, register (most significant
// first) and memory.
func qubitLabels(registerSize int) []string {
	labels := make([]string, 0, registerSize+2)
	labels = append(labels, "anc")
	for i := 1; i <= registerSize; i++ {
		labels = append(labels, fmt.Sprintf("r%d", i))
	}
	return append(labels, "mem")
}

// renderCircuit draws moments [w.start, w.start+w.steps) as box-drawing wires.
func renderCircuit(moments []Moment, labels []string, w circuitWindow) string {
	var sb strings.Builder
	end := min(w.start+w.steps, len(moments))

	header := strings.Repeat(" ", labelVisualW)
	for step := w.start; step < end; step++ {
		header += dimStyle.Render(padCenter(strconv.Itoa(step), cellW))
	}
	sb.WriteString(header + "\n")

	for qubit, label := range labels {
		topLine := strings.Repeat(" ", labelVisualW)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-5s", label)) + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for step := w.start; step < end; step++ {
			hl := hlNone
			if w.showCursor && step == w.cursorStep && qubit == w.cursorQubit {
				hl = hlCursor
			}
			top, mid, bot := renderCell(cellInfoAt(moments[step], qubit), hl)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}
	return sb.String()
}

// describeOp is the one-line status text for the operation under the cursor.
func describeOp(op Operation) string {
	switch op := op.(type) {
	case Gate:
		s := op.Type
		if len(op.Params) > 0 {
			s += "(" + formatParam(op.Params[0]) + ")"
		}
		if len(op.Controls) > 0 {
			return fmt.Sprintf("%s on q[%d] controlled by %v", s, op.Target, op.Controls)
		}
		return fmt.Sprintf("%s on q[%d]", s, op.Target)
	case ControlledUnitary:
		phases := make([]string, 0, 2)
		for _, p := range op.Unitary.Phases() {
			phases = append(phases, formatParam(p))
		}
		return fmt.Sprintf("exp(iAt)^%g on q[%d] controlled by %v, phases %s",
			op.Unitary.Exponent, op.Target, op.Controls, strings.Join(phases, " "))
	case BasisChange:
		return fmt.Sprintf("PhasedXPow(%s, %s) on q[%d]", op.ExponentKey, op.PhaseKey, op.Target)
	case Measurement:
		return fmt.Sprintf("measure q[%d] → %s", op.Qubit, op.Key)
	}
	return ""
}

// ──────────────────────────── Report ────────────────────────────

func formatExpectation(v float64) string {
	if math.IsNaN(v) {
		return "insufficient samples"
	}
	return fmt.Sprintf("%+.6f", v)
}

// formatReference formats a classical reference value; NaN means A has no
// inverse.
func formatReference(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.6f", v)
}

// renderReport prints expected against estimated Pauli expectations.
func renderReport(expected [3]float64, r *Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n", titleStyle.Render(fmt.Sprintf("Mode %s", r.Mode)), dimStyle.Render("run "+r.ID.String()))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%-4s %-12s %-22s %8s %8s %6s", "obs", "expected", "estimate", "samples", "runs", "calls")))
	sb.WriteString("\n")

	exhausted := false
	for _, e := range r.Estimates {
		exp, _ := e.Expectation()
		estimate := formatExpectation(exp)
		style := okStyle
		if math.IsNaN(exp) {
			style = errorStyle
		}
		mark := " "
		if e.Exhausted {
			mark = "*"
			exhausted = true
		}
		want := math.NaN()
		if int(e.Observable) < len(expected) {
			want = expected[e.Observable]
		}
		fmt.Fprintf(&sb, "%-4s %-12s %s %8d %8d %6d%s\n",
			e.Observable, formatReference(want), style.Render(fmt.Sprintf("%-22s", estimate)),
			len(e.Outcomes), e.Runs, e.Calls, mark)
		if e.Err != nil {
			sb.WriteString(errorStyle.Render("     " + e.Err.Error()))
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "success probability %.6f", r.SuccessProbability())
	if exhausted {
		sb.WriteString("\n" + dimStyle.Render("* doubling rounds exhausted before the requested estimates"))
	}
	return sb.String()
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
// It handles ANSI escape sequences by tracking visible column positions.
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

func isEscapeEnd(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// spliceLineAt replaces visible columns starting at x in bgLine with overlay.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix, suffix strings.Builder
	col, i := 0, 0

	// copyEscape copies one escape sequence starting at runes[i] into sb.
	copyEscape := func(sb *strings.Builder) {
		sb.WriteRune(runes[i])
		i++
		for i < len(runes) {
			r := runes[i]
			sb.WriteRune(r)
			i++
			if isEscapeEnd(r) {
				return
			}
		}
	}

	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			copyEscape(&prefix)
			continue
		}
		prefix.WriteRune(runes[i])
		col++
		i++
	}
	for col < x {
		prefix.WriteRune(' ')
		col++
	}

	var skipped strings.Builder
	for n := 0; i < len(runes) && n < ovWidth; {
		if runes[i] == '\x1b' {
			copyEscape(&skipped)
			continue
		}
		n++
		i++
	}

	for i < len(runes) {
		suffix.WriteRune(runes[i])
		i++
	}
	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if isEscapeEnd(r) {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
