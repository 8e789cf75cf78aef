package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// piExprRegex matches expressions like: pi, 2pi, 2*pi, pi/2, 3pi/4, 0.358166*pi, -pi/2
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// prepGateRegex matches one input-preparation gate: "h", "x", "rx(pi/2)", "RZ( 1.27 )".
var prepGateRegex = regexp.MustCompile(`(?i)^(h|x|y|z|rx|ry|rz|p)\s*(?:\(\s*([^()]*?)\s*\))?$`)

// parseParamExpr parses a single parameter expression, supporting plain numbers and pi expressions.
// Returns the parsed float64 value and true on success, or 0 and false on failure.
//
// Supported formats:
//   - Plain numbers: "1.5707", "3.14", "-0.5"
//   - Pi constant: "pi"
//   - Pi fractions: "pi/2", "pi/4", "pi/3"
//   - Coefficients: "2pi", "2*pi", "3pi/4", "0.358166*pi"
//   - Negative: "-pi", "-pi/2", "-3*pi/4"
func parseParamExpr(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}

	s = strings.ToLower(s)
	matches := piExprRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, false
	}
	negative := matches[1] == "-"
	coeffStr := matches[2]
	denomStr := matches[3]

	coeff := 1.0
	if coeffStr != "" {
		var err error
		coeff, err = strconv.ParseFloat(coeffStr, 64)
		if err != nil {
			return 0, false
		}
	}

	result := coeff * math.Pi

	if denomStr != "" {
		denom, err := strconv.ParseFloat(denomStr, 64)
		if err != nil || denom == 0 {
			return 0, false
		}
		result /= denom
	}

	if negative {
		result = -result
	}
	return result, true
}

// ParseExpression is parseParamExpr with an error for configuration callers.
func ParseExpression(s string) (float64, error) {
	v, ok := parseParamExpr(s)
	if !ok {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidExpression)
	}
	return v, nil
}

// formatParam formats a float64 parameter value, using pi notation when possible.
// Recognizes common pi fractions: pi, pi/2, pi/4, pi/3, pi/6, pi/8, 2pi, 3pi/4, etc.
func formatParam(val float64) string {
	type piForm struct {
		value   float64
		display string
	}
	piForms := []piForm{
		{2 * math.Pi, "2*pi"},
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 3, "pi/3"},
		{math.Pi / 4, "pi/4"},
		{math.Pi / 6, "pi/6"},
		{math.Pi / 8, "pi/8"},
		{math.Pi / 16, "pi/16"},
		{3 * math.Pi / 4, "3*pi/4"},
		{3 * math.Pi / 2, "3*pi/2"},
		{2 * math.Pi / 3, "2*pi/3"},
	}

	for _, pf := range piForms {
		if math.Abs(val-pf.value) < 1e-10 {
			return pf.display
		}
		if math.Abs(val+pf.value) < 1e-10 {
			return "-" + pf.display
		}
	}

	return fmt.Sprintf("%g", val)
}

// parseParamList parses comma-separated expressions. Returns nil if any part
// fails to parse.
func parseParamList(input string) []float64 {
	var params []float64
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		val, ok := parseParamExpr(part)
		if !ok {
			return nil
		}
		params = append(params, val)
	}
	return params
}

// splitTopLevel splits s on sep outside parentheses.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// ParsePrep parses an input-preparation list such as "rx(1.276359),rz(1.276359)".
// An empty string prepares |0>.
func ParsePrep(s string) ([]Gate, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var gates []Gate
	for _, part := range splitTopLevel(s, ',') {
		part = strings.TrimSpace(part)
		m := prepGateRegex.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Errorf("prep gate %q: %w", part, ErrInvalidExpression)
		}
		g := Gate{Type: strings.ToUpper(m[1])}
		switch g.Type {
		case "RX", "RY", "RZ", "P":
			v, err := ParseExpression(m[2])
			if err != nil {
				return nil, fmt.Errorf("prep gate %q: %w", part, err)
			}
			g.Params = []float64{v}
		default:
			if m[2] != "" {
				return nil, fmt.Errorf("prep gate %q takes no parameter: %w", part, ErrInvalidExpression)
			}
		}
		gates = append(gates, g)
	}
	return gates, nil
}

// FormatPrep is the inverse of ParsePrep.
func FormatPrep(gates []Gate) string {
	parts := make([]string, len(gates))
	for i, g := range gates {
		name := strings.ToLower(g.Type)
		if len(g.Params) > 0 {
			name = fmt.Sprintf("%s(%s)", name, formatParam(g.Params[0]))
		}
		parts[i] = name
	}
	return strings.Join(parts, ",")
}

// ParseMatrix parses "a00,a01;a10,a11" where each entry is a Go complex
// literal ("4", "0.23+0.93i", "(1-2i)").
func ParseMatrix(s string) (HermitianMatrix, error) {
	var a HermitianMatrix
	rows := strings.Split(s, ";")
	if len(rows) != 2 {
		return a, fmt.Errorf("matrix %q needs 2 rows: %w", s, ErrInvalidMatrix)
	}
	for i, row := range rows {
		cols := strings.Split(row, ",")
		if len(cols) != 2 {
			return a, fmt.Errorf("matrix row %q needs 2 entries: %w", row, ErrInvalidMatrix)
		}
		for j, entry := range cols {
			v, err := strconv.ParseComplex(strings.TrimSpace(entry), 128)
			if err != nil {
				return a, fmt.Errorf("matrix entry %q: %w", entry, ErrInvalidMatrix)
			}
			a[i][j] = v
		}
	}
	return a, a.validate()
}

// FormatMatrix is the inverse of ParseMatrix.
func FormatMatrix(a HermitianMatrix) string {
	entry := func(v Complex) string {
		if imag(v) == 0 {
			return strconv.FormatFloat(real(v), 'g', -1, 64)
		}
		return strings.Trim(strconv.FormatComplex(v, 'g', -1, 128), "()")
	}
	return fmt.Sprintf("%s,%s;%s,%s", entry(a[0][0]), entry(a[0][1]), entry(a[1][0]), entry(a[1][1]))
}
