package main

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Operation is a single step of a circuit. The implementations form a closed
// set: Gate, ControlledUnitary, BasisChange and Measurement. The engine, the
// renderer and the serializer switch over exactly these four.
type Operation interface {
	// Qubits returns every qubit the operation touches, controls first.
	Qubits() []int
	// Inverse returns the adjoint operation.
	Inverse() (Operation, error)
	isOperation()
}

// Gate is a named fixed gate on Target, applied only when every qubit in
// Controls is |1>.
type Gate struct {
	Type     string // H, X, Y, Z, RX, RY, RZ or P
	Target   int
	Controls []int
	Params   []float64
}

// ControlledUnitary applies a synthesized exp(iAt)^e to Target, controlled on Controls.
type ControlledUnitary struct {
	Controls []int
	Target   int
	Unitary  *HamiltonianSimulation
}

// BasisChange is a PhasedXPow rotation Z^p·X^e·Z^-p whose exponent e and
// phase exponent p are bound by name at execution time.
type BasisChange struct {
	Target      int
	ExponentKey string
	PhaseKey    string
	Inverted    bool
}

// Measurement records the computational-basis value of Qubit under Key.
type Measurement struct {
	Qubit int
	Key   string
}

func (Gate) isOperation()              {}
func (ControlledUnitary) isOperation() {}
func (BasisChange) isOperation()       {}
func (Measurement) isOperation()       {}

func (g Gate) Qubits() []int {
	return append(slices.Clone(g.Controls), g.Target)
}

func (g Gate) Inverse() (Operation, error) {
	inv := Gate{Type: g.Type, Target: g.Target, Controls: slices.Clone(g.Controls)}
	switch g.Type {
	case "H", "X", "Y", "Z":
	case "RX", "RY", "RZ", "P":
		inv.Params = make([]float64, len(g.Params))
		for i, p := range g.Params {
			inv.Params[i] = -p
		}
	default:
		return nil, fmt.Errorf("gate %q: %w", g.Type, ErrInvalidParameter)
	}
	return inv, nil
}

// Matrix returns the 2x2 action on the target.
func (g Gate) Matrix() (Matrix2, error) {
	param := func() (float64, error) {
		if len(g.Params) == 0 {
			return 0, fmt.Errorf("gate %q needs a parameter: %w", g.Type, ErrInvalidParameter)
		}
		return g.Params[0], nil
	}
	switch g.Type {
	case "H":
		return hadamard(), nil
	case "X":
		return pauliX(), nil
	case "Y":
		return pauliY(), nil
	case "Z":
		return pauliZ(), nil
	case "RX", "RY", "RZ", "P":
		theta, err := param()
		if err != nil {
			return Matrix2{}, err
		}
		switch g.Type {
		case "RX":
			return rx(theta), nil
		case "RY":
			return ry(theta), nil
		case "RZ":
			return rz(theta), nil
		}
		return phaseShift(theta), nil
	}
	return Matrix2{}, fmt.Errorf("gate %q: %w", g.Type, ErrInvalidParameter)
}

// On returns a copy of the gate retargeted to qubit q.
func (g Gate) On(q int) Gate {
	g.Target = q
	g.Controls = slices.Clone(g.Controls)
	g.Params = slices.Clone(g.Params)
	return g
}

func (u ControlledUnitary) Qubits() []int {
	return append(slices.Clone(u.Controls), u.Target)
}

func (u ControlledUnitary) Inverse() (Operation, error) {
	return ControlledUnitary{
		Controls: slices.Clone(u.Controls),
		Target:   u.Target,
		Unitary:  u.Unitary.Pow(-1),
	}, nil
}

func (b BasisChange) Qubits() []int { return []int{b.Target} }

func (b BasisChange) Inverse() (Operation, error) {
	b.Inverted = !b.Inverted
	return b, nil
}

// Matrix resolves the symbolic exponents against params.
func (b BasisChange) Matrix(params ParamResolver) (Matrix2, error) {
	e, ok := params[b.ExponentKey]
	if !ok {
		return Matrix2{}, fmt.Errorf("%q: %w", b.ExponentKey, ErrUnresolvedSymbol)
	}
	p, ok := params[b.PhaseKey]
	if !ok {
		return Matrix2{}, fmt.Errorf("%q: %w", b.PhaseKey, ErrUnresolvedSymbol)
	}
	if b.Inverted {
		e = -e
	}
	return phasedXPow(e, p), nil
}

func (m Measurement) Qubits() []int { return []int{m.Qubit} }

func (m Measurement) Inverse() (Operation, error) {
	return nil, fmt.Errorf("measurement %q: %w", m.Key, ErrNotInvertible)
}

// ParamResolver binds symbolic parameter names to values.
type ParamResolver map[string]float64

// ──────────────────────────── Circuit ────────────────────────────

// Circuit is an ordered, declarative list of operations. Methods never modify
// the receiver; composition always returns a new circuit.
type Circuit struct {
	NumQubits int
	Ops       []Operation
}

// NewCircuit builds a circuit over at least numQubits qubits.
func NewCircuit(numQubits int, ops ...Operation) *Circuit {
	c := &Circuit{NumQubits: numQubits}
	return c.Append(ops...)
}

// Append returns a new circuit with ops added at the end.
func (c *Circuit) Append(ops ...Operation) *Circuit {
	out := &Circuit{
		NumQubits: c.NumQubits,
		Ops:       make([]Operation, 0, len(c.Ops)+len(ops)),
	}
	out.Ops = append(out.Ops, c.Ops...)
	for _, op := range ops {
		for _, q := range op.Qubits() {
			out.NumQubits = max(out.NumQubits, q+1)
		}
		out.Ops = append(out.Ops, op)
	}
	return out
}

// Concat returns c followed by every circuit in others.
func (c *Circuit) Concat(others ...*Circuit) *Circuit {
	out := c
	for _, o := range others {
		out = out.Append(o.Ops...)
		out.NumQubits = max(out.NumQubits, o.NumQubits)
	}
	return out
}

// Inverse reverses the operation order and inverts each operation.
func (c *Circuit) Inverse() (*Circuit, error) {
	ops := make([]Operation, len(c.Ops))
	for i, op := range c.Ops {
		inv, err := op.Inverse()
		if err != nil {
			return nil, err
		}
		ops[len(c.Ops)-1-i] = inv
	}
	return &Circuit{NumQubits: c.NumQubits, Ops: ops}, nil
}

// Len returns the number of operations.
func (c *Circuit) Len() int { return len(c.Ops) }

// Qubits returns the sorted qubits touched by any operation.
func (c *Circuit) Qubits() []int {
	seen := make(map[int]bool)
	var qs []int
	for _, op := range c.Ops {
		for _, q := range op.Qubits() {
			if !seen[q] {
				seen[q] = true
				qs = append(qs, q)
			}
		}
	}
	slices.Sort(qs)
	return qs
}

// MeasurementKeys returns measurement keys in circuit order.
func (c *Circuit) MeasurementKeys() []string {
	var keys []string
	for _, op := range c.Ops {
		if m, ok := op.(Measurement); ok {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// ──────────────────────────── QASM export ────────────────────────────

func qubitList(qs []int) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = fmt.Sprintf("q[%d]", q)
	}
	return strings.Join(parts, ", ")
}

func ctrlModifier(controls []int) string {
	switch len(controls) {
	case 0:
		return ""
	case 1:
		return "ctrl @ "
	default:
		return fmt.Sprintf("ctrl(%d) @ ", len(controls))
	}
}

// ToQASM generates OpenQASM 3.0 output. Synthesized unitaries are emitted as
// U(θ, φ, λ) plus a gphase carrying the global phase, which matters once the
// gate is controlled. Basis-change symbols become input parameters.
func (c *Circuit) ToQASM() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 3.0;\n")
	sb.WriteString("include \"stdgates.inc\";\n\n")

	var inputs []string
	for _, op := range c.Ops {
		if b, ok := op.(BasisChange); ok {
			for _, k := range []string{b.ExponentKey, b.PhaseKey} {
				if !slices.Contains(inputs, k) {
					inputs = append(inputs, k)
				}
			}
		}
	}
	for _, in := range inputs {
		fmt.Fprintf(&sb, "input float[64] %s;\n", in)
	}
	fmt.Fprintf(&sb, "qubit[%d] q;\n", max(c.NumQubits, 1))
	for _, k := range c.MeasurementKeys() {
		fmt.Fprintf(&sb, "bit %s;\n", k)
	}
	sb.WriteString("\n")

	for _, op := range c.Ops {
		switch op := op.(type) {
		case Gate:
			name := strings.ToLower(op.Type)
			if len(op.Params) > 0 {
				name = fmt.Sprintf("%s(%s)", name, formatParam(op.Params[0]))
			}
			fmt.Fprintf(&sb, "%s%s %s;\n", ctrlModifier(op.Controls), name, qubitList(op.Qubits()))
		case ControlledUnitary:
			theta, phi, lambda, gamma := op.Unitary.Unitary().zyz()
			fmt.Fprintf(&sb, "%sU(%s, %s, %s) %s;\n", ctrlModifier(op.Controls),
				formatParam(theta), formatParam(phi), formatParam(lambda), qubitList(op.Qubits()))
			if math.Abs(gamma) > 1e-12 {
				if len(op.Controls) == 0 {
					fmt.Fprintf(&sb, "gphase(%s);\n", formatParam(gamma))
				} else {
					fmt.Fprintf(&sb, "%sgphase(%s) %s;\n", ctrlModifier(op.Controls), formatParam(gamma), qubitList(op.Controls))
				}
			}
		case BasisChange:
			sign := ""
			if op.Inverted {
				sign = "-"
			}
			fmt.Fprintf(&sb, "p(-pi*%s) q[%d];\n", op.PhaseKey, op.Target)
			fmt.Fprintf(&sb, "rx(%spi*%s) q[%d];\n", sign, op.ExponentKey, op.Target)
			fmt.Fprintf(&sb, "p(pi*%s) q[%d];\n", op.PhaseKey, op.Target)
		case Measurement:
			fmt.Fprintf(&sb, "%s = measure q[%d];\n", op.Key, op.Qubit)
		}
	}

	return sb.String()
}
