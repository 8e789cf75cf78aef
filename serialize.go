package main

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const programVersion = 1

const (
	opGate    = "gate"
	opUnitary = "unitary"
	opBasis   = "basis"
	opMeasure = "measure"
)

// program is the wire form of a circuit: moments of operations whose qubits
// are indexes into a shared qubit table.
type program struct {
	Version   int             `msgpack:"version"`
	NumQubits int             `msgpack:"num_qubits"`
	Qubits    []int           `msgpack:"qubits"`
	Moments   []programMoment `msgpack:"moments"`
}

type programMoment struct {
	Ops []programOp `msgpack:"ops"`
}

type programOp struct {
	Kind     string    `msgpack:"kind"`
	Name     string    `msgpack:"name,omitempty"`
	Target   int       `msgpack:"target"`
	Controls []int     `msgpack:"controls,omitempty"`
	Params   []float64 `msgpack:"params,omitempty"`
	Symbols  []string  `msgpack:"symbols,omitempty"`
	Inverted bool      `msgpack:"inverted,omitempty"`

	// Synthesized unitaries: A as re/im pairs in row-major order, t and exponent.
	Matrix   []float64 `msgpack:"matrix,omitempty"`
	Time     float64   `msgpack:"time,omitempty"`
	Exponent float64   `msgpack:"exponent,omitempty"`
}

// MarshalProgram encodes c as a versioned msgpack program.
func MarshalProgram(c *Circuit) ([]byte, error) {
	qubits := c.Qubits()
	index := make(map[int]int, len(qubits))
	for i, q := range qubits {
		index[q] = i
	}
	indexes := func(qs []int) []int {
		if len(qs) == 0 {
			return nil
		}
		out := make([]int, len(qs))
		for i, q := range qs {
			out[i] = index[q]
		}
		return out
	}

	p := program{Version: programVersion, NumQubits: c.NumQubits, Qubits: qubits}
	for _, m := range Moments(c) {
		var pm programMoment
		for _, op := range m.Ops {
			var po programOp
			switch op := op.(type) {
			case Gate:
				po = programOp{Kind: opGate, Name: op.Type, Target: index[op.Target], Controls: indexes(op.Controls), Params: op.Params}
			case ControlledUnitary:
				u := op.Unitary
				po = programOp{
					Kind:     opUnitary,
					Target:   index[op.Target],
					Controls: indexes(op.Controls),
					Matrix:   make([]float64, 0, 8),
					Time:     u.T,
					Exponent: u.Exponent,
				}
				for i := range 2 {
					for j := range 2 {
						po.Matrix = append(po.Matrix, real(u.A[i][j]), imag(u.A[i][j]))
					}
				}
			case BasisChange:
				po = programOp{Kind: opBasis, Target: index[op.Target], Symbols: []string{op.ExponentKey, op.PhaseKey}, Inverted: op.Inverted}
			case Measurement:
				po = programOp{Kind: opMeasure, Name: op.Key, Target: index[op.Qubit]}
			default:
				return nil, fmt.Errorf("operation %T: %w", op, ErrUnsupportedProgram)
			}
			pm.Ops = append(pm.Ops, po)
		}
		p.Moments = append(p.Moments, pm)
	}
	return msgpack.Marshal(&p)
}

// UnmarshalProgram decodes a program written by MarshalProgram.
func UnmarshalProgram(b []byte) (*Circuit, error) {
	var p program
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode program: %w: %w", ErrUnsupportedProgram, err)
	}
	if p.Version != programVersion {
		return nil, fmt.Errorf("program version %d: %w", p.Version, ErrUnsupportedProgram)
	}

	qubit := func(i int) (int, error) {
		if i < 0 || i >= len(p.Qubits) {
			return 0, fmt.Errorf("qubit index %d outside table of %d: %w", i, len(p.Qubits), ErrUnsupportedProgram)
		}
		return p.Qubits[i], nil
	}
	qubitList := func(is []int) ([]int, error) {
		if len(is) == 0 {
			return nil, nil
		}
		out := make([]int, len(is))
		for k, i := range is {
			q, err := qubit(i)
			if err != nil {
				return nil, err
			}
			out[k] = q
		}
		return out, nil
	}

	moments := make([]Moment, 0, len(p.Moments))
	for _, pm := range p.Moments {
		var m Moment
		for _, po := range pm.Ops {
			target, err := qubit(po.Target)
			if err != nil {
				return nil, err
			}
			controls, err := qubitList(po.Controls)
			if err != nil {
				return nil, err
			}

			var op Operation
			switch po.Kind {
			case opGate:
				g := Gate{Type: po.Name, Target: target, Controls: controls, Params: po.Params}
				if _, err := g.Matrix(); err != nil {
					return nil, fmt.Errorf("gate %q: %w", po.Name, ErrUnsupportedProgram)
				}
				op = g
			case opUnitary:
				if len(po.Matrix) != 8 {
					return nil, fmt.Errorf("unitary matrix has %d values: %w", len(po.Matrix), ErrUnsupportedProgram)
				}
				var a HermitianMatrix
				for i := range 2 {
					for j := range 2 {
						k := 2 * (2*i + j)
						a[i][j] = complex(po.Matrix[k], po.Matrix[k+1])
					}
				}
				hs, err := NewHamiltonianSimulation(a, po.Time)
				if err != nil {
					return nil, err
				}
				op = ControlledUnitary{Controls: controls, Target: target, Unitary: hs.Pow(po.Exponent)}
			case opBasis:
				if len(po.Symbols) != 2 {
					return nil, fmt.Errorf("basis change has %d symbols: %w", len(po.Symbols), ErrUnsupportedProgram)
				}
				op = BasisChange{Target: target, ExponentKey: po.Symbols[0], PhaseKey: po.Symbols[1], Inverted: po.Inverted}
			case opMeasure:
				op = Measurement{Qubit: target, Key: po.Name}
			default:
				return nil, fmt.Errorf("operation kind %q: %w", po.Kind, ErrUnsupportedProgram)
			}
			m.Ops = append(m.Ops, op)
		}
		moments = append(moments, m)
	}
	return FromMoments(p.NumQubits, moments), nil
}
