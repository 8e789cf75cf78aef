package main

import (
	"fmt"
	"math"
)

// QFT returns the quantum Fourier transform over qubits read big-endian.
// With withoutReverse the trailing swap network is omitted and the output
// is left in reversed (little-endian) qubit order.
func QFT(qubits []int, withoutReverse bool) *Circuit {
	var ops []Operation
	for i, q := range qubits {
		for j := i - 1; j >= 0; j-- {
			ops = append(ops, Gate{
				Type:     "P",
				Target:   qubits[j],
				Controls: []int{q},
				Params:   []float64{math.Pi / float64(int(1)<<(i-j))},
			})
		}
		ops = append(ops, Gate{Type: "H", Target: q})
	}
	if !withoutReverse {
		for i := range len(qubits) / 2 {
			a, b := qubits[i], qubits[len(qubits)-1-i]
			ops = append(ops,
				Gate{Type: "X", Target: b, Controls: []int{a}},
				Gate{Type: "X", Target: a, Controls: []int{b}},
				Gate{Type: "X", Target: b, Controls: []int{a}},
			)
		}
	}
	return NewCircuit(0, ops...)
}

// PhaseKickback controls u^(2^i) on the last qubit by the i-th of the others.
func PhaseKickback(qubits []int, u *HamiltonianSimulation) *Circuit {
	memory := qubits[len(qubits)-1]
	ops := make([]Operation, 0, len(qubits)-1)
	for i, q := range qubits[:len(qubits)-1] {
		ops = append(ops, ControlledUnitary{
			Controls: []int{q},
			Target:   memory,
			Unitary:  u.Pow(float64(int(1) << i)),
		})
	}
	return NewCircuit(0, ops...)
}

// PhaseEstimation estimates the eigenphases of u. The last qubit holds the
// eigenvector; the others receive the phase, big-endian. The inverse QFT skips
// its swaps because the kickback already assigns u^(2^i) in reversed order.
func PhaseEstimation(qubits []int, u *HamiltonianSimulation) (*Circuit, error) {
	if len(qubits) < 2 {
		return nil, fmt.Errorf("phase estimation needs at least 2 qubits, got %d: %w", len(qubits), ErrInvalidParameter)
	}
	counting := qubits[:len(qubits)-1]

	ops := make([]Operation, 0, len(counting))
	for _, q := range counting {
		ops = append(ops, Gate{Type: "H", Target: q})
	}

	iqft, err := QFT(counting, true).Inverse()
	if err != nil {
		return nil, err
	}
	return NewCircuit(0, ops...).Concat(PhaseKickback(qubits, u), iqft), nil
}
