package main

import (
	"math"
	"slices"
)

// rotationSlack absorbs rounding when C sits exactly on 2π/(t·N).
const rotationSlack = 1e-12

// inversionArgument returns C·N·t/(2π·k), with k = 0 standing for k = N,
// the largest representable eigenvalue.
func inversionArgument(k, n int, c, t float64) float64 {
	if k == 0 {
		k = n
	}
	arg := c * float64(n) * t / (2 * math.Pi * float64(k))
	if math.Abs(arg) > 1 && math.Abs(arg) <= 1+rotationSlack {
		arg = math.Copysign(1, arg)
	}
	return arg
}

// ancillaRotation is the RY angle encoding 1/λ for register value k out of n
// buckets: 2·asin(C/λ_k) with λ_k = 2πk/(N·t).
func ancillaRotation(k, n int, c, t float64) float64 {
	return 2 * math.Asin(inversionArgument(k, n, c, t))
}

// EigenRotation rotates the ancilla (last qubit) by ancillaRotation(k) for
// every register value k, the register being the other qubits, big-endian.
//
// X gates are toggled where k differs from k-1 (k ^ (k-1)), starting with the
// least significant qubit, so after block k the register lines are flipped to
// read all-ones exactly when they hold k and the all-ones-controlled RY fires.
// The flips for consecutive k are shared, which needs O(N) X gates in total
// instead of rebuilding each control pattern from scratch. The k = N-1 block
// leaves every line unflipped.
func EigenRotation(qubits []int, c, t float64) *Circuit {
	register := qubits[:len(qubits)-1]
	ancilla := qubits[len(qubits)-1]
	n := 1 << len(register)

	var ops []Operation
	for k := range n {
		// For k = 0 this is -1: every line is flipped.
		xor := k ^ (k - 1)
		for i := len(register) - 1; i >= 0; i-- {
			if xor&1 == 1 {
				ops = append(ops, Gate{Type: "X", Target: register[i]})
			}
			xor >>= 1
		}
		ops = append(ops, Gate{
			Type:     "RY",
			Target:   ancilla,
			Controls: slices.Clone(register),
			Params:   []float64{ancillaRotation(k, n, c, t)},
		})
	}
	return NewCircuit(0, ops...)
}
