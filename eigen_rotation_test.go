package main

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveEigenRotation rebuilds every control pattern from scratch: flip the
// lines whose bit of k is 0, rotate, unflip.
func naiveEigenRotation(qubits []int, c, t float64) *Circuit {
	register := qubits[:len(qubits)-1]
	ancilla := qubits[len(qubits)-1]
	n := 1 << len(register)

	var ops []Operation
	for k := range n {
		var flips []Operation
		for j, q := range register {
			if (k>>(len(register)-1-j))&1 == 0 {
				flips = append(flips, Gate{Type: "X", Target: q})
			}
		}
		ops = append(ops, flips...)
		ops = append(ops, Gate{Type: "RY", Target: ancilla, Controls: register, Params: []float64{ancillaRotation(k, n, c, t)}})
		ops = append(ops, flips...)
	}
	return NewCircuit(0, ops...)
}

func TestEigenRotationMatchesNaive(t *testing.T) {
	const tm = math.Pi / 8
	qubits := []int{0, 1, 2, 3}
	c := DefaultNormalization(tm, 3)

	gray := EigenRotation(qubits, c, tm)
	naive := naiveEigenRotation(qubits, c, tm)
	assert.Less(t, gray.Len(), naive.Len())

	for idx := range 1 << len(qubits) {
		a := NewBasisState(len(qubits), idx)
		b := NewBasisState(len(qubits), idx)
		applyCircuit(t, a, gray)
		applyCircuit(t, b, naive)
		for i := range a.Amplitudes {
			assert.InDelta(t, 0, cmplx.Abs(a.Amplitudes[i]-b.Amplitudes[i]), 1e-12, "basis %d amplitude %d", idx, i)
		}
	}
}

func TestEigenRotationEncodesInverse(t *testing.T) {
	const tm = math.Pi / 8
	register := []int{0, 1, 2}
	ancilla := 3
	c := DefaultNormalization(tm, len(register))
	rot := EigenRotation(append(register, ancilla), c, tm)

	for k := 1; k < 8; k++ {
		s := NewBasisState(4, bigEndianIndex(register, k))
		applyCircuit(t, s, rot)
		one := s.Amplitudes[bigEndianIndex(register, k)|1<<ancilla]
		assert.InDelta(t, 1/float64(k), real(one), 1e-12, "k=%d", k)
		assert.InDelta(t, 0, imag(one), 1e-12, "k=%d", k)
	}
}

func TestEigenRotationXGateCount(t *testing.T) {
	rot := EigenRotation([]int{0, 1, 2, 3, 4}, 1, 2*math.Pi/16)
	xs := 0
	for _, op := range rot.Ops {
		if g, ok := op.(Gate); ok && g.Type == "X" {
			xs++
		}
	}
	// Four flips for k = 0, then trailing zeros of k plus one for each k > 0.
	assert.Equal(t, 4+15+7+3+1, xs)
	assert.Equal(t, 16, rot.Len()-xs)
}

func TestAncillaRotationZeroIsLargestEigenvalue(t *testing.T) {
	const tm = 0.358166 * math.Pi
	c := DefaultNormalization(tm, 4)
	assert.Equal(t, ancillaRotation(16, 16, c, tm), ancillaRotation(0, 16, c, tm))
	assert.InDelta(t, math.Pi, ancillaRotation(1, 16, c, tm), 1e-6)
}

func TestInversionArgumentSlack(t *testing.T) {
	assert.Equal(t, 1.0, inversionArgument(1, 1, 1+1e-13, 2*math.Pi))
	assert.Equal(t, -1.0, inversionArgument(1, 1, -1-1e-13, 2*math.Pi))
	assert.InDelta(t, 1.5, inversionArgument(1, 1, 1.5, 2*math.Pi), 1e-12)
	assert.InDelta(t, 0.25, inversionArgument(2, 1, 0.5, 2*math.Pi), 1e-12)
	require.False(t, math.IsNaN(ancillaRotation(1, 1, 1+1e-13, 2*math.Pi)))
}
