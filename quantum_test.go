package main

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bellCircuit() *Circuit {
	return NewCircuit(2,
		Gate{Type: "H", Target: 0},
		Gate{Type: "X", Target: 1, Controls: []int{0}},
		Measurement{Qubit: 0, Key: "a"},
		Measurement{Qubit: 1, Key: "b"},
	)
}

func TestStateVectorBell(t *testing.T) {
	s := NewStateVector(2)
	require.NoError(t, s.Apply(Gate{Type: "H", Target: 0}, nil))
	require.NoError(t, s.Apply(Gate{Type: "X", Target: 1, Controls: []int{0}}, nil))

	probs := s.Probabilities()
	assert.InDelta(t, 0.5, probs[0], 1e-12)
	assert.InDelta(t, 0, probs[1], 1e-12)
	assert.InDelta(t, 0, probs[2], 1e-12)
	assert.InDelta(t, 0.5, probs[3], 1e-12)

	qp := s.GetQubitProbabilities()
	assert.InDelta(t, 0.5, qp[0].Prob1, 1e-12)
	assert.InDelta(t, 0.5, qp[1].Prob0, 1e-12)
}

func TestStateVectorControlledMatrix(t *testing.T) {
	// RY(π) on qubit 1 controlled by qubit 0 only acts when qubit 0 is set.
	op := Gate{Type: "RY", Target: 1, Controls: []int{0}, Params: []float64{math.Pi}}

	s := NewBasisState(2, 0)
	require.NoError(t, s.Apply(op, nil))
	assert.InDelta(t, 1, s.Probabilities()[0], 1e-12)

	s = NewBasisState(2, 1)
	require.NoError(t, s.Apply(op, nil))
	assert.InDelta(t, 1, s.Probabilities()[3], 1e-12)
}

func TestStateVectorRejects(t *testing.T) {
	s := NewStateVector(2)
	assert.ErrorIs(t, s.Apply(Gate{Type: "X", Target: 2}, nil), ErrInvalidParameter)
	assert.ErrorIs(t, s.Apply(Gate{Type: "RX", Target: 0}, nil), ErrInvalidParameter)
	assert.ErrorIs(t, s.Apply(Measurement{Qubit: 0, Key: "m"}, nil), ErrNotInvertible)
	assert.ErrorIs(t, s.Apply(BasisChange{Target: 0, ExponentKey: "e", PhaseKey: "p"}, ParamResolver{"e": 1}), ErrUnresolvedSymbol)
}

func TestSimulatorBellSampling(t *testing.T) {
	sim := NewSimulator(rand.New(rand.NewPCG(7, 11)))
	res, err := sim.Run(context.Background(), bellCircuit(), nil, 2000)
	require.NoError(t, err)
	require.Equal(t, 2000, res.Repetitions)

	a, b := res.Measurements["a"], res.Measurements["b"]
	require.Len(t, a, 2000)
	require.Len(t, b, 2000)
	ones := 0
	for i := range a {
		require.Equal(t, a[i], b[i], "shot %d", i)
		ones += a[i]
	}
	assert.InDelta(t, 1000, ones, 150)
}

func TestSimulatorNeverDrawsZeroProbability(t *testing.T) {
	sim := NewSimulator(rand.New(rand.NewPCG(1, 1)))
	c := NewCircuit(2, Gate{Type: "X", Target: 1}, Measurement{Qubit: 0, Key: "a"}, Measurement{Qubit: 1, Key: "b"})
	res, err := sim.Run(context.Background(), c, nil, 500)
	require.NoError(t, err)
	for i := range 500 {
		assert.Equal(t, 0, res.Measurements["a"][i])
		assert.Equal(t, 1, res.Measurements["b"][i])
	}
}

func TestSimulatorDeterministicWithSeed(t *testing.T) {
	run := func() *Result {
		res, err := NewSimulator(rand.New(rand.NewPCG(42, 43))).Run(context.Background(), bellCircuit(), nil, 100)
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run().Measurements, run().Measurements)
}

func TestSimulatorBasisChange(t *testing.T) {
	// |+> measured in the X basis always reads 0.
	c := NewCircuit(1,
		Gate{Type: "H", Target: 0},
		BasisChange{Target: 0, ExponentKey: ExponentSymbol, PhaseKey: PhaseSymbol},
		Measurement{Qubit: 0, Key: "x"},
	)
	sim := NewSimulator(rand.New(rand.NewPCG(5, 6)))
	results, err := sim.RunSweep(context.Background(), c, []ParamResolver{ObservableX.Resolver(), ObservableZ.Resolver()}, 400)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, bit := range results[0].Measurements["x"] {
		require.Equal(t, 0, bit)
	}
	ones := 0
	for _, bit := range results[1].Measurements["x"] {
		ones += bit
	}
	assert.InDelta(t, 200, ones, 60)

	_, err = sim.Run(context.Background(), c, ParamResolver{ExponentSymbol: 0.5}, 10)
	assert.ErrorIs(t, err, ErrUnresolvedSymbol)
}

func TestSimulatorErrors(t *testing.T) {
	sim := NewSimulator(nil)
	ctx := context.Background()

	_, err := sim.Run(ctx, bellCircuit(), nil, -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	nonTerminal := NewCircuit(1, Measurement{Qubit: 0, Key: "m"}, Gate{Type: "X", Target: 0})
	_, err = sim.Run(ctx, nonTerminal, nil, 1)
	assert.ErrorIs(t, err, ErrNonTerminalMeasurement)

	dup := NewCircuit(2, Measurement{Qubit: 0, Key: "m"}, Measurement{Qubit: 1, Key: "m"})
	_, err = sim.Run(ctx, dup, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	wide := NewCircuit(MaxSimulatorQubits+1, Gate{Type: "H", Target: 0})
	_, err = sim.Run(ctx, wide, nil, 1)
	assert.ErrorIs(t, err, ErrTooManyQubits)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = sim.Run(cancelled, bellCircuit(), nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatorZeroRepetitions(t *testing.T) {
	res, err := NewSimulator(nil).Run(context.Background(), bellCircuit(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Measurements["a"])
}
