package main

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diagParams is diag(4,1) with exact register eigenvalues 4 and 1 and
// |b> = rx(π/2)|0>. |x> ∝ (1/4)|0> - i|1>.
func diagParams() Params {
	return Params{
		A:            HermitianMatrix{{4, 0}, {0, 1}},
		C:            1,
		T:            math.Pi / 8,
		RegisterSize: 4,
		InputPrep:    []Gate{{Type: "RX", Params: []float64{math.Pi / 2}}},
	}
}

func referenceParams() Params {
	t := 0.358166 * math.Pi
	return Params{
		A:            referenceMatrix,
		C:            DefaultNormalization(t, 4),
		T:            t,
		RegisterSize: 4,
		InputPrep: []Gate{
			{Type: "RX", Params: []float64{1.276359}},
			{Type: "RZ", Params: []float64{1.276359}},
		},
	}
}

func TestNewAlgorithmValidation(t *testing.T) {
	for name, mutate := range map[string]func(*Params){
		"register zero":   func(p *Params) { p.RegisterSize = 0 },
		"register large":  func(p *Params) { p.RegisterSize = MaxRegisterSize + 1 },
		"c zero":          func(p *Params) { p.C = 0 },
		"c nan":           func(p *Params) { p.C = math.NaN() },
		"c too large":     func(p *Params) { p.C = 2 },
		"t zero":          func(p *Params) { p.T = 0 },
		"controlled prep": func(p *Params) { p.InputPrep = []Gate{{Type: "X", Controls: []int{1}}} },
		"unknown prep":    func(p *Params) { p.InputPrep = []Gate{{Type: "CCX"}} },
	} {
		p := diagParams()
		mutate(&p)
		_, err := NewAlgorithm(p)
		assert.ErrorIs(t, err, ErrInvalidParameter, name)
	}

	p := diagParams()
	p.A[0][0] = complex(math.Inf(1), 0)
	_, err := NewAlgorithm(p)
	assert.ErrorIs(t, err, ErrInvalidMatrix)
}

func TestAlgorithmLayout(t *testing.T) {
	alg, err := NewAlgorithm(diagParams())
	require.NoError(t, err)
	assert.Equal(t, 0, alg.Ancilla)
	assert.Equal(t, []int{1, 2, 3, 4}, alg.Register)
	assert.Equal(t, 5, alg.Memory)
	assert.Equal(t, 6, alg.NumQubits())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, alg.Circuit().Qubits())
	assert.Empty(t, alg.Circuit().MeasurementKeys())
}

func TestBaseCircuitInverseIsIdentity(t *testing.T) {
	alg, err := NewAlgorithm(referenceParams())
	require.NoError(t, err)
	inv, err := alg.Circuit().Inverse()
	require.NoError(t, err)
	roundTrip := alg.Circuit().Concat(inv)

	for _, idx := range []int{0, 1, 5, 34, 63} {
		s := NewBasisState(alg.NumQubits(), idx)
		applyCircuit(t, s, roundTrip)
		assert.InDelta(t, 1, s.Probabilities()[idx], 1e-9, "basis %d", idx)
	}
}

func TestBaseCircuitSolvesExactSystem(t *testing.T) {
	alg, err := NewAlgorithm(diagParams())
	require.NoError(t, err)

	s, _, err := NewSimulator(nil).Simulate(context.Background(), alg.Circuit(), nil)
	require.NoError(t, err)

	// Ancilla 1, register uncomputed to 0: amplitudes (1/4)·(1/√2) and -i·(1/√2).
	a0 := s.Amplitudes[1<<alg.Ancilla]
	a1 := s.Amplitudes[1<<alg.Ancilla|1<<alg.Memory]
	assert.InDelta(t, 0, cmplx.Abs(a0-complex(0.25/math.Sqrt2, 0)), 1e-9)
	assert.InDelta(t, 0, cmplx.Abs(a1-complex(0, -1/math.Sqrt2)), 1e-9)

	probs := s.GetQubitProbabilities()
	assert.InDelta(t, 17.0/32, probs[alg.Ancilla].Prob1, 1e-9)
	for _, q := range alg.Register {
		assert.InDelta(t, 0, probs[q].Prob1, 1e-9)
	}
}

func TestAmplitudeAmplificationZeroIsBase(t *testing.T) {
	alg, err := NewAlgorithm(diagParams())
	require.NoError(t, err)
	c, err := alg.AmplitudeAmplification(0)
	require.NoError(t, err)
	assert.Same(t, alg.Circuit(), c)

	_, err = alg.AmplitudeAmplification(-1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAmplitudeAmplificationRotatesSuccess(t *testing.T) {
	alg, err := NewAlgorithm(diagParams())
	require.NoError(t, err)
	theta := math.Asin(math.Sqrt(17.0 / 32))
	sim := NewSimulator(nil)

	for j := range 3 {
		c, err := alg.AmplitudeAmplification(j)
		require.NoError(t, err)
		base := alg.Circuit().Len()
		assert.Equal(t, base+j*(2*base+2*alg.NumQubits()+2), c.Len())

		s, _, err := sim.Simulate(context.Background(), c, nil)
		require.NoError(t, err)
		want := math.Pow(math.Sin(float64(2*j+1)*theta), 2)
		assert.InDelta(t, want, s.GetQubitProbabilities()[alg.Ancilla].Prob1, 1e-9, "j=%d", j)
	}
}

func TestDiffusionReflectsZero(t *testing.T) {
	alg, err := NewAlgorithm(diagParams())
	require.NoError(t, err)
	d := alg.DiffusionOperator()

	for idx := range 1 << alg.NumQubits() {
		s := NewBasisState(alg.NumQubits(), idx)
		applyCircuit(t, s, d)
		want := complex(1, 0)
		if idx == 0 {
			want = -1
		}
		assert.Equal(t, want, s.Amplitudes[idx], "basis %d", idx)
	}
}

func TestMeasureCircuit(t *testing.T) {
	alg, err := NewAlgorithm(diagParams())
	require.NoError(t, err)
	m := alg.MeasureCircuit(alg.Circuit())

	assert.Equal(t, alg.Circuit().Len()+3, m.Len())
	assert.Equal(t, []string{AncillaKey, MemoryKey}, m.MeasurementKeys())
	b, ok := m.Ops[m.Len()-2].(BasisChange)
	require.True(t, ok)
	assert.Equal(t, alg.Memory, b.Target)
	assert.Equal(t, ExponentSymbol, b.ExponentKey)
	assert.Equal(t, PhaseSymbol, b.PhaseKey)

	_, err = m.Inverse()
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestExpectedObservables(t *testing.T) {
	alg, err := NewAlgorithm(referenceParams())
	require.NoError(t, err)
	got, err := alg.ExpectedObservables()
	require.NoError(t, err)
	assert.InDelta(t, 0.144130, got[0], 1e-4)
	assert.InDelta(t, 0.413217, got[1], 1e-4)
	assert.InDelta(t, -0.899154, got[2], 1e-4)

	alg, err = NewAlgorithm(diagParams())
	require.NoError(t, err)
	got, err = alg.ExpectedObservables()
	require.NoError(t, err)
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, -8.0/17, got[1], 1e-12)
	assert.InDelta(t, -15.0/17, got[2], 1e-12)
}

func TestExpectedObservablesSingular(t *testing.T) {
	p := diagParams()
	p.A = HermitianMatrix{{1, 1}, {1, 1}}
	alg, err := NewAlgorithm(p)
	require.NoError(t, err)

	got, err := alg.ExpectedObservables()
	assert.ErrorIs(t, err, ErrSingular)
	for i, v := range got {
		assert.True(t, math.IsNaN(v), Observables[i].String())
	}
}

func TestDirectSamplingMatchesClassicalSolution(t *testing.T) {
	alg, err := NewAlgorithm(diagParams())
	require.NoError(t, err)
	expected, err := alg.ExpectedObservables()
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	est := NewEstimator(alg, NewSimulator(rand.New(rand.NewPCG(3, 4))), WithRand(rng))
	report, err := est.SimulateWithoutAmplification(context.Background(), 20000)
	require.NoError(t, err)

	got := report.Expectations()
	for i := range got {
		assert.InDelta(t, expected[i], got[i], 0.05, Observables[i].String())
	}
	assert.InDelta(t, 17.0/32, report.SuccessProbability(), 0.02)
}
