package main

import (
	"context"
	"fmt"
	"math/cmplx"
	"math/rand/v2"
	"sort"
	"sync"
)

// MaxSimulatorQubits bounds the dense state vector (2^16 amplitudes).
const MaxSimulatorQubits = 16

// StateVector holds 2^NumQubits amplitudes. Bit q of a basis index is the
// value of qubit q.
type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

// NewStateVector returns |0...0>.
func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// NewBasisState returns the computational basis state |index>.
func NewBasisState(numQubits, index int) *StateVector {
	s := NewStateVector(numQubits)
	s.Amplitudes[0] = 0
	s.Amplitudes[index] = 1
	return s
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]Complex, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// Apply performs a unitary operation. Symbolic basis changes are resolved
// against params. Measurements are not unitary and are rejected.
func (s *StateVector) Apply(op Operation, params ParamResolver) error {
	for _, q := range op.Qubits() {
		if q < 0 || q >= s.NumQubits {
			return fmt.Errorf("qubit %d outside %d-qubit state: %w", q, s.NumQubits, ErrInvalidParameter)
		}
	}
	switch op := op.(type) {
	case Gate:
		mask := controlMask(op.Controls)
		switch op.Type {
		case "X":
			s.applyX(op.Target, mask)
			return nil
		case "Z":
			s.applyZ(op.Target, mask)
			return nil
		}
		m, err := op.Matrix()
		if err != nil {
			return err
		}
		s.applyMatrix(m, op.Target, mask)
	case ControlledUnitary:
		s.applyMatrix(op.Unitary.Unitary(), op.Target, controlMask(op.Controls))
	case BasisChange:
		m, err := op.Matrix(params)
		if err != nil {
			return err
		}
		s.applyMatrix(m, op.Target, 0)
	case Measurement:
		return fmt.Errorf("measurement %q applied as a unitary: %w", op.Key, ErrNotInvertible)
	}
	return nil
}

func controlMask(controls []int) int {
	mask := 0
	for _, c := range controls {
		mask |= 1 << c
	}
	return mask
}

func (s *StateVector) applyMatrix(m Matrix2, q, mask int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 && i&mask == mask {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = m[0][0]*a + m[0][1]*b
			s.Amplitudes[j] = m[1][0]*a + m[1][1]*b
		}
	}
}

func (s *StateVector) applyX(q, mask int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 && i&mask == mask {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyZ(q, mask int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit != 0 && i&mask == mask {
			s.Amplitudes[i] *= -1
		}
	}
}

// Probabilities returns |amplitude|² per basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, amp := range s.Amplitudes {
		probs[i] = real(amp * cmplx.Conj(amp))
	}
	return probs
}

type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

func (s *StateVector) GetQubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	for i, prob := range s.Probabilities() {
		for q := 0; q < s.NumQubits; q++ {
			if i&(1<<q) != 0 {
				probs[q].Prob1 += prob
			} else {
				probs[q].Prob0 += prob
			}
		}
	}
	return probs
}

// ──────────────────────────── Execution engine ────────────────────────────

// Result holds one bit per shot for every measurement key.
type Result struct {
	Params       ParamResolver
	Repetitions  int
	Measurements map[string][]int
}

// Sampler executes circuits and returns measurement outcomes.
type Sampler interface {
	Run(ctx context.Context, c *Circuit, params ParamResolver, repetitions int) (*Result, error)
	RunSweep(ctx context.Context, c *Circuit, sweep []ParamResolver, repetitions int) ([]*Result, error)
}

// Simulator is an in-process Sampler backed by a dense state vector. Every
// measurement must be terminal; the unitary part is evolved once per
// parameter set and shots are drawn from the final distribution.
// It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator returns a simulator drawing shots from rng. A nil rng is
// replaced by a randomly seeded one.
func NewSimulator(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{rng: rng}
}

// Simulate evolves |0...0> through the unitary part of c and returns the
// final state with the qubit recorded for each measurement key.
func (s *Simulator) Simulate(ctx context.Context, c *Circuit, params ParamResolver) (*StateVector, map[string]int, error) {
	if c.NumQubits > MaxSimulatorQubits {
		return nil, nil, fmt.Errorf("%d qubits: %w", c.NumQubits, ErrTooManyQubits)
	}
	state := NewStateVector(max(c.NumQubits, 1))
	measured := make(map[int]bool)
	keys := make(map[string]int)

	for i, op := range c.Ops {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		if m, ok := op.(Measurement); ok {
			if _, dup := keys[m.Key]; dup {
				return nil, nil, fmt.Errorf("duplicate measurement key %q: %w", m.Key, ErrInvalidParameter)
			}
			keys[m.Key] = m.Qubit
			measured[m.Qubit] = true
			continue
		}
		for _, q := range op.Qubits() {
			if measured[q] {
				return nil, nil, fmt.Errorf("op %d acts on measured qubit %d: %w", i, q, ErrNonTerminalMeasurement)
			}
		}
		if err := state.Apply(op, params); err != nil {
			return nil, nil, fmt.Errorf("op %d: %w", i, err)
		}
	}
	return state, keys, nil
}

// Run executes c with params for the given number of shots.
func (s *Simulator) Run(ctx context.Context, c *Circuit, params ParamResolver, repetitions int) (*Result, error) {
	if repetitions < 0 {
		return nil, fmt.Errorf("repetitions %d: %w", repetitions, ErrInvalidParameter)
	}
	state, keys, err := s.Simulate(ctx, c, params)
	if err != nil {
		return nil, err
	}

	probs := state.Probabilities()
	cumulative := make([]float64, len(probs))
	total := 0.0
	for i, p := range probs {
		total += p
		cumulative[i] = total
	}

	res := &Result{
		Params:       params,
		Repetitions:  repetitions,
		Measurements: make(map[string][]int, len(keys)),
	}
	for k := range keys {
		res.Measurements[k] = make([]int, repetitions)
	}

	s.mu.Lock()
	draws := make([]float64, repetitions)
	for i := range draws {
		draws[i] = s.rng.Float64() * total
	}
	s.mu.Unlock()

	for shot, r := range draws {
		idx := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > r })
		idx = min(idx, len(cumulative)-1)
		for k, q := range keys {
			res.Measurements[k][shot] = (idx >> q) & 1
		}
	}
	return res, nil
}

// RunSweep executes c once per parameter set.
func (s *Simulator) RunSweep(ctx context.Context, c *Circuit, sweep []ParamResolver, repetitions int) ([]*Result, error) {
	results := make([]*Result, 0, len(sweep))
	for _, params := range sweep {
		res, err := s.Run(ctx, c, params, repetitions)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
