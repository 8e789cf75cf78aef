package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"
)

// MaxRegisterSize bounds the eigenvalue register; the inversion network
// grows as 2^n multiply-controlled rotations.
const MaxRegisterSize = 10

// Measurement keys and basis-change symbols used by MeasureCircuit.
const (
	AncillaKey     = "a"
	MemoryKey      = "m"
	ExponentSymbol = "exponent"
	PhaseSymbol    = "phase_exponent"
)

// Params are the inputs of one HHL instance.
type Params struct {
	A HermitianMatrix
	// C normalizes the inversion; C ≤ 2π/(t·2^n) gives exact results for
	// eigenvalues the register can represent.
	C float64
	// T is the evolution time of exp(iAt).
	T            float64
	RegisterSize int
	// InputPrep is applied to |0> on the memory qubit to prepare |b>. Targets
	// are ignored.
	InputPrep []Gate
}

// Algorithm builds the HHL circuits for a 2x2 system. Qubit 0 is the ancilla,
// qubits 1..n the eigenvalue register (qubit 1 most significant), and qubit
// n+1 the memory holding |b> and then |x>.
type Algorithm struct {
	params   Params
	Ancilla  int
	Register []int
	Memory   int

	hs        *HamiltonianSimulation
	base      *Circuit
	baseInv   *Circuit
	diffusion *Circuit
}

// NewAlgorithm validates p and synthesizes the base circuit.
func NewAlgorithm(p Params) (*Algorithm, error) {
	if p.RegisterSize < 1 || p.RegisterSize > MaxRegisterSize {
		return nil, fmt.Errorf("register size %d outside [1, %d]: %w", p.RegisterSize, MaxRegisterSize, ErrInvalidParameter)
	}
	if p.C == 0 || math.IsNaN(p.C) || math.IsInf(p.C, 0) {
		return nil, fmt.Errorf("normalization C = %v: %w", p.C, ErrInvalidParameter)
	}
	for i, g := range p.InputPrep {
		if len(g.Controls) > 0 {
			return nil, fmt.Errorf("input prep gate %d (%s) is controlled: %w", i, g.Type, ErrInvalidParameter)
		}
		if _, err := g.Matrix(); err != nil {
			return nil, fmt.Errorf("input prep gate %d: %w", i, err)
		}
	}

	hs, err := NewHamiltonianSimulation(p.A, p.T)
	if err != nil {
		return nil, err
	}

	n := 1 << p.RegisterSize
	if arg := inversionArgument(1, n, p.C, p.T); math.Abs(arg) > 1 {
		return nil, fmt.Errorf("C·N·t/2π = %v exceeds 1, C must not exceed 2π/(t·N) = %v: %w",
			arg, 2*math.Pi/(p.T*float64(n)), ErrInvalidParameter)
	}

	h := &Algorithm{
		params:   p,
		Ancilla:  0,
		Register: make([]int, p.RegisterSize),
		Memory:   p.RegisterSize + 1,
		hs:       hs,
	}
	for i := range h.Register {
		h.Register[i] = i + 1
	}

	if h.base, err = h.buildCircuit(); err != nil {
		return nil, err
	}
	if h.baseInv, err = h.base.Inverse(); err != nil {
		return nil, err
	}
	h.diffusion = h.buildDiffusion()
	return h, nil
}

// Params returns the parameters the algorithm was built with.
func (h *Algorithm) Params() Params { return h.params }

// NumQubits is the ancilla, the register and the memory qubit.
func (h *Algorithm) NumQubits() int { return h.params.RegisterSize + 2 }

// Simulation returns the exp(iAt) operator used for phase estimation.
func (h *Algorithm) Simulation() *HamiltonianSimulation { return h.hs }

func (h *Algorithm) buildCircuit() (*Circuit, error) {
	prep := make([]Operation, len(h.params.InputPrep))
	for i, g := range h.params.InputPrep {
		prep[i] = g.On(h.Memory)
	}

	peQubits := append(slices.Clone(h.Register), h.Memory)
	pe, err := PhaseEstimation(peQubits, h.hs)
	if err != nil {
		return nil, err
	}
	peInv, err := pe.Inverse()
	if err != nil {
		return nil, err
	}
	rotation := EigenRotation(append(slices.Clone(h.Register), h.Ancilla), h.params.C, h.params.T)

	c := NewCircuit(h.NumQubits(), prep...)
	return c.Concat(pe, rotation, peInv), nil
}

// Circuit returns the base HHL circuit: input preparation, phase estimation,
// eigenvalue inversion and uncomputation. It has no measurements. When the
// ancilla reads 1 the memory holds |x>.
func (h *Algorithm) Circuit() *Circuit { return h.base }

func (h *Algorithm) allQubits() []int {
	return append(append([]int{h.Ancilla}, h.Register...), h.Memory)
}

func (h *Algorithm) buildDiffusion() *Circuit {
	qubits := h.allQubits()
	ops := make([]Operation, 0, 2*len(qubits)+1)
	for _, q := range qubits {
		ops = append(ops, Gate{Type: "X", Target: q})
	}
	last := len(qubits) - 1
	ops = append(ops, Gate{Type: "Z", Target: qubits[last], Controls: slices.Clone(qubits[:last])})
	for _, q := range qubits {
		ops = append(ops, Gate{Type: "X", Target: q})
	}
	return NewCircuit(h.NumQubits(), ops...)
}

// DiffusionOperator reflects about |0...0>: I - 2|0><0| up to global phase.
func (h *Algorithm) DiffusionOperator() *Circuit { return h.diffusion }

// AmplitudeAmplification returns the base circuit followed by numIterations
// rounds of Z(ancilla), base⁻¹, diffusion, base. Zero iterations returns the
// base circuit itself.
func (h *Algorithm) AmplitudeAmplification(numIterations int) (*Circuit, error) {
	if numIterations < 0 {
		return nil, fmt.Errorf("amplification iterations %d: %w", numIterations, ErrInvalidParameter)
	}
	if numIterations == 0 {
		return h.base, nil
	}

	round := len(h.base.Ops) + 1 + len(h.baseInv.Ops) + len(h.diffusion.Ops)
	ops := make([]Operation, 0, len(h.base.Ops)+numIterations*round)
	ops = append(ops, h.base.Ops...)
	success := Gate{Type: "Z", Target: h.Ancilla}
	for range numIterations {
		ops = append(ops, success)
		ops = append(ops, h.baseInv.Ops...)
		ops = append(ops, h.diffusion.Ops...)
		ops = append(ops, h.base.Ops...)
	}
	return &Circuit{NumQubits: h.NumQubits(), Ops: ops}, nil
}

// MeasureCircuit appends the ancilla measurement under AncillaKey, the
// PhasedXPow basis change on the memory (symbols ExponentSymbol and
// PhaseSymbol) and the memory measurement under MemoryKey.
func (h *Algorithm) MeasureCircuit(c *Circuit) *Circuit {
	return c.Append(
		Measurement{Qubit: h.Ancilla, Key: AncillaKey},
		BasisChange{Target: h.Memory, ExponentKey: ExponentSymbol, PhaseKey: PhaseSymbol},
		Measurement{Qubit: h.Memory, Key: MemoryKey},
	)
}

// InputState returns |b>, the input preparation applied to |0>.
func (h *Algorithm) InputState() ([2]Complex, error) {
	b := [2]Complex{1, 0}
	for _, g := range h.params.InputPrep {
		m, err := g.Matrix()
		if err != nil {
			return b, err
		}
		b = m.Apply(b)
	}
	return b, nil
}

// ExpectedObservables solves the system classically and returns <X>, <Y>
// and <Z> of |x> = A⁻¹|b> / ‖A⁻¹|b>‖. All three are NaN when A is singular.
func (h *Algorithm) ExpectedObservables() ([3]float64, error) {
	out := [3]float64{math.NaN(), math.NaN(), math.NaN()}
	b, err := h.InputState()
	if err != nil {
		return out, err
	}
	inv, err := h.params.A.Inverse()
	if err != nil {
		return out, err
	}
	x := inv.Apply(b)
	norm := math.Sqrt(real(x[0]*cmplx.Conj(x[0])) + real(x[1]*cmplx.Conj(x[1])))
	x[0] /= complex(norm, 0)
	x[1] /= complex(norm, 0)

	cross := cmplx.Conj(x[0]) * x[1]
	out[0] = 2 * real(cross)
	out[1] = 2 * imag(cross)
	out[2] = real(x[0]*cmplx.Conj(x[0])) - real(x[1]*cmplx.Conj(x[1]))
	return out, nil
}
