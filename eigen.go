package main

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// EigenComponent pairs a real eigenvalue with the projector onto its eigenspace.
type EigenComponent struct {
	Eigenvalue float64
	Projector  Matrix2
}

// EigenDecomposition is the spectral decomposition A = Σ λ_k P_k, eigenvalues
// ascending. Projectors sum to the identity.
type EigenDecomposition struct {
	Components []EigenComponent
}

// eigenCache holds one decomposition per matrix value for the life of the
// process. Entries are never mutated after insertion.
var eigenCache = struct {
	sync.RWMutex
	entries map[HermitianMatrix]*EigenDecomposition
}{entries: make(map[HermitianMatrix]*EigenDecomposition)}

// Decompose returns the cached decomposition of a, computing it on first use.
func Decompose(a HermitianMatrix) (*EigenDecomposition, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}

	eigenCache.RLock()
	d, ok := eigenCache.entries[a]
	eigenCache.RUnlock()
	if ok {
		return d, nil
	}

	d, err := decomposeHermitian(a)
	if err != nil {
		return nil, err
	}

	eigenCache.Lock()
	defer eigenCache.Unlock()
	if cached, ok := eigenCache.entries[a]; ok {
		return cached, nil
	}
	eigenCache.entries[a] = d
	return d, nil
}

// lowerHermitian rebuilds a from its lower triangle: the diagonal is taken as
// real and the upper entry mirrors the conjugate of the lower one.
func lowerHermitian(a HermitianMatrix) HermitianMatrix {
	return HermitianMatrix{
		{complex(real(a[0][0]), 0), cmplx.Conj(a[1][0])},
		{a[1][0], complex(real(a[1][1]), 0)},
	}
}

// decomposeHermitian diagonalizes the real symmetric embedding
//
//	M = [[Re H, -Im H], [Im H, Re H]]
//
// of H = lowerHermitian(a), so M is exactly symmetric even when a carries
// rounding noise above the diagonal. Each eigenvalue of H appears twice in M.
// For a real eigenvector [a; b] of M, a + ib is an eigenvector of H, and
// summing ½(aaᵀ + bbᵀ + i(baᵀ - abᵀ)) over an eigenvalue cluster yields the
// complex projector independently of the basis gonum picks inside a
// degenerate eigenspace.
func decomposeHermitian(a HermitianMatrix) (*EigenDecomposition, error) {
	const n = 2
	h := lowerHermitian(a)
	data := make([]float64, 4*n*n)
	for i := range n {
		for j := range n {
			re, im := real(h[i][j]), imag(h[i][j])
			data[i*2*n+j] = re
			data[i*2*n+j+n] = -im
			data[(i+n)*2*n+j] = im
			data[(i+n)*2*n+j+n] = re
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(mat.NewSymDense(2*n, data), true); !ok {
		return nil, ErrEigenFailed
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	var comps []EigenComponent
	start := 0
	for start < len(values) {
		end := start + 1
		for end < len(values) && math.Abs(values[end]-values[start]) <= 1e-9*math.Max(1, math.Abs(values[start])) {
			end++
		}

		var proj Matrix2
		sum := 0.0
		for col := start; col < end; col++ {
			sum += values[col]
			for r := range n {
				for c := range n {
					ar, br := vectors.At(r, col), vectors.At(r+n, col)
					ac, bc := vectors.At(c, col), vectors.At(c+n, col)
					proj[r][c] += complex(0.5*(ar*ac+br*bc), 0.5*(br*ac-ar*bc))
				}
			}
		}
		comps = append(comps, EigenComponent{
			Eigenvalue: sum / float64(end-start),
			Projector:  proj,
		})
		start = end
	}

	if len(comps) == 0 {
		return nil, fmt.Errorf("no eigenvalues for %v: %w", a, ErrEigenFailed)
	}
	return &EigenDecomposition{Components: comps}, nil
}

// ──────────────────────────── Hamiltonian simulation ────────────────────────────

// phaseComponent is one term of exp(iAt)^e = Σ exp(iπ·θ·e)·P with θ = λt/π.
type phaseComponent struct {
	Theta     float64
	Projector Matrix2
}

// HamiltonianSimulation represents exp(iAt) raised to Exponent. Raising it to
// a power only rescales the exponent; the phase components are computed once
// and shared by every derived value.
type HamiltonianSimulation struct {
	A        HermitianMatrix
	T        float64
	Exponent float64

	decomposition *EigenDecomposition
	components    []phaseComponent
}

// NewHamiltonianSimulation synthesizes exp(iAt). A is assumed Hermitian.
func NewHamiltonianSimulation(a HermitianMatrix, t float64) (*HamiltonianSimulation, error) {
	if t == 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return nil, fmt.Errorf("evolution time t = %v: %w", t, ErrInvalidParameter)
	}
	d, err := Decompose(a)
	if err != nil {
		return nil, err
	}
	comps := make([]phaseComponent, len(d.Components))
	for i, c := range d.Components {
		comps[i] = phaseComponent{
			Theta:     c.Eigenvalue * t / math.Pi,
			Projector: c.Projector,
		}
	}
	return &HamiltonianSimulation{
		A:             a,
		T:             t,
		Exponent:      1,
		decomposition: d,
		components:    comps,
	}, nil
}

// Pow returns the operator raised to e. Exponents compose multiplicatively.
func (h *HamiltonianSimulation) Pow(e float64) *HamiltonianSimulation {
	p := *h
	p.Exponent = h.Exponent * e
	return &p
}

// Decomposition returns the shared eigendecomposition of A.
func (h *HamiltonianSimulation) Decomposition() *EigenDecomposition {
	return h.decomposition
}

// Phases returns the per-component phase angles π·θ_k·e in radians.
func (h *HamiltonianSimulation) Phases() []float64 {
	out := make([]float64, len(h.components))
	for i, c := range h.components {
		out[i] = math.Pi * c.Theta * h.Exponent
	}
	return out
}

// Unitary returns Σ exp(iπ·θ_k·e)·P_k.
func (h *HamiltonianSimulation) Unitary() Matrix2 {
	var u Matrix2
	for _, c := range h.components {
		phase := cmplx.Exp(complex(0, math.Pi*c.Theta*h.Exponent))
		u = u.Add(c.Projector.Scale(phase))
	}
	return u
}
