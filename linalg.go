package main

import (
	"fmt"
	"math"
	"math/cmplx"
)

type Complex = complex128

// Matrix2 is a 2x2 complex matrix in row-major order. Every operation in a
// circuit reduces to one of these acting on a target qubit.
type Matrix2 [2][2]Complex

var identity2 = Matrix2{{1, 0}, {0, 1}}

func (m Matrix2) Mul(o Matrix2) Matrix2 {
	var r Matrix2
	for i := range 2 {
		for j := range 2 {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j]
		}
	}
	return r
}

func (m Matrix2) Add(o Matrix2) Matrix2 {
	return Matrix2{
		{m[0][0] + o[0][0], m[0][1] + o[0][1]},
		{m[1][0] + o[1][0], m[1][1] + o[1][1]},
	}
}

func (m Matrix2) Scale(s Complex) Matrix2 {
	return Matrix2{
		{s * m[0][0], s * m[0][1]},
		{s * m[1][0], s * m[1][1]},
	}
}

// Dagger returns the conjugate transpose.
func (m Matrix2) Dagger() Matrix2 {
	return Matrix2{
		{cmplx.Conj(m[0][0]), cmplx.Conj(m[1][0])},
		{cmplx.Conj(m[0][1]), cmplx.Conj(m[1][1])},
	}
}

// Apply multiplies the matrix with a column vector.
func (m Matrix2) Apply(v [2]Complex) [2]Complex {
	return [2]Complex{
		m[0][0]*v[0] + m[0][1]*v[1],
		m[1][0]*v[0] + m[1][1]*v[1],
	}
}

// ApproxEqual reports whether every entry differs by at most tol.
func (m Matrix2) ApproxEqual(o Matrix2, tol float64) bool {
	for i := range 2 {
		for j := range 2 {
			if cmplx.Abs(m[i][j]-o[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// zyz decomposes m as e^{iγ}·U(θ, φ, λ) with
// U = [[cos(θ/2), -e^{iλ}sin(θ/2)], [e^{iφ}sin(θ/2), e^{i(φ+λ)}cos(θ/2)]].
func (m Matrix2) zyz() (theta, phi, lambda, gamma float64) {
	const eps = 1e-12
	c := cmplx.Abs(m[0][0])
	s := cmplx.Abs(m[1][0])
	theta = 2 * math.Atan2(s, c)
	switch {
	case c > eps && s > eps:
		gamma = cmplx.Phase(m[0][0])
		phi = cmplx.Phase(m[1][0]) - gamma
		lambda = cmplx.Phase(-m[0][1]) - gamma
	case c > eps:
		gamma = cmplx.Phase(m[0][0])
		lambda = cmplx.Phase(m[1][1]) - gamma
	default:
		gamma = cmplx.Phase(m[1][0])
		lambda = cmplx.Phase(-m[0][1]) - gamma
	}
	return theta, phi, lambda, gamma
}

// HermitianMatrix is the 2x2 system matrix A. Hermiticity is not checked:
// Decompose reads the lower triangle and the real diagonal only. The value is
// comparable so it doubles as a cache key.
type HermitianMatrix [2][2]Complex

func (a HermitianMatrix) validate() error {
	for i := range 2 {
		for j := range 2 {
			v := a[i][j]
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return fmt.Errorf("entry [%d,%d] = %v: %w", i, j, v, ErrInvalidMatrix)
			}
		}
	}
	return nil
}

// Inverse returns A⁻¹ by the adjugate formula.
func (a HermitianMatrix) Inverse() (Matrix2, error) {
	det := a[0][0]*a[1][1] - a[0][1]*a[1][0]
	if cmplx.Abs(det) < 1e-12 {
		return Matrix2{}, ErrSingular
	}
	inv := Matrix2{
		{a[1][1], -a[0][1]},
		{-a[1][0], a[0][0]},
	}
	return inv.Scale(1 / det), nil
}

// ──────────────────────────── Gate matrices ────────────────────────────

func hadamard() Matrix2 {
	h := complex(1/math.Sqrt2, 0)
	return Matrix2{{h, h}, {h, -h}}
}

func pauliX() Matrix2 { return Matrix2{{0, 1}, {1, 0}} }
func pauliY() Matrix2 { return Matrix2{{0, -1i}, {1i, 0}} }
func pauliZ() Matrix2 { return Matrix2{{1, 0}, {0, -1}} }

func rx(theta float64) Matrix2 {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	return Matrix2{{c, js}, {js, c}}
}

func ry(theta float64) Matrix2 {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return Matrix2{{c, -s}, {s, c}}
}

func rz(theta float64) Matrix2 {
	p := cmplx.Exp(complex(0, theta/2))
	return Matrix2{{cmplx.Conj(p), 0}, {0, p}}
}

// phaseShift is diag(1, e^{iφ}); Z^e is phaseShift(π·e).
func phaseShift(phi float64) Matrix2 {
	return Matrix2{{1, 0}, {0, cmplx.Exp(complex(0, phi))}}
}

// xPow is X^e including its global phase e^{iπe/2}.
func xPow(exponent float64) Matrix2 {
	g := cmplx.Exp(complex(0, math.Pi*exponent/2))
	c := complex(math.Cos(math.Pi*exponent/2), 0)
	js := complex(0, -math.Sin(math.Pi*exponent/2))
	return Matrix2{{c, js}, {js, c}}.Scale(g)
}

// phasedXPow is Z^p · X^e · Z^-p. With (e, p) = (0.5, -0.5), (0.5, 0) and
// (0, 0) it rotates the X, Y and Z eigenbases onto the computational basis.
func phasedXPow(exponent, phaseExponent float64) Matrix2 {
	z := phaseShift(math.Pi * phaseExponent)
	zInv := phaseShift(-math.Pi * phaseExponent)
	return z.Mul(xPow(exponent)).Mul(zInv)
}
