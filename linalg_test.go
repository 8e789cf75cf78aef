package main

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isUnitary(m Matrix2) bool {
	return m.Mul(m.Dagger()).ApproxEqual(identity2, 1e-12)
}

func TestGateMatricesAreUnitary(t *testing.T) {
	for name, m := range map[string]Matrix2{
		"h":          hadamard(),
		"x":          pauliX(),
		"y":          pauliY(),
		"z":          pauliZ(),
		"rx":         rx(0.7),
		"ry":         ry(-1.3),
		"rz":         rz(2.1),
		"p":          phaseShift(math.Pi / 3),
		"xpow":       xPow(0.37),
		"phasedxpow": phasedXPow(0.5, -0.25),
	} {
		assert.True(t, isUnitary(m), name)
	}
}

func TestXPowMatchesPauliX(t *testing.T) {
	assert.True(t, xPow(1).ApproxEqual(pauliX(), 1e-12))
	assert.True(t, xPow(0).ApproxEqual(identity2, 1e-12))
	assert.True(t, xPow(0.5).Mul(xPow(0.5)).ApproxEqual(pauliX(), 1e-12))
}

func TestPhasedXPowMapsEigenstatesToZero(t *testing.T) {
	s := complex(1/math.Sqrt2, 0)
	plusX := [2]Complex{s, s}
	plusY := [2]Complex{s, 1i * s}
	plusZ := [2]Complex{1, 0}

	for _, tc := range []struct {
		name  string
		obs   Observable
		state [2]Complex
	}{
		{"x", ObservableX, plusX},
		{"y", ObservableY, plusY},
		{"z", ObservableZ, plusZ},
	} {
		r := tc.obs.Resolver()
		out := phasedXPow(r[ExponentSymbol], r[PhaseSymbol]).Apply(tc.state)
		assert.InDelta(t, 1, cmplx.Abs(out[0]), 1e-12, tc.name)
		assert.InDelta(t, 0, cmplx.Abs(out[1]), 1e-12, tc.name)
	}
}

func TestZYZReconstructs(t *testing.T) {
	u3 := func(theta, phi, lambda, gamma float64) Matrix2 {
		c, s := math.Cos(theta/2), math.Sin(theta/2)
		return Matrix2{
			{complex(c, 0), -cmplx.Exp(complex(0, lambda)) * complex(s, 0)},
			{cmplx.Exp(complex(0, phi)) * complex(s, 0), cmplx.Exp(complex(0, phi+lambda)) * complex(c, 0)},
		}.Scale(cmplx.Exp(complex(0, gamma)))
	}

	for name, m := range map[string]Matrix2{
		"general":  rz(0.4).Mul(ry(1.1)).Mul(rz(-0.9)).Scale(cmplx.Exp(0.3i)),
		"diagonal": phaseShift(0.8).Scale(cmplx.Exp(-0.2i)),
		"antidiag": pauliY(),
		"h":        hadamard(),
	} {
		theta, phi, lambda, gamma := m.zyz()
		assert.True(t, u3(theta, phi, lambda, gamma).ApproxEqual(m, 1e-10), name)
	}
}

func TestHermitianInverse(t *testing.T) {
	a := HermitianMatrix{{2, 1 - 1i}, {1 + 1i, 3}}
	inv, err := a.Inverse()
	require.NoError(t, err)
	assert.True(t, Matrix2(a).Mul(inv).ApproxEqual(identity2, 1e-12))

	_, err = HermitianMatrix{{1, 1}, {1, 1}}.Inverse()
	assert.ErrorIs(t, err, ErrSingular)
}

func TestHermitianValidate(t *testing.T) {
	assert.NoError(t, HermitianMatrix{{1, 0}, {0, 1}}.validate())
	assert.ErrorIs(t, HermitianMatrix{{complex(math.NaN(), 0), 0}, {0, 1}}.validate(), ErrInvalidMatrix)
	assert.ErrorIs(t, HermitianMatrix{{1, 0}, {0, cmplx.Inf()}}.validate(), ErrInvalidMatrix)
}
