package main

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHeadless(t *testing.T) {
	cfg := &Config{Matrix: "4,0;0,1", Time: "pi/8", RegisterSize: 4, Prep: "rx(pi/2)", Shots: 40, Workers: 2}
	engine := newFakeEngine(func(reps int) int { return reps / 4 })

	var out bytes.Buffer
	require.NoError(t, runHeadless(cfg, engine, rand.New(rand.NewPCG(5, 5)), zerolog.Nop(), &out))

	assert.Contains(t, out.String(), "expected  X=")
	assert.Contains(t, out.String(), "Mode direct")
	assert.Contains(t, out.String(), "Mode amplified")
	assert.Equal(t, 1, engine.sweeps)
	// Direct plus an amplified budget of 40 · 0.25 = 10.
	assert.Equal(t, 10, engine.reps[ObservableZ][1])
}

func TestRunHeadlessPropagatesEngineErrors(t *testing.T) {
	cfg := &Config{Matrix: "4,0;0,1", Time: "pi/8", RegisterSize: 2, Shots: 10, Workers: 1}
	engine := newFakeEngine(func(int) int { return 0 })
	boom := errors.New("backend offline")
	engine.fail[ObservableX] = boom

	var out bytes.Buffer
	err := runHeadless(cfg, engine, rand.New(rand.NewPCG(1, 1)), zerolog.Nop(), &out)
	assert.ErrorIs(t, err, boom)
}

func TestRunHeadlessSingularMatrix(t *testing.T) {
	cfg := &Config{Matrix: "1,1;1,1", Time: "pi/8", RegisterSize: 4, C: "1", Shots: 20, Workers: 1}
	engine := newFakeEngine(func(reps int) int { return reps / 2 })

	var out bytes.Buffer
	require.NoError(t, runHeadless(cfg, engine, rand.New(rand.NewPCG(2, 3)), zerolog.Nop(), &out))
	assert.Contains(t, out.String(), "expected  X=n/a  Y=n/a  Z=n/a")
	assert.NotContains(t, out.String(), "+0.000000")
}

func TestAmplifiedEstimates(t *testing.T) {
	assert.Equal(t, 100, amplifiedEstimates(100, nil))
	empty := &Report{Estimates: []Estimate{{Runs: 100}}}
	assert.Equal(t, 1, amplifiedEstimates(100, empty))
}
