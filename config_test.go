package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, defaultShots, cfg.Shots)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.False(t, cfg.Seeded)
	assert.False(t, cfg.Headless)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, referenceMatrix, p.A)
	assert.InDelta(t, 0.358166*math.Pi, p.T, 1e-12)
	assert.InDelta(t, 2*math.Pi/(0.358166*math.Pi*16), p.C, 1e-12)
	assert.Len(t, p.InputPrep, 2)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HHL_MATRIX", "4,0;0,1")
	t.Setenv("HHL_TIME", "pi/8")
	t.Setenv("HHL_C", "0.5")
	t.Setenv("HHL_REGISTER_SIZE", "3")
	t.Setenv("HHL_PREP", "")
	t.Setenv("HHL_SHOTS", "100")
	t.Setenv("HHL_SEED", "42")
	t.Setenv("HHL_HEADLESS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Seeded)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 100, cfg.Shots)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 3, p.RegisterSize)
	assert.Equal(t, 0.5, p.C)
	assert.Empty(t, p.InputPrep)
}

func TestLoadConfigRejects(t *testing.T) {
	for key, value := range map[string]string{
		"HHL_SEED":          "-1",
		"HHL_SHOTS":         "0",
		"HHL_WORKERS":       "0",
		"HHL_REGISTER_SIZE": "11",
		"HHL_TIME":          "0",
		"HHL_MATRIX":        "1,2",
		"HHL_PREP":          "cz",
	} {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRejectsMalformedNumbers(t *testing.T) {
	for key, value := range map[string]string{
		"HHL_SEED":          "abc",
		"HHL_SHOTS":         "abc",
		"HHL_WORKERS":       "2.5",
		"HHL_REGISTER_SIZE": "four",
		"HHL_HEADLESS":      "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.ErrorIs(t, err, ErrInvalidExpression)
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestConfigWithField(t *testing.T) {
	cfg := Config{Matrix: "4,0;0,1", Time: "pi/8", RegisterSize: 4, Shots: 10, Workers: 1}

	next, err := cfg.withField(fieldRegisterSize, " 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, next.RegisterSize)
	assert.Equal(t, 4, cfg.RegisterSize)

	_, err = cfg.withField(fieldShots, "many")
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = cfg.withField(fieldTime, "soon")
	assert.ErrorIs(t, err, ErrInvalidExpression)

	p := cfg.withPreset(presets[3])
	assert.Equal(t, "2,1;1,2", p.Matrix)
	assert.Equal(t, "h", p.fieldValue(fieldPrep))
	assert.Equal(t, "10", p.fieldValue(fieldShots))
}

func TestPresetsAreValid(t *testing.T) {
	base := Config{Shots: 1, Workers: 1}
	for _, pr := range presets {
		cfg := base.withPreset(pr)
		p, err := cfg.Params()
		require.NoError(t, err, pr.name)
		_, err = NewAlgorithm(p)
		assert.NoError(t, err, pr.name)
	}
}
