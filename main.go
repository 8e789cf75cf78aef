package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	seed := cfg.Seed
	if !cfg.Seeded {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	engine := NewSimulator(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64())))

	if cfg.Headless {
		logger := NewLogger(LogConfig{Level: cfg.LogLevel, Pretty: true})
		logger.Info().Uint64("seed", seed).Msg("starting headless run")
		if err := runHeadless(cfg, engine, rng, logger, os.Stdout); err != nil {
			logger.Error().Err(err).Msg("headless run failed")
			os.Exit(1)
		}
		return
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := NewLogger(LogConfig{Level: cfg.LogLevel, Output: logFile})
	logger.Info().Uint64("seed", seed).Msg("starting tui")

	m, err := initialModel(*cfg, engine, rng, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runHeadless prints the classical solution, then a direct run with the
// configured shots and an amplified run sized to the direct success rate.
func runHeadless(cfg *Config, engine Sampler, rng *rand.Rand, logger zerolog.Logger, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := cfg.Params()
	if err != nil {
		return err
	}
	alg, err := NewAlgorithm(p)
	if err != nil {
		return err
	}
	expected, err := alg.ExpectedObservables()
	if err != nil {
		logger.Warn().Err(err).Msg("no classical reference solution")
	}
	fmt.Fprintf(out, "expected  X=%s  Y=%s  Z=%s\n\n",
		formatReference(expected[0]), formatReference(expected[1]), formatReference(expected[2]))

	est := NewEstimator(alg, engine,
		WithRand(rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))),
		WithLogger(logger),
		WithWorkers(cfg.Workers),
	)

	direct, err := est.SimulateWithoutAmplification(ctx, cfg.Shots)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderReport(expected, direct))
	fmt.Fprintln(out)

	amplified, err := est.SimulateWithAmplification(ctx, amplifiedEstimates(cfg.Shots, direct))
	if amplified != nil {
		fmt.Fprintln(out, renderReport(expected, amplified))
	}
	return err
}
