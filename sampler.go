package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultRounds is the number of doubling rounds l = 1..9 (M = 2^l).
	DefaultRounds = 9
	// trialsPerRound is the number of j draws below each M.
	trialsPerRound = 2
	DefaultWorkers = 3
)

// Observable is a Pauli operator measured on the memory qubit.
type Observable int

const (
	ObservableX Observable = iota
	ObservableY
	ObservableZ
)

// Observables lists X, Y and Z in report order.
var Observables = []Observable{ObservableX, ObservableY, ObservableZ}

func (o Observable) String() string {
	switch o {
	case ObservableX:
		return "X"
	case ObservableY:
		return "Y"
	case ObservableZ:
		return "Z"
	}
	return fmt.Sprintf("Observable(%d)", int(o))
}

// Resolver binds the basis change so that the +1 eigenstate of o is read as 0.
func (o Observable) Resolver() ParamResolver {
	switch o {
	case ObservableX:
		return ParamResolver{ExponentSymbol: 0.5, PhaseSymbol: -0.5}
	case ObservableY:
		return ParamResolver{ExponentSymbol: 0.5, PhaseSymbol: 0}
	}
	return ParamResolver{ExponentSymbol: 0, PhaseSymbol: 0}
}

// Estimate is the sampling outcome for one observable.
type Estimate struct {
	Observable Observable
	// Outcomes are memory bits of the shots where the ancilla read 1.
	Outcomes []int
	// Runs counts every shot issued to the engine.
	Runs  int
	Calls int
	// Exhausted is set when the doubling rounds ended before enough
	// successes were collected. The partial outcomes remain valid.
	Exhausted bool
	Err       error
}

// Expectation returns 1 - 2·mean(Outcomes). With no surviving shots it
// returns NaN and ErrInsufficientSamples.
func (e Estimate) Expectation() (float64, error) {
	if len(e.Outcomes) == 0 {
		return math.NaN(), fmt.Errorf("observable %s: %w", e.Observable, ErrInsufficientSamples)
	}
	bits := make([]float64, len(e.Outcomes))
	for i, b := range e.Outcomes {
		bits[i] = float64(b)
	}
	return 1 - 2*stat.Mean(bits, nil), nil
}

// SuccessProbability is surviving shots over issued shots.
func (e Estimate) SuccessProbability() float64 {
	if e.Runs == 0 {
		return 0
	}
	return float64(len(e.Outcomes)) / float64(e.Runs)
}

type Mode string

const (
	ModeDirect    Mode = "direct"
	ModeAmplified Mode = "amplified"
)

// Report collects the estimates of one sampling call.
type Report struct {
	ID        uuid.UUID
	Mode      Mode
	Estimates []Estimate
	Elapsed   time.Duration
}

// Expectations returns <X>, <Y>, <Z>, NaN where an observable has no samples.
func (r *Report) Expectations() [3]float64 {
	var out [3]float64
	for i := range out {
		out[i] = math.NaN()
	}
	for _, e := range r.Estimates {
		if int(e.Observable) < len(out) {
			out[e.Observable], _ = e.Expectation()
		}
	}
	return out
}

// SuccessProbability is the mean success probability over the observables.
func (r *Report) SuccessProbability() float64 {
	if len(r.Estimates) == 0 {
		return 0
	}
	probs := make([]float64, len(r.Estimates))
	for i, e := range r.Estimates {
		probs[i] = e.SuccessProbability()
	}
	return stat.Mean(probs, nil)
}

// Calls returns the number of engine calls across all observables.
func (r *Report) Calls() int {
	n := 0
	for _, e := range r.Estimates {
		n += e.Calls
	}
	return n
}

// ──────────────────────────── Estimator ────────────────────────────

// Estimator samples the HHL circuits of one Algorithm on an engine.
type Estimator struct {
	alg    *Algorithm
	engine Sampler

	rngMu sync.Mutex
	rng   *rand.Rand

	logger  zerolog.Logger
	workers int
	rounds  int
}

type Option func(*Estimator)

// WithRand sets the source of the amplification draws.
func WithRand(rng *rand.Rand) Option {
	return func(e *Estimator) { e.rng = rng }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Estimator) { e.logger = l }
}

// WithWorkers limits how many observables are sampled concurrently.
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithRounds overrides the number of doubling rounds.
func WithRounds(n int) Option {
	return func(e *Estimator) {
		if n > 0 {
			e.rounds = n
		}
	}
}

func NewEstimator(alg *Algorithm, engine Sampler, opts ...Option) *Estimator {
	e := &Estimator{
		alg:     alg,
		engine:  engine,
		logger:  zerolog.Nop(),
		workers: DefaultWorkers,
		rounds:  DefaultRounds,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// split derives an independent source for one observable.
func (e *Estimator) split() *rand.Rand {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return rand.New(rand.NewPCG(e.rng.Uint64(), e.rng.Uint64()))
}

// survivors returns the memory bits of the shots where the ancilla read 1.
func survivors(res *Result) []int {
	if res == nil {
		return nil
	}
	ancilla := res.Measurements[AncillaKey]
	memory := res.Measurements[MemoryKey]
	var out []int
	for i, a := range ancilla {
		if a == 1 && i < len(memory) {
			out = append(out, memory[i])
		}
	}
	return out
}

// SimulateWithoutAmplification runs the measured base circuit totalRuns times
// per observable in one sweep and keeps the shots where the ancilla read 1.
func (e *Estimator) SimulateWithoutAmplification(ctx context.Context, totalRuns int) (*Report, error) {
	if totalRuns < 1 {
		return nil, fmt.Errorf("total runs %d: %w", totalRuns, ErrInvalidParameter)
	}
	report := &Report{ID: uuid.New(), Mode: ModeDirect}
	log := e.logger.With().Str("run", report.ID.String()).Str("mode", string(ModeDirect)).Logger()
	start := time.Now()

	sweep := make([]ParamResolver, len(Observables))
	for i, o := range Observables {
		sweep[i] = o.Resolver()
	}
	circuit := e.alg.MeasureCircuit(e.alg.Circuit())
	calls := 1
	results, err := e.engine.RunSweep(ctx, circuit, sweep, totalRuns)
	if err == nil && len(results) != len(sweep) {
		err = fmt.Errorf("engine returned %d results for %d parameter sets", len(results), len(sweep))
	}
	var errs []error
	if err != nil {
		// One run per observable; only the failing ones carry an error.
		log.Warn().Err(err).Msg("direct sweep failed, running observables separately")
		calls = 2
		results = make([]*Result, len(sweep))
		errs = make([]error, len(sweep))
		for i, p := range sweep {
			results[i], errs[i] = e.engine.Run(ctx, circuit, p, totalRuns)
		}
	}

	for i, o := range Observables {
		est := Estimate{Observable: o, Runs: totalRuns, Calls: calls}
		if errs != nil && errs[i] != nil {
			est.Err = fmt.Errorf("observable %s: %w", o, errs[i])
		} else {
			est.Outcomes = survivors(results[i])
		}
		report.Estimates = append(report.Estimates, est)
		log.Debug().
			Stringer("observable", o).
			Int("repetitions", totalRuns).
			Int("successes", len(est.Outcomes)).
			Msg("direct batch")
	}
	err = errors.Join(errs...)
	report.Elapsed = time.Since(start)

	if err != nil {
		log.Error().Err(err).Msg("direct sampling failed")
		return report, err
	}
	log.Info().
		Float64("success_probability", report.SuccessProbability()).
		Dur("elapsed", report.Elapsed).
		Msg("direct sampling done")
	return report, nil
}

// SimulateWithAmplification collects totalEstimates successful shots per
// observable without knowing the success probability: for each round
// l = 1..rounds it draws j below 2^l twice and runs the j-fold amplified
// circuit for the remaining budget. Observables are sampled concurrently;
// a failing observable does not stop the others.
func (e *Estimator) SimulateWithAmplification(ctx context.Context, totalEstimates int) (*Report, error) {
	if totalEstimates < 1 {
		return nil, fmt.Errorf("total estimates %d: %w", totalEstimates, ErrInvalidParameter)
	}
	report := &Report{
		ID:        uuid.New(),
		Mode:      ModeAmplified,
		Estimates: make([]Estimate, len(Observables)),
	}
	log := e.logger.With().Str("run", report.ID.String()).Str("mode", string(ModeAmplified)).Logger()
	start := time.Now()

	rngs := make([]*rand.Rand, len(Observables))
	for i := range rngs {
		rngs[i] = e.split()
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, o := range Observables {
		g.Go(func() error {
			report.Estimates[i] = e.amplified(ctx, log, o, rngs[i], totalEstimates)
			return nil
		})
	}
	_ = g.Wait()
	report.Elapsed = time.Since(start)

	var errs []error
	for _, est := range report.Estimates {
		if est.Err != nil {
			errs = append(errs, fmt.Errorf("observable %s: %w", est.Observable, est.Err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		log.Error().Err(err).Msg("amplified sampling failed")
		return report, err
	}
	log.Info().
		Float64("success_probability", report.SuccessProbability()).
		Int("calls", report.Calls()).
		Dur("elapsed", report.Elapsed).
		Msg("amplified sampling done")
	return report, nil
}

func (e *Estimator) amplified(ctx context.Context, log zerolog.Logger, o Observable, rng *rand.Rand, totalEstimates int) Estimate {
	est := Estimate{Observable: o}
	params := o.Resolver()
	repetitions := totalEstimates

	for l := 1; l <= e.rounds; l++ {
		m := 1 << l
		for range trialsPerRound {
			j := rng.IntN(m)
			c, err := e.alg.AmplitudeAmplification(j)
			if err != nil {
				est.Err = err
				return est
			}
			res, err := e.engine.Run(ctx, e.alg.MeasureCircuit(c), params, repetitions)
			if err != nil {
				est.Err = err
				return est
			}
			est.Calls++
			est.Runs += repetitions

			found := survivors(res)
			est.Outcomes = append(est.Outcomes, found...)
			repetitions -= len(found)
			log.Debug().
				Stringer("observable", o).
				Int("round", l).
				Int("j", j).
				Int("repetitions", repetitions+len(found)).
				Int("successes", len(found)).
				Msg("amplified batch")
			if repetitions <= 0 {
				return est
			}
		}
	}
	est.Exhausted = true
	log.Warn().
		Stringer("observable", o).
		Int("remaining", repetitions).
		Int("collected", len(est.Outcomes)).
		Msg("doubling rounds exhausted")
	return est
}
