package main

import "errors"

// Sentinel errors. Callers match them with errors.Is; call sites add context
// with fmt.Errorf("...: %w", ErrX).
var (
	// ErrInvalidParameter reports a malformed algorithm or sampling parameter
	// (register size, t, C, shot counts, iteration counts).
	ErrInvalidParameter = errors.New("hhl: invalid parameter")

	// ErrInvalidMatrix reports a matrix with NaN/Inf entries or the wrong shape.
	// Hermiticity itself is not checked.
	ErrInvalidMatrix = errors.New("hhl: invalid matrix")

	// ErrEigenFailed reports that the symmetric eigensolver did not converge.
	ErrEigenFailed = errors.New("hhl: eigen decomposition failed")

	// ErrSingular is returned by the classical reference solve when A has no inverse.
	ErrSingular = errors.New("hhl: singular matrix")

	// ErrNotInvertible is returned when inverting a circuit that contains measurements.
	ErrNotInvertible = errors.New("hhl: circuit is not invertible")

	// ErrInsufficientSamples marks an expectation value computed over zero
	// surviving shots. The accompanying value is NaN.
	ErrInsufficientSamples = errors.New("hhl: insufficient samples")

	// ErrUnresolvedSymbol reports a basis-change parameter missing from the resolver.
	ErrUnresolvedSymbol = errors.New("hhl: unresolved symbol")

	// ErrNonTerminalMeasurement reports an operation acting on an already measured qubit.
	ErrNonTerminalMeasurement = errors.New("hhl: measurement is not terminal")

	// ErrTooManyQubits reports a circuit wider than the simulator supports.
	ErrTooManyQubits = errors.New("hhl: too many qubits")

	// ErrUnsupportedProgram reports an unknown serialized program version or op tag.
	ErrUnsupportedProgram = errors.New("hhl: unsupported program")

	// ErrInvalidExpression reports a config value that does not parse.
	ErrInvalidExpression = errors.New("hhl: invalid expression")
)
