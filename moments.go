package main

import "slices"

// Moment is one time step of a circuit: operations whose qubit spans do not
// overlap.
type Moment struct {
	Ops []Operation
}

// span returns the lowest and highest qubit an operation touches. A drawn
// operation occupies every wire in between.
func span(op Operation) (lo, hi int) {
	qs := op.Qubits()
	return slices.Min(qs), slices.Max(qs)
}

// OpAt returns the operation whose span covers qubit q.
func (m Moment) OpAt(q int) (Operation, bool) {
	for _, op := range m.Ops {
		lo, hi := span(op)
		if q >= lo && q <= hi {
			return op, true
		}
	}
	return nil, false
}

// Moments layers the operations of c as early as possible. An operation is
// placed one step after the latest operation that overlaps its span, so the
// order of operations on every qubit is preserved.
func Moments(c *Circuit) []Moment {
	lastStep := make([]int, max(c.NumQubits, 1))
	for i := range lastStep {
		lastStep[i] = -1
	}

	var moments []Moment
	for _, op := range c.Ops {
		lo, hi := span(op)
		if hi >= len(lastStep) {
			grown := make([]int, hi+1)
			copy(grown, lastStep)
			for i := len(lastStep); i < len(grown); i++ {
				grown[i] = -1
			}
			lastStep = grown
		}

		step := 0
		for q := lo; q <= hi; q++ {
			step = max(step, lastStep[q]+1)
		}
		for step >= len(moments) {
			moments = append(moments, Moment{})
		}
		moments[step].Ops = append(moments[step].Ops, op)
		for q := lo; q <= hi; q++ {
			lastStep[q] = step
		}
	}
	return moments
}

// FromMoments flattens moments back into a circuit over numQubits qubits.
func FromMoments(numQubits int, moments []Moment) *Circuit {
	var ops []Operation
	for _, m := range moments {
		ops = append(ops, m.Ops...)
	}
	return NewCircuit(numQubits, ops...)
}

// Depth returns the number of moments.
func (c *Circuit) Depth() int { return len(Moments(c)) }
