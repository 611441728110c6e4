package device

import "sync"

// quadTable maps (previous phase code, new phase code) to a signed step.
// Valid single-step transitions yield ±1. The diagonal (no change) and the
// ambiguous double-step transitions (both lines changing at once, which means
// a missed edge or contact bounce) yield 0; position never advances on an
// ambiguous transition.
var quadTable = [4][4]int8{
	{0, -1, 1, 0},
	{1, 0, 0, -1},
	{-1, 0, 0, 1},
	{0, 1, -1, 0},
}

// Encoder decodes two-phase quadrature transitions into an accumulated
// position and an unread delta. Edge runs at edge-handler priority while
// Snapshot/TakeDelta run at poll priority; the mutex keeps the poll side from
// ever observing a half-updated position.
type Encoder struct {
	mu       sync.Mutex
	phase    byte
	position int16
	delta    int8
}

// NewEncoder returns an encoder primed with the given initial phase lines.
func NewEncoder(a, b bool) *Encoder {
	return &Encoder{phase: phaseCode(a, b)}
}

func phaseCode(a, b bool) byte {
	var code byte
	if a {
		code |= 2
	}
	if b {
		code |= 1
	}
	return code
}

// Edge feeds one sampled edge of either phase line. It returns the decoded
// step (-1, 0 or +1).
func (e *Encoder) Edge(a, b bool) int {
	code := phaseCode(a, b)
	e.mu.Lock()
	step := quadTable[e.phase][code]
	e.phase = code
	if step != 0 {
		e.position += int16(step) // wraps modulo 2^16 by int16 arithmetic
		e.delta += step
	}
	e.mu.Unlock()
	return int(step)
}

// Position returns the accumulated position without draining the delta.
func (e *Encoder) Position() int16 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Pending reports whether unread steps have accumulated since the last
// TakeDelta.
func (e *Encoder) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.delta != 0
}

// TakeDelta returns the net signed step count since the previous call and
// resets it to zero atomically.
func (e *Encoder) TakeDelta() int8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.delta
	e.delta = 0
	return d
}

// Reset zeroes the position and the unread delta in one critical section so
// a concurrent edge cannot land between the two.
func (e *Encoder) Reset() {
	e.mu.Lock()
	e.position = 0
	e.delta = 0
	e.mu.Unlock()
}
