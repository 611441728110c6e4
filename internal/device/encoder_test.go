package device_test

import (
	"testing"

	"github.com/picoreplayer/panelpi-go/internal/device"
)

// phases is one full clockwise detent cycle in 2-bit gray code.
var cwCycle = [][2]bool{
	{true, false},  // 10
	{true, true},   // 11
	{false, true},  // 01
	{false, false}, // 00
}

func TestEncoderFullCycle(t *testing.T) {
	enc := device.NewEncoder(false, false)
	for _, p := range cwCycle {
		enc.Edge(p[0], p[1])
	}
	if got := enc.Position(); got != 4 {
		t.Errorf("position after one CW cycle = %d, want 4", got)
	}
	if got := enc.TakeDelta(); got != 4 {
		t.Errorf("delta = %d, want 4", got)
	}
	if got := enc.TakeDelta(); got != 0 {
		t.Errorf("delta after drain = %d, want 0", got)
	}
}

func TestEncoderReversalRoundTrip(t *testing.T) {
	enc := device.NewEncoder(false, false)
	for _, p := range cwCycle {
		enc.Edge(p[0], p[1])
	}
	// Feed the reverse-ordered sequence: position returns to start.
	for i := len(cwCycle) - 2; i >= 0; i-- {
		enc.Edge(cwCycle[i][0], cwCycle[i][1])
	}
	enc.Edge(false, false)
	if got := enc.Position(); got != 0 {
		t.Errorf("position after direction reversal = %d, want 0", got)
	}
}

func TestEncoderAmbiguousTransition(t *testing.T) {
	enc := device.NewEncoder(false, false)
	// 00 → 11: both lines changed at once, a missed edge. Must not move.
	if step := enc.Edge(true, true); step != 0 {
		t.Errorf("ambiguous transition yielded step %d, want 0", step)
	}
	if got := enc.Position(); got != 0 {
		t.Errorf("position advanced on ambiguous transition: %d", got)
	}
}

func TestEncoderNoChange(t *testing.T) {
	enc := device.NewEncoder(true, true)
	if step := enc.Edge(true, true); step != 0 {
		t.Errorf("no-change transition yielded step %d", step)
	}
}

func TestEncoderPositionWraps(t *testing.T) {
	enc := device.NewEncoder(false, false)
	// Drive position near the positive limit and step across it.
	for enc.Position() < 32764 {
		for _, p := range cwCycle {
			enc.Edge(p[0], p[1])
		}
		enc.TakeDelta() // keep the delta accumulator from wrapping mid-test
	}
	for _, p := range cwCycle {
		enc.Edge(p[0], p[1])
	}
	if got := enc.Position(); got >= 32764 {
		t.Errorf("position did not wrap: %d", got)
	}
}

func TestEncoderSumOfTableDeltas(t *testing.T) {
	// Accumulated position must equal the sum of per-transition steps for an
	// arbitrary code sequence, including invalid transitions.
	seq := [][2]bool{
		{true, false}, {true, true}, {false, false}, // includes one ambiguous jump
		{false, true}, {false, false}, {true, false},
	}
	enc := device.NewEncoder(false, false)
	sum := 0
	for _, p := range seq {
		sum += enc.Edge(p[0], p[1])
	}
	if got := enc.Position(); int(got) != sum {
		t.Errorf("position = %d, sum of steps = %d", got, sum)
	}
}
