// Package level implements the host-side audio level engine: VU ballistics,
// optional frequency weighting, dB conversion and the 50 Hz update loop that
// drives the physical meters through the panel client.
package level

import "math"

// DefaultTimeConstant is the VU integration time constant. A 0 VU step input
// reaches 99% of final deflection within this interval.
const DefaultTimeConstant = 0.3

// Meter applies VU ballistics to a stream of audio samples. The smoothed
// quantity is signal power; the reported level is its square root, so the
// meter reads RMS with an exponential 300 ms response.
type Meter struct {
	alpha float64
	state float64
}

// NewMeter returns a meter for the given sample rate and time constant in
// seconds. A zero or negative time constant falls back to the default.
func NewMeter(sampleRate int, timeConstant float64) *Meter {
	if timeConstant <= 0 {
		timeConstant = DefaultTimeConstant
	}
	return &Meter{
		alpha: 1.0 - math.Exp(-1.0/(float64(sampleRate)*timeConstant)),
	}
}

// Process folds a block of samples into the ballistic state and returns the
// current RMS level. An empty block returns the held level unchanged, so
// gaps in the audio stream decay naturally on the next non-empty block.
func (m *Meter) Process(samples []float32) float64 {
	if len(samples) == 0 {
		return math.Sqrt(m.state)
	}
	for _, s := range samples {
		p := float64(s) * float64(s)
		m.state = m.alpha*p + (1.0-m.alpha)*m.state
	}
	if m.state < 0 {
		m.state = 0
	}
	return math.Sqrt(m.state)
}

// Level returns the current RMS level without consuming samples.
func (m *Meter) Level() float64 {
	return math.Sqrt(m.state)
}

// Reset zeroes the ballistic state.
func (m *Meter) Reset() {
	m.state = 0
}
