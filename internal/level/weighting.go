package level

import "math"

// biquad is a direct form 1 second-order IIR section.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *biquad) reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// Weighting is an optional band-pass pre-filter applied before the ballistic
// stage. It tames subsonic rumble and ultrasonic content that a mechanical
// meter movement would never show. Off by default.
type Weighting struct {
	f biquad
}

// NewWeighting returns a band-pass weighting filter centered at centerHz
// with the given quality factor, using the RBJ cookbook coefficients.
func NewWeighting(sampleRate int, centerHz, q float64) *Weighting {
	w0 := 2 * math.Pi * centerHz / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return &Weighting{f: biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(w0) / a0,
		a2: (1 - alpha) / a0,
	}}
}

// Apply filters the block in place and returns it.
func (w *Weighting) Apply(samples []float32) []float32 {
	for i, s := range samples {
		samples[i] = float32(w.f.process(float64(s)))
	}
	return samples
}

// Reset clears the filter state.
func (w *Weighting) Reset() {
	w.f.reset()
}
