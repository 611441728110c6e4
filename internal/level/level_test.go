package level_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/picoreplayer/panelpi-go/internal/bus"
	"github.com/picoreplayer/panelpi-go/internal/client"
	"github.com/picoreplayer/panelpi-go/internal/device"
	"github.com/picoreplayer/panelpi-go/internal/level"
	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

const fs = 44100

func constantBlock(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestMeterConvergesToStepRMS(t *testing.T) {
	m := level.NewMeter(fs, 0)
	const amp = 0.5

	// Five time constants of a constant input: the residual error of the
	// single-pole smoother is e^-5, under half a percent in power.
	n := int(5 * 0.3 * fs)
	rms := m.Process(constantBlock(n, amp))

	if math.Abs(rms-amp) > 0.005*amp {
		t.Errorf("rms after 5 tau = %v, want within 0.5%% of %v", rms, amp)
	}

	// And within 0.1 dB of the final reading.
	db := 20 * math.Log10(rms/amp)
	if math.Abs(db) > 0.1 {
		t.Errorf("level after 5 tau off by %v dB", db)
	}
}

func TestMeterDecaysOnSilence(t *testing.T) {
	m := level.NewMeter(fs, 0)
	m.Process(constantBlock(fs, 1.0))
	loud := m.Level()

	rms := m.Process(constantBlock(int(5*0.3*fs), 0))
	if rms > 0.01*loud {
		t.Errorf("rms after 5 tau of silence = %v, want near zero", rms)
	}
}

func TestMeterEmptyBlockHoldsLevel(t *testing.T) {
	m := level.NewMeter(fs, 0)
	m.Process(constantBlock(fs, 0.25))
	before := m.Level()
	after := m.Process(nil)
	if after != before {
		t.Errorf("empty block moved level from %v to %v", before, after)
	}
}

func TestScaleEndpoints(t *testing.T) {
	if got := level.DBToDrive(level.MinDB); got != 0 {
		t.Errorf("drive at min = %d", got)
	}
	if got := level.DBToDrive(level.MaxDB); got != 255 {
		t.Errorf("drive at max = %d", got)
	}
	// Out-of-range values clamp.
	if got := level.DBToDrive(-60); got != 0 {
		t.Errorf("drive below scale = %d", got)
	}
	if got := level.DBToDrive(12); got != 255 {
		t.Errorf("drive above scale = %d", got)
	}
}

func TestRMSToDBReference(t *testing.T) {
	// The reference level reads 0 dB, which sits at 20/23 of the scale.
	db := level.RMSToDB(level.ReferenceRMS)
	if math.Abs(db) > 1e-9 {
		t.Errorf("reference level = %v dB, want 0", db)
	}
	if got := level.DriveFor(0); got != 0 {
		t.Errorf("silence drive = %d", got)
	}
	frac := (0.0 - level.MinDB) / (level.MaxDB - level.MinDB)
	want := byte(int(frac * 255))
	if got := level.DriveFor(level.ReferenceRMS); got != want {
		t.Errorf("reference drive = %d, want %d", got, want)
	}
}

func encodeFrames(left, right []float32) []byte {
	buf := make([]byte, 0, len(left)*8)
	var b [4]byte
	for i := range left {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(left[i]))
		buf = append(buf, b[:]...)
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(right[i]))
		buf = append(buf, b[:]...)
	}
	return buf
}

func TestFrameReaderDeinterleaves(t *testing.T) {
	left := []float32{0.1, 0.2, 0.3}
	right := []float32{-0.1, -0.2, -0.3}
	fr := level.NewFrameReader(bytes.NewReader(encodeFrames(left, right)), 8)

	l, r, err := fr.ReadBlock()
	if err != nil {
		t.Fatal(err)
	}
	if len(l) != 3 || len(r) != 3 {
		t.Fatalf("got %d/%d samples", len(l), len(r))
	}
	for i := range left {
		if l[i] != left[i] || r[i] != right[i] {
			t.Errorf("frame %d = %v/%v, want %v/%v", i, l[i], r[i], left[i], right[i])
		}
	}
}

func TestFrameReaderCarriesPartialFrame(t *testing.T) {
	data := encodeFrames([]float32{0.5, 0.75}, []float32{0.5, 0.75})
	// Feed in two chunks split mid-frame.
	split := 11
	fr := level.NewFrameReader(&chunkReader{chunks: [][]byte{data[:split], data[split:]}}, 8)

	l1, _, err := fr.ReadBlock()
	if err != nil {
		t.Fatal(err)
	}
	l2, _, err := fr.ReadBlock()
	if err != nil {
		t.Fatal(err)
	}
	got := append(append([]float32{}, l1...), l2...)
	if len(got) != 2 || got[0] != 0.5 || got[1] != 0.75 {
		t.Errorf("reassembled left channel = %v", got)
	}
}

type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n == len(c.chunks[0]) {
		c.chunks = c.chunks[1:]
	} else {
		c.chunks[0] = c.chunks[0][n:]
	}
	return n, nil
}

func TestFrameReaderScrubsNonFinite(t *testing.T) {
	left := []float32{float32(math.NaN())}
	right := []float32{float32(math.Inf(1))}
	fr := level.NewFrameReader(bytes.NewReader(encodeFrames(left, right)), 8)

	l, r, err := fr.ReadBlock()
	if err != nil {
		t.Fatal(err)
	}
	if l[0] != 0 || r[0] != 0 {
		t.Errorf("non-finite samples passed through: %v %v", l[0], r[0])
	}
}

func TestWeightingPassesCenterRejectsDC(t *testing.T) {
	const center = 1000.0
	w := level.NewWeighting(fs, center, 0.5)

	// A burst at the center frequency keeps most of its energy.
	n := fs / 2
	tone := make([]float32, n)
	for i := range tone {
		tone[i] = float32(math.Sin(2 * math.Pi * center * float64(i) / fs))
	}
	out := w.Apply(tone)
	var power float64
	for _, s := range out[n/2:] {
		power += float64(s) * float64(s)
	}
	power /= float64(n / 2)
	if power < 0.3 {
		t.Errorf("center tone power = %v, want most energy retained", power)
	}

	// DC dies out.
	w.Reset()
	dc := constantBlock(n, 1.0)
	out = w.Apply(dc)
	tail := out[len(out)-1]
	if math.Abs(float64(tail)) > 0.01 {
		t.Errorf("DC residual = %v", tail)
	}
}

func TestEngineRunZeroesMetersOnExit(t *testing.T) {
	core := device.New(device.NewSimPins(), device.NewSimPWM())
	cl, err := client.Connect(context.Background(), bus.NewLoopback(core.Dispatcher()))
	if err != nil {
		t.Fatal(err)
	}
	eng := level.NewEngine(cl, level.Options{SampleRate: fs})

	// A second of reference-level DC, then EOF.
	n := fs
	samples := constantBlock(n, float32(level.ReferenceRMS))
	src := bytes.NewReader(encodeFrames(samples, samples))

	if err := eng.Run(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	b := core.Bank()
	if got := b.Read(regmap.RegMeterMode); got != regmap.MeterModeNormal {
		t.Errorf("meter mode = %d", got)
	}
	if l := b.Read(regmap.RegMeterLeft); l != 0 {
		t.Errorf("left meter not zeroed on exit: %d", l)
	}
	if r := b.Read(regmap.RegMeterRight); r != 0 {
		t.Errorf("right meter not zeroed on exit: %d", r)
	}
}
