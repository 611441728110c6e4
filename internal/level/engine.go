package level

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/picoreplayer/panelpi-go/internal/client"
	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// DefaultUpdateRate is how often the engine pushes meter drives, in Hz.
// Faster than the mechanical movement can follow, slow enough to leave the
// bus mostly idle for input polling.
const DefaultUpdateRate = 50

// Options configures the level engine.
type Options struct {
	SampleRate   int     // audio sample rate, Hz
	TimeConstant float64 // ballistic time constant, seconds; 0 = default
	UpdateRate   int     // meter update rate, Hz; 0 = default
	BlockFrames  int     // frames per read; 0 = default

	// Weighting enables the band-pass pre-filter. Off by default; the
	// mechanical meters already roll off the extremes on their own.
	Weighting         bool
	WeightingCenterHz float64 // default 1000
	WeightingQ        float64 // default 0.5
}

// Engine reads stereo audio, applies VU ballistics per channel and pushes
// drive levels to the panel at a fixed rate. Bus write failures are logged
// and retried on the next cycle rather than stopping the meters.
type Engine struct {
	cl     *client.Client
	opts   Options
	vuL    *Meter
	vuR    *Meter
	wL     *Weighting
	wR     *Weighting
	drives atomic.Uint32 // packed left<<8 | right, written by the audio loop
}

// NewEngine returns an engine driving meters through cl.
func NewEngine(cl *client.Client, opts Options) *Engine {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.UpdateRate <= 0 {
		opts.UpdateRate = DefaultUpdateRate
	}
	e := &Engine{
		cl:   cl,
		opts: opts,
		vuL:  NewMeter(opts.SampleRate, opts.TimeConstant),
		vuR:  NewMeter(opts.SampleRate, opts.TimeConstant),
	}
	if opts.Weighting {
		center, q := opts.WeightingCenterHz, opts.WeightingQ
		if center <= 0 {
			center = 1000
		}
		if q <= 0 {
			q = 0.5
		}
		e.wL = NewWeighting(opts.SampleRate, center, q)
		e.wR = NewWeighting(opts.SampleRate, center, q)
	}
	return e
}

// Run consumes audio from src until ctx is cancelled or the stream ends,
// pushing meter updates concurrently. On exit the meters are zeroed and
// disabled.
func (e *Engine) Run(ctx context.Context, src io.Reader) error {
	if err := e.cl.SetMeterMode(ctx, regmap.MeterModeNormal); err != nil {
		return fmt.Errorf("set meter mode: %w", err)
	}

	pushCtx, cancelPush := context.WithCancel(ctx)
	pushDone := make(chan struct{})
	go func() {
		defer close(pushDone)
		e.pushLoop(pushCtx)
	}()

	err := e.consume(ctx, src)

	cancelPush()
	<-pushDone

	// Leave the needles at rest. Use a fresh context: ctx is often already
	// cancelled when we get here.
	offCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if zerr := e.cl.SetMeters(offCtx, 0, 0); zerr != nil {
		slog.Warn("level: failed to zero meters on exit", "err", zerr)
	}
	return err
}

// consume is the audio-side loop: read, weight, meter, publish drives.
func (e *Engine) consume(ctx context.Context, src io.Reader) error {
	fr := NewFrameReader(src, e.opts.BlockFrames)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		left, right, err := fr.ReadBlock()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		if e.wL != nil {
			left = e.wL.Apply(left)
			right = e.wR.Apply(right)
		}
		l := DriveFor(e.vuL.Process(left))
		r := DriveFor(e.vuR.Process(right))
		e.drives.Store(uint32(l)<<8 | uint32(r))
	}
}

// pushLoop writes the latest drives at the configured rate. Only changed
// values hit the bus.
func (e *Engine) pushLoop(ctx context.Context) {
	interval := time.Second / time.Duration(e.opts.UpdateRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last uint32 = 1 << 16 // never matches a packed value
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			packed := e.drives.Load()
			if packed == last {
				continue
			}
			l, r := byte(packed>>8), byte(packed)
			if err := e.cl.SetMeters(ctx, l, r); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("level: meter update failed", "err", err)
				continue
			}
			last = packed
		}
	}
}
