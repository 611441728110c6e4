package device

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// TickRate is the control loop rate.
const TickRate = 100 // Hz

const (
	tickInterval  = time.Second / TickRate
	ledBlinkEvery = 500 * time.Millisecond
	pulsePeriod   = 2 * TickRate // backlight pulse: 2 s triangle
)

// PinSource reads the physical input pins. Implementations return logical
// levels: inputs follow the pull-up convention (true = not actuated), the
// button is true when pressed.
type PinSource interface {
	ReadInputs() [regmap.NumInputs]bool
	ReadButton() bool
	ReadEncoder() (a, b bool)
}

// PWMSink receives the actuator drive pairs computed each cycle.
type PWMSink interface {
	SetDrive(out Output, d Drive)
	SetFrequencyDiv(div byte)
	SetStatusLED(on bool)
}

// Core ties the register bank, debounce engine, quadrature decoder, button
// state machine and output mapper into the fixed-rate control loop. The loop
// never blocks; every tick completes in bounded time.
type Core struct {
	bank *Bank
	disp *Dispatcher
	enc  *Encoder
	deb  *Debouncer
	btn  *Button
	pins PinSource
	pwm  PWMSink

	tick      uint64
	ledOn     bool
	lastBlink time.Time
	peakL     peakHold
	peakR     peakHold

	patMu   sync.Mutex
	pattern *pattern
}

// New builds a device core over the given pins and PWM sink.
func New(pins PinSource, pwm PWMSink) *Core {
	a, b := pins.ReadEncoder()
	enc := NewEncoder(a, b)
	bank := NewBank(enc)
	c := &Core{
		bank: bank,
		disp: NewDispatcher(bank),
		enc:  enc,
		deb:  NewDebouncer(regmap.DefaultDebounceMs * time.Millisecond),
		btn:  NewButton(),
		pins: pins,
		pwm:  pwm,
	}
	bank.SetActionHook(c.requestPattern)
	return c
}

// Dispatcher returns the bus transaction boundary for this core.
func (c *Core) Dispatcher() *Dispatcher { return c.disp }

// Bank returns the register bank.
func (c *Core) Bank() *Bank { return c.bank }

// EncoderEdge feeds one edge of either quadrature phase line. Safe to call
// from an edge-handler goroutine concurrently with the control loop.
func (c *Core) EncoderEdge(a, b bool) {
	c.enc.Edge(a, b)
}

// Run executes the control loop until ctx is cancelled.
func (c *Core) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	slog.Info("device: control loop running", "rate_hz", TickRate)
	for {
		select {
		case <-ctx.Done():
			c.allOff()
			slog.Info("device: control loop stopped")
			return
		case now := <-ticker.C:
			c.Tick(now)
		}
	}
}

// Tick runs one control loop cycle at the given time.
func (c *Core) Tick(now time.Time) {
	c.tick++

	// Debounce interval tracks the config register live.
	c.deb.SetInterval(time.Duration(c.bank.DebounceMs()) * time.Millisecond)

	// Inputs: raw pins → debounce → bank.
	changed := c.deb.Sample(now, c.pins.ReadInputs())
	low, high := regmap.PackInputs(c.deb.Levels())
	chLow, chHigh := regmap.PackInputs(changed)
	c.bank.PublishInputs(low, high, chLow, chHigh)

	// Button phase from the debounced button line.
	c.bank.PublishButton(c.btn.Update(now, c.pins.ReadButton()))

	// Encoder position snapshot. The delta stays in the decoder until the
	// host drains it through the delta register.
	c.bank.PublishEncoder(c.enc.Position(), c.enc.Pending())

	// Outputs: registers → drive pairs, with any active test pattern
	// overriding the mapped drives.
	drives, status := MapDrives(c.bank, trianglePulse(c.tick, pulsePeriod))
	if c.bank.MeterMode() == regmap.MeterModePeakHold {
		drives[OutMeterLeft].A = c.peakL.update(drives[OutMeterLeft].A)
		drives[OutMeterRight].A = c.peakR.update(drives[OutMeterRight].A)
	}
	if p := c.activePattern(now); p != nil {
		p.apply(now, &drives)
	}
	for out := Output(0); out < NumOutputs; out++ {
		c.pwm.SetDrive(out, drives[out])
	}
	c.pwm.SetFrequencyDiv(c.bank.MeterFreqDiv())
	c.bank.PublishDriveStatus(status)

	// Status LED heartbeat.
	if now.Sub(c.lastBlink) >= ledBlinkEvery {
		c.lastBlink = now
		c.ledOn = !c.ledOn
		c.pwm.SetStatusLED(c.ledOn)
	}
}

func (c *Core) allOff() {
	for out := Output(0); out < NumOutputs; out++ {
		c.pwm.SetDrive(out, Drive{})
	}
	c.pwm.SetStatusLED(false)
}

// requestPattern records a calibration/test command for the next tick.
// Called from the bus handler with the bank lock held, so it must not touch
// the bank.
func (c *Core) requestPattern(cmd byte) {
	c.patMu.Lock()
	c.pattern = &pattern{cmd: cmd}
	c.patMu.Unlock()
}

// activePattern returns the running pattern, starting or expiring it as
// needed.
func (c *Core) activePattern(now time.Time) *pattern {
	c.patMu.Lock()
	defer c.patMu.Unlock()
	p := c.pattern
	if p == nil {
		return nil
	}
	if p.start.IsZero() {
		p.start = now
	}
	if now.Sub(p.start) >= p.duration() {
		c.pattern = nil
		return nil
	}
	return p
}

// calibrationDrive is the 0 VU point on the default -20..+3 dB meter scale,
// matching the host side's DriveFor(ReferenceRMS).
const calibrationDrive = 221

// pattern is a bounded output override driven by a command-register opcode.
type pattern struct {
	cmd   byte
	start time.Time
}

func (p *pattern) duration() time.Duration {
	switch p.cmd {
	case regmap.CmdCalibrateMeter:
		return 2 * time.Second
	case regmap.CmdTestBacklight:
		return 2 * time.Second
	case regmap.CmdTestMotor:
		return 1 * time.Second
	default: // meter sweeps, test-all
		return 5 * time.Second
	}
}

// apply overrides the mapped drives with the pattern output for this cycle.
func (p *pattern) apply(now time.Time, drives *[NumOutputs]Drive) {
	elapsed := now.Sub(p.start)
	frac := float64(elapsed) / float64(p.duration())
	sweep := triangleFrac(frac)

	switch p.cmd {
	case regmap.CmdCalibrateMeter:
		drives[OutMeterLeft] = Drive{A: calibrationDrive}
		drives[OutMeterRight] = Drive{A: calibrationDrive}
	case regmap.CmdTestMeterLeft:
		drives[OutMeterLeft] = Drive{A: sweep}
	case regmap.CmdTestMeterRight:
		drives[OutMeterRight] = Drive{A: sweep}
	case regmap.CmdTestMeterBoth:
		drives[OutMeterLeft] = Drive{A: sweep}
		drives[OutMeterRight] = Drive{A: sweep}
	case regmap.CmdTestBacklight:
		drives[OutBacklight] = Drive{A: sweep}
	case regmap.CmdTestMotor:
		drives[OutMotor] = Drive{A: 128}
	case regmap.CmdTestAll:
		drives[OutMeterLeft] = Drive{A: sweep}
		drives[OutMeterRight] = Drive{A: sweep}
		drives[OutBacklight] = Drive{A: sweep}
		drives[OutMotor] = Drive{A: 128}
	}
}

// triangleFrac maps a 0..1 progress fraction to a 0→255→0 sweep level.
func triangleFrac(frac float64) byte {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	if frac > 0.5 {
		frac = 1 - frac
	}
	return byte(frac * 2 * 255)
}

// peakHoldTicks is how long a peak is held before it starts to fall.
const peakHoldTicks = TickRate // 1 s

// peakHold implements the peak-hold meter mode: the needle jumps to a new
// maximum immediately, sits there for peakHoldTicks, then falls 2 counts
// per cycle.
type peakHold struct {
	level byte
	age   int
}

func (p *peakHold) update(in byte) byte {
	if in >= p.level {
		p.level = in
		p.age = 0
		return p.level
	}
	p.age++
	if p.age > peakHoldTicks {
		if p.level >= 2 {
			p.level -= 2
		} else {
			p.level = 0
		}
	}
	return p.level
}
