//go:build linux

package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// basePWMFreq is the flicker-free PWM base frequency. The config register's
// divider scales it down; the divider default of 1 keeps it at 1 kHz.
const basePWMFreq = physic.KiloHertz

// GPIOConfig names the pins for one board wiring. Names are resolved
// through the periph.io registry (e.g. "GPIO13").
type GPIOConfig struct {
	Inputs    [regmap.NumInputs]string
	EncoderA  string
	EncoderB  string
	Button    string
	Drives    [NumOutputs][2]string // per output: polarity line A, line B
	StatusLED string
}

// DefaultGPIOConfig matches the reference board wiring.
func DefaultGPIOConfig() GPIOConfig {
	return GPIOConfig{
		Inputs: [regmap.NumInputs]string{
			"GPIO13", "GPIO14", "GPIO15", "GPIO16", "GPIO17", "GPIO18",
			"GPIO19", "GPIO20", "GPIO21", "GPIO22", "GPIO26", "GPIO27",
		},
		EncoderA: "GPIO10",
		EncoderB: "GPIO11",
		Button:   "GPIO12",
		Drives: [NumOutputs][2]string{
			OutMeterLeft:  {"GPIO0", "GPIO1"},
			OutMeterRight: {"GPIO4", "GPIO5"},
			OutBacklight:  {"GPIO6", "GPIO7"},
			OutMotor:      {"GPIO8", "GPIO9"},
		},
		StatusLED: "GPIO25",
	}
}

// GPIOPins drives real hardware through periph.io: pulled-up inputs, edge
// detection goroutines for the encoder phases, and PWM drive outputs.
type GPIOPins struct {
	inputs [regmap.NumInputs]gpio.PinIO
	encA   gpio.PinIO
	encB   gpio.PinIO
	button gpio.PinIO
	drives [NumOutputs][2]gpio.PinIO
	led    gpio.PinIO

	mu   sync.Mutex
	freq physic.Frequency
}

// OpenGPIO initializes the periph.io host and claims all pins from cfg.
func OpenGPIO(cfg GPIOConfig) (*GPIOPins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init: %w", err)
	}

	g := &GPIOPins{freq: basePWMFreq}

	in := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio: no pin %q", name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("gpio: %s as input: %w", name, err)
		}
		return p, nil
	}
	out := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio: no pin %q", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("gpio: %s as output: %w", name, err)
		}
		return p, nil
	}

	var err error
	for i, name := range cfg.Inputs {
		if g.inputs[i], err = in(name); err != nil {
			return nil, err
		}
	}
	if g.button, err = in(cfg.Button); err != nil {
		return nil, err
	}

	// Encoder phases want edge detection.
	edge := func(name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpio: no pin %q", name)
		}
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("gpio: %s edge input: %w", name, err)
		}
		return p, nil
	}
	if g.encA, err = edge(cfg.EncoderA); err != nil {
		return nil, err
	}
	if g.encB, err = edge(cfg.EncoderB); err != nil {
		return nil, err
	}

	for o := range g.drives {
		for l := range g.drives[o] {
			if g.drives[o][l], err = out(cfg.Drives[o][l]); err != nil {
				return nil, err
			}
		}
	}
	if g.led, err = out(cfg.StatusLED); err != nil {
		return nil, err
	}

	slog.Info("gpio: pins claimed", "inputs", regmap.NumInputs, "outputs", int(NumOutputs))
	return g, nil
}

// WatchEncoder runs edge-wait loops on both phase lines, feeding every edge
// into the core's decoder. Blocks until ctx is cancelled.
func (g *GPIOPins) WatchEncoder(ctx context.Context, core *Core) {
	var wg sync.WaitGroup
	watch := func(p gpio.PinIO) {
		defer wg.Done()
		for ctx.Err() == nil {
			if !p.WaitForEdge(tickInterval) {
				continue // timeout: re-check ctx
			}
			core.EncoderEdge(g.encA.Read() == gpio.High, g.encB.Read() == gpio.High)
		}
	}
	wg.Add(2)
	go watch(g.encA)
	go watch(g.encB)
	wg.Wait()
}

func (g *GPIOPins) ReadInputs() [regmap.NumInputs]bool {
	var levels [regmap.NumInputs]bool
	for i, p := range g.inputs {
		levels[i] = p.Read() == gpio.High
	}
	return levels
}

func (g *GPIOPins) ReadButton() bool {
	return g.button.Read() == gpio.Low // active low
}

func (g *GPIOPins) ReadEncoder() (a, b bool) {
	return g.encA.Read() == gpio.High, g.encB.Read() == gpio.High
}

func (g *GPIOPins) SetDrive(o Output, d Drive) {
	if o < 0 || o >= NumOutputs {
		return
	}
	g.mu.Lock()
	freq := g.freq
	g.mu.Unlock()
	g.setLine(g.drives[o][0], d.A, freq)
	g.setLine(g.drives[o][1], d.B, freq)
}

func (g *GPIOPins) setLine(p gpio.PinIO, duty byte, freq physic.Frequency) {
	switch duty {
	case 0:
		_ = p.Out(gpio.Low)
	case 255:
		_ = p.Out(gpio.High)
	default:
		d := gpio.Duty(uint64(duty) * uint64(gpio.DutyMax) / 255)
		if err := p.PWM(d, freq); err != nil {
			// Not all pins support hardware PWM; degrade to on/off.
			_ = p.Out(gpio.Level(duty >= 128))
		}
	}
}

func (g *GPIOPins) SetFrequencyDiv(div byte) {
	if div == 0 {
		div = 1
	}
	g.mu.Lock()
	g.freq = basePWMFreq / physic.Frequency(div)
	g.mu.Unlock()
}

func (g *GPIOPins) SetStatusLED(on bool) {
	_ = g.led.Out(gpio.Level(on))
}
