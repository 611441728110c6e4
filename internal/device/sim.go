package device

import (
	"sync"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// SimPins is a thread-safe in-memory pin source for testing and for running
// the device daemon without hardware. All inputs idle at the pulled-up
// level; the button idles released.
type SimPins struct {
	mu      sync.Mutex
	inputs  [regmap.NumInputs]bool
	button  bool
	phaseA  bool
	phaseB  bool
}

// NewSimPins returns a simulator with every switch open.
func NewSimPins() *SimPins {
	s := &SimPins{}
	for i := range s.inputs {
		s.inputs[i] = true
	}
	return s
}

// SetInput sets the logical level of one input channel (true = not actuated).
func (s *SimPins) SetInput(ch int, level bool) {
	s.mu.Lock()
	if ch >= 0 && ch < regmap.NumInputs {
		s.inputs[ch] = level
	}
	s.mu.Unlock()
}

// Actuate closes (true) or opens (false) the switch on one channel.
func (s *SimPins) Actuate(ch int, closed bool) {
	s.SetInput(ch, !closed)
}

// SetButton presses or releases the encoder button.
func (s *SimPins) SetButton(pressed bool) {
	s.mu.Lock()
	s.button = pressed
	s.mu.Unlock()
}

// SetEncoder sets the two phase lines.
func (s *SimPins) SetEncoder(a, b bool) {
	s.mu.Lock()
	s.phaseA, s.phaseB = a, b
	s.mu.Unlock()
}

func (s *SimPins) ReadInputs() [regmap.NumInputs]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs
}

func (s *SimPins) ReadButton() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.button
}

func (s *SimPins) ReadEncoder() (a, b bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phaseA, s.phaseB
}

// SimPWM records the most recent drive pair per output. It satisfies
// PWMSink for tests and hardware-less runs.
type SimPWM struct {
	mu     sync.Mutex
	drives [NumOutputs]Drive
	div    byte
	led    bool
}

// NewSimPWM returns an all-off PWM recorder.
func NewSimPWM() *SimPWM {
	return &SimPWM{div: 1}
}

func (s *SimPWM) SetDrive(out Output, d Drive) {
	s.mu.Lock()
	if out >= 0 && out < NumOutputs {
		s.drives[out] = d
	}
	s.mu.Unlock()
}

func (s *SimPWM) SetFrequencyDiv(div byte) {
	s.mu.Lock()
	s.div = div
	s.mu.Unlock()
}

func (s *SimPWM) SetStatusLED(on bool) {
	s.mu.Lock()
	s.led = on
	s.mu.Unlock()
}

// Drive returns the last drive pair written for an output.
func (s *SimPWM) Drive(out Output) Drive {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drives[out]
}

// LED returns the last status LED level written.
func (s *SimPWM) LED() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.led
}

// FrequencyDiv returns the last PWM frequency divider written.
func (s *SimPWM) FrequencyDiv() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.div
}
