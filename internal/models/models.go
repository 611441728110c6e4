// Package models defines the data structures for the panel service: the
// mirrored controller state served over the API, input mappings and the
// request bodies that update them.
package models

import "fmt"

// Meter mode names as they appear on the wire.
const (
	MeterModeNormal   = "normal"
	MeterModePeakHold = "peak_hold"
	MeterModeTest     = "test"
	MeterModeOff      = "off"
)

// Backlight mode names.
const (
	BacklightModeManual = "manual"
	BacklightModeAuto   = "auto"
	BacklightModePulse  = "pulse"
	BacklightModeOff    = "off"
)

// Tape motor direction names.
const (
	MotorDirStop    = "stop"
	MotorDirForward = "forward"
	MotorDirReverse = "reverse"
	MotorDirBrake   = "brake"
)

// Tape motor mode names.
const (
	MotorModeManual = "manual"
	MotorModeAuto   = "auto"
	MotorModeOff    = "off"
)

// Encoder button phase names.
const (
	ButtonReleased    = "released"
	ButtonPressed     = "pressed"
	ButtonHeld        = "held"
	ButtonDoubleClick = "double_click"
)

// Meters is the VU meter pair state.
type Meters struct {
	Left    int    `json:"left"`  // drive 0-255
	Right   int    `json:"right"` // drive 0-255
	Mode    string `json:"mode"`
	Enabled bool   `json:"enabled"`
}

// Backlight is the panel backlight state.
type Backlight struct {
	Level   int    `json:"level"` // brightness 0-255
	Mode    string `json:"mode"`
	Enabled bool   `json:"enabled"`
}

// Motor is the tape counter motor state.
type Motor struct {
	Speed     int    `json:"speed"` // 0-255
	Direction string `json:"direction"`
	Mode      string `json:"mode"`
	Enabled   bool   `json:"enabled"`
}

// Input is one debounced panel input with its configured action.
type Input struct {
	Channel  int    `json:"channel"` // 0-11
	Name     string `json:"name"`
	Action   string `json:"action"`
	Actuated bool   `json:"actuated"`
}

// Encoder is the rotary encoder state.
type Encoder struct {
	Position int16  `json:"position"`
	Button   string `json:"button"`
}

// DeviceInfo describes the connected panel controller.
type DeviceInfo struct {
	Connected bool   `json:"connected"`
	Transport string `json:"transport"` // "i2c" | "serial" | "mock"
	Version   string `json:"version,omitempty"`
	Status    int    `json:"status"`
	Errors    int    `json:"errors"`
}

// PanelConfig is the host-tunable controller configuration.
type PanelConfig struct {
	DebounceMs   int `json:"debounce_ms"`
	MeterFreqDiv int `json:"meter_freq_div"`
}

// Info is the service information block.
type Info struct {
	Version  string `json:"version"`
	Hostname string `json:"hostname,omitempty"`
}

// PanelState is the complete mirrored state returned by GET /api and
// published on the event bus after every change.
type PanelState struct {
	Meters    Meters      `json:"meters"`
	Backlight Backlight   `json:"backlight"`
	Motor     Motor       `json:"motor"`
	Inputs    []Input     `json:"inputs"`
	Encoder   Encoder     `json:"encoder"`
	Config    PanelConfig `json:"config"`
	Device    DeviceInfo  `json:"device"`
	Info      Info        `json:"info"`
}

// DeepCopy returns an independent copy of the state.
func (s PanelState) DeepCopy() PanelState {
	next := s
	next.Inputs = make([]Input, len(s.Inputs))
	copy(next.Inputs, s.Inputs)
	return next
}

// ValidDriveLevel reports whether v fits a drive register.
func ValidDriveLevel(v int) bool { return v >= 0 && v <= 255 }

// ValidChannel reports whether ch names a panel input.
func ValidChannel(ch int) bool { return ch >= 0 && ch < NumInputChannels }

// NumInputChannels is the number of panel inputs.
const NumInputChannels = 12

// Input action names. Actions are resolved by the input handler; "none"
// inputs only surface as events.
const (
	ActionNone       = "none"
	ActionPlayPause  = "play_pause"
	ActionPlay       = "play"
	ActionPause      = "pause"
	ActionStop       = "stop"
	ActionNext       = "next"
	ActionPrevious   = "previous"
	ActionVolumeUp   = "volume_up"
	ActionVolumeDown = "volume_down"
	ActionMute       = "mute"
)

// ValidAction reports whether name is a known input action.
func ValidAction(name string) bool {
	switch name {
	case ActionNone, ActionPlayPause, ActionPlay, ActionPause, ActionStop,
		ActionNext, ActionPrevious, ActionVolumeUp, ActionVolumeDown, ActionMute:
		return true
	}
	return false
}

// FormatVersion renders a firmware version triple as "1.0.0".
func FormatVersion(major, minor, patch int) string {
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
