package models

// MetersUpdate is the PATCH body for the VU meter pair. Nil fields are
// left unchanged.
type MetersUpdate struct {
	Left    *int    `json:"left,omitempty"`
	Right   *int    `json:"right,omitempty"`
	Mode    *string `json:"mode,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// BacklightUpdate is the PATCH body for the backlight.
type BacklightUpdate struct {
	Level   *int    `json:"level,omitempty"`
	Mode    *string `json:"mode,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// MotorUpdate is the PATCH body for the tape counter motor.
type MotorUpdate struct {
	Speed     *int    `json:"speed,omitempty"`
	Direction *string `json:"direction,omitempty"`
	Mode      *string `json:"mode,omitempty"`
	Enabled   *bool   `json:"enabled,omitempty"`
}

// InputUpdate is the PATCH body for one input's name and action mapping.
type InputUpdate struct {
	Name   *string `json:"name,omitempty"`
	Action *string `json:"action,omitempty"`
}

// ConfigUpdate is the PATCH body for controller tunables.
type ConfigUpdate struct {
	DebounceMs   *int `json:"debounce_ms,omitempty"`
	MeterFreqDiv *int `json:"meter_freq_div,omitempty"`
}

// CommandRequest is the POST body for sending a panel command by name.
type CommandRequest struct {
	Command string `json:"command"`
}
