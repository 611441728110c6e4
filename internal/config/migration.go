package config

import (
	"log/slog"

	"github.com/picoreplayer/panelpi-go/internal/models"
)

// migrateState repairs a loaded state in place: older or hand-edited config
// files get missing inputs filled in and out-of-range values clamped rather
// than rejected.
func migrateState(state *models.PanelState) {
	// Exactly one entry per channel, in channel order.
	inputs := make([]models.Input, models.NumInputChannels)
	seen := make([]bool, models.NumInputChannels)
	defaults := models.DefaultInputs()
	for _, in := range state.Inputs {
		if !models.ValidChannel(in.Channel) {
			slog.Warn("config: dropping input with invalid channel", "channel", in.Channel)
			continue
		}
		if seen[in.Channel] {
			slog.Warn("config: dropping duplicate input mapping", "channel", in.Channel)
			continue
		}
		seen[in.Channel] = true
		inputs[in.Channel] = in
	}
	for ch := range inputs {
		if !seen[ch] {
			inputs[ch] = defaults[ch]
		}
		if inputs[ch].Name == "" {
			inputs[ch].Name = defaults[ch].Name
		}
		if !models.ValidAction(inputs[ch].Action) {
			slog.Warn("config: unknown input action, disabling",
				"channel", ch, "action", inputs[ch].Action)
			inputs[ch].Action = models.ActionNone
		}
	}
	state.Inputs = inputs

	clampDrive := func(name string, v *int) {
		if *v < 0 || *v > 255 {
			slog.Warn("config: clamping drive level", "field", name, "value", *v)
			if *v < 0 {
				*v = 0
			} else {
				*v = 255
			}
		}
	}
	clampDrive("meters.left", &state.Meters.Left)
	clampDrive("meters.right", &state.Meters.Right)
	clampDrive("backlight.level", &state.Backlight.Level)
	clampDrive("motor.speed", &state.Motor.Speed)

	if _, ok := models.MeterModeCode(state.Meters.Mode); !ok {
		state.Meters.Mode = models.MeterModeNormal
	}
	if _, ok := models.BacklightModeCode(state.Backlight.Mode); !ok {
		state.Backlight.Mode = models.BacklightModeManual
	}
	if _, ok := models.MotorDirCode(state.Motor.Direction); !ok {
		state.Motor.Direction = models.MotorDirStop
	}
	if _, ok := models.MotorModeCode(state.Motor.Mode); !ok {
		state.Motor.Mode = models.MotorModeManual
	}

	if state.Config.DebounceMs < 1 || state.Config.DebounceMs > 255 {
		state.Config.DebounceMs = 50
	}
	if state.Config.MeterFreqDiv < 1 || state.Config.MeterFreqDiv > 255 {
		state.Config.MeterFreqDiv = 1
	}

	state.Info.Version = models.Version
}
