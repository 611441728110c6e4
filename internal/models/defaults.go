package models

import "fmt"

// Version is the service version string.
const Version = "1.0.0"

// DefaultState returns the power-up panel state: meters on and zeroed,
// backlight at half brightness, motor stopped, the stock input mapping.
// Matches the controller's own register defaults so the mirror starts
// consistent before the first refresh.
func DefaultState() PanelState {
	return PanelState{
		Meters: Meters{
			Left:    0,
			Right:   0,
			Mode:    MeterModeNormal,
			Enabled: true,
		},
		Backlight: Backlight{
			Level:   128,
			Mode:    BacklightModeManual,
			Enabled: true,
		},
		Motor: Motor{
			Speed:     0,
			Direction: MotorDirStop,
			Mode:      MotorModeManual,
			Enabled:   false,
		},
		Inputs: DefaultInputs(),
		Encoder: Encoder{
			Position: 0,
			Button:   ButtonReleased,
		},
		Config: PanelConfig{
			DebounceMs:   50,
			MeterFreqDiv: 1,
		},
		Info: Info{Version: Version},
	}
}

// DefaultInputs returns the stock input mapping: transport controls on the
// first seven channels, the rest unassigned.
func DefaultInputs() []Input {
	inputs := []Input{
		{Channel: 0, Name: "Play/Pause", Action: ActionPlayPause},
		{Channel: 1, Name: "Stop", Action: ActionStop},
		{Channel: 2, Name: "Next Track", Action: ActionNext},
		{Channel: 3, Name: "Previous Track", Action: ActionPrevious},
		{Channel: 4, Name: "Volume Up", Action: ActionVolumeUp},
		{Channel: 5, Name: "Volume Down", Action: ActionVolumeDown},
		{Channel: 6, Name: "Mute", Action: ActionMute},
	}
	for ch := len(inputs); ch < NumInputChannels; ch++ {
		inputs = append(inputs, Input{
			Channel: ch,
			Name:    fmt.Sprintf("Input %d", ch+1),
			Action:  ActionNone,
		})
	}
	return inputs
}
