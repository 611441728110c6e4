// Package input polls the panel controller for button, switch and encoder
// activity and turns it into playback control: transport actions on the
// mapped inputs, volume on the encoder.
package input

import "context"

// Player is the playback surface the input handler drives. Implementations
// must tolerate the player being absent; the panel keeps working even when
// nothing is listening.
type Player interface {
	PlayPause(ctx context.Context) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	// VolumeStep adjusts volume by steps, each nominally 5% of full scale.
	// Negative steps lower the volume.
	VolumeStep(ctx context.Context, steps int) error

	// ToggleMute flips the mute state.
	ToggleMute(ctx context.Context) error
}

// NullPlayer discards all playback commands. Used when no media player is
// reachable and in tests that only care about state mirroring.
type NullPlayer struct{}

func (NullPlayer) PlayPause(context.Context) error       { return nil }
func (NullPlayer) Play(context.Context) error            { return nil }
func (NullPlayer) Pause(context.Context) error           { return nil }
func (NullPlayer) Stop(context.Context) error            { return nil }
func (NullPlayer) Next(context.Context) error            { return nil }
func (NullPlayer) Previous(context.Context) error        { return nil }
func (NullPlayer) VolumeStep(context.Context, int) error { return nil }
func (NullPlayer) ToggleMute(context.Context) error      { return nil }
