package input

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// ExecPlayer drives playback through an external control binary, one
// subcommand per action (e.g. "pcp play"). Fallback for players without an
// MPRIS interface.
type ExecPlayer struct {
	bin string
}

// NewExecPlayer returns a player that shells out to bin.
func NewExecPlayer(bin string) *ExecPlayer {
	return &ExecPlayer{bin: bin}
}

func (p *ExecPlayer) run(ctx context.Context, args ...string) error {
	out, err := exec.CommandContext(ctx, p.bin, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("player: %s %v: %w: %s", p.bin, args, err, out)
	}
	return nil
}

func (p *ExecPlayer) PlayPause(ctx context.Context) error { return p.run(ctx, "pause") }
func (p *ExecPlayer) Play(ctx context.Context) error      { return p.run(ctx, "play") }
func (p *ExecPlayer) Pause(ctx context.Context) error     { return p.run(ctx, "pause") }
func (p *ExecPlayer) Stop(ctx context.Context) error      { return p.run(ctx, "stop") }
func (p *ExecPlayer) Next(ctx context.Context) error      { return p.run(ctx, "next") }
func (p *ExecPlayer) Previous(ctx context.Context) error  { return p.run(ctx, "prev") }

func (p *ExecPlayer) VolumeStep(ctx context.Context, steps int) error {
	if steps == 0 {
		return nil
	}
	dir := "up"
	if steps < 0 {
		dir = "down"
		steps = -steps
	}
	return p.run(ctx, "volume", dir, strconv.Itoa(steps))
}

func (p *ExecPlayer) ToggleMute(ctx context.Context) error { return p.run(ctx, "mute") }
