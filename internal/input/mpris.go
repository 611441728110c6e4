package input

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisPrefix      = "org.mpris.MediaPlayer2."

	volumeStepSize = 0.05
)

// MPRISPlayer drives a media player over the MPRIS D-Bus interface. The
// connection is established lazily and rebuilt after failures, so the panel
// does not care whether the player starts before or after it.
type MPRISPlayer struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	busName string // explicit service name, or "" for auto-discovery

	lastVolume float64 // restore level for mute toggling
}

// NewMPRISPlayer returns a player bound to the named MPRIS service, e.g.
// "squeezelite". An empty name selects the first MPRIS player on the bus.
func NewMPRISPlayer(name string) *MPRISPlayer {
	p := &MPRISPlayer{}
	if name != "" {
		if !strings.HasPrefix(name, mprisPrefix) {
			name = mprisPrefix + name
		}
		p.busName = name
	}
	return p
}

func (p *MPRISPlayer) object() (dbus.BusObject, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, fmt.Errorf("connect session bus: %w", err)
		}
		p.conn = conn
	}

	name := p.busName
	if name == "" {
		found, err := p.discoverLocked()
		if err != nil {
			return nil, err
		}
		name = found
	}
	return p.conn.Object(name, mprisPath), nil
}

// discoverLocked finds the first MPRIS service currently on the bus.
func (p *MPRISPlayer) discoverLocked() (string, error) {
	var names []string
	err := p.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return "", fmt.Errorf("list bus names: %w", err)
	}
	for _, n := range names {
		if strings.HasPrefix(n, mprisPrefix) {
			return n, nil
		}
	}
	return "", fmt.Errorf("no MPRIS player on the bus")
}

// call invokes a Player method, dropping the connection on failure so the
// next call reconnects.
func (p *MPRISPlayer) call(ctx context.Context, method string, args ...interface{}) error {
	obj, err := p.object()
	if err != nil {
		return err
	}
	c := obj.CallWithContext(ctx, mprisPlayerIface+"."+method, 0, args...)
	if c.Err != nil {
		p.dropConn()
		return fmt.Errorf("%s: %w", method, c.Err)
	}
	return nil
}

func (p *MPRISPlayer) dropConn() {
	p.mu.Lock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.mu.Unlock()
}

// Close releases the bus connection.
func (p *MPRISPlayer) Close() {
	p.dropConn()
}

func (p *MPRISPlayer) PlayPause(ctx context.Context) error { return p.call(ctx, "PlayPause") }
func (p *MPRISPlayer) Play(ctx context.Context) error      { return p.call(ctx, "Play") }
func (p *MPRISPlayer) Pause(ctx context.Context) error     { return p.call(ctx, "Pause") }
func (p *MPRISPlayer) Stop(ctx context.Context) error      { return p.call(ctx, "Stop") }
func (p *MPRISPlayer) Next(ctx context.Context) error      { return p.call(ctx, "Next") }
func (p *MPRISPlayer) Previous(ctx context.Context) error  { return p.call(ctx, "Previous") }

// VolumeStep reads the Volume property, offsets it and writes it back.
// MPRIS volume is linear 0.0-1.0.
func (p *MPRISPlayer) VolumeStep(ctx context.Context, steps int) error {
	obj, err := p.object()
	if err != nil {
		return err
	}
	variant, err := obj.GetProperty(mprisPlayerIface + ".Volume")
	if err != nil {
		p.dropConn()
		return fmt.Errorf("get volume: %w", err)
	}
	vol, ok := variant.Value().(float64)
	if !ok {
		return fmt.Errorf("unexpected volume type %T", variant.Value())
	}
	vol += float64(steps) * volumeStepSize
	if vol < 0 {
		vol = 0
	}
	if vol > 1 {
		vol = 1
	}
	if err := obj.SetProperty(mprisPlayerIface+".Volume", dbus.MakeVariant(vol)); err != nil {
		p.dropConn()
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

// ToggleMute swings the volume between zero and the last non-zero value.
// MPRIS has no mute of its own.
func (p *MPRISPlayer) ToggleMute(ctx context.Context) error {
	obj, err := p.object()
	if err != nil {
		return err
	}
	variant, err := obj.GetProperty(mprisPlayerIface + ".Volume")
	if err != nil {
		p.dropConn()
		return fmt.Errorf("get volume: %w", err)
	}
	vol, _ := variant.Value().(float64)

	p.mu.Lock()
	var next float64
	if vol > 0 {
		p.lastVolume = vol
		next = 0
	} else if p.lastVolume > 0 {
		next = p.lastVolume
	} else {
		next = 0.5
	}
	p.mu.Unlock()
	if err := obj.SetProperty(mprisPlayerIface+".Volume", dbus.MakeVariant(next)); err != nil {
		p.dropConn()
		return fmt.Errorf("set volume: %w", err)
	}
	slog.Debug("input: mute toggled", "volume", next)
	return nil
}
