// Package controller implements the panel state machine: the single source
// of truth for meter, backlight, motor, input and encoder state mirrored
// between the service and the panel controller hardware.
package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/picoreplayer/panelpi-go/internal/client"
	"github.com/picoreplayer/panelpi-go/internal/config"
	"github.com/picoreplayer/panelpi-go/internal/events"
	"github.com/picoreplayer/panelpi-go/internal/models"
)

// Controller is the central state machine for the panel service.
// All state mutations go through the apply() method which ensures
// atomicity, persistence, and event publishing.
type Controller struct {
	mu    sync.RWMutex
	state models.PanelState
	cl    *client.Client
	store config.Store
	bus   *events.Bus
}

// New creates and initializes a new Controller. Loads state from the store
// and pushes it to the device so the panel matches the last saved config.
func New(cl *client.Client, store config.Store, bus *events.Bus, transport string) (*Controller, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	state.Device.Transport = transport

	c := &Controller{
		state: *state,
		cl:    cl,
		store: store,
		bus:   bus,
	}

	ctx := context.Background()
	if err := c.pushStateToDevice(ctx, c.state); err != nil {
		// Not fatal: the device may be rebooting or unplugged. The mirror
		// stays authoritative and the next successful push reconciles it.
		slog.Warn("controller: initial device sync failed", "err", err)
		c.state.Device.Connected = false
	} else {
		c.state.Device.Connected = true
	}
	if ver, err := cl.FirmwareVersion(ctx); err == nil {
		c.state.Device.Version = models.FormatVersion(ver.Major, ver.Minor, ver.Patch)
	}

	return c, nil
}

// State returns a deep copy of the current panel state.
func (c *Controller) State() models.PanelState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.DeepCopy()
}

// apply is the core mutation primitive. It:
//  1. Acquires the write lock
//  2. Makes a deep copy of current state
//  3. Calls fn to modify the copy (fn may return an error to abort)
//  4. If fn succeeds: updates state, schedules save, publishes event
func (c *Controller) apply(fn func(*models.PanelState) error) (models.PanelState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.DeepCopy()
	if err := fn(&next); err != nil {
		return models.PanelState{}, err
	}

	c.state = next
	_ = c.store.Save(&c.state) // debounced, async
	c.bus.Publish(c.state)
	return c.state, nil
}

// applyVolatile mutates state that the device originates (input levels,
// encoder position, status). Publishes but never persists: this churn has no
// business wearing out flash.
func (c *Controller) applyVolatile(fn func(*models.PanelState)) models.PanelState {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.DeepCopy()
	fn(&next)
	c.state = next
	c.bus.Publish(c.state)
	return c.state
}

// pushStateToDevice writes the complete host-owned state to the device.
// Called at startup and after a config reload or soft reset.
func (c *Controller) pushStateToDevice(ctx context.Context, state models.PanelState) error {
	if err := c.cl.SetEnables(ctx, enablesFor(state)); err != nil {
		return err
	}
	if code, ok := models.MeterModeCode(state.Meters.Mode); ok {
		if err := c.cl.SetMeterMode(ctx, code); err != nil {
			return err
		}
	}
	if err := c.cl.SetMeters(ctx, byte(state.Meters.Left), byte(state.Meters.Right)); err != nil {
		return err
	}
	if err := c.cl.SetBacklight(ctx, byte(state.Backlight.Level)); err != nil {
		return err
	}
	if code, ok := models.BacklightModeCode(state.Backlight.Mode); ok {
		if err := c.cl.SetBacklightMode(ctx, code); err != nil {
			return err
		}
	}
	dir, _ := models.MotorDirCode(state.Motor.Direction)
	if err := c.cl.SetTapeMotor(ctx, byte(state.Motor.Speed), dir); err != nil {
		return err
	}
	if code, ok := models.MotorModeCode(state.Motor.Mode); ok {
		if err := c.cl.SetMotorMode(ctx, code); err != nil {
			return err
		}
	}
	if err := c.cl.SetDebounce(ctx, byte(state.Config.DebounceMs)); err != nil {
		return err
	}
	return c.cl.SetMeterFreqDiv(ctx, byte(state.Config.MeterFreqDiv))
}

func enablesFor(state models.PanelState) client.Enables {
	return client.Enables{
		Global:    true,
		Meter:     state.Meters.Enabled,
		Backlight: state.Backlight.Enabled,
		Motor:     state.Motor.Enabled,
	}
}

// Reload re-reads the config store and pushes the loaded state to the
// device. Used by the config file watcher.
func (c *Controller) Reload(ctx context.Context) error {
	loaded, err := c.store.Load()
	if err != nil {
		return err
	}
	_, err = c.apply(func(s *models.PanelState) error {
		// Device-originated fields keep their live values.
		loaded.Encoder = s.Encoder
		loaded.Device = s.Device
		for i := range loaded.Inputs {
			if i < len(s.Inputs) {
				loaded.Inputs[i].Actuated = s.Inputs[i].Actuated
			}
		}
		*s = *loaded
		return c.pushStateToDevice(ctx, *s)
	})
	return err
}

// Client exposes the underlying device client for components that write
// directly, such as the level engine.
func (c *Controller) Client() *client.Client {
	return c.cl
}
