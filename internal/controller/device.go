package controller

import (
	"context"
	"fmt"

	"github.com/picoreplayer/panelpi-go/internal/client"
	"github.com/picoreplayer/panelpi-go/internal/models"
)

// The methods in this file mirror device-originated state into the
// controller. They are driven by the input poller, not by API requests.

// NoteInputEvents records debounced input transitions reported by the poller.
func (c *Controller) NoteInputEvents(events []client.InputEvent) models.PanelState {
	return c.applyVolatile(func(s *models.PanelState) {
		for _, ev := range events {
			if ev.Channel < len(s.Inputs) {
				s.Inputs[ev.Channel].Actuated = ev.Actuated
			}
		}
	})
}

// NoteEncoder records the encoder position and button phase.
func (c *Controller) NoteEncoder(pos int16, button byte) models.PanelState {
	return c.applyVolatile(func(s *models.PanelState) {
		s.Encoder.Position = pos
		s.Encoder.Button = models.ButtonName(button)
	})
}

// NoteConnection records transport health as observed by the poller.
func (c *Controller) NoteConnection(connected bool) {
	c.mu.Lock()
	changed := c.state.Device.Connected != connected
	c.state.Device.Connected = connected
	state := c.state
	c.mu.Unlock()
	if changed {
		c.bus.Publish(state)
	}
}

// RefreshDevice reads status, errors and input levels back from the device
// and reconciles the mirror. Called periodically and after a soft reset.
func (c *Controller) RefreshDevice(ctx context.Context) error {
	status, err := c.cl.Status(ctx)
	if err != nil {
		c.NoteConnection(false)
		return fmt.Errorf("read status: %w", err)
	}
	errBits, err := c.cl.Errors(ctx)
	if err != nil {
		return fmt.Errorf("read errors: %w", err)
	}
	levels, err := c.cl.InputStates(ctx)
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}
	pos, err := c.cl.EncoderPosition(ctx)
	if err != nil {
		return fmt.Errorf("read encoder: %w", err)
	}
	button, err := c.cl.Button(ctx)
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}

	c.applyVolatile(func(s *models.PanelState) {
		s.Device.Connected = true
		s.Device.Status = int(status)
		s.Device.Errors = int(errBits)
		s.Encoder.Position = pos
		s.Encoder.Button = models.ButtonName(button)
		for ch := range s.Inputs {
			// Pull-up convention: low level means actuated.
			s.Inputs[ch].Actuated = !levels[ch]
		}
	})
	return nil
}

// SendCommand executes a panel command by wire name. A soft reset is
// followed by a full push of the host state so the device does not sit at
// factory defaults.
func (c *Controller) SendCommand(ctx context.Context, name string) (models.PanelState, *models.AppError) {
	code, ok := models.CommandCode(name)
	if !ok {
		return models.PanelState{}, models.ErrBadRequest(fmt.Sprintf("unknown command %q", name))
	}
	state, err := c.apply(func(s *models.PanelState) error {
		if err := c.cl.SendCommand(ctx, code); err != nil {
			return err
		}
		if name == "soft_reset" {
			return c.pushStateToDevice(ctx, *s)
		}
		return nil
	})
	return state, asAppError(err)
}

// ResetEncoder zeroes the encoder position on the device and in the mirror.
func (c *Controller) ResetEncoder(ctx context.Context) (models.PanelState, *models.AppError) {
	state, err := c.apply(func(s *models.PanelState) error {
		if err := c.cl.ResetEncoder(ctx); err != nil {
			return err
		}
		s.Encoder.Position = 0
		return nil
	})
	return state, asAppError(err)
}
