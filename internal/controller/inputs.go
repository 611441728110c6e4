package controller

import (
	"context"
	"fmt"

	"github.com/picoreplayer/panelpi-go/internal/models"
)

// GetInputs returns the input mappings with their live levels.
func (c *Controller) GetInputs() []models.Input {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]models.Input, len(c.state.Inputs))
	copy(result, c.state.Inputs)
	return result
}

// SetInput updates one input's name and action mapping.
func (c *Controller) SetInput(ctx context.Context, channel int, upd models.InputUpdate) (models.PanelState, *models.AppError) {
	if !models.ValidChannel(channel) {
		return models.PanelState{}, models.ErrBadRequest(
			fmt.Sprintf("channel must be 0-%d", models.NumInputChannels-1))
	}
	state, err := c.apply(func(s *models.PanelState) error {
		in := &s.Inputs[channel]
		if upd.Name != nil {
			if *upd.Name == "" {
				return models.ErrBadRequest("name must not be empty")
			}
			in.Name = *upd.Name
		}
		if upd.Action != nil {
			if !models.ValidAction(*upd.Action) {
				return models.ErrBadRequest(fmt.Sprintf("unknown action %q", *upd.Action))
			}
			in.Action = *upd.Action
		}
		return nil
	})
	return state, asAppError(err)
}

// SetConfig updates the controller tunables and pushes them to the device.
func (c *Controller) SetConfig(ctx context.Context, upd models.ConfigUpdate) (models.PanelState, *models.AppError) {
	state, err := c.apply(func(s *models.PanelState) error {
		if upd.DebounceMs != nil {
			if *upd.DebounceMs < 1 || *upd.DebounceMs > 255 {
				return models.ErrBadRequest("debounce_ms must be 1-255")
			}
			s.Config.DebounceMs = *upd.DebounceMs
			if err := c.cl.SetDebounce(ctx, byte(s.Config.DebounceMs)); err != nil {
				return err
			}
		}
		if upd.MeterFreqDiv != nil {
			if *upd.MeterFreqDiv < 1 || *upd.MeterFreqDiv > 255 {
				return models.ErrBadRequest("meter_freq_div must be 1-255")
			}
			s.Config.MeterFreqDiv = *upd.MeterFreqDiv
			if err := c.cl.SetMeterFreqDiv(ctx, byte(s.Config.MeterFreqDiv)); err != nil {
				return err
			}
		}
		return nil
	})
	return state, asAppError(err)
}

// ActionFor returns the configured action for an input channel, or
// ActionNone when the channel is out of range.
func (c *Controller) ActionFor(channel int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !models.ValidChannel(channel) || channel >= len(c.state.Inputs) {
		return models.ActionNone
	}
	return c.state.Inputs[channel].Action
}
