package controller

import (
	"context"
	"fmt"

	"github.com/picoreplayer/panelpi-go/internal/models"
)

// SetMeters updates the VU meter pair from an API request.
func (c *Controller) SetMeters(ctx context.Context, upd models.MetersUpdate) (models.PanelState, *models.AppError) {
	state, err := c.apply(func(s *models.PanelState) error {
		if upd.Left != nil {
			if !models.ValidDriveLevel(*upd.Left) {
				return models.ErrBadRequest("left must be 0-255")
			}
			s.Meters.Left = *upd.Left
		}
		if upd.Right != nil {
			if !models.ValidDriveLevel(*upd.Right) {
				return models.ErrBadRequest("right must be 0-255")
			}
			s.Meters.Right = *upd.Right
		}
		if upd.Mode != nil {
			if _, ok := models.MeterModeCode(*upd.Mode); !ok {
				return models.ErrBadRequest(fmt.Sprintf("unknown meter mode %q", *upd.Mode))
			}
			s.Meters.Mode = *upd.Mode
		}
		if upd.Enabled != nil {
			s.Meters.Enabled = *upd.Enabled
		}

		if upd.Enabled != nil {
			if err := c.cl.SetEnables(ctx, enablesFor(*s)); err != nil {
				return err
			}
		}
		if upd.Mode != nil {
			code, _ := models.MeterModeCode(s.Meters.Mode)
			if err := c.cl.SetMeterMode(ctx, code); err != nil {
				return err
			}
		}
		if upd.Left != nil || upd.Right != nil {
			if err := c.cl.SetMeters(ctx, byte(s.Meters.Left), byte(s.Meters.Right)); err != nil {
				return err
			}
		}
		return nil
	})
	return state, asAppError(err)
}

// SetBacklight updates the backlight from an API request.
func (c *Controller) SetBacklight(ctx context.Context, upd models.BacklightUpdate) (models.PanelState, *models.AppError) {
	state, err := c.apply(func(s *models.PanelState) error {
		if upd.Level != nil {
			if !models.ValidDriveLevel(*upd.Level) {
				return models.ErrBadRequest("level must be 0-255")
			}
			s.Backlight.Level = *upd.Level
		}
		if upd.Mode != nil {
			if _, ok := models.BacklightModeCode(*upd.Mode); !ok {
				return models.ErrBadRequest(fmt.Sprintf("unknown backlight mode %q", *upd.Mode))
			}
			s.Backlight.Mode = *upd.Mode
		}
		if upd.Enabled != nil {
			s.Backlight.Enabled = *upd.Enabled
		}

		if upd.Enabled != nil {
			if err := c.cl.SetEnables(ctx, enablesFor(*s)); err != nil {
				return err
			}
		}
		if upd.Level != nil {
			if err := c.cl.SetBacklight(ctx, byte(s.Backlight.Level)); err != nil {
				return err
			}
		}
		if upd.Mode != nil {
			code, _ := models.BacklightModeCode(s.Backlight.Mode)
			if err := c.cl.SetBacklightMode(ctx, code); err != nil {
				return err
			}
		}
		return nil
	})
	return state, asAppError(err)
}

// SetMotor updates the tape counter motor from an API request.
func (c *Controller) SetMotor(ctx context.Context, upd models.MotorUpdate) (models.PanelState, *models.AppError) {
	state, err := c.apply(func(s *models.PanelState) error {
		if upd.Speed != nil {
			if !models.ValidDriveLevel(*upd.Speed) {
				return models.ErrBadRequest("speed must be 0-255")
			}
			s.Motor.Speed = *upd.Speed
		}
		if upd.Direction != nil {
			if _, ok := models.MotorDirCode(*upd.Direction); !ok {
				return models.ErrBadRequest(fmt.Sprintf("unknown motor direction %q", *upd.Direction))
			}
			s.Motor.Direction = *upd.Direction
		}
		if upd.Mode != nil {
			if _, ok := models.MotorModeCode(*upd.Mode); !ok {
				return models.ErrBadRequest(fmt.Sprintf("unknown motor mode %q", *upd.Mode))
			}
			s.Motor.Mode = *upd.Mode
		}
		if upd.Enabled != nil {
			s.Motor.Enabled = *upd.Enabled
		}

		if upd.Enabled != nil {
			if err := c.cl.SetEnables(ctx, enablesFor(*s)); err != nil {
				return err
			}
		}
		if upd.Speed != nil || upd.Direction != nil {
			dir, _ := models.MotorDirCode(s.Motor.Direction)
			if err := c.cl.SetTapeMotor(ctx, byte(s.Motor.Speed), dir); err != nil {
				return err
			}
		}
		if upd.Mode != nil {
			code, _ := models.MotorModeCode(s.Motor.Mode)
			if err := c.cl.SetMotorMode(ctx, code); err != nil {
				return err
			}
		}
		return nil
	})
	return state, asAppError(err)
}

// asAppError normalizes apply() errors for handler responses.
func asAppError(err error) *models.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*models.AppError); ok {
		return appErr
	}
	return models.ErrInternal(err.Error())
}
