// Package client provides the typed host-side view of the panel controller.
// It wraps a bus.Master with methods named after panel operations so the rest
// of the host never handles raw register addresses.
package client

import (
	"context"
	"fmt"

	"github.com/picoreplayer/panelpi-go/internal/bus"
	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// InputEvent reports one debounced input transition observed by PollInputs.
type InputEvent struct {
	Channel  int  // 0-11
	Actuated bool // true when the line is pulled low
}

// Client is the host-side panel controller client. Safe for concurrent use
// to the extent the underlying Master is; all calls are single transactions.
type Client struct {
	m bus.Master
}

// New wraps a bus master. The master must already be initialized, or
// Connect can be used to do both.
func New(m bus.Master) *Client {
	return &Client{m: m}
}

// Connect initializes the master and verifies the device identity.
func Connect(ctx context.Context, m bus.Master) (*Client, error) {
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("bus init: %w", err)
	}
	c := &Client{m: m}
	id, err := c.m.ReadReg(ctx, regmap.RegDeviceID)
	if err != nil {
		return nil, fmt.Errorf("probe device id: %w", err)
	}
	if id != regmap.DeviceID {
		return nil, fmt.Errorf("unexpected device id 0x%02X, want 0x%02X", id, regmap.DeviceID)
	}
	return c, nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.m.Close()
}

// FirmwareVersion reads the 3-part firmware version in one block transaction.
func (c *Client) FirmwareVersion(ctx context.Context) (regmap.Version, error) {
	var raw [3]byte
	if err := c.m.ReadBlock(ctx, regmap.RegVersionMajor, raw[:]); err != nil {
		return regmap.Version{}, fmt.Errorf("read version: %w", err)
	}
	return regmap.Version{Major: int(raw[0]), Minor: int(raw[1]), Patch: int(raw[2])}, nil
}

// SetMeters updates both VU meter drive levels in one transaction.
func (c *Client) SetMeters(ctx context.Context, left, right byte) error {
	return c.m.WriteBlock(ctx, regmap.RegMeterLeft, []byte{left, right})
}

// SetMeterMode sets the VU meter mode.
func (c *Client) SetMeterMode(ctx context.Context, mode byte) error {
	return c.m.WriteReg(ctx, regmap.RegMeterMode, mode)
}

// SetBacklight sets the backlight brightness.
func (c *Client) SetBacklight(ctx context.Context, level byte) error {
	return c.m.WriteReg(ctx, regmap.RegBacklight, level)
}

// SetBacklightMode sets the backlight mode.
func (c *Client) SetBacklightMode(ctx context.Context, mode byte) error {
	return c.m.WriteReg(ctx, regmap.RegBacklightMode, mode)
}

// SetTapeMotor sets the tape counter motor speed and direction together.
func (c *Client) SetTapeMotor(ctx context.Context, speed, direction byte) error {
	return c.m.WriteBlock(ctx, regmap.RegMotorSpeed, []byte{speed, direction})
}

// SetMotorMode sets the tape counter motor mode.
func (c *Client) SetMotorMode(ctx context.Context, mode byte) error {
	return c.m.WriteReg(ctx, regmap.RegMotorMode, mode)
}

// Enables describes the persistent output enable bits of the control register.
type Enables struct {
	Global    bool
	Meter     bool
	Backlight bool
	Motor     bool
}

// SetEnables rewrites the persistent control bits.
func (c *Client) SetEnables(ctx context.Context, en Enables) error {
	var ctrl byte
	if en.Global {
		ctrl |= regmap.CtrlEnable
	}
	if en.Meter {
		ctrl |= regmap.CtrlMeterEnable
	}
	if en.Backlight {
		ctrl |= regmap.CtrlBacklightEnable
	}
	if en.Motor {
		ctrl |= regmap.CtrlMotorEnable
	}
	return c.m.WriteReg(ctx, regmap.RegControl, ctrl)
}

// Enables reads back the persistent control bits.
func (c *Client) Enables(ctx context.Context) (Enables, error) {
	ctrl, err := c.m.ReadReg(ctx, regmap.RegControl)
	if err != nil {
		return Enables{}, err
	}
	return Enables{
		Global:    ctrl&regmap.CtrlEnable != 0,
		Meter:     ctrl&regmap.CtrlMeterEnable != 0,
		Backlight: ctrl&regmap.CtrlBacklightEnable != 0,
		Motor:     ctrl&regmap.CtrlMotorEnable != 0,
	}, nil
}

// ResetEncoder zeroes the encoder position and pending delta. The persistent
// control bits are preserved by read-modify-write.
func (c *Client) ResetEncoder(ctx context.Context) error {
	return c.pulseControl(ctx, regmap.CtrlResetEncoder)
}

// ClearInputs drops any latched input changed flags.
func (c *Client) ClearInputs(ctx context.Context) error {
	return c.pulseControl(ctx, regmap.CtrlClearInputs)
}

func (c *Client) pulseControl(ctx context.Context, bit byte) error {
	ctrl, err := c.m.ReadReg(ctx, regmap.RegControl)
	if err != nil {
		return err
	}
	return c.m.WriteReg(ctx, regmap.RegControl, ctrl|bit)
}

// Status reads the status register.
func (c *Client) Status(ctx context.Context) (byte, error) {
	return c.m.ReadReg(ctx, regmap.RegStatus)
}

// Errors reads the sticky error register.
func (c *Client) Errors(ctx context.Context) (byte, error) {
	return c.m.ReadReg(ctx, regmap.RegError)
}

// InputStates reads the 12 debounced input levels. Pull-up convention:
// true means the line reads high, i.e. not actuated.
func (c *Client) InputStates(ctx context.Context) ([regmap.NumInputs]bool, error) {
	var raw [2]byte
	if err := c.m.ReadBlock(ctx, regmap.RegInputStatusLow, raw[:]); err != nil {
		return [regmap.NumInputs]bool{}, err
	}
	return regmap.UnpackInputs(raw[0], raw[1]), nil
}

// PollInputs reads levels and changed flags in one block transaction and
// returns an event per channel whose changed flag was set. Reading the
// changed registers clears them on the device.
func (c *Client) PollInputs(ctx context.Context) ([]InputEvent, error) {
	var raw [4]byte
	if err := c.m.ReadBlock(ctx, regmap.RegInputStatusLow, raw[:]); err != nil {
		return nil, err
	}
	levels := regmap.UnpackInputs(raw[0], raw[1])
	changed := regmap.UnpackInputs(raw[2], raw[3])
	var events []InputEvent
	for ch := 0; ch < regmap.NumInputs; ch++ {
		if !changed[ch] {
			continue
		}
		events = append(events, InputEvent{Channel: ch, Actuated: !levels[ch]})
	}
	return events, nil
}

// EncoderPosition reads the absolute encoder position.
func (c *Client) EncoderPosition(ctx context.Context) (int16, error) {
	var raw [2]byte
	if err := c.m.ReadBlock(ctx, regmap.RegEncoderPosLow, raw[:]); err != nil {
		return 0, err
	}
	return regmap.UnpackPosition(raw[0], raw[1]), nil
}

// EncoderDelta reads and consumes the net detent count since the last read.
func (c *Client) EncoderDelta(ctx context.Context) (int8, error) {
	v, err := c.m.ReadReg(ctx, regmap.RegEncoderDelta)
	if err != nil {
		return 0, err
	}
	return int8(v), nil
}

// Button reads the encoder button phase.
func (c *Client) Button(ctx context.Context) (byte, error) {
	return c.m.ReadReg(ctx, regmap.RegEncoderButton)
}

// SetDebounce sets the input debounce interval in milliseconds.
func (c *Client) SetDebounce(ctx context.Context, ms byte) error {
	return c.m.WriteReg(ctx, regmap.RegConfigDebounce, ms)
}

// SetMeterFreqDiv sets the meter PWM frequency divider.
func (c *Client) SetMeterFreqDiv(ctx context.Context, div byte) error {
	return c.m.WriteReg(ctx, regmap.RegConfigMeterFreq, div)
}

// SendCommand writes an opcode to the command register.
func (c *Client) SendCommand(ctx context.Context, cmd byte) error {
	return c.m.WriteReg(ctx, regmap.RegCommand, cmd)
}

// SoftReset restores all registers to power-up defaults.
func (c *Client) SoftReset(ctx context.Context) error {
	return c.SendCommand(ctx, regmap.CmdSoftReset)
}
