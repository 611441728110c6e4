// Package regmap defines the register map of the panel controller: addresses,
// bit flags, mode enums, command opcodes, and the pack/unpack helpers shared
// by the device core and the host-side client.
package regmap

// Register is a bus register address.
type Register = byte

// Register addresses. The bus protocol is byte addressed; a transaction names
// a start address and the address auto-increments per byte transferred.
const (
	RegDeviceID     Register = 0x00 // Device identity byte (R)
	RegVersionMajor Register = 0x01 // Firmware version major (R)
	RegVersionMinor Register = 0x02 // Firmware version minor (R)
	RegVersionPatch Register = 0x03 // Firmware version patch (R)

	RegControl Register = 0x10 // Control bits (R/W, some bits self-clearing)
	RegStatus  Register = 0x11 // Status bits (R)
	RegError   Register = 0x12 // Sticky error bits (R)

	RegMeterLeft  Register = 0x20 // Left VU meter drive 0-255 (R/W)
	RegMeterRight Register = 0x21 // Right VU meter drive 0-255 (R/W)
	RegMeterMode  Register = 0x22 // VU meter mode (R/W)

	RegBacklight     Register = 0x30 // Backlight brightness 0-255 (R/W)
	RegBacklightMode Register = 0x31 // Backlight mode (R/W)

	RegMotorSpeed     Register = 0x40 // Tape counter motor speed 0-255 (R/W)
	RegMotorDirection Register = 0x41 // Tape counter motor direction (R/W)
	RegMotorMode      Register = 0x42 // Tape counter motor mode (R/W)

	RegInputStatusLow  Register = 0x50 // Inputs 1-8 debounced state (R)
	RegInputStatusHigh Register = 0x51 // Inputs 9-12 debounced state (R)
	RegInputChangedLow  Register = 0x52 // Inputs 1-8 changed flags (R, clear on read)
	RegInputChangedHigh Register = 0x53 // Inputs 9-12 changed flags (R, clear on read)

	RegEncoderPosLow  Register = 0x60 // Encoder position low byte (R)
	RegEncoderPosHigh Register = 0x61 // Encoder position high byte (R)
	RegEncoderDelta   Register = 0x62 // Signed delta since last read (R, clear on read)
	RegEncoderButton  Register = 0x63 // Encoder button phase (R)

	RegConfigMeterFreq Register = 0x70 // Meter PWM frequency divider (R/W)
	RegConfigDebounce  Register = 0x71 // Input debounce interval, ms (R/W)
	RegConfigOptions   Register = 0x72 // Option bits (R/W)

	RegCommand Register = 0xF0 // Command opcode (W)
)

// BankSize is the size of the addressable register window. The command
// register sits outside the window and is dispatched separately.
const BankSize = 0x80

// Control register bits (RegControl). ResetEncoder and ClearInputs are
// one-shot commands: they execute on write and read back as zero.
const (
	CtrlEnable          byte = 1 << 0
	CtrlResetEncoder    byte = 1 << 1
	CtrlClearInputs     byte = 1 << 2
	CtrlMeterEnable     byte = 1 << 3
	CtrlBacklightEnable byte = 1 << 4
	CtrlMotorEnable     byte = 1 << 5
)

// SelfClearing is the mask of control bits that never persist in the bank.
const SelfClearing = CtrlResetEncoder | CtrlClearInputs

// Status register bits (RegStatus).
const (
	StatusReady          byte = 1 << 0
	StatusError          byte = 1 << 1
	StatusMeterActive    byte = 1 << 2
	StatusBacklightOn    byte = 1 << 3
	StatusMotorRunning   byte = 1 << 4
	StatusInputChanged   byte = 1 << 5
	StatusEncoderChanged byte = 1 << 6
	StatusButtonPressed  byte = 1 << 7
)

// Error register bits (RegError). Sticky until soft reset.
const (
	ErrBusOverflow byte = 1 << 0
	ErrInvalidReg  byte = 1 << 1
	ErrInvalidCmd  byte = 1 << 2
	ErrPWMFault    byte = 1 << 3
	ErrWatchdog    byte = 1 << 4
)

// VU meter modes (RegMeterMode).
const (
	MeterModeNormal   byte = 0x00
	MeterModePeakHold byte = 0x01
	MeterModeTest     byte = 0x02
	MeterModeOff      byte = 0xFF
)

// Backlight modes (RegBacklightMode).
const (
	BacklightModeManual byte = 0x00
	BacklightModeAuto   byte = 0x01
	BacklightModePulse  byte = 0x02
	BacklightModeOff    byte = 0xFF
)

// Tape motor directions (RegMotorDirection).
const (
	MotorDirStop    byte = 0x00
	MotorDirForward byte = 0x01
	MotorDirReverse byte = 0x02
	MotorDirBrake   byte = 0x03
)

// Tape motor modes (RegMotorMode).
const (
	MotorModeManual byte = 0x00
	MotorModeAuto   byte = 0x01
	MotorModeOff    byte = 0xFF
)

// Encoder button phases (RegEncoderButton).
const (
	ButtonReleased    byte = 0x00
	ButtonPressed     byte = 0x01
	ButtonHeld        byte = 0x02
	ButtonDoubleClick byte = 0x03
)

// Command opcodes (RegCommand).
const (
	CmdNop            byte = 0x00
	CmdSoftReset      byte = 0x01
	CmdCalibrateMeter byte = 0x10
	CmdTestMeterLeft  byte = 0x11
	CmdTestMeterRight byte = 0x12
	CmdTestMeterBoth  byte = 0x13
	CmdTestBacklight  byte = 0x20
	CmdTestMotor      byte = 0x30
	CmdTestAll        byte = 0xFF
)

// Device identity.
const (
	DeviceID     byte = 0x52 // 'R'
	VersionMajor byte = 1
	VersionMinor byte = 0
	VersionPatch byte = 0
)

// Default register values applied at power-up and on soft reset.
const (
	DefaultControl     = CtrlEnable
	DefaultBacklight   = 128
	DefaultDebounceMs  = 50
	DefaultMeterFreq   = 1
	DefaultInputsLow   = 0xFF // pull-up convention: 1 = not actuated
	DefaultInputsHigh  = 0x0F
)

// NumInputs is the number of debounced digital input channels.
const NumInputs = 12

// PackInputs packs 12 logical input levels into the two status register
// bytes. Channel 0 maps to bit 0 of the low byte; channels 8-11 occupy the
// low nibble of the high byte.
func PackInputs(levels [NumInputs]bool) (low, high byte) {
	for i, lv := range levels {
		if !lv {
			continue
		}
		if i < 8 {
			low |= 1 << uint(i)
		} else {
			high |= 1 << uint(i-8)
		}
	}
	return
}

// UnpackInputs expands the two input status bytes into 12 logical levels.
func UnpackInputs(low, high byte) [NumInputs]bool {
	var levels [NumInputs]bool
	for i := 0; i < 8; i++ {
		levels[i] = low&(1<<uint(i)) != 0
	}
	for i := 8; i < NumInputs; i++ {
		levels[i] = high&(1<<uint(i-8)) != 0
	}
	return levels
}

// PackPosition splits a signed 16-bit encoder position into the two
// position register bytes (two's complement, little-endian).
func PackPosition(pos int16) (low, high byte) {
	return byte(pos), byte(uint16(pos) >> 8)
}

// UnpackPosition reassembles an encoder position from its register bytes.
func UnpackPosition(low, high byte) int16 {
	return int16(uint16(low) | uint16(high)<<8)
}

// Version holds a decoded 3-part firmware version.
type Version struct {
	Major int
	Minor int
	Patch int
}
