package models

import "github.com/picoreplayer/panelpi-go/internal/regmap"

// Conversions between wire names and register values. Decoding tolerates
// unknown register values by reporting the off/stop name so a firmware
// newer than the host never breaks the API.

// MeterModeCode resolves a meter mode name to its register value.
func MeterModeCode(name string) (byte, bool) {
	switch name {
	case MeterModeNormal:
		return regmap.MeterModeNormal, true
	case MeterModePeakHold:
		return regmap.MeterModePeakHold, true
	case MeterModeTest:
		return regmap.MeterModeTest, true
	case MeterModeOff:
		return regmap.MeterModeOff, true
	}
	return 0, false
}

// MeterModeName resolves a meter mode register value to its wire name.
func MeterModeName(code byte) string {
	switch code {
	case regmap.MeterModeNormal:
		return MeterModeNormal
	case regmap.MeterModePeakHold:
		return MeterModePeakHold
	case regmap.MeterModeTest:
		return MeterModeTest
	}
	return MeterModeOff
}

// BacklightModeCode resolves a backlight mode name to its register value.
func BacklightModeCode(name string) (byte, bool) {
	switch name {
	case BacklightModeManual:
		return regmap.BacklightModeManual, true
	case BacklightModeAuto:
		return regmap.BacklightModeAuto, true
	case BacklightModePulse:
		return regmap.BacklightModePulse, true
	case BacklightModeOff:
		return regmap.BacklightModeOff, true
	}
	return 0, false
}

// BacklightModeName resolves a backlight mode register value to its wire name.
func BacklightModeName(code byte) string {
	switch code {
	case regmap.BacklightModeManual:
		return BacklightModeManual
	case regmap.BacklightModeAuto:
		return BacklightModeAuto
	case regmap.BacklightModePulse:
		return BacklightModePulse
	}
	return BacklightModeOff
}

// MotorDirCode resolves a motor direction name to its register value.
func MotorDirCode(name string) (byte, bool) {
	switch name {
	case MotorDirStop:
		return regmap.MotorDirStop, true
	case MotorDirForward:
		return regmap.MotorDirForward, true
	case MotorDirReverse:
		return regmap.MotorDirReverse, true
	case MotorDirBrake:
		return regmap.MotorDirBrake, true
	}
	return 0, false
}

// MotorDirName resolves a motor direction register value to its wire name.
func MotorDirName(code byte) string {
	switch code {
	case regmap.MotorDirForward:
		return MotorDirForward
	case regmap.MotorDirReverse:
		return MotorDirReverse
	case regmap.MotorDirBrake:
		return MotorDirBrake
	}
	return MotorDirStop
}

// MotorModeCode resolves a motor mode name to its register value.
func MotorModeCode(name string) (byte, bool) {
	switch name {
	case MotorModeManual:
		return regmap.MotorModeManual, true
	case MotorModeAuto:
		return regmap.MotorModeAuto, true
	case MotorModeOff:
		return regmap.MotorModeOff, true
	}
	return 0, false
}

// MotorModeName resolves a motor mode register value to its wire name.
func MotorModeName(code byte) string {
	switch code {
	case regmap.MotorModeManual:
		return MotorModeManual
	case regmap.MotorModeAuto:
		return MotorModeAuto
	}
	return MotorModeOff
}

// ButtonName resolves a button phase register value to its wire name.
func ButtonName(code byte) string {
	switch code {
	case regmap.ButtonPressed:
		return ButtonPressed
	case regmap.ButtonHeld:
		return ButtonHeld
	case regmap.ButtonDoubleClick:
		return ButtonDoubleClick
	}
	return ButtonReleased
}

// CommandCode resolves a panel command name to its opcode.
func CommandCode(name string) (byte, bool) {
	switch name {
	case "nop":
		return regmap.CmdNop, true
	case "soft_reset":
		return regmap.CmdSoftReset, true
	case "calibrate_meter":
		return regmap.CmdCalibrateMeter, true
	case "test_meter_left":
		return regmap.CmdTestMeterLeft, true
	case "test_meter_right":
		return regmap.CmdTestMeterRight, true
	case "test_meter_both":
		return regmap.CmdTestMeterBoth, true
	case "test_backlight":
		return regmap.CmdTestBacklight, true
	case "test_motor":
		return regmap.CmdTestMotor, true
	case "test_all":
		return regmap.CmdTestAll, true
	}
	return 0, false
}
