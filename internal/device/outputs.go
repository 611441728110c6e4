package device

import "github.com/picoreplayer/panelpi-go/internal/regmap"

// Output identifies one of the four actuator drive pairs.
type Output int

const (
	OutMeterLeft Output = iota
	OutMeterRight
	OutBacklight
	OutMotor
	NumOutputs
)

// Drive is one H-bridge drive pair. A and B are linear 8-bit PWM duty
// values for the two polarity lines. Both zero means coast.
type Drive struct {
	A, B byte
}

// driveRegs is the register snapshot the output mapper consumes.
type driveRegs struct {
	control       byte
	meterLeft     byte
	meterRight    byte
	meterMode     byte
	backlight     byte
	backlightMode byte
	motorSpeed    byte
	motorDir      byte
	motorMode     byte
}

// MapDrives computes the actuator drive pairs and derived status bits from
// the bank's current output registers.
func MapDrives(b *Bank, pulseLevel byte) ([NumOutputs]Drive, byte) {
	return mapOutputs(b.snapshotDrives(), pulseLevel)
}

// mapOutputs translates control/mode/value registers into the four drive
// pairs plus the derived status bits. It is a pure function recomputed every
// control-loop cycle; the status bits are never accumulated. pulseLevel is
// the current modulation level used by the backlight pulse mode.
func mapOutputs(r driveRegs, pulseLevel byte) (drives [NumOutputs]Drive, status byte) {
	if r.control&regmap.CtrlMeterEnable != 0 && r.meterMode != regmap.MeterModeOff {
		drives[OutMeterLeft] = Drive{A: r.meterLeft}
		drives[OutMeterRight] = Drive{A: r.meterRight}
		status |= regmap.StatusMeterActive
	}

	if r.control&regmap.CtrlBacklightEnable != 0 && r.backlightMode != regmap.BacklightModeOff {
		level := r.backlight
		switch r.backlightMode {
		case regmap.BacklightModeAuto:
			// Track the meters: brightness follows the louder channel.
			if status&regmap.StatusMeterActive != 0 {
				level = r.meterLeft
				if r.meterRight > level {
					level = r.meterRight
				}
			}
		case regmap.BacklightModePulse:
			level = scaleDuty(r.backlight, pulseLevel)
		}
		drives[OutBacklight] = Drive{A: level}
		status |= regmap.StatusBacklightOn
	}

	if r.control&regmap.CtrlMotorEnable != 0 && r.motorMode != regmap.MotorModeOff {
		switch r.motorDir {
		case regmap.MotorDirForward:
			drives[OutMotor] = Drive{A: r.motorSpeed}
			status |= regmap.StatusMotorRunning
		case regmap.MotorDirReverse:
			drives[OutMotor] = Drive{B: r.motorSpeed}
			status |= regmap.StatusMotorRunning
		case regmap.MotorDirBrake:
			// Short-brake: the only state where both lines are non-zero.
			drives[OutMotor] = Drive{A: 255, B: 255}
		}
		// MotorDirStop and unknown direction values coast.
	}

	return drives, status
}

// scaleDuty multiplies two 8-bit duty values, rounding to nearest.
func scaleDuty(a, b byte) byte {
	return byte((uint16(a)*uint16(b) + 127) / 255)
}

// trianglePulse computes a 0→255→0 triangle wave from a tick counter.
// period is in ticks and must be even and non-zero.
func trianglePulse(tick uint64, period uint64) byte {
	half := period / 2
	pos := tick % period
	if pos >= half {
		pos = period - pos
	}
	return byte(pos * 255 / half)
}
