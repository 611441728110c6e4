package device

import (
	"sync"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// access classifies a register address for the protocol dispatcher.
type access uint8

const (
	accReserved access = iota // padding between slots: writes ignored, reads 0
	accRO                     // writable only by the device side
	accRW                     // writable over the bus
)

// accessMap resolves every in-window address to exactly one class. Built
// once; bounds and access-mode enforcement happen here, centrally, rather
// than being a property of raw memory layout.
var accessMap = buildAccessMap()

func buildAccessMap() [regmap.BankSize]access {
	var m [regmap.BankSize]access
	ro := func(from, to regmap.Register) {
		for a := int(from); a <= int(to); a++ {
			m[a] = accRO
		}
	}
	rw := func(from, to regmap.Register) {
		for a := int(from); a <= int(to); a++ {
			m[a] = accRW
		}
	}
	ro(regmap.RegDeviceID, regmap.RegVersionPatch)
	rw(regmap.RegControl, regmap.RegControl)
	ro(regmap.RegStatus, regmap.RegError)
	rw(regmap.RegMeterLeft, regmap.RegMeterMode)
	rw(regmap.RegBacklight, regmap.RegBacklightMode)
	rw(regmap.RegMotorSpeed, regmap.RegMotorMode)
	ro(regmap.RegInputStatusLow, regmap.RegInputChangedHigh)
	ro(regmap.RegEncoderPosLow, regmap.RegEncoderButton)
	rw(regmap.RegConfigMeterFreq, regmap.RegConfigOptions)
	return m
}

// Bank is the register bank plus the read/write protocol contract over it.
// It is the single source of truth for all device state and the only
// resource shared between the control loop, the edge-triggered decoder and
// the bus transaction handler; one mutex serializes all of them. Operations
// are bounded and allocation-free so the bus handler never overruns the
// transport's per-byte timing window.
type Bank struct {
	mu   sync.Mutex
	regs [regmap.BankSize]byte
	enc  *Encoder

	// onAction receives recognized action commands (calibration and test
	// patterns). Invoked with the bank lock held; implementations must only
	// record the request.
	onAction func(cmd byte)
}

// NewBank returns a bank initialized to power-up defaults. enc is reset
// atomically when the reset-encoder control bit or a soft reset executes.
func NewBank(enc *Encoder) *Bank {
	b := &Bank{enc: enc}
	b.mu.Lock()
	b.resetLocked()
	b.mu.Unlock()
	return b
}

// SetActionHook registers the callback for calibration and test-pattern
// commands. The soft-reset and no-op opcodes are handled internally.
func (b *Bank) SetActionHook(fn func(cmd byte)) {
	b.mu.Lock()
	b.onAction = fn
	b.mu.Unlock()
}

// resetLocked reinitializes every register to its documented default.
// All error and status bits clear except ready.
func (b *Bank) resetLocked() {
	for i := range b.regs {
		b.regs[i] = 0
	}
	b.regs[regmap.RegDeviceID] = regmap.DeviceID
	b.regs[regmap.RegVersionMajor] = regmap.VersionMajor
	b.regs[regmap.RegVersionMinor] = regmap.VersionMinor
	b.regs[regmap.RegVersionPatch] = regmap.VersionPatch
	b.regs[regmap.RegControl] = regmap.DefaultControl
	b.regs[regmap.RegStatus] = regmap.StatusReady
	b.regs[regmap.RegMeterMode] = regmap.MeterModeNormal
	b.regs[regmap.RegBacklight] = regmap.DefaultBacklight
	b.regs[regmap.RegBacklightMode] = regmap.BacklightModeManual
	b.regs[regmap.RegMotorDirection] = regmap.MotorDirStop
	b.regs[regmap.RegMotorMode] = regmap.MotorModeManual
	b.regs[regmap.RegInputStatusLow] = regmap.DefaultInputsLow
	b.regs[regmap.RegInputStatusHigh] = regmap.DefaultInputsHigh
	b.regs[regmap.RegConfigMeterFreq] = regmap.DefaultMeterFreq
	b.regs[regmap.RegConfigDebounce] = regmap.DefaultDebounceMs
	if b.enc != nil {
		b.enc.Reset()
	}
}

// setErrorLocked records a sticky error bit and raises the aggregate status
// error flag. Protocol errors are recorded, never fatal.
func (b *Bank) setErrorLocked(bit byte) {
	b.regs[regmap.RegError] |= bit
	b.regs[regmap.RegStatus] |= regmap.StatusError
}

// Read implements the bus read contract for one address, including the
// documented clear-on-read side effects.
func (b *Bank) Read(addr byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readLocked(addr)
}

func (b *Bank) readLocked(addr byte) byte {
	if int(addr) >= len(b.regs) {
		b.setErrorLocked(regmap.ErrInvalidReg)
		return 0xFF
	}
	if accessMap[addr] == accReserved {
		return 0
	}

	switch addr {
	case regmap.RegInputChangedLow:
		val := b.regs[addr]
		b.regs[addr] = 0
		b.dropInputChangedLocked()
		return val
	case regmap.RegInputChangedHigh:
		val := b.regs[addr]
		b.regs[addr] = 0
		b.dropInputChangedLocked()
		return val
	case regmap.RegEncoderDelta:
		// The delta accumulator is drained here, atomically with clearing
		// the encoder-changed status bit.
		b.regs[regmap.RegStatus] &^= regmap.StatusEncoderChanged
		return byte(b.enc.TakeDelta())
	}
	return b.regs[addr]
}

// dropInputChangedLocked clears the aggregate input-changed status bit once
// both changed-flag registers are simultaneously zero.
func (b *Bank) dropInputChangedLocked() {
	if b.regs[regmap.RegInputChangedLow] == 0 && b.regs[regmap.RegInputChangedHigh] == 0 {
		b.regs[regmap.RegStatus] &^= regmap.StatusInputChanged
	}
}

// Write implements the bus write contract for one address. Bounds and
// access violations fail silently from the bus's perspective: they set the
// invalid-register error bit and leave the bank untouched. Returns false
// when the write was rejected.
func (b *Bank) Write(addr, val byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(addr, val)
}

func (b *Bank) writeLocked(addr, val byte) bool {
	if addr == regmap.RegCommand {
		return b.commandLocked(val)
	}
	if int(addr) >= len(b.regs) {
		b.setErrorLocked(regmap.ErrInvalidReg)
		return false
	}
	switch accessMap[addr] {
	case accReserved:
		return true // padding: ignored
	case accRO:
		b.setErrorLocked(regmap.ErrInvalidReg)
		return false
	}

	if addr == regmap.RegControl {
		b.writeControlLocked(val)
		return true
	}
	b.regs[addr] = val
	return true
}

// writeControlLocked stores the persistent control bits and executes the
// one-shot command bits. Command bits are masked to zero before storing so
// they are never re-executed.
func (b *Bank) writeControlLocked(val byte) {
	b.regs[regmap.RegControl] = val &^ regmap.SelfClearing

	if val&regmap.CtrlResetEncoder != 0 {
		// Position and delta zero atomically with respect to the decoder.
		b.enc.Reset()
		b.regs[regmap.RegEncoderPosLow] = 0
		b.regs[regmap.RegEncoderPosHigh] = 0
		b.regs[regmap.RegStatus] &^= regmap.StatusEncoderChanged
	}
	if val&regmap.CtrlClearInputs != 0 {
		b.regs[regmap.RegInputChangedLow] = 0
		b.regs[regmap.RegInputChangedHigh] = 0
		b.regs[regmap.RegStatus] &^= regmap.StatusInputChanged
	}
}

// commandLocked executes one command-register opcode. Unknown opcodes set
// the invalid-command error bit and are otherwise a no-op.
func (b *Bank) commandLocked(cmd byte) bool {
	switch cmd {
	case regmap.CmdNop:
	case regmap.CmdSoftReset:
		b.resetLocked()
	case regmap.CmdCalibrateMeter,
		regmap.CmdTestMeterLeft,
		regmap.CmdTestMeterRight,
		regmap.CmdTestMeterBoth,
		regmap.CmdTestBacklight,
		regmap.CmdTestMotor,
		regmap.CmdTestAll:
		if b.onAction != nil {
			b.onAction(cmd)
		}
	default:
		b.setErrorLocked(regmap.ErrInvalidCmd)
		return false
	}
	return true
}

// The methods below are the device-side writers: the control loop publishes
// input, encoder and status state through them. They bypass the bus access
// checks but share the same critical section.

// PublishInputs stores the debounced input levels and ORs any new change
// flags, raising the aggregate input-changed status bit when a flag is set.
func (b *Bank) PublishInputs(low, high, changedLow, changedHigh byte) {
	b.mu.Lock()
	b.regs[regmap.RegInputStatusLow] = low
	b.regs[regmap.RegInputStatusHigh] = high
	if changedLow != 0 || changedHigh != 0 {
		b.regs[regmap.RegInputChangedLow] |= changedLow
		b.regs[regmap.RegInputChangedHigh] |= changedHigh
		b.regs[regmap.RegStatus] |= regmap.StatusInputChanged
	}
	b.mu.Unlock()
}

// PublishEncoder stores the position snapshot and raises the encoder-changed
// status bit when unread steps are pending.
func (b *Bank) PublishEncoder(pos int16, pending bool) {
	low, high := regmap.PackPosition(pos)
	b.mu.Lock()
	b.regs[regmap.RegEncoderPosLow] = low
	b.regs[regmap.RegEncoderPosHigh] = high
	if pending {
		b.regs[regmap.RegStatus] |= regmap.StatusEncoderChanged
	}
	b.mu.Unlock()
}

// PublishButton stores the button phase and mirrors it into the
// button-pressed status bit.
func (b *Bank) PublishButton(phase byte) {
	b.mu.Lock()
	b.regs[regmap.RegEncoderButton] = phase
	if phase != regmap.ButtonReleased {
		b.regs[regmap.RegStatus] |= regmap.StatusButtonPressed
	} else {
		b.regs[regmap.RegStatus] &^= regmap.StatusButtonPressed
	}
	b.mu.Unlock()
}

// PublishDriveStatus replaces the derived output status bits (meter-active,
// backlight-on, motor-running), which are recomputed every cycle.
func (b *Bank) PublishDriveStatus(bits byte) {
	const derived = regmap.StatusMeterActive | regmap.StatusBacklightOn | regmap.StatusMotorRunning
	b.mu.Lock()
	b.regs[regmap.RegStatus] = b.regs[regmap.RegStatus]&^derived | bits&derived
	b.mu.Unlock()
}

// snapshotDrives snapshots the registers the output mapper consumes.
func (b *Bank) snapshotDrives() driveRegs {
	b.mu.Lock()
	defer b.mu.Unlock()
	return driveRegs{
		control:       b.regs[regmap.RegControl],
		meterLeft:     b.regs[regmap.RegMeterLeft],
		meterRight:    b.regs[regmap.RegMeterRight],
		meterMode:     b.regs[regmap.RegMeterMode],
		backlight:     b.regs[regmap.RegBacklight],
		backlightMode: b.regs[regmap.RegBacklightMode],
		motorSpeed:    b.regs[regmap.RegMotorSpeed],
		motorDir:      b.regs[regmap.RegMotorDirection],
		motorMode:     b.regs[regmap.RegMotorMode],
	}
}

// MeterMode returns the meter mode register value.
func (b *Bank) MeterMode() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[regmap.RegMeterMode]
}

// DebounceMs returns the configured debounce interval register value.
func (b *Bank) DebounceMs() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[regmap.RegConfigDebounce]
}

// MeterFreqDiv returns the configured meter PWM frequency divider (minimum 1).
func (b *Bank) MeterFreqDiv() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	div := b.regs[regmap.RegConfigMeterFreq]
	if div == 0 {
		div = 1
	}
	return div
}
