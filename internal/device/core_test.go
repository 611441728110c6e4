package device_test

import (
	"testing"
	"time"

	"github.com/picoreplayer/panelpi-go/internal/device"
	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// runTicks drives the core through n control-loop cycles at the nominal rate.
func runTicks(c *device.Core, start time.Time, n int) time.Time {
	now := start
	for i := 0; i < n; i++ {
		now = now.Add(10 * time.Millisecond)
		c.Tick(now)
	}
	return now
}

func TestCoreInputFlow(t *testing.T) {
	pins := device.NewSimPins()
	pwm := device.NewSimPWM()
	core := device.New(pins, pwm)
	bank := core.Bank()

	now := runTicks(core, time.Now(), 10)

	// Close switch 3 and let the debouncer settle.
	pins.Actuate(2, true)
	runTicks(core, now, 8)

	low := bank.Read(regmap.RegInputStatusLow)
	if low&0x04 != 0 {
		t.Errorf("input 3 status bit still idle: 0x%02X", low)
	}
	if bank.Read(regmap.RegStatus)&regmap.StatusInputChanged == 0 {
		t.Error("input-changed status bit not raised")
	}
	if got := bank.Read(regmap.RegInputChangedLow); got&0x04 == 0 {
		t.Errorf("changed flag for input 3 missing: 0x%02X", got)
	}
}

func TestCoreEncoderFlow(t *testing.T) {
	pins := device.NewSimPins()
	pwm := device.NewSimPWM()
	core := device.New(pins, pwm)
	bank := core.Bank()

	// Edges arrive from the edge handler, interleaved with ticks.
	core.EncoderEdge(true, false)
	core.EncoderEdge(true, true)
	core.EncoderEdge(false, true)
	core.EncoderEdge(false, false)

	runTicks(core, time.Now(), 2)

	pos := regmap.UnpackPosition(
		bank.Read(regmap.RegEncoderPosLow),
		bank.Read(regmap.RegEncoderPosHigh),
	)
	if pos != 4 {
		t.Errorf("published position = %d, want 4", pos)
	}
	if got := int8(bank.Read(regmap.RegEncoderDelta)); got != 4 {
		t.Errorf("delta = %d, want 4", got)
	}
}

func TestCoreButtonFlow(t *testing.T) {
	pins := device.NewSimPins()
	pwm := device.NewSimPWM()
	core := device.New(pins, pwm)
	bank := core.Bank()

	now := runTicks(core, time.Now(), 1)
	pins.SetButton(true)
	now = runTicks(core, now, 1)

	if got := bank.Read(regmap.RegEncoderButton); got != regmap.ButtonPressed {
		t.Fatalf("button phase = 0x%02X, want pressed", got)
	}
	if bank.Read(regmap.RegStatus)&regmap.StatusButtonPressed == 0 {
		t.Error("button-pressed status bit not set")
	}

	// Hold for over a second.
	now = runTicks(core, now, 110)
	if got := bank.Read(regmap.RegEncoderButton); got != regmap.ButtonHeld {
		t.Errorf("button phase = 0x%02X after hold, want held", got)
	}

	pins.SetButton(false)
	runTicks(core, now, 1)
	if bank.Read(regmap.RegStatus)&regmap.StatusButtonPressed != 0 {
		t.Error("button-pressed status bit not cleared on release")
	}
}

func TestCoreDriveOutputs(t *testing.T) {
	pins := device.NewSimPins()
	pwm := device.NewSimPWM()
	core := device.New(pins, pwm)
	bank := core.Bank()

	bank.Write(regmap.RegControl, regmap.CtrlEnable|regmap.CtrlMeterEnable)
	bank.Write(regmap.RegMeterLeft, 128)
	bank.Write(regmap.RegMeterRight, 64)

	runTicks(core, time.Now(), 1)

	if d := pwm.Drive(device.OutMeterLeft); d.A != 128 || d.B != 0 {
		t.Errorf("meter-left drive = %+v, want A:128", d)
	}
	if d := pwm.Drive(device.OutMeterRight); d.A != 64 {
		t.Errorf("meter-right drive = %+v, want A:64", d)
	}
	if bank.Read(regmap.RegStatus)&regmap.StatusMeterActive == 0 {
		t.Error("meter-active not reflected in status")
	}
}

func TestCorePeakHoldMode(t *testing.T) {
	pins := device.NewSimPins()
	pwm := device.NewSimPWM()
	core := device.New(pins, pwm)
	bank := core.Bank()

	bank.Write(regmap.RegControl, regmap.CtrlEnable|regmap.CtrlMeterEnable)
	bank.Write(regmap.RegMeterMode, regmap.MeterModePeakHold)
	bank.Write(regmap.RegMeterLeft, 200)

	now := runTicks(core, time.Now(), 1)

	// Drop the programmed level; the needle holds the peak for a second.
	bank.Write(regmap.RegMeterLeft, 10)
	now = runTicks(core, now, 50)
	if d := pwm.Drive(device.OutMeterLeft); d.A != 200 {
		t.Errorf("peak not held: drive %+v, want A:200", d)
	}

	// Past the hold time the needle falls toward the live level.
	runTicks(core, now, 200)
	if d := pwm.Drive(device.OutMeterLeft); d.A >= 200 {
		t.Errorf("peak never decayed: drive %+v", d)
	}
}

func TestCoreTestPattern(t *testing.T) {
	pins := device.NewSimPins()
	pwm := device.NewSimPWM()
	core := device.New(pins, pwm)
	bank := core.Bank()

	bank.Write(regmap.RegCommand, regmap.CmdTestMeterBoth)

	start := time.Now()
	now := runTicks(core, start, 200) // 2 s into a 5 s sweep

	if d := pwm.Drive(device.OutMeterLeft); d.A == 0 {
		t.Error("sweep pattern not driving the left meter")
	}
	if d := pwm.Drive(device.OutMeterRight); d.A == 0 {
		t.Error("sweep pattern not driving the right meter")
	}

	// Pattern is bounded: after its duration the mapped drives return.
	runTicks(core, now, 400)
	if d := pwm.Drive(device.OutMeterLeft); d.A != 0 {
		t.Errorf("pattern did not expire: drive %+v", d)
	}
}

func TestCoreStatusLEDBlinks(t *testing.T) {
	pins := device.NewSimPins()
	pwm := device.NewSimPWM()
	core := device.New(pins, pwm)

	start := time.Now()
	runTicks(core, start, 60) // 600 ms
	first := pwm.LED()
	runTicks(core, start.Add(600*time.Millisecond), 60)
	if pwm.LED() == first {
		t.Error("status LED did not toggle over a blink period")
	}
}
