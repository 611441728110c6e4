package device_test

import (
	"testing"

	"github.com/picoreplayer/panelpi-go/internal/device"
	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

func bankWith(t *testing.T, writes map[regmap.Register]byte) *device.Bank {
	t.Helper()
	b, _ := newBank()
	for reg, val := range writes {
		if !b.Write(reg, val) {
			t.Fatalf("setup write 0x%02X=0x%02X rejected", reg, val)
		}
	}
	return b
}

func TestMapDrivesDisabledCoasts(t *testing.T) {
	// Meter enable bit clear: both polarity lines zero regardless of value.
	b := bankWith(t, map[regmap.Register]byte{
		regmap.RegMeterLeft: 200,
	})
	drives, status := device.MapDrives(b, 0)
	if d := drives[device.OutMeterLeft]; d.A != 0 || d.B != 0 {
		t.Errorf("disabled meter drive = %+v, want coast", d)
	}
	if status&regmap.StatusMeterActive != 0 {
		t.Error("meter-active set while disabled")
	}
}

func TestMapDrivesModeOffCoasts(t *testing.T) {
	b := bankWith(t, map[regmap.Register]byte{
		regmap.RegControl:   regmap.CtrlEnable | regmap.CtrlMeterEnable,
		regmap.RegMeterLeft: 150,
		regmap.RegMeterMode: regmap.MeterModeOff,
	})
	drives, status := device.MapDrives(b, 0)
	if d := drives[device.OutMeterLeft]; d.A != 0 || d.B != 0 {
		t.Errorf("mode-off meter drive = %+v, want coast", d)
	}
	if status&regmap.StatusMeterActive != 0 {
		t.Error("meter-active set with mode off")
	}
}

func TestMapDrivesMotorDirections(t *testing.T) {
	tests := []struct {
		dir     byte
		want    device.Drive
		running bool
	}{
		{regmap.MotorDirStop, device.Drive{}, false},
		{regmap.MotorDirForward, device.Drive{A: 90}, true},
		{regmap.MotorDirReverse, device.Drive{B: 90}, true},
		{regmap.MotorDirBrake, device.Drive{A: 255, B: 255}, false},
	}
	for _, tc := range tests {
		b := bankWith(t, map[regmap.Register]byte{
			regmap.RegControl:        regmap.CtrlEnable | regmap.CtrlMotorEnable,
			regmap.RegMotorSpeed:     90,
			regmap.RegMotorDirection: tc.dir,
		})
		drives, status := device.MapDrives(b, 0)
		if d := drives[device.OutMotor]; d != tc.want {
			t.Errorf("dir 0x%02X: drive = %+v, want %+v", tc.dir, d, tc.want)
		}
		running := status&regmap.StatusMotorRunning != 0
		if running != tc.running {
			t.Errorf("dir 0x%02X: motor-running = %v, want %v", tc.dir, running, tc.running)
		}
	}
}

func TestMapDrivesBrakeOnlyDualNonZero(t *testing.T) {
	// Sweep all direction values: brake is the only state with both lines hot.
	for dir := 0; dir < 256; dir++ {
		b := bankWith(t, map[regmap.Register]byte{
			regmap.RegControl:        regmap.CtrlEnable | regmap.CtrlMotorEnable,
			regmap.RegMotorSpeed:     255,
			regmap.RegMotorDirection: byte(dir),
		})
		drives, _ := device.MapDrives(b, 0)
		d := drives[device.OutMotor]
		if d.A != 0 && d.B != 0 && byte(dir) != regmap.MotorDirBrake {
			t.Fatalf("dir 0x%02X drives both lines (%+v)", dir, d)
		}
	}
}

func TestMapDrivesBacklightAuto(t *testing.T) {
	b := bankWith(t, map[regmap.Register]byte{
		regmap.RegControl: regmap.CtrlEnable | regmap.CtrlMeterEnable |
			regmap.CtrlBacklightEnable,
		regmap.RegMeterLeft:     60,
		regmap.RegMeterRight:    180,
		regmap.RegBacklight:     10,
		regmap.RegBacklightMode: regmap.BacklightModeAuto,
	})
	drives, status := device.MapDrives(b, 0)
	if got := drives[device.OutBacklight].A; got != 180 {
		t.Errorf("auto backlight = %d, want louder channel 180", got)
	}
	if status&regmap.StatusBacklightOn == 0 {
		t.Error("backlight-on status bit not set")
	}
}

func TestMapDrivesBacklightPulse(t *testing.T) {
	b := bankWith(t, map[regmap.Register]byte{
		regmap.RegControl:       regmap.CtrlEnable | regmap.CtrlBacklightEnable,
		regmap.RegBacklight:     255,
		regmap.RegBacklightMode: regmap.BacklightModePulse,
	})
	drives, _ := device.MapDrives(b, 128)
	if got := drives[device.OutBacklight].A; got != 128 {
		t.Errorf("pulse backlight = %d, want modulation level 128", got)
	}
}
