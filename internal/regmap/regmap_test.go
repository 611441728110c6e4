package regmap_test

import (
	"testing"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

func TestPackUnpackInputs(t *testing.T) {
	tests := []struct {
		name string
		set  []int
		low  byte
		high byte
	}{
		{"none", nil, 0x00, 0x00},
		{"first", []int{0}, 0x01, 0x00},
		{"eighth", []int{7}, 0x80, 0x00},
		{"ninth", []int{8}, 0x00, 0x01},
		{"last", []int{11}, 0x00, 0x08},
		{"mixed", []int{0, 3, 8, 11}, 0x09, 0x09},
	}
	for _, tc := range tests {
		var levels [regmap.NumInputs]bool
		for _, i := range tc.set {
			levels[i] = true
		}
		low, high := regmap.PackInputs(levels)
		if low != tc.low || high != tc.high {
			t.Errorf("%s: PackInputs = 0x%02X/0x%02X, want 0x%02X/0x%02X",
				tc.name, low, high, tc.low, tc.high)
		}
		if got := regmap.UnpackInputs(low, high); got != levels {
			t.Errorf("%s: UnpackInputs round-trip mismatch: %v != %v", tc.name, got, levels)
		}
	}
}

func TestPackUnpackPosition(t *testing.T) {
	tests := []int16{0, 1, -1, 127, 128, -128, 255, 256, 32767, -32768}
	for _, pos := range tests {
		low, high := regmap.PackPosition(pos)
		if got := regmap.UnpackPosition(low, high); got != pos {
			t.Errorf("position %d round-trips to %d (bytes 0x%02X 0x%02X)", pos, got, low, high)
		}
	}
}

func TestSelfClearingMask(t *testing.T) {
	if regmap.SelfClearing&regmap.CtrlEnable != 0 {
		t.Error("CtrlEnable must persist across control writes")
	}
	if regmap.SelfClearing&regmap.CtrlResetEncoder == 0 ||
		regmap.SelfClearing&regmap.CtrlClearInputs == 0 {
		t.Error("one-shot command bits missing from SelfClearing mask")
	}
}
