package device_test

import (
	"testing"
	"time"

	"github.com/picoreplayer/panelpi-go/internal/device"
	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

func TestButtonPressRelease(t *testing.T) {
	b := device.NewButton()
	now := time.Now()

	if got := b.Update(now, true); got != regmap.ButtonPressed {
		t.Fatalf("phase = 0x%02X, want pressed", got)
	}
	if got := b.Update(now.Add(100*time.Millisecond), false); got != regmap.ButtonReleased {
		t.Fatalf("phase = 0x%02X, want released", got)
	}
}

func TestButtonHold(t *testing.T) {
	b := device.NewButton()
	now := time.Now()

	b.Update(now, true)
	if got := b.Update(now.Add(999*time.Millisecond), true); got != regmap.ButtonPressed {
		t.Errorf("phase = 0x%02X before hold timeout, want pressed", got)
	}
	if got := b.Update(now.Add(1001*time.Millisecond), true); got != regmap.ButtonHeld {
		t.Errorf("phase = 0x%02X after hold timeout, want held", got)
	}
	// Held releases straight back to released.
	if got := b.Update(now.Add(1100*time.Millisecond), false); got != regmap.ButtonReleased {
		t.Errorf("phase = 0x%02X, want released", got)
	}
}

func TestButtonDoubleClick(t *testing.T) {
	b := device.NewButton()
	now := time.Now()

	// First click.
	b.Update(now, true)
	b.Update(now.Add(50*time.Millisecond), false)

	// Second press inside the double-click window.
	if got := b.Update(now.Add(200*time.Millisecond), true); got != regmap.ButtonDoubleClick {
		t.Errorf("phase = 0x%02X, want double-click", got)
	}
	if got := b.Update(now.Add(250*time.Millisecond), false); got != regmap.ButtonReleased {
		t.Errorf("phase = 0x%02X, want released", got)
	}
}

func TestButtonSlowSecondPressIsSingle(t *testing.T) {
	b := device.NewButton()
	now := time.Now()

	b.Update(now, true)
	b.Update(now.Add(50*time.Millisecond), false)

	// Second press after the window: a plain press.
	if got := b.Update(now.Add(500*time.Millisecond), true); got != regmap.ButtonPressed {
		t.Errorf("phase = 0x%02X, want pressed", got)
	}
}

func TestButtonFirstPressNeverDoubleClick(t *testing.T) {
	b := device.NewButton()
	// No previous release exists; the very first press must be plain.
	if got := b.Update(time.Now(), true); got != regmap.ButtonPressed {
		t.Errorf("first press phase = 0x%02X, want pressed", got)
	}
}
