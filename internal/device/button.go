package device

import (
	"time"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// Button default timing.
const (
	DefaultHoldAfter   = 1000 * time.Millisecond
	DefaultDoubleClick = 300 * time.Millisecond
)

// Button derives press/hold/double-click phases from a single debounced
// boolean input. Phases transient for less than one control-loop tick may
// not be observable through the register.
type Button struct {
	phase       byte
	pressTime   time.Time
	releaseTime time.Time
	holdAfter   time.Duration
	doubleClick time.Duration
}

// NewButton returns a released button with default hold and double-click
// thresholds.
func NewButton() *Button {
	return &Button{
		holdAfter:   DefaultHoldAfter,
		doubleClick: DefaultDoubleClick,
	}
}

// Update feeds one sampled (already debounced) state and returns the
// current phase as a register value.
func (b *Button) Update(now time.Time, pressed bool) byte {
	switch {
	case pressed && b.phase == regmap.ButtonReleased:
		b.pressTime = now
		if !b.releaseTime.IsZero() && now.Sub(b.releaseTime) < b.doubleClick {
			b.phase = regmap.ButtonDoubleClick
		} else {
			b.phase = regmap.ButtonPressed
		}
	case pressed && b.phase == regmap.ButtonPressed:
		if now.Sub(b.pressTime) >= b.holdAfter {
			b.phase = regmap.ButtonHeld
		}
	case !pressed && b.phase != regmap.ButtonReleased:
		// Release from any non-released phase goes straight back to released.
		b.releaseTime = now
		b.phase = regmap.ButtonReleased
	}
	return b.phase
}

// Phase returns the current phase without feeding a sample.
func (b *Button) Phase() byte {
	return b.phase
}
