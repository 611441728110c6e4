package device

import (
	"time"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// Debouncer filters raw samples of the 12 digital inputs into stable logical
// levels plus per-channel change flags. The debounce interval is shared
// across channels; each channel tracks its own last-transition time.
//
// Inputs follow the pull-up convention: electrically high (true) when not
// actuated, low (false) when the switch is closed.
type Debouncer struct {
	interval   time.Duration
	stable     [regmap.NumInputs]bool
	lastChange [regmap.NumInputs]time.Time
}

// NewDebouncer returns a debouncer with all channels stable at the idle
// (pulled-up) level.
func NewDebouncer(interval time.Duration) *Debouncer {
	d := &Debouncer{interval: interval}
	for i := range d.stable {
		d.stable[i] = true
	}
	return d
}

// SetInterval updates the shared debounce interval. Takes effect on the next
// Sample call.
func (d *Debouncer) SetInterval(interval time.Duration) {
	d.interval = interval
}

// Sample feeds one raw sample per channel. A channel's stable level commits
// to the new raw value only when the raw level differs from the stable one
// and at least the debounce interval has elapsed since that channel's last
// recorded transition. Returns a change flag per channel; each physical
// transition raises at most one flag.
func (d *Debouncer) Sample(now time.Time, raw [regmap.NumInputs]bool) (changed [regmap.NumInputs]bool) {
	for i, rv := range raw {
		if rv == d.stable[i] {
			continue
		}
		if now.Sub(d.lastChange[i]) < d.interval {
			continue // still settling, keep previous stable level
		}
		d.stable[i] = rv
		d.lastChange[i] = now
		changed[i] = true
	}
	return
}

// Levels returns the current stable logical levels.
func (d *Debouncer) Levels() [regmap.NumInputs]bool {
	return d.stable
}
