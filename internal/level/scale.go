package level

import "math"

// Meter scale constants. 0 VU corresponds to +4 dBu, 1.228 V RMS; the scale
// spans -20 dB to +3 dB across the full 0-255 drive range.
const (
	ReferenceRMS = 1.228
	MinDB        = -20.0
	MaxDB        = 3.0

	silenceFloor = 1e-6
)

// RMSToDB converts a normalized RMS level to dB relative to the 0 VU
// reference. Levels below the silence floor pin to the bottom of the scale.
func RMSToDB(rms float64) float64 {
	if rms < silenceFloor {
		return MinDB
	}
	return 20.0 * math.Log10(rms/ReferenceRMS)
}

// DBToDrive maps a dB level onto the 0-255 meter drive range, clamping to
// the scale endpoints.
func DBToDrive(db float64) byte {
	if db < MinDB {
		db = MinDB
	}
	if db > MaxDB {
		db = MaxDB
	}
	frac := (db - MinDB) / (MaxDB - MinDB)
	v := int(frac * 255)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v)
}

// DriveFor is the composed conversion from RMS level to meter drive.
func DriveFor(rms float64) byte {
	return DBToDrive(RMSToDB(rms))
}
