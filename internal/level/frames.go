package level

import (
	"encoding/binary"
	"io"
	"math"
)

const (
	bytesPerSample = 4 // float32
	channels       = 2 // interleaved stereo
	frameSize      = bytesPerSample * channels
)

// FrameReader deinterleaves little-endian stereo float32 frames from a byte
// stream, typically a FIFO fed by an ALSA file plugin. Bytes left over from
// a partial frame are carried into the next read.
type FrameReader struct {
	src   io.Reader
	buf   []byte
	rem   int
	left  []float32
	right []float32
}

// NewFrameReader returns a reader that pulls blocks of at most blockFrames
// stereo frames per call.
func NewFrameReader(src io.Reader, blockFrames int) *FrameReader {
	if blockFrames <= 0 {
		blockFrames = 512
	}
	return &FrameReader{
		src:   src,
		buf:   make([]byte, blockFrames*frameSize),
		left:  make([]float32, 0, blockFrames),
		right: make([]float32, 0, blockFrames),
	}
}

// ReadBlock reads the next block and returns the per-channel samples. The
// returned slices are reused across calls. Non-finite samples are replaced
// with silence so a corrupt stream cannot wedge the ballistics at NaN.
func (fr *FrameReader) ReadBlock() (left, right []float32, err error) {
	n, err := fr.src.Read(fr.buf[fr.rem:])
	if n == 0 && err != nil {
		return nil, nil, err
	}
	total := fr.rem + n
	frames := total / frameSize
	fr.left = fr.left[:0]
	fr.right = fr.right[:0]
	for i := 0; i < frames; i++ {
		off := i * frameSize
		fr.left = append(fr.left, sampleAt(fr.buf[off:]))
		fr.right = append(fr.right, sampleAt(fr.buf[off+bytesPerSample:]))
	}
	fr.rem = total - frames*frameSize
	copy(fr.buf, fr.buf[frames*frameSize:total])
	return fr.left, fr.right, nil
}

func sampleAt(b []byte) float32 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(b))
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	return v
}
