package bus

import (
	"context"
	"sync"

	"github.com/picoreplayer/panelpi-go/internal/device"
)

// Loopback is an in-process Master wired directly to a device dispatcher.
// It reproduces the transaction framing of the real bus (address byte, data
// bytes, auto-increment) so the full protocol path is exercised without
// hardware.
type Loopback struct {
	mu   sync.Mutex
	disp *device.Dispatcher
}

// NewLoopback returns a Master over the given dispatcher.
func NewLoopback(disp *device.Dispatcher) *Loopback {
	return &Loopback{disp: disp}
}

func (l *Loopback) Init(ctx context.Context) error { return nil }

func (l *Loopback) WriteReg(ctx context.Context, reg, val byte) error {
	return l.WriteBlock(ctx, reg, []byte{val})
}

func (l *Loopback) ReadReg(ctx context.Context, reg byte) (byte, error) {
	var buf [1]byte
	if err := l.ReadBlock(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (l *Loopback) WriteBlock(ctx context.Context, reg byte, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, reg)
	frame = append(frame, data...)
	l.mu.Lock()
	l.disp.Receive(frame)
	l.mu.Unlock()
	return nil
}

func (l *Loopback) ReadBlock(ctx context.Context, reg byte, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	// Address phase then read phase, exactly like a combined
	// write+read transaction with repeated start.
	l.disp.Receive([]byte{reg})
	l.disp.Request(buf)
	l.mu.Unlock()
	return nil
}

func (l *Loopback) Close() error { return nil }
