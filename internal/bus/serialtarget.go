package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.bug.st/serial"

	"github.com/picoreplayer/panelpi-go/internal/device"
)

// SerialTarget serves the device side of the serial framing: it decodes
// request frames and applies them to the dispatcher. One goroutine per port;
// frames are processed strictly in order.
type SerialTarget struct {
	disp *device.Dispatcher
}

// NewSerialTarget returns a target over the given dispatcher.
func NewSerialTarget(disp *device.Dispatcher) *SerialTarget {
	return &SerialTarget{disp: disp}
}

// ServePort opens the named serial port and serves frames until ctx is
// cancelled or the port fails.
func (t *SerialTarget) ServePort(ctx context.Context, deviceName string) error {
	port, err := serial.Open(deviceName, &serial.Mode{
		BaudRate: serialBaud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", deviceName, err)
	}
	defer port.Close()

	go func() {
		<-ctx.Done()
		port.Close() // unblocks the read loop
	}()

	slog.Info("serial: serving bus transactions", "device", deviceName)
	err = t.Serve(ctx, port)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Serve decodes frames from rw until EOF, error, or ctx cancellation.
func (t *SerialTarget) Serve(ctx context.Context, rw io.ReadWriter) error {
	var hdr [3]byte
	var data [256]byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.ReadFull(rw, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("serial: frame header: %w", err)
		}
		op, reg, count := hdr[0], hdr[1], int(hdr[2])

		switch op {
		case frameWrite:
			frame := data[:count+1]
			frame[0] = reg
			if _, err := io.ReadFull(rw, frame[1:]); err != nil {
				return fmt.Errorf("serial: frame payload: %w", err)
			}
			t.disp.Receive(frame)
			if _, err := rw.Write([]byte{frameAck}); err != nil {
				return fmt.Errorf("serial: ack: %w", err)
			}
		case frameRead:
			t.disp.Receive([]byte{reg})
			buf := data[:count]
			t.disp.Request(buf)
			if _, err := rw.Write(buf); err != nil {
				return fmt.Errorf("serial: response: %w", err)
			}
		default:
			// Unknown opcode: answer NAK and resynchronize on the next frame.
			if _, err := rw.Write([]byte{frameNak}); err != nil {
				return fmt.Errorf("serial: nak: %w", err)
			}
		}
	}
}
