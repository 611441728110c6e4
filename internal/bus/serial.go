package bus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

// Serial framing for panels attached through a USB-UART bridge instead of
// the I2C header. Each transaction is one framed request:
//
//	write: 'W' reg count data[count]   → ACK
//	read:  'R' reg count               → data[count]
//
// The device's address auto-increment applies within a frame exactly as it
// does on I2C.
const (
	frameWrite = 0x57 // 'W'
	frameRead  = 0x52 // 'R'
	frameAck   = 0x06
	frameNak   = 0x15

	serialBaud = 115200
)

// SerialMaster is a Master over a serial port.
type SerialMaster struct {
	mu     sync.Mutex
	device string
	port   serial.Port
	rw     io.ReadWriter
}

// NewSerial creates a serial master for the given port device
// (e.g. /dev/ttyACM0). The port is opened by Init.
func NewSerial(device string) *SerialMaster {
	return &SerialMaster{device: device}
}

// NewSerialPipe creates a serial master over an existing byte stream.
// Used by tests to wire a master to an in-process target.
func NewSerialPipe(rw io.ReadWriter) *SerialMaster {
	return &SerialMaster{rw: rw}
}

// Init opens the port and probes the controller's identity register.
func (m *SerialMaster) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.rw == nil {
		port, err := serial.Open(m.device, &serial.Mode{
			BaudRate: serialBaud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			m.mu.Unlock()
			return fmt.Errorf("serial: open %s: %w", m.device, err)
		}
		m.port = port
		m.rw = port
	}
	m.mu.Unlock()

	id, err := m.ReadReg(ctx, regmap.RegDeviceID)
	if err != nil {
		return fmt.Errorf("serial: probe: %w", err)
	}
	if id != regmap.DeviceID {
		return fmt.Errorf("serial: unexpected device id 0x%02x (want 0x%02x)", id, regmap.DeviceID)
	}
	slog.Info("serial: panel controller detected", "device", m.device)
	return nil
}

func (m *SerialMaster) WriteReg(ctx context.Context, reg, val byte) error {
	return m.WriteBlock(ctx, reg, []byte{val})
}

func (m *SerialMaster) ReadReg(ctx context.Context, reg byte) (byte, error) {
	var buf [1]byte
	if err := m.ReadBlock(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (m *SerialMaster) WriteBlock(ctx context.Context, reg byte, data []byte) error {
	if len(data) == 0 || len(data) > 255 {
		return fmt.Errorf("serial: write of %d bytes out of range", len(data))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rw == nil {
		return fmt.Errorf("serial: master not initialized")
	}
	frame := make([]byte, 0, len(data)+3)
	frame = append(frame, frameWrite, reg, byte(len(data)))
	frame = append(frame, data...)
	if _, err := m.rw.Write(frame); err != nil {
		return fmt.Errorf("serial: write frame: %w", err)
	}
	var ack [1]byte
	if _, err := io.ReadFull(m.rw, ack[:]); err != nil {
		return fmt.Errorf("serial: ack: %w", err)
	}
	if ack[0] != frameAck {
		return fmt.Errorf("serial: device answered 0x%02x to write", ack[0])
	}
	return nil
}

func (m *SerialMaster) ReadBlock(ctx context.Context, reg byte, buf []byte) error {
	if len(buf) == 0 || len(buf) > 255 {
		return fmt.Errorf("serial: read of %d bytes out of range", len(buf))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rw == nil {
		return fmt.Errorf("serial: master not initialized")
	}
	if _, err := m.rw.Write([]byte{frameRead, reg, byte(len(buf))}); err != nil {
		return fmt.Errorf("serial: read frame: %w", err)
	}
	if _, err := io.ReadFull(m.rw, buf); err != nil {
		return fmt.Errorf("serial: read data: %w", err)
	}
	return nil
}

func (m *SerialMaster) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port != nil {
		err := m.port.Close()
		m.port = nil
		m.rw = nil
		return err
	}
	m.rw = nil
	return nil
}
