// Package bus provides the transport boundary between the host and the
// panel controller: a Master interface for the host side, a real Linux I2C
// implementation, a serial-framed implementation for USB-bridged panels, and
// an in-process loopback for tests and mock runs.
//
// The transport owns delivery order within a transaction and retry/timeout
// policy; register semantics live behind it in the device core.
package bus

import "context"

// DeviceAddr is the panel controller's 7-bit I2C address.
const DeviceAddr uint16 = 0x42

// Master is the host side of the bus. All operations are safe for
// concurrent use; each call is one bus transaction.
type Master interface {
	// Init opens the transport. Must be called before any other method.
	Init(ctx context.Context) error

	// WriteReg writes a single byte to a register.
	WriteReg(ctx context.Context, reg byte, val byte) error

	// ReadReg reads a single byte from a register.
	ReadReg(ctx context.Context, reg byte) (byte, error)

	// WriteBlock writes data to consecutive registers starting at reg,
	// relying on the device's address auto-increment.
	WriteBlock(ctx context.Context, reg byte, data []byte) error

	// ReadBlock fills buf from consecutive registers starting at reg.
	ReadBlock(ctx context.Context, reg byte, buf []byte) error

	// Close releases the transport.
	Close() error
}
