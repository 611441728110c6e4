//go:build linux

package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/picoreplayer/panelpi-go/internal/regmap"
)

const (
	defaultI2CPath = "/dev/i2c-1"
	i2cRdwrIOCTL   = 0x0707 // I2C_RDWR ioctl: combined write+read with REPEATED START
	i2cMsgRD       = 0x0001 // i2c_msg flag: read direction
	maxOpsPerSec   = 500
	maxBlock       = 32 // controller-side transaction buffer size
)

// i2cMsg mirrors struct i2c_msg from linux/i2c.h
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_pad   uint16 // struct alignment
	buf    uintptr
}

// i2cRdwr mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h
type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CMaster talks to the panel controller over Linux I2C using I2C_RDWR for
// all transactions, which generates the repeated start the controller's
// register read protocol expects. A rate limiter keeps the host from
// saturating the bus during fast meter updates.
type I2CMaster struct {
	mu      sync.Mutex
	path    string
	fd      int
	limiter *rate.Limiter
}

// NewI2C creates an I2C master on the default bus device.
func NewI2C() *I2CMaster {
	return NewI2CPath(defaultI2CPath)
}

// NewI2CPath creates an I2C master on a specific bus device.
func NewI2CPath(path string) *I2CMaster {
	return &I2CMaster{
		path:    path,
		fd:      -1,
		limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 10),
	}
}

// Init opens the bus and probes the controller's identity register.
func (m *I2CMaster) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fd, err := unix.Open(m.path, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("i2c: open %s: %w", m.path, err)
	}
	m.fd = fd

	var id [1]byte
	if err := m.transfer(fd, regmap.RegDeviceID, nil, id[:]); err != nil {
		unix.Close(fd)
		m.fd = -1
		return fmt.Errorf("i2c: no panel controller at 0x%02x on %s: %w", DeviceAddr, m.path, err)
	}
	if id[0] != regmap.DeviceID {
		unix.Close(fd)
		m.fd = -1
		return fmt.Errorf("i2c: unexpected device id 0x%02x (want 0x%02x)", id[0], regmap.DeviceID)
	}
	slog.Info("i2c: panel controller detected", "addr", fmt.Sprintf("0x%02x", DeviceAddr), "dev", m.path)
	return nil
}

func (m *I2CMaster) WriteReg(ctx context.Context, reg, val byte) error {
	return m.WriteBlock(ctx, reg, []byte{val})
}

func (m *I2CMaster) ReadReg(ctx context.Context, reg byte) (byte, error) {
	var buf [1]byte
	if err := m.ReadBlock(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (m *I2CMaster) WriteBlock(ctx context.Context, reg byte, data []byte) error {
	if len(data) >= maxBlock {
		return fmt.Errorf("i2c: block of %d exceeds transaction buffer", len(data))
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fd < 0 {
		return fmt.Errorf("i2c: master not initialized")
	}
	return m.transfer(m.fd, reg, data, nil)
}

func (m *I2CMaster) ReadBlock(ctx context.Context, reg byte, buf []byte) error {
	if len(buf) == 0 || len(buf) > maxBlock {
		return fmt.Errorf("i2c: read of %d bytes out of range", len(buf))
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fd < 0 {
		return fmt.Errorf("i2c: master not initialized")
	}
	return m.transfer(m.fd, reg, nil, buf)
}

// transfer performs one I2C_RDWR transaction: a register-address write,
// optionally followed by a payload write (same message) or a read message
// after a repeated start.
//
// Write: START→addr|W→reg→data…→STOP
// Read:  START→addr|W→reg→RS→addr|R→data…→NACK→STOP
func (m *I2CMaster) transfer(fd int, reg byte, wdata, rdata []byte) error {
	var wbuf [maxBlock + 1]byte
	wbuf[0] = reg
	copy(wbuf[1:], wdata)

	msgs := [2]i2cMsg{
		{addr: DeviceAddr, flags: 0, length: uint16(1 + len(wdata)), buf: uintptr(unsafe.Pointer(&wbuf[0]))},
	}
	n := uint32(1)
	if len(rdata) > 0 {
		msgs[1] = i2cMsg{addr: DeviceAddr, flags: i2cMsgRD, length: uint16(len(rdata)), buf: uintptr(unsafe.Pointer(&rdata[0]))}
		n = 2
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: n}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return fmt.Errorf("i2c: I2C_RDWR reg=0x%02x: %w", reg, errno)
	}
	return nil
}

// Close releases the I2C file descriptor.
func (m *I2CMaster) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fd >= 0 {
		unix.Close(m.fd)
		m.fd = -1
	}
	return nil
}
