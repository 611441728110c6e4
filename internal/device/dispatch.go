package device

import "sync"

// Dispatcher adapts the bank to the bus transport's transaction framing.
// A write transaction is an address byte followed by zero or more data
// bytes; a read transaction clocks out bytes from the current address. In
// both directions the active address auto-increments per byte, so block
// transfers never re-specify the address. The transport owns retry and
// timeout behavior; the dispatcher only has to stay bounded per byte.
type Dispatcher struct {
	mu   sync.Mutex
	bank *Bank
	addr byte
}

// NewDispatcher returns a dispatcher over the given bank.
func NewDispatcher(bank *Bank) *Dispatcher {
	return &Dispatcher{bank: bank}
}

// Receive handles one received write transaction. The first byte sets the
// active address; each following byte is written there and advances it.
// An empty frame is ignored; an address-only frame just repositions, as the
// prelude to a read.
func (d *Dispatcher) Receive(frame []byte) {
	if len(frame) == 0 {
		return
	}
	d.mu.Lock()
	d.addr = frame[0]
	for _, val := range frame[1:] {
		d.bank.Write(d.addr, val)
		d.addr++
	}
	d.mu.Unlock()
}

// Request fills buf with bytes read from the active address onward,
// advancing it per byte. The bus master determines how many bytes to clock
// out; there is no length field in the protocol.
func (d *Dispatcher) Request(buf []byte) {
	d.mu.Lock()
	for i := range buf {
		buf[i] = d.bank.Read(d.addr)
		d.addr++
	}
	d.mu.Unlock()
}

// Bank exposes the underlying bank, for the control loop side.
func (d *Dispatcher) Bank() *Bank {
	return d.bank
}
