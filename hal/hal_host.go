//go:build !stm32f4

package hal

import (
	"sync"

	"testfw-go/clock"
	"testfw-go/errcode"
	"testfw-go/stm32f4"
	"testfw-go/types"

	"tinygo.org/x/drivers"
)

// ----------------------------- platform (host) -------------------------------

// HostPlatform records what firmware would have programmed. Tests inspect
// it; host builds of the firmware commands run against it.
type HostPlatform struct {
	mu     sync.Mutex
	clocks []clock.Tree
	ports  map[stm32f4.ID]*HostPort

	// ClockErr, when set, is returned from ApplyClock.
	ClockErr error
}

// Halted is the panic value HostPlatform.Halt raises in place of stopping
// the core.
type Halted struct{ Err error }

func (h Halted) Error() string { return "halted: " + h.Err.Error() }

func NewHost() *HostPlatform {
	return &HostPlatform{ports: make(map[stm32f4.ID]*HostPort)}
}

// Default returns a fresh host platform.
func Default() Platform { return NewHost() }

func (h *HostPlatform) ApplyClock(t clock.Tree) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ClockErr != nil {
		return h.ClockErr
	}
	h.clocks = append(h.clocks, t)
	return nil
}

// Clocks returns every tree applied so far.
func (h *HostPlatform) Clocks() []clock.Tree {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]clock.Tree(nil), h.clocks...)
}

func (h *HostPlatform) OpenUSART(pins USARTPins, cfg types.UARTConfig, brr uint32) (Port, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.ports[pins.Peri]; busy {
		return nil, errcode.New(errcode.PinInUse, "hal.open", pins.Peri.String()+" already open")
	}
	p := &HostPort{Pins: pins, Config: cfg, BRR: brr, failAt: -1}
	h.ports[pins.Peri] = p
	return p, nil
}

// Port returns the fake behind an opened USART.
func (h *HostPlatform) Port(id stm32f4.ID) (*HostPort, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.ports[id]
	return p, ok
}

func (h *HostPlatform) Halt(err error) {
	panic(Halted{Err: err})
}

// ----------------------------- USART (host) ----------------------------------

// HostPort captures transmitted bytes and serves injected receive data.
type HostPort struct {
	mu     sync.Mutex
	Pins   USARTPins
	Config types.UARTConfig
	BRR    uint32

	tx     []byte
	rx     []byte
	failAt int
	fail   error
}

var _ drivers.UART = (*HostPort)(nil)

func (p *HostPort) WriteByte(c byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt >= 0 && len(p.tx) >= p.failAt {
		return p.fail
	}
	p.tx = append(p.tx, c)
	return nil
}

func (p *HostPort) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := p.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(b), nil
}

func (p *HostPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *HostPort) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rx)
}

// Sent returns a copy of everything written so far.
func (p *HostPort) Sent() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.tx...)
}

// SentLen is len(Sent()) without the copy.
func (p *HostPort) SentLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tx)
}

// FailAfter makes every write fail with err once n bytes have been sent.
func (p *HostPort) FailAfter(n int, err error) {
	p.mu.Lock()
	p.failAt, p.fail = n, err
	p.mu.Unlock()
}

// Feed queues bytes for Read, as if they arrived on RX.
func (p *HostPort) Feed(b []byte) {
	p.mu.Lock()
	p.rx = append(p.rx, b...)
	p.mu.Unlock()
}
