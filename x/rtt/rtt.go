// Package rtt implements the target side of SEGGER Real-Time Transfer: a
// control block in RAM that a debug probe locates by its ID string and
// drains over SWD while the core keeps running.
package rtt

import (
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Up-buffer operating modes (SEGGER_RTT_MODE_*).
const (
	ModeNoBlockSkip uint32 = 0 // drop the whole write if it does not fit
	ModeNoBlockTrim uint32 = 1 // write what fits, drop the rest
)

var ErrFull = errors.New("rtt: up buffer full")

// buffer mirrors SEGGER_RTT_BUFFER_UP / _DOWN. Field order and widths are
// what the probe expects: pointers are target words.
type buffer struct {
	name  uintptr
	buf   uintptr
	size  uint32
	wrOff atomic.Uint32 // target writes
	rdOff atomic.Uint32 // probe writes
	flags uint32
}

// controlBlock mirrors SEGGER_RTT_CB with one up and one down channel.
type controlBlock struct {
	id      [16]byte
	maxUp   int32
	maxDown int32
	up      [1]buffer
	down    [1]buffer
}

var (
	initOnce sync.Once
	cb       controlBlock
	terminal *Channel

	// Go-side references keep the buffers reachable; the control block
	// only holds their addresses.
	upMem   []byte
	downMem [16]byte
	name    = [...]byte{'T', 'e', 'r', 'm', 'i', 'n', 'a', 'l', 0}
)

// Channel is the producer side of one up buffer. Only one goroutine may
// write to a Channel.
type Channel struct {
	b       *buffer
	mem     []byte
	dropped atomic.Uint32
}

// Terminal sets up the control block on first use and returns up
// channel 0. size is only honoured on the first call.
func Terminal(size int) *Channel {
	initOnce.Do(func() {
		if size < 16 {
			size = 16
		}
		upMem = make([]byte, size)
		cb.maxUp, cb.maxDown = 1, 1
		cb.up[0].name = uintptr(unsafe.Pointer(&name[0]))
		cb.up[0].buf = uintptr(unsafe.Pointer(&upMem[0]))
		cb.up[0].size = uint32(size)
		cb.up[0].flags = ModeNoBlockSkip
		cb.down[0].name = cb.up[0].name
		cb.down[0].buf = uintptr(unsafe.Pointer(&downMem[0]))
		cb.down[0].size = uint32(len(downMem))
		// The ID goes in last and in two pieces so the probe never matches
		// a half-built block or a copy of the string in flash.
		copy(cb.id[7:], "RTT")
		copy(cb.id[:7], "SEGGER ")
		terminal = &Channel{b: &cb.up[0], mem: upMem}
	})
	return terminal
}

// New returns a standalone channel that no probe will find. Host builds
// and tests use it in place of Terminal.
func New(size int, mode uint32) *Channel {
	if size < 2 {
		panic("rtt: size must be >= 2")
	}
	mem := make([]byte, size)
	b := &buffer{buf: uintptr(unsafe.Pointer(&mem[0])), size: uint32(size), flags: mode}
	return &Channel{b: b, mem: mem}
}

// SetMode switches between skip and trim behaviour.
func (c *Channel) SetMode(mode uint32) { c.b.flags = mode }

// Space reports how many bytes can be written without dropping.
// One slot always stays empty to tell full from empty.
func (c *Channel) Space() int {
	return int(free(c.b.rdOff.Load(), c.b.wrOff.Load(), c.b.size))
}

// Available reports bytes written but not yet drained by the probe.
func (c *Channel) Available() int {
	rd, wr := c.b.rdOff.Load(), c.b.wrOff.Load()
	if wr >= rd {
		return int(wr - rd)
	}
	return int(c.b.size - rd + wr)
}

// Dropped counts writes (skip mode) or tails (trim mode) that did not fit.
func (c *Channel) Dropped() uint32 { return c.dropped.Load() }

func free(rd, wr, size uint32) uint32 {
	if rd <= wr {
		return size - 1 - wr + rd
	}
	return rd - wr - 1
}

// Write never blocks. In skip mode a write that does not fit is dropped
// whole and ErrFull returned; in trim mode the tail is dropped.
func (c *Channel) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	rd := c.b.rdOff.Load() // acquire
	wr := c.b.wrOff.Load()
	size := c.b.size
	n := int(free(rd, wr, size))
	if n < len(p) {
		c.dropped.Add(1)
		if c.b.flags == ModeNoBlockSkip || n == 0 {
			return 0, ErrFull
		}
	} else {
		n = len(p)
	}

	first := int(size - wr)
	if first > n {
		first = n
	}
	copy(c.mem[wr:wr+uint32(first)], p[:first])
	if second := n - first; second > 0 {
		copy(c.mem[:second], p[first:n])
	}
	next := wr + uint32(n)
	if next >= size {
		next -= size
	}
	c.b.wrOff.Store(next) // release
	if n < len(p) {
		return n, ErrFull
	}
	return n, nil
}

func (c *Channel) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// ReadInto drains like a probe would. The host HAL and tests use it; on
// hardware the probe advances rdOff itself.
func (c *Channel) ReadInto(dst []byte) (n int) {
	rd := c.b.rdOff.Load()
	wr := c.b.wrOff.Load() // acquire
	size := c.b.size
	for n < len(dst) && rd != wr {
		end := wr
		if rd > wr {
			end = size
		}
		k := copy(dst[n:], c.mem[rd:end])
		n += k
		rd += uint32(k)
		if rd == size {
			rd = 0
		}
	}
	c.b.rdOff.Store(rd) // release
	return n
}
