// Package payload holds the fixed transmit pattern and a streaming checker
// for captures of it.
package payload

// Data is sent byte by byte, forever. The lowercase run has no 'n': a
// terminal shows a dropped or garbled byte as a visible shift.
const Data = "abcdefghijklmopqrstuvwxyz-0123456789_ABCDEFGHIJKLMNOPQRSTUVWXYZ="

// Every byte of Data is distinct, so one byte fixes the phase.
var index = func() (t [256]int16) {
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(Data); i++ {
		t[Data[i]] = int16(i)
	}
	return t
}()

// Offset returns the position of b within Data, or -1.
func Offset(b byte) int { return int(index[b]) }

// IsRotationWindow reports whether w is a contiguous run of the endless
// repetition of Data. A window of exactly len(Data) bytes is then a
// rotation of Data.
func IsRotationWindow(w []byte) bool {
	if len(w) == 0 {
		return false
	}
	pos := Offset(w[0])
	if pos < 0 {
		return false
	}
	for _, b := range w {
		if b != Data[pos] {
			return false
		}
		pos++
		if pos == len(Data) {
			pos = 0
		}
	}
	return true
}

// Checker verifies a captured stream incrementally. It locks onto the
// first recognised byte and then expects the pattern to continue.
// A mismatch counts once and relocks on the offending byte.
type Checker struct {
	pos int // next expected offset; -1 when unlocked

	Bytes      uint64
	Passes     uint64 // completed traversals ending in the last byte
	Mismatches uint64
	Skipped    uint64 // bytes seen while unlocked
	OnPass     func(n uint64)
}

// NewChecker returns an unlocked Checker.
func NewChecker() *Checker { return &Checker{pos: -1} }

// Locked reports whether the checker is following the pattern.
func (c *Checker) Locked() bool { return c.pos >= 0 }

// Write feeds captured bytes. It never fails, so it can sit behind io.Copy.
func (c *Checker) Write(p []byte) (int, error) {
	for _, b := range p {
		c.feed(b)
	}
	return len(p), nil
}

func (c *Checker) feed(b byte) {
	c.Bytes++
	if c.pos < 0 {
		off := Offset(b)
		if off < 0 {
			c.Skipped++
			return
		}
		c.pos = off
	} else if b != Data[c.pos] {
		c.Mismatches++
		c.pos = Offset(b)
		if c.pos < 0 {
			c.Skipped++
			return
		}
	}
	c.pos++
	if c.pos == len(Data) {
		c.pos = 0
		c.Passes++
		if c.OnPass != nil {
			c.OnPass(c.Passes)
		}
	}
}
