// Package capture verifies bytes received from a board running one of the
// serial firmwares: the stream must be the payload repeated, and the time
// between completed passes gives the effective line rate.
package capture

import (
	"context"
	"errors"
	"io"
	"time"

	"testfw-go/errcode"
	"testfw-go/payload"

	"gonum.org/v1/gonum/stat"
)

// Options bound a capture. A zero limit means none; at least one of
// Bytes, Duration or a cancellable context must stop the run.
type Options struct {
	Bytes     uint64
	Duration  time.Duration
	FrameBits int // wire bits per character, 10 for 8N1
}

// Report summarises one capture.
type Report struct {
	Bytes      uint64
	Passes     uint64
	Mismatches uint64
	Skipped    uint64
	Elapsed    time.Duration

	// Intervals are the seconds between consecutive pass completions.
	Intervals []float64
	Mean      float64
	StdDev    float64
	// Baud is the line rate implied by Mean, zero without two passes.
	Baud float64
}

// OK reports whether at least one full pass arrived and nothing mismatched.
func (r Report) OK() bool { return r.Passes > 0 && r.Mismatches == 0 }

// Run reads src until a limit is hit, ctx ends or src returns io.EOF.
// A read returning (0, nil) counts as idle. now may be nil.
func Run(ctx context.Context, src io.Reader, opt Options, now func() time.Time) (Report, error) {
	if now == nil {
		now = time.Now
	}
	if opt.FrameBits == 0 {
		opt.FrameBits = 10
	}
	if opt.FrameBits < 0 {
		return Report{}, errcode.New(errcode.InvalidParams, "capture", "negative frame bits")
	}

	start := now()
	var stamps []time.Time
	c := payload.NewChecker()
	c.OnPass = func(uint64) { stamps = append(stamps, now()) }

	buf := make([]byte, 256)
	var err error
	for {
		if ctx.Err() != nil {
			break
		}
		if opt.Duration > 0 && now().Sub(start) >= opt.Duration {
			break
		}
		p := buf
		if opt.Bytes > 0 {
			left := opt.Bytes - c.Bytes
			if left == 0 {
				break
			}
			if left < uint64(len(p)) {
				p = p[:left]
			}
		}
		var n int
		n, err = src.Read(p)
		c.Write(p[:n])
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			break
		}
	}

	r := Report{
		Bytes:      c.Bytes,
		Passes:     c.Passes,
		Mismatches: c.Mismatches,
		Skipped:    c.Skipped,
		Elapsed:    now().Sub(start),
	}
	for i := 1; i < len(stamps); i++ {
		r.Intervals = append(r.Intervals, stamps[i].Sub(stamps[i-1]).Seconds())
	}
	switch len(r.Intervals) {
	case 0:
	case 1:
		r.Mean = r.Intervals[0]
	default:
		r.Mean, r.StdDev = stat.MeanStdDev(r.Intervals, nil)
	}
	if r.Mean > 0 {
		r.Baud = float64(len(payload.Data)*opt.FrameBits) / r.Mean
	}
	return r, err
}

// FrameBits returns wire bits per character for a frame description:
// start bit, data bits, optional parity and stop bits.
func FrameBits(dataBits int, parity bool, stopBits int) int {
	n := 1 + dataBits + stopBits
	if parity {
		n++
	}
	return n
}
