package bringup

import (
	"testfw-go/errcode"
)

// PassLine is logged after every complete traversal of the payload.
const PassLine = "Block complete, looping"

// Transmitter sends one payload repeatedly over a Uart it owns.
type Transmitter struct {
	uart   *Uart
	data   []byte
	s      *Sequencer
	passes uint64
}

// StartTransmit moves the sequencer to Transmitting and hands u over.
func (s *Sequencer) StartTransmit(u *Uart, data []byte) (*Transmitter, error) {
	if err := s.expect(UartReady, "transmit"); err != nil {
		return nil, err
	}
	if u == nil || len(data) == 0 {
		return nil, errcode.New(errcode.InvalidParams, "transmit", "nothing to send")
	}
	s.state = Transmitting
	return &Transmitter{uart: u, data: data, s: s}, nil
}

// Pass writes the payload once, one blocking byte at a time, then logs
// PassLine. The line is never emitted part way through a pass.
func (t *Transmitter) Pass() error {
	for _, c := range t.data {
		if err := t.uart.WriteByte(c); err != nil {
			return err
		}
	}
	t.passes++
	t.s.log.Info(PassLine)
	return nil
}

// Passes counts completed passes.
func (t *Transmitter) Passes() uint64 { return t.passes }

// TransmitLoop sends data forever. A transmit fault halts; nothing retries.
func (s *Sequencer) TransmitLoop(u *Uart, data []byte) {
	t, err := s.StartTransmit(u, data)
	if err != nil {
		s.Halt(err)
	}
	for {
		if err := t.Pass(); err != nil {
			s.Halt(err)
		}
	}
}
