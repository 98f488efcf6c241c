// Package bringup sequences firmware start-up: clock tree, resource
// partition, USART, then the endless transmit loop. Each step runs once and
// in order; there is no way back to an earlier state.
package bringup

import (
	"testfw-go/clock"
	"testfw-go/diag"
	"testfw-go/errcode"
	"testfw-go/hal"
	"testfw-go/stm32f4"
)

type State uint8

const (
	Uninitialized State = iota
	ClockConfigured
	ResourcesPartitioned
	UartReady
	Transmitting
)

var stateNames = [...]string{
	Uninitialized:        "uninitialized",
	ClockConfigured:      "clock_configured",
	ResourcesPartitioned: "resources_partitioned",
	UartReady:            "uart_ready",
	Transmitting:         "transmitting",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Sequencer owns the platform for the lifetime of the firmware.
type Sequencer struct {
	plat  hal.Platform
	log   *diag.Logger
	state State
	tree  clock.Tree

	take func() *stm32f4.Peripherals
}

// New returns a sequencer in the Uninitialized state. log may be nil.
func New(plat hal.Platform, log *diag.Logger) *Sequencer {
	return &Sequencer{plat: plat, log: log, take: stm32f4.Take}
}

// UseRoot replaces stm32f4.Take as the source of the root object. Host
// tests pass stm32f4.Steal.
func (s *Sequencer) UseRoot(take func() *stm32f4.Peripherals) { s.take = take }

func (s *Sequencer) State() State { return s.state }

// Clock returns the applied clock tree (zero before InitSystem).
func (s *Sequencer) Clock() clock.Tree { return s.tree }

// Log returns the diagnostic logger, possibly nil.
func (s *Sequencer) Log() *diag.Logger { return s.log }

func (s *Sequencer) expect(want State, op string) error {
	if s.state != want {
		return errcode.New(errcode.InvalidState, op, "in state "+s.state.String()+", need "+want.String())
	}
	return nil
}

// Halt logs err and stops the firmware. It does not return.
func (s *Sequencer) Halt(err error) {
	s.log.Error("halting", diag.Err(err))
	s.plat.Halt(err)
	for {
	}
}

// InitSystem resolves and applies cfg and returns the root ownership
// object. An invalid clock configuration halts.
func (s *Sequencer) InitSystem(cfg clock.Config) *stm32f4.Peripherals {
	if err := s.expect(Uninitialized, "init_system"); err != nil {
		s.Halt(err)
	}
	t, err := cfg.Resolve()
	if err != nil {
		s.Halt(err)
	}
	if err := s.plat.ApplyClock(t); err != nil {
		s.Halt(err)
	}
	s.tree = t
	s.state = ClockConfigured
	s.log.Debug("clock tree applied",
		diag.S("src", t.Source.String()),
		diag.U("sysclk_hz", t.SysClk),
		diag.U("pclk1_hz", t.PClk1),
		diag.U("pclk2_hz", t.PClk2),
		diag.U("flash_ws", t.FlashLatency))
	return s.take()
}

// PartitionResources hands the root object to a generated split function,
// which moves every token into exactly one named group.
func PartitionResources[R any](s *Sequencer, p *stm32f4.Peripherals, split func(*stm32f4.Peripherals) R) R {
	if err := s.expect(ClockConfigured, "partition_resources"); err != nil {
		s.Halt(err)
	}
	if p == nil {
		s.Halt(errcode.New(errcode.InvalidParams, "partition_resources", "nil peripherals"))
	}
	r := split(p)
	s.state = ResourcesPartitioned
	return r
}
