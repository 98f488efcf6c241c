package bringup

import (
	"testfw-go/diag"
	"testfw-go/errcode"
	"testfw-go/hal"
	"testfw-go/stm32f4"
	"testfw-go/types"
)

// UartResources is the resource group a USART transmitter consumes.
type UartResources struct {
	Peri stm32f4.USART
	TX   stm32f4.Pin
	RX   stm32f4.Pin
}

// Uart is the live handle to one configured USART. There is one per
// instance and it is not shared.
type Uart struct {
	port hal.Port
	pins hal.USARTPins
	cfg  types.UARTConfig
	brr  uint32
	baud uint32
}

func (u *Uart) Config() types.UARTConfig { return u.cfg }
func (u *Uart) Pins() hal.USARTPins      { return u.pins }

// Baud is the rate the programmed divider actually produces.
func (u *Uart) Baud() uint32 { return u.baud }
func (u *Uart) BRR() uint32  { return u.brr }

// WriteByte blocks until the hardware accepts c.
func (u *Uart) WriteByte(c byte) error { return u.port.WriteByte(c) }

// BlockingWrite sends p one byte at a time.
func (u *Uart) BlockingWrite(p []byte) error {
	for _, c := range p {
		if err := u.port.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}

func checkPins(res UartResources) (hal.USARTPins, error) {
	const op = "init_uart"
	if !res.Peri.Valid() || !res.TX.Valid() || !res.RX.Valid() {
		return hal.USARTPins{}, errcode.New(errcode.UnknownPin, op, "resource group holds an empty token")
	}
	if res.TX.ID() == res.RX.ID() {
		return hal.USARTPins{}, errcode.New(errcode.PinInUse, op, "tx and rx share "+res.TX.String())
	}
	txAF, ok := stm32f4.USARTAltFunc(res.Peri.ID(), res.TX.ID(), true)
	if !ok {
		return hal.USARTPins{}, errcode.New(errcode.WrongPinMux, op, res.TX.String()+" cannot carry "+res.Peri.String()+" TX")
	}
	rxAF, ok := stm32f4.USARTAltFunc(res.Peri.ID(), res.RX.ID(), false)
	if !ok {
		return hal.USARTPins{}, errcode.New(errcode.WrongPinMux, op, res.RX.String()+" cannot carry "+res.Peri.String()+" RX")
	}
	return hal.USARTPins{
		Peri: res.Peri.ID(), TX: res.TX.ID(), RX: res.RX.ID(),
		TXAF: txAF, RXAF: rxAF,
	}, nil
}

// InitUart binds the group's pins and USART to cfg. Every error is a
// configuration error; callers halt on it.
func (s *Sequencer) InitUart(res UartResources, cfg types.UARTConfig) (*Uart, error) {
	if err := s.expect(ResourcesPartitioned, "init_uart"); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pins, err := checkPins(res)
	if err != nil {
		return nil, err
	}
	bus, _ := stm32f4.USARTBus(pins.Peri)
	brr, baud, err := cfg.BRR(s.tree.PClk(bus))
	if err != nil {
		return nil, err
	}
	port, err := s.plat.OpenUSART(pins, cfg, brr)
	if err != nil {
		return nil, err
	}
	s.state = UartReady
	s.log.Debug("usart configured",
		diag.S("usart", pins.Peri.String()),
		diag.S("tx", pins.TX.String()),
		diag.S("rx", pins.RX.String()),
		diag.S("frame", cfg.Framing()),
		diag.U("baud", baud),
		diag.Hex("brr", brr))
	return &Uart{port: port, pins: pins, cfg: cfg, brr: brr, baud: baud}, nil
}
