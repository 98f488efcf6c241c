// Package hal is the only code that touches hardware. Platform-specific
// files are selected by build tags: stm32f4 on the target, host fakes
// everywhere else.
package hal

import (
	"testfw-go/clock"
	"testfw-go/stm32f4"
	"testfw-go/types"

	"tinygo.org/x/drivers"
)

// USARTPins is a checked USART wiring: the instance, its pins and the
// alternate function each pin is switched to.
type USARTPins struct {
	Peri       stm32f4.ID
	TX, RX     stm32f4.ID
	TXAF, RXAF uint8
}

// Port is a configured USART. It is owned by exactly one caller.
type Port interface {
	drivers.UART
	// WriteByte blocks until the transmit data register takes c.
	WriteByte(c byte) error
}

// Platform applies configuration to the chip.
type Platform interface {
	// ApplyClock switches SYSCLK and the bus prescalers to t.
	ApplyClock(t clock.Tree) error
	// OpenUSART programs the pins and the USART. brr is the precomputed
	// USART_BRR value for the bus clock currently applied.
	OpenUSART(pins USARTPins, cfg types.UARTConfig, brr uint32) (Port, error)
	// Halt stops the firmware after a fatal error. It does not return.
	Halt(err error)
}
