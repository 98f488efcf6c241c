// Command serial transmits the test payload on USART2 (PA2 TX, PA3 RX)
// forever, with the core left on the reset clock tree.
package main

import (
	"testfw-go/bringup"
	"testfw-go/clock"
	"testfw-go/hal"
	"testfw-go/payload"
	"testfw-go/types"
)

//go:generate go run ../assignres gen -i resources.yaml -o resources_gen.go

var (
	clockConfig = clock.Default()
	uartConfig  = types.DefaultUARTConfig()
)

func setup(seq *bringup.Sequencer) *bringup.Uart {
	p := seq.InitSystem(clockConfig)
	res := bringup.PartitionResources(seq, p, splitResources)
	uart, err := seq.InitUart(res.UART, uartConfig)
	if err != nil {
		seq.Halt(err)
	}
	return uart
}

func main() {
	seq := bringup.New(hal.Default(), nil)
	seq.TransmitLoop(setup(seq), []byte(payload.Data))
}
