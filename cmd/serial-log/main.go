// Command serial-log is serial-clocks with diagnostics: bring-up progress
// and one line per completed payload pass go to the SEGGER RTT terminal.
package main

import (
	"testfw-go/bringup"
	"testfw-go/clock"
	"testfw-go/diag"
	"testfw-go/hal"
	"testfw-go/payload"
	"testfw-go/types"
	"testfw-go/x/rtt"
)

//go:generate go run ../assignres gen -i resources.yaml -o resources_gen.go

const rttSize = 1024

var (
	clockConfig = clock.HSI84MHz()
	uartConfig  = types.DefaultUARTConfig()
	logLevel    = diag.LevelDebug
)

func setup(seq *bringup.Sequencer) *bringup.Uart {
	p := seq.InitSystem(clockConfig)
	res := bringup.PartitionResources(seq, p, splitResources)
	uart, err := seq.InitUart(res.UART, uartConfig)
	if err != nil {
		seq.Halt(err)
	}
	seq.Log().Info("Initialising USART2 and starting TX exercises")
	return uart
}

func main() {
	log := diag.New(rtt.Terminal(rttSize), logLevel)
	seq := bringup.New(hal.Default(), log)
	seq.TransmitLoop(setup(seq), []byte(payload.Data))
}
