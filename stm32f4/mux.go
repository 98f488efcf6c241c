package stm32f4

// Bus identifies the APB bus clocking a peripheral.
type Bus uint8

const (
	APB1 Bus = iota + 1
	APB2
)

type usartMux struct {
	bus Bus
	af  uint8
	tx  []ID
	rx  []ID
}

// STM32F411 datasheet, table 9 (alternate function mapping).
var usartMuxes = map[ID]usartMux{
	USART1: {bus: APB2, af: 7, tx: []ID{PA9, PA15, PB6}, rx: []ID{PA10, PB3, PB7}},
	USART2: {bus: APB1, af: 7, tx: []ID{PA2}, rx: []ID{PA3}},
	USART6: {bus: APB2, af: 8, tx: []ID{PA11, PC6}, rx: []ID{PA12, PC7}},
}

// USARTBus reports which APB bus clocks u.
func USARTBus(u ID) (Bus, bool) {
	m, ok := usartMuxes[u]
	return m.bus, ok
}

// USARTAltFunc returns the alternate function number that routes pin to u
// in the given direction, and false if the pin cannot carry that signal.
func USARTAltFunc(u, pin ID, tx bool) (uint8, bool) {
	m, ok := usartMuxes[u]
	if !ok {
		return 0, false
	}
	set := m.rx
	if tx {
		set = m.tx
	}
	for _, p := range set {
		if p == pin {
			return m.af, true
		}
	}
	return 0, false
}
