package stm32f4

// ID names one physical identifier that can be owned: a GPIO pin or a
// peripheral instance. The zero ID is invalid.
type ID uint8

// GPIO pins. Values are TinyGo machine pin numbers plus one.
const (
	NoID ID = iota
	PA0
	PA1
	PA2
	PA3
	PA4
	PA5
	PA6
	PA7
	PA8
	PA9
	PA10
	PA11
	PA12
	PA13
	PA14
	PA15
	PB0
	PB1
	PB2
	PB3
	PB4
	PB5
	PB6
	PB7
	PB8
	PB9
	PB10
	PB11
	PB12
	PB13
	PB14
	PB15
	PC0
	PC1
	PC2
	PC3
	PC4
	PC5
	PC6
	PC7
	PC8
	PC9
	PC10
	PC11
	PC12
	PC13
	PC14
	PC15
)

// Peripheral instances.
const (
	USART1 ID = iota + 64
	USART2
	USART6
	idEnd
)

// Kind classifies an ID.
type Kind uint8

const (
	KindNone Kind = iota
	KindPin
	KindUSART
)

func (k Kind) String() string {
	switch k {
	case KindPin:
		return "pin"
	case KindUSART:
		return "usart"
	default:
		return "none"
	}
}

func (id ID) Kind() Kind {
	switch {
	case id >= PA0 && id <= PC15:
		return KindPin
	case id >= USART1 && id < idEnd:
		return KindUSART
	default:
		return KindNone
	}
}

// MachinePin returns the TinyGo machine.Pin number for a pin ID.
func (id ID) MachinePin() uint8 { return uint8(id - PA0) }

// Port returns 'A'.. for pins and 0 otherwise.
func (id ID) Port() byte {
	if id.Kind() != KindPin {
		return 0
	}
	return 'A' + id.MachinePin()/16
}

// Line returns the pin number within its port.
func (id ID) Line() uint8 { return id.MachinePin() % 16 }

var names = [...]string{
	PA0:    "PA0",
	PA1:    "PA1",
	PA2:    "PA2",
	PA3:    "PA3",
	PA4:    "PA4",
	PA5:    "PA5",
	PA6:    "PA6",
	PA7:    "PA7",
	PA8:    "PA8",
	PA9:    "PA9",
	PA10:   "PA10",
	PA11:   "PA11",
	PA12:   "PA12",
	PA13:   "PA13",
	PA14:   "PA14",
	PA15:   "PA15",
	PB0:    "PB0",
	PB1:    "PB1",
	PB2:    "PB2",
	PB3:    "PB3",
	PB4:    "PB4",
	PB5:    "PB5",
	PB6:    "PB6",
	PB7:    "PB7",
	PB8:    "PB8",
	PB9:    "PB9",
	PB10:   "PB10",
	PB11:   "PB11",
	PB12:   "PB12",
	PB13:   "PB13",
	PB14:   "PB14",
	PB15:   "PB15",
	PC0:    "PC0",
	PC1:    "PC1",
	PC2:    "PC2",
	PC3:    "PC3",
	PC4:    "PC4",
	PC5:    "PC5",
	PC6:    "PC6",
	PC7:    "PC7",
	PC8:    "PC8",
	PC9:    "PC9",
	PC10:   "PC10",
	PC11:   "PC11",
	PC12:   "PC12",
	PC13:   "PC13",
	PC14:   "PC14",
	PC15:   "PC15",
	USART1: "USART1",
	USART2: "USART2",
	USART6: "USART6",
}

func (id ID) String() string {
	if int(id) < len(names) && names[id] != "" {
		return names[id]
	}
	return "ID(?)"
}

// Lookup resolves a datasheet name such as "PA2" or "USART2".
func Lookup(name string) (ID, bool) {
	for i, n := range names {
		if n != "" && n == name {
			return ID(i), true
		}
	}
	return NoID, false
}

// All returns every known ID in declaration order.
func All() []ID {
	out := make([]ID, 0, len(names))
	for i, n := range names {
		if n != "" {
			out = append(out, ID(i))
		}
	}
	return out
}
