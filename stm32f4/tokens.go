package stm32f4

import "sync/atomic"

// Pin is the ownership token for one GPIO pin. Holding it is the only way
// to hand that pin to a driver.
type Pin struct{ id ID }

func (p Pin) ID() ID         { return p.id }
func (p Pin) String() string { return p.id.String() }
func (p Pin) Valid() bool    { return p.id.Kind() == KindPin }

// USART is the ownership token for one USART instance.
type USART struct{ id ID }

func (u USART) ID() ID         { return u.id }
func (u USART) String() string { return u.id.String() }
func (u USART) Valid() bool    { return u.id.Kind() == KindUSART }

// Move returns the token at t and leaves the zero (invalid) token behind,
// so a token taken out of the root cannot be taken again.
func Move[T Pin | USART](t *T) T {
	v := *t
	var zero T
	*t = zero
	return v
}

// Peripherals is the root ownership object: one token per identifier.
// It is obtained once from Take and then split into disjoint groups.
type Peripherals struct {
	USART1 USART
	USART2 USART
	USART6 USART

	PA0  Pin
	PA1  Pin
	PA2  Pin
	PA3  Pin
	PA4  Pin
	PA5  Pin
	PA6  Pin
	PA7  Pin
	PA8  Pin
	PA9  Pin
	PA10 Pin
	PA11 Pin
	PA12 Pin
	PA13 Pin
	PA14 Pin
	PA15 Pin
	PB0  Pin
	PB1  Pin
	PB2  Pin
	PB3  Pin
	PB4  Pin
	PB5  Pin
	PB6  Pin
	PB7  Pin
	PB8  Pin
	PB9  Pin
	PB10 Pin
	PB11 Pin
	PB12 Pin
	PB13 Pin
	PB14 Pin
	PB15 Pin
	PC0  Pin
	PC1  Pin
	PC2  Pin
	PC3  Pin
	PC4  Pin
	PC5  Pin
	PC6  Pin
	PC7  Pin
	PC8  Pin
	PC9  Pin
	PC10 Pin
	PC11 Pin
	PC12 Pin
	PC13 Pin
	PC14 Pin
	PC15 Pin
}

var taken atomic.Bool

// Take returns the root ownership object. It panics if called twice.
func Take() *Peripherals {
	if !taken.CompareAndSwap(false, true) {
		panic("stm32f4: peripherals already taken")
	}
	return newPeripherals()
}

func newPeripherals() *Peripherals {
	return &Peripherals{
		USART1: USART{USART1},
		USART2: USART{USART2},
		USART6: USART{USART6},

		PA0:  Pin{PA0},
		PA1:  Pin{PA1},
		PA2:  Pin{PA2},
		PA3:  Pin{PA3},
		PA4:  Pin{PA4},
		PA5:  Pin{PA5},
		PA6:  Pin{PA6},
		PA7:  Pin{PA7},
		PA8:  Pin{PA8},
		PA9:  Pin{PA9},
		PA10: Pin{PA10},
		PA11: Pin{PA11},
		PA12: Pin{PA12},
		PA13: Pin{PA13},
		PA14: Pin{PA14},
		PA15: Pin{PA15},
		PB0:  Pin{PB0},
		PB1:  Pin{PB1},
		PB2:  Pin{PB2},
		PB3:  Pin{PB3},
		PB4:  Pin{PB4},
		PB5:  Pin{PB5},
		PB6:  Pin{PB6},
		PB7:  Pin{PB7},
		PB8:  Pin{PB8},
		PB9:  Pin{PB9},
		PB10: Pin{PB10},
		PB11: Pin{PB11},
		PB12: Pin{PB12},
		PB13: Pin{PB13},
		PB14: Pin{PB14},
		PB15: Pin{PB15},
		PC0:  Pin{PC0},
		PC1:  Pin{PC1},
		PC2:  Pin{PC2},
		PC3:  Pin{PC3},
		PC4:  Pin{PC4},
		PC5:  Pin{PC5},
		PC6:  Pin{PC6},
		PC7:  Pin{PC7},
		PC8:  Pin{PC8},
		PC9:  Pin{PC9},
		PC10: Pin{PC10},
		PC11: Pin{PC11},
		PC12: Pin{PC12},
		PC13: Pin{PC13},
		PC14: Pin{PC14},
		PC15: Pin{PC15},
	}
}
