package types

import (
	"testfw-go/errcode"
	"testfw-go/x/mathx"
)

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// Letter is the framing shorthand letter (N, E, O).
func (p Parity) Letter() byte {
	switch p {
	case ParityEven:
		return 'E'
	case ParityOdd:
		return 'O'
	default:
		return 'N'
	}
}

type DataBits uint8

const (
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
	DataBits9 DataBits = 9
)

// StopBits values follow the USART_CR2 STOP field encoding.
type StopBits uint8

const (
	StopBits1   StopBits = 0b00
	StopBits0_5 StopBits = 0b01
	StopBits2   StopBits = 0b10
	StopBits1_5 StopBits = 0b11
)

func (s StopBits) String() string {
	switch s {
	case StopBits0_5:
		return "0.5"
	case StopBits2:
		return "2"
	case StopBits1_5:
		return "1.5"
	default:
		return "1"
	}
}

// Drive is the TX pin output stage.
type Drive uint8

const (
	PushPull Drive = iota
	OpenDrain
)

func (d Drive) String() string {
	if d == OpenDrain {
		return "open-drain"
	}
	return "push-pull"
}

type Oversampling uint8

const (
	Oversample16 Oversampling = iota
	Oversample8
)

// UARTConfig is the immutable framing and line setup for one USART.
type UARTConfig struct {
	Baud         uint32
	DataBits     DataBits
	StopBits     StopBits
	Parity       Parity
	TXDrive      Drive
	Oversampling Oversampling
}

// DefaultUARTConfig is 115200 baud 8N1 with a push-pull TX pin.
func DefaultUARTConfig() UARTConfig {
	return UARTConfig{
		Baud:     115_200,
		DataBits: DataBits8,
		StopBits: StopBits1,
		Parity:   ParityNone,
		TXDrive:  PushPull,
	}
}

// Framing returns the usual shorthand, e.g. "8N1".
func (c UARTConfig) Framing() string {
	return string([]byte{'0' + byte(c.DataBits), c.Parity.Letter()}) + c.StopBits.String()
}

// WordLength is the number of bits the USART shifts per character,
// parity included. Only 8 and 9 are representable in USART_CR1.M.
func (c UARTConfig) WordLength() uint8 {
	n := uint8(c.DataBits)
	if c.Parity != ParityNone {
		n++
	}
	return n
}

// Validate rejects framings the STM32 USART cannot produce.
func (c UARTConfig) Validate() error {
	if c.Baud == 0 {
		return errcode.New(errcode.InvalidParams, "uart", "baud must be non-zero")
	}
	switch c.DataBits {
	case DataBits7, DataBits8, DataBits9:
	default:
		return errcode.New(errcode.Unsupported, "uart", "data bits must be 7, 8 or 9")
	}
	if c.Parity > ParityOdd {
		return errcode.New(errcode.Unsupported, "uart", "unknown parity")
	}
	if c.StopBits > StopBits1_5 {
		return errcode.New(errcode.Unsupported, "uart", "unknown stop bits")
	}
	if c.TXDrive > OpenDrain || c.Oversampling > Oversample8 {
		return errcode.New(errcode.Unsupported, "uart", "unknown drive or oversampling mode")
	}
	if wl := c.WordLength(); wl != 8 && wl != 9 {
		return errcode.New(errcode.Unsupported, "uart", "word length must be 8 or 9 bits including parity")
	}
	return nil
}

// Maximum tolerated difference between requested and achieved baud, per mille.
const MaxBaudErrorPermille = 20

// BRR computes the USART_BRR value for the given kernel clock and returns
// the baud rate that value actually produces.
func (c UARTConfig) BRR(pclk uint32) (brr uint32, actual uint32, err error) {
	if c.Baud == 0 || pclk == 0 {
		return 0, 0, errcode.New(errcode.InvalidParams, "uart", "zero baud or clock")
	}
	// d = USARTDIV * 16 (OVER8=0) or USARTDIV * 8 (OVER8=1).
	d := mathx.RoundDiv(uint64(pclk), uint64(c.Baud))
	// OVER8 keeps a 12-bit mantissa and 3-bit fraction in the 16-bit BRR.
	min, max := uint64(16), uint64(0xFFFF)
	if c.Oversampling == Oversample8 {
		min, max = 8, 0x7FFF
	}
	if d < min || d > max {
		return 0, 0, errcode.New(errcode.Unsupported, "uart", "baud not reachable from bus clock")
	}
	if c.Oversampling == Oversample8 {
		brr = uint32(d>>3)<<4 | uint32(d&7)
	} else {
		brr = uint32(d)
	}
	actual = uint32(mathx.RoundDiv(uint64(pclk), d))
	diff := mathx.Abs(int64(actual) - int64(c.Baud))
	if diff*1000 > int64(c.Baud)*MaxBaudErrorPermille {
		return 0, 0, errcode.New(errcode.Unsupported, "uart", "baud error above tolerance")
	}
	return brr, actual, nil
}
