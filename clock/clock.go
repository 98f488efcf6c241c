// Package clock describes and resolves the STM32F411 clock tree.
package clock

import (
	"testfw-go/errcode"
	"testfw-go/stm32f4"
	"testfw-go/x/conv"
	"testfw-go/x/mathx"
)

// Source selects the oscillator feeding SYSCLK or the PLL.
type Source uint8

const (
	HSI Source = iota
	HSE
)

func (s Source) String() string {
	if s == HSE {
		return "hse"
	}
	return "hsi"
}

// HSIHz is the internal RC oscillator frequency.
const HSIHz = 16_000_000

// STM32F411 operating limits (DS10314, 3.3 V supply).
const (
	maxSysClk = 100_000_000
	maxPClk1  = 50_000_000
	maxPClk2  = 100_000_000

	minHSE = 4_000_000
	maxHSE = 26_000_000

	minPLLIn = 950_000
	maxPLLIn = 2_100_000
	minVCO   = 100_000_000
	maxVCO   = 432_000_000
	minPLLM  = 2
	maxPLLM  = 63
	minPLLN  = 50
	maxPLLN  = 432
	minPLLQ  = 2
	maxPLLQ  = 15
)

// PLL holds the main PLL dividers:
// VCO = (src / M) * N, SYSCLK = VCO / P, PLL48CK = VCO / Q.
type PLL struct {
	M uint32 // input prescaler ("prediv")
	N uint32 // multiplier
	P uint32 // system output divider, one of 2, 4, 6, 8
	Q uint32 // 48 MHz domain divider
}

// Config is the clock configuration applied once at startup.
// A nil PLL runs SYSCLK straight from the source oscillator.
// Bus divisors of zero mean 1.
type Config struct {
	Source Source
	HSEHz  uint32
	PLL    *PLL

	AHB  uint32 // 1, 2, 4 ... 512
	APB1 uint32 // 1, 2, 4, 8, 16
	APB2 uint32 // 1, 2, 4, 8, 16
}

// Tree is a resolved Config: every frequency the hardware will run at.
type Tree struct {
	Source  Source
	SrcHz   uint32
	UsesPLL bool
	PLL     PLL
	VCOHz   uint32

	SysClk uint32
	HClk   uint32
	PClk1  uint32
	PClk2  uint32
	PLL48  uint32

	AHB, APB1, APB2 uint32

	FlashLatency uint8 // wait states
}

// Default is the reset clock tree: HSI straight to SYSCLK, no dividers.
func Default() Config { return Config{Source: HSI} }

// HSI84MHz runs the PLL from HSI at 84 MHz with APB1 at 42 MHz.
func HSI84MHz() Config {
	return Config{
		Source: HSI,
		PLL:    &PLL{M: 16, N: 336, P: 4, Q: 7},
		APB1:   2,
	}
}

// HSI96MHz runs the PLL from HSI at 96 MHz with a 48 MHz USB clock.
func HSI96MHz() Config {
	return Config{
		Source: HSI,
		PLL:    &PLL{M: 16, N: 384, P: 4, Q: 8},
		APB1:   2,
	}
}

func invalid(msg string) error {
	return errcode.New(errcode.InvalidParams, "clock", msg)
}

func or1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

func isPow2In(v, max uint32) bool {
	return v != 0 && v&(v-1) == 0 && v <= max
}

// Resolve computes the clock tree and checks it against the part's limits.
// An error here is a configuration error; the firmware must not run with it.
func (c Config) Resolve() (Tree, error) {
	t := Tree{
		Source: c.Source,
		AHB:    or1(c.AHB),
		APB1:   or1(c.APB1),
		APB2:   or1(c.APB2),
	}

	switch c.Source {
	case HSI:
		t.SrcHz = HSIHz
	case HSE:
		if !mathx.Between(c.HSEHz, minHSE, maxHSE) {
			return Tree{}, invalid("hse frequency out of range: " + conv.Hz(c.HSEHz))
		}
		t.SrcHz = c.HSEHz
	default:
		return Tree{}, invalid("unknown clock source")
	}

	if !isPow2In(t.AHB, 512) || t.AHB == 32 {
		return Tree{}, invalid("invalid ahb prescaler")
	}
	if !isPow2In(t.APB1, 16) || !isPow2In(t.APB2, 16) {
		return Tree{}, invalid("invalid apb prescaler")
	}

	t.SysClk = t.SrcHz
	if p := c.PLL; p != nil {
		if !mathx.Between(p.M, minPLLM, maxPLLM) {
			return Tree{}, invalid("pll m out of range")
		}
		if !mathx.Between(p.N, minPLLN, maxPLLN) {
			return Tree{}, invalid("pll n out of range")
		}
		if p.P != 2 && p.P != 4 && p.P != 6 && p.P != 8 {
			return Tree{}, invalid("pll p must be 2, 4, 6 or 8")
		}
		if !mathx.Between(p.Q, minPLLQ, maxPLLQ) {
			return Tree{}, invalid("pll q out of range")
		}
		in := t.SrcHz / p.M
		if !mathx.Between(in, minPLLIn, maxPLLIn) {
			return Tree{}, invalid("pll input out of range: " + conv.Hz(in))
		}
		vco := uint64(t.SrcHz) * uint64(p.N) / uint64(p.M)
		if vco < minVCO || vco > maxVCO {
			return Tree{}, invalid("pll vco out of range: " + conv.Hz(uint32(vco)))
		}
		t.UsesPLL = true
		t.PLL = *p
		t.VCOHz = uint32(vco)
		t.SysClk = uint32(vco / uint64(p.P))
		t.PLL48 = uint32(vco / uint64(p.Q))
	}

	if t.SysClk > maxSysClk {
		return Tree{}, invalid("sysclk exceeds rated frequency: " + conv.Hz(t.SysClk))
	}
	t.HClk = t.SysClk / t.AHB
	t.PClk1 = t.HClk / t.APB1
	t.PClk2 = t.HClk / t.APB2
	if t.PClk1 > maxPClk1 {
		return Tree{}, invalid("apb1 exceeds 50 MHz: " + conv.Hz(t.PClk1))
	}
	if t.PClk2 > maxPClk2 {
		return Tree{}, invalid("apb2 exceeds 100 MHz: " + conv.Hz(t.PClk2))
	}
	t.FlashLatency = flashLatency(t.HClk)
	return t, nil
}

// flashLatency returns wait states for HCLK at 2.7-3.6 V (RM0383 table 5).
func flashLatency(hclk uint32) uint8 {
	switch {
	case hclk <= 30_000_000:
		return 0
	case hclk <= 64_000_000:
		return 1
	case hclk <= 90_000_000:
		return 2
	default:
		return 3
	}
}

// PClk returns the clock of the given APB bus.
func (t Tree) PClk(bus stm32f4.Bus) uint32 {
	if bus == stm32f4.APB2 {
		return t.PClk2
	}
	return t.PClk1
}
