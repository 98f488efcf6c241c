//go:build stm32f4

package hal

import (
	"device/arm"
	"device/stm32"
	"machine"

	"testfw-go/clock"
	"testfw-go/errcode"
	"testfw-go/stm32f4"
	"testfw-go/types"

	"tinygo.org/x/drivers"
)

// The runtime has already brought the chip up on its own clock plan.
// Everything below reprograms from there; timers the runtime set up keep
// their old prescalers, and the firmware never sleeps.

type mcu struct{}

// Default returns the STM32F4 platform.
func Default() Platform { return mcu{} }

// ---------------------------------------------------------------------------
// Clocks
// ---------------------------------------------------------------------------

// RCC_CFGR.SW / SWS encodings.
const (
	swHSI = 0b00
	swHSE = 0b01
	swPLL = 0b10
)

const hseStartupSpins = 0x5000

func hpre(div uint32) uint32 {
	switch div {
	case 2:
		return 0b1000
	case 4:
		return 0b1001
	case 8:
		return 0b1010
	case 16:
		return 0b1011
	case 64:
		return 0b1100
	case 128:
		return 0b1101
	case 256:
		return 0b1110
	case 512:
		return 0b1111
	}
	return 0
}

func ppre(div uint32) uint32 {
	switch div {
	case 2:
		return 0b100
	case 4:
		return 0b101
	case 8:
		return 0b110
	case 16:
		return 0b111
	}
	return 0
}

func selectSysClk(sw uint32) {
	stm32.RCC.CFGR.ReplaceBits(sw, 0b11, stm32.RCC_CFGR_SW_Pos)
	for (stm32.RCC.CFGR.Get()>>stm32.RCC_CFGR_SWS_Pos)&0b11 != sw {
	}
}

func setFlashLatency(ws uint8) {
	stm32.FLASH.ACR.Set(stm32.FLASH_ACR_ICEN | stm32.FLASH_ACR_DCEN | stm32.FLASH_ACR_PRFTEN |
		uint32(ws)<<stm32.FLASH_ACR_LATENCY_Pos)
}

func flashLatency() uint8 {
	return uint8((stm32.FLASH.ACR.Get() >> stm32.FLASH_ACR_LATENCY_Pos) & 0xF)
}

func (mcu) ApplyClock(t clock.Tree) error {
	rcc := stm32.RCC

	// Park on HSI, then stop the PLL so it can be reprogrammed.
	rcc.CR.SetBits(stm32.RCC_CR_HSION)
	for !rcc.CR.HasBits(stm32.RCC_CR_HSIRDY) {
	}
	selectSysClk(swHSI)
	rcc.CR.ClearBits(stm32.RCC_CR_PLLON)
	for rcc.CR.HasBits(stm32.RCC_CR_PLLRDY) {
	}

	// Wait states go up before the clock does and down after it.
	if t.FlashLatency > flashLatency() {
		setFlashLatency(t.FlashLatency)
	}

	rcc.CFGR.ReplaceBits(hpre(t.AHB), 0xF, stm32.RCC_CFGR_HPRE_Pos)
	rcc.CFGR.ReplaceBits(ppre(t.APB1), 0b111, stm32.RCC_CFGR_PPRE1_Pos)
	rcc.CFGR.ReplaceBits(ppre(t.APB2), 0b111, stm32.RCC_CFGR_PPRE2_Pos)

	if t.Source == clock.HSE {
		rcc.CR.SetBits(stm32.RCC_CR_HSEON)
		for i := 0; !rcc.CR.HasBits(stm32.RCC_CR_HSERDY); i++ {
			if i == hseStartupSpins {
				return errcode.New(errcode.Unsupported, "clock.hse", "oscillator did not start")
			}
		}
	}

	switch {
	case t.UsesPLL:
		rcc.PLLCFGR.Set(pllcfgr(rcc.PLLCFGR.Get(), t.PLL, t.Source == clock.HSE))
		rcc.CR.SetBits(stm32.RCC_CR_PLLON)
		for !rcc.CR.HasBits(stm32.RCC_CR_PLLRDY) {
		}
		selectSysClk(swPLL)
	case t.Source == clock.HSE:
		selectSysClk(swHSE)
	}

	if t.FlashLatency < flashLatency() {
		setFlashLatency(t.FlashLatency)
	}
	return nil
}

// ---------------------------------------------------------------------------
// USART
// ---------------------------------------------------------------------------

// Upper bound on TXE polls per byte. A byte at 1200 baud from an 100 MHz
// core is well under this.
const txSpinLimit = 1 << 24

func gpioPort(id stm32f4.ID) *stm32.GPIO_Type {
	switch id.Port() {
	case 'B':
		return stm32.GPIOB
	case 'C':
		return stm32.GPIOC
	default:
		return stm32.GPIOA
	}
}

func enableUSART(id stm32f4.ID) (*stm32.USART_Type, bool) {
	switch id {
	case stm32f4.USART1:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_USART1EN)
		return stm32.USART1, true
	case stm32f4.USART2:
		stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_USART2EN)
		return stm32.USART2, true
	case stm32f4.USART6:
		stm32.RCC.APB2ENR.SetBits(stm32.RCC_APB2ENR_USART6EN)
		return stm32.USART6, true
	}
	return nil, false
}

func (mcu) OpenUSART(pins USARTPins, cfg types.UARTConfig, brr uint32) (Port, error) {
	regs, ok := enableUSART(pins.Peri)
	if !ok {
		return nil, errcode.New(errcode.Unsupported, "hal.open", pins.Peri.String())
	}

	tx := machine.Pin(pins.TX.MachinePin())
	rx := machine.Pin(pins.RX.MachinePin())
	tx.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTTX}, pins.TXAF)
	rx.ConfigureAltFunc(machine.PinConfig{Mode: machine.PinModeUARTRX}, pins.RXAF)
	if cfg.TXDrive == types.OpenDrain {
		gpioPort(pins.TX).OTYPER.SetBits(1 << pins.TX.Line())
	} else {
		gpioPort(pins.TX).OTYPER.ClearBits(1 << pins.TX.Line())
	}

	regs.CR1.ClearBits(stm32.USART_CR1_UE)

	var cr1 uint32
	if cfg.WordLength() == 9 {
		cr1 |= stm32.USART_CR1_M
	}
	switch cfg.Parity {
	case types.ParityEven:
		cr1 |= stm32.USART_CR1_PCE
	case types.ParityOdd:
		cr1 |= stm32.USART_CR1_PCE | stm32.USART_CR1_PS
	}
	if cfg.Oversampling == types.Oversample8 {
		cr1 |= stm32.USART_CR1_OVER8
	}
	regs.CR1.Set(cr1)
	regs.CR2.ReplaceBits(uint32(cfg.StopBits), 0b11, stm32.USART_CR2_STOP_Pos)
	regs.CR3.Set(0)
	regs.BRR.Set(brr)
	regs.CR1.SetBits(stm32.USART_CR1_TE | stm32.USART_CR1_RE | stm32.USART_CR1_UE)

	return &usartPort{name: pins.Peri.String(), regs: regs}, nil
}

type usartPort struct {
	name string
	regs *stm32.USART_Type
}

var _ drivers.UART = (*usartPort)(nil)

func (u *usartPort) WriteByte(c byte) error {
	for i := 0; !u.regs.SR.HasBits(stm32.USART_SR_TXE); i++ {
		if i == txSpinLimit {
			return &errcode.E{C: errcode.TxFault, Op: u.name + ".write", Msg: "TXE never set"}
		}
	}
	u.regs.DR.Set(uint32(c))
	return nil
}

func (u *usartPort) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := u.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Read returns whatever is already in the receive register; it never waits.
func (u *usartPort) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && u.regs.SR.HasBits(stm32.USART_SR_RXNE) {
		p[n] = byte(u.regs.DR.Get())
		n++
	}
	return n, nil
}

func (u *usartPort) Buffered() int {
	if u.regs.SR.HasBits(stm32.USART_SR_RXNE) {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Halt
// ---------------------------------------------------------------------------

func (mcu) Halt(err error) {
	println("halt:", err.Error())
	for {
		arm.Asm("wfi")
	}
}
