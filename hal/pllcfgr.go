package hal

import "testfw-go/clock"

// RCC_PLLCFGR fields (RM0383 6.3.2). Bits outside these are reserved and
// must keep their reset value; bit 29 resets to 1.
const (
	pllcfgrM      = 0x3F << 0
	pllcfgrN      = 0x1FF << 6
	pllcfgrP      = 0x3 << 16
	pllcfgrSrcHSE = 1 << 22
	pllcfgrQ      = 0xF << 24

	pllcfgrFields = pllcfgrM | pllcfgrN | pllcfgrP | pllcfgrSrcHSE | pllcfgrQ
)

// pllcfgr returns old with the PLL fields replaced by p. P is encoded as
// P/2-1.
func pllcfgr(old uint32, p clock.PLL, hse bool) uint32 {
	v := old &^ pllcfgrFields
	v |= p.M<<0&pllcfgrM | p.N<<6&pllcfgrN | (p.P/2-1)<<16&pllcfgrP | p.Q<<24&pllcfgrQ
	if hse {
		v |= pllcfgrSrcHSE
	}
	return v
}
