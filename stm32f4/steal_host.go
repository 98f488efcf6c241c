//go:build !stm32f4

package stm32f4

// Steal returns a fresh root object without the once check, so each host
// test can build its own. It does not exist in firmware builds.
func Steal() *Peripherals { return newPeripherals() }
