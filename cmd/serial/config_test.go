package main

import (
	"os"
	"testing"

	"testfw-go/bringup"
	"testfw-go/hal"
	"testfw-go/internal/assign"
	"testfw-go/stm32f4"
)

func TestClockTree(t *testing.T) {
	tree, err := clockConfig.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tree.SysClk != 16_000_000 || tree.PClk1 != 16_000_000 {
		t.Fatalf("sysclk=%d pclk1=%d", tree.SysClk, tree.PClk1)
	}
}

func TestUARTDivisor(t *testing.T) {
	tree, _ := clockConfig.Resolve()
	bus, _ := stm32f4.USARTBus(stm32f4.USART2)
	brr, _, err := uartConfig.BRR(tree.PClk(bus))
	if err != nil {
		t.Fatalf("BRR: %v", err)
	}
	if brr != 139 {
		t.Fatalf("brr = %d, want 139", brr)
	}
}

func TestClaimsPartition(t *testing.T) {
	if err := claims.Check(claimGroups...); err != nil {
		t.Fatalf("Check: %v", err)
	}
	src, err := os.ReadFile("resources.yaml")
	if err != nil {
		t.Fatal(err)
	}
	d, err := assign.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
	decl := d.Claims()
	if len(decl) != len(claims) {
		t.Fatalf("resources.yaml claims %d identifiers, resources_gen.go %d; run go generate", len(decl), len(claims))
	}
	for _, c := range decl {
		if owner, ok := claims.Owner(c.ID()); !ok || owner != c.Name {
			t.Fatalf("%s: generated owner %q, declared %q; run go generate", c.ID(), owner, c.Name)
		}
	}
}

func TestSplitMovesUARTGroup(t *testing.T) {
	p := stm32f4.Steal()
	res := splitResources(p)
	if p.USART2.Valid() || p.PA2.Valid() || p.PA3.Valid() {
		t.Fatal("split left claimed tokens in the root")
	}
	if again := splitResources(p); again.UART.TX.Valid() {
		t.Fatal("second split handed out PA2 again")
	}
	if res.UART.Peri.ID() != stm32f4.USART2 || res.UART.TX.ID() != stm32f4.PA2 || res.UART.RX.ID() != stm32f4.PA3 {
		t.Fatalf("uart group = %v %v %v", res.UART.Peri, res.UART.TX, res.UART.RX)
	}
}

func TestSetupOnHost(t *testing.T) {
	h := hal.NewHost()
	seq := bringup.New(h, nil)
	seq.UseRoot(stm32f4.Steal)
	u := setup(seq)
	if seq.State() != bringup.UartReady || u.BRR() != 139 {
		t.Fatalf("state=%s brr=%d", seq.State(), u.BRR())
	}
	if _, ok := h.Port(stm32f4.USART2); !ok {
		t.Fatal("USART2 not opened")
	}
}
