package assign

import (
	"strings"
	"testing"

	"testfw-go/errcode"
	"testfw-go/stm32f4"
)

const uartDecl = `
package: main
groups:
  uart:
    type: testfw-go/bringup.UartResources
    fields:
      peri: USART2
      tx: PA2
      rx: PA3
`

func mustParse(t *testing.T, src string) *Decl {
	t.Helper()
	d, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func TestParseKeepsOrder(t *testing.T) {
	d := mustParse(t, `
groups:
  status:
    type: StatusResources
    fields:
      led: PC13
      button: PA0
  uart:
    type: testfw-go/bringup.UartResources
    fields:
      rx: PA3
      tx: PA2
      peri: USART2
`)
	if d.Package != "main" {
		t.Fatalf("default package = %q", d.Package)
	}
	if len(d.Groups) != 2 || d.Groups[0].Name != "status" || d.Groups[1].Name != "uart" {
		t.Fatalf("groups = %+v", d.Groups)
	}
	var got []string
	for _, f := range d.Groups[1].Fields {
		got = append(got, f.Name)
	}
	if strings.Join(got, ",") != "rx,tx,peri" {
		t.Fatalf("field order = %v", got)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if d.Groups[1].Fields[2].ID() != stm32f4.USART2 {
		t.Fatal("identifier not resolved")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"not yaml":      "groups: [",
		"empty":         "",
		"scalar root":   "hello",
		"unknown key":   "pins: {}",
		"groups list":   "groups: [a, b]",
		"group key":     "groups:\n  uart:\n    typ: X\n",
		"field mapping": "groups:\n  uart:\n    type: X\n    fields:\n      tx: [PA2, PA3]\n",
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); errcode.Of(err) != errcode.InvalidParams {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code errcode.Code
		msg  string
	}{
		{"double claim", `
groups:
  uart:
    type: testfw-go/bringup.UartResources
    fields: {peri: USART2, tx: PA2, rx: PA3}
  led:
    type: LedResources
    fields: {pin: PA2}
`, errcode.PinInUse, "uart.tx and led.pin"},
		{"double claim in one group", `
groups:
  uart:
    type: U
    fields: {tx: PA2, rx: PA2}
`, errcode.PinInUse, "uart.tx and uart.rx"},
		{"unknown identifier", `
groups:
  uart:
    type: U
    fields: {tx: PD2}
`, errcode.UnknownPin, "PD2"},
		{"empty group", `
groups:
  uart:
    type: U
    fields: {}
`, errcode.InvalidParams, "empty"},
		{"no groups", `package: main`, errcode.InvalidParams, "no groups"},
		{"bad type", `
groups:
  uart:
    type: lower
    fields: {tx: PA2}
`, errcode.InvalidParams, "bad type"},
		{"reserved type", `
groups:
  uart:
    type: AssignedResources
    fields: {tx: PA2}
`, errcode.InvalidParams, "reserved"},
		{"bad qualified type", `
groups:
  uart:
    type: testfw-go/bringup.
    fields: {tx: PA2}
`, errcode.InvalidParams, "qualified"},
		{"bad field name", `
groups:
  uart:
    type: U
    fields: {"t-x": PA2}
`, errcode.InvalidParams, "field name"},
		{"field collides after export", `
groups:
  uart:
    type: U
    fields: {tx: PA2, TX: PA3}
`, errcode.InvalidParams, "repeated"},
		{"bad package", `
package: 9lives
groups:
  uart:
    type: U
    fields: {tx: PA2}
`, errcode.InvalidParams, "package"},
		{"shared local type", `
groups:
  a:
    type: U
    fields: {tx: PA2}
  b:
    type: U
    fields: {tx: PA9}
`, errcode.InvalidParams, "declared by a and b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := mustParse(t, tc.src)
			err := d.Validate()
			if errcode.Of(err) != tc.code {
				t.Fatalf("err = %v, want %s", err, tc.code)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("err %q does not mention %q", err, tc.msg)
			}
		})
	}
}

func TestGroupTypeNames(t *testing.T) {
	g := Group{Type: "testfw-go/bringup.UartResources"}
	if !g.External() || g.ImportPath() != "testfw-go/bringup" || g.TypeName() != "bringup.UartResources" {
		t.Fatalf("external: %v %q %q", g.External(), g.ImportPath(), g.TypeName())
	}
	g = Group{Type: "LedResources"}
	if g.External() || g.TypeName() != "LedResources" {
		t.Fatalf("local: %v %q", g.External(), g.TypeName())
	}
}

func TestExported(t *testing.T) {
	cases := map[string]string{"tx": "TX", "rx": "RX", "uart": "UART", "peri": "Peri", "button": "Button", "Led": "LED"}
	for in, want := range cases {
		if got := exported(in); got != want {
			t.Fatalf("exported(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerate(t *testing.T) {
	d := mustParse(t, uartDecl+`
  status:
    type: StatusResources
    fields:
      led: PC13
`)
	out, err := Generate(d, "resources.yaml")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	src := string(out)
	for _, want := range []string{
		"// Code generated by assignres from resources.yaml. DO NOT EDIT.",
		"package main",
		`"testfw-go/bringup"`,
		`"testfw-go/stm32f4"`,
		"type StatusResources struct {\n\tLED stm32f4.Pin\n}",
		"UART   bringup.UartResources",
		"Status StatusResources",
		"func splitResources(p *stm32f4.Peripherals) AssignedResources {",
		"Peri: stm32f4.Move(&p.USART2),",
		"TX:   stm32f4.Move(&p.PA2),",
		"LED: stm32f4.Move(&p.PC13),",
		"stm32f4.USART2: \"uart\",",
		"stm32f4.PC13:   \"status\",",
		"var claimGroups = []string{\"uart\", \"status\"}",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("generated source lacks %q:\n%s", want, src)
		}
	}
	if strings.Index(src, "p.USART2") > strings.Index(src, "p.PA3") {
		t.Fatal("field order not preserved")
	}
}

func TestGenerateRejectsInvalid(t *testing.T) {
	d := mustParse(t, "groups:\n  uart:\n    type: U\n    fields: {tx: PA2, rx: PA2}\n")
	if _, err := Generate(d, "x.yaml"); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("err = %v", err)
	}
}
