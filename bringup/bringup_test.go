package bringup

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"testfw-go/clock"
	"testfw-go/diag"
	"testfw-go/errcode"
	"testfw-go/hal"
	"testfw-go/payload"
	"testfw-go/stm32f4"
	"testfw-go/types"
)

func newTestSeq(t *testing.T, log *diag.Logger) (*Sequencer, *hal.HostPlatform) {
	t.Helper()
	h := hal.NewHost()
	s := New(h, log)
	s.UseRoot(stm32f4.Steal)
	return s, h
}

func split(p *stm32f4.Peripherals) UartResources {
	return UartResources{Peri: stm32f4.Move(&p.USART2), TX: stm32f4.Move(&p.PA2), RX: stm32f4.Move(&p.PA3)}
}

// halted runs fn and returns the error passed to Halt, or nil.
func halted(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(hal.Halted)
			if !ok {
				panic(r)
			}
			err = h.Err
		}
	}()
	fn()
	return nil
}

func bringUp(t *testing.T, s *Sequencer, cfg clock.Config) *Uart {
	t.Helper()
	p := s.InitSystem(cfg)
	res := PartitionResources(s, p, split)
	u, err := s.InitUart(res, types.DefaultUARTConfig())
	if err != nil {
		t.Fatalf("InitUart: %v", err)
	}
	return u
}

func TestStateNames(t *testing.T) {
	if Uninitialized.String() != "uninitialized" || Transmitting.String() != "transmitting" {
		t.Fatal("state names")
	}
	if State(99).String() != "unknown" {
		t.Fatal("out of range state")
	}
}

func TestBringUpVariants(t *testing.T) {
	cases := []struct {
		name   string
		cfg    clock.Config
		sys    uint32
		pclk1  uint32
		brr    uint32
		actual uint32
	}{
		{"default", clock.Default(), 16_000_000, 16_000_000, 139, 115108},
		{"hsi84", clock.HSI84MHz(), 84_000_000, 42_000_000, 365, 115068},
		{"hsi96", clock.HSI96MHz(), 96_000_000, 48_000_000, 417, 115108},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, h := newTestSeq(t, nil)
			u := bringUp(t, s, tc.cfg)
			if s.State() != UartReady {
				t.Fatalf("state = %s", s.State())
			}
			if s.Clock().SysClk != tc.sys || s.Clock().PClk1 != tc.pclk1 {
				t.Fatalf("clock = %d/%d", s.Clock().SysClk, s.Clock().PClk1)
			}
			if got := h.Clocks(); len(got) != 1 || got[0].SysClk != tc.sys {
				t.Fatalf("applied clocks = %+v", got)
			}
			if u.BRR() != tc.brr || u.Baud() != tc.actual {
				t.Fatalf("brr=%d baud=%d, want %d/%d", u.BRR(), u.Baud(), tc.brr, tc.actual)
			}
			if u.Config() != types.DefaultUARTConfig() {
				t.Fatalf("config = %+v", u.Config())
			}
			port, ok := h.Port(stm32f4.USART2)
			if !ok {
				t.Fatal("USART2 not opened")
			}
			if port.BRR != tc.brr || port.Pins.TXAF != 7 || port.Pins.RXAF != 7 {
				t.Fatalf("port = %+v", port.Pins)
			}
		})
	}
}

func TestInvalidClockHalts(t *testing.T) {
	s, h := newTestSeq(t, nil)
	bad := clock.HSI84MHz()
	bad.PLL.N = 600
	err := halted(func() { s.InitSystem(bad) })
	if !errcode.IsConfiguration(err) {
		t.Fatalf("halt error = %v", err)
	}
	if len(h.Clocks()) != 0 {
		t.Fatal("invalid tree must not be applied")
	}
	if s.State() != Uninitialized {
		t.Fatalf("state = %s", s.State())
	}
}

func TestApplyClockFailureHalts(t *testing.T) {
	s, h := newTestSeq(t, nil)
	h.ClockErr = errcode.New(errcode.Unsupported, "rcc", "hse not ready")
	err := halted(func() { s.InitSystem(clock.Default()) })
	if errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("halt error = %v", err)
	}
}

func TestOutOfOrder(t *testing.T) {
	s, _ := newTestSeq(t, nil)
	if _, err := s.InitUart(UartResources{}, types.DefaultUARTConfig()); errcode.Of(err) != errcode.InvalidState {
		t.Fatalf("InitUart before partition: %v", err)
	}
	err := halted(func() { PartitionResources(s, stm32f4.Steal(), split) })
	if errcode.Of(err) != errcode.InvalidState {
		t.Fatalf("partition before clock: %v", err)
	}
	u := bringUp(t, s, clock.Default())
	err = halted(func() { s.InitSystem(clock.Default()) })
	if errcode.Of(err) != errcode.InvalidState {
		t.Fatalf("second InitSystem: %v", err)
	}
	if _, err := s.StartTransmit(u, []byte(payload.Data)); err != nil {
		t.Fatalf("StartTransmit: %v", err)
	}
	if _, err := s.StartTransmit(u, []byte(payload.Data)); errcode.Of(err) != errcode.InvalidState {
		t.Fatalf("second StartTransmit: %v", err)
	}
}

func TestInitUartRejectsBadMux(t *testing.T) {
	cases := []struct {
		name string
		res  func(p *stm32f4.Peripherals) UartResources
		code errcode.Code
	}{
		{"tx on wrong pin", func(p *stm32f4.Peripherals) UartResources {
			return UartResources{Peri: p.USART2, TX: p.PA9, RX: p.PA3}
		}, errcode.WrongPinMux},
		{"rx on tx pin", func(p *stm32f4.Peripherals) UartResources {
			return UartResources{Peri: p.USART2, TX: p.PA2, RX: p.PA2}
		}, errcode.PinInUse},
		{"swapped", func(p *stm32f4.Peripherals) UartResources {
			return UartResources{Peri: p.USART2, TX: p.PA3, RX: p.PA2}
		}, errcode.WrongPinMux},
		{"empty token", func(p *stm32f4.Peripherals) UartResources {
			return UartResources{Peri: p.USART2, TX: p.PA2}
		}, errcode.UnknownPin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestSeq(t, nil)
			p := s.InitSystem(clock.Default())
			res := PartitionResources(s, p, tc.res)
			_, err := s.InitUart(res, types.DefaultUARTConfig())
			if errcode.Of(err) != tc.code || !errcode.IsConfiguration(err) {
				t.Fatalf("err = %v, want %s", err, tc.code)
			}
			if s.State() != ResourcesPartitioned {
				t.Fatalf("state advanced to %s", s.State())
			}
		})
	}
}

func TestReusedRootYieldsNoTokens(t *testing.T) {
	s, _ := newTestSeq(t, nil)
	p := s.InitSystem(clock.Default())
	split(p)
	res := PartitionResources(s, p, split)
	_, err := s.InitUart(res, types.DefaultUARTConfig())
	if errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("err = %v, want %s", err, errcode.UnknownPin)
	}
}

func TestInitUartRejectsUnreachableBaud(t *testing.T) {
	s, _ := newTestSeq(t, nil)
	p := s.InitSystem(clock.Default())
	res := PartitionResources(s, p, split)
	cfg := types.DefaultUARTConfig()
	cfg.Baud = 2_000_000
	if _, err := s.InitUart(res, cfg); !errcode.IsConfiguration(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestPassesAreRepeatedPayload(t *testing.T) {
	s, h := newTestSeq(t, nil)
	u := bringUp(t, s, clock.HSI84MHz())
	tx, err := s.StartTransmit(u, []byte(payload.Data))
	if err != nil {
		t.Fatal(err)
	}
	const n = 1000
	for i := 0; i < n; i++ {
		if err := tx.Pass(); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	port, _ := h.Port(stm32f4.USART2)
	want := bytes.Repeat([]byte(payload.Data), n)
	if !bytes.Equal(port.Sent(), want) {
		t.Fatalf("sent %d bytes, want %d", port.SentLen(), len(want))
	}
	if tx.Passes() != n {
		t.Fatalf("passes = %d", tx.Passes())
	}
	c := payload.NewChecker()
	c.Write(port.Sent())
	if c.Mismatches != 0 || c.Passes < n-1 {
		t.Fatalf("checker: %+v", c)
	}
}

// logProbe records the wire length at the moment each log line is written.
type logProbe struct {
	port  *hal.HostPort
	lines []string
	at    []int
}

func (l *logProbe) Write(p []byte) (int, error) {
	l.lines = append(l.lines, string(p))
	l.at = append(l.at, l.port.SentLen())
	return len(p), nil
}

func TestLogLineOncePerPassAfterLastByte(t *testing.T) {
	probe := &logProbe{}
	s, h := newTestSeq(t, diag.New(probe, diag.LevelInfo))
	u := bringUp(t, s, clock.HSI84MHz())
	probe.port, _ = h.Port(stm32f4.USART2)
	tx, err := s.StartTransmit(u, []byte(payload.Data))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := tx.Pass(); err != nil {
			t.Fatal(err)
		}
	}
	if len(probe.lines) != 5 {
		t.Fatalf("got %d log lines: %q", len(probe.lines), probe.lines)
	}
	for i, line := range probe.lines {
		if !strings.Contains(line, PassLine) {
			t.Fatalf("line %d = %q", i, line)
		}
		if want := (i + 1) * len(payload.Data); probe.at[i] != want {
			t.Fatalf("line %d written at byte %d, want %d", i, probe.at[i], want)
		}
	}
}

func TestNoLoggerStillTransmits(t *testing.T) {
	s, h := newTestSeq(t, nil)
	u := bringUp(t, s, clock.Default())
	tx, _ := s.StartTransmit(u, []byte(payload.Data))
	if err := tx.Pass(); err != nil {
		t.Fatal(err)
	}
	port, _ := h.Port(stm32f4.USART2)
	if port.SentLen() != len(payload.Data) {
		t.Fatalf("sent %d", port.SentLen())
	}
}

func TestTransmitFaultHalts(t *testing.T) {
	var buf bytes.Buffer
	s, h := newTestSeq(t, diag.New(&buf, diag.LevelInfo))
	u := bringUp(t, s, clock.HSI84MHz())
	port, _ := h.Port(stm32f4.USART2)
	fault := &errcode.E{C: errcode.TxFault, Op: "usart2.write", Msg: "TXE never set"}
	port.FailAfter(3*len(payload.Data)+10, fault)

	err := halted(func() { s.TransmitLoop(u, []byte(payload.Data)) })
	if !errors.Is(err, fault) && errcode.Of(err) != errcode.TxFault {
		t.Fatalf("halt error = %v", err)
	}
	if !errcode.IsTransmit(err) {
		t.Fatalf("%v should be a transmit error", err)
	}
	if port.SentLen() != 3*len(payload.Data)+10 {
		t.Fatalf("sent %d before fault", port.SentLen())
	}
	out := buf.String()
	if strings.Count(out, PassLine) != 3 {
		t.Fatalf("log = %q", out)
	}
	if !strings.Contains(out, "halting") {
		t.Fatalf("halt not logged: %q", out)
	}
}

func TestTransmitLoopRejectsEmptyPayload(t *testing.T) {
	s, _ := newTestSeq(t, nil)
	u := bringUp(t, s, clock.Default())
	err := halted(func() { s.TransmitLoop(u, nil) })
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("err = %v", err)
	}
}
