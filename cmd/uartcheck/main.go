// Command uartcheck reads a serial firmware's output on the host and
// confirms it is the payload repeated without corruption.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"time"

	"testfw-go/internal/capture"

	"github.com/spf13/cobra"
	"github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

var (
	opts = struct {
		port     string
		baud     int
		bytes    uint64
		duration time.Duration
		driver   string
	}{}

	rootCmd = &cobra.Command{
		Use:          "uartcheck",
		Short:        "Verify the USART test payload from a connected board",
		SilenceUsage: true,
	}

	captureCmd = &cobra.Command{
		Use:   "capture",
		Short: "Capture from a serial port and check the stream",
		RunE:  runCapture,
	}

	portsCmd = &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		RunE:  runPorts,
	}
)

func init() {
	f := captureCmd.Flags()
	f.StringVarP(&opts.port, "port", "P", "", "serial device (default: last port found)")
	f.IntVarP(&opts.baud, "baud", "b", 115200, "line rate")
	f.Uint64VarP(&opts.bytes, "bytes", "n", 0, "stop after this many bytes")
	f.DurationVarP(&opts.duration, "duration", "d", 5*time.Second, "stop after this long")
	f.StringVar(&opts.driver, "driver", "tarm", "serial driver: tarm or bugst")
	rootCmd.AddCommand(captureCmd, portsCmd)
}

// idle turns the (0, io.EOF) tarm returns on read timeout into (0, nil).
type idle struct{ r io.Reader }

func (i idle) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func open(name string) (io.ReadCloser, error) {
	switch opts.driver {
	case "tarm":
		p, err := serial.OpenPort(&serial.Config{
			Name:        name,
			Baud:        opts.baud,
			Size:        8,
			Parity:      serial.ParityNone,
			StopBits:    serial.Stop1,
			ReadTimeout: 100 * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		return struct {
			io.Reader
			io.Closer
		}{idle{p}, p}, nil
	case "bugst":
		p, err := bugst.Open(name, &bugst.Mode{
			BaudRate: opts.baud,
			DataBits: 8,
			Parity:   bugst.NoParity,
			StopBits: bugst.OneStopBit,
		})
		if err != nil {
			return nil, err
		}
		if err := p.SetReadTimeout(100 * time.Millisecond); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	}
	return nil, errors.New("unknown driver " + opts.driver)
}

func defaultPort() (string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}
	return ports[len(ports)-1], nil
}

func runCapture(cmd *cobra.Command, args []string) error {
	name := opts.port
	if name == "" {
		var err error
		if name, err = defaultPort(); err != nil {
			return err
		}
	}
	port, err := open(name)
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd.Printf("capturing from %s at %d baud\n", name, opts.baud)
	rep, err := capture.Run(ctx, port, capture.Options{
		Bytes:     opts.bytes,
		Duration:  opts.duration,
		FrameBits: capture.FrameBits(8, false, 1),
	}, nil)
	if err != nil {
		return err
	}
	cmd.Printf("bytes=%d passes=%d mismatches=%d skipped=%d elapsed=%s\n",
		rep.Bytes, rep.Passes, rep.Mismatches, rep.Skipped, rep.Elapsed.Round(time.Millisecond))
	if len(rep.Intervals) > 0 {
		cmd.Printf("pass interval mean=%.3fms stddev=%.3fms effective baud=%.0f\n",
			rep.Mean*1e3, rep.StdDev*1e3, rep.Baud)
	}
	if !rep.OK() {
		return errors.New("stream check failed")
	}
	cmd.Println("ok")
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return err
	}
	for _, p := range ports {
		cmd.Println(p)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
