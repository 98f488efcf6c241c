package errcode

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	InvalidState  Code = "invalid_state"

	UnknownPin  Code = "unknown_pin"
	PinInUse    Code = "pin_in_use"
	WrongPinMux Code = "wrong_pin_mux"

	TxFault Code = "tx_fault"
	Timeout Code = "timeout"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the failing operation and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New is shorthand for &E{C: c, Op: op, Msg: msg}.
func New(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// IsConfiguration reports whether err was raised while validating or
// applying a static configuration (clock tree, UART framing, pin mux).
func IsConfiguration(err error) bool {
	switch Of(err) {
	case InvalidParams, Unsupported, UnknownPin, PinInUse, WrongPinMux:
		return true
	}
	return false
}

// IsTransmit reports whether err came from the byte transmit path.
func IsTransmit(err error) bool {
	switch Of(err) {
	case TxFault, Timeout:
		return true
	}
	return false
}
