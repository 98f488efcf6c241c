// Package diag is the one-way, best-effort diagnostic channel. Lines are
// formatted without fmt and handed to a single writer in one call; writer
// errors are dropped so logging can never stall or fail the caller.
package diag

import (
	"io"

	"testfw-go/x/conv"
)

type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Tags are padded to one width so messages line up.
var tags = [...]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO ",
	LevelWarn:  "WARN ",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if int(l) < len(tags) {
		return tags[l]
	}
	return "?????"
}

// ---- fields ----

type kind uint8

const (
	kindUint kind = iota
	kindInt
	kindStr
	kindHex
)

// Field is one key=value pair appended to a line.
type Field struct {
	key  string
	kind kind
	u    uint64
	i    int64
	s    string
}

func U[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](key string, v T) Field {
	return Field{key: key, kind: kindUint, u: uint64(v)}
}

func I[T ~int | ~int8 | ~int16 | ~int32 | ~int64](key string, v T) Field {
	return Field{key: key, kind: kindInt, i: int64(v)}
}

func S(key, v string) Field { return Field{key: key, kind: kindStr, s: v} }

// Hex renders v as 0x followed by eight hex digits.
func Hex(key string, v uint32) Field { return Field{key: key, kind: kindHex, u: uint64(v)} }

// Err renders err.Error(), or "nil".
func Err(err error) Field {
	if err == nil {
		return S("err", "nil")
	}
	return S("err", err.Error())
}

// ---- logger ----

// Logger writes level-tagged lines. A nil *Logger discards everything, so
// variants without diagnostics pass nil.
type Logger struct {
	w   io.Writer
	min Level
	buf []byte
}

func New(w io.Writer, min Level) *Logger {
	return &Logger{w: w, min: min, buf: make([]byte, 0, 96)}
}

func (l *Logger) SetLevel(min Level) {
	if l != nil {
		l.min = min
	}
}

func (l *Logger) Enabled(lv Level) bool { return l != nil && l.w != nil && lv >= l.min }

func (l *Logger) Trace(msg string, f ...Field) { l.Log(LevelTrace, msg, f...) }
func (l *Logger) Debug(msg string, f ...Field) { l.Log(LevelDebug, msg, f...) }
func (l *Logger) Info(msg string, f ...Field)  { l.Log(LevelInfo, msg, f...) }
func (l *Logger) Warn(msg string, f ...Field)  { l.Log(LevelWarn, msg, f...) }
func (l *Logger) Error(msg string, f ...Field) { l.Log(LevelError, msg, f...) }

// Log formats one line and writes it in a single call.
func (l *Logger) Log(lv Level, msg string, fields ...Field) {
	if !l.Enabled(lv) {
		return
	}
	b := append(l.buf[:0], lv.String()...)
	b = append(b, ' ', ' ')
	b = append(b, msg...)
	for _, f := range fields {
		b = append(b, ' ')
		b = append(b, f.key...)
		b = append(b, '=')
		switch f.kind {
		case kindUint:
			b = conv.AppendUint(b, f.u)
		case kindInt:
			b = conv.AppendInt(b, f.i)
		case kindHex:
			b = conv.AppendHex32(b, uint32(f.u))
		default:
			b = append(b, f.s...)
		}
	}
	b = append(b, '\n')
	l.buf = b
	_, _ = l.w.Write(b)
}

// ---- sinks ----

type console struct{}

// Console writes through the runtime's print, i.e. whatever stdout the
// target has (USB CDC, semihosting, or the host terminal).
var Console io.Writer = console{}

func (console) Write(p []byte) (int, error) {
	print(string(p))
	return len(p), nil
}
