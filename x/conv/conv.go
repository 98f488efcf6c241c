// Package conv appends integers to byte slices without fmt or strconv, so
// log lines can be built on the MCU with no allocation past the first.
package conv

// AppendUint appends the decimal form of n.
func AppendUint(dst []byte, n uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}

// AppendInt appends the decimal form of n, with a leading '-' if negative.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		// -n overflows for MinInt64; the uint64 conversion does not.
		return AppendUint(append(dst, '-'), uint64(-(n+1))+1)
	}
	return AppendUint(dst, uint64(n))
}

const hexDigits = "0123456789ABCDEF"

// AppendHex32 appends "0x" and eight upper-case, zero-padded hex digits,
// the way register values are read off a datasheet.
func AppendHex32(dst []byte, n uint32) []byte {
	dst = append(dst, '0', 'x')
	for shift := 28; shift >= 0; shift -= 4 {
		dst = append(dst, hexDigits[(n>>uint(shift))&0xF])
	}
	return dst
}

// Hz renders a frequency in whole hertz, e.g. "84000000 Hz".
func Hz(n uint32) string {
	var b [24]byte
	return string(append(AppendUint(b[:0], uint64(n)), " Hz"...))
}
