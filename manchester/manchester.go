// Package manchester decodes and encodes the line code used by ASH500
// transmitters.
//
// Each source byte carries four logical bits as 2-bit symbol groups, read
// from the least significant pair upwards. A group of 01 is a one, 10 is a
// zero, and 00 or 11 is a line code violation. Two source bytes make one
// output byte: the first supplies the high nibble, the second the low nibble.
package manchester

import "fmt"

const (
	one  = 0x01
	zero = 0x02
)

// ViolationError reports the index of the first source byte containing an
// invalid symbol pair.
type ViolationError struct {
	Index int
}

func (e ViolationError) Error() string {
	return fmt.Sprintf("manchester violation in source byte %d", e.Index)
}

// Decode decodes src into dst, which must hold at least len(src)/2 bytes. dst
// may alias src. Decoding stops at the first invalid symbol pair and the index
// of the offending source byte is returned, otherwise len(src) is returned.
// Bytes of dst past the failing pair are left untouched.
func Decode(dst, src []byte) (n int) {
	for idx := 0; idx+1 < len(src); idx += 2 {
		hi, ok := nibble(src[idx])
		if !ok {
			return idx
		}

		lo, ok := nibble(src[idx+1])
		if !ok {
			return idx + 1
		}

		dst[idx>>1] = hi<<4 | lo
	}

	return len(src)
}

// DecodeErr is Decode with the consumed count turned into an error.
func DecodeErr(dst, src []byte) error {
	if n := Decode(dst, src); n != len(src) {
		return ViolationError{n}
	}
	return nil
}

// Decodes the four symbol groups of b, least significant first.
func nibble(b byte) (v byte, ok bool) {
	for bit := uint(0); bit < 4; bit++ {
		switch (b >> (bit << 1)) & 0x03 {
		case one:
			v |= 1 << bit
		case zero:
		default:
			return 0, false
		}
	}
	return v, true
}

// LUT maps a nibble to its symbol byte.
type LUT [16]byte

func NewLUT() (lut LUT) {
	for n := range lut {
		for bit := uint(0); bit < 4; bit++ {
			sym := byte(zero)
			if n>>bit&1 == 1 {
				sym = one
			}
			lut[n] |= sym << (bit << 1)
		}
	}
	return
}

// Encode returns the line coded form of data, twice its length.
func (lut LUT) Encode(data []byte) (symbols []byte) {
	symbols = make([]byte, len(data)<<1)

	for idx, b := range data {
		symbols[idx<<1] = lut[b>>4]
		symbols[idx<<1+1] = lut[b&0x0F]
	}

	return
}
