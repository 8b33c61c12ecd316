// Package parity computes single-bit even parity over bytes.
package parity

// Table holds the parity bit of every byte value.
type Table [256]uint8

func NewTable() (table Table) {
	for tIdx := range table {
		var p uint8
		for bIdx := uint(0); bIdx < 8; bIdx++ {
			p ^= uint8(tIdx>>bIdx) & 0x01
		}
		table[tIdx] = p
	}
	return table
}

var std = NewTable()

// Even returns the bit that makes the nine bits of b and the parity bit sum
// to an even number, which is the XOR of all bits of b.
func Even(b byte) uint8 {
	return std[b]
}

// Check reports whether bit is the even parity bit of b.
func Check(b byte, bit uint8) bool {
	return std[b] == bit&0x01
}
