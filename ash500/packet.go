package ash500

import (
	"github.com/bemasher/ash500/manchester"
	"github.com/bemasher/ash500/parity"
)

const (
	CaptureLength   = 20
	BitstreamLength = 11
	PacketLength    = 9

	// Packet bytes covered by parity. The last byte carries a parity bit on
	// air but it is never checked.
	CheckedLength = 8

	whitenSeed = 0x89
	whitenStep = 0x24
)

// Bitstream is the line decoded capture. Only the first half of the capture
// length is filled by the line decoder, the final byte receives the bit
// shifted out during realignment.
type Bitstream [BitstreamLength]byte

// Packet is the whitened payload.
type Packet [PacketLength]byte

// ParityBits holds the received parity bit of each packet byte.
type ParityBits [PacketLength]uint8

// Decoded is the dewhitened payload.
type Decoded [PacketLength]byte

// Decode runs the full pipeline on a capture. polarity is the data bit
// consumed by the sync word. The reading is only meaningful if err is nil.
func Decode(data [CaptureLength]byte, polarity uint8) (Reading, error) {
	var r Bitstream

	if n := manchester.Decode(r[:CaptureLength/2], data[:]); n != CaptureLength {
		return Reading{}, DecodeError{ManchesterViolation, n}
	}

	Realign(r[:], polarity)

	p, pb := Unpack(r)
	if err := Validate(p, pb); err != nil {
		return Reading{}, err
	}

	return NewReading(Dewhiten(p)), nil
}

// Realign shifts buf right by one bit. Each byte's top bit is taken from the
// bottom bit of the byte before it and the first byte's top bit from
// polarity.
func Realign(buf []byte, polarity uint8) {
	for idx := len(buf) - 1; idx > 0; idx-- {
		buf[idx] = buf[idx]>>1 | buf[idx-1]<<7
	}
	if len(buf) > 0 {
		buf[0] = buf[0]>>1 | (polarity&0x01)<<7
	}
}

// Unpack splits a realigned bitstream into packet bytes and their parity
// bits. On air each packet byte is followed by its parity bit, so the n-th
// byte starts n bits into r[n]:
//
//	r[0]      r[1]      r[2]      ...  r[8]      r[9]      r[10]
//	P0        p0 P1...  P1 p1 P2  ...  P7 p7     P8        p8
func Unpack(r Bitstream) (p Packet, pb ParityBits) {
	p[0] = r[0]
	for idx := uint(1); idx < 8; idx++ {
		p[idx] = r[idx]<<idx | r[idx+1]>>(8-idx)
	}
	p[8] = r[9]

	for idx := uint(0); idx < 8; idx++ {
		pb[idx] = r[idx+1] >> (7 - idx) & 0x01
	}
	pb[8] = r[10] >> 7

	return
}

// Pack is the inverse of Unpack. Bits of r past the final parity bit are
// zero.
func Pack(p Packet, pb ParityBits) (r Bitstream) {
	r[0] = p[0]
	for idx := uint(1); idx < 8; idx++ {
		r[idx] |= (pb[idx-1]&0x01)<<(8-idx) | p[idx]>>idx
		r[idx+1] = p[idx] << (8 - idx)
	}
	r[8] |= pb[7] & 0x01
	r[9] = p[8]
	r[10] = (pb[8] & 0x01) << 7

	return
}

// Validate checks the even parity of the first CheckedLength packet bytes
// and reports the first mismatch.
func Validate(p Packet, pb ParityBits) error {
	for idx := 0; idx < CheckedLength; idx++ {
		if !parity.Check(p[idx], pb[idx]) {
			return DecodeError{ParityFailure, idx}
		}
	}
	return nil
}

// Parity computes the parity bits a transmitter sends with p.
func Parity(p Packet) (pb ParityBits) {
	for idx, b := range p {
		pb[idx] = parity.Even(b)
	}
	return
}

// Dewhiten reverses the transmitter's byte chain whitening. Every output byte
// depends only on the whitened byte at the same index and the one before it.
func Dewhiten(p Packet) (d Decoded) {
	d[0] = p[0] ^ whitenSeed
	for idx := 1; idx < PacketLength; idx++ {
		d[idx] = (p[idx-1] + whitenStep) ^ p[idx]
	}
	return
}

// Whiten applies the transmitter's whitening. Unlike Dewhiten it must run in
// order since each byte chains on the previous whitened byte.
func Whiten(d Decoded) (p Packet) {
	p[0] = d[0] ^ whitenSeed
	for idx := 1; idx < PacketLength; idx++ {
		p[idx] = (p[idx-1] + whitenStep) ^ d[idx]
	}
	return
}
