package ash500

import (
	"bytes"
	"math/rand"
	"testing"
	"testing/quick"

	"golang.org/x/xerrors"
)

const (
	Trials = 512
)

var testPacket = Packet{0x12, 0x34, 0x56, 0x78, 0x9A, 0x2F, 0x64, 0xBC, 0x00}

func TestRealign(t *testing.T) {
	for _, tc := range []struct {
		in       []byte
		polarity uint8
		out      []byte
	}{
		{[]byte{0x01, 0x80, 0x03}, 1, []byte{0x80, 0xC0, 0x01}},
		{[]byte{0x01, 0x80, 0x03}, 0, []byte{0x00, 0xC0, 0x01}},
		{[]byte{0xFF, 0xFF}, 0, []byte{0x7F, 0xFF}},
		{[]byte{0x00}, 1, []byte{0x80}},
	} {
		buf := make([]byte, len(tc.in))
		copy(buf, tc.in)

		Realign(buf, tc.polarity)
		if !bytes.Equal(buf, tc.out) {
			t.Fatalf("Realign(%02X, %d): expected %02X got %02X\n", tc.in, tc.polarity, tc.out, buf)
		}
	}
}

func TestUnpack(t *testing.T) {
	var r Bitstream
	r[0] = 0xA5
	r[1] = 0x80 | 0x7F>>1 // p0 = 1, P1 = 0b0111111x
	r[2] = 0x80 | 0x40    // P1 low bit = 1, p1 = 1
	r[9] = 0x3C
	r[10] = 0x80

	p, pb := Unpack(r)

	if p[0] != 0xA5 {
		t.Fatalf("P[0]: expected 0x%02X got 0x%02X\n", 0xA5, p[0])
	}
	if p[1] != 0x7F {
		t.Fatalf("P[1]: expected 0x%02X got 0x%02X\n", 0x7F, p[1])
	}
	if p[8] != 0x3C {
		t.Fatalf("P[8]: expected 0x%02X got 0x%02X\n", 0x3C, p[8])
	}
	if pb[0] != 1 || pb[1] != 1 || pb[2] != 0 || pb[8] != 1 {
		t.Fatalf("unexpected parity bits: %d\n", pb)
	}
}

func TestUnpackWindow(t *testing.T) {
	r := Bitstream{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA}
	p, _ := Unpack(r)

	for idx := uint(1); idx < 8; idx++ {
		expt := r[idx]<<idx | r[idx+1]>>(8-idx)
		if p[idx] != expt {
			t.Fatalf("P[%d]: expected 0x%02X got 0x%02X\n", idx, expt, p[idx])
		}
	}
}

func TestPackIdentity(t *testing.T) {
	err := quick.Check(func(p Packet, pb ParityBits) bool {
		for idx := range pb {
			pb[idx] &= 0x01
		}

		rp, rpb := Unpack(Pack(p, pb))
		return rp == p && rpb == pb
	}, nil)

	if err != nil {
		t.Fatal("Error testing identity:", err)
	}
}

func randPacket() (p Packet) {
	rand.Read(p[:])
	return
}

func TestValidate(t *testing.T) {
	for trial := 0; trial < Trials; trial++ {
		p := randPacket()
		if err := Validate(p, Parity(p)); err != nil {
			t.Fatalf("%02X: %+v\n", p, err)
		}
	}
}

func TestValidateSingleFlip(t *testing.T) {
	for trial := 0; trial < Trials; trial++ {
		p := randPacket()
		pb := Parity(p)

		for idx := 0; idx < CheckedLength; idx++ {
			corrupt := p
			corrupt[idx] ^= 1 << uint(rand.Intn(8))

			err := Validate(corrupt, pb)

			var decErr DecodeError
			if !xerrors.As(err, &decErr) {
				t.Fatalf("byte %d: expected DecodeError got %+v\n", idx, err)
			}
			if decErr.Kind != ParityFailure || decErr.Index != idx {
				t.Fatalf("byte %d: expected parity failure at %d got %+v\n", idx, idx, decErr)
			}
		}
	}
}

func TestValidateDoubleFlip(t *testing.T) {
	for trial := 0; trial < Trials; trial++ {
		p := randPacket()
		pb := Parity(p)

		for idx := 0; idx < CheckedLength; idx++ {
			i := uint(rand.Intn(8))
			j := (i + 1 + uint(rand.Intn(7))) % 8

			corrupt := p
			corrupt[idx] ^= 1<<i | 1<<j

			if err := Validate(corrupt, pb); err != nil {
				t.Fatalf("byte %d bits %d,%d: %+v\n", idx, i, j, err)
			}
		}
	}
}

func TestValidateLastByte(t *testing.T) {
	p := randPacket()
	pb := Parity(p)
	pb[8] ^= 0x01

	if err := Validate(p, pb); err != nil {
		t.Fatalf("last byte must not be checked: %+v\n", err)
	}
}

func TestValidateFirstFailure(t *testing.T) {
	p := randPacket()
	pb := Parity(p)
	pb[3] ^= 0x01
	pb[5] ^= 0x01

	err := Validate(p, pb)
	if err != (DecodeError{ParityFailure, 3}) {
		t.Fatalf("Expected parity failure at 3 got %+v\n", err)
	}
}

func TestDewhiten(t *testing.T) {
	d := Dewhiten(testPacket)
	expt := Decoded{0x9B, 0x02, 0x0E, 0x02, 0x06, 0x91, 0x37, 0x34, 0xE0}

	if d != expt {
		t.Fatalf("Expected %02X got %02X\n", expt, d)
	}
}

// Rewhitening any dewhitened byte with the same preceding whitened byte
// recovers the whitened byte.
func TestDewhitenInvertible(t *testing.T) {
	err := quick.Check(func(p Packet) bool {
		d := Dewhiten(p)
		if d[0]^whitenSeed != p[0] {
			return false
		}
		for idx := 1; idx < PacketLength; idx++ {
			if (p[idx-1]+whitenStep)^d[idx] != p[idx] {
				return false
			}
		}
		return Whiten(d) == p
	}, nil)

	if err != nil {
		t.Fatal("Error testing identity:", err)
	}
}

func TestDecodeZeros(t *testing.T) {
	var data [CaptureLength]byte
	for idx := range data {
		data[idx] = 0xAA
	}

	r, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}

	expt := Reading{Serial: 0x24, Temperature: 0x2424, Humidity: 0x24}
	if r != expt {
		t.Fatalf("Expected %+v got %+v\n", expt, r)
	}
}

func TestDecodeViolation(t *testing.T) {
	var data [CaptureLength]byte
	for idx := range data {
		data[idx] = 0xAA
	}

	for k := 0; k < CaptureLength; k++ {
		corrupt := data
		corrupt[k] = 0xA8

		r, err := Decode(corrupt, 0)
		if err != (DecodeError{ManchesterViolation, k}) {
			t.Fatalf("byte %d: expected manchester violation got %+v\n", k, err)
		}
		if r != (Reading{}) {
			t.Fatalf("byte %d: expected zero reading got %+v\n", k, r)
		}
	}
}

func TestDecodeParityFailure(t *testing.T) {
	var data [CaptureLength]byte
	for idx := range data {
		data[idx] = 0xAA
	}

	// A one in the high nibble of the first decoded byte lands in P[0] after
	// realignment without a matching parity bit.
	data[0] = 0xA9

	r, err := Decode(data, 0)
	if err != (DecodeError{ParityFailure, 0}) {
		t.Fatalf("Expected parity failure at 0 got %+v\n", err)
	}
	if r != (Reading{}) {
		t.Fatalf("Expected zero reading got %+v\n", r)
	}
}

func TestDecodeError(t *testing.T) {
	for _, tc := range []struct {
		err  DecodeError
		text string
	}{
		{DecodeError{ManchesterViolation, 7}, "manchester violation at capture byte 7"},
		{DecodeError{ParityFailure, 2}, "parity failure at packet byte 2"},
	} {
		if tc.err.Error() != tc.text {
			t.Fatalf("Expected %q got %q\n", tc.text, tc.err.Error())
		}
	}

	if ParityFailure.String() != "parity" || ManchesterViolation.String() != "manchester" {
		t.Fatal("unexpected error kind names")
	}
}

func BenchmarkDecode(b *testing.B) {
	var data [CaptureLength]byte
	for idx := range data {
		data[idx] = 0xAA
	}

	b.SetBytes(CaptureLength)
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, _ = Decode(data, 0)
	}
}
