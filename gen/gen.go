// Package gen synthesizes captures the way an ASH500 transmitter and the
// radio front end would produce them.
package gen

import (
	"math/rand"

	"github.com/bemasher/ash500/ash500"
	"github.com/bemasher/ash500/capture"
	"github.com/bemasher/ash500/manchester"
)

var lut = manchester.NewLUT()

// Unalign is the inverse of ash500.Realign: it shifts r left by one bit and
// returns the line decoded payload along with the bit the sync word
// consumed.
func Unalign(r ash500.Bitstream) (payload [ash500.CaptureLength / 2]byte, polarity uint8) {
	polarity = r[0] >> 7
	for idx := range payload {
		payload[idx] = r[idx]<<1 | r[idx+1]>>7
	}
	return
}

// Encode whitens d, attaches parity, and line codes the result. The returned
// polarity must be reported by the sync word that precedes the capture.
func Encode(d ash500.Decoded) (data [ash500.CaptureLength]byte, polarity uint8) {
	p := ash500.Whiten(d)
	payload, polarity := Unalign(ash500.Pack(p, ash500.Parity(p)))
	copy(data[:], lut.Encode(payload[:]))
	return
}

// NewCapture builds a capture for d with the matching sync word id.
func NewCapture(d ash500.Decoded) (c capture.Capture) {
	data, polarity := Encode(d)
	c.Data = data
	c.SyncWordID = ash500.NewPacketConfig().SyncWordID(polarity)
	return
}

// FromReading builds a capture reporting r. Bytes that carry no reading
// fields, and the unused top bit of the temperature, are filled from rnd.
// r.Temperature must not be negative.
func FromReading(r ash500.Reading, rnd *rand.Rand) capture.Capture {
	var d ash500.Decoded
	rnd.Read(d[:])

	d[4] = r.Serial
	d[5] = byte(uint16(r.Temperature)>>8)&0x7F | d[5]&0x80
	d[6] = byte(r.Temperature)
	d[7] = r.Humidity

	c := NewCapture(d)
	c.RSSI = int8(-40 - rnd.Intn(80))
	c.Timestamp = rnd.Uint32()
	return c
}

// NewRandReading returns a reading with a plausible temperature and humidity.
func NewRandReading(rnd *rand.Rand) (r ash500.Reading) {
	r.Serial = uint8(rnd.Intn(256))
	r.Temperature = int16(rnd.Intn(600))
	r.Humidity = uint8(rnd.Intn(101))
	return
}
