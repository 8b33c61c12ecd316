package ash500

import (
	"fmt"
	"strconv"
)

const (
	serialIdx   = 4
	tempHighIdx = 5
	tempLowIdx  = 6
	humidityIdx = 7

	// The top bit of the temperature high byte is not part of the value.
	tempHighMask = 0x7F
)

// Reading is a single sensor report. Temperature is in tenths of a degree
// Celsius and humidity in percent.
type Reading struct {
	Serial      uint8 `xml:",attr" json:"serial"`
	Temperature int16 `xml:",attr" json:"temperature"`
	Humidity    uint8 `xml:",attr" json:"humidity"`
}

// NewReading extracts the sensor fields from a dewhitened packet. The
// temperature's high byte is masked to seven bits before it is read as a
// signed value, so readings are never negative.
func NewReading(d Decoded) (r Reading) {
	r.Serial = d[serialIdx]
	r.Humidity = d[humidityIdx]
	r.Temperature = int16(uint16(d[tempHighIdx]&tempHighMask)<<8 | uint16(d[tempLowIdx]))
	return
}

// Celsius splits the temperature into whole degrees and tenths, both
// truncated toward zero.
func (r Reading) Celsius() (whole, tenths int16) {
	return r.Temperature / 10, r.Temperature % 10
}

func (r Reading) temperature() string {
	whole, tenths := r.Celsius()
	sign := ""
	if r.Temperature < 0 {
		sign, whole, tenths = "-", -whole, -tenths
	}
	return fmt.Sprintf("%s%d.%d", sign, whole, tenths)
}

func (r Reading) MsgType() string {
	return "ASH500"
}

func (r Reading) SensorID() uint8 {
	return r.Serial
}

func (r Reading) Checksum() []byte {
	return []byte{r.Serial, byte(uint16(r.Temperature) >> 8), byte(r.Temperature), r.Humidity}
}

func (r Reading) String() string {
	return fmt.Sprintf("{Serial:%3d Temperature:%5s C Humidity:%3d%%}", r.Serial, r.temperature(), r.Humidity)
}

func (r Reading) Header() []string {
	return []string{"Serial", "Temperature", "Humidity"}
}

func (r Reading) Record() (rec []string) {
	rec = append(rec, strconv.FormatUint(uint64(r.Serial), 10))
	rec = append(rec, r.temperature())
	rec = append(rec, strconv.FormatUint(uint64(r.Humidity), 10))
	return
}
