// Package capture reads raw receptions reported by the radio front end.
//
// The front end reports one reception per line:
//
//	<syncid> <rssi> <timestamp> <data>
//
// syncid is the index of the matched sync word (0 or 1), rssi is the signal
// strength in dBm, timestamp is the radio timer at reception and data is the
// line coded payload as 40 hex digits. Blank lines and lines beginning with
// '#' are ignored.
package capture

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const (
	Length = 20
)

// ErrSyntax is the cause of every malformed capture line.
var ErrSyntax = errors.New("invalid capture")

// A Capture is a single reception: the line coded payload and the radio
// metadata reported alongside it.
type Capture struct {
	SyncWordID uint8
	RSSI       int8
	Timestamp  uint32
	Data       [Length]byte
}

func (c Capture) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(int(c.SyncWordID)) + " " +
		strconv.Itoa(int(c.RSSI)) + " " +
		strconv.FormatUint(uint64(c.Timestamp), 10) + " " +
		hex.EncodeToString(c.Data[:])), nil
}

func (c *Capture) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	if len(fields) != 4 {
		return errors.Wrapf(ErrSyntax, "expected 4 fields, got %d", len(fields))
	}

	syncID, err := strconv.ParseUint(fields[0], 10, 1)
	if err != nil {
		return errors.Wrapf(ErrSyntax, "sync word id %q", fields[0])
	}

	rssi, err := strconv.ParseInt(fields[1], 10, 8)
	if err != nil {
		return errors.Wrapf(ErrSyntax, "rssi %q", fields[1])
	}

	timestamp, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return errors.Wrapf(ErrSyntax, "timestamp %q", fields[2])
	}

	data, err := hex.DecodeString(fields[3])
	if err != nil {
		return errors.Wrapf(ErrSyntax, "data: %s", err)
	}
	if len(data) != Length {
		return errors.Wrapf(ErrSyntax, "data length %d, expected %d", len(data), Length)
	}

	c.SyncWordID = uint8(syncID)
	c.RSSI = int8(rssi)
	c.Timestamp = uint32(timestamp)
	copy(c.Data[:], data)

	return nil
}

// A Reader reads captures from a line oriented stream.
type Reader struct {
	scan   *bufio.Scanner
	line   int
	closer io.Closer
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scan: bufio.NewScanner(r)}
}

// Open returns a reader over the named file, or stdin if name is "-".
func Open(name string) (*Reader, error) {
	if name == "-" {
		return NewReader(os.Stdin), nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open capture file")
	}

	r := NewReader(f)
	r.closer = f
	return r, nil
}

// OpenSerial returns a reader over a serial device.
func OpenSerial(name string, baudRate int) (*Reader, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", name)
	}

	r := NewReader(port)
	r.closer = port
	return r, nil
}

// Read returns the next capture. Malformed lines produce an error whose cause
// is ErrSyntax, after which reading may continue. io.EOF is returned when the
// stream is exhausted.
func (r *Reader) Read() (c Capture, err error) {
	for r.scan.Scan() {
		r.line++

		line := strings.TrimSpace(r.scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := c.UnmarshalText([]byte(line)); err != nil {
			return Capture{}, errors.Wrapf(err, "line %d", r.line)
		}
		return c, nil
	}

	if err := r.scan.Err(); err != nil {
		return Capture{}, errors.Wrap(err, "read capture")
	}
	return Capture{}, io.EOF
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
