package ash500

import "fmt"

type ErrorKind int

const (
	ManchesterViolation ErrorKind = iota + 1
	ParityFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ManchesterViolation:
		return "manchester"
	case ParityFailure:
		return "parity"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// DecodeError reports why a capture produced no reading. For a
// ManchesterViolation Index is the offending capture byte, for a
// ParityFailure it is the offending packet byte.
type DecodeError struct {
	Kind  ErrorKind
	Index int
}

func (e DecodeError) Error() string {
	switch e.Kind {
	case ManchesterViolation:
		return fmt.Sprintf("manchester violation at capture byte %d", e.Index)
	case ParityFailure:
		return fmt.Sprintf("parity failure at packet byte %d", e.Index)
	}
	return fmt.Sprintf("%s error at byte %d", e.Kind, e.Index)
}
