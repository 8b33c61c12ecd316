package parse

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bemasher/ash500/capture"
	"github.com/bemasher/ash500/csv"
	"github.com/sirupsen/logrus"
)

const (
	TimeFormat = "2006-01-02T15:04:05.000"
)

var (
	parserMutex sync.Mutex
	parsers     = make(map[string]NewParserFunc)
)

type NewParserFunc func() Parser

// Given a name and a parser, register a parser for use. Later used by
// underscore importing each parser package:
//
//	import _ "github.com/bemasher/ash500/ash500"
func Register(name string, parserFn NewParserFunc) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	if parserFn == nil {
		panic("parser: new parser func is nil")
	}
	if _, dup := parsers[name]; dup {
		panic(fmt.Sprintf("parser: parser already registered (%s)", name))
	}
	parsers[name] = parserFn
}

// Given a name, lookup the parser and make a new one.
func NewParser(name string) (Parser, error) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	if parserFn, exists := parsers[name]; exists {
		return parserFn(), nil
	}
	return nil, fmt.Errorf("invalid message type: %q", name)
}

// Names returns the registered parser names in sorted order.
func Names() (names []string) {
	parserMutex.Lock()
	defer parserMutex.Unlock()

	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// A Parser turns one raw capture into a message. A failed capture yields a
// nil message and a non-nil error, never a partial message.
type Parser interface {
	Parse(capture.Capture) (Message, error)
	Log(logrus.FieldLogger)
}

type Message interface {
	csv.Recorder
	MsgType() string
	SensorID() uint8
	Checksum() []byte
}

// A LogMessage associates a message with the time it was received, the radio
// metadata of its capture and the registry slot of its sensor.
type LogMessage struct {
	Time      time.Time `xml:",attr"`
	Slot      int       `xml:",attr"`
	RSSI      int8      `xml:",attr"`
	Timestamp uint32    `xml:",attr"`
	Message
}

func (msg LogMessage) String() string {
	return fmt.Sprintf("{Time:%s Slot:%d RSSI:%d Timestamp:%d %s:%s}",
		msg.Time.Format(TimeFormat), msg.Slot, msg.RSSI, msg.Timestamp, msg.MsgType(), msg.Message,
	)
}

func (msg LogMessage) Header() (h []string) {
	h = append(h, "Time", "Slot", "RSSI", "Timestamp")
	if hdr, ok := msg.Message.(csv.Headerer); ok {
		h = append(h, hdr.Header()...)
	}
	return h
}

func (msg LogMessage) Record() (r []string) {
	r = append(r, msg.Time.Format(time.RFC3339Nano))
	r = append(r, strconv.Itoa(msg.Slot))
	r = append(r, strconv.Itoa(int(msg.RSSI)))
	r = append(r, strconv.FormatUint(uint64(msg.Timestamp), 10))
	r = append(r, msg.Message.Record()...)
	return r
}

// A FilterChain takes a list of filters and applies them iteratively to
// messages sent through the chain.
type FilterChain []MessageFilter

func (fc *FilterChain) Add(filter MessageFilter) {
	*fc = append(*fc, filter)
}

func (fc FilterChain) Match(msg Message) bool {
	for _, filter := range fc {
		if !filter.Filter(msg) {
			return false
		}
	}

	return true
}

type MessageFilter interface {
	Filter(Message) bool
}
