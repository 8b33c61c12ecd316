// ASH500 - A receiver for ASH500 remote weather sensors.
// Copyright (C) 2018 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bemasher/ash500/csv"
	"github.com/bemasher/ash500/parse"
	log "github.com/sirupsen/logrus"
)

var sourceFilename = flag.String("source", "-", "capture log file, - for stdin")
var serialPort = flag.String("serial", "", "serial device reporting captures, overrides -source")
var baudRate = flag.Int("baud", 115200, "serial device baud rate")

var msgType = flag.String("msgtype", "ash500", "message type to receive: "+strings.Join(parse.Names(), ", "))

var timeLimit = flag.Duration("duration", 0, "time to run for, 0 for infinite, ex. 1h5m10s")
var sensorID SensorIDFilter

var unique = flag.Bool("unique", false, "suppress duplicate readings from each sensor")
var capacity = flag.Int("capacity", 4, "number of sensors to track")

var encoder Encoder
var format = flag.String("format", "plain", "decoded message output format: plain, csv, json, or xml")

var single = flag.Bool("single", false, "one shot execution, if used with -filterid, will wait for exactly one reading from each sensor id")

var mqttBroker = flag.String("mqtt", "", "mqtt broker url to publish readings to, ex. tcp://localhost:1883")
var mqttTopic = flag.String("mqtttopic", "ash500", "mqtt topic prefix, readings are published to <prefix>/<serial>")
var metricsAddr = flag.String("metrics", "", "address to serve prometheus metrics on, ex. :9100")

var logLevel = flag.String("loglevel", "info", "log level: debug, info, warn or error")
var logFormat = flag.String("logformat", "text", "log format: text or json")

var version = flag.Bool("version", false, "display build date and commit hash")

func RegisterFlags() {
	sensorID = SensorIDFilter{make(UintMap)}

	flag.Var(sensorID, "filterid", "display only readings matching an id in a comma-separated list of ids.")

	sourceFlags := map[string]bool{
		"source": true,
		"serial": true,
		"baud":   true,
	}

	outputFlags := map[string]bool{
		"mqtt":      true,
		"mqtttopic": true,
		"metrics":   true,
		"loglevel":  true,
		"logformat": true,
	}

	printDefaults := func(validFlags map[string]bool) {
		flag.CommandLine.VisitAll(func(f *flag.Flag) {
			if !validFlags[f.Name] {
				return
			}

			format := "  -%s=%s: %s\n"
			fmt.Fprintf(os.Stderr, format, f.Name, f.Value, f.Usage)
		})
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])

		decodeFlags := map[string]bool{}
		flag.CommandLine.VisitAll(func(f *flag.Flag) {
			decodeFlags[f.Name] = !sourceFlags[f.Name] && !outputFlags[f.Name]
		})
		printDefaults(decodeFlags)

		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "capture source:")
		printDefaults(sourceFlags)

		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "output:")
		printDefaults(outputFlags)
	}
}

func EnvOverride() {
	flag.VisitAll(func(f *flag.Flag) {
		envName := "ASH500_" + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue != "" {
			if err := flag.Set(f.Name, flagValue); err != nil {
				log.Printf(
					"Environment variable %q failed to override flag %q with value %q: %q\n",
					envName, f.Name, flagValue, err,
				)
			} else {
				log.Printf("Environment variable %q overrides flag %q with %q\n", envName, f.Name, flagValue)
			}
		}
	})
}

func HandleFlags() {
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal("Invalid log level: ", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(*logFormat) {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000000"})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.Fatalf("Invalid log format: %q", *logFormat)
	}

	if *capacity < 1 {
		log.Fatalf("Invalid capacity: %d", *capacity)
	}

	encoder, err = NewEncoder(*format, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
}

// JSON, XML and CSV all implement this interface so we can simplify log
// output formatting.
type Encoder interface {
	Encode(interface{}) error
}

func NewEncoder(format string, w io.Writer) (Encoder, error) {
	switch strings.ToLower(format) {
	case "plain":
		return PlainEncoder{w}, nil
	case "csv":
		return csv.NewEncoder(w), nil
	case "json":
		return json.NewEncoder(w), nil
	case "xml":
		return xmlEncoder{xml.NewEncoder(w), w}, nil
	}
	return nil, fmt.Errorf("invalid output format: %q", format)
}

type UintMap map[uint]bool

func (m UintMap) String() (s string) {
	var values []string
	for k := range m {
		values = append(values, strconv.FormatUint(uint64(k), 10))
	}
	return strings.Join(values, ",")
}

func (m UintMap) Set(value string) error {
	values := strings.Split(value, ",")

	for _, v := range values {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return err
		}

		m[uint(n)] = true
	}

	return nil
}

type SensorIDFilter struct {
	UintMap
}

func (m SensorIDFilter) Filter(msg parse.Message) bool {
	return m.UintMap[uint(msg.SensorID())]
}

// UniqueFilter passes a message only if it differs from the last message
// passed for the same sensor.
type UniqueFilter map[uint][]byte

func NewUniqueFilter() UniqueFilter {
	return make(UniqueFilter)
}

func (uf UniqueFilter) Filter(msg parse.Message) bool {
	checksum := msg.Checksum()
	sid := uint(msg.SensorID())

	if val, ok := uf[sid]; ok && bytes.Equal(val, checksum) {
		return false
	}

	uf[sid] = make([]byte, len(checksum))
	copy(uf[sid], checksum)
	return true
}

type PlainEncoder struct {
	w io.Writer
}

func (pe PlainEncoder) Encode(msg interface{}) (err error) {
	_, err = fmt.Fprintln(pe.w, msg)
	return
}

// The xml encoder doesn't emit a newline between elements.
type xmlEncoder struct {
	*xml.Encoder
	w io.Writer
}

func (xe xmlEncoder) Encode(v interface{}) error {
	if err := xe.Encoder.Encode(v); err != nil {
		return err
	}
	_, err := io.WriteString(xe.w, "\n")
	return err
}
