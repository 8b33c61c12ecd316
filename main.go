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
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/bemasher/ash500/capture"
	"github.com/bemasher/ash500/parse"
	"github.com/bemasher/ash500/registry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "github.com/bemasher/ash500/ash500"
)

var rcvr Receiver

type Receiver struct {
	src *capture.Reader
	p   parse.Parser
	fc  parse.FilterChain
	reg *registry.Registry

	metrics *Metrics
	pub     *Publisher

	stop chan struct{}
}

func (rcvr *Receiver) NewReceiver() {
	var err error

	rcvr.p, err = parse.NewParser(*msgType)
	if err != nil {
		log.Fatal(err)
	}

	rcvr.stop = make(chan struct{}, 1)
	rcvr.reg = registry.New(*capacity)
	rcvr.metrics = NewMetrics()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "unique":
			if *unique {
				rcvr.fc.Add(NewUniqueFilter())
			}
		case "filterid":
			rcvr.fc.Add(sensorID)
		}
	})

	// Open the capture source, a serial device takes precedence over a file.
	if *serialPort != "" {
		rcvr.src, err = capture.OpenSerial(*serialPort, *baudRate)
	} else {
		rcvr.src, err = capture.Open(*sourceFilename)
	}
	if err != nil {
		log.Fatal(err)
	}

	if *metricsAddr != "" {
		go func() {
			if err := rcvr.metrics.ListenAndServe(*metricsAddr); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	if *mqttBroker != "" {
		rcvr.pub, err = NewPublisher(*mqttBroker, *mqttTopic)
		if err != nil {
			log.Fatal(err)
		}
	}

	rcvr.p.Log(log.StandardLogger())
	log.Println("Source:", rcvr.sourceName())
	log.Println("Capacity:", *capacity)
}

func (rcvr *Receiver) sourceName() string {
	if *serialPort != "" {
		return fmt.Sprintf("%s@%d", *serialPort, *baudRate)
	}
	return *sourceFilename
}

func (rcvr *Receiver) Close() {
	rcvr.stop <- struct{}{}
	rcvr.src.Close()
	if rcvr.pub != nil {
		rcvr.pub.Close()
	}
}

// Handle decodes a single capture. It reports false if the capture yields no
// reading or the reading is rejected by the filter chain.
func (rcvr *Receiver) Handle(c capture.Capture) (logMsg parse.LogMessage, ok bool) {
	rcvr.metrics.Capture()

	msg, err := rcvr.p.Parse(c)
	if err != nil {
		rcvr.metrics.DecodeError(err)
		log.WithFields(log.Fields{
			"sync":      c.SyncWordID,
			"rssi":      c.RSSI,
			"timestamp": c.Timestamp,
		}).WithError(err).Debug("discarding capture")
		return logMsg, false
	}

	if !rcvr.fc.Match(msg) {
		return logMsg, false
	}

	slot, err := rcvr.reg.Update(registry.Entry{Serial: msg.SensorID(), Timestamp: c.Timestamp})
	if err != nil {
		log.WithError(err).Warn("sensor not tracked")
	}

	logMsg.Time = time.Now()
	logMsg.Slot = slot
	logMsg.RSSI = c.RSSI
	logMsg.Timestamp = c.Timestamp
	logMsg.Message = msg

	rcvr.metrics.Reading(logMsg)

	return logMsg, true
}

func (rcvr *Receiver) Run() {
	// Setup signal channel for interruption.
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)

	// Setup time limit channel
	tLimit := make(<-chan time.Time, 1)
	if *timeLimit != 0 {
		tLimit = time.After(*timeLimit)
	}

	start := time.Now()

	captureCh := make(chan capture.Capture)

	// Read and send captures to the decoder.
	go func() {
		// When exiting this goroutine, close the capture channel.
		defer close(captureCh)

		for {
			c, err := rcvr.src.Read()

			if err == io.EOF {
				log.Println("encountered eof")
				return
			}

			// Malformed lines are skipped, anything else ends the stream.
			if errors.Cause(err) == capture.ErrSyntax {
				log.WithError(err).Warn("skipping capture")
				continue
			}
			if err != nil {
				log.WithError(err).Error("reading captures")
				return
			}

			select {
			case captureCh <- c:
			case <-rcvr.stop:
				return
			}
		}
	}()

	for {
		// Exit on interrupt or time limit, otherwise receive.
		select {
		case <-sigint:
			return
		case <-tLimit:
			log.Println("Time Limit Reached:", time.Since(start))
			return
		case c, ok := <-captureCh:
			// If captureCh is closed, exit.
			if !ok {
				return
			}

			logMsg, ok := rcvr.Handle(c)
			if !ok {
				continue
			}

			if err := encoder.Encode(logMsg); err != nil {
				log.Fatal("Error encoding message: ", err)
			}

			if rcvr.pub != nil {
				if err := rcvr.pub.Publish(logMsg); err != nil {
					log.WithError(err).Warn("publishing reading")
				}
			}

			if *single {
				if len(sensorID.UintMap) == 0 {
					return
				}
				delete(sensorID.UintMap, uint(logMsg.SensorID()))
				if len(sensorID.UintMap) == 0 {
					return
				}
			}
		}
	}
}

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func main() {
	RegisterFlags()
	EnvOverride()
	flag.Parse()

	if *version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	HandleFlags()

	rcvr.NewReceiver()
	defer rcvr.Close()

	rcvr.Run()
}
