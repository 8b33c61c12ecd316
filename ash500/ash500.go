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

package ash500

import (
	"fmt"

	"github.com/bemasher/ash500/capture"
	"github.com/bemasher/ash500/parse"
	"github.com/sirupsen/logrus"
)

func init() {
	parse.Register("ash500", NewParser)
}

// PacketConfig describes the fixed framing the radio is configured for.
type PacketConfig struct {
	SyncWords    [2]uint16
	SyncWordBits int

	MaxPayload int

	CaptureLength   int
	BitstreamLength int
	PacketLength    int
}

func NewPacketConfig() (cfg PacketConfig) {
	cfg.SyncWords = [2]uint16{0x159, 0x15A}
	cfg.SyncWordBits = 9
	cfg.MaxPayload = 24
	cfg.CaptureLength = CaptureLength
	cfg.BitstreamLength = BitstreamLength
	cfg.PacketLength = PacketLength

	return
}

// Polarity returns the data bit consumed by the sync word with the given
// index, which is its least significant bit.
func (cfg PacketConfig) Polarity(syncWordID uint8) uint8 {
	return uint8(cfg.SyncWords[syncWordID&0x01] & 0x01)
}

// SyncWordID returns the index of the sync word that consumes a bit of the
// given polarity.
func (cfg PacketConfig) SyncWordID(polarity uint8) uint8 {
	for idx, sw := range cfg.SyncWords {
		if uint8(sw&0x01) == polarity&0x01 {
			return uint8(idx)
		}
	}
	panic(fmt.Sprintf("ash500: no sync word with polarity %d", polarity))
}

func (cfg PacketConfig) String() string {
	return fmt.Sprintf("{SyncWords:0x%03X,0x%03X SyncWordBits:%d MaxPayload:%d CaptureLength:%d BitstreamLength:%d PacketLength:%d}",
		cfg.SyncWords[0], cfg.SyncWords[1], cfg.SyncWordBits, cfg.MaxPayload,
		cfg.CaptureLength, cfg.BitstreamLength, cfg.PacketLength,
	)
}

type Parser struct {
	Cfg PacketConfig
}

func NewParser() parse.Parser {
	return Parser{NewPacketConfig()}
}

func (p Parser) Log(log logrus.FieldLogger) {
	log.Println("SyncWords:", fmt.Sprintf("0x%03X,0x%03X", p.Cfg.SyncWords[0], p.Cfg.SyncWords[1]))
	log.Println("SyncWordBits:", p.Cfg.SyncWordBits)
	log.Println("MaxPayload:", p.Cfg.MaxPayload)
	log.Println("CaptureLength:", p.Cfg.CaptureLength)
	log.Println("BitstreamLength:", p.Cfg.BitstreamLength)
	log.Println("PacketLength:", p.Cfg.PacketLength)
}

func (p Parser) Parse(c capture.Capture) (parse.Message, error) {
	r, err := Decode(c.Data, p.Cfg.Polarity(c.SyncWordID))
	if err != nil {
		return nil, err
	}
	return r, nil
}
