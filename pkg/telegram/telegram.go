// Brickdrive Core
// Copyright (c) 2026 The Brickdrive Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Brickdrive Core.
//
// Brickdrive Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Brickdrive Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Brickdrive Core.  If not, see <http://www.gnu.org/licenses/>.

// Package telegram encodes and decodes the fixed-layout control telegram sent
// from a transmitter to a vehicle once per control period.
//
// A telegram carries six analog stick channels followed by four digital
// switch channels, in the order L1, L2, L3, R1, R2, R3, K1, K2, K3, K4.
// Digital inputs are low-active on the wire; ChannelVector stores them
// normalized, so true always means the switch is actuated.
package telegram

import (
	"fmt"
	"strings"
)

const (
	// AnalogMax is the largest value an analog channel can carry (12 bit).
	AnalogMax = 4095
	// AnalogCenter is the resting value of a centered stick.
	AnalogCenter = 2047

	// AnalogChannels is the number of analog fields in a telegram.
	AnalogChannels = 6
	// DigitalChannels is the number of digital fields in a telegram.
	DigitalChannels = 4
	// FieldCount is the total number of fields in a telegram.
	FieldCount = AnalogChannels + DigitalChannels
)

// Channel identifies one field of a telegram.
type Channel int

const (
	L1 Channel = iota
	L2
	L3
	R1
	R2
	R3
	K1
	K2
	K3
	K4
)

var channelNames = [FieldCount]string{"L1", "L2", "L3", "R1", "R2", "R3", "K1", "K2", "K3", "K4"}

func (c Channel) String() string {
	if c < 0 || int(c) >= FieldCount {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// IsDigital reports whether the channel is one of the K switches.
func (c Channel) IsDigital() bool {
	return c >= K1 && c <= K4
}

// Channels returns every channel in wire order.
func Channels() []Channel {
	out := make([]Channel, FieldCount)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// ParseChannel resolves a channel name such as "L3" or "k1".
func ParseChannel(name string) (Channel, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range channelNames {
		if n == upper {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel: %q", name)
}

// ChannelVector is one decoded telegram.
type ChannelVector struct {
	Analog  [AnalogChannels]uint16
	Digital [DigitalChannels]bool
}

// Centered returns the vector of a transmitter at rest: every stick centered
// and no switch actuated.
func Centered() ChannelVector {
	var v ChannelVector
	for i := range v.Analog {
		v.Analog[i] = AnalogCenter
	}
	return v
}

// Value returns a channel as an integer. Digital channels read 1 when
// actuated and 0 otherwise.
func (v *ChannelVector) Value(c Channel) int {
	switch {
	case c >= L1 && c <= R3:
		return int(v.Analog[c])
	case c.IsDigital():
		if v.Digital[c-K1] {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Pressed reports whether a digital channel is actuated. Analog channels are
// never pressed.
func (v *ChannelVector) Pressed(c Channel) bool {
	if !c.IsDigital() {
		return false
	}
	return v.Digital[c-K1]
}

// Codec converts between telegram bytes and channel vectors.
type Codec interface {
	Encode(v ChannelVector) []byte
	Decode(data []byte) (ChannelVector, error)
}

const (
	FormatText   = "text"
	FormatBinary = "binary"
)

// NewCodec returns the codec for a wire format name.
func NewCodec(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return TextCodec{}, nil
	case FormatBinary:
		return BinaryCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown telegram format: %q", format)
	}
}

func clampAnalog(v int64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > AnalogMax:
		return AnalogMax
	default:
		return uint16(v)
	}
}
