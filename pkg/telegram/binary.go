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

package telegram

import "encoding/binary"

// BinaryFrameSize is the length of a BinaryCodec frame.
const BinaryFrameSize = AnalogChannels*2 + 1

// BinaryCodec is a fixed-size frame: six big-endian uint16 analog values
// followed by one byte whose bit i holds the wire level of K(i+1), 1 meaning
// released.
type BinaryCodec struct{}

func (BinaryCodec) Encode(v ChannelVector) []byte {
	buf := make([]byte, BinaryFrameSize)
	for i, a := range v.Analog {
		binary.BigEndian.PutUint16(buf[i*2:], clampAnalog(int64(a)))
	}
	var levels byte
	for i, d := range v.Digital {
		if !d {
			levels |= 1 << i
		}
	}
	buf[BinaryFrameSize-1] = levels
	return buf
}

func (BinaryCodec) Decode(data []byte) (ChannelVector, error) {
	var v ChannelVector
	if len(data) != BinaryFrameSize {
		return v, &DecodeError{Kind: FieldCountMismatch, Got: len(data)}
	}
	for i := range v.Analog {
		v.Analog[i] = clampAnalog(int64(binary.BigEndian.Uint16(data[i*2:])))
	}
	levels := data[BinaryFrameSize-1]
	for i := range v.Digital {
		v.Digital[i] = levels&(1<<i) == 0
	}
	return v, nil
}
