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

import (
	"strconv"
	"strings"
)

// TextCodec is the comma-separated ASCII form:
//
//	L1,L2,L3,R1,R2,R3,K1,K2,K3,K4
//
// Digital fields are wire levels: 0 means actuated.
type TextCodec struct{}

func (TextCodec) Encode(v ChannelVector) []byte {
	var b strings.Builder
	b.Grow(FieldCount * 5)
	for i, a := range v.Analog {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(clampAnalog(int64(a)))))
	}
	for _, d := range v.Digital {
		if d {
			b.WriteString(",0")
		} else {
			b.WriteString(",1")
		}
	}
	return []byte(b.String())
}

func (TextCodec) Decode(data []byte) (ChannelVector, error) {
	var v ChannelVector

	line := strings.TrimSpace(string(data))
	fields := strings.Split(line, ",")
	if len(fields) != FieldCount {
		return v, &DecodeError{Kind: FieldCountMismatch, Got: len(fields)}
	}

	for i, f := range fields {
		f = strings.TrimSpace(f)
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return ChannelVector{}, &DecodeError{
				Kind:  NumericParseFailure,
				Field: i,
				Value: f,
				Err:   err,
			}
		}
		if i < AnalogChannels {
			v.Analog[i] = clampAnalog(n)
		} else {
			v.Digital[i-AnalogChannels] = n == 0
		}
	}

	return v, nil
}
