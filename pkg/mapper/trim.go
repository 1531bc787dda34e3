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

package mapper

// Trim scales one motor's output per direction and biases it. Rates are
// percentages of the mapped duty in [0,100]; Offset is a percentage of
// full duty in [-100,100] added before the rate is applied. The zero Trim
// stops the motor, use NoTrim for an unmodified output.
type Trim struct {
	ForwardRate int
	ReverseRate int
	Offset      int
}

// NoTrim passes commands through unchanged.
var NoTrim = Trim{ForwardRate: 100, ReverseRate: 100}

// Apply trims a motor command and caps it at maxDuty. Neutral stays
// neutral whatever the offset, so a centered stick never creeps.
func (t Trim) Apply(dir Direction, magnitude, maxDuty int) (Direction, int) {
	if dir == Neutral || magnitude <= 0 {
		return Neutral, 0
	}
	v := magnitude
	if dir == Backward {
		v = -v
	}
	v += clamp(t.Offset, -100, 100) * MaxDuty / 100

	out, mag := Forward, 0
	if v >= 0 {
		mag = v * clamp(t.ForwardRate, 0, 100) / 100
	} else {
		out = Backward
		mag = -v * clamp(t.ReverseRate, 0, 100) / 100
	}
	mag = min(mag, maxDuty)
	if mag == 0 {
		return Neutral, 0
	}
	return out, mag
}
