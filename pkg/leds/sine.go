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

package leds

import "math"

const sineSteps = 256

// sineTable holds one raised-cosine breathing cycle scaled to 0-255,
// starting and ending dark.
var sineTable = func() [sineSteps]int {
	var t [sineSteps]int
	for i := range t {
		t[i] = int(255 * (1 + math.Sin(2*math.Pi*float64(i)/sineSteps-math.Pi/2)) / 2)
	}
	return t
}()

// breathIndex maps elapsed milliseconds onto the sine table for a cycle of
// durMS milliseconds.
func breathIndex(elapsedMS, durMS int64) int {
	if durMS <= 0 {
		return 0
	}
	return int((elapsedMS % durMS) * sineSteps / durMS)
}

// BreathBrightness returns the breathing brightness after elapsedMS of a
// durMS cycle.
func BreathBrightness(elapsedMS, durMS int64) int {
	return sineTable[breathIndex(elapsedMS, durMS)]
}
