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

// Package mapper converts raw 12-bit channel values into actuator commands:
// servo pulse widths and brushed-motor drive (direction plus duty magnitude),
// including differential mixing for tracked and two-motor vehicles.
//
// Every function here is pure and never fails; out-of-range inputs clamp.
package mapper

import "fmt"

const (
	// RawMax is the largest raw channel value.
	RawMax = 4095
	// Midpoint is the raw value of a centered stick.
	Midpoint = 2047
	// DefaultDeadzone is the distance from Midpoint treated as neutral.
	DefaultDeadzone = 100
	// Gain converts raw distance from Midpoint into 16-bit duty.
	Gain = 32
	// MaxDuty is the 16-bit duty ceiling.
	MaxDuty = 65535
)

// Direction is the drive direction of a motor.
type Direction int

const (
	Neutral Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Neutral:
		return "neutral"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ServoRange is a pulse width range in microseconds.
type ServoRange struct {
	Min int
	Max int
}

var (
	// HalfRange is the standard 1-2 ms hobby servo range.
	HalfRange = ServoRange{Min: 1000, Max: 2000}
	// FullRange is the extended 0.5-2.5 ms range.
	FullRange = ServoRange{Min: 500, Max: 2500}
)

// Center returns the pulse of a centered servo.
func (r ServoRange) Center() int {
	return (r.Min + r.Max) / 2
}

func (r ServoRange) String() string {
	return fmt.Sprintf("%d-%dus", r.Min, r.Max)
}

// ServoPulse scales a raw value linearly onto the range, rounding to the
// nearest microsecond. With reverse set the raw value is mirrored first.
func ServoPulse(raw int, r ServoRange, reverse bool) int {
	raw = ClampRaw(raw)
	if reverse {
		raw = RawMax - raw
	}
	span := r.Max - r.Min
	pulse := r.Min + (2*raw*span+RawMax)/(2*RawMax)
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return clamp(pulse, lo, hi)
}

// Drive turns a raw value into a motor command. Values within deadzone of
// Midpoint (inclusive) are neutral; above Midpoint is backward and below is
// forward, with magnitude Gain*|v-Midpoint| capped at maxDuty.
func Drive(raw, deadzone, maxDuty int) (Direction, int) {
	raw = ClampRaw(raw)
	d := raw - Midpoint
	if d < 0 {
		d = -d
	}
	if d <= deadzone {
		return Neutral, 0
	}
	mag := min(Gain*d, maxDuty)
	if raw > Midpoint {
		return Backward, mag
	}
	return Forward, mag
}

// Motion returns the direction a throttle value moves the vehicle in.
func Motion(throttle, deadzone int) Direction {
	dir, _ := Drive(throttle, deadzone, MaxDuty)
	return dir
}

// ClampRaw limits v to the raw channel range.
func ClampRaw(v int) int {
	return clamp(v, 0, RawMax)
}

func clamp(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
