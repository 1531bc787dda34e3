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

import (
	"fmt"
	"strings"
)

// Convention selects how steer and throttle combine into track values.
type Convention int

const (
	// ThrottleMinusSteer: left = (t+s)/2, right = (t-s)/2 around Midpoint.
	ThrottleMinusSteer Convention = iota
	// SteerMinusThrottle: left = (s+t)/2, right = (s-t)/2 around Midpoint.
	SteerMinusThrottle
)

func (c Convention) String() string {
	switch c {
	case ThrottleMinusSteer:
		return "throttle_minus_steer"
	case SteerMinusThrottle:
		return "steer_minus_throttle"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// ParseConvention resolves a configured mixing convention name.
func ParseConvention(name string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "throttle_minus_steer":
		return ThrottleMinusSteer, nil
	case "steer_minus_throttle":
		return SteerMinusThrottle, nil
	default:
		return 0, fmt.Errorf("unknown mixing convention: %q", name)
	}
}

// Mix is the per-vehicle mixing configuration. SteerSign of -1 inverts the
// steering axis before mixing; any other value leaves it as is.
type Mix struct {
	Convention Convention
	SteerSign  int
}

// Tracks mixes throttle and steer into left and right track values, each in
// the raw channel range.
func (m Mix) Tracks(throttle, steer int) (left, right int) {
	t := ClampRaw(throttle) - Midpoint
	s := ClampRaw(steer) - Midpoint
	if m.SteerSign < 0 {
		s = -s
	}

	var a, b int
	switch m.Convention {
	case SteerMinusThrottle:
		a, b = s+t, s-t
	default:
		a, b = t+s, t-s
	}

	left = ClampRaw(floorHalf(a) + Midpoint)
	right = ClampRaw(floorHalf(b) + Midpoint)
	return left, right
}

// Track is the drive command for one side of a differential pair.
type Track struct {
	Direction Direction
	Magnitude int
}

// DriveParams bundles the mixing, drive limits and per-side trims of a
// differential pair.
type DriveParams struct {
	Mix       Mix
	LeftTrim  Trim
	RightTrim Trim
	Deadzone  int
	MaxDuty   int
}

// DefaultDriveParams returns the stock deadzone and duty limits with the
// default mixing convention.
func DefaultDriveParams() DriveParams {
	return DriveParams{
		Mix:       Mix{Convention: ThrottleMinusSteer, SteerSign: 1},
		LeftTrim:  NoTrim,
		RightTrim: NoTrim,
		Deadzone:  DefaultDeadzone,
		MaxDuty:   MaxDuty,
	}
}

// Differential mixes throttle and steer and converts each track into a
// trimmed motor command.
func Differential(throttle, steer int, p DriveParams) (left, right Track) {
	l, r := p.Mix.Tracks(throttle, steer)
	ld, lm := Drive(l, p.Deadzone, p.MaxDuty)
	rd, rm := Drive(r, p.Deadzone, p.MaxDuty)
	left.Direction, left.Magnitude = p.LeftTrim.Apply(ld, lm, p.MaxDuty)
	right.Direction, right.Magnitude = p.RightTrim.Apply(rd, rm, p.MaxDuty)
	return left, right
}

// floorHalf divides by two rounding toward negative infinity.
func floorHalf(v int) int {
	if v < 0 {
		return -((-v + 1) / 2)
	}
	return v / 2
}
