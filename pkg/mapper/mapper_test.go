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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServoPulse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r       ServoRange
		raw     int
		want    int
		reverse bool
	}{
		{name: "half range low", raw: 0, r: HalfRange, want: 1000},
		{name: "half range center", raw: 2047, r: HalfRange, want: 1500},
		{name: "half range high", raw: 4095, r: HalfRange, want: 2000},
		{name: "full range low", raw: 0, r: FullRange, want: 500},
		{name: "full range center", raw: 2047, r: FullRange, want: 1500},
		{name: "full range high", raw: 4095, r: FullRange, want: 2500},
		{name: "below range clamps", raw: -20, r: HalfRange, want: 1000},
		{name: "above range clamps", raw: 9000, r: HalfRange, want: 2000},
		{name: "reverse mirrors", raw: 0, r: HalfRange, want: 2000, reverse: true},
		{name: "reverse center", raw: 2048, r: HalfRange, want: 1500, reverse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ServoPulse(tt.raw, tt.r, tt.reverse))
		})
	}
}

func TestServoRange_Center(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1500, HalfRange.Center())
	assert.Equal(t, 1500, FullRange.Center())
	assert.Equal(t, "1000-2000us", HalfRange.String())
}

func TestDrive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     int
		wantDir Direction
		wantMag int
	}{
		{name: "center", raw: 2047, wantDir: Neutral, wantMag: 0},
		{name: "inside deadzone low", raw: 2047 - 99, wantDir: Neutral, wantMag: 0},
		{name: "inside deadzone high", raw: 2047 + 99, wantDir: Neutral, wantMag: 0},
		{name: "deadzone edge is neutral", raw: 2047 + 100, wantDir: Neutral, wantMag: 0},
		{name: "just outside high", raw: 2047 + 101, wantDir: Backward, wantMag: 32 * 101},
		{name: "just outside low", raw: 2047 - 101, wantDir: Forward, wantMag: 32 * 101},
		{name: "full backward saturates", raw: 4095, wantDir: Backward, wantMag: 65535},
		{name: "full forward", raw: 0, wantDir: Forward, wantMag: 32 * 2047},
		{name: "negative clamps", raw: -50, wantDir: Forward, wantMag: 32 * 2047},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir, mag := Drive(tt.raw, DefaultDeadzone, MaxDuty)
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantMag, mag)
		})
	}
}

func TestDrive_MaxDutyCap(t *testing.T) {
	t.Parallel()

	dir, mag := Drive(0, DefaultDeadzone, 40000)
	assert.Equal(t, Forward, dir)
	assert.Equal(t, 40000, mag)
}

func TestMotion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Forward, Motion(500, DefaultDeadzone))
	assert.Equal(t, Backward, Motion(3500, DefaultDeadzone))
	assert.Equal(t, Neutral, Motion(2047, DefaultDeadzone))
	assert.Equal(t, "forward", Forward.String())
}

func TestMix_Tracks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mix       Mix
		throttle  int
		steer     int
		wantLeft  int
		wantRight int
	}{
		{
			name:      "centered",
			mix:       Mix{Convention: ThrottleMinusSteer, SteerSign: 1},
			throttle:  2047,
			steer:     2047,
			wantLeft:  2047,
			wantRight: 2047,
		},
		{
			name:      "straight forward",
			mix:       Mix{Convention: ThrottleMinusSteer, SteerSign: 1},
			throttle:  500,
			steer:     2047,
			wantLeft:  1273,
			wantRight: 1273,
		},
		{
			name:      "pivot with steer only",
			mix:       Mix{Convention: ThrottleMinusSteer, SteerSign: 1},
			throttle:  2047,
			steer:     3047,
			wantLeft:  2547,
			wantRight: 1547,
		},
		{
			name:      "steer minus throttle",
			mix:       Mix{Convention: SteerMinusThrottle, SteerSign: 1},
			throttle:  500,
			steer:     2047,
			wantLeft:  1273,
			wantRight: 2820,
		},
		{
			name:      "inverted steer",
			mix:       Mix{Convention: SteerMinusThrottle, SteerSign: -1},
			throttle:  2047,
			steer:     3047,
			wantLeft:  1547,
			wantRight: 1547,
		},
		{
			name:      "extremes stay in range",
			mix:       Mix{Convention: ThrottleMinusSteer, SteerSign: 1},
			throttle:  4095,
			steer:     4095,
			wantLeft:  4095,
			wantRight: 2047,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			left, right := tt.mix.Tracks(tt.throttle, tt.steer)
			assert.Equal(t, tt.wantLeft, left, "left")
			assert.Equal(t, tt.wantRight, right, "right")
		})
	}
}

func TestDifferential_StraightForwardIsSymmetric(t *testing.T) {
	t.Parallel()

	left, right := Differential(500, 2047, DefaultDriveParams())
	assert.Equal(t, Forward, left.Direction)
	assert.Equal(t, Forward, right.Direction)
	assert.Equal(t, left.Magnitude, right.Magnitude)
	assert.Equal(t, 32*774, left.Magnitude)
}

func TestDifferential_CenteredIsNeutral(t *testing.T) {
	t.Parallel()

	left, right := Differential(2047, 2047, DefaultDriveParams())
	assert.Equal(t, Track{Direction: Neutral}, left)
	assert.Equal(t, Track{Direction: Neutral}, right)
}

func TestParseConvention(t *testing.T) {
	t.Parallel()

	c, err := ParseConvention("")
	require.NoError(t, err)
	assert.Equal(t, ThrottleMinusSteer, c)

	c, err = ParseConvention("Steer_Minus_Throttle")
	require.NoError(t, err)
	assert.Equal(t, SteerMinusThrottle, c)
	assert.Equal(t, "steer_minus_throttle", c.String())

	_, err = ParseConvention("diagonal")
	require.Error(t, err)
}

func TestFloorHalf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, floorHalf(3))
	assert.Equal(t, -2, floorHalf(-3))
	assert.Equal(t, -2, floorHalf(-4))
	assert.Equal(t, 0, floorHalf(0))
}

func TestTrim_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trim    Trim
		dir     Direction
		mag     int
		maxDuty int
		wantDir Direction
		wantMag int
	}{
		{name: "no trim", trim: NoTrim, dir: Forward, mag: 24768, wantDir: Forward, wantMag: 24768},
		{name: "forward rate", trim: Trim{ForwardRate: 50, ReverseRate: 100}, dir: Forward, mag: 24768,
			wantDir: Forward, wantMag: 12384},
		{name: "reverse rate", trim: Trim{ForwardRate: 100, ReverseRate: 25}, dir: Backward, mag: 32000,
			wantDir: Backward, wantMag: 8000},
		{name: "positive offset", trim: Trim{ForwardRate: 100, ReverseRate: 100, Offset: 10}, dir: Forward,
			mag: 10000, wantDir: Forward, wantMag: 16553},
		{name: "offset flips direction", trim: Trim{ForwardRate: 100, ReverseRate: 100, Offset: -10},
			dir: Forward, mag: 3232, wantDir: Backward, wantMag: 3321},
		{name: "offset capped", trim: Trim{ForwardRate: 100, ReverseRate: 100, Offset: 50}, dir: Forward,
			mag: 60000, wantDir: Forward, wantMag: MaxDuty},
		{name: "neutral ignores offset", trim: Trim{ForwardRate: 100, ReverseRate: 100, Offset: 50},
			dir: Neutral, wantDir: Neutral},
		{name: "zero rate stops", trim: Trim{ReverseRate: 100}, dir: Forward, mag: 24768, wantDir: Neutral},
		{name: "zero trim stops", trim: Trim{}, dir: Backward, mag: 5000, wantDir: Neutral},
		{name: "lower duty cap", trim: NoTrim, dir: Forward, mag: 40000, maxDuty: 30000,
			wantDir: Forward, wantMag: 30000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			maxDuty := tt.maxDuty
			if maxDuty == 0 {
				maxDuty = MaxDuty
			}
			dir, mag := tt.trim.Apply(tt.dir, tt.mag, maxDuty)
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantMag, mag)
		})
	}
}

func TestDifferential_TrimsEachSide(t *testing.T) {
	t.Parallel()

	p := DefaultDriveParams()
	p.LeftTrim = Trim{ForwardRate: 50, ReverseRate: 100}
	left, right := Differential(500, 2047, p)
	assert.Equal(t, Track{Direction: Forward, Magnitude: 12384}, left)
	assert.Equal(t, Track{Direction: Forward, Magnitude: 24768}, right)
}
