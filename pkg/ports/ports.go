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

// Package ports defines the output side of the control core: the actuator
// and LED interfaces the control loop writes to. Adapters live in
// subpackages.
package ports

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brickdrive/brickdrive-core/pkg/mapper"
)

// Actuators drives servos and brushed motors. Calls are fire-and-forget;
// adapters log their own failures.
type Actuators interface {
	SetServoPulse(axis, micros int)
	SetMotorDuty(motor int, dir mapper.Direction, magnitude int)
}

// LEDs drives addressable LED strings. Pixels are staged with SetPixel and
// become visible on Flush.
type LEDs interface {
	SetPixel(group, index int, c RGB)
	Flush(group int)
}

// RGB is one pixel color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

var (
	Off    = RGB{}
	Red    = RGB{R: 255}
	White  = RGB{R: 255, G: 255, B: 255}
	Yellow = RGB{R: 255, G: 255}
	Violet = RGB{R: 148, B: 211}
)

func (c RGB) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Scale multiplies every channel by brightness/255.
func (c RGB) Scale(brightness int) RGB {
	brightness = max(0, min(brightness, 255))
	return RGB{
		R: uint8(int(c.R) * brightness / 255),
		G: uint8(int(c.G) * brightness / 255),
		B: uint8(int(c.B) * brightness / 255),
	}
}

// ParseRGB reads a "#RRGGBB" or "RRGGBB" hex color.
func ParseRGB(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
