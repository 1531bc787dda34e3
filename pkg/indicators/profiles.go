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

package indicators

import (
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/leds"
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/telegram"
)

var (
	parking  = ports.RGB{R: 32, G: 32, B: 32}
	tailDim  = ports.RGB{R: 32}
	dimRed   = ports.RGB{R: 100}
	dimWhite = ports.RGB{R: 100, G: 100, B: 100}
)

const (
	truckBlinkPeriod    = 500 * time.Millisecond
	forkliftBlinkPeriod = 750 * time.Millisecond
)

// truck drives one 4-pixel string: front left, front right, back left,
// back right, each its own zone. L1 is the blinker switch.
func truck() *Profile {
	const (
		frontLeft = iota
		frontRight
		backLeft
		backRight
	)
	return &Profile{
		Name: "truck",
		Layout: []Layout{{
			Role:   "lights",
			Pixels: 4,
			Zones: []uint32{
				leds.MaskOf(frontLeft), leds.MaskOf(frontRight),
				leds.MaskOf(backLeft), leds.MaskOf(backRight),
			},
		}},
		rules: func(in *Input) []Request {
			front, back := parking, ports.Red
			switch in.Motion {
			case mapper.Forward:
				front, back = ports.White, tailDim
			case mapper.Backward:
				back = ports.White
			case mapper.Neutral:
			}

			effects := [4]leds.Effect{
				solid(front, leds.MaskOf(frontLeft)),
				solid(front, leds.MaskOf(frontRight)),
				solid(back, leds.MaskOf(backLeft)),
				solid(back, leds.MaskOf(backRight)),
			}
			// Back blinkers fall back to the tail light between flashes.
			indicate := func(f, b int) {
				effects[f] = blink(ports.Yellow, truckBlinkPeriod, leds.MaskOf(f))
				effects[b] = blink(ports.Yellow, truckBlinkPeriod, leds.MaskOf(b))
				effects[b].Background = back
			}
			switch SwitchPosition(in.Vector.Analog[telegram.L1]) {
			case Low:
				indicate(frontRight, backRight)
			case High:
				indicate(frontLeft, backLeft)
			case Middle:
			}

			reqs := make([]Request, 0, len(effects))
			for zone, eff := range effects {
				reqs = append(reqs, Request{Layout: 0, Zone: zone, Effect: eff})
			}
			return reqs
		},
	}
}

// bulldozer drives a 4-pixel cabin string (back pixels 0 and 3, front
// pixels 1 and 2) and a 2-pixel front string. K1 switches the lights on.
func bulldozer() *Profile {
	cabinBack := leds.MaskOf(0, 3)
	cabinFront := leds.MaskOf(1, 2)
	front := leds.MaskAll(2)
	return &Profile{
		Name: "bulldozer",
		Layout: []Layout{
			{Role: "cabin", Pixels: 4, Zones: []uint32{cabinBack, cabinFront}},
			{Role: "front", Pixels: 2},
		},
		rules: func(in *Input) []Request {
			cb, cf, f := ports.Off, ports.Off, ports.Off
			if in.Vector.Pressed(telegram.K1) {
				switch in.Motion {
				case mapper.Forward:
					cb, cf, f = dimRed, ports.White, ports.White
				case mapper.Backward:
					cb, cf, f = ports.White, dimRed, dimWhite
				case mapper.Neutral:
					f = dimWhite
				}
			}
			return []Request{
				{Layout: 0, Zone: 0, Effect: solid(cb, cabinBack)},
				{Layout: 0, Zone: 1, Effect: solid(cf, cabinFront)},
				{Layout: 1, Zone: 0, Effect: solid(f, front)},
			}
		},
	}
}

// forklift drives a 2-pixel string, one zone per pixel. L1 selects work
// lights or warning beacons, K1 adds hazard flashing.
func forklift() *Profile {
	right, left := leds.MaskOf(0), leds.MaskOf(1)
	return &Profile{
		Name: "forklift",
		Layout: []Layout{
			{Role: "lights", Pixels: 2, Zones: []uint32{right, left}},
		},
		rules: func(in *Input) []Request {
			alternate := func() []Request {
				r := blink(ports.Yellow, forkliftBlinkPeriod, right)
				l := blink(ports.Yellow, forkliftBlinkPeriod, left)
				l.Invert = true
				return []Request{{Zone: 0, Effect: r}, {Zone: 1, Effect: l}}
			}
			both := func(eff func(mask uint32) leds.Effect) []Request {
				return []Request{{Zone: 0, Effect: eff(right)}, {Zone: 1, Effect: eff(left)}}
			}

			k1 := in.Vector.Pressed(telegram.K1)
			switch SwitchPosition(in.Vector.Analog[telegram.L1]) {
			case High:
				if k1 {
					return alternate()
				}
				return both(func(m uint32) leds.Effect { return solid(ports.White, m) })
			case Low:
				return alternate()
			case Middle:
			}
			if k1 {
				return both(func(m uint32) leds.Effect { return blink(ports.Yellow, forkliftBlinkPeriod, m) })
			}
			return both(func(m uint32) leds.Effect { return solid(ports.Off, m) })
		},
	}
}
