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

import (
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/ports"
)

// Engine runs the effect of one zone. It is owned by its Group and only
// touched from the control loop.
type Engine struct {
	start  time.Time
	effect Effect
	remain int
	zone   uint32
	on     bool
	drawn  bool
	active bool
}

// NewEngine returns an idle engine owning the pixels in zone.
func NewEngine(zone uint32) *Engine {
	return &Engine{zone: zone}
}

// Zone returns the pixel mask this engine owns.
func (e *Engine) Zone() uint32 {
	return e.zone
}

// Set replaces the current effect and restarts its cycle at now. A running
// blink that only changes its background keeps its phase. An invalid effect
// is rejected and the previous one keeps running.
func (e *Engine) Set(eff Effect, now time.Time) error {
	if err := eff.validate(e.zone); err != nil {
		return err
	}
	if e.active && eff.Mode == Blink && sameCycle(e.effect, eff) {
		e.effect.Background = eff.Background
		e.drawn = false
		return nil
	}
	e.effect = eff
	e.remain = eff.Repeat
	e.start = now
	e.on = false
	e.drawn = false
	e.active = true
	return nil
}

// Clear stops the current effect without touching pixels.
func (e *Engine) Clear() {
	e.active = false
	e.on = false
	e.drawn = false
}

// Active reports whether an effect is running.
func (e *Engine) Active() bool {
	return e.active
}

// Current returns the running effect.
func (e *Engine) Current() (Effect, bool) {
	return e.effect, e.active
}

// Render draws the effect at now into frame and reports whether any pixel
// changed. Finished cycles restart or end the effect after drawing.
func (e *Engine) Render(now time.Time, frame []ports.RGB) bool {
	if !e.active {
		return false
	}

	elapsed := now.Sub(e.start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	dur := e.effect.Duration.Milliseconds()

	changed := false
	switch e.effect.Mode {
	case Solid:
		changed = e.apply(frame, e.effect.Color)
	case Blink:
		on := elapsed < dur/2
		if e.effect.Invert {
			on = !on
		}
		if !e.drawn || on != e.on {
			e.on = on
			e.drawn = true
			if on {
				changed = e.apply(frame, e.effect.Color)
			} else {
				changed = e.apply(frame, e.effect.Background)
			}
		}
	case Breathing:
		changed = e.apply(frame, e.effect.Color.Scale(BreathBrightness(elapsed, dur)))
	default:
		e.active = false
		return false
	}

	if elapsed >= dur {
		if e.remain != RepeatForever {
			e.remain--
		}
		if e.remain == RepeatForever || e.remain > 0 {
			e.start = now
		} else {
			e.active = false
		}
	}

	return changed
}

// apply writes lit to the masked pixels and clears the rest of the zone.
func (e *Engine) apply(frame []ports.RGB, lit ports.RGB) bool {
	changed := false
	for i := range frame {
		bit := uint32(1) << i
		if e.zone&bit == 0 {
			continue
		}
		c := ports.Off
		if e.effect.Mask&bit != 0 {
			c = lit
		}
		if frame[i] != c {
			frame[i] = c
			changed = true
		}
	}
	return changed
}

func sameCycle(a, b Effect) bool {
	a.Background = b.Background
	return a == b
}
