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
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/ports"
)

// Group is one physical LED string: a frame buffer plus the zones animating
// it. A group without explicit zones has a single zone covering every pixel.
type Group struct {
	frame []ports.RGB
	zones []*Engine
	ID    int
	dirty bool
}

// NewGroup creates a group of pixels split into the given zone masks.
// Zones must be non-empty, disjoint and inside the string.
func NewGroup(id, pixels int, zones ...uint32) (*Group, error) {
	if pixels <= 0 || pixels > MaxPixels {
		return nil, &ConfigurationError{
			Field:  "pixels",
			Reason: fmt.Sprintf("group %d: pixel count %d outside 1-%d", id, pixels, MaxPixels),
		}
	}
	all := MaskAll(pixels)
	if len(zones) == 0 {
		zones = []uint32{all}
	}

	g := &Group{
		ID:    id,
		frame: make([]ports.RGB, pixels),
		zones: make([]*Engine, 0, len(zones)),
	}
	var seen uint32
	for i, z := range zones {
		switch {
		case z == 0:
			return nil, &ConfigurationError{Field: "zones", Reason: fmt.Sprintf("group %d: zone %d is empty", id, i)}
		case z&^all != 0:
			return nil, &ConfigurationError{Field: "zones", Reason: fmt.Sprintf("group %d: zone %d exceeds %d pixels", id, i, pixels)}
		case z&seen != 0:
			return nil, &ConfigurationError{Field: "zones", Reason: fmt.Sprintf("group %d: zone %d overlaps another zone", id, i)}
		}
		seen |= z
		g.zones = append(g.zones, NewEngine(z))
	}
	return g, nil
}

// Pixels returns the length of the string.
func (g *Group) Pixels() int {
	return len(g.frame)
}

// Zones returns the number of zones.
func (g *Group) Zones() int {
	return len(g.zones)
}

// Zone returns the engine of zone i.
func (g *Group) Zone(i int) (*Engine, error) {
	if i < 0 || i >= len(g.zones) {
		return nil, &ConfigurationError{Field: "zone", Reason: fmt.Sprintf("group %d has no zone %d", g.ID, i)}
	}
	return g.zones[i], nil
}

// Frame returns a copy of the staged pixels.
func (g *Group) Frame() []ports.RGB {
	out := make([]ports.RGB, len(g.frame))
	copy(out, g.frame)
	return out
}

// SetEffect starts eff on zone i.
func (g *Group) SetEffect(i int, eff Effect, now time.Time) error {
	z, err := g.Zone(i)
	if err != nil {
		return err
	}
	return z.Set(eff, now)
}

// SetAll starts the same animation on every zone, each targeting all of its
// own pixels, so the whole string runs in phase. Nothing changes if the
// effect is invalid for any zone.
func (g *Group) SetAll(eff Effect, now time.Time) error {
	for _, z := range g.zones {
		e := eff
		e.Mask = z.Zone()
		if err := e.validate(z.Zone()); err != nil {
			return err
		}
	}
	for _, z := range g.zones {
		e := eff
		e.Mask = z.Zone()
		if err := z.Set(e, now); err != nil {
			return err
		}
	}
	return nil
}

// Tick renders every zone and flushes the port once if any pixel changed.
func (g *Group) Tick(now time.Time, port ports.LEDs) bool {
	changed := g.dirty
	for _, z := range g.zones {
		if z.Render(now, g.frame) {
			changed = true
		}
	}
	if !changed {
		return false
	}
	g.dirty = false
	for i, c := range g.frame {
		port.SetPixel(g.ID, i, c)
	}
	port.Flush(g.ID)
	return true
}

// Off stops every zone and blanks the string immediately.
func (g *Group) Off(port ports.LEDs) {
	for _, z := range g.zones {
		z.Clear()
	}
	for i := range g.frame {
		g.frame[i] = ports.Off
	}
	g.dirty = false
	for i := range g.frame {
		port.SetPixel(g.ID, i, ports.Off)
	}
	port.Flush(g.ID)
}

// Reset stops every zone and blanks the frame; the port is written on the
// next Tick.
func (g *Group) Reset() {
	for _, z := range g.zones {
		z.Clear()
	}
	for i := range g.frame {
		g.frame[i] = ports.Off
	}
	g.dirty = true
}
