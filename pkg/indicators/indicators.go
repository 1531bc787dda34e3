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

// Package indicators holds the per-vehicle lighting rules: which LED zones
// show which effect for a given telegram and motion direction.
package indicators

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/leds"
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/telegram"
)

const (
	// SwitchLow and SwitchHigh split a 3-way switch channel into its three
	// positions.
	SwitchLow  = 1365
	SwitchHigh = 2730
)

// Layout describes one LED string a profile drives. Role names the string
// in configuration; Zones are the independently animated pixel sets.
type Layout struct {
	Role   string
	Zones  []uint32
	Pixels int
}

// Request asks for effect on a zone of the string at position Layout.
type Request struct {
	Effect leds.Effect
	Layout int
	Zone   int
}

// Input is everything a rule may look at.
type Input struct {
	Vector telegram.ChannelVector
	Motion mapper.Direction
}

// Profile is a named rule set.
type Profile struct {
	rules  func(in *Input) []Request
	Name   string
	Layout []Layout
}

// Rules evaluates the profile.
func (p *Profile) Rules(in *Input) []Request {
	if p.rules == nil {
		return nil
	}
	return p.rules(in)
}

var profiles = map[string]*Profile{
	"none":      {Name: "none"},
	"truck":     truck(),
	"bulldozer": bulldozer(),
	"forklift":  forklift(),
}

// Lookup returns the named profile.
func Lookup(name string) (*Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "none"
	}
	p, ok := profiles[key]
	if !ok {
		return nil, fmt.Errorf("unknown indicator profile: %q", name)
	}
	return p, nil
}

// Names lists the available profiles.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Position is the state of a 3-way switch.
type Position int

const (
	Middle Position = iota
	Low
	High
)

// SwitchPosition reads a 3-way switch from an analog channel.
func SwitchPosition(v uint16) Position {
	switch {
	case v < SwitchLow:
		return Low
	case v > SwitchHigh:
		return High
	default:
		return Middle
	}
}

func solid(c ports.RGB, mask uint32) leds.Effect {
	return leds.Effect{Mode: leds.Solid, Color: c, Repeat: leds.RepeatForever, Mask: mask}
}

func blink(c ports.RGB, period time.Duration, mask uint32) leds.Effect {
	return leds.Effect{
		Mode:     leds.Blink,
		Color:    c,
		Duration: period,
		Repeat:   leds.RepeatForever,
		Mask:     mask,
	}
}
