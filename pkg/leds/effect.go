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

// Package leds animates addressable LED strings. Each output group is a
// frame buffer split into zones; every zone runs one effect at a time and the
// group flushes its port only when a tick changed some pixel.
package leds

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/ports"
)

// Mode selects how an effect renders.
type Mode int

const (
	Solid Mode = iota + 1
	Blink
	Breathing
)

// RepeatForever makes an effect cycle until replaced.
const RepeatForever = 255

// MaxPixels is the largest supported group size.
const MaxPixels = 32

func (m Mode) String() string {
	switch m {
	case Solid:
		return "solid"
	case Blink:
		return "blink"
	case Breathing:
		return "breathing"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode resolves a configured effect mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "solid":
		return Solid, nil
	case "blink":
		return Blink, nil
	case "breathing", "breathe":
		return Breathing, nil
	default:
		return 0, &ConfigurationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", name)}
	}
}

// Effect describes one animation. Mask selects the target pixels by group
// index; pixels of the zone outside the mask are held off. Duration is the
// cycle length and Repeat the number of cycles, RepeatForever for infinite.
// Invert lights a blink during the second half of the cycle instead of the
// first, so two zones started together alternate. Background is what the
// masked pixels show during the dark half of a blink.
type Effect struct {
	Mode       Mode
	Color      ports.RGB
	Background ports.RGB
	Duration   time.Duration
	Repeat     int
	Mask       uint32
	Invert     bool
}

// MaskOf builds a mask from pixel indices.
func MaskOf(indices ...int) uint32 {
	var m uint32
	for _, i := range indices {
		if i >= 0 && i < MaxPixels {
			m |= 1 << i
		}
	}
	return m
}

// MaskAll returns the mask of the first n pixels.
func MaskAll(n int) uint32 {
	if n >= MaxPixels {
		return ^uint32(0)
	}
	if n <= 0 {
		return 0
	}
	return 1<<n - 1
}

// Pixels returns the number of pixels selected by the mask.
func (e Effect) Pixels() int {
	return bits.OnesCount32(e.Mask)
}

func (e Effect) validate(zone uint32) error {
	switch e.Mode {
	case Solid:
	case Blink, Breathing:
		if e.Duration <= 0 {
			return &ConfigurationError{Field: "duration", Reason: e.Mode.String() + " needs a positive duration"}
		}
	default:
		return &ConfigurationError{Field: "mode", Reason: fmt.Sprintf("invalid mode %d", int(e.Mode))}
	}
	if e.Duration < 0 {
		return &ConfigurationError{Field: "duration", Reason: "negative duration"}
	}
	if e.Repeat < 0 || e.Repeat > RepeatForever {
		return &ConfigurationError{Field: "repeat", Reason: fmt.Sprintf("repeat count %d outside 0-255", e.Repeat)}
	}
	if e.Mask == 0 {
		return &ConfigurationError{Field: "mask", Reason: "no target pixels"}
	}
	if e.Mask&^zone != 0 {
		return &ConfigurationError{
			Field:  "mask",
			Reason: fmt.Sprintf("mask %#x outside zone %#x", e.Mask, zone),
		}
	}
	return nil
}

// ConfigurationError rejects an effect or group definition. The target
// state is left untouched.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("led configuration: %s: %s", e.Field, e.Reason)
}
