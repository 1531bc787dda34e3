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

package config

import (
	"slices"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/buttons"
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/stability"
	"github.com/rs/zerolog/log"
)

// Snapshot is an immutable copy of the configuration. Version increases
// with every successful load so consumers can tell when to rebuild derived
// state.
type Snapshot struct {
	Values  Values
	Version uint64
}

func newSnapshot(vals *Values, version uint64) *Snapshot {
	v := *vals
	v.Vehicle.Servos = slices.Clone(vals.Vehicle.Servos)
	v.Vehicle.Motors = slices.Clone(vals.Vehicle.Motors)
	v.Vehicle.LEDGroups = slices.Clone(vals.Vehicle.LEDGroups)
	v.Publisher.MQTT = slices.Clone(vals.Publisher.MQTT)
	v.API.AllowedOrigins = slices.Clone(vals.API.AllowedOrigins)
	v.API.AllowedIPs = slices.Clone(vals.API.AllowedIPs)
	if vals.Vehicle.Drive != nil {
		d := *vals.Vehicle.Drive
		v.Vehicle.Drive = &d
	}
	return &Snapshot{Values: v, Version: version}
}

// NewSnapshot wraps vals without loading a file, for tests and embedded
// use.
//
//nolint:gocritic // config struct copied for immutability
func NewSnapshot(vals Values, version uint64) *Snapshot {
	return newSnapshot(&vals, version)
}

func duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warn().Err(err).Msgf("invalid duration %q, using %s", s, fallback)
		return fallback
	}
	return d
}

func (s *Snapshot) LinkTimeout() time.Duration {
	return duration(s.Values.Link.Timeout, 500*time.Millisecond)
}

func (s *Snapshot) RetryBackoff() time.Duration {
	return duration(s.Values.Link.RetryBackoff, 500*time.Millisecond)
}

func (s *Snapshot) InputTimeout() time.Duration {
	return duration(s.Values.Input.Timeout, 100*time.Millisecond)
}

func (s *Snapshot) AnimationInterval() time.Duration {
	d := duration(s.Values.Control.AnimationInterval, 20*time.Millisecond)
	if d <= 0 {
		return 20 * time.Millisecond
	}
	return d
}

// LongPress is how long a K switch is held before it reports a long press.
func (s *Snapshot) LongPress() time.Duration {
	d := duration(s.Values.Control.LongPress, buttons.DefaultLongPress)
	if d <= 0 {
		return buttons.DefaultLongPress
	}
	return d
}

func (s *Snapshot) SendInterval() time.Duration {
	d := duration(s.Values.Control.SendInterval, 20*time.Millisecond)
	if d <= 0 {
		return 20 * time.Millisecond
	}
	return d
}

func (s *Snapshot) FailsafePeriod() time.Duration {
	d := duration(s.Values.Failsafe.Period, 750*time.Millisecond)
	if d <= 0 {
		return 750 * time.Millisecond
	}
	return d
}

func (s *Snapshot) FailsafeColor() ports.RGB {
	if s.Values.Failsafe.Color == "" {
		return ports.Red
	}
	c, err := ports.ParseRGB(s.Values.Failsafe.Color)
	if err != nil {
		return ports.Red
	}
	return c
}

func (s *Snapshot) SleepDuration() time.Duration {
	return duration(s.Values.Sleep.Duration, stability.DefaultDuration)
}

func (s *Snapshot) SleepThresholds() (analog, digital int) {
	analog, digital = stability.DefaultAnalogThreshold, stability.DefaultDigitalThreshold
	if s.Values.Sleep.AnalogThreshold != nil {
		analog = *s.Values.Sleep.AnalogThreshold
	}
	if s.Values.Sleep.DigitalThreshold != nil {
		digital = *s.Values.Sleep.DigitalThreshold
	}
	return analog, digital
}

func (s *Snapshot) Deadzone() int {
	if s.Values.Vehicle.Deadzone == nil {
		return mapper.DefaultDeadzone
	}
	return *s.Values.Vehicle.Deadzone
}

func (s *Snapshot) MaxDuty() int {
	if s.Values.Vehicle.MaxDuty == nil {
		return mapper.MaxDuty
	}
	return *s.Values.Vehicle.MaxDuty
}

// DriveParams returns the mixing parameters of the configured differential
// pair, or false when the vehicle has none.
func (s *Snapshot) DriveParams() (mapper.DriveParams, bool) {
	d := s.Values.Vehicle.Drive
	if d == nil {
		return mapper.DriveParams{}, false
	}
	conv, err := mapper.ParseConvention(d.Mix)
	if err != nil {
		conv = mapper.ThrottleMinusSteer
	}
	sign := 1
	if d.InvertSteer {
		sign = -1
	}
	return mapper.DriveParams{
		Mix:       mapper.Mix{Convention: conv, SteerSign: sign},
		LeftTrim:  d.Left.Trim(),
		RightTrim: d.Right.Trim(),
		Deadzone:  s.Deadzone(),
		MaxDuty:   s.MaxDuty(),
	}, true
}

// Trim resolves the configured trim, filling unset values.
func (t MotorTrim) Trim() mapper.Trim {
	out := mapper.NoTrim
	if t.ForwardRate != nil {
		out.ForwardRate = *t.ForwardRate
	}
	if t.ReverseRate != nil {
		out.ReverseRate = *t.ReverseRate
	}
	if t.Offset != nil {
		out.Offset = *t.Offset
	}
	return out
}

// ServoRange resolves a servo's configured range name.
func ServoRange(name string) mapper.ServoRange {
	if name == "full" {
		return mapper.FullRange
	}
	return mapper.HalfRange
}

// LEDGroupIDs maps layout roles to output group ids.
func (s *Snapshot) LEDGroupIDs() map[string]int {
	ids := make(map[string]int, len(s.Values.Vehicle.LEDGroups))
	for _, g := range s.Values.Vehicle.LEDGroups {
		ids[g.Role] = g.ID
	}
	return ids
}
