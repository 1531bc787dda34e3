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

package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/indicators"
	"github.com/brickdrive/brickdrive-core/pkg/leds"
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/telegram"
)

// defaultGroupPixels is the size of a configured LED group the profile
// does not describe.
const defaultGroupPixels = 4

type servoOut struct {
	rng     mapper.ServoRange
	channel telegram.Channel
	axis    int
	reverse bool
}

type motorOut struct {
	trim    mapper.Trim
	channel telegram.Channel
	motor   int
	reverse bool
}

type driveOut struct {
	params   mapper.DriveParams
	throttle telegram.Channel
	steer    telegram.Channel
	left     int
	right    int
}

// rig is everything the receiver derives from one config snapshot.
type rig struct {
	codec     telegram.Codec
	profile   *indicators.Profile
	applier   *indicators.Applier
	drive     *driveOut
	groups    []*leds.Group
	servos    []servoOut
	motors    []motorOut
	failsafe  leds.Effect
	timeout   time.Duration
	backoff   time.Duration
	tick      time.Duration
	deadzone  int
	maxDuty   int
	motion    telegram.Channel
	hasMotion bool
}

// buildRig derives outputs from snap. Problems are collected and returned
// with a rig that still drives everything that could be built, so a bad
// LED layout never takes the actuators down with it.
func buildRig(snap *config.Snapshot) (*rig, error) {
	vals := &snap.Values
	var errs []error

	r := &rig{
		timeout:  snap.LinkTimeout(),
		backoff:  snap.RetryBackoff(),
		tick:     snap.AnimationInterval(),
		deadzone: snap.Deadzone(),
		maxDuty:  snap.MaxDuty(),
		failsafe: leds.Effect{
			Mode:     leds.Blink,
			Color:    snap.FailsafeColor(),
			Duration: snap.FailsafePeriod(),
			Repeat:   leds.RepeatForever,
			Mask:     leds.MaskAll(leds.MaxPixels),
		},
	}

	codec, err := telegram.NewCodec(vals.Link.Format)
	if err != nil {
		errs = append(errs, err)
		codec = telegram.TextCodec{}
	}
	r.codec = codec

	for _, s := range vals.Vehicle.Servos {
		ch, err := telegram.ParseChannel(s.Channel)
		if err != nil {
			errs = append(errs, fmt.Errorf("servo %d: %w", s.Axis, err))
			continue
		}
		r.servos = append(r.servos, servoOut{
			channel: ch,
			axis:    s.Axis,
			rng:     config.ServoRange(s.Range),
			reverse: s.Reverse,
		})
	}

	for _, m := range vals.Vehicle.Motors {
		ch, err := telegram.ParseChannel(m.Channel)
		if err != nil {
			errs = append(errs, fmt.Errorf("motor %d: %w", m.Motor, err))
			continue
		}
		r.motors = append(r.motors, motorOut{
			channel: ch,
			motor:   m.Motor,
			reverse: m.Reverse,
			trim:    m.Trim(),
		})
	}

	if params, ok := snap.DriveParams(); ok {
		d := vals.Vehicle.Drive
		throttle, terr := telegram.ParseChannel(d.Throttle)
		steer, serr := telegram.ParseChannel(d.Steer)
		if err := errors.Join(terr, serr); err != nil {
			errs = append(errs, fmt.Errorf("drive: %w", err))
		} else {
			r.drive = &driveOut{
				params:   params,
				throttle: throttle,
				steer:    steer,
				left:     d.LeftMotor,
				right:    d.RightMotor,
			}
		}
	}

	r.motion, r.hasMotion = motionChannel(vals, r)

	if err := r.buildLights(snap); err != nil {
		errs = append(errs, err)
	}
	return r, errors.Join(errs...)
}

// motionChannel picks the channel indicator rules read the direction of
// travel from: the explicit setting, else the drive throttle, else the
// first motor.
func motionChannel(vals *config.Values, r *rig) (telegram.Channel, bool) {
	if vals.Vehicle.Motion != "" {
		if ch, err := telegram.ParseChannel(vals.Vehicle.Motion); err == nil {
			return ch, true
		}
	}
	if r.drive != nil {
		return r.drive.throttle, true
	}
	if len(r.motors) > 0 {
		return r.motors[0].channel, true
	}
	return 0, false
}

func (r *rig) buildLights(snap *config.Snapshot) error {
	profile, err := indicators.Lookup(snap.Values.Vehicle.Profile)
	if err != nil {
		return err
	}
	r.profile = profile

	groups, err := indicators.BuildGroups(profile, snap.LEDGroupIDs())
	if err != nil {
		return err
	}
	applier, err := indicators.NewApplier(profile, groups)
	if err != nil {
		return err
	}
	r.applier = applier
	r.groups = groups

	roles := make(map[string]bool, len(profile.Layout))
	used := make(map[int]bool, len(groups))
	for _, l := range profile.Layout {
		roles[l.Role] = true
	}
	for _, g := range groups {
		used[g.ID] = true
	}

	var errs []error
	for _, cfg := range snap.Values.Vehicle.LEDGroups {
		if roles[cfg.Role] || used[cfg.ID] {
			continue
		}
		pixels := cfg.Pixels
		if pixels == 0 {
			pixels = defaultGroupPixels
		}
		g, err := leds.NewGroup(cfg.ID, pixels)
		if err != nil {
			errs = append(errs, fmt.Errorf("led group %q: %w", cfg.Role, err))
			continue
		}
		used[cfg.ID] = true
		r.groups = append(r.groups, g)
	}
	return errors.Join(errs...)
}

func (r *rig) profileName() string {
	if r.profile == nil {
		return ""
	}
	return r.profile.Name
}

// apply maps one telegram onto the actuators.
func (r *rig) apply(vec *telegram.ChannelVector, act ports.Actuators) {
	for _, s := range r.servos {
		act.SetServoPulse(s.axis, mapper.ServoPulse(vec.Value(s.channel), s.rng, s.reverse))
	}
	for _, m := range r.motors {
		raw := vec.Value(m.channel)
		if m.reverse {
			raw = mapper.RawMax - mapper.ClampRaw(raw)
		}
		dir, mag := mapper.Drive(raw, r.deadzone, r.maxDuty)
		dir, mag = m.trim.Apply(dir, mag, r.maxDuty)
		act.SetMotorDuty(m.motor, dir, mag)
	}
	if d := r.drive; d != nil {
		left, right := mapper.Differential(vec.Value(d.throttle), vec.Value(d.steer), d.params)
		act.SetMotorDuty(d.left, left.Direction, left.Magnitude)
		act.SetMotorDuty(d.right, right.Direction, right.Magnitude)
	}
}

// neutral centers every servo and stops every motor.
func (r *rig) neutral(act ports.Actuators) {
	for _, s := range r.servos {
		act.SetServoPulse(s.axis, s.rng.Center())
	}
	for _, m := range r.motors {
		act.SetMotorDuty(m.motor, mapper.Neutral, 0)
	}
	if d := r.drive; d != nil {
		act.SetMotorDuty(d.left, mapper.Neutral, 0)
		act.SetMotorDuty(d.right, mapper.Neutral, 0)
	}
}

func (r *rig) motionOf(vec *telegram.ChannelVector) mapper.Direction {
	if !r.hasMotion {
		return mapper.Neutral
	}
	return mapper.Motion(vec.Value(r.motion), r.deadzone)
}

func (r *rig) tickLEDs(now time.Time, port ports.LEDs) {
	for _, g := range r.groups {
		g.Tick(now, port)
	}
}

func (r *rig) lightsOff(port ports.LEDs) {
	for _, g := range r.groups {
		g.Off(port)
	}
}
