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

// Package logport is a dry-run output adapter: it records what the control
// loop commands and logs every change, without touching hardware.
package logport

import (
	"slices"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/rs/zerolog/log"
)

// MotorState is the last command sent to a motor.
type MotorState struct {
	Direction mapper.Direction
	Magnitude int
}

type Port struct {
	servos  map[int]int
	motors  map[int]MotorState
	staged  map[int][]ports.RGB
	shown   map[int][]ports.RGB
	flushes map[int]int
	mu      syncutil.Mutex
}

func New() *Port {
	return &Port{
		servos:  make(map[int]int),
		motors:  make(map[int]MotorState),
		staged:  make(map[int][]ports.RGB),
		shown:   make(map[int][]ports.RGB),
		flushes: make(map[int]int),
	}
}

func (p *Port) SetServoPulse(axis, micros int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.servos[axis]; ok && prev == micros {
		return
	}
	p.servos[axis] = micros
	log.Debug().Int("axis", axis).Int("us", micros).Msg("servo")
}

func (p *Port) SetMotorDuty(motor int, dir mapper.Direction, magnitude int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := MotorState{Direction: dir, Magnitude: magnitude}
	if prev, ok := p.motors[motor]; ok && prev == next {
		return
	}
	p.motors[motor] = next
	log.Debug().Int("motor", motor).Stringer("dir", dir).Int("duty", magnitude).Msg("motor")
}

func (p *Port) SetPixel(group, index int, c ports.RGB) {
	if index < 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	px := p.staged[group]
	if index >= len(px) {
		px = append(px, make([]ports.RGB, index+1-len(px))...)
	}
	px[index] = c
	p.staged[group] = px
}

func (p *Port) Flush(group int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes[group]++
	staged := p.staged[group]
	if slices.Equal(staged, p.shown[group]) {
		return
	}
	p.shown[group] = slices.Clone(staged)
	colors := make([]string, len(staged))
	for i, c := range staged {
		colors[i] = c.String()
	}
	log.Debug().Int("group", group).Strs("pixels", colors).Msg("leds")
}

// Servo returns the last pulse sent to axis.
func (p *Port) Servo(axis int) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	us, ok := p.servos[axis]
	return us, ok
}

// Motor returns the last command sent to motor.
func (p *Port) Motor(motor int) (MotorState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.motors[motor]
	return m, ok
}

// Pixels returns the colors visible on group after its last flush.
func (p *Port) Pixels(group int) []ports.RGB {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.shown[group])
}

// Flushes returns how many times group was flushed.
func (p *Port) Flushes(group int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushes[group]
}
