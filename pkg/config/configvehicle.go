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

// Vehicle describes how telegram channels reach the actuators and which
// indicator profile drives the lights.
type Vehicle struct {
	Drive     *Drive     `toml:"drive,omitempty"`
	Profile   string     `toml:"profile" validate:"profile"`
	Motion    string     `toml:"motion_channel,omitempty" validate:"omitempty,analog"`
	Servos    []Servo    `toml:"servo,omitempty" validate:"dive"`
	Motors    []Motor    `toml:"motor,omitempty" validate:"dive"`
	LEDGroups []LEDGroup `toml:"led_group,omitempty" validate:"dive"`
	Deadzone  *int       `toml:"deadzone,omitempty" validate:"omitempty,gte=0,lte=2047"`
	MaxDuty   *int       `toml:"max_duty,omitempty" validate:"omitempty,gte=0,lte=65535"`
}

// Servo maps one analog channel to a servo output.
type Servo struct {
	Channel string `toml:"channel" validate:"analog"`
	Range   string `toml:"range,omitempty" validate:"omitempty,oneof=half full"`
	Axis    int    `toml:"axis" validate:"gte=0"`
	Reverse bool   `toml:"reverse,omitempty"`
}

// Motor drives one motor directly from an analog channel.
type Motor struct {
	MotorTrim
	Channel string `toml:"channel" validate:"analog"`
	Motor   int    `toml:"motor" validate:"gte=0"`
	Reverse bool   `toml:"reverse,omitempty"`
}

// MotorTrim limits a motor per direction (percent of the mapped duty) and
// biases it (percent of full duty). Unset rates are 100, unset offset 0.
type MotorTrim struct {
	ForwardRate *int `toml:"forward_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	ReverseRate *int `toml:"reverse_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	Offset      *int `toml:"offset,omitempty" validate:"omitempty,gte=-100,lte=100"`
}

// Drive is a differential pair mixed from throttle and steer.
type Drive struct {
	Throttle    string    `toml:"throttle" validate:"analog"`
	Steer       string    `toml:"steer" validate:"analog"`
	Mix         string    `toml:"mix,omitempty" validate:"omitempty,oneof=throttle_minus_steer steer_minus_throttle"`
	LeftMotor   int       `toml:"left_motor" validate:"gte=0"`
	RightMotor  int       `toml:"right_motor" validate:"gte=0"`
	Left        MotorTrim `toml:"left,omitempty"`
	Right       MotorTrim `toml:"right,omitempty"`
	InvertSteer bool      `toml:"invert_steer,omitempty"`
}

// LEDGroup binds a profile layout role to an output group id. Pixels is
// only used for strings the profile does not drive, which then show the
// failsafe pattern alone.
type LEDGroup struct {
	Role   string `toml:"role" validate:"required"`
	ID     int    `toml:"id" validate:"gte=0"`
	Pixels int    `toml:"pixels,omitempty" validate:"omitempty,gte=1,lte=32"`
}
