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

const (
	LinkDriverSerial = "serial"
	LinkDriverMQTT   = "mqtt"
	LinkDriverMemory = "memory"

	FormatText   = "text"
	FormatBinary = "binary"

	// SerialAuto picks the first detected USB serial device.
	SerialAuto = "auto"

	PortsDriverLog    = "log"
	PortsDriverSerial = "serial"
)

// Link configures a telegram transport. Path is the serial device for the
// serial driver and "broker:port/topic" for the mqtt driver.
type Link struct {
	Driver       string `toml:"driver" validate:"oneof=serial mqtt memory"`
	Path         string `toml:"path,omitempty"`
	Format       string `toml:"format" validate:"oneof=text binary"`
	Timeout      string `toml:"timeout" validate:"duration,required"`
	RetryBackoff string `toml:"retry_backoff" validate:"duration,required"`
	BaudRate     int    `toml:"baud_rate,omitempty" validate:"gte=0"`
}

type Control struct {
	AnimationInterval string `toml:"animation_interval" validate:"duration,required"`
	SendInterval      string `toml:"send_interval" validate:"duration,required"`
	LongPress         string `toml:"long_press,omitempty" validate:"duration"`
	StatusGroup       int    `toml:"status_group" validate:"gte=0"`
}

// Ports selects the actuator and LED adapter.
type Ports struct {
	Driver   string `toml:"driver" validate:"oneof=log serial"`
	Path     string `toml:"path,omitempty"`
	BaudRate int    `toml:"baud_rate,omitempty" validate:"gte=0"`
}

type Failsafe struct {
	Period string `toml:"period" validate:"duration,required"`
	Color  string `toml:"color" validate:"color"`
}

type Sleep struct {
	AnalogThreshold  *int   `toml:"analog_threshold,omitempty" validate:"omitempty,gte=0"`
	DigitalThreshold *int   `toml:"digital_threshold,omitempty" validate:"omitempty,gte=0"`
	Action           string `toml:"action" validate:"oneof=halt log"`
	Duration         string `toml:"duration" validate:"duration,required"`
	Enabled          bool   `toml:"enabled"`
}
