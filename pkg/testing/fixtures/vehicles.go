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

// Package fixtures holds canned configurations and telegrams for tests.
package fixtures

import (
	"github.com/brickdrive/brickdrive-core/pkg/config"
)

const (
	// CenteredTelegram is a transmitter at rest.
	CenteredTelegram = "2047,2047,2047,2047,2047,2047,1,1,1,1"
	// FullForwardTelegram pushes the throttle (L3) fully forward.
	FullForwardTelegram = "2047,2047,500,2047,2047,2047,1,1,1,1"
	// LightsForwardTelegram is FullForwardTelegram with K1 actuated.
	LightsForwardTelegram = "2047,2047,500,2047,2047,2047,0,1,1,1"
	// MalformedTelegram has too few fields.
	MalformedTelegram = "2047,2047,2047"
)

func baseValues() config.Values {
	vals := config.BaseDefaults
	vals.Link.Driver = config.LinkDriverMemory
	vals.Link.Path = ""
	return vals
}

// DozerValues is a tracked vehicle: L3 throttle and R1 steer mixed onto
// motors 0 and 1, an R2 blade servo on axis 0 and the bulldozer lights on
// groups 1 and 2.
func DozerValues() config.Values {
	vals := baseValues()
	vals.Vehicle = config.Vehicle{
		Profile: "bulldozer",
		Drive: &config.Drive{
			Throttle:   "L3",
			Steer:      "R1",
			LeftMotor:  0,
			RightMotor: 1,
		},
		Servos: []config.Servo{
			{Channel: "R2", Axis: 0, Range: "half"},
		},
		LEDGroups: []config.LEDGroup{
			{Role: "cabin", ID: 1},
			{Role: "front", ID: 2},
		},
	}
	return vals
}

// TruckValues is a wheeled vehicle: R1 steering servo on axis 0, L3 drive
// motor 0 and the truck lights on group 1.
func TruckValues() config.Values {
	vals := baseValues()
	vals.Vehicle = config.Vehicle{
		Profile: "truck",
		Servos: []config.Servo{
			{Channel: "R1", Axis: 0},
		},
		Motors: []config.Motor{
			{Channel: "L3", Motor: 0},
		},
		LEDGroups: []config.LEDGroup{
			{Role: "lights", ID: 1},
		},
	}
	return vals
}

// RemoteValues is a transmitter reading text samples from its input and
// sending binary telegrams.
func RemoteValues() config.Values {
	vals := baseValues()
	vals.Role = config.RoleTransmitter
	vals.Link.Format = config.FormatBinary
	vals.Input = config.Link{
		Driver:       config.LinkDriverMemory,
		Format:       config.FormatText,
		Timeout:      "100ms",
		RetryBackoff: "500ms",
	}
	return vals
}
