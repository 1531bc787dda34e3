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

package models

import "time"

type LinkFailsafeParams struct {
	Since    time.Time `json:"since"`
	Timeouts uint64    `json:"timeouts"`
}

type LinkRestoredParams struct {
	At         time.Time `json:"at"`
	DownMillis int64     `json:"downMillis"`
}

type SleepTriggeredParams struct {
	At   time.Time `json:"at"`
	Role string    `json:"role"`
}

// ButtonParams reports a short or long press of a K switch.
type ButtonParams struct {
	Button     string `json:"button"`
	Kind       string `json:"kind"`
	HeldMillis int64  `json:"heldMillis"`
}

type ConfigAppliedParams struct {
	Profile string `json:"profile,omitempty"`
	Version uint64 `json:"version"`
}
