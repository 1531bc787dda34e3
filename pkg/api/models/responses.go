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

type StatusResponse struct {
	LastTelegram  *time.Time `json:"lastTelegram,omitempty"`
	Role          string     `json:"role"`
	Mode          string     `json:"mode"`
	Link          string     `json:"link"`
	DeviceID      string     `json:"deviceId,omitempty"`
	Profile       string     `json:"profile,omitempty"`
	Telegrams     uint64     `json:"telegrams"`
	Dropped       uint64     `json:"dropped"`
	Timeouts      uint64     `json:"timeouts"`
	LinkFailures  uint64     `json:"linkFailures"`
	Failsafes     uint64     `json:"failsafes"`
	Sent          uint64     `json:"sent"`
	ConfigVersion uint64     `json:"configVersion"`
	UptimeSeconds int64      `json:"uptimeSeconds"`
	HostUptime    int64      `json:"hostUptimeSeconds,omitempty"`
	Sleeping      bool       `json:"sleeping"`
}

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

type SettingsReloadResponse struct {
	ConfigVersion uint64 `json:"configVersion"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
