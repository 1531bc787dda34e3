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

// Package methods implements the JSON-RPC methods served on the API
// websocket.
package methods

import (
	"context"
	"encoding/json"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/control"
	"github.com/jonboulle/clockwork"
)

// StatusSource is a running control loop.
type StatusSource interface {
	Status() control.Status
}

// ConfigStore is the loaded configuration file.
type ConfigStore interface {
	Load() error
	Snapshot() *config.Snapshot
}

// RequestEnv is everything a method handler may touch.
type RequestEnv struct {
	Context    context.Context
	Status     StatusSource
	Config     ConfigStore
	Clock      clockwork.Clock
	HostUptime func() (time.Duration, error)
	Params     json.RawMessage
	ID         models.RPCID
}

type Handler func(RequestEnv) (any, error)

// Map returns the method table.
func Map() map[string]Handler {
	return map[string]Handler{
		models.MethodStatus:         HandleStatus,
		models.MethodVersion:        HandleVersion,
		models.MethodSettingsReload: HandleSettingsReload,
	}
}
