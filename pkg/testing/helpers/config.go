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

package helpers

import (
	"sync/atomic"

	"github.com/brickdrive/brickdrive-core/pkg/config"
)

// StaticConfig serves config snapshots without a file. Store publishes a
// new snapshot with the next version, like a reload.
type StaticConfig struct {
	snap    atomic.Pointer[config.Snapshot]
	version atomic.Uint64
}

//nolint:gocritic // config struct copied for immutability
func NewStaticConfig(vals config.Values) *StaticConfig {
	c := &StaticConfig{}
	c.Store(vals)
	return c
}

func (c *StaticConfig) Snapshot() *config.Snapshot {
	return c.snap.Load()
}

// Store publishes vals and returns the new version.
//
//nolint:gocritic // config struct copied for immutability
func (c *StaticConfig) Store(vals config.Values) uint64 {
	v := c.version.Add(1)
	c.snap.Store(config.NewSnapshot(vals, v))
	return v
}

// Load republishes the current values under a new version, like a reload
// of an unchanged file.
func (c *StaticConfig) Load() error {
	c.Store(c.snap.Load().Values)
	return nil
}
