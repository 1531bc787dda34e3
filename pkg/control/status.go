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
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
)

// Mode is the output state of the receiver.
type Mode int

const (
	Normal Mode = iota
	Failsafe
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Failsafe:
		return "failsafe"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// LinkState says whether the last wait on the link produced a telegram.
type LinkState int

const (
	TimedOut LinkState = iota
	Connected
)

func (s LinkState) String() string {
	switch s {
	case TimedOut:
		return "timed_out"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("LinkState(%d)", int(s))
	}
}

// Status is a point-in-time view of a control loop.
type Status struct {
	LastTelegram  time.Time
	Started       time.Time
	Role          string
	Profile       string
	Telegrams     uint64
	Dropped       uint64
	Timeouts      uint64
	LinkFailures  uint64
	Failsafes     uint64
	Sent          uint64
	ConfigVersion uint64
	Mode          Mode
	Link          LinkState
	Sleeping      bool
}

type statusBox struct {
	s  Status
	mu syncutil.RWMutex
}

func (b *statusBox) get() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.s
}

func (b *statusBox) update(fn func(s *Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.s)
}
