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

// Package sleep puts the host into its low-power state when the control core
// decides the operator has walked away.
package sleep

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Func enters the low-power state. It may not return on real hardware.
type Func func() error

const (
	ActionHalt = "halt"
	ActionLog  = "log"
)

// ErrUnsupported is returned by Halt on platforms without a halt call.
var ErrUnsupported = errors.New("sleep: halt not supported on this platform")

// Default returns the stock sleep behavior: a low-power halt.
func Default() Func {
	return Halt
}

// Logged only records that sleep was requested.
func Logged() error {
	log.Warn().Msg("sleep requested, halt disabled by configuration")
	return nil
}

// ForAction resolves a configured sleep action.
func ForAction(action string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "", ActionHalt:
		return Halt, nil
	case ActionLog:
		return Logged, nil
	default:
		return nil, fmt.Errorf("unknown sleep action: %q", action)
	}
}

// WithPrepare runs prepare (for example arming wake sources) before next.
// next is skipped when prepare fails.
func WithPrepare(prepare, next Func) Func {
	return func() error {
		if err := prepare(); err != nil {
			return fmt.Errorf("preparing sleep: %w", err)
		}
		return next()
	}
}
