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

// Package link defines the radio link the control loop receives telegrams
// from, plus an in-memory implementation. Transports live in subpackages.
package link

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout means no telegram arrived within the requested wait.
	ErrTimeout = errors.New("link: receive timeout")
	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("link: closed")
)

// Link is a bidirectional, message-oriented channel. Any error other than
// ErrTimeout from Receive or Send is a link failure; the caller recovers by
// calling Reset.
type Link interface {
	// Receive waits up to timeout for one message.
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
	Send(ctx context.Context, data []byte) error
	// Reset re-initializes the transport. It is safe to call repeatedly.
	Reset(ctx context.Context) error
	Close() error
}

// IsFailure reports whether err is a link failure rather than a timeout or
// cancellation.
func IsFailure(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrTimeout) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
