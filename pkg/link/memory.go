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

package link

import (
	"context"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
)

// DefaultQueueSize is the number of messages an endpoint buffers before the
// oldest is dropped.
const DefaultQueueSize = 16

// Memory is one endpoint of an in-process link, used for simulation and
// tests.
type Memory struct {
	clock    clockwork.Clock
	inbox    chan []byte
	peer     *Memory
	failNext error
	resets   int
	mu       syncutil.Mutex
	closed   bool
}

// NewPair returns two connected endpoints: what one sends the other
// receives.
func NewPair(clock clockwork.Clock, queue int) (a, b *Memory) {
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	a = &Memory{clock: clock, inbox: make(chan []byte, queue)}
	b = &Memory{clock: clock, inbox: make(chan []byte, queue)}
	a.peer, b.peer = b, a
	return a, b
}

func (m *Memory) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if err := m.failNext; err != nil {
		m.failNext = nil
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	select {
	case msg := <-m.inbox:
		return msg, nil
	default:
	}

	timer := m.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-m.inbox:
		return msg, nil
	case <-timer.Chan():
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Memory) Send(_ context.Context, data []byte) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrClosed
	}
	m.peer.deliver(data)
	return nil
}

// Inject places a message directly in this endpoint's inbox.
func (m *Memory) Inject(data []byte) {
	m.deliver(data)
}

func (m *Memory) deliver(data []byte) {
	msg := make([]byte, len(data))
	copy(msg, data)
	for {
		select {
		case m.inbox <- msg:
			return
		default:
		}
		select {
		case <-m.inbox:
		default:
		}
	}
}

// FailNext makes the next Receive return err.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// Reset drops queued messages.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.resets++
	for {
		select {
		case <-m.inbox:
		default:
			return nil
		}
	}
}

// Resets returns how many times Reset was called.
func (m *Memory) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
