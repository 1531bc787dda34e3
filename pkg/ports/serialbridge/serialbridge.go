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

// Package serialbridge drives servos, motors and LED strings through a
// microcontroller attached over a serial port. Commands are one ASCII line
// each:
//
//	S <axis> <us>
//	M <motor> <F|B|N> <magnitude>
//	P <group> <index> <r> <g> <b>
//	F <group>
//
// Pixel lines are buffered and written together with the F line.
package serialbridge

import (
	"bytes"
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	linkserial "github.com/brickdrive/brickdrive-core/pkg/link/serial"
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"golang.org/x/time/rate"
)

type Bridge struct {
	factory  linkserial.PortFactory
	port     linkserial.SerialPort
	warn     *rate.Sometimes
	pending  map[int]*bytes.Buffer
	path     string
	baud     int
	mu       syncutil.Mutex
	closed   bool
	failures int
}

type Option func(*Bridge)

// WithPortFactory replaces how the port is opened.
func WithPortFactory(f linkserial.PortFactory) Option {
	return func(b *Bridge) {
		b.factory = f
	}
}

// Open opens the bridge port. A failure here is fatal to startup; later
// write failures are logged and the port is reopened on the next command.
func Open(path string, baud int, opts ...Option) (*Bridge, error) {
	if baud <= 0 {
		baud = linkserial.DefaultBaudRate
	}
	b := &Bridge{
		factory: linkserial.DefaultPortFactory,
		path:    path,
		baud:    baud,
		pending: make(map[int]*bytes.Buffer),
		warn:    &rate.Sometimes{Interval: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.openLocked(); err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("baud", baud).Msg("serial bridge opened")
	return b, nil
}

func (b *Bridge) openLocked() error {
	port, err := b.factory(b.path, &serial.Mode{BaudRate: b.baud})
	if err != nil {
		return fmt.Errorf("failed to open serial bridge %s: %w", b.path, err)
	}
	b.port = port
	return nil
}

func (b *Bridge) SetServoPulse(axis, micros int) {
	b.write(fmt.Appendf(nil, "S %d %d\n", axis, micros))
}

func (b *Bridge) SetMotorDuty(motor int, dir mapper.Direction, magnitude int) {
	b.write(fmt.Appendf(nil, "M %d %c %d\n", motor, directionCode(dir), magnitude))
}

func (b *Bridge) SetPixel(group, index int, c ports.RGB) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.pending[group]
	if !ok {
		buf = &bytes.Buffer{}
		b.pending[group] = buf
	}
	fmt.Fprintf(buf, "P %d %d %d %d %d\n", group, index, c.R, c.G, c.B)
}

func (b *Bridge) Flush(group int) {
	b.mu.Lock()
	var frame []byte
	if buf, ok := b.pending[group]; ok {
		frame = append(frame, buf.Bytes()...)
		buf.Reset()
	}
	b.mu.Unlock()
	b.write(fmt.Appendf(frame, "F %d\n", group))
}

// Failures returns how many writes have failed since the bridge opened.
func (b *Bridge) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Bridge) write(line []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if b.port == nil {
		if err := b.openLocked(); err != nil {
			b.failLocked(err)
			return
		}
		log.Info().Str("path", b.path).Msg("serial bridge reopened")
	}
	if _, err := b.port.Write(line); err != nil {
		_ = b.port.Close()
		b.port = nil
		b.failLocked(fmt.Errorf("serial bridge write: %w", err))
	}
}

func (b *Bridge) failLocked(err error) {
	b.failures++
	b.warn.Do(func() {
		log.Warn().Err(err).Int("failures", b.failures).Msg("serial bridge unavailable")
	})
}

// Close closes the port. Commands after Close are discarded.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.port == nil {
		return nil
	}
	err := b.port.Close()
	b.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial bridge: %w", err)
	}
	return nil
}

func directionCode(d mapper.Direction) byte {
	switch d {
	case mapper.Forward:
		return 'F'
	case mapper.Backward:
		return 'B'
	default:
		return 'N'
	}
}
