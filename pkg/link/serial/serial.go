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

// Package serial carries newline-delimited telegrams over a serial port,
// typically a USB radio dongle.
package serial

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	"github.com/brickdrive/brickdrive-core/pkg/link"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	DefaultBaudRate = 115200
	readTimeout     = 100 * time.Millisecond
	maxLineLength   = 256
)

// SerialPort defines the interface for serial port operations (for mocking in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortFactory opens a serial port.
type PortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultPortFactory is the default factory that opens real serial ports.
func DefaultPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Link is a link.Link over a serial port. A reader goroutine splits
// incoming bytes into lines and queues them; when the queue is full the
// oldest line is dropped.
type Link struct {
	clock   clockwork.Clock
	factory PortFactory
	port    SerialPort
	lines   chan []byte
	errs    chan error
	stop    chan struct{}
	done    chan struct{}
	path    string
	baud    int
	mu      syncutil.Mutex
	closed  bool
}

type Option func(*Link)

// WithPortFactory replaces how the port is opened.
func WithPortFactory(f PortFactory) Option {
	return func(l *Link) {
		l.factory = f
	}
}

// WithClock replaces the clock used for receive timeouts.
func WithClock(c clockwork.Clock) Option {
	return func(l *Link) {
		l.clock = c
	}
}

// Open creates the link and opens the port.
func Open(path string, baud int, opts ...Option) (*Link, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	l := &Link{
		clock:   clockwork.NewRealClock(),
		factory: DefaultPortFactory,
		path:    path,
		baud:    baud,
		lines:   make(chan []byte, link.DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Link) open() error {
	port, err := l.factory(l.path, &serial.Mode{BaudRate: l.baud})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", l.path, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on serial port: %w", err)
	}

	l.port = port
	l.errs = make(chan error, 1)
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.readLoop(port, l.errs, l.stop, l.done)

	log.Info().Str("path", l.path).Int("baud", l.baud).Msg("serial link opened")
	return nil
}

func (l *Link) readLoop(port SerialPort, errs chan<- error, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var lineBuf []byte
	buf := make([]byte, 256)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-stop:
			default:
				errs <- err
			}
			return
		}

		for _, b := range buf[:n] {
			if b != '\n' {
				if len(lineBuf) < maxLineLength {
					lineBuf = append(lineBuf, b)
				}
				continue
			}
			line := bytes.TrimSpace(lineBuf)
			lineBuf = nil
			if len(line) == 0 {
				continue
			}
			l.enqueue(line)
		}
	}
}

func (l *Link) enqueue(line []byte) {
	for {
		select {
		case l.lines <- line:
			return
		default:
		}
		select {
		case <-l.lines:
		default:
		}
	}
}

func (l *Link) current() (SerialPort, <-chan error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, nil, link.ErrClosed
	}
	if l.port == nil {
		return nil, nil, errors.New("serial port not open")
	}
	return l.port, l.errs, nil
}

func (l *Link) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	_, errs, err := l.current()
	if err != nil {
		return nil, err
	}

	select {
	case line := <-l.lines:
		return line, nil
	default:
	}

	timer := l.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line := <-l.lines:
		return line, nil
	case err := <-errs:
		return nil, fmt.Errorf("serial read: %w", err)
	case <-timer.Chan():
		return nil, link.ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Link) Send(_ context.Context, data []byte) error {
	port, _, err := l.current()
	if err != nil {
		return err
	}
	msg := make([]byte, 0, len(data)+1)
	msg = append(msg, data...)
	msg = append(msg, '\n')
	if _, err := port.Write(msg); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Reset closes and reopens the port, dropping queued lines.
func (l *Link) Reset(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return link.ErrClosed
	}
	l.shutdownLocked()
	l.drain()
	log.Debug().Str("path", l.path).Msg("resetting serial link")
	return l.open()
}

func (l *Link) drain() {
	for {
		select {
		case <-l.lines:
		default:
			return
		}
	}
}

func (l *Link) shutdownLocked() {
	if l.port == nil {
		return
	}
	close(l.stop)
	if err := l.port.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close serial port")
	}
	<-l.done
	l.port = nil
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.shutdownLocked()
	return nil
}
