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

package service

import (
	"errors"
	"fmt"
	"io"

	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/helpers"
	"github.com/brickdrive/brickdrive-core/pkg/link"
	linkmqtt "github.com/brickdrive/brickdrive-core/pkg/link/mqtt"
	linkserial "github.com/brickdrive/brickdrive-core/pkg/link/serial"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/ports/logport"
	"github.com/brickdrive/brickdrive-core/pkg/ports/serialbridge"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var ErrUnknownDriver = errors.New("unknown driver")

type openedLink struct {
	link link.Link
	// serial device in use, empty for other drivers
	path string
}

// openLink opens the transport described by lc. Serial "auto" skips the
// devices in taken so the radio and the input never share a port.
func openLink(lc config.Link, clock clockwork.Clock, publishOnly bool, taken ...string) (openedLink, error) {
	switch lc.Driver {
	case config.LinkDriverSerial:
		path, err := helpers.ResolveSerialPath(lc.Path, taken...)
		if err != nil {
			return openedLink{}, fmt.Errorf("resolving serial link: %w", err)
		}
		l, err := linkserial.Open(path, lc.BaudRate, linkserial.WithClock(clock))
		if err != nil {
			return openedLink{}, fmt.Errorf("opening serial link %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("serial link opened")
		return openedLink{link: l, path: path}, nil
	case config.LinkDriverMQTT:
		opts := []linkmqtt.Option{linkmqtt.WithClock(clock)}
		if publishOnly {
			opts = append(opts, linkmqtt.PublishOnly())
		}
		l, err := linkmqtt.Dial(lc.Path, opts...)
		if err != nil {
			return openedLink{}, fmt.Errorf("opening mqtt link: %w", err)
		}
		return openedLink{link: l}, nil
	case config.LinkDriverMemory:
		l, _ := link.NewPair(clock, link.DefaultQueueSize)
		log.Warn().Msg("using memory link, nothing will be received")
		return openedLink{link: l}, nil
	default:
		return openedLink{}, fmt.Errorf("%w: link %q", ErrUnknownDriver, lc.Driver)
	}
}

type outputs struct {
	actuators ports.Actuators
	leds      ports.LEDs
	closer    io.Closer
}

func openPorts(pc config.Ports, taken ...string) (outputs, error) {
	switch pc.Driver {
	case config.PortsDriverLog:
		p := logport.New()
		return outputs{actuators: p, leds: p}, nil
	case config.PortsDriverSerial:
		path, err := helpers.ResolveSerialPath(pc.Path, taken...)
		if err != nil {
			return outputs{}, fmt.Errorf("resolving serial bridge: %w", err)
		}
		b, err := serialbridge.Open(path, pc.BaudRate)
		if err != nil {
			return outputs{}, fmt.Errorf("opening serial bridge %s: %w", path, err)
		}
		return outputs{actuators: b, leds: b, closer: b}, nil
	default:
		return outputs{}, fmt.Errorf("%w: ports %q", ErrUnknownDriver, pc.Driver)
	}
}
