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

// Package mqtt carries telegrams over an MQTT topic, for vehicles reached
// through a broker instead of a point-to-point radio.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	"github.com/brickdrive/brickdrive-core/pkg/link"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

var errConnectionLost = errors.New("mqtt connection lost")

// Link is a link.Link over one MQTT topic. Telegrams are published and
// received with QoS 0; a late telegram is worth less than a fresh one.
type Link struct {
	clock         clockwork.Clock
	clientFactory ClientFactory
	client        mqtt.Client
	inbox         chan []byte
	lost          chan error
	endpoint      Endpoint
	mu            syncutil.Mutex
	subscribe     bool
	closed        bool
}

type Option func(*Link)

// WithClientFactory replaces how clients are created.
func WithClientFactory(f ClientFactory) Option {
	return func(l *Link) {
		l.clientFactory = f
	}
}

// WithClock replaces the clock used for receive timeouts.
func WithClock(c clockwork.Clock) Option {
	return func(l *Link) {
		l.clock = c
	}
}

// PublishOnly skips the topic subscription, for the transmitter side.
func PublishOnly() Option {
	return func(l *Link) {
		l.subscribe = false
	}
}

// Dial parses path and connects to the broker.
func Dial(path string, opts ...Option) (*Link, error) {
	ep, err := ParseMQTTPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MQTT path: %w", err)
	}

	l := &Link{
		clock:         clockwork.NewRealClock(),
		clientFactory: DefaultClientFactory,
		endpoint:      ep,
		inbox:         make(chan []byte, link.DefaultQueueSize),
		lost:          make(chan error, 1),
		subscribe:     true,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.connectLocked(context.Background()); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Link) connectLocked(ctx context.Context) error {
	opts := NewClientOptions(l.endpoint, "brickdrive-link-")
	opts.OnConnect = func(client mqtt.Client) {
		log.Info().Msgf("mqtt link: connected to %s", l.endpoint.Broker)
		if !l.subscribe {
			return
		}
		// subscribing here re-subscribes after an automatic reconnect
		token := client.Subscribe(l.endpoint.Topic, 0, l.onMessage)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msgf("mqtt link: failed to subscribe to %s", l.endpoint.Topic)
			l.signalLost(fmt.Errorf("failed to subscribe to topic: %w", token.Error()))
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt link: connection lost")
		l.signalLost(fmt.Errorf("%w: %w", errConnectionLost, err))
	}

	client := l.clientFactory(opts)
	if err := Connect(ctx, client, connectTimeout); err != nil {
		return err
	}
	l.client = client
	log.Info().Msgf("mqtt link: opened %s (topic: %s)", l.endpoint.Broker, l.endpoint.Topic)
	return nil
}

func (l *Link) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	if len(payload) == 0 {
		return
	}
	data := make([]byte, len(payload))
	copy(data, payload)
	for {
		select {
		case l.inbox <- data:
			return
		default:
		}
		select {
		case <-l.inbox:
		default:
		}
	}
}

func (l *Link) signalLost(err error) {
	select {
	case l.lost <- err:
	default:
	}
}

func (l *Link) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, link.ErrClosed
	}

	select {
	case msg := <-l.inbox:
		return msg, nil
	default:
	}

	timer := l.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-l.inbox:
		return msg, nil
	case err := <-l.lost:
		return nil, err
	case <-timer.Chan():
		return nil, link.ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Link) Send(_ context.Context, data []byte) error {
	l.mu.Lock()
	client, closed := l.client, l.closed
	l.mu.Unlock()
	if closed {
		return link.ErrClosed
	}
	if client == nil || !client.IsConnected() {
		return errors.New("mqtt link: not connected")
	}

	token := client.Publish(l.endpoint.Topic, 0, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("mqtt link: publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt link: publish: %w", err)
	}
	return nil
}

// Reset disconnects and reconnects, dropping queued telegrams. The
// reconnect gives up when ctx is done.
func (l *Link) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return link.ErrClosed
	}
	if l.client != nil {
		l.client.Disconnect(0)
		l.client = nil
	}
	l.drain()
	return l.connectLocked(ctx)
}

func (l *Link) drain() {
	for {
		select {
		case <-l.inbox:
		case <-l.lost:
		default:
			return
		}
	}
}

func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.client != nil && l.client.IsConnected() {
		log.Debug().Msg("mqtt link: disconnecting")
		l.client.Disconnect(250)
	}
	return nil
}
