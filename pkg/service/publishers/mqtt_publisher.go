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

// Package publishers forwards loop notifications to external systems.
package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	linkmqtt "github.com/brickdrive/brickdrive-core/pkg/link/mqtt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
)

// MQTTPublisher publishes notifications as JSON-RPC envelopes to one
// topic.
type MQTTPublisher struct {
	factory linkmqtt.ClientFactory
	client  mqtt.Client
	ep      linkmqtt.Endpoint
	filter  []string
}

type Option func(*MQTTPublisher)

// WithClientFactory replaces the paho client constructor.
func WithClientFactory(f linkmqtt.ClientFactory) Option {
	return func(p *MQTTPublisher) {
		p.factory = f
	}
}

// NewMQTTPublisher parses the broker address of cfg. An empty filter
// publishes every notification.
func NewMQTTPublisher(cfg config.MQTTPublisher, opts ...Option) (*MQTTPublisher, error) {
	path := strings.TrimRight(cfg.Broker, "/") + "/" + strings.TrimLeft(cfg.Topic, "/")
	ep, err := linkmqtt.ParseMQTTPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid mqtt publisher %q: %w", cfg.Broker, err)
	}
	p := &MQTTPublisher{
		factory: linkmqtt.DefaultClientFactory,
		ep:      ep,
		filter:  cfg.Filter,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *MQTTPublisher) Topic() string {
	return p.ep.Topic
}

// Run connects and publishes until ctx is cancelled or notifications is
// closed.
func (p *MQTTPublisher) Run(ctx context.Context, notifications <-chan models.Notification) error {
	opts := linkmqtt.NewClientOptions(p.ep, config.AppName+"-publisher-")
	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.ep.Broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}
	p.client = p.factory(opts)
	if err := linkmqtt.Connect(ctx, p.client, connectTimeout); err != nil {
		return err //nolint:wrapcheck // already describes the broker failure
	}
	defer func() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(disconnectQuiesce)
	}()
	log.Info().Msgf("mqtt publisher: publishing to %s (topic: %s)", p.ep.Broker, p.ep.Topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return nil
			}
			if !p.matchesFilter(n.Method) {
				continue
			}
			p.publish(n)
		}
	}
}

func (p *MQTTPublisher) publish(n models.Notification) {
	payload, err := json.Marshal(models.NewNotificationObject(n))
	if err != nil {
		log.Error().Err(err).Msg("mqtt publisher: failed to marshal notification")
		return
	}
	token := p.client.Publish(p.ep.Topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.Warn().Str("method", n.Method).Msg("mqtt publisher: publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		log.Error().Err(err).Msg("mqtt publisher: failed to publish message")
		return
	}
	log.Debug().Msgf("mqtt publisher: published %s notification", n.Method)
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	return len(p.filter) == 0 || slices.Contains(p.filter, method)
}
