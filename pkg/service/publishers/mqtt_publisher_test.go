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

package publishers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(t *testing.T, cfg config.MQTTPublisher, client *mockMQTTClient) *MQTTPublisher {
	t.Helper()
	p, err := NewMQTTPublisher(cfg, WithClientFactory(func(opts *mqtt.ClientOptions) mqtt.Client {
		client.opts = opts
		return client
	}))
	require.NoError(t, err)
	return p
}

func TestNewMQTTPublisher(t *testing.T) {
	t.Parallel()

	p, err := NewMQTTPublisher(config.MQTTPublisher{Broker: "mqtts://user:pw@broker.local:8883", Topic: "/rc/status"})
	require.NoError(t, err)
	assert.Equal(t, "rc/status", p.Topic())
	assert.True(t, p.ep.UseTLS)
	assert.Equal(t, "user", p.ep.Username)

	_, err = NewMQTTPublisher(config.MQTTPublisher{Broker: "", Topic: "rc"})
	require.Error(t, err)
}

func TestMQTTPublisher_PublishesEnvelopes(t *testing.T) {
	t.Parallel()

	client := &mockMQTTClient{}
	p := newTestPublisher(t, config.MQTTPublisher{Broker: "localhost:1883", Topic: "rc/status"}, client)

	ns := make(chan models.Notification, 2)
	ns <- models.Notification{Method: models.NotificationLinkFailsafe, Params: []byte(`{"timeouts":2}`)}
	ns <- models.Notification{Method: models.NotificationLinkRestored, Params: []byte(`{"downMillis":900}`)}
	close(ns)

	require.NoError(t, p.Run(context.Background(), ns))

	msgs := client.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "rc/status", msgs[0].topic)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"link.failsafe","params":{"timeouts":2}}`, string(msgs[0].payload))
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"link.restored","params":{"downMillis":900}}`, string(msgs[1].payload))
	assert.Equal(t, 1, client.disconnectCount())
	assert.Contains(t, client.opts.ClientID, config.AppName+"-publisher-")
}

func TestMQTTPublisher_Filter(t *testing.T) {
	t.Parallel()

	client := &mockMQTTClient{}
	p := newTestPublisher(t, config.MQTTPublisher{
		Broker: "localhost:1883",
		Topic:  "rc/status",
		Filter: []string{models.NotificationSleepTriggered},
	}, client)

	ns := make(chan models.Notification, 3)
	ns <- models.Notification{Method: models.NotificationLinkFailsafe}
	ns <- models.Notification{Method: models.NotificationSleepTriggered, Params: []byte(`{"role":"receiver"}`)}
	ns <- models.Notification{Method: models.NotificationConfigApplied}
	close(ns)

	require.NoError(t, p.Run(context.Background(), ns))
	msgs := client.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0].payload), models.NotificationSleepTriggered)
}

func TestMQTTPublisher_ConnectError(t *testing.T) {
	t.Parallel()

	client := &mockMQTTClient{connectError: errors.New("connection refused")}
	p := newTestPublisher(t, config.MQTTPublisher{Broker: "localhost:1883", Topic: "rc"}, client)

	err := p.Run(context.Background(), make(chan models.Notification))
	require.ErrorContains(t, err, "connection refused")
}

func TestMQTTPublisher_PublishErrorKeepsRunning(t *testing.T) {
	t.Parallel()

	client := &mockMQTTClient{publishError: errors.New("not authorized")}
	p := newTestPublisher(t, config.MQTTPublisher{Broker: "localhost:1883", Topic: "rc"}, client)

	ns := make(chan models.Notification, 2)
	ns <- models.Notification{Method: models.NotificationLinkFailsafe}
	ns <- models.Notification{Method: models.NotificationLinkRestored}
	close(ns)
	require.NoError(t, p.Run(context.Background(), ns))
	assert.Empty(t, client.messages())
}

func TestMQTTPublisher_StopsOnCancel(t *testing.T) {
	t.Parallel()

	client := &mockMQTTClient{}
	p := newTestPublisher(t, config.MQTTPublisher{Broker: "localhost:1883", Topic: "rc"}, client)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, make(chan models.Notification))
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
	assert.Equal(t, 1, client.disconnectCount())
}
