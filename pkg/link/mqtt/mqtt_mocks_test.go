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

package mqtt

import (
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// mockMQTTClient implements mqtt.Client for testing. Connect runs the
// options' OnConnect handler like the real client does.
type mockMQTTClient struct {
	connectError   error
	subscribeError error
	publishError   error
	opts           *mqtt.ClientOptions
	messageHandler mqtt.MessageHandler
	published      [][]byte
	topic          string
	mu             syncutil.Mutex
	disconnects    int
	connected      bool
	connectHangs   bool
}

func (m *mockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockMQTTClient) IsConnectionOpen() bool {
	return m.IsConnected()
}

func (m *mockMQTTClient) Connect() mqtt.Token {
	m.mu.Lock()
	if m.connectHangs {
		m.mu.Unlock()
		return &mockToken{pending: make(chan struct{})}
	}
	if m.connectError != nil {
		err := m.connectError
		m.mu.Unlock()
		return &mockToken{err: err, complete: true}
	}
	m.connected = true
	m.mu.Unlock()
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &mockToken{complete: true}
}

func (m *mockMQTTClient) Disconnect(_ uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.disconnects++
}

func (m *mockMQTTClient) Publish(_ string, _ byte, _ bool, payload any) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishError != nil {
		return &mockToken{err: m.publishError, complete: true}
	}
	if b, ok := payload.([]byte); ok {
		m.published = append(m.published, b)
	}
	return &mockToken{complete: true}
}

func (m *mockMQTTClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeError != nil {
		return &mockToken{err: m.subscribeError, complete: true}
	}
	m.topic = topic
	m.messageHandler = callback
	return &mockToken{complete: true}
}

func (*mockMQTTClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return &mockToken{complete: true}
}

func (*mockMQTTClient) Unsubscribe(_ ...string) mqtt.Token {
	return &mockToken{complete: true}
}

func (m *mockMQTTClient) AddRoute(_ string, callback mqtt.MessageHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messageHandler = callback
}

func (*mockMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// deliver simulates the broker delivering payload on the subscribed topic.
func (m *mockMQTTClient) deliver(payload []byte) {
	m.mu.Lock()
	handler := m.messageHandler
	m.mu.Unlock()
	if handler != nil {
		handler(m, &mockMessage{payload: payload, topic: m.topic})
	}
}

func (m *mockMQTTClient) loseConnection(err error) {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	if m.opts != nil && m.opts.OnConnectionLost != nil {
		m.opts.OnConnectionLost(m, err)
	}
}

// mockToken implements mqtt.Token for testing. A token with a pending
// channel never completes.
type mockToken struct {
	err      error
	pending  chan struct{}
	complete bool
}

func (*mockToken) Wait() bool {
	return true
}

func (t *mockToken) WaitTimeout(_ time.Duration) bool {
	return t.complete
}

func (t *mockToken) Done() <-chan struct{} {
	if t.pending != nil {
		return t.pending
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *mockToken) Error() error {
	return t.err
}

// mockMessage implements mqtt.Message for testing
type mockMessage struct {
	topic   string
	payload []byte
}

func (*mockMessage) Duplicate() bool {
	return false
}

func (*mockMessage) Qos() byte {
	return 0
}

func (*mockMessage) Retained() bool {
	return false
}

func (m *mockMessage) Topic() string {
	return m.topic
}

func (*mockMessage) MessageID() uint16 {
	return 0
}

func (m *mockMessage) Payload() []byte {
	return m.payload
}

func (*mockMessage) Ack() {}

// mockFactory hands out a fresh client per connect and remembers them.
type mockFactory struct {
	connectError error
	clients      []*mockMQTTClient
	mu           syncutil.Mutex
	connectHangs bool
}

func (f *mockFactory) create(opts *mqtt.ClientOptions) mqtt.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &mockMQTTClient{opts: opts, connectError: f.connectError, connectHangs: f.connectHangs}
	f.clients = append(f.clients, c)
	return c
}

func (f *mockFactory) latest() *mockMQTTClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[len(f.clients)-1]
}

func (f *mockFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *mockFactory) hangConnects(hang bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectHangs = hang
}
