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

// Package broker fans loop notifications out to the API websocket and the
// publishers. Sends never block: a full subscriber loses the notification.
package broker

import (
	"context"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type subscriber struct {
	ch      chan models.Notification
	warn    *rate.Sometimes
	dropped uint64
}

type Broker struct {
	source      <-chan models.Notification
	subscribers map[int]*subscriber
	mu          syncutil.RWMutex
	nextID      int
	stopped     bool
}

func NewBroker(source <-chan models.Notification) *Broker {
	return &Broker{
		source:      source,
		subscribers: make(map[int]*subscriber),
	}
}

// Run broadcasts until ctx is cancelled or the source closes, then closes
// every subscriber channel.
func (b *Broker) Run(ctx context.Context) error {
	defer b.Stop()
	for {
		select {
		case n, ok := <-b.source:
			if !ok {
				log.Debug().Msg("broker: source channel closed")
				return nil
			}
			b.broadcast(n)
		case <-ctx.Done():
			log.Debug().Msg("broker: context cancelled, shutting down")
			return nil
		}
	}
}

func (b *Broker) broadcast(n models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscribers {
		select {
		case sub.ch <- n:
		default:
			sub.dropped++
			sub.warn.Do(func() {
				log.Warn().
					Int("subscriber_id", id).
					Str("method", n.Method).
					Uint64("dropped", sub.dropped).
					Msg("subscriber channel full, dropping notification")
			})
		}
	}
}

// Subscribe registers a consumer with room for bufferSize queued
// notifications. The channel is closed by Unsubscribe or when the broker
// stops; subscribing to a stopped broker yields a closed channel.
func (b *Broker) Subscribe(bufferSize int) (notifChan <-chan models.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++
	ch := make(chan models.Notification, bufferSize)
	if b.stopped {
		close(ch)
		return ch, id
	}
	b.subscribers[id] = &subscriber{
		ch:   ch,
		warn: &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	log.Debug().Int("subscriber_id", id).Int("buffer_size", bufferSize).Msg("new subscriber registered")
	return ch, id
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids
// are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(sub.ch)
		log.Debug().Int("subscriber_id", id).Msg("subscriber unsubscribed")
	}
}

// Dropped returns how many notifications subscriber id has lost.
func (b *Broker) Dropped(id int) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if sub, ok := b.subscribers[id]; ok {
		return sub.dropped
	}
	return 0
}

// Stop closes every subscriber channel.
func (b *Broker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscribers {
		close(sub.ch)
		log.Debug().Int("subscriber_id", id).Msg("closed subscriber channel on shutdown")
	}
	b.subscribers = make(map[int]*subscriber)
	b.stopped = true
}
