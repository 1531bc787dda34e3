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

// Package stability watches input channels for operator inactivity. A
// channel is stable once its value has stayed within a threshold of the
// previous sample for a required duration; when every registered channel is
// stable the detector fires its sleep callback.
package stability

import (
	"errors"
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/sleep"
	"github.com/brickdrive/brickdrive-core/pkg/telegram"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultAnalogThreshold is the stick jitter tolerated while idle.
	DefaultAnalogThreshold = 100
	// DefaultDigitalThreshold makes any switch change count as activity.
	DefaultDigitalThreshold = 1
	// DefaultDuration is how long every channel must stay idle.
	DefaultDuration = 5 * time.Minute
)

var ErrUnknownChannel = errors.New("unknown channel")

type channel struct {
	steadySince time.Time
	threshold   int
	duration    time.Duration
	last        int
	hasLast     bool
	steady      bool
	stable      bool
}

// Detector is owned by one control loop and is not safe for concurrent use.
type Detector struct {
	clock    clockwork.Clock
	channels map[string]*channel
	callback sleep.Func
	fallback sleep.Func
	enabled  bool
	fired    bool
}

type Option func(*Detector)

// WithDefaultSleep replaces the sleep used when no callback is registered.
func WithDefaultSleep(fn sleep.Func) Option {
	return func(d *Detector) {
		d.fallback = fn
	}
}

// New creates an enabled detector with no channels.
func New(clock clockwork.Clock, opts ...Option) *Detector {
	d := &Detector{
		clock:    clock,
		channels: make(map[string]*channel),
		fallback: sleep.Default(),
		enabled:  true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddChannel starts tracking a channel. Re-adding a channel resets it.
func (d *Detector) AddChannel(name string, threshold int, duration time.Duration) {
	if !d.enabled {
		return
	}
	d.channels[name] = &channel{threshold: threshold, duration: duration}
}

// AddVectorChannels tracks all ten telegram channels by name with separate
// analog and digital thresholds.
func (d *Detector) AddVectorChannels(analogThreshold, digitalThreshold int, duration time.Duration) {
	for _, c := range telegram.Channels() {
		threshold := analogThreshold
		if c.IsDigital() {
			threshold = digitalThreshold
		}
		d.AddChannel(c.String(), threshold, duration)
	}
}

// Register records a new sample for a channel.
func (d *Detector) Register(name string, value int) error {
	if !d.enabled {
		return nil
	}
	ch, ok := d.channels[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}

	now := d.clock.Now()
	if !ch.hasLast {
		ch.last = value
		ch.hasLast = true
		return nil
	}

	fluct := value - ch.last
	if fluct < 0 {
		fluct = -fluct
	}
	ch.last = value

	if fluct < ch.threshold {
		if !ch.steady {
			ch.steady = true
			ch.steadySince = now
		} else if now.Sub(ch.steadySince) >= ch.duration {
			ch.stable = true
		}
		return nil
	}

	ch.steady = false
	ch.stable = false
	d.fired = false
	return nil
}

// RegisterVector records every channel of a telegram.
func (d *Detector) RegisterVector(v *telegram.ChannelVector) error {
	var errs []error
	for _, c := range telegram.Channels() {
		if _, ok := d.channels[c.String()]; !ok {
			continue
		}
		if err := d.Register(c.String(), v.Value(c)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AllStable reports whether at least one channel is registered and every
// registered channel is stable.
func (d *Detector) AllStable() bool {
	if !d.enabled || len(d.channels) == 0 {
		return false
	}
	for _, ch := range d.channels {
		if !ch.stable {
			return false
		}
	}
	return true
}

// Monitor fires the sleep callback when every channel is stable. It fires
// once per idle period; a channel must become active again to re-arm it.
func (d *Detector) Monitor() bool {
	if d.fired || !d.AllStable() {
		return false
	}
	d.fired = true

	fn := d.callback
	if fn == nil {
		fn = d.fallback
	}
	log.Info().Int("channels", len(d.channels)).Msg("all channels idle, entering sleep")
	if fn != nil {
		if err := fn(); err != nil {
			log.Error().Err(err).Msg("sleep callback failed")
		}
	}
	return true
}

// RegisterSleepCallback replaces the action run when all channels are
// stable.
func (d *Detector) RegisterSleepCallback(fn sleep.Func) {
	if !d.enabled {
		return
	}
	d.callback = fn
}

// Disable stops monitoring and forgets every channel and the callback.
func (d *Detector) Disable() {
	d.enabled = false
	d.channels = make(map[string]*channel)
	d.callback = nil
	d.fired = false
}

// Enable resumes monitoring. Channels must be added again.
func (d *Detector) Enable() {
	d.enabled = true
}

// Enabled reports whether the detector is monitoring.
func (d *Detector) Enabled() bool {
	return d.enabled
}

// Stable reports whether the named channel is currently stable.
func (d *Detector) Stable(name string) bool {
	ch, ok := d.channels[name]
	return ok && ch.stable
}
