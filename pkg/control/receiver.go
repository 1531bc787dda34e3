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

// Package control runs the vehicle and remote control loops. A loop is a
// single goroutine: it waits on the link, maps what arrives onto the
// output ports and keeps the LED animations running in between.
package control

import (
	"context"
	"errors"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/api/notifications"
	"github.com/brickdrive/brickdrive-core/pkg/buttons"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/indicators"
	"github.com/brickdrive/brickdrive-core/pkg/link"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/sleep"
	"github.com/brickdrive/brickdrive-core/pkg/stability"
	"github.com/brickdrive/brickdrive-core/pkg/telegram"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ConfigSource hands out the current configuration snapshot.
type ConfigSource interface {
	Snapshot() *config.Snapshot
}

type options struct {
	clock  clockwork.Clock
	notify chan<- models.Notification
	sleep  sleep.Func
}

type Option func(*options)

// WithClock replaces the clock driving timeouts, animations and the
// stability detector.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithNotifications sends state changes to ns. Sends never block.
func WithNotifications(ns chan<- models.Notification) Option {
	return func(o *options) {
		o.notify = ns
	}
}

// WithSleep replaces the configured sleep action.
func WithSleep(fn sleep.Func) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Receiver is the vehicle side loop.
type Receiver struct {
	cfg           ConfigSource
	link          link.Link
	actuators     ports.Actuators
	leds          ports.LEDs
	opts          options
	detector      *stability.Detector
	buttons       *buttons.Handler
	rig           *rig
	dropWarn      *rate.Sometimes
	failsafeSince time.Time
	lastTelegram  time.Time
	windowStart   time.Time
	status        statusBox
	version       uint64
	mode          Mode
}

func NewReceiver(
	cfg ConfigSource,
	l link.Link,
	act ports.Actuators,
	lp ports.LEDs,
	opts ...Option,
) *Receiver {
	o := buildOptions(opts)
	r := &Receiver{
		cfg:       cfg,
		link:      l,
		actuators: act,
		leds:      lp,
		opts:      o,
		dropWarn:  &rate.Sometimes{First: 1, Interval: 5 * time.Second},
		detector:  stability.New(o.clock),
		buttons:   buttons.New(buttons.DefaultLongPress),
	}
	r.status.update(func(s *Status) {
		s.Role = config.RoleReceiver
	})
	return r
}

// Status returns a copy of the loop's current status.
func (r *Receiver) Status() Status {
	return r.status.get()
}

// Run drives the vehicle until ctx is cancelled. Outputs are left neutral
// and dark when it returns. No link or telegram error stops the loop.
func (r *Receiver) Run(ctx context.Context) error {
	r.refresh()
	now := r.opts.clock.Now()
	r.lastTelegram = now
	r.windowStart = now
	r.status.update(func(s *Status) {
		s.Started = now
	})
	r.rig.neutral(r.actuators)
	log.Info().
		Str("profile", r.rig.profileName()).
		Dur("timeout", r.rig.timeout).
		Msg("receiver loop started")

	defer r.shutdown()

	for ctx.Err() == nil {
		r.refresh()

		data, err := r.await(ctx)
		switch {
		case err == nil:
			r.handleTelegram(ctx, data)
		case errors.Is(err, link.ErrTimeout):
			r.handleTimeout(ctx)
		case ctx.Err() != nil:
		default:
			r.handleFailure(ctx, err)
		}
	}
	return nil
}

// refresh rebuilds derived state when the config snapshot changed.
func (r *Receiver) refresh() {
	snap := r.cfg.Snapshot()
	if r.rig != nil && snap.Version == r.version {
		return
	}

	next, err := buildRig(snap)
	if err != nil {
		log.Error().Err(err).Uint64("version", snap.Version).Msg("config applied with errors")
	}
	if r.rig != nil {
		r.rig.lightsOff(r.leds)
		// outputs that disappeared from the config must not keep running
		r.rig.neutral(r.actuators)
	}
	r.rig = next
	r.version = snap.Version
	r.configureSleep(snap)
	r.buttons.SetLongPress(snap.LongPress())

	if r.mode == Failsafe {
		r.showFailsafe(r.opts.clock.Now())
		r.rig.neutral(r.actuators)
	}

	r.status.update(func(s *Status) {
		s.ConfigVersion = snap.Version
		s.Profile = next.profileName()
	})
	log.Info().Uint64("version", snap.Version).Str("profile", next.profileName()).Msg("config applied")
	notifications.ConfigApplied(r.opts.notify, models.ConfigAppliedParams{
		Version: snap.Version,
		Profile: next.profileName(),
	})
}

// configureSleep re-registers every channel with the detector. Disabling
// first drops state from the previous snapshot.
func (r *Receiver) configureSleep(snap *config.Snapshot) {
	r.detector.Disable()
	if !snap.Values.Sleep.Enabled {
		return
	}
	r.detector.Enable()
	analog, digital := snap.SleepThresholds()
	r.detector.AddVectorChannels(analog, digital, snap.SleepDuration())

	next := r.opts.sleep
	if next == nil {
		fn, err := sleep.ForAction(snap.Values.Sleep.Action)
		if err != nil {
			log.Error().Err(err).Msg("invalid sleep action, using halt")
			fn = sleep.Default()
		}
		next = fn
	}
	r.detector.RegisterSleepCallback(sleep.WithPrepare(r.prepareSleep, next))
}

func (r *Receiver) prepareSleep() error {
	now := r.opts.clock.Now()
	r.rig.neutral(r.actuators)
	r.rig.lightsOff(r.leds)
	if r.rig.applier != nil {
		r.rig.applier.Reset()
	}
	r.status.update(func(s *Status) {
		s.Sleeping = true
	})
	notifications.SleepTriggered(r.opts.notify, models.SleepTriggeredParams{
		At:   now,
		Role: config.RoleReceiver,
	})
	return nil
}

// await waits up to the link timeout for a telegram. The wait is sliced
// by the animation interval and LEDs are ticked after every empty slice.
func (r *Receiver) await(ctx context.Context) ([]byte, error) {
	deadline := r.opts.clock.Now().Add(r.rig.timeout)
	for {
		remaining := deadline.Sub(r.opts.clock.Now())
		if remaining <= 0 {
			return nil, link.ErrTimeout
		}
		data, err := r.link.Receive(ctx, min(remaining, r.rig.tick))
		if !errors.Is(err, link.ErrTimeout) {
			return data, err
		}
		r.rig.tickLEDs(r.opts.clock.Now(), r.leds)
	}
}

// handleTelegram decodes and applies one frame. Malformed frames do not
// count as link activity: a link delivering only garbage times out like a
// silent one.
func (r *Receiver) handleTelegram(ctx context.Context, data []byte) {
	now := r.opts.clock.Now()
	vec, err := r.rig.codec.Decode(data)
	if err != nil {
		r.status.update(func(s *Status) {
			s.Dropped++
		})
		r.dropWarn.Do(func() {
			log.Warn().Err(err).Msg("dropping malformed telegram")
		})
		if now.Sub(r.windowStart) >= r.rig.timeout {
			r.handleTimeout(ctx)
			return
		}
		r.rig.tickLEDs(now, r.leds)
		return
	}

	r.lastTelegram = now
	r.windowStart = now
	if r.mode == Failsafe {
		r.leaveFailsafe(now)
	}
	r.rig.apply(&vec, r.actuators)
	r.indicate(&vec, now)
	r.reportButtons(&vec, now)
	idle := r.monitor(&vec)
	r.rig.tickLEDs(now, r.leds)

	r.status.update(func(s *Status) {
		s.Telegrams++
		s.LastTelegram = now
		s.Link = Connected
		s.Sleeping = idle
	})
}

func (r *Receiver) indicate(vec *telegram.ChannelVector, now time.Time) {
	if r.rig.applier == nil {
		return
	}
	in := &indicators.Input{Vector: *vec, Motion: r.rig.motionOf(vec)}
	if err := r.rig.applier.Apply(in, now); err != nil {
		log.Debug().Err(err).Msg("indicator rules partially applied")
	}
}

// reportButtons publishes short and long presses of the K switches.
func (r *Receiver) reportButtons(vec *telegram.ChannelVector, now time.Time) {
	for _, e := range r.buttons.Update(vec, now) {
		if e.Kind != buttons.Short && e.Kind != buttons.Long {
			continue
		}
		log.Debug().Stringer("button", e.Button).Stringer("kind", e.Kind).Dur("held", e.Held).Msg("button")
		notifications.Button(r.opts.notify, models.ButtonParams{
			Button:     e.Button.String(),
			Kind:       e.Kind.String(),
			HeldMillis: e.Held.Milliseconds(),
		})
	}
}

// monitor feeds the stability detector and reports whether every channel
// is idle.
func (r *Receiver) monitor(vec *telegram.ChannelVector) bool {
	return feedDetector(r.detector, vec)
}

func feedDetector(d *stability.Detector, vec *telegram.ChannelVector) bool {
	if !d.Enabled() {
		return false
	}
	if err := d.RegisterVector(vec); err != nil {
		log.Debug().Err(err).Msg("stability registration failed")
		return false
	}
	d.Monitor()
	return d.AllStable()
}

func (r *Receiver) handleTimeout(ctx context.Context) {
	now := r.opts.clock.Now()
	r.status.update(func(s *Status) {
		s.Timeouts++
		s.Link = TimedOut
	})
	if r.mode != Failsafe {
		r.enterFailsafe(now)
	}
	r.rig.neutral(r.actuators)
	r.rig.tickLEDs(now, r.leds)
	r.resetLink(ctx)
	r.windowStart = r.opts.clock.Now()
}

func (r *Receiver) enterFailsafe(now time.Time) {
	r.mode = Failsafe
	r.failsafeSince = now
	r.buttons.Reset()
	var timeouts uint64
	r.status.update(func(s *Status) {
		s.Mode = Failsafe
		s.Failsafes++
		timeouts = s.Timeouts
	})
	log.Warn().Dur("since_last", now.Sub(r.lastTelegram)).Msg("link lost, entering failsafe")
	r.showFailsafe(now)
	notifications.LinkFailsafe(r.opts.notify, models.LinkFailsafeParams{
		Since:    now,
		Timeouts: timeouts,
	})
}

// showFailsafe replaces every indicator with the failsafe blink.
func (r *Receiver) showFailsafe(now time.Time) {
	if r.rig.applier != nil {
		r.rig.applier.Reset()
	}
	for _, g := range r.rig.groups {
		if err := g.SetAll(r.rig.failsafe, now); err != nil {
			log.Error().Err(err).Int("group", g.ID).Msg("failed to set failsafe pattern")
		}
	}
}

func (r *Receiver) leaveFailsafe(now time.Time) {
	r.mode = Normal
	down := now.Sub(r.failsafeSince)
	for _, g := range r.rig.groups {
		g.Reset()
	}
	if r.rig.applier != nil {
		r.rig.applier.Reset()
	}
	r.status.update(func(s *Status) {
		s.Mode = Normal
	})
	log.Info().Dur("down", down).Msg("link restored")
	notifications.LinkRestored(r.opts.notify, models.LinkRestoredParams{
		At:         now,
		DownMillis: down.Milliseconds(),
	})
}

// handleFailure resets the link and backs off. A link that keeps failing
// without ever timing out still ends in failsafe once no telegram arrived
// for the link timeout.
func (r *Receiver) handleFailure(ctx context.Context, err error) {
	r.status.update(func(s *Status) {
		s.LinkFailures++
		s.Link = TimedOut
	})
	log.Warn().Err(err).Dur("backoff", r.rig.backoff).Msg("link failure, resetting")
	r.resetLink(ctx)
	r.pause(ctx, r.rig.backoff)

	now := r.opts.clock.Now()
	if r.mode != Failsafe && now.Sub(r.lastTelegram) >= r.rig.timeout {
		r.enterFailsafe(now)
		r.rig.neutral(r.actuators)
	}
}

func (r *Receiver) resetLink(ctx context.Context) {
	if err := r.link.Reset(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("link reset failed")
	}
}

// pause sleeps for d while keeping the animations running.
func (r *Receiver) pause(ctx context.Context, d time.Duration) {
	deadline := r.opts.clock.Now().Add(d)
	for {
		remaining := deadline.Sub(r.opts.clock.Now())
		if remaining <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-r.opts.clock.After(min(remaining, r.rig.tick)):
		}
		r.rig.tickLEDs(r.opts.clock.Now(), r.leds)
	}
}

// shutdown leaves every output in its safe state.
func (r *Receiver) shutdown() {
	r.rig.neutral(r.actuators)
	r.rig.lightsOff(r.leds)
	r.detector.Disable()
	log.Info().Msg("receiver loop stopped, outputs neutral")
}
