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

package control

import (
	"context"
	"errors"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/api/notifications"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/leds"
	"github.com/brickdrive/brickdrive-core/pkg/link"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/sleep"
	"github.com/brickdrive/brickdrive-core/pkg/stability"
	"github.com/brickdrive/brickdrive-core/pkg/telegram"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	statusPixels = 1
	statusPeriod = 2 * time.Second
)

var statusEffect = leds.Effect{
	Mode:     leds.Breathing,
	Color:    ports.Violet,
	Duration: statusPeriod,
	Repeat:   leds.RepeatForever,
	Mask:     leds.MaskAll(statusPixels),
}

// txRig is what the transmitter derives from one config snapshot.
type txRig struct {
	inCodec   telegram.Codec
	outCodec  telegram.Codec
	status    *leds.Group
	interval  time.Duration
	stale     time.Duration
	backoff   time.Duration
	statusID  int
	hasStatus bool
}

func buildTxRig(snap *config.Snapshot) (*txRig, error) {
	var errs []error
	r := &txRig{
		interval: snap.SendInterval(),
		stale:    snap.InputTimeout(),
		backoff:  snap.RetryBackoff(),
		statusID: snap.Values.Control.StatusGroup,
	}

	var err error
	if r.inCodec, err = telegram.NewCodec(snap.Values.Input.Format); err != nil {
		errs = append(errs, err)
		r.inCodec = telegram.TextCodec{}
	}
	if r.outCodec, err = telegram.NewCodec(snap.Values.Link.Format); err != nil {
		errs = append(errs, err)
		r.outCodec = telegram.TextCodec{}
	}

	g, err := leds.NewGroup(r.statusID, statusPixels)
	if err != nil {
		errs = append(errs, err)
	} else {
		r.status = g
		r.hasStatus = true
	}
	return r, errors.Join(errs...)
}

// Transmitter is the remote side loop: it forwards sampled stick positions
// from an input source to the radio link.
type Transmitter struct {
	cfg      ConfigSource
	input    link.Link
	out      link.Link
	leds     ports.LEDs
	opts     options
	detector *stability.Detector
	rig      *txRig
	dropWarn *rate.Sometimes
	latest   telegram.ChannelVector
	sampled  time.Time
	lastSent time.Time
	status   statusBox
	version  uint64
	sampling bool
}

func NewTransmitter(cfg ConfigSource, input, out link.Link, lp ports.LEDs, opts ...Option) *Transmitter {
	o := buildOptions(opts)
	t := &Transmitter{
		cfg:      cfg,
		input:    input,
		out:      out,
		leds:     lp,
		opts:     o,
		dropWarn: &rate.Sometimes{First: 1, Interval: 5 * time.Second},
		detector: stability.New(o.clock),
	}
	t.status.update(func(s *Status) {
		s.Role = config.RoleTransmitter
	})
	return t
}

func (t *Transmitter) Status() Status {
	return t.status.get()
}

// Run samples the input and sends until ctx is cancelled. The latest
// sample is repeated every send interval while it is fresh; a stale input
// sends nothing so the vehicle falls into failsafe.
func (t *Transmitter) Run(ctx context.Context) error {
	t.refresh()
	t.status.update(func(s *Status) {
		s.Started = t.opts.clock.Now()
	})
	log.Info().Dur("interval", t.rig.interval).Msg("transmitter loop started")
	defer t.shutdown()

	for ctx.Err() == nil {
		t.refresh()

		data, err := t.input.Receive(ctx, t.rig.interval)
		now := t.opts.clock.Now()
		switch {
		case err == nil:
			t.sample(data, now)
		case errors.Is(err, link.ErrTimeout):
		case ctx.Err() != nil:
			continue
		default:
			log.Warn().Err(err).Msg("input failure, resetting")
			if rerr := t.input.Reset(ctx); rerr != nil && ctx.Err() == nil {
				log.Warn().Err(rerr).Msg("input reset failed")
			}
			t.pause(ctx, t.rig.backoff)
			continue
		}

		if t.sampling && now.Sub(t.sampled) < t.rig.stale && now.Sub(t.lastSent) >= t.rig.interval {
			t.send(ctx, now)
		}
		t.tick(now)
	}
	return nil
}

func (t *Transmitter) refresh() {
	snap := t.cfg.Snapshot()
	if t.rig != nil && snap.Version == t.version {
		return
	}
	next, err := buildTxRig(snap)
	if err != nil {
		log.Error().Err(err).Uint64("version", snap.Version).Msg("config applied with errors")
	}
	if t.rig != nil && t.rig.hasStatus {
		t.rig.status.Off(t.leds)
	}
	t.rig = next
	t.version = snap.Version
	if next.hasStatus {
		if err := next.status.SetAll(statusEffect, t.opts.clock.Now()); err != nil {
			log.Error().Err(err).Msg("failed to start status led")
		}
	}
	t.configureSleep(snap)

	t.status.update(func(s *Status) {
		s.ConfigVersion = snap.Version
	})
	notifications.ConfigApplied(t.opts.notify, models.ConfigAppliedParams{Version: snap.Version})
}

func (t *Transmitter) configureSleep(snap *config.Snapshot) {
	t.detector.Disable()
	if !snap.Values.Sleep.Enabled {
		return
	}
	t.detector.Enable()
	analog, digital := snap.SleepThresholds()
	t.detector.AddVectorChannels(analog, digital, snap.SleepDuration())

	next := t.opts.sleep
	if next == nil {
		fn, err := sleep.ForAction(snap.Values.Sleep.Action)
		if err != nil {
			log.Error().Err(err).Msg("invalid sleep action, using halt")
			fn = sleep.Default()
		}
		next = fn
	}
	t.detector.RegisterSleepCallback(sleep.WithPrepare(t.prepareSleep, next))
}

func (t *Transmitter) prepareSleep() error {
	if t.rig.hasStatus {
		t.rig.status.Off(t.leds)
	}
	t.status.update(func(s *Status) {
		s.Sleeping = true
	})
	notifications.SleepTriggered(t.opts.notify, models.SleepTriggeredParams{
		At:   t.opts.clock.Now(),
		Role: config.RoleTransmitter,
	})
	return nil
}

func (t *Transmitter) sample(data []byte, now time.Time) {
	vec, err := t.rig.inCodec.Decode(data)
	if err != nil {
		t.status.update(func(s *Status) {
			s.Dropped++
		})
		t.dropWarn.Do(func() {
			log.Warn().Err(err).Msg("dropping malformed input sample")
		})
		return
	}
	t.latest = vec
	t.sampled = now
	t.sampling = true

	wasIdle := t.status.get().Sleeping
	idle := feedDetector(t.detector, &vec)
	if wasIdle && !idle && t.rig.hasStatus {
		if err := t.rig.status.SetAll(statusEffect, now); err != nil {
			log.Error().Err(err).Msg("failed to restart status led")
		}
	}
	t.status.update(func(s *Status) {
		s.Telegrams++
		s.LastTelegram = now
		s.Sleeping = idle
	})
}

func (t *Transmitter) send(ctx context.Context, now time.Time) {
	err := t.out.Send(ctx, t.rig.outCodec.Encode(t.latest))
	if err == nil {
		t.lastSent = now
		t.status.update(func(s *Status) {
			s.Sent++
			s.Link = Connected
		})
		return
	}
	if ctx.Err() != nil {
		return
	}
	t.status.update(func(s *Status) {
		s.LinkFailures++
		s.Link = TimedOut
	})
	log.Warn().Err(err).Dur("backoff", t.rig.backoff).Msg("send failed, resetting link")
	if rerr := t.out.Reset(ctx); rerr != nil && ctx.Err() == nil {
		log.Warn().Err(rerr).Msg("link reset failed")
	}
	t.pause(ctx, t.rig.backoff)
}

func (t *Transmitter) tick(now time.Time) {
	if t.rig.hasStatus {
		t.rig.status.Tick(now, t.leds)
	}
}

func (t *Transmitter) pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-t.opts.clock.After(d):
	}
	t.tick(t.opts.clock.Now())
}

func (t *Transmitter) shutdown() {
	if t.rig.hasStatus {
		t.rig.status.Off(t.leds)
	}
	t.detector.Disable()
	log.Info().Msg("transmitter loop stopped")
}
