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

// Package service wires a station together: links, output ports, the
// control loop for the configured role, the notification broker, the API
// server, publishers and mDNS discovery.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"

	"github.com/brickdrive/brickdrive-core/pkg/api"
	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/control"
	"github.com/brickdrive/brickdrive-core/pkg/link"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/service/broker"
	"github.com/brickdrive/brickdrive-core/pkg/service/discovery"
	"github.com/brickdrive/brickdrive-core/pkg/service/publishers"
	"github.com/brickdrive/brickdrive-core/pkg/sleep"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	notificationQueue = 100
	subscriberQueue   = 100
)

type loop interface {
	Run(ctx context.Context) error
	Status() control.Status
}

type options struct {
	clock       clockwork.Clock
	radio       link.Link
	input       link.Link
	outputs     *outputs
	apiListener net.Listener
	sleep       sleep.Func
	noWatch     bool
}

type Option func(*options)

func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLinks uses the given links instead of opening the configured ones.
// input is only used by a transmitter.
func WithLinks(radio, input link.Link) Option {
	return func(o *options) {
		o.radio = radio
		o.input = input
	}
}

// WithPorts uses the given outputs instead of the configured driver.
func WithPorts(act ports.Actuators, leds ports.LEDs) Option {
	return func(o *options) {
		o.outputs = &outputs{actuators: act, leds: leds}
	}
}

// WithAPIListener serves the API on ln instead of the configured address.
func WithAPIListener(ln net.Listener) Option {
	return func(o *options) { o.apiListener = ln }
}

func WithSleep(fn sleep.Func) Option {
	return func(o *options) { o.sleep = fn }
}

// WithoutConfigWatch disables reloading the config file on change.
func WithoutConfigWatch() Option {
	return func(o *options) { o.noWatch = true }
}

// Run starts the station and blocks until ctx is cancelled or the control
// loop fails. The API, publishers and discovery only log their failures. Links and ports are closed before it returns.
func Run(ctx context.Context, cfg *config.Instance, opts ...Option) error {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	snap := cfg.Snapshot()
	log.Info().Msgf("version: %s", config.AppVersion)
	log.Info().Str("role", snap.Values.Role).Uint64("config_version", snap.Version).Msg("starting station")

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if closeErr := closers[i](); closeErr != nil && !errors.Is(closeErr, link.ErrClosed) {
				log.Warn().Err(closeErr).Msg("error closing device")
			}
		}
	}()

	ns := make(chan models.Notification, notificationQueue)
	lp, openErr := startLoop(cfg, snap, &o, ns, &closers)
	if openErr != nil {
		return openErr
	}

	notifBroker := broker.NewBroker(ns)
	g, gctx := errgroup.WithContext(ctx)

	if cfg.APIEnabled() {
		startAPI(gctx, g, cfg, &o, lp, notifBroker)
		log.Info().Msg("starting mDNS discovery service")
		disc := discovery.New(cfg, snap.Values.Role, discovery.WithClock(o.clock))
		g.Go(func() error {
			return disc.Run(gctx)
		})
	} else {
		log.Info().Msg("api disabled by configuration")
	}

	startPublishers(gctx, g, cfg, notifBroker)

	if !o.noWatch {
		g.Go(func() error {
			if watchErr := cfg.Watch(gctx, reloadLogger(snap)); watchErr != nil {
				log.Error().Err(watchErr).Msg("config watcher stopped, reloads need the API")
			}
			return nil
		})
	}

	g.Go(func() error {
		return notifBroker.Run(gctx)
	})
	g.Go(func() error {
		defer log.Info().Msg("control loop stopped")
		return lp.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("station stopped: %w", err)
	}
	log.Info().Msg("station stopped")
	return nil
}

func startLoop(
	cfg *config.Instance,
	snap *config.Snapshot,
	o *options,
	ns chan<- models.Notification,
	closers *[]func() error,
) (loop, error) {
	vals := snap.Values
	isTx := vals.Role == config.RoleTransmitter

	radio := openedLink{link: o.radio}
	if radio.link == nil {
		var err error
		radio, err = openLink(vals.Link, o.clock, isTx)
		if err != nil {
			return nil, err
		}
	}
	*closers = append(*closers, radio.link.Close)

	out := o.outputs
	if out == nil {
		opened, err := openPorts(vals.Ports, radio.path)
		if err != nil {
			return nil, err
		}
		out = &opened
	}
	if out.closer != nil {
		*closers = append(*closers, out.closer.Close)
	}

	loopOpts := []control.Option{
		control.WithClock(o.clock),
		control.WithNotifications(ns),
	}
	if o.sleep != nil {
		loopOpts = append(loopOpts, control.WithSleep(o.sleep))
	}

	if !isTx {
		log.Info().Str("profile", vals.Vehicle.Profile).Msg("starting receiver")
		return control.NewReceiver(cfg, radio.link, out.actuators, out.leds, loopOpts...), nil
	}

	input := openedLink{link: o.input}
	if input.link == nil {
		var err error
		input, err = openLink(vals.Input, o.clock, false, radio.path)
		if err != nil {
			return nil, err
		}
	}
	*closers = append(*closers, input.link.Close)
	log.Info().Str("input", vals.Input.Driver).Msg("starting transmitter")
	return control.NewTransmitter(cfg, input.link, radio.link, out.leds, loopOpts...), nil
}

func startAPI(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Instance,
	o *options,
	lp loop,
	b *broker.Broker,
) {
	log.Info().Msg("starting API service")
	srv := api.NewServer(api.Options{
		Status:         lp,
		Config:         cfg,
		Clock:          o.clock,
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedIPs:     cfg.AllowedIPs(),
	})

	apiNotifications, _ := b.Subscribe(subscriberQueue)
	g.Go(func() error {
		srv.Broadcast(ctx, apiNotifications)
		return nil
	})
	g.Go(func() error {
		var err error
		if o.apiListener != nil {
			err = srv.ServeListener(ctx, o.apiListener)
		} else {
			err = srv.Serve(ctx, cfg.APIListen())
		}
		if err != nil {
			log.Error().Err(err).Msg("api server stopped, control loop continues")
		}
		return nil
	})
}

// startPublishers runs every enabled publisher. A publisher that fails is
// logged and dropped; it never stops the station.
func startPublishers(ctx context.Context, g *errgroup.Group, cfg *config.Instance, b *broker.Broker) {
	started := 0
	for _, mqttCfg := range cfg.GetMQTTPublishers() {
		// nil means enabled
		if mqttCfg.Enabled != nil && !*mqttCfg.Enabled {
			continue
		}
		pub, err := publishers.NewMQTTPublisher(mqttCfg)
		if err != nil {
			log.Error().Err(err).Msgf("failed to create MQTT publisher for %s", mqttCfg.Broker)
			continue
		}

		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", mqttCfg.Broker, pub.Topic())
		sub, id := b.Subscribe(subscriberQueue)
		addr := mqttCfg.Broker
		g.Go(func() error {
			defer b.Unsubscribe(id)
			if runErr := pub.Run(ctx, sub); runErr != nil {
				log.Error().Err(runErr).Msgf("MQTT publisher for %s stopped", addr)
			}
			return nil
		})
		started++
	}
	if started > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", started)
	}
}

// reloadLogger applies the reloaded log level and warns when a reload
// touches settings that are only read at startup.
func reloadLogger(initial *config.Snapshot) func(*config.Snapshot, error) {
	return func(snap *config.Snapshot, err error) {
		if err != nil || snap == nil {
			return
		}
		config.ApplyLogLevel(snap.Values.DebugLogging)
		if restartRequired(&initial.Values, &snap.Values) {
			log.Warn().
				Uint64("version", snap.Version).
				Msg("link, ports, api or publisher settings changed, restart to apply")
		}
	}
}

func restartRequired(start, now *config.Values) bool {
	return start.Role != now.Role ||
		!reflect.DeepEqual(start.Link, now.Link) ||
		!reflect.DeepEqual(start.Input, now.Input) ||
		!reflect.DeepEqual(start.Ports, now.Ports) ||
		!reflect.DeepEqual(start.API, now.API) ||
		!reflect.DeepEqual(start.Publisher, now.Publisher)
}
