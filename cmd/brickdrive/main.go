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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/brickdrive/brickdrive-core/internal/telemetry"
	"github.com/brickdrive/brickdrive-core/pkg/api/client"
	"github.com/brickdrive/brickdrive-core/pkg/cli"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/helpers"
	"github.com/brickdrive/brickdrive-core/pkg/service"
	"github.com/rs/zerolog/log"
)

// shutdownSignals stop the station. Every one of them unwinds the control
// loop so the outputs are left neutral.
var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
	syscall.SIGQUIT,
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	daemonMode := flag.Bool(
		"daemon",
		false,
		"also log to stderr",
	)

	if done, err := flags.Pre(os.Args[1:], os.Stdout); done {
		return err
	}

	var logWriters []io.Writer
	if *daemonMode {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := flags.Setup(helpers.DefaultDirs(), config.BaseDefaults, logWriters)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			telemetry.Flush()
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if done, err := flags.Post(ctx, client.Local(cfg), os.Stdout); done {
		return err
	}

	log.Info().Str("config", cfg.Path()).Msg("starting station")
	if err := service.Run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("station failed")
		return fmt.Errorf("error running station: %w", err)
	}
	return nil
}
