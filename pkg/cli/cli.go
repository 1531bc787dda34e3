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

// Package cli holds the command line flags shared by the station binaries
// and the one-shot commands that talk to a running station.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/brickdrive/brickdrive-core/internal/telemetry"
	"github.com/brickdrive/brickdrive-core/pkg/api/client"
	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/helpers"
	"github.com/rs/zerolog/log"
)

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	set     *flag.FlagSet
	Config  *string
	Role    *string
	API     *string
	Watch   *string
	Version *bool
	Debug   *bool
	Status  *bool
	Reload  *bool
}

func SetupFlags(set *flag.FlagSet) *Flags {
	return &Flags{
		set: set,
		Config: set.String(
			"config",
			"",
			"path to the config file (default: "+config.CfgEnv+" or the user config dir)",
		),
		Role: set.String(
			"role",
			"",
			"run as receiver or transmitter, overriding the config file",
		),
		API: set.String(
			"api",
			"",
			"send method:params to the running station and print the response",
		),
		Watch: set.String(
			"watch",
			"",
			"wait for one notification of the given method and print it",
		),
		Version: set.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: set.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Status: set.Bool(
			"status",
			false,
			"print the status of the running station",
		),
		Reload: set.Bool(
			"reload",
			false,
			"reload the config file of the running station",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args. It returns true when the invocation is finished, for
// example after printing the version.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.set.Parse(args); err != nil {
		return true, fmt.Errorf("parsing flags: %w", err)
	}
	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s\n", config.AppName, config.AppVersion)
		return true, nil
	}
	return false, nil
}

// Post runs a one-shot client command against the running station if one
// was requested. It returns true when the invocation is finished.
func (f *Flags) Post(ctx context.Context, c *client.Client, out io.Writer) (bool, error) {
	switch {
	case *f.Status:
		resp, err := c.Call(ctx, models.MethodStatus, "")
		if err != nil {
			log.Error().Err(err).Msg("error getting status")
			return true, fmt.Errorf("error getting status: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	case *f.Reload:
		resp, err := c.Call(ctx, models.MethodSettingsReload, "")
		if err != nil {
			log.Error().Err(err).Msg("error reloading settings")
			return true, fmt.Errorf("error reloading: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	case f.isFlagPassed("api"):
		if *f.API == "" {
			return true, fmt.Errorf("api: %w", ErrMissingValue)
		}
		method, params, _ := strings.Cut(*f.API, ":")
		resp, err := c.Call(ctx, method, params)
		if err != nil {
			log.Error().Err(err).Msg("error calling API")
			return true, fmt.Errorf("error calling API: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	case f.isFlagPassed("watch"):
		if *f.Watch == "" {
			return true, fmt.Errorf("watch: %w", ErrMissingValue)
		}
		resp, err := c.WaitNotification(ctx, -1, *f.Watch)
		if err != nil {
			log.Error().Err(err).Msg("error waiting for notification")
			return true, fmt.Errorf("error waiting for notification: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	}
	return false, nil
}

// Setup creates the directories, starts logging and loads the config.
//
//nolint:gocritic // config struct copied for immutability
func (f *Flags) Setup(dirs helpers.Dirs, defaults config.Values, writers []io.Writer) (*config.Instance, error) {
	if err := helpers.EnsureDirectories(dirs); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}
	if err := helpers.InitLogging(dirs.LogDir, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	if *f.Config != "" {
		if err := os.Setenv(config.CfgEnv, *f.Config); err != nil {
			return nil, fmt.Errorf("error setting config path: %w", err)
		}
	}
	cfg, err := config.NewConfig(dirs.ConfigDir, defaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if *f.Role != "" {
		if err := cfg.SetRole(*f.Role); err != nil {
			return nil, fmt.Errorf("invalid role %q: %w", *f.Role, err)
		}
	}

	config.ApplyLogLevel(*f.Debug || cfg.DebugLogging())

	snap := cfg.Snapshot()
	if err := telemetry.Init(telemetry.Options{
		Enabled:  cfg.ErrorReporting(),
		DSN:      cfg.TelemetryDSN(),
		DeviceID: cfg.DeviceID(),
		Version:  config.AppVersion,
		Role:     snap.Values.Role,
		Profile:  snap.Values.Vehicle.Profile,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
