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

package methods

import (
	"errors"
	"runtime"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/rs/zerolog/log"
)

func HandleVersion(_ RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received version request")
	return models.VersionResponse{
		Version:  config.AppVersion,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}, nil
}

// HandleSettingsReload re-reads the config file. The control loop picks up
// the new snapshot on its next iteration.
//
//nolint:gocritic // single-use parameter in API handler
func HandleSettingsReload(env RequestEnv) (any, error) {
	log.Info().Msg("received settings reload request")
	if env.Config == nil {
		return nil, errors.New("settings reload unavailable")
	}
	if err := env.Config.Load(); err != nil {
		log.Error().Err(err).Msg("error loading settings")
		return nil, errors.New("error loading settings")
	}
	return models.SettingsReloadResponse{
		ConfigVersion: env.Config.Snapshot().Version,
	}, nil
}
