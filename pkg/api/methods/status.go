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
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/control"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleStatus(env RequestEnv) (any, error) {
	log.Debug().Msg("received status request")
	deviceID := ""
	if env.Config != nil {
		deviceID = env.Config.Snapshot().Values.Service.DeviceID
	}
	return NewStatusResponse(env.Status.Status(), env.Clock.Now(), deviceID, env.HostUptime), nil
}

// NewStatusResponse converts a loop status for the API. Host uptime is
// left out when it cannot be read.
func NewStatusResponse(
	st control.Status, //nolint:gocritic // status copy is the point
	now time.Time,
	deviceID string,
	hostUptime func() (time.Duration, error),
) models.StatusResponse {
	resp := models.StatusResponse{
		Role:          st.Role,
		Mode:          st.Mode.String(),
		Link:          st.Link.String(),
		DeviceID:      deviceID,
		Profile:       st.Profile,
		Telegrams:     st.Telegrams,
		Dropped:       st.Dropped,
		Timeouts:      st.Timeouts,
		LinkFailures:  st.LinkFailures,
		Failsafes:     st.Failsafes,
		Sent:          st.Sent,
		ConfigVersion: st.ConfigVersion,
		Sleeping:      st.Sleeping,
	}
	if !st.LastTelegram.IsZero() {
		last := st.LastTelegram
		resp.LastTelegram = &last
	}
	if !st.Started.IsZero() {
		resp.UptimeSeconds = int64(now.Sub(st.Started).Seconds())
	}
	if hostUptime != nil {
		if up, err := hostUptime(); err == nil {
			resp.HostUptime = int64(up.Seconds())
		} else {
			log.Debug().Err(err).Msg("host uptime unavailable")
		}
	}
	return resp
}
