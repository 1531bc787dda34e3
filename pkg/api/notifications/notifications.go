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

// Package notifications builds the events the control core emits. Sends
// never block: when the channel is full the notification is dropped.
package notifications

import (
	"encoding/json"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/rs/zerolog/log"
)

func sendNotification(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}
	var params json.RawMessage
	if payload != nil {
		var err error
		params, err = json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return
		}
	}
	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func LinkFailsafe(ns chan<- models.Notification, payload models.LinkFailsafeParams) {
	sendNotification(ns, models.NotificationLinkFailsafe, payload)
}

func LinkRestored(ns chan<- models.Notification, payload models.LinkRestoredParams) {
	sendNotification(ns, models.NotificationLinkRestored, payload)
}

func SleepTriggered(ns chan<- models.Notification, payload models.SleepTriggeredParams) {
	sendNotification(ns, models.NotificationSleepTriggered, payload)
}

func ConfigApplied(ns chan<- models.Notification, payload models.ConfigAppliedParams) {
	sendNotification(ns, models.NotificationConfigApplied, payload)
}

func Button(ns chan<- models.Notification, payload models.ButtonParams) {
	sendNotification(ns, models.NotificationButton, payload)
}
