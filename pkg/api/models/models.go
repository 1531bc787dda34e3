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

package models

import (
	"encoding/json"
)

const (
	NotificationLinkFailsafe   = "link.failsafe"
	NotificationLinkRestored   = "link.restored"
	NotificationSleepTriggered = "sleep.triggered"
	NotificationConfigApplied  = "config.applied"
	NotificationButton         = "button.event"
)

const (
	MethodStatus         = "status"
	MethodVersion        = "version"
	MethodSettingsReload = "settings.reload"
)

// Notification is an event emitted by the control core. Params holds the
// JSON encoded payload, or nil when the event has none.
type Notification struct {
	Method string
	Params json.RawMessage
}

type RequestObject struct {
	ID      RPCID           `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

// NotificationObject is a notification as sent to websocket and MQTT
// subscribers.
type NotificationObject struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewNotificationObject wraps n in a JSON-RPC 2.0 envelope.
func NewNotificationObject(n Notification) NotificationObject {
	return NotificationObject{
		JSONRPC: "2.0",
		Method:  n.Method,
		Params:  n.Params,
	}
}
