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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "string id", input: `{"jsonrpc":"2.0","id":"abc","method":"status"}`, want: `"abc"`},
		{name: "number id", input: `{"jsonrpc":"2.0","id":42,"method":"status"}`, want: `42`},
		{name: "null id", input: `{"jsonrpc":"2.0","id":null,"method":"status"}`, want: `null`},
		{name: "object id", input: `{"jsonrpc":"2.0","id":{},"method":"status"}`, wantErr: true},
		{name: "array id", input: `{"jsonrpc":"2.0","id":[1],"method":"status"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req RequestObject
			err := json.Unmarshal([]byte(tt.input), &req)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidRPCID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.ID.String())

			out, err := json.Marshal(ResponseObject{JSONRPC: "2.0", ID: req.ID, Result: "ok"})
			require.NoError(t, err)
			assert.Contains(t, string(out), `"id":`+tt.want)
		})
	}
}

func TestRPCID_Absent(t *testing.T) {
	t.Parallel()

	var req RequestObject
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"status"}`), &req))
	assert.True(t, req.ID.IsAbsent())
	assert.Equal(t, "null", req.ID.String())

	out, err := json.Marshal(ResponseObject{JSONRPC: "2.0"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"id":null`)
}

func TestNewNotificationObject(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(NewNotificationObject(Notification{
		Method: NotificationConfigApplied,
		Params: json.RawMessage(`{"version":3}`),
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"config.applied","params":{"version":3}}`, string(out))

	out, err = json.Marshal(NewNotificationObject(Notification{Method: NotificationLinkRestored}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"link.restored"}`, string(out))
}
