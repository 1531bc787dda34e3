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

package client

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService answers every request with its own method name, or with an
// error for "fail", and ignores "hang". A link.failsafe notification is
// pushed right after connecting.
func fakeService(t *testing.T) *Client {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != APIPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		_ = conn.WriteJSON(models.NotificationObject{
			JSONRPC: "2.0",
			Method:  models.NotificationLinkFailsafe,
			Params:  json.RawMessage(`{"timeouts":1}`),
		})
		for {
			var req models.RequestObject
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp := models.ResponseObject{JSONRPC: "2.0", ID: req.ID}
			switch req.Method {
			case "hang":
				continue
			case "fail":
				resp.Error = &models.ErrorObject{Code: -32000, Message: "boom"}
			default:
				resp.Result = map[string]any{"method": req.Method, "params": req.Params}
			}
			_ = conn.WriteJSON(resp)
		}
	}))
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return New(host, port).WithTimeout(2 * time.Second)
}

func TestCall(t *testing.T) {
	t.Parallel()

	c := fakeService(t)
	got, err := c.Call(context.Background(), models.MethodStatus, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"status","params":null}`, got)
}

func TestCall_Params(t *testing.T) {
	t.Parallel()

	c := fakeService(t)
	got, err := c.Call(context.Background(), "echo", `{"a":1}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"echo","params":{"a":1}}`, got)
}

func TestCall_InvalidParams(t *testing.T) {
	t.Parallel()

	c := fakeService(t)
	_, err := c.Call(context.Background(), "echo", `{"a":`)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestCall_ErrorResponse(t *testing.T) {
	t.Parallel()

	c := fakeService(t)
	_, err := c.Call(context.Background(), "fail", "")
	require.EqualError(t, err, "boom")
}

func TestCall_Timeout(t *testing.T) {
	t.Parallel()

	c := fakeService(t).WithTimeout(50 * time.Millisecond)
	_, err := c.Call(context.Background(), "hang", "")
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestCall_Cancelled(t *testing.T) {
	t.Parallel()

	c := fakeService(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Call(ctx, "hang", "")
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestCall_NoService(t *testing.T) {
	t.Parallel()

	_, err := New("127.0.0.1", 1).Call(context.Background(), models.MethodStatus, "")
	require.Error(t, err)
}

func TestWaitNotification(t *testing.T) {
	t.Parallel()

	c := fakeService(t)
	got, err := c.WaitNotification(context.Background(), 0, models.NotificationLinkFailsafe)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeouts":1}`, got)
}

func TestWaitNotification_Timeout(t *testing.T) {
	t.Parallel()

	c := fakeService(t)
	_, err := c.WaitNotification(context.Background(), 50*time.Millisecond, models.NotificationSleepTriggered)
	require.ErrorIs(t, err, ErrRequestTimeout)
}
