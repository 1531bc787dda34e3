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

// Package helpers provides testing utilities shared across packages:
// config sources, in-memory config files and websocket clients for the
// status API.
package helpers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// JSONRPCRequest represents a JSON-RPC request for testing
type JSONRPCRequest struct {
	Params  any    `json:"params,omitempty"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      string `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response for testing
type JSONRPCResponse struct {
	Result json.RawMessage     `json:"result,omitempty"`
	Error  *models.ErrorObject `json:"error,omitempty"`
	ID     string              `json:"id"`
}

// DialWebSocket connects to path on the test server at serverURL.
func DialWebSocket(t *testing.T, serverURL, path string) *websocket.Conn {
	t.Helper()
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = path

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// SendJSONRPCRequest sends a JSON-RPC request and returns the response
func SendJSONRPCRequest(conn *websocket.Conn, method string, params any) (*JSONRPCResponse, error) {
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	}
	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, requestData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// notifications may arrive before the response
	for {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		var response JSONRPCResponse
		if err := json.Unmarshal(data, &response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if response.ID == request.ID {
			return &response, nil
		}
	}
}

// ReadNotification reads messages until one with method arrives.
func ReadNotification(conn *websocket.Conn, method string, timeout time.Duration) (*models.NotificationObject, error) {
	deadline := time.Now().Add(timeout)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read notification %s: %w", method, err)
		}
		var n models.NotificationObject
		if err := json.Unmarshal(data, &n); err != nil {
			continue
		}
		if n.Method == method {
			return &n, nil
		}
	}
}

// AssertJSONRPCSuccess verifies a JSON-RPC response was successful
func AssertJSONRPCSuccess(t *testing.T, response *JSONRPCResponse) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.Nil(t, response.Error, "response should not contain an error")
	require.NotEmpty(t, response.Result, "response should contain a result")
}

// AssertJSONRPCError verifies a JSON-RPC response contains an error
func AssertJSONRPCError(t *testing.T, response *JSONRPCResponse, expectedCode int) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.NotNil(t, response.Error, "response should contain an error")
	require.Equal(t, expectedCode, response.Error.Code, "error code should match")
}
