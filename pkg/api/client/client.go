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

// Package client talks to the API of a running brickdrive service.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const APIPath = "/api/ws"

// Client sends JSON-RPC requests over a fresh websocket per call.
type Client struct {
	url     url.URL
	timeout time.Duration
}

// New returns a client for the service listening at host:port.
func New(host string, port int) *Client {
	return &Client{
		url: url.URL{
			Scheme: "ws",
			Host:   net.JoinHostPort(host, strconv.Itoa(port)),
			Path:   APIPath,
		},
		timeout: config.APIRequestTimeout,
	}
}

// Local returns a client for the service on this machine.
func Local(cfg *config.Instance) *Client {
	return New("localhost", cfg.APIPort())
}

// WithTimeout replaces the default request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	cc := *c
	cc.timeout = d
	return &cc
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.url.String(), err)
	}
	return conn, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing websocket")
	}
}

// Call sends method with params, a JSON document or empty, and returns the
// JSON encoded result.
func (c *Client) Call(ctx context.Context, method, params string) (string, error) {
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      models.RPCID{RawMessage: json.RawMessage(strconv.Quote(uuid.New().String()))},
		Method:  method,
	}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer closeConn(conn)

	done := make(chan struct{})
	var resp *models.ResponseObject
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("websocket read ended")
				return
			}
			var m models.ResponseObject
			if err := json.Unmarshal(message, &m); err != nil || m.JSONRPC != "2.0" {
				continue
			}
			if m.ID.String() != req.ID.String() {
				continue
			}
			resp = &m
			return
		}
	}()

	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	if err := c.wait(ctx, conn, done, c.timeout); err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrRequestTimeout
	}
	if resp.Error != nil {
		return "", errors.New(resp.Error.Message)
	}

	b, err := json.Marshal(resp.Result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

// WaitNotification blocks until a notification named method arrives and
// returns its params. A zero timeout uses the request timeout, a negative
// one waits until ctx is done.
func (c *Client) WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return "", err
	}
	defer closeConn(conn)

	done := make(chan struct{})
	var note *models.NotificationObject
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("websocket read ended")
				return
			}
			var m models.NotificationObject
			if err := json.Unmarshal(message, &m); err != nil || m.JSONRPC != "2.0" {
				continue
			}
			if m.Method != method {
				continue
			}
			note = &m
			return
		}
	}()

	if timeout == 0 {
		timeout = c.timeout
	}
	if err := c.wait(ctx, conn, done, timeout); err != nil {
		return "", err
	}
	if note == nil {
		return "", ErrRequestTimeout
	}
	return string(note.Params), nil
}

// wait blocks until done closes. On timeout or cancellation the
// connection is closed so the reader goroutine exits too.
func (*Client) wait(ctx context.Context, conn *websocket.Conn, done <-chan struct{}, timeout time.Duration) error {
	var timerChan <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerChan = timer.C
	}

	select {
	case <-done:
		return nil
	case <-timerChan:
		closeConn(conn)
		<-done
		return ErrRequestTimeout
	case <-ctx.Done():
		closeConn(conn)
		<-done
		return ErrRequestCancelled
	}
}
