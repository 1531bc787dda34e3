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

// Package api serves the status endpoint and the notification websocket.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/methods"
	"github.com/brickdrive/brickdrive-core/pkg/api/middleware"
	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/mackerelio/go-osstat/uptime"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

var JSONRPCErrorParseError = models.ErrorObject{
	Code:    -32700,
	Message: "Parse error",
}

var JSONRPCErrorInvalidRequest = models.ErrorObject{
	Code:    -32600,
	Message: "Invalid Request",
}

var JSONRPCErrorMethodNotFound = models.ErrorObject{
	Code:    -32601,
	Message: "Method not found",
}

var JSONRPCErrorServerError = models.ErrorObject{
	Code:    -32000,
	Message: "Server error",
}

// WebSocketPath serves JSON-RPC methods and the notification stream.
const WebSocketPath = "/api/ws"

const (
	shutdownTimeout = 5 * time.Second
	maxMessageSize  = 64 * 1024
)

var defaultAllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// Options configures a Server. Status is required.
type Options struct {
	Status         methods.StatusSource
	Config         methods.ConfigStore
	Clock          clockwork.Clock
	HostUptime     func() (time.Duration, error)
	AllowedOrigins []string
	AllowedIPs     []string
	RatePerMinute  int
	RateBurst      int
}

type Server struct {
	opts    Options
	methods map[string]methods.Handler
	melody  *melody.Melody
	limiter *middleware.IPRateLimiter
	router  chi.Router
}

func NewServer(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.HostUptime == nil {
		opts.HostUptime = uptime.Get
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = defaultAllowedOrigins
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = middleware.RequestsPerMinute
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = middleware.BurstSize
	}

	s := &Server{
		opts:    opts,
		methods: methods.Map(),
		melody:  melody.New(),
		limiter: middleware.NewIPRateLimiter(opts.Clock, opts.RatePerMinute, opts.RateBurst),
	}
	s.melody.Config.MaxMessageSize = maxMessageSize
	s.melody.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	s.melody.HandleMessage(middleware.WebSocketRateLimitHandler(s.limiter, s.handleWSMessage))
	s.melody.HandleConnect(func(session *melody.Session) {
		log.Debug().Str("addr", session.Request.RemoteAddr).Msg("websocket client connected")
	})
	s.melody.HandleDisconnect(func(session *melody.Session) {
		log.Debug().Str("addr", session.Request.RemoteAddr).Msg("websocket client disconnected")
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(opts.AllowedIPs)))
	r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Accept"},
	}))

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.NoCache)
		r.Use(chimiddleware.Timeout(config.APIRequestTimeout))
		r.Get("/healthz", s.handleHealth)
		r.Get("/api/status", s.handleStatus)
	})
	r.Get(WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		if err := s.melody.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) env(ctx context.Context) methods.RequestEnv {
	return methods.RequestEnv{
		Context:    ctx,
		Status:     s.opts.Status,
		Config:     s.opts.Config,
		Clock:      s.opts.Clock,
		HostUptime: s.opts.HostUptime,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error writing json response")
	}
}

func (*Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, models.HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := methods.HandleStatus(s.env(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp)
}

func sendResponse(session *melody.Session, id models.RPCID, result any) error {
	data, err := json.Marshal(models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
	if err != nil {
		return fmt.Errorf("error marshalling response: %w", err)
	}
	if err := session.Write(data); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}

func sendError(session *melody.Session, id models.RPCID, errObj models.ErrorObject) error {
	log.Debug().Int("code", errObj.Code).Str("message", errObj.Message).Msg("sending error")
	data, err := json.Marshal(models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &errObj,
	})
	if err != nil {
		return fmt.Errorf("error marshalling error response: %w", err)
	}
	if err := session.Write(data); err != nil {
		return fmt.Errorf("error writing error response: %w", err)
	}
	return nil
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	// heartbeat
	if bytes.Equal(msg, []byte("ping")) {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	reply := func(id models.RPCID, errObj models.ErrorObject) {
		if err := sendError(session, id, errObj); err != nil {
			log.Error().Err(err).Msg("error sending error response")
		}
	}

	if !json.Valid(msg) {
		reply(models.NullRPCID, JSONRPCErrorParseError)
		return
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		reply(models.NullRPCID, JSONRPCErrorInvalidRequest)
		return
	}
	if req.JSONRPC != "2.0" {
		log.Warn().Str("jsonrpc", req.JSONRPC).Msg("unsupported payload version")
		reply(req.ID, JSONRPCErrorInvalidRequest)
		return
	}
	if req.Method == "" {
		// responses from clients are not expected
		log.Debug().Str("id", req.ID.String()).Msg("ignoring message without method")
		return
	}
	if req.ID.IsAbsent() {
		log.Debug().Str("method", req.Method).Msg("received notification, ignoring")
		return
	}

	fn, ok := s.methods[strings.ToLower(req.Method)]
	if !ok {
		reply(req.ID, JSONRPCErrorMethodNotFound)
		return
	}

	env := s.env(session.Request.Context())
	env.ID = req.ID
	env.Params = req.Params
	result, err := fn(env)
	if err != nil {
		errObj := JSONRPCErrorServerError
		errObj.Message = err.Error()
		reply(req.ID, errObj)
		return
	}
	if err := sendResponse(session, req.ID, result); err != nil {
		log.Error().Err(err).Msg("error sending response")
	}
}

// Broadcast forwards notifications to every websocket client until ctx is
// cancelled or ns is closed.
func (s *Server) Broadcast(ctx context.Context, ns <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ns:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NewNotificationObject(n))
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.melody.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down
// gracefully and disconnects websocket clients.
func (s *Server) Serve(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go s.limiter.RunCleanup(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	if err := s.melody.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
		log.Warn().Err(err).Msg("error closing websocket sessions")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	<-errCh
	return nil
}
