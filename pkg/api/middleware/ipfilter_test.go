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

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPFilter_IsAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		remoteAddr string
		want       bool
	}{
		{name: "empty list allows all", allowed: nil, remoteAddr: "203.0.113.9:5000", want: true},
		{name: "exact match", allowed: []string{"192.168.1.10"}, remoteAddr: "192.168.1.10:41000", want: true},
		{name: "exact mismatch", allowed: []string{"192.168.1.10"}, remoteAddr: "192.168.1.11:41000", want: false},
		{name: "cidr match", allowed: []string{"10.0.0.0/8"}, remoteAddr: "10.20.30.40:80", want: true},
		{name: "cidr mismatch", allowed: []string{"10.0.0.0/8"}, remoteAddr: "11.0.0.1:80", want: false},
		{name: "unmasked cidr", allowed: []string{"192.168.1.77/24"}, remoteAddr: "192.168.1.3:80", want: true},
		{name: "entry with port", allowed: []string{"192.168.1.10:7600"}, remoteAddr: "192.168.1.10:1", want: true},
		{name: "ipv6 loopback", allowed: []string{"::1"}, remoteAddr: "[::1]:7600", want: true},
		{name: "ipv6 prefix", allowed: []string{"2001:db8::/32"}, remoteAddr: "[2001:db8::5]:7600", want: true},
		{name: "mapped ipv4", allowed: []string{"127.0.0.1"}, remoteAddr: "[::ffff:127.0.0.1]:7600", want: true},
		{name: "only invalid entries", allowed: []string{"nonsense"}, remoteAddr: "127.0.0.1:7600", want: false},
		{name: "unparseable remote", allowed: []string{"127.0.0.1"}, remoteAddr: "not-an-ip", want: false},
		{name: "bare remote ip", allowed: []string{"127.0.0.1"}, remoteAddr: "127.0.0.1", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewIPFilter(tt.allowed).IsAllowed(tt.remoteAddr))
		})
	}
}

func TestHTTPIPFilterMiddleware(t *testing.T) {
	t.Parallel()

	handler := HTTPIPFilterMiddleware(NewIPFilter([]string{"192.168.0.0/16"}))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/status", http.NoBody)
	req.RemoteAddr = "192.168.4.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/status", http.NoBody)
	req.RemoteAddr = "172.16.0.2:5555"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
