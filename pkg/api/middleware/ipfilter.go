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

// Package middleware holds the HTTP and websocket guards of the API
// server.
package middleware

import (
	"net"
	"net/http"
	"net/netip"

	"github.com/rs/zerolog/log"
)

// ParseRemoteIP extracts the address from an "ip:port" RemoteAddr.
func ParseRemoteIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}

func parseAddr(remoteAddr string) (netip.Addr, bool) {
	ip := ParseRemoteIP(remoteAddr)
	if ip == nil {
		return netip.Addr{}, false
	}
	addr, ok := netip.AddrFromSlice(ip)
	return addr.Unmap(), ok
}

// IPFilter is an allowlist of addresses and prefixes. An empty list allows
// everyone.
type IPFilter struct {
	prefixes []netip.Prefix
}

func NewIPFilter(allowed []string) *IPFilter {
	f := &IPFilter{}
	for _, entry := range allowed {
		if host, _, err := net.SplitHostPort(entry); err == nil {
			entry = host
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			f.prefixes = append(f.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			a = a.Unmap()
			f.prefixes = append(f.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		log.Warn().Str("ip", entry).Msg("invalid IP or CIDR in allowed_ips, skipping")
	}
	if len(allowed) > 0 && len(f.prefixes) == 0 {
		log.Warn().Msg("allowed_ips has no valid entries, API will reject every client")
		f.prefixes = []netip.Prefix{}
	}
	return f
}

func (f *IPFilter) open() bool {
	return f.prefixes == nil
}

// IsAllowed reports whether remoteAddr may use the API.
func (f *IPFilter) IsAllowed(remoteAddr string) bool {
	if f.open() {
		return true
	}
	addr, ok := parseAddr(remoteAddr)
	if !ok {
		log.Warn().Str("addr", remoteAddr).Msg("failed to parse IP address")
		return false
	}
	for _, p := range f.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// HTTPIPFilterMiddleware rejects requests, websocket upgrades included,
// from addresses outside the allowlist.
func HTTPIPFilterMiddleware(filter *IPFilter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !filter.IsAllowed(r.RemoteAddr) {
				log.Debug().
					Str("addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Msg("request from blocked IP")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
