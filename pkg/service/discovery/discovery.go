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

// Package discovery advertises the control API over mDNS so phone apps and
// other stations can find a running vehicle without knowing its address.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/grandcat/zeroconf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ServiceType is the DNS-SD service type of the control API.
const ServiceType = "_brickdrive._tcp"

const (
	retryInterval    = 30 * time.Second
	maxRetryDuration = 5 * time.Minute
)

// virtualInterfacePrefixes are container and VPN interfaces skipped for
// mDNS.
var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg",
}

// Settings is the part of the config the advertisement needs.
type Settings interface {
	DiscoveryEnabled() bool
	DiscoveryInstanceName() string
	APIPort() int
	DeviceID() string
}

type shutdowner interface {
	Shutdown()
}

// RegisterFunc publishes one service record.
type RegisterFunc func(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (shutdowner, error)

func zeroconfRegister(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (shutdowner, error) {
	srv, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, fmt.Errorf("zeroconf register: %w", err)
	}
	return srv, nil
}

func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var preferred []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if isVirtualInterface(iface.Name) {
			continue
		}
		preferred = append(preferred, iface)
	}
	return preferred
}

func isVirtualInterface(name string) bool {
	lowerName := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return true
		}
	}
	return false
}

type Service struct {
	cfg        Settings
	clock      clockwork.Clock
	register   RegisterFunc
	interfaces func() ([]net.Interface, error)
	hostname   func() (string, error)
	role       string
}

type Option func(*Service)

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithRegister(r RegisterFunc) Option {
	return func(s *Service) { s.register = r }
}

func WithInterfaces(f func() ([]net.Interface, error)) Option {
	return func(s *Service) { s.interfaces = f }
}

func WithHostname(f func() (string, error)) Option {
	return func(s *Service) { s.hostname = f }
}

// New creates an advertiser for a station running role.
func New(cfg Settings, role string, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		role:       role,
		clock:      clockwork.NewRealClock(),
		register:   zeroconfRegister,
		interfaces: net.Interfaces,
		hostname:   os.Hostname,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run advertises until ctx is done and sends goodbye packets on exit. When
// the network is not ready it retries every 30s for up to 5 minutes, then
// gives up without failing the station.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.DiscoveryEnabled() {
		log.Info().Msg("mDNS discovery disabled by configuration")
		return nil
	}

	name := s.InstanceName()
	server := s.tryRegister(name)
	if server == nil {
		log.Info().
			Dur("retryInterval", retryInterval).
			Dur("maxDuration", maxRetryDuration).
			Msg("mDNS registration failed, retrying in background")
		server = s.retry(ctx, name)
		if server == nil {
			return nil
		}
	}

	<-ctx.Done()
	log.Debug().Msg("stopping mDNS service advertising")
	server.Shutdown()
	return nil
}

func (s *Service) retry(ctx context.Context, name string) shutdowner {
	ticker := s.clock.NewTicker(retryInterval)
	defer ticker.Stop()
	deadline := s.clock.After(maxRetryDuration)

	for {
		select {
		case <-ticker.Chan():
			if server := s.tryRegister(name); server != nil {
				log.Info().Msg("mDNS registration succeeded after retry")
				return server
			}
		case <-deadline:
			log.Warn().Msg("mDNS registration retry timed out, discovery will not be available")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Service) tryRegister(name string) shutdowner {
	all, err := s.interfaces()
	if err != nil {
		log.Debug().Err(err).Msg("failed to list network interfaces")
		return nil
	}
	ifaces := filterInterfaces(all)
	if len(ifaces) == 0 {
		log.Debug().Msg("no suitable network interfaces found for mDNS")
		return nil
	}

	ifaceNames := make([]string, len(ifaces))
	for i, iface := range ifaces {
		ifaceNames[i] = iface.Name
	}

	port := s.cfg.APIPort()
	server, err := s.register(name, ServiceType, "local.", port, s.TXTRecords(), ifaces)
	if err != nil {
		log.Debug().Err(err).Msg("mDNS registration attempt failed")
		return nil
	}

	log.Info().
		Str("instance", name).
		Int("port", port).
		Str("type", ServiceType).
		Strs("interfaces", ifaceNames).
		Msg("mDNS service advertising started")
	return server
}

func (s *Service) TXTRecords() []string {
	return []string{
		"id=" + s.cfg.DeviceID(),
		"version=" + config.AppVersion,
		"role=" + s.role,
	}
}

// InstanceName is the configured name, else the hostname, else a name
// derived from the device id.
func (s *Service) InstanceName() string {
	if name := s.cfg.DiscoveryInstanceName(); name != "" {
		return name
	}
	hostname, err := s.hostname()
	if err == nil && hostname != "" {
		return hostname
	}
	log.Warn().Err(err).Msg("failed to get hostname, using fallback")
	if id := s.cfg.DeviceID(); len(id) >= 8 {
		return config.AppName + "-" + id[:8]
	}
	return config.AppName
}
