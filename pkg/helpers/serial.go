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

package helpers

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"
)

// ErrNoSerialDevice is returned when auto detection finds no usable port.
var ErrNoSerialDevice = errors.New("no usb serial device found")

type serialDevice struct {
	Vid string
	Pid string
}

// Devices that enumerate as USB serial but never carry telegrams.
var ignoreDevices = []serialDevice{
	// Sinden Lightgun
	{Vid: "16c0", Pid: "0f38"},
	{Vid: "16c0", Pid: "0f39"},
	{Vid: "16d0", Pid: "0f38"},
	{Vid: "16d0", Pid: "0f39"},
	// PN532 NFC readers
	{Vid: "1a86", Pid: "55d3"},
}

var listPorts = enumerator.GetDetailedPortsList

func ignoreSerialDevice(p *enumerator.PortDetails) bool {
	if !p.IsUSB {
		return true
	}
	vid := strings.ToLower(p.VID)
	pid := strings.ToLower(p.PID)
	for _, v := range ignoreDevices {
		if vid == v.Vid && pid == v.Pid {
			return true
		}
	}
	return false
}

// GetSerialDeviceList returns the USB serial ports present, minus known
// non-radio devices.
func GetSerialDeviceList() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list: %w", err)
	}

	devices := make([]string, 0, len(ports))
	for _, p := range ports {
		if ignoreSerialDevice(p) {
			log.Debug().Str("port", p.Name).Str("vid", p.VID).Str("pid", p.PID).
				Msg("skipping serial device")
			continue
		}
		devices = append(devices, p.Name)
	}
	slices.Sort(devices)
	return devices, nil
}

// ResolveSerialPath returns path unchanged unless it is "auto", in which
// case the first detected device not in taken is used.
func ResolveSerialPath(path string, taken ...string) (string, error) {
	if path != "auto" {
		return path, nil
	}
	devices, err := GetSerialDeviceList()
	if err != nil {
		return "", err
	}
	for _, d := range devices {
		if !slices.Contains(taken, d) {
			log.Info().Str("port", d).Msg("auto detected serial device")
			return d, nil
		}
	}
	return "", ErrNoSerialDevice
}
