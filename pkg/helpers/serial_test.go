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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

// Tests in this file replace the package-level port lister and must not
// run in parallel.

func stubPorts(t *testing.T, ports []*enumerator.PortDetails, err error) {
	t.Helper()
	orig := listPorts
	listPorts = func() ([]*enumerator.PortDetails, error) {
		return ports, err
	}
	t.Cleanup(func() {
		listPorts = orig
	})
}

func TestGetSerialDeviceList(t *testing.T) {
	stubPorts(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "16C0", PID: "0F38"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10c4", PID: "ea60"},
	}, nil)

	devices, err := GetSerialDeviceList()
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, devices)
}

func TestGetSerialDeviceList_Error(t *testing.T) {
	stubPorts(t, nil, errors.New("enumeration failed"))

	_, err := GetSerialDeviceList()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get serial ports list")
}

func TestResolveSerialPath(t *testing.T) {
	stubPorts(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB0", IsUSB: true},
		{Name: "/dev/ttyUSB1", IsUSB: true},
	}, nil)

	path, err := ResolveSerialPath("/dev/ttyAMA0")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyAMA0", path)

	path, err = ResolveSerialPath("auto")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", path)

	path, err = ResolveSerialPath("auto", "/dev/ttyUSB0")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", path)

	_, err = ResolveSerialPath("auto", "/dev/ttyUSB0", "/dev/ttyUSB1")
	require.ErrorIs(t, err, ErrNoSerialDevice)
}
