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

package logport

import (
	"testing"

	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort_Actuators(t *testing.T) {
	t.Parallel()

	p := New()
	_, ok := p.Servo(0)
	assert.False(t, ok)

	p.SetServoPulse(0, 1500)
	p.SetServoPulse(0, 1500)
	p.SetMotorDuty(1, mapper.Forward, 3200)

	us, ok := p.Servo(0)
	require.True(t, ok)
	assert.Equal(t, 1500, us)

	m, ok := p.Motor(1)
	require.True(t, ok)
	assert.Equal(t, MotorState{Direction: mapper.Forward, Magnitude: 3200}, m)
}

func TestPort_PixelsVisibleAfterFlush(t *testing.T) {
	t.Parallel()

	p := New()
	p.SetPixel(2, 1, ports.Red)
	assert.Empty(t, p.Pixels(2))

	p.Flush(2)
	assert.Equal(t, []ports.RGB{ports.Off, ports.Red}, p.Pixels(2))
	assert.Equal(t, 1, p.Flushes(2))

	p.SetPixel(2, -1, ports.White)
	p.Flush(2)
	assert.Equal(t, []ports.RGB{ports.Off, ports.Red}, p.Pixels(2))
	assert.Equal(t, 2, p.Flushes(2))
}
