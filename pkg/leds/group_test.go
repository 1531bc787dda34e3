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

package leds

import (
	"testing"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		zones   []uint32
		pixels  int
		wantErr bool
	}{
		{name: "single default zone", pixels: 4},
		{name: "two zones", pixels: 4, zones: []uint32{MaskOf(0, 3), MaskOf(1, 2)}},
		{name: "no pixels", pixels: 0, wantErr: true},
		{name: "too many pixels", pixels: 33, wantErr: true},
		{name: "empty zone", pixels: 4, zones: []uint32{0}, wantErr: true},
		{name: "zone outside string", pixels: 2, zones: []uint32{MaskOf(0, 5)}, wantErr: true},
		{name: "overlapping zones", pixels: 4, zones: []uint32{MaskOf(0, 1), MaskOf(1, 2)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, err := NewGroup(1, tt.pixels, tt.zones...)
			if tt.wantErr {
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pixels, g.Pixels())
			assert.Equal(t, max(1, len(tt.zones)), g.Zones())
		})
	}
}

func TestGroup_TickFlushesOncePerChange(t *testing.T) {
	t.Parallel()

	port := newRecordingLEDs()
	g, err := NewGroup(2, 4, MaskOf(0, 3), MaskOf(1, 2))
	require.NoError(t, err)

	require.NoError(t, g.SetEffect(0, Effect{Mode: Solid, Color: ports.Red, Repeat: RepeatForever, Mask: MaskOf(0, 3)}, t0))
	require.NoError(t, g.SetEffect(1, Effect{Mode: Solid, Color: ports.White, Repeat: RepeatForever, Mask: MaskOf(1, 2)}, t0))

	assert.True(t, g.Tick(t0, port))
	assert.Equal(t, 1, port.flushes[2])
	assert.Equal(t, []ports.RGB{ports.Red, ports.White, ports.White, ports.Red}, port.pixels[2])

	assert.False(t, g.Tick(at(20), port))
	assert.Equal(t, 1, port.flushes[2], "no flush without pixel changes")
}

func TestGroup_SetAllRunsInPhase(t *testing.T) {
	t.Parallel()

	port := newRecordingLEDs()
	g, err := NewGroup(0, 4, MaskOf(0, 3), MaskOf(1, 2))
	require.NoError(t, err)

	require.NoError(t, g.SetAll(Effect{
		Mode:     Blink,
		Color:    ports.Red,
		Duration: 750 * time.Millisecond,
		Repeat:   RepeatForever,
	}, t0))

	g.Tick(t0, port)
	assert.Equal(t, []ports.RGB{ports.Red, ports.Red, ports.Red, ports.Red}, port.pixels[0])

	g.Tick(at(400), port)
	assert.Equal(t, []ports.RGB{ports.Off, ports.Off, ports.Off, ports.Off}, port.pixels[0])
	assert.Equal(t, 2, port.flushes[0])
}

func TestGroup_SetAllInvalidChangesNothing(t *testing.T) {
	t.Parallel()

	g, err := NewGroup(0, 2)
	require.NoError(t, err)
	require.NoError(t, g.SetAll(Effect{Mode: Solid, Color: ports.White, Repeat: RepeatForever}, t0))

	err = g.SetAll(Effect{Mode: Blink, Color: ports.Red, Repeat: RepeatForever}, t0)
	require.Error(t, err)

	z, err := g.Zone(0)
	require.NoError(t, err)
	cur, active := z.Current()
	assert.True(t, active)
	assert.Equal(t, Solid, cur.Mode)
}

func TestGroup_OffAndReset(t *testing.T) {
	t.Parallel()

	port := newRecordingLEDs()
	g, err := NewGroup(3, 2)
	require.NoError(t, err)
	require.NoError(t, g.SetAll(Effect{Mode: Solid, Color: ports.White, Repeat: RepeatForever}, t0))
	g.Tick(t0, port)

	g.Off(port)
	assert.Equal(t, []ports.RGB{ports.Off, ports.Off}, port.pixels[3])
	assert.Equal(t, 2, port.flushes[3])
	assert.False(t, g.Tick(at(20), port))

	require.NoError(t, g.SetAll(Effect{Mode: Solid, Color: ports.White, Repeat: RepeatForever}, at(40)))
	g.Tick(at(40), port)
	g.Reset()
	assert.Equal(t, []ports.RGB{ports.Off, ports.Off}, g.Frame())
	assert.True(t, g.Tick(at(60), port), "reset forces a flush")
	assert.Equal(t, []ports.RGB{ports.Off, ports.Off}, port.pixels[3])
}

func TestGroup_ZoneOutOfRange(t *testing.T) {
	t.Parallel()

	g, err := NewGroup(0, 2)
	require.NoError(t, err)
	err = g.SetEffect(3, Effect{Mode: Solid, Repeat: 1, Mask: 1}, t0)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

// TestPropertyBreathingSmooth verifies that for cycles of at least 256ms the
// breathing index advances at most one table step per millisecond.
func TestPropertyBreathingSmooth(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		dur := rapid.Int64Range(256, 10000).Draw(t, "dur")
		ms := rapid.Int64Range(0, 100000).Draw(t, "ms")

		a := breathIndex(ms, dur)
		b := breathIndex(ms+1, dur)
		step := b - a
		if step < 0 {
			step += sineSteps
		}
		if step > 1 {
			t.Fatalf("index jumped from %d to %d (dur %d, ms %d)", a, b, dur, ms)
		}
	})
}
