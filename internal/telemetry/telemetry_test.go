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

package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "no username in path",
			input:    "/usr/local/bin/brickdrive",
			expected: "/usr/local/bin/brickdrive",
		},
		{
			name:     "linux home path",
			input:    "/home/pi/brickdrive/pkg/config/config.go",
			expected: "/home/<user>/brickdrive/pkg/config/config.go",
		},
		{
			name:     "linux home path uppercase",
			input:    "/Home/Pi/brickdrive/brickdrive.toml",
			expected: "/home/<user>/brickdrive/brickdrive.toml",
		},
		{
			name:     "macos users path",
			input:    "/Users/builder/Library/brickdrive/brickdrive.toml",
			expected: "/Users/<user>/Library/brickdrive/brickdrive.toml",
		},
		{
			name:     "windows path",
			input:    "C:\\Users\\builder\\AppData\\Local\\brickdrive\\brickdrive.toml",
			expected: "C:\\Users\\<user>\\AppData\\Local\\brickdrive\\brickdrive.toml",
		},
		{
			name:     "windows path different drive",
			input:    "d:\\Users\\admin\\brickdrive\\logs",
			expected: "C:\\Users\\<user>\\brickdrive\\logs",
		},
		{
			name:     "multiple paths in message",
			input:    "copying /home/alice/src to /home/bob/dst",
			expected: "copying /home/<user>/src to /home/<user>/dst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizePath(tt.input))
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "rover.local",
		Message:    "open /home/pi/brickdrive.toml: permission denied",
		Extra:      map[string]any{"path": "/home/pi/logs", "count": 3},
		Exception: []sentry.Exception{{
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{
				AbsPath:  "/home/pi/src/brickdrive/main.go",
				Filename: "main.go",
			}}},
		}},
	}

	got := sanitizeEvent(event)
	require.NotNil(t, got)
	assert.Empty(t, got.ServerName)
	assert.Equal(t, "open /home/<user>/brickdrive.toml: permission denied", got.Message)
	assert.Equal(t, "/home/<user>/logs", got.Extra["path"])
	assert.Equal(t, 3, got.Extra["count"])
	assert.Equal(t, "/home/<user>/src/brickdrive/main.go", got.Exception[0].Stacktrace.Frames[0].AbsPath)
	assert.Equal(t, "main.go", got.Exception[0].Stacktrace.Frames[0].Filename)
}

func TestInit_DisabledOrNoDSN(t *testing.T) {
	t.Parallel()

	require.NoError(t, Init(Options{Enabled: false, DSN: "https://key@example.com/1"}))
	require.NoError(t, Init(Options{Enabled: true}))
	assert.False(t, Enabled())

	// no-ops while disabled
	Close()
	Flush()
}
