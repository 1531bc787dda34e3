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
	"fmt"
	"path/filepath"
	"testing"

	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestConfigPath is where NewTestConfig keeps its file.
const TestConfigPath = "/brickdrive/brickdrive.toml"

// FSHelper provides utilities for filesystem mocking in tests
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// WriteConfig encodes vals as TOML at path.
//
//nolint:gocritic // config struct copied for encoding
func (h *FSHelper) WriteConfig(path string, vals config.Values) error {
	data, err := toml.Marshal(&vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return h.WriteFile(path, data)
}

// WriteFile writes content to a file, creating its directory.
func (h *FSHelper) WriteFile(path string, content []byte) error {
	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for file %s: %w", path, err)
	}
	if err := afero.WriteFile(h.Fs, path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// FileExists checks if a file exists
func (h *FSHelper) FileExists(path string) bool {
	exists, err := afero.Exists(h.Fs, path)
	if err != nil {
		return false
	}
	return exists
}

// NewTestConfig loads vals through a real config.Instance backed by an
// in-memory filesystem.
//
//nolint:gocritic // config struct copied for encoding
func NewTestConfig(t *testing.T, vals config.Values) (*config.Instance, *FSHelper) {
	t.Helper()
	h := NewMemoryFS()
	require.NoError(t, h.WriteConfig(TestConfigPath, vals))
	cfg, err := config.NewConfigAt(h.Fs, TestConfigPath, config.BaseDefaults)
	require.NoError(t, err)
	return cfg, h
}
