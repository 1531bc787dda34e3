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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/brickdrive/brickdrive-core/pkg/helpers/syncutil"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion   = 1
	CfgEnv          = "BRICKDRIVE_CFG"
	RoleReceiver    = "receiver"
	RoleTransmitter = "transmitter"
)

var ErrSchemaVersion = errors.New("schema version mismatch")

type Values struct {
	Service      Service   `toml:"service"`
	Role         string    `toml:"role" validate:"oneof=receiver transmitter"`
	Link         Link      `toml:"link"`
	Input        Link      `toml:"input,omitempty"`
	Control      Control   `toml:"control"`
	Vehicle      Vehicle   `toml:"vehicle"`
	Failsafe     Failsafe  `toml:"failsafe"`
	Sleep        Sleep     `toml:"sleep"`
	Ports        Ports     `toml:"ports"`
	API          API       `toml:"api"`
	Publisher    Publisher `toml:"publisher,omitempty"`
	Telemetry    Telemetry `toml:"telemetry"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Role:         RoleReceiver,
	Link: Link{
		Driver:       LinkDriverSerial,
		Path:         SerialAuto,
		Format:       FormatText,
		Timeout:      "500ms",
		RetryBackoff: "500ms",
	},
	Input: Link{
		Driver:       LinkDriverMemory,
		Format:       FormatText,
		Timeout:      "100ms",
		RetryBackoff: "500ms",
	},
	Control: Control{
		AnimationInterval: "20ms",
		SendInterval:      "20ms",
		StatusGroup:       1,
	},
	Vehicle: Vehicle{
		Profile: "none",
	},
	Failsafe: Failsafe{
		Period: "750ms",
		Color:  "#FF0000",
	},
	Sleep: Sleep{
		Action:   "halt",
		Duration: "5m",
	},
	Ports: Ports{
		Driver: PortsDriverLog,
	},
}

// Instance holds the loaded configuration. Readers take an immutable
// Snapshot; every successful Load publishes a new one with a higher
// version.
type Instance struct {
	fs           afero.Fs
	snap         atomic.Pointer[Snapshot]
	cfgPath      string
	roleOverride string
	vals         Values
	defaults     Values
	mu           syncutil.RWMutex
}

// NewConfig loads the config file from configDir, or the path named by
// BRICKDRIVE_CFG, writing defaults first if it does not exist.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	return NewConfigAt(afero.NewOsFs(), cfgPath, defaults)
}

// NewConfigAt loads the config file at cfgPath on fs.
//
//nolint:gocritic // config struct copied for immutability
func NewConfigAt(fs afero.Fs, cfgPath string, defaults Values) (*Instance, error) {
	cfg := &Instance{
		fs:       fs,
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	exists, err := afero.Exists(fs, cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !exists {
		log.Info().Msg("saving new default config to disk")

		err := fs.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads and validates the file. On any error the previous values and
// snapshot stay in effect.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return ErrSchemaVersion
	}

	if c.roleOverride != "" {
		newVals.Role = c.roleOverride
	}

	if err := Validate(&newVals); err != nil {
		return err
	}

	c.vals = newVals
	c.publishLocked()
	return nil
}

func (c *Instance) publishLocked() {
	var version uint64 = 1
	if prev := c.snap.Load(); prev != nil {
		version = prev.Version + 1
	}
	c.snap.Store(newSnapshot(&c.vals, version))
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	// set current schema version
	c.vals.ConfigSchema = SchemaVersion

	// generate a device id if one doesn't exist
	if c.vals.Service.DeviceID == "" {
		newID := uuid.New().String()
		c.vals.Service.DeviceID = newID
		log.Info().Msgf("generated new device id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Snapshot returns the current configuration. It is never nil once the
// instance has loaded.
func (c *Instance) Snapshot() *Snapshot {
	return c.snap.Load()
}

func (c *Instance) Path() string {
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	ApplyLogLevel(enabled)
}

// ApplyLogLevel sets the global zerolog level for the debug_logging flag.
func ApplyLogLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetRole overrides the configured role for this run. The override
// survives reloads and is never saved.
func (c *Instance) SetRole(role string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.vals
	next.Role = role
	if err := Validate(&next); err != nil {
		return err
	}
	c.roleOverride = role
	c.vals = next
	c.publishLocked()
	return nil
}
