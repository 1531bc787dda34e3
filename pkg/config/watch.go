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
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the config file whenever it is written or replaced, until
// ctx is done. onReload is called after every reload attempt with the new
// snapshot, or with the load error; it may be nil. The containing directory
// is watched so editors that replace the file are handled.
func (c *Instance) Watch(ctx context.Context, onReload func(*Snapshot, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close config watcher")
		}
	}()

	dir := filepath.Dir(c.cfgPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}
	log.Info().Str("path", c.cfgPath).Msg("watching config file for changes")

	target := filepath.Clean(c.cfgPath)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(reloadDebounce)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(watchErr).Msg("error in config watcher")
		case <-pending:
			pending = nil
			err := c.Load()
			if err != nil {
				log.Error().Err(err).Msg("config reload failed, keeping previous config")
			} else {
				log.Info().Uint64("version", c.Snapshot().Version).Msg("config reloaded")
			}
			if onReload != nil {
				onReload(c.Snapshot(), err)
			}
		}
	}
}
