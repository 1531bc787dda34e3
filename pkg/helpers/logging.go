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
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/adrg/xdg"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Dirs are the directories the binary reads and writes.
type Dirs struct {
	ConfigDir string
	DataDir   string
	LogDir    string
}

// DefaultDirs follows the XDG base directory layout.
func DefaultDirs() Dirs {
	data := filepath.Join(xdg.DataHome, config.AppName)
	return Dirs{
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		DataDir:   data,
		LogDir:    filepath.Join(data, config.LogsDir),
	}
}

// EnsureDirectories creates the config and log directories.
func EnsureDirectories(dirs Dirs) error {
	if err := os.MkdirAll(dirs.ConfigDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dirs.LogDir, 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

type writerBox struct {
	w io.Writer
}

var logWriter atomic.Pointer[writerBox]

// LogWriter returns the writer the global logger currently writes to, for
// hooking extra sinks onto the same output.
func LogWriter() io.Writer {
	if b := logWriter.Load(); b != nil {
		return b.w
	}
	return os.Stderr
}

// InitLogging points the global logger at a rotating file in logDir plus
// any extra writers.
func InitLogging(logDir string, writers []io.Writer) error {
	err := os.MkdirAll(logDir, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(logDir, config.LogFile),
		MaxSize:    1,
		MaxBackups: 2,
	}}

	if len(writers) > 0 {
		logWriters = append(logWriters, writers...)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := io.MultiWriter(logWriters...)
	logWriter.Store(&writerBox{w: out})
	log.Logger = log.Output(out).
		With().Timestamp().Caller().Logger()

	return nil
}
