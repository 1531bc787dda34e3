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

//go:build linux

package sleep

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// Halt flushes filesystems and halts the machine. Requires CAP_SYS_BOOT.
func Halt() error {
	log.Info().Msg("halting system")
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_HALT); err != nil {
		return fmt.Errorf("halt: %w", err)
	}
	return nil
}
