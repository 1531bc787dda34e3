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

// Package buttons turns the K switch levels of successive telegrams into
// press, release, short press and long press events.
package buttons

import (
	"fmt"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/telegram"
)

// DefaultLongPress is how long a switch is held before it counts as a long
// press.
const DefaultLongPress = time.Second

// Kind is the type of a button event.
type Kind int

const (
	// Press fires when a switch becomes actuated.
	Press Kind = iota
	// Release fires when a switch is let go.
	Release
	// Short fires on release of a press shorter than the long threshold.
	Short
	// Long fires once while a switch is held past the long threshold.
	Long
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case Short:
		return "short"
	case Long:
		return "long"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one edge or gesture on a switch. Held is how long the switch had
// been actuated, zero for Press.
type Event struct {
	Button telegram.Channel
	Kind   Kind
	Held   time.Duration
}

type state struct {
	since    time.Time
	pressed  bool
	longDone bool
}

// Handler tracks the four K switches. It is not safe for concurrent use.
type Handler struct {
	states    [telegram.DigitalChannels]state
	longPress time.Duration
}

// New creates a handler with the given long press threshold. A threshold
// of zero or less uses DefaultLongPress.
func New(longPress time.Duration) *Handler {
	h := &Handler{}
	h.SetLongPress(longPress)
	return h
}

// SetLongPress changes the long press threshold. Presses in progress keep
// their start time.
func (h *Handler) SetLongPress(d time.Duration) {
	if d <= 0 {
		d = DefaultLongPress
	}
	h.longPress = d
}

// Update feeds one telegram and returns the events it caused in switch
// order. A long press fires while held; its release reports Release only.
func (h *Handler) Update(vec *telegram.ChannelVector, now time.Time) []Event {
	var events []Event
	for i := range h.states {
		st := &h.states[i]
		button := telegram.K1 + telegram.Channel(i)
		switch down := vec.Digital[i]; {
		case down && !st.pressed:
			*st = state{pressed: true, since: now}
			events = append(events, Event{Button: button, Kind: Press})
		case down && !st.longDone && now.Sub(st.since) >= h.longPress:
			st.longDone = true
			events = append(events, Event{Button: button, Kind: Long, Held: now.Sub(st.since)})
		case !down && st.pressed:
			held := now.Sub(st.since)
			events = append(events, Event{Button: button, Kind: Release, Held: held})
			if !st.longDone && held < h.longPress {
				events = append(events, Event{Button: button, Kind: Short, Held: held})
			}
			*st = state{}
		}
	}
	return events
}

// Reset forgets every press in progress without emitting events.
func (h *Handler) Reset() {
	h.states = [telegram.DigitalChannels]state{}
}
