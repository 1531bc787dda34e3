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

package control

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/api/models"
	"github.com/brickdrive/brickdrive-core/pkg/config"
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/ports/logport"
	"github.com/brickdrive/brickdrive-core/pkg/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dimRed = ports.RGB{R: 100}

func lit(pixels []ports.RGB) bool {
	for _, c := range pixels {
		if c != ports.Off {
			return true
		}
	}
	return false
}

func allOf(c ports.RGB, n int) []ports.RGB {
	out := make([]ports.RGB, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func assertMotor(t *testing.T, p *logport.Port, motor int, dir mapper.Direction, magnitude int) {
	t.Helper()
	m, ok := p.Motor(motor)
	require.True(t, ok, "motor %d never commanded", motor)
	assert.Equal(t, logport.MotorState{Direction: dir, Magnitude: magnitude}, m, "motor %d", motor)
}

func assertServo(t *testing.T, p *logport.Port, axis, micros int) {
	t.Helper()
	us, ok := p.Servo(axis)
	require.True(t, ok, "servo %d never commanded", axis)
	assert.Equal(t, micros, us, "servo %d", axis)
}

func TestReceiver_StartsNeutral(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	assertServo(t, h.port, 0, 1500)
	assertMotor(t, h.port, 0, mapper.Neutral, 0)
	assertMotor(t, h.port, 1, mapper.Neutral, 0)

	s := h.rx.Status()
	assert.Equal(t, config.RoleReceiver, s.Role)
	assert.Equal(t, "bulldozer", s.Profile)
	assert.Equal(t, uint64(1), s.ConfigVersion)
	assert.Equal(t, Normal, s.Mode)
}

func TestReceiver_CenteredTelegram(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.send(fixtures.CenteredTelegram)

	assertServo(t, h.port, 0, 1500)
	assertMotor(t, h.port, 0, mapper.Neutral, 0)
	assertMotor(t, h.port, 1, mapper.Neutral, 0)
	assert.False(t, lit(h.port.Pixels(1)))
	assert.False(t, lit(h.port.Pixels(2)))

	s := h.rx.Status()
	assert.Equal(t, uint64(1), s.Telegrams)
	assert.Equal(t, Connected, s.Link)
	assert.Equal(t, h.clock.Now(), s.LastTelegram)
}

func TestReceiver_FullForward(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.send(fixtures.FullForwardTelegram)

	left, _ := h.port.Motor(0)
	right, _ := h.port.Motor(1)
	assert.Equal(t, mapper.Forward, left.Direction)
	assert.Equal(t, left, right)
	assert.Equal(t, 24768, left.Magnitude)
}

func TestReceiver_IndicatorsFollowMotion(t *testing.T) {
	t.Parallel()

	t.Run("bulldozer", func(t *testing.T) {
		t.Parallel()

		h := startReceiver(t, fixtures.DozerValues())
		h.send(fixtures.LightsForwardTelegram)

		assert.Equal(t, []ports.RGB{dimRed, ports.White, ports.White, dimRed}, h.port.Pixels(1))
		assert.Equal(t, allOf(ports.White, 2), h.port.Pixels(2))
	})

	t.Run("truck", func(t *testing.T) {
		t.Parallel()

		h := startReceiver(t, fixtures.TruckValues())
		h.send(fixtures.FullForwardTelegram)

		tail := ports.RGB{R: 32}
		assert.Equal(t, []ports.RGB{ports.White, ports.White, tail, tail}, h.port.Pixels(1))
	})
}

func TestReceiver_FailsafeOnTimeout(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.send(fixtures.LightsForwardTelegram)
	h.timeOut()

	h.eventually(func(s Status) bool { return s.Mode == Failsafe })
	assertMotor(t, h.port, 0, mapper.Neutral, 0)
	assertMotor(t, h.port, 1, mapper.Neutral, 0)
	assertServo(t, h.port, 0, 1500)
	assert.Equal(t, allOf(ports.Red, 4), h.port.Pixels(1))
	assert.Equal(t, allOf(ports.Red, 2), h.port.Pixels(2))
	assert.Equal(t, 1, h.vehicle.Resets())

	n := h.notification(models.NotificationLinkFailsafe)
	assert.Contains(t, string(n.Params), `"timeouts":1`)

	s := h.rx.Status()
	assert.Equal(t, TimedOut, s.Link)
	assert.Equal(t, uint64(1), s.Failsafes)

	// 50% duty over the 750ms failsafe period
	for range 19 {
		h.advance(slice)
	}
	require.Eventually(t, func() bool {
		return !lit(h.port.Pixels(1)) && !lit(h.port.Pixels(2))
	}, waitFor, pollGap)
}

func TestReceiver_RepeatedTimeoutsResetLinkEachTime(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.timeOut()
	h.timeOut()

	h.eventually(func(s Status) bool { return s.Timeouts == 2 })
	require.Eventually(t, func() bool { return h.vehicle.Resets() == 2 }, waitFor, pollGap)
	assert.Equal(t, uint64(1), h.rx.Status().Failsafes)
}

func TestReceiver_MalformedTelegramKeepsFailsafe(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.timeOut()
	h.eventually(func(s Status) bool { return s.Mode == Failsafe })

	h.send(fixtures.MalformedTelegram)
	s := h.rx.Status()
	assert.Equal(t, uint64(1), s.Dropped)
	assert.Equal(t, Failsafe, s.Mode)
	assertMotor(t, h.port, 0, mapper.Neutral, 0)

	h.send(fixtures.FullForwardTelegram)
	assert.Equal(t, Normal, h.rx.Status().Mode)
	left, _ := h.port.Motor(0)
	assert.Equal(t, mapper.Forward, left.Direction)
	assert.False(t, lit(h.port.Pixels(1)), "failsafe blink cleared")

	n := h.notification(models.NotificationLinkRestored)
	assert.Contains(t, string(n.Params), `"downMillis"`)
}

func TestReceiver_MalformedTelegramKeepsOutputs(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.send(fixtures.FullForwardTelegram)
	before, _ := h.port.Motor(0)

	h.send("2047,2047,x,2047,2047,2047,1,1,1,1")
	after, _ := h.port.Motor(0)
	assert.Equal(t, before, after)
	assert.Equal(t, uint64(1), h.rx.Status().Dropped)
}

func TestReceiver_GarbageOnlyLinkEntersFailsafe(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.send(fixtures.FullForwardTelegram)
	left, _ := h.port.Motor(0)
	require.Equal(t, mapper.Forward, left.Direction)

	// a frame every 100ms keeps the link busy but never decodes
	for range 6 {
		for range 5 {
			h.advance(slice)
		}
		h.send("garbage")
	}

	h.eventually(func(s Status) bool { return s.Mode == Failsafe })
	assertMotor(t, h.port, 0, mapper.Neutral, 0)
	assertMotor(t, h.port, 1, mapper.Neutral, 0)
	assertServo(t, h.port, 0, 1500)

	s := h.rx.Status()
	assert.Equal(t, TimedOut, s.Link)
	assert.Equal(t, uint64(6), s.Dropped)
	assert.Equal(t, uint64(1), s.Telegrams)
	assert.GreaterOrEqual(t, h.vehicle.Resets(), 1)
	h.notification(models.NotificationLinkFailsafe)

	h.send(fixtures.FullForwardTelegram)
	assert.Equal(t, Normal, h.rx.Status().Mode)
}

func TestReceiver_ReportsButtonGestures(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	hold := func(telegram string, d time.Duration) {
		for elapsed := time.Duration(0); elapsed < d; elapsed += slice {
			h.advance(slice)
		}
		h.send(telegram)
	}

	h.send(fixtures.LightsForwardTelegram)
	hold(fixtures.CenteredTelegram, 200*time.Millisecond)
	n := h.notification(models.NotificationButton)
	assert.JSONEq(t, `{"button":"K1","kind":"short","heldMillis":200}`, string(n.Params))

	h.send(fixtures.LightsForwardTelegram)
	for range 10 {
		hold(fixtures.LightsForwardTelegram, 100*time.Millisecond)
	}
	n = h.notification(models.NotificationButton)
	assert.JSONEq(t, `{"button":"K1","kind":"long","heldMillis":1000}`, string(n.Params))
}

func TestReceiver_LinkFailureResetsAndBacksOff(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.vehicle.FailNext(errors.New("radio fault"))
	h.advance(slice)

	h.eventually(func(s Status) bool { return s.LinkFailures == 1 })
	require.Eventually(t, func() bool { return h.vehicle.Resets() == 1 }, waitFor, pollGap)
	assert.Equal(t, Normal, h.rx.Status().Mode)

	// no telegram for longer than the link timeout once the backoff ends
	for elapsed := time.Duration(0); elapsed < 500*time.Millisecond; elapsed += slice {
		h.advance(slice)
	}
	h.eventually(func(s Status) bool { return s.Mode == Failsafe })
	assertMotor(t, h.port, 0, mapper.Neutral, 0)
}

func TestReceiver_ShutdownLeavesOutputsSafe(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	h.send(fixtures.LightsForwardTelegram)
	require.True(t, lit(h.port.Pixels(1)))

	h.stop()
	assertMotor(t, h.port, 0, mapper.Neutral, 0)
	assertMotor(t, h.port, 1, mapper.Neutral, 0)
	assertServo(t, h.port, 0, 1500)
	assert.Equal(t, allOf(ports.Off, 4), h.port.Pixels(1))
	assert.Equal(t, allOf(ports.Off, 2), h.port.Pixels(2))
}

func TestReceiver_ConfigReloadAppliedNextIteration(t *testing.T) {
	t.Parallel()

	h := startReceiver(t, fixtures.DozerValues())
	first := h.notification(models.NotificationConfigApplied)
	assert.JSONEq(t, `{"version":1,"profile":"bulldozer"}`, string(first.Params))

	vals := fixtures.DozerValues()
	vals.Vehicle.Servos = []config.Servo{{Channel: "R2", Axis: 3, Range: "full"}}
	h.cfg.Store(vals)

	h.send(fixtures.CenteredTelegram)
	h.eventually(func(s Status) bool { return s.ConfigVersion == 2 })
	second := h.notification(models.NotificationConfigApplied)
	assert.JSONEq(t, `{"version":2,"profile":"bulldozer"}`, string(second.Params))

	h.send("2047,2047,2047,2047,4095,2047,1,1,1,1")
	assertServo(t, h.port, 3, 2500)
	assertServo(t, h.port, 0, 1500)
}

func TestReceiver_SleepAfterInactivity(t *testing.T) {
	t.Parallel()

	vals := fixtures.DozerValues()
	vals.Sleep.Enabled = true
	vals.Sleep.Duration = "1s"
	var slept atomic.Int32
	h := startReceiver(t, vals, WithSleep(func() error {
		slept.Add(1)
		return nil
	}))

	for range 4 {
		h.send(fixtures.CenteredTelegram)
		h.advance(400 * time.Millisecond)
		assert.Zero(t, slept.Load())
	}
	h.send(fixtures.CenteredTelegram)
	assert.Equal(t, int32(1), slept.Load())
	assert.True(t, h.rx.Status().Sleeping)
	h.notification(models.NotificationSleepTriggered)

	// idle telegrams do not fire again until the operator moves a stick
	h.send(fixtures.CenteredTelegram)
	assert.Equal(t, int32(1), slept.Load())

	h.send(fixtures.FullForwardTelegram)
	assert.False(t, h.rx.Status().Sleeping)
}

func TestReceiver_SleepDisabled(t *testing.T) {
	t.Parallel()

	vals := fixtures.DozerValues()
	vals.Sleep.Duration = "1s"
	var slept atomic.Int32
	h := startReceiver(t, vals, WithSleep(func() error {
		slept.Add(1)
		return nil
	}))

	for range 6 {
		h.send(fixtures.CenteredTelegram)
		h.advance(400 * time.Millisecond)
	}
	assert.Zero(t, slept.Load())
	assert.False(t, h.rx.Status().Sleeping)
}
