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

package mocks

import (
	"github.com/brickdrive/brickdrive-core/pkg/mapper"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/stretchr/testify/mock"
)

// MockActuators is a mock implementation of ports.Actuators.
type MockActuators struct {
	mock.Mock
}

func (m *MockActuators) SetServoPulse(axis, micros int) {
	m.Called(axis, micros)
}

func (m *MockActuators) SetMotorDuty(motor int, dir mapper.Direction, magnitude int) {
	m.Called(motor, dir, magnitude)
}

// NewMockActuators returns actuators that accept every command.
func NewMockActuators() *MockActuators {
	m := &MockActuators{}
	m.On("SetServoPulse", mock.Anything, mock.Anything).Return().Maybe()
	m.On("SetMotorDuty", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	return m
}

// MockLEDs is a mock implementation of ports.LEDs.
type MockLEDs struct {
	mock.Mock
}

func (m *MockLEDs) SetPixel(group, index int, c ports.RGB) {
	m.Called(group, index, c)
}

func (m *MockLEDs) Flush(group int) {
	m.Called(group)
}

// NewMockLEDs returns LEDs that accept every write.
func NewMockLEDs() *MockLEDs {
	m := &MockLEDs{}
	m.On("SetPixel", mock.Anything, mock.Anything, mock.Anything).Return().Maybe()
	m.On("Flush", mock.Anything).Return().Maybe()
	return m
}
