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
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockLink is a mock implementation of the link.Link interface using
// testify/mock. Errors are returned unwrapped so callers can match
// link.ErrTimeout and link.ErrClosed.
type MockLink struct {
	mock.Mock
}

func (m *MockLink) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	args := m.Called(ctx, timeout)
	var data []byte
	if b, ok := args.Get(0).([]byte); ok {
		data = b
	}
	return data, args.Error(1) //nolint:wrapcheck // sentinel errors pass through
}

func (m *MockLink) Send(ctx context.Context, data []byte) error {
	args := m.Called(ctx, data)
	return args.Error(0) //nolint:wrapcheck // sentinel errors pass through
}

func (m *MockLink) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock reset failed: %w", err)
	}
	return nil
}

func (m *MockLink) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock close failed: %w", err)
	}
	return nil
}

// NewMockLink returns a link whose Reset and Close succeed.
func NewMockLink() *MockLink {
	m := &MockLink{}
	m.On("Reset", mock.Anything).Return(nil).Maybe()
	m.On("Close").Return(nil).Maybe()
	return m
}
