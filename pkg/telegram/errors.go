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

package telegram

import (
	"errors"
	"fmt"
)

var (
	ErrFieldCountMismatch = errors.New("field count mismatch")
	ErrNumericParse       = errors.New("numeric parse failure")
)

// DecodeErrorKind classifies why a telegram was rejected.
type DecodeErrorKind int

const (
	FieldCountMismatch DecodeErrorKind = iota
	NumericParseFailure
)

func (k DecodeErrorKind) String() string {
	switch k {
	case FieldCountMismatch:
		return "FieldCountMismatch"
	case NumericParseFailure:
		return "NumericParseFailure"
	default:
		return fmt.Sprintf("DecodeErrorKind(%d)", int(k))
	}
}

// DecodeError is returned for every malformed telegram. Field is the
// zero-based field index for parse failures and Got the observed field count
// (or frame length for binary frames) for count mismatches.
type DecodeError struct {
	Err   error
	Value string
	Kind  DecodeErrorKind
	Field int
	Got   int
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case FieldCountMismatch:
		return fmt.Sprintf("telegram: expected %d fields, got %d", FieldCount, e.Got)
	case NumericParseFailure:
		return fmt.Sprintf("telegram: field %d (%s) is not an integer: %q",
			e.Field, Channel(e.Field), e.Value)
	default:
		return "telegram: decode failed"
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a DecodeError against the kind sentinels.
func (e *DecodeError) Is(target error) bool {
	switch e.Kind {
	case FieldCountMismatch:
		return target == ErrFieldCountMismatch
	case NumericParseFailure:
		return target == ErrNumericParse
	default:
		return false
	}
}
