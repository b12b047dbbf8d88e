// Copyright 2024 The go-shielded Authors
// This file is part of the go-shielded library.
//
// The go-shielded library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-shielded library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-shielded library. If not, see <http://www.gnu.org/licenses/>.

package program

import "errors"

// ---- Error sentinels -------------------------------------------------------

// ErrParse is returned when program, instruction or value text is malformed.
var ErrParse = errors.New("parse error")

// ErrFormat is returned when a binary encoding violates its bounds or is
// truncated.
var ErrFormat = errors.New("format error")

// ErrArity is returned when the number of inputs does not match what the
// target type declares.
var ErrArity = errors.New("arity mismatch")

// ErrTypeMismatch is returned when a value or type differs from the declared
// type it is checked against.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrUnsupportedCast is returned for casts into literal types.
var ErrUnsupportedCast = errors.New("unsupported cast")

// ErrIllegalCast is returned when a record is supplied where a plaintext value
// is required.
var ErrIllegalCast = errors.New("illegal cast")

// ErrInvalidValue is returned for malformed owners and balances, overflowing
// literals and duplicate or reserved field names.
var ErrInvalidValue = errors.New("invalid value")

// ErrLookup is returned when an interface or record type is not defined by
// the program.
var ErrLookup = errors.New("undefined")
