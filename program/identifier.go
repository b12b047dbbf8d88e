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

import (
	"fmt"

	"github.com/probechain/go-shielded/params"
)

// Reserved record entry names.
const (
	OwnerName   = "owner"
	BalanceName = "balance"
)

// keywords may not be used as identifiers.
var keywords = map[string]struct{}{
	"program":   {},
	"interface": {},
	"record":    {},
	"as":        {},
	"into":      {},
	"constant":  {},
	"public":    {},
	"private":   {},
	"true":      {},
	"false":     {},
}

// ValidateIdentifier checks that name starts with an ASCII letter, continues
// with letters, digits or underscores, fits the network's identifier length
// and is neither a keyword nor a literal type name.
func ValidateIdentifier(net *params.Network, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty identifier", ErrParse)
	}
	if len(name) > net.MaxIdentifierLength {
		return fmt.Errorf("%w: identifier %q exceeds %d bytes", ErrParse, name, net.MaxIdentifierLength)
	}
	if !isLetter(name[0]) {
		return fmt.Errorf("%w: identifier %q must start with a letter", ErrParse, name)
	}
	for i := 1; i < len(name); i++ {
		if c := name[i]; !isLetter(c) && !isDigit(c) && c != '_' {
			return fmt.Errorf("%w: invalid character %q in identifier %q", ErrParse, c, name)
		}
	}
	if _, ok := keywords[name]; ok {
		return fmt.Errorf("%w: identifier %q is a keyword", ErrParse, name)
	}
	if _, ok := literalTypeByName[name]; ok {
		return fmt.Errorf("%w: identifier %q is a literal type", ErrParse, name)
	}
	return nil
}

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
