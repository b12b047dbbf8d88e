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
	"strconv"
	"strings"

	"github.com/probechain/go-shielded/params"
)

// Register addresses a register by locator, optionally followed by a member
// path into the interface or record it holds: r3, r3.owner, r3.point.x.
type Register struct {
	Locator uint64
	Path    []string
}

// NewRegister returns the plain register r<locator>.
func NewRegister(locator uint64) Register { return Register{Locator: locator} }

func (Register) operand() {}

// IsMember reports whether r addresses a member rather than a whole register.
func (r Register) IsMember() bool { return len(r.Path) > 0 }

// Equal reports whether r and other address the same location.
func (r Register) Equal(other Register) bool {
	if r.Locator != other.Locator || len(r.Path) != len(other.Path) {
		return false
	}
	for i := range r.Path {
		if r.Path[i] != other.Path[i] {
			return false
		}
	}
	return true
}

func (r Register) String() string {
	s := "r" + strconv.FormatUint(r.Locator, 10)
	if len(r.Path) > 0 {
		s += "." + strings.Join(r.Path, ".")
	}
	return s
}

// ParseRegister parses the text form of a register.
func ParseRegister(net *params.Network, s string) (Register, error) {
	parts := strings.Split(s, ".")
	head := parts[0]
	if len(head) < 2 || head[0] != 'r' {
		return Register{}, fmt.Errorf("%w: invalid register %q", ErrParse, s)
	}
	for i := 1; i < len(head); i++ {
		if !isDigit(head[i]) {
			return Register{}, fmt.Errorf("%w: invalid register %q", ErrParse, s)
		}
	}
	loc, err := strconv.ParseUint(head[1:], 10, 64)
	if err != nil {
		return Register{}, fmt.Errorf("%w: register %q: %v", ErrParse, s, err)
	}
	reg := Register{Locator: loc}
	if len(parts) > 1 {
		if len(parts)-1 > net.MaxInterfaceMembers {
			return Register{}, fmt.Errorf("%w: register path %q too deep", ErrParse, s)
		}
		for _, p := range parts[1:] {
			if err := ValidateIdentifier(net, p); err != nil {
				return Register{}, err
			}
		}
		reg.Path = parts[1:]
	}
	return reg, nil
}

// Operand supplies a value to an instruction: a Literal or a Register.
type Operand interface {
	operand()
	String() string
}

// ParseOperand parses a register reference or a literal.
func ParseOperand(net *params.Network, s string) (Operand, error) {
	if len(s) > 1 && s[0] == 'r' && isDigit(s[1]) {
		return ParseRegister(net, s)
	}
	return ParseLiteral(s)
}
