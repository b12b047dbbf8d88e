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
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/probechain/go-shielded/common"
)

// LiteralType identifies the primitive type of a literal.
type LiteralType uint16

const (
	LitAddress LiteralType = iota
	LitBoolean
	LitField
	LitI8
	LitI16
	LitI32
	LitI64
	LitU8
	LitU16
	LitU32
	LitU64
	LitU128
	LitString

	numLiteralTypes
)

var literalTypeNames = [...]string{
	LitAddress: "address",
	LitBoolean: "boolean",
	LitField:   "field",
	LitI8:      "i8",
	LitI16:     "i16",
	LitI32:     "i32",
	LitI64:     "i64",
	LitU8:      "u8",
	LitU16:     "u16",
	LitU32:     "u32",
	LitU64:     "u64",
	LitU128:    "u128",
	LitString:  "string",
}

var literalTypeByName = func() map[string]LiteralType {
	m := make(map[string]LiteralType, len(literalTypeNames))
	for t, name := range literalTypeNames {
		m[name] = LiteralType(t)
	}
	return m
}()

func (t LiteralType) String() string {
	if t < numLiteralTypes {
		return literalTypeNames[t]
	}
	return fmt.Sprintf("literal(%d)", uint16(t))
}

// Valid reports whether t is a known literal type.
func (t LiteralType) Valid() bool { return t < numLiteralTypes }

// IsSigned reports whether t is a signed integer type.
func (t LiteralType) IsSigned() bool { return LitI8 <= t && t <= LitI64 }

// IsUnsigned reports whether t is an unsigned integer type.
func (t LiteralType) IsUnsigned() bool { return LitU8 <= t && t <= LitU128 }

// bits returns the width of an integer type.
func (t LiteralType) bits() uint {
	switch t {
	case LitI8, LitU8:
		return 8
	case LitI16, LitU16:
		return 16
	case LitI32, LitU32:
		return 32
	case LitI64, LitU64:
		return 64
	case LitU128:
		return 128
	}
	return 0
}

// ParseLiteralType resolves a literal type keyword.
func ParseLiteralType(s string) (LiteralType, bool) {
	t, ok := literalTypeByName[s]
	return t, ok
}

// Literal is a primitive plaintext value. Literals are comparable with ==.
type Literal struct {
	typ   LiteralType
	addr  common.Address
	field common.Field
	num   uint256.Int // unsigned integers and booleans
	snum  int64       // signed integers
	str   string
}

// NewAddress returns an address literal.
func NewAddress(a common.Address) Literal { return Literal{typ: LitAddress, addr: a} }

// NewBoolean returns a boolean literal.
func NewBoolean(b bool) Literal {
	l := Literal{typ: LitBoolean}
	if b {
		l.num.SetUint64(1)
	}
	return l
}

// NewField returns a field literal.
func NewField(f common.Field) Literal { return Literal{typ: LitField, field: f} }

// NewU64 returns a u64 literal.
func NewU64(v uint64) Literal {
	l := Literal{typ: LitU64}
	l.num.SetUint64(v)
	return l
}

// NewString returns a string literal.
func NewString(s string) Literal { return Literal{typ: LitString, str: s} }

// NewUnsigned returns an unsigned integer literal of type t, failing if v does
// not fit.
func NewUnsigned(t LiteralType, v *uint256.Int) (Literal, error) {
	if !t.IsUnsigned() {
		return Literal{}, fmt.Errorf("%w: %s is not an unsigned type", ErrInvalidValue, t)
	}
	if uint(v.BitLen()) > t.bits() {
		return Literal{}, fmt.Errorf("%w: %s overflows %s", ErrInvalidValue, v.ToBig(), t)
	}
	l := Literal{typ: t}
	l.num.Set(v)
	return l, nil
}

// NewSigned returns a signed integer literal of type t, failing if v does not
// fit.
func NewSigned(t LiteralType, v int64) (Literal, error) {
	if !t.IsSigned() {
		return Literal{}, fmt.Errorf("%w: %s is not a signed type", ErrInvalidValue, t)
	}
	if bits := t.bits(); bits < 64 {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if v < lo || v > hi {
			return Literal{}, fmt.Errorf("%w: %d overflows %s", ErrInvalidValue, v, t)
		}
	}
	return Literal{typ: t, snum: v}, nil
}

func (Literal) stackValue() {}
func (Literal) plaintext()  {}
func (Literal) operand()    {}

// Type returns the literal type.
func (l Literal) Type() LiteralType { return l.typ }

// Address returns the value of an address literal.
func (l Literal) Address() (common.Address, bool) {
	return l.addr, l.typ == LitAddress
}

// U64 returns the value of a u64 literal.
func (l Literal) U64() (uint64, bool) {
	return l.num.Uint64(), l.typ == LitU64
}

// Bool returns the value of a boolean literal.
func (l Literal) Bool() (bool, bool) {
	return !l.num.IsZero(), l.typ == LitBoolean
}

// Field returns the value of a field literal.
func (l Literal) Field() (common.Field, bool) {
	return l.field, l.typ == LitField
}

// Unsigned returns a copy of an unsigned integer literal's value.
func (l Literal) Unsigned() (*uint256.Int, bool) {
	return new(uint256.Int).Set(&l.num), l.typ.IsUnsigned()
}

// Signed returns the value of a signed integer literal.
func (l Literal) Signed() (int64, bool) {
	return l.snum, l.typ.IsSigned()
}

// Str returns the value of a string literal.
func (l Literal) Str() (string, bool) {
	return l.str, l.typ == LitString
}

// String returns the literal in its text form, e.g. 5u64 or aleo1....
func (l Literal) String() string {
	switch {
	case l.typ == LitAddress:
		return l.addr.String()
	case l.typ == LitBoolean:
		return strconv.FormatBool(!l.num.IsZero())
	case l.typ == LitField:
		return l.field.Decimal() + "field"
	case l.typ.IsSigned():
		return strconv.FormatInt(l.snum, 10) + l.typ.String()
	case l.typ.IsUnsigned():
		return l.num.ToBig().String() + l.typ.String()
	case l.typ == LitString:
		return strconv.Quote(l.str)
	}
	return fmt.Sprintf("literal(%d)", uint16(l.typ))
}

// ParseLiteral parses the text form of a literal.
func ParseLiteral(s string) (Literal, error) {
	switch {
	case s == "true":
		return NewBoolean(true), nil
	case s == "false":
		return NewBoolean(false), nil
	case strings.HasPrefix(s, common.AddressHRP+"1"):
		a, err := common.ParseAddress(s)
		if err != nil {
			return Literal{}, fmt.Errorf("%w: address %q: %v", ErrParse, s, err)
		}
		return NewAddress(a), nil
	case strings.HasPrefix(s, `"`):
		str, err := strconv.Unquote(s)
		if err != nil {
			return Literal{}, fmt.Errorf("%w: string %s: %v", ErrParse, s, err)
		}
		if len(str) > math.MaxUint16 {
			return Literal{}, fmt.Errorf("%w: string of %d bytes", ErrInvalidValue, len(str))
		}
		return NewString(str), nil
	}
	// Numeric literals carry their type as a suffix.
	i := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r == '-')
	})
	if i <= 0 {
		return Literal{}, fmt.Errorf("%w: invalid literal %q", ErrParse, s)
	}
	digits, suffix := s[:i], s[i:]
	typ, ok := ParseLiteralType(suffix)
	if !ok {
		return Literal{}, fmt.Errorf("%w: unknown literal type %q", ErrParse, suffix)
	}
	switch {
	case typ == LitField:
		f, err := common.ParseDecimalField(digits)
		if err != nil {
			return Literal{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return NewField(f), nil
	case typ.IsSigned():
		v, err := strconv.ParseInt(digits, 10, int(typ.bits()))
		if err != nil {
			return Literal{}, fmt.Errorf("%w: %s: %v", ErrParse, s, err)
		}
		return NewSigned(typ, v)
	case typ.IsUnsigned():
		b, ok := new(big.Int).SetString(digits, 10)
		if !ok || b.Sign() < 0 {
			return Literal{}, fmt.Errorf("%w: invalid unsigned literal %q", ErrParse, s)
		}
		v, overflow := uint256.FromBig(b)
		if overflow {
			return Literal{}, fmt.Errorf("%w: %s overflows %s", ErrInvalidValue, digits, typ)
		}
		return NewUnsigned(typ, v)
	}
	return Literal{}, fmt.Errorf("%w: invalid literal %q", ErrParse, s)
}
