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
	"strings"

	"github.com/probechain/go-shielded/params"
)

// ---- Plaintext types -------------------------------------------------------

// PlaintextType is the shape of a plaintext value: a literal type or a named
// interface. The zero value is not a valid type.
type PlaintextType struct {
	iface   bool
	literal LiteralType
	name    string
}

// LiteralPlaintext returns the plaintext type of literals of type t.
func LiteralPlaintext(t LiteralType) PlaintextType {
	return PlaintextType{literal: t}
}

// InterfacePlaintext returns the plaintext type of the named interface.
func InterfacePlaintext(name string) PlaintextType {
	return PlaintextType{iface: true, name: name}
}

// IsLiteral reports whether t is a literal type.
func (t PlaintextType) IsLiteral() bool { return !t.iface }

// IsInterface reports whether t names an interface.
func (t PlaintextType) IsInterface() bool { return t.iface }

// Literal returns the literal type of a literal plaintext type.
func (t PlaintextType) Literal() (LiteralType, bool) { return t.literal, !t.iface }

// Name returns the interface name of an interface plaintext type.
func (t PlaintextType) Name() string { return t.name }

func (t PlaintextType) String() string {
	if t.iface {
		return t.name
	}
	return t.literal.String()
}

// ---- Visibility ------------------------------------------------------------

// Visibility is the mode a value is declared with.
type Visibility uint8

const (
	Constant Visibility = iota
	Public
	Private
)

var visibilityNames = [...]string{
	Constant: "constant",
	Public:   "public",
	Private:  "private",
}

func (v Visibility) String() string {
	if int(v) < len(visibilityNames) {
		return visibilityNames[v]
	}
	return fmt.Sprintf("visibility(%d)", uint8(v))
}

func parseVisibility(s string) (Visibility, bool) {
	for v, name := range visibilityNames {
		if name == s {
			return Visibility(v), true
		}
	}
	return 0, false
}

// ---- Value types -----------------------------------------------------------

// valueVariant discriminates ValueType and doubles as its binary tag.
type valueVariant uint8

const (
	variantConstant valueVariant = iota
	variantPublic
	variantPrivate
	variantRecord
)

// ValueType is the declared visibility and shape of a produced value: a
// Constant, Public or Private plaintext type, or a record type.
type ValueType struct {
	variant   valueVariant
	plaintext PlaintextType
	record    string
}

// ConstantValue returns the constant value type of t.
func ConstantValue(t PlaintextType) ValueType {
	return ValueType{variant: variantConstant, plaintext: t}
}

// PublicValue returns the public value type of t.
func PublicValue(t PlaintextType) ValueType {
	return ValueType{variant: variantPublic, plaintext: t}
}

// PrivateValue returns the private value type of t.
func PrivateValue(t PlaintextType) ValueType {
	return ValueType{variant: variantPrivate, plaintext: t}
}

// PlaintextValue returns the value type of t with visibility v.
func PlaintextValue(v Visibility, t PlaintextType) ValueType {
	return ValueType{variant: valueVariant(v), plaintext: t}
}

// RecordValue returns the value type of the named record type.
func RecordValue(name string) ValueType {
	return ValueType{variant: variantRecord, record: name}
}

// IsRecord reports whether t is a record value type.
func (t ValueType) IsRecord() bool { return t.variant == variantRecord }

// Plaintext returns the plaintext type of a non-record value type.
func (t ValueType) Plaintext() (PlaintextType, bool) {
	return t.plaintext, t.variant != variantRecord
}

// Visibility returns the visibility of a non-record value type.
func (t ValueType) Visibility() (Visibility, bool) {
	return Visibility(t.variant), t.variant != variantRecord
}

// RecordName returns the record name of a record value type.
func (t ValueType) RecordName() string { return t.record }

// RegisterType returns the type a register holding a value of t has.
func (t ValueType) RegisterType() RegisterType {
	if t.variant == variantRecord {
		return RecordRegister(t.record)
	}
	return PlaintextRegister(t.plaintext)
}

func (t ValueType) String() string {
	if t.variant == variantRecord {
		return t.record + ".record"
	}
	return t.plaintext.String() + "." + Visibility(t.variant).String()
}

// ---- Entry and register types ----------------------------------------------

// EntryType is the declared type of a record entry.
type EntryType struct {
	Mode Visibility
	Type PlaintextType
}

func (t EntryType) String() string { return t.Type.String() + "." + t.Mode.String() }

// RegisterType is the type of a register: a plaintext type or a record type.
type RegisterType struct {
	record    bool
	plaintext PlaintextType
	name      string
}

// PlaintextRegister returns the register type holding plaintexts of type t.
func PlaintextRegister(t PlaintextType) RegisterType {
	return RegisterType{plaintext: t}
}

// RecordRegister returns the register type holding records of the named type.
func RecordRegister(name string) RegisterType {
	return RegisterType{record: true, name: name}
}

// IsRecord reports whether t holds records.
func (t RegisterType) IsRecord() bool { return t.record }

// Plaintext returns the plaintext type of a plaintext register type.
func (t RegisterType) Plaintext() (PlaintextType, bool) { return t.plaintext, !t.record }

// RecordName returns the record name of a record register type.
func (t RegisterType) RecordName() string { return t.name }

func (t RegisterType) String() string {
	if t.record {
		return t.name + ".record"
	}
	return t.plaintext.String()
}

// ---- Text forms ------------------------------------------------------------

// ParsePlaintextType parses a literal type keyword or an interface name.
func ParsePlaintextType(net *params.Network, s string) (PlaintextType, error) {
	if lit, ok := ParseLiteralType(s); ok {
		return LiteralPlaintext(lit), nil
	}
	if err := ValidateIdentifier(net, s); err != nil {
		return PlaintextType{}, err
	}
	return InterfacePlaintext(s), nil
}

// ParseValueType parses <type>.constant, <type>.public, <type>.private or
// <name>.record.
func ParseValueType(net *params.Network, s string) (ValueType, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 {
		return ValueType{}, fmt.Errorf("%w: value type %q has no mode", ErrParse, s)
	}
	base, mode := s[:i], s[i+1:]
	if mode == "record" {
		if err := ValidateIdentifier(net, base); err != nil {
			return ValueType{}, err
		}
		return RecordValue(base), nil
	}
	vis, ok := parseVisibility(mode)
	if !ok {
		return ValueType{}, fmt.Errorf("%w: unknown mode %q in value type %q", ErrParse, mode, s)
	}
	pt, err := ParsePlaintextType(net, base)
	if err != nil {
		return ValueType{}, err
	}
	return PlaintextValue(vis, pt), nil
}
