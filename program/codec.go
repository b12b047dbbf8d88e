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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/params"
)

// All multi-byte integers are little-endian.

// maxPlaintextDepth bounds interface nesting in decoded plaintexts.
const maxPlaintextDepth = 32

// Operand variants.
const (
	operandLiteral  uint8 = 0
	operandRegister uint8 = 1
)

// Register variants.
const (
	registerLocator uint8 = 0
	registerMember  uint8 = 1
)

// Plaintext and plaintext type variants.
const (
	plaintextLiteral   uint8 = 0
	plaintextInterface uint8 = 1
)

// ---- Encoder ---------------------------------------------------------------

// Encoder appends the binary form of program values to a buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder { return new(Encoder) }

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) WriteU8(v uint8) { e.buf = append(e.buf, v) }

func (e *Encoder) WriteU16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) WriteU64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// WriteIdentifier writes a u8 length followed by the identifier bytes.
func (e *Encoder) WriteIdentifier(name string) error {
	if name == "" || len(name) > math.MaxUint8 {
		return fmt.Errorf("%w: identifier of %d bytes", ErrFormat, len(name))
	}
	e.WriteU8(uint8(len(name)))
	e.buf = append(e.buf, name...)
	return nil
}

// WriteLiteral writes a u16 type tag followed by the literal payload.
func (e *Encoder) WriteLiteral(l Literal) error {
	e.WriteU16(uint16(l.typ))
	switch {
	case l.typ == LitAddress:
		e.buf = append(e.buf, l.addr[:]...)
	case l.typ == LitBoolean:
		e.WriteU8(uint8(l.num.Uint64()))
	case l.typ == LitField:
		for i := common.FieldLength - 1; i >= 0; i-- {
			e.buf = append(e.buf, l.field[i])
		}
	case l.typ.IsSigned():
		var word [8]byte
		binary.LittleEndian.PutUint64(word[:], uint64(l.snum))
		e.buf = append(e.buf, word[:l.typ.bits()/8]...)
	case l.typ.IsUnsigned():
		var word [16]byte
		binary.LittleEndian.PutUint64(word[:8], l.num[0])
		binary.LittleEndian.PutUint64(word[8:], l.num[1])
		e.buf = append(e.buf, word[:l.typ.bits()/8]...)
	case l.typ == LitString:
		if len(l.str) > math.MaxUint16 {
			return fmt.Errorf("%w: string of %d bytes", ErrFormat, len(l.str))
		}
		e.WriteU16(uint16(len(l.str)))
		e.buf = append(e.buf, l.str...)
	default:
		return fmt.Errorf("%w: unknown literal type %d", ErrFormat, uint16(l.typ))
	}
	return nil
}

// WriteRegister writes a register variant, its locator and, for member
// registers, the path.
func (e *Encoder) WriteRegister(r Register) error {
	if !r.IsMember() {
		e.WriteU8(registerLocator)
		e.WriteU64(r.Locator)
		return nil
	}
	if len(r.Path) > math.MaxUint8 {
		return fmt.Errorf("%w: register path of %d members", ErrFormat, len(r.Path))
	}
	e.WriteU8(registerMember)
	e.WriteU64(r.Locator)
	e.WriteU8(uint8(len(r.Path)))
	for _, p := range r.Path {
		if err := e.WriteIdentifier(p); err != nil {
			return err
		}
	}
	return nil
}

// WriteOperand writes an operand variant followed by the literal or register.
func (e *Encoder) WriteOperand(op Operand) error {
	switch op := op.(type) {
	case Literal:
		e.WriteU8(operandLiteral)
		return e.WriteLiteral(op)
	case Register:
		e.WriteU8(operandRegister)
		return e.WriteRegister(op)
	}
	return fmt.Errorf("%w: unknown operand %T", ErrFormat, op)
}

// WritePlaintextType writes a plaintext type variant followed by the literal
// tag or interface name.
func (e *Encoder) WritePlaintextType(t PlaintextType) error {
	if lit, ok := t.Literal(); ok {
		e.WriteU8(plaintextLiteral)
		e.WriteU16(uint16(lit))
		return nil
	}
	e.WriteU8(plaintextInterface)
	return e.WriteIdentifier(t.Name())
}

// WriteValueType writes the value type variant followed by the plaintext type
// or record name.
func (e *Encoder) WriteValueType(t ValueType) error {
	e.WriteU8(uint8(t.variant))
	if t.IsRecord() {
		return e.WriteIdentifier(t.record)
	}
	return e.WritePlaintextType(t.plaintext)
}

// WritePlaintext writes a plaintext value.
func (e *Encoder) WritePlaintext(p Plaintext) error {
	switch p := p.(type) {
	case Literal:
		e.WriteU8(plaintextLiteral)
		return e.WriteLiteral(p)
	case *InterfaceValue:
		if len(p.members) > math.MaxUint8 {
			return fmt.Errorf("%w: interface of %d members", ErrFormat, len(p.members))
		}
		e.WriteU8(plaintextInterface)
		e.WriteU8(uint8(len(p.members)))
		for _, m := range p.members {
			if err := e.WriteIdentifier(m.Name); err != nil {
				return err
			}
			if err := e.WritePlaintext(m.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: unknown plaintext %T", ErrFormat, p)
}

// WriteRecord writes the owner, the balance and the entries of a record.
func (e *Encoder) WriteRecord(r *Record) error {
	switch o := r.owner.(type) {
	case PublicOwner:
		e.WriteU8(uint8(Public))
		e.buf = append(e.buf, o.Address[:]...)
	case PrivateOwner:
		e.WriteU8(uint8(Private))
		if err := e.WritePlaintext(o.Value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown owner %T", ErrFormat, r.owner)
	}
	switch b := r.balance.(type) {
	case PublicBalance:
		e.WriteU8(uint8(Public))
		e.WriteU64(b.Value)
	case PrivateBalance:
		e.WriteU8(uint8(Private))
		if err := e.WritePlaintext(b.Value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown balance %T", ErrFormat, r.balance)
	}
	if len(r.entries) > math.MaxUint8 {
		return fmt.Errorf("%w: record of %d entries", ErrFormat, len(r.entries))
	}
	e.WriteU8(uint8(len(r.entries)))
	for _, en := range r.entries {
		if err := e.WriteIdentifier(en.Name); err != nil {
			return err
		}
		e.WriteU8(uint8(en.Entry.Mode))
		if err := e.WritePlaintext(en.Entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// EncodeRecord returns the binary form of a record.
func EncodeRecord(r *Record) ([]byte, error) {
	e := NewEncoder()
	if err := e.WriteRecord(r); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodePlaintext returns the binary form of a plaintext.
func EncodePlaintext(p Plaintext) ([]byte, error) {
	e := NewEncoder()
	if err := e.WritePlaintext(p); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// ---- Decoder ---------------------------------------------------------------

// Decoder reads program values from their binary form. Identifiers are
// validated against the network parameters.
type Decoder struct {
	net *params.Network
	b   []byte
	off int
}

// NewDecoder returns a decoder over b.
func NewDecoder(net *params.Network, b []byte) *Decoder {
	return &Decoder{net: net, b: b}
}

// Finish fails if any input is left unread.
func (d *Decoder) Finish() error {
	if d.off != len(d.b) {
		return fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(d.b)-d.off)
	}
	return nil
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.b)-d.off < n {
		return nil, fmt.Errorf("%w: unexpected end of input at offset %d", ErrFormat, d.off)
	}
	b := d.b[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadU16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadU64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadIdentifier reads a length-prefixed identifier.
func (d *Decoder) ReadIdentifier() (string, error) {
	n, err := d.ReadU8()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	name := string(b)
	if err := ValidateIdentifier(d.net, name); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return name, nil
}

// ReadLiteral reads a tagged literal.
func (d *Decoder) ReadLiteral() (Literal, error) {
	tag, err := d.ReadU16()
	if err != nil {
		return Literal{}, err
	}
	typ := LiteralType(tag)
	switch {
	case typ == LitAddress:
		b, err := d.take(common.AddressLength)
		if err != nil {
			return Literal{}, err
		}
		return NewAddress(common.BytesToAddress(b)), nil
	case typ == LitBoolean:
		v, err := d.ReadU8()
		if err != nil {
			return Literal{}, err
		}
		if v > 1 {
			return Literal{}, fmt.Errorf("%w: boolean byte %d", ErrFormat, v)
		}
		return NewBoolean(v == 1), nil
	case typ == LitField:
		b, err := d.take(common.FieldLength)
		if err != nil {
			return Literal{}, err
		}
		var f common.Field
		for i := range f {
			f[i] = b[common.FieldLength-1-i]
		}
		return NewField(f), nil
	case typ.IsSigned():
		n := int(typ.bits() / 8)
		b, err := d.take(n)
		if err != nil {
			return Literal{}, err
		}
		var word [8]byte
		copy(word[:], b)
		// Sign-extend from the encoded width.
		shift := 64 - typ.bits()
		v := int64(binary.LittleEndian.Uint64(word[:])<<shift) >> shift
		return NewSigned(typ, v)
	case typ.IsUnsigned():
		n := int(typ.bits() / 8)
		b, err := d.take(n)
		if err != nil {
			return Literal{}, err
		}
		var word [16]byte
		copy(word[:], b)
		v := new(uint256.Int)
		v[0] = binary.LittleEndian.Uint64(word[:8])
		v[1] = binary.LittleEndian.Uint64(word[8:])
		return NewUnsigned(typ, v)
	case typ == LitString:
		n, err := d.ReadU16()
		if err != nil {
			return Literal{}, err
		}
		b, err := d.take(int(n))
		if err != nil {
			return Literal{}, err
		}
		return NewString(string(b)), nil
	}
	return Literal{}, fmt.Errorf("%w: unknown literal type %d", ErrFormat, tag)
}

// ReadRegister reads a register.
func (d *Decoder) ReadRegister() (Register, error) {
	variant, err := d.ReadU8()
	if err != nil {
		return Register{}, err
	}
	loc, err := d.ReadU64()
	if err != nil {
		return Register{}, err
	}
	switch variant {
	case registerLocator:
		return NewRegister(loc), nil
	case registerMember:
		n, err := d.ReadU8()
		if err != nil {
			return Register{}, err
		}
		if n == 0 || int(n) > d.net.MaxInterfaceMembers {
			return Register{}, fmt.Errorf("%w: register path of %d members", ErrFormat, n)
		}
		path := make([]string, n)
		for i := range path {
			if path[i], err = d.ReadIdentifier(); err != nil {
				return Register{}, err
			}
		}
		return Register{Locator: loc, Path: path}, nil
	}
	return Register{}, fmt.Errorf("%w: unknown register variant %d", ErrFormat, variant)
}

// ReadOperand reads a literal or register operand.
func (d *Decoder) ReadOperand() (Operand, error) {
	variant, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	switch variant {
	case operandLiteral:
		return d.ReadLiteral()
	case operandRegister:
		return d.ReadRegister()
	}
	return nil, fmt.Errorf("%w: unknown operand variant %d", ErrFormat, variant)
}

// ReadPlaintextType reads a literal or interface plaintext type.
func (d *Decoder) ReadPlaintextType() (PlaintextType, error) {
	variant, err := d.ReadU8()
	if err != nil {
		return PlaintextType{}, err
	}
	switch variant {
	case plaintextLiteral:
		tag, err := d.ReadU16()
		if err != nil {
			return PlaintextType{}, err
		}
		if !LiteralType(tag).Valid() {
			return PlaintextType{}, fmt.Errorf("%w: unknown literal type %d", ErrFormat, tag)
		}
		return LiteralPlaintext(LiteralType(tag)), nil
	case plaintextInterface:
		name, err := d.ReadIdentifier()
		if err != nil {
			return PlaintextType{}, err
		}
		return InterfacePlaintext(name), nil
	}
	return PlaintextType{}, fmt.Errorf("%w: unknown plaintext type variant %d", ErrFormat, variant)
}

// ReadValueType reads a value type.
func (d *Decoder) ReadValueType() (ValueType, error) {
	variant, err := d.ReadU8()
	if err != nil {
		return ValueType{}, err
	}
	switch valueVariant(variant) {
	case variantConstant, variantPublic, variantPrivate:
		pt, err := d.ReadPlaintextType()
		if err != nil {
			return ValueType{}, err
		}
		return PlaintextValue(Visibility(variant), pt), nil
	case variantRecord:
		name, err := d.ReadIdentifier()
		if err != nil {
			return ValueType{}, err
		}
		return RecordValue(name), nil
	}
	return ValueType{}, fmt.Errorf("%w: unknown value type variant %d", ErrFormat, variant)
}

// ReadPlaintext reads a plaintext value.
func (d *Decoder) ReadPlaintext() (Plaintext, error) {
	return d.readPlaintext(0)
}

func (d *Decoder) readPlaintext(depth int) (Plaintext, error) {
	if depth > maxPlaintextDepth {
		return nil, fmt.Errorf("%w: plaintext nested deeper than %d", ErrFormat, maxPlaintextDepth)
	}
	variant, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	switch variant {
	case plaintextLiteral:
		return d.ReadLiteral()
	case plaintextInterface:
		n, err := d.ReadU8()
		if err != nil {
			return nil, err
		}
		if n == 0 || int(n) > d.net.MaxInterfaceMembers {
			return nil, fmt.Errorf("%w: interface of %d members", ErrFormat, n)
		}
		members := make([]Member, n)
		for i := range members {
			if members[i].Name, err = d.ReadIdentifier(); err != nil {
				return nil, err
			}
			if members[i].Value, err = d.readPlaintext(depth + 1); err != nil {
				return nil, err
			}
		}
		return NewInterfaceValue(members)
	}
	return nil, fmt.Errorf("%w: unknown plaintext variant %d", ErrFormat, variant)
}

// ReadRecord reads a record.
func (d *Decoder) ReadRecord() (*Record, error) {
	var (
		owner   Owner
		balance Balance
	)
	mode, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	switch Visibility(mode) {
	case Public:
		b, err := d.take(common.AddressLength)
		if err != nil {
			return nil, err
		}
		owner = PublicOwner{Address: common.BytesToAddress(b)}
	case Private:
		p, err := d.ReadPlaintext()
		if err != nil {
			return nil, err
		}
		owner = PrivateOwner{Value: p}
	default:
		return nil, fmt.Errorf("%w: owner mode %d", ErrFormat, mode)
	}
	if mode, err = d.ReadU8(); err != nil {
		return nil, err
	}
	switch Visibility(mode) {
	case Public:
		v, err := d.ReadU64()
		if err != nil {
			return nil, err
		}
		balance = PublicBalance{Value: v}
	case Private:
		p, err := d.ReadPlaintext()
		if err != nil {
			return nil, err
		}
		balance = PrivateBalance{Value: p}
	default:
		return nil, fmt.Errorf("%w: balance mode %d", ErrFormat, mode)
	}
	n, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	if int(n) > d.net.MaxRecordEntries {
		return nil, fmt.Errorf("%w: record of %d entries", ErrFormat, n)
	}
	entries := make([]NamedEntry, n)
	for i := range entries {
		if entries[i].Name, err = d.ReadIdentifier(); err != nil {
			return nil, err
		}
		if mode, err = d.ReadU8(); err != nil {
			return nil, err
		}
		if Visibility(mode) > Private {
			return nil, fmt.Errorf("%w: entry mode %d", ErrFormat, mode)
		}
		entries[i].Entry.Mode = Visibility(mode)
		if entries[i].Entry.Value, err = d.ReadPlaintext(); err != nil {
			return nil, err
		}
	}
	rec, err := NewRecord(owner, balance, entries)
	if err != nil {
		return nil, err
	}
	if err := rec.CheckBalance(d.net); err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeRecord decodes a record and fails on trailing bytes.
func DecodeRecord(net *params.Network, b []byte) (*Record, error) {
	d := NewDecoder(net, b)
	r, err := d.ReadRecord()
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodePlaintext decodes a plaintext and fails on trailing bytes.
func DecodePlaintext(net *params.Network, b []byte) (Plaintext, error) {
	d := NewDecoder(net, b)
	p, err := d.ReadPlaintext()
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return p, nil
}
