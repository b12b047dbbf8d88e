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

package vm

import (
	"fmt"
	"strings"

	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
)

// Cast builds an interface or record value from its operands and stores it in
// the destination register:
//
//	cast r0 r1 into r2 as point.private
//	cast r0 100u64 r1 into r3 as token.record
//
// A record cast takes the owner address and the u64 balance first, followed by
// one operand per declared entry.
type Cast struct {
	operands []program.Operand
	dest     program.Register
	typ      program.ValueType
}

// NewCast returns a cast of operands into dest as typ. Operand bounds are
// checked when the instruction is parsed, encoded or decoded.
func NewCast(operands []program.Operand, dest program.Register, typ program.ValueType) *Cast {
	return &Cast{
		operands: append([]program.Operand(nil), operands...),
		dest:     dest,
		typ:      typ,
	}
}

// Opcode returns OpCast.
func (c *Cast) Opcode() Opcode { return OpCast }

// Operands returns a copy of the operands.
func (c *Cast) Operands() []program.Operand {
	return append([]program.Operand(nil), c.operands...)
}

// Destination returns the destination register.
func (c *Cast) Destination() program.Register { return c.dest }

// ValueType returns the type the operands are cast into.
func (c *Cast) ValueType() program.ValueType { return c.typ }

// Evaluate loads the operands, builds the target value and stores it. Nothing
// is written when any check fails.
func (c *Cast) Evaluate(s *Stack) error {
	inputs := make([]program.StackValue, len(c.operands))
	for i, op := range c.operands {
		v, err := s.Load(op)
		if err != nil {
			return fmt.Errorf("cast operand %d: %w", i, err)
		}
		inputs[i] = v
	}
	var (
		value program.StackValue
		err   error
	)
	if c.typ.IsRecord() {
		value, err = c.castRecord(s, inputs)
	} else {
		value, err = c.castInterface(s, inputs)
	}
	if err != nil {
		return err
	}
	return s.Store(c.dest, value)
}

func (c *Cast) castInterface(s *Stack, inputs []program.StackValue) (program.StackValue, error) {
	pt, _ := c.typ.Plaintext()
	if pt.IsLiteral() {
		return nil, fmt.Errorf("%w: cannot cast into literal type %s", program.ErrUnsupportedCast, pt)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: cast into interface %s needs at least one input", program.ErrArity, pt)
	}
	iface, err := s.GetInterface(pt.Name())
	if err != nil {
		return nil, err
	}
	if len(inputs) != len(iface.Members) {
		return nil, fmt.Errorf("%w: interface %s has %d members, got %d inputs", program.ErrArity, iface.Name, len(iface.Members), len(inputs))
	}
	members := make([]program.Member, len(inputs))
	for i, decl := range iface.Members {
		p, err := plaintextInput(s, inputs[i], decl.Type)
		if err != nil {
			return nil, fmt.Errorf("interface %s member %s: %w", iface.Name, decl.Name, err)
		}
		members[i] = program.Member{Name: decl.Name, Value: p}
	}
	return program.NewInterfaceValue(members)
}

func (c *Cast) castRecord(s *Stack, inputs []program.StackValue) (program.StackValue, error) {
	name := c.typ.RecordName()
	if len(inputs) < 2 {
		return nil, fmt.Errorf("%w: cast into record %s needs at least two inputs, got %d", program.ErrArity, name, len(inputs))
	}
	rt, err := s.GetRecord(name)
	if err != nil {
		return nil, err
	}
	var owner program.Owner
	lit, ok := inputs[0].(program.Literal)
	addr, isAddr := lit.Address()
	if !ok || !isAddr {
		return nil, fmt.Errorf("%w: invalid record owner %s", program.ErrInvalidValue, inputs[0])
	}
	if rt.Owner == program.Public {
		owner = program.PublicOwner{Address: addr}
	} else {
		owner = program.PrivateOwner{Value: lit}
	}

	var balance program.Balance
	lit, ok = inputs[1].(program.Literal)
	amount, isU64 := lit.U64()
	if !ok || !isU64 {
		return nil, fmt.Errorf("%w: invalid record balance %s", program.ErrInvalidValue, inputs[1])
	}
	if !s.Network().BalanceFits(amount) {
		return nil, fmt.Errorf("%w: balance %d exceeds %d bits", program.ErrInvalidValue, amount, s.Network().BalanceBits)
	}
	if rt.Balance == program.Public {
		balance = program.PublicBalance{Value: amount}
	} else {
		balance = program.PrivateBalance{Value: lit}
	}

	rest := inputs[2:]
	if len(rest) != len(rt.Entries) {
		return nil, fmt.Errorf("%w: record %s has %d entries, got %d inputs", program.ErrArity, name, len(rt.Entries), len(rest))
	}
	entries := make([]program.NamedEntry, len(rest))
	for i, decl := range rt.Entries {
		p, err := plaintextInput(s, rest[i], decl.Type.Type)
		if err != nil {
			return nil, fmt.Errorf("record %s entry %s: %w", name, decl.Name, err)
		}
		entries[i] = program.NamedEntry{
			Name:  decl.Name,
			Entry: program.Entry{Mode: decl.Type.Mode, Value: p},
		}
	}
	return program.NewRecord(owner, balance, entries)
}

// plaintextInput checks that an input is a plaintext of type t.
func plaintextInput(s *Stack, v program.StackValue, t program.PlaintextType) (program.Plaintext, error) {
	p, ok := v.(program.Plaintext)
	if !ok {
		return nil, fmt.Errorf("%w: a record cannot be cast into %s", program.ErrIllegalCast, t)
	}
	if err := s.MatchesRegister(p, program.PlaintextRegister(t)); err != nil {
		return nil, err
	}
	return p, nil
}

// OutputType infers the register type the cast produces from the register
// types of its inputs, without evaluating it. For record casts the first two
// input types must be address and u64.
func (c *Cast) OutputType(prog *program.Program, inputTypes []program.RegisterType) (program.RegisterType, error) {
	var none program.RegisterType
	if len(inputTypes) != len(c.operands) {
		return none, fmt.Errorf("%w: %s expects %d operands, found %d input types", program.ErrArity, OpCast, len(c.operands), len(inputTypes))
	}
	if c.typ.IsRecord() {
		name := c.typ.RecordName()
		if len(inputTypes) < 2 {
			return none, fmt.Errorf("%w: cast into record %s needs at least two inputs, got %d", program.ErrArity, name, len(inputTypes))
		}
		rt, err := prog.GetRecord(name)
		if err != nil {
			return none, err
		}
		if err := expectPlaintextType(inputTypes[0], program.LiteralPlaintext(program.LitAddress)); err != nil {
			return none, fmt.Errorf("record %s owner: %w", name, err)
		}
		if err := expectPlaintextType(inputTypes[1], program.LiteralPlaintext(program.LitU64)); err != nil {
			return none, fmt.Errorf("record %s balance: %w", name, err)
		}
		rest := inputTypes[2:]
		if len(rest) != len(rt.Entries) {
			return none, fmt.Errorf("%w: record %s has %d entries, got %d input types", program.ErrArity, name, len(rt.Entries), len(rest))
		}
		for i, decl := range rt.Entries {
			if err := expectPlaintextType(rest[i], decl.Type.Type); err != nil {
				return none, fmt.Errorf("record %s entry %s: %w", name, decl.Name, err)
			}
		}
		return c.typ.RegisterType(), nil
	}

	pt, _ := c.typ.Plaintext()
	if pt.IsLiteral() {
		return none, fmt.Errorf("%w: cannot cast into literal type %s", program.ErrUnsupportedCast, pt)
	}
	iface, err := prog.GetInterface(pt.Name())
	if err != nil {
		return none, err
	}
	if len(inputTypes) != len(iface.Members) {
		return none, fmt.Errorf("%w: interface %s has %d members, got %d input types", program.ErrArity, iface.Name, len(iface.Members), len(inputTypes))
	}
	for i, decl := range iface.Members {
		if err := expectPlaintextType(inputTypes[i], decl.Type); err != nil {
			return none, fmt.Errorf("interface %s member %s: %w", iface.Name, decl.Name, err)
		}
	}
	return c.typ.RegisterType(), nil
}

func expectPlaintextType(got program.RegisterType, want program.PlaintextType) error {
	pt, ok := got.Plaintext()
	if !ok {
		return fmt.Errorf("%w: expected %s, found record %s", program.ErrTypeMismatch, want, got.RecordName())
	}
	if pt != want {
		return fmt.Errorf("%w: expected %s, found %s", program.ErrTypeMismatch, want, pt)
	}
	return nil
}

// String returns the instruction text. Only casts within the operand bounds
// of their network parse back from it.
func (c *Cast) String() string {
	var b strings.Builder
	b.WriteString(OpCast.String())
	for _, op := range c.operands {
		b.WriteByte(' ')
		b.WriteString(op.String())
	}
	fmt.Fprintf(&b, " into %s as %s", c.dest, c.typ)
	return b.String()
}

// ParseCast parses `cast <operand>+ into <register> as <value_type>`.
func ParseCast(net *params.Network, text string) (*Cast, error) {
	fields, err := program.Fields(text)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 || fields[0] != OpCast.String() {
		return nil, fmt.Errorf("%w: expected %q", program.ErrParse, OpCast.String())
	}
	return parseCastBody(net, fields[1:])
}

func parseCastBody(net *params.Network, fields []string) (*Cast, error) {
	into := -1
	for i, f := range fields {
		if f == "into" {
			into = i
			break
		}
	}
	if into < 0 {
		return nil, fmt.Errorf("%w: cast is missing \"into\"", program.ErrParse)
	}
	if into == 0 {
		return nil, fmt.Errorf("%w: cast needs at least one operand", program.ErrParse)
	}
	if into > net.MaxOperands {
		return nil, fmt.Errorf("%w: cast has %d operands, limit %d", program.ErrParse, into, net.MaxOperands)
	}
	tail := fields[into+1:]
	if len(tail) != 3 || tail[1] != "as" {
		return nil, fmt.Errorf("%w: expected \"into <register> as <type>\"", program.ErrParse)
	}
	var err error
	operands := make([]program.Operand, into)
	for i, f := range fields[:into] {
		if operands[i], err = program.ParseOperand(net, f); err != nil {
			return nil, err
		}
	}
	dest, err := program.ParseRegister(net, tail[0])
	if err != nil {
		return nil, err
	}
	if dest.IsMember() {
		return nil, fmt.Errorf("%w: cast destination %s is a member", program.ErrParse, dest)
	}
	typ, err := program.ParseValueType(net, tail[2])
	if err != nil {
		return nil, err
	}
	return NewCast(operands, dest, typ), nil
}

// checkOperandCount enforces the operand bounds of the binary form.
func checkOperandCount(net *params.Network, n int) error {
	if n < 1 || n > net.MaxOperands {
		return fmt.Errorf("%w: cast has %d operands, want 1 to %d", program.ErrFormat, n, net.MaxOperands)
	}
	return nil
}

// writeBody appends the operand count, the operands, the destination and the
// value type.
func (c *Cast) writeBody(net *params.Network, e *program.Encoder) error {
	if err := checkOperandCount(net, len(c.operands)); err != nil {
		return err
	}
	e.WriteU8(uint8(len(c.operands)))
	for _, op := range c.operands {
		if err := e.WriteOperand(op); err != nil {
			return err
		}
	}
	if err := e.WriteRegister(c.dest); err != nil {
		return err
	}
	return e.WriteValueType(c.typ)
}

// Encode returns the binary form of the cast body.
func (c *Cast) Encode(net *params.Network) ([]byte, error) {
	e := program.NewEncoder()
	if err := c.writeBody(net, e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func readCastBody(d *program.Decoder, net *params.Network) (*Cast, error) {
	n, err := d.ReadU8()
	if err != nil {
		return nil, err
	}
	if err := checkOperandCount(net, int(n)); err != nil {
		return nil, err
	}
	operands := make([]program.Operand, n)
	for i := range operands {
		if operands[i], err = d.ReadOperand(); err != nil {
			return nil, err
		}
	}
	dest, err := d.ReadRegister()
	if err != nil {
		return nil, err
	}
	typ, err := d.ReadValueType()
	if err != nil {
		return nil, err
	}
	return NewCast(operands, dest, typ), nil
}

// DecodeCast decodes a cast body produced by Encode.
func DecodeCast(net *params.Network, b []byte) (*Cast, error) {
	d := program.NewDecoder(net, b)
	c, err := readCastBody(d, net)
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return c, nil
}
