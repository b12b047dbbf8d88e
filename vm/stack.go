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
	"errors"
	"fmt"

	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
)

// ---- Error sentinels -------------------------------------------------------

// ErrUnresolved is returned when an operand reads a register that holds no
// value yet.
var ErrUnresolved = errors.New("vm: register not set")

// ErrRegisterOverwrite is returned when a register is written twice in one
// execution.
var ErrRegisterOverwrite = errors.New("vm: register already set")

// ErrMemberStore is returned when a store targets a member path instead of a
// whole register.
var ErrMemberStore = errors.New("vm: cannot store into a register member")

// ---- Stack -----------------------------------------------------------------

// Stack holds the registers of one execution. It is owned by that execution
// and is not safe for concurrent use; the program it checks against is
// read-only and may be shared.
type Stack struct {
	prog   *program.Program
	types  map[uint64]program.RegisterType
	values map[uint64]program.StackValue
}

// NewStack returns an empty register stack for prog.
func NewStack(prog *program.Program) *Stack {
	return &Stack{
		prog:   prog,
		types:  make(map[uint64]program.RegisterType),
		values: make(map[uint64]program.StackValue),
	}
}

// Program returns the type registry the stack checks against.
func (s *Stack) Program() *program.Program { return s.prog }

// Network returns the parameters of the stack's program.
func (s *Stack) Network() *params.Network { return s.prog.Network() }

// GetInterface returns the named interface of the stack's program.
func (s *Stack) GetInterface(name string) (*program.Interface, error) {
	return s.prog.GetInterface(name)
}

// GetRecord returns the named record type of the stack's program.
func (s *Stack) GetRecord(name string) (*program.RecordType, error) {
	return s.prog.GetRecord(name)
}

// DeclareRegister fixes the type of a register. Values stored into it later
// must match the type.
func (s *Stack) DeclareRegister(locator uint64, t program.RegisterType) error {
	if prev, ok := s.types[locator]; ok && prev != t {
		return fmt.Errorf("%w: r%d declared as %s, redeclared as %s", program.ErrTypeMismatch, locator, prev, t)
	}
	s.types[locator] = t
	return nil
}

// Load resolves an operand. Literals resolve to themselves; registers resolve
// to their value, following any member path into interfaces and records.
func (s *Stack) Load(op program.Operand) (program.StackValue, error) {
	switch op := op.(type) {
	case program.Literal:
		return op, nil
	case program.Register:
		value, ok := s.values[op.Locator]
		if !ok {
			return nil, fmt.Errorf("%w: r%d", ErrUnresolved, op.Locator)
		}
		for _, name := range op.Path {
			next, err := member(value, name)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", op, err)
			}
			value = next
		}
		return value, nil
	}
	return nil, fmt.Errorf("vm: unknown operand %T", op)
}

// member returns the named member of an interface or record value.
func member(v program.StackValue, name string) (program.StackValue, error) {
	switch v := v.(type) {
	case *program.InterfaceValue:
		if m, ok := v.Get(name); ok {
			return m, nil
		}
	case *program.Record:
		switch name {
		case program.OwnerName:
			switch o := v.Owner().(type) {
			case program.PublicOwner:
				return program.NewAddress(o.Address), nil
			case program.PrivateOwner:
				return o.Value, nil
			}
		case program.BalanceName:
			switch b := v.Balance().(type) {
			case program.PublicBalance:
				return program.NewU64(b.Value), nil
			case program.PrivateBalance:
				return b.Value, nil
			}
		default:
			if e, ok := v.Entry(name); ok {
				return e.Value, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: member %q", program.ErrLookup, name)
}

// Store writes value into a register. Each register is written at most once
// and a declared register only accepts values of its type.
func (s *Stack) Store(r program.Register, value program.StackValue) error {
	if r.IsMember() {
		return fmt.Errorf("%w: %s", ErrMemberStore, r)
	}
	if _, ok := s.values[r.Locator]; ok {
		return fmt.Errorf("%w: %s", ErrRegisterOverwrite, r)
	}
	if t, ok := s.types[r.Locator]; ok {
		if err := s.MatchesRegister(value, t); err != nil {
			return fmt.Errorf("store %s: %w", r, err)
		}
	}
	s.values[r.Locator] = value
	return nil
}

// MatchesRegister checks that value has register type t. Interface and
// record values are checked member by member against the program's
// definitions, in declaration order.
func (s *Stack) MatchesRegister(value program.StackValue, t program.RegisterType) error {
	if t.IsRecord() {
		rec, ok := value.(*program.Record)
		if !ok {
			return fmt.Errorf("%w: expected record %s, found %s", program.ErrTypeMismatch, t.RecordName(), value)
		}
		return s.matchesRecord(rec, t.RecordName())
	}
	pt, _ := t.Plaintext()
	p, ok := value.(program.Plaintext)
	if !ok {
		return fmt.Errorf("%w: expected %s, found a record", program.ErrTypeMismatch, pt)
	}
	return s.matchesPlaintext(p, pt)
}

func (s *Stack) matchesPlaintext(p program.Plaintext, t program.PlaintextType) error {
	switch p := p.(type) {
	case program.Literal:
		if lit, ok := t.Literal(); !ok || lit != p.Type() {
			return fmt.Errorf("%w: expected %s, found %s", program.ErrTypeMismatch, t, p.Type())
		}
		return nil
	case *program.InterfaceValue:
		if !t.IsInterface() {
			return fmt.Errorf("%w: expected %s, found an interface", program.ErrTypeMismatch, t)
		}
		iface, err := s.prog.GetInterface(t.Name())
		if err != nil {
			return err
		}
		members := p.Members()
		if len(members) != len(iface.Members) {
			return fmt.Errorf("%w: interface %s has %d members, found %d", program.ErrTypeMismatch, t, len(iface.Members), len(members))
		}
		for i, decl := range iface.Members {
			if members[i].Name != decl.Name {
				return fmt.Errorf("%w: interface %s member %d is %q, found %q", program.ErrTypeMismatch, t, i, decl.Name, members[i].Name)
			}
			if err := s.matchesPlaintext(members[i].Value, decl.Type); err != nil {
				return fmt.Errorf("%s.%s: %w", t, decl.Name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: unknown plaintext %T", program.ErrTypeMismatch, p)
}

func (s *Stack) matchesRecord(rec *program.Record, name string) error {
	rt, err := s.prog.GetRecord(name)
	if err != nil {
		return err
	}
	if rec.Owner().Visibility() != rt.Owner {
		return fmt.Errorf("%w: record %s owner must be %s", program.ErrTypeMismatch, name, rt.Owner)
	}
	if rec.Balance().Visibility() != rt.Balance {
		return fmt.Errorf("%w: record %s balance must be %s", program.ErrTypeMismatch, name, rt.Balance)
	}
	entries := rec.Entries()
	if len(entries) != len(rt.Entries) {
		return fmt.Errorf("%w: record %s has %d entries, found %d", program.ErrTypeMismatch, name, len(rt.Entries), len(entries))
	}
	for i, decl := range rt.Entries {
		e := entries[i]
		if e.Name != decl.Name || e.Entry.Mode != decl.Type.Mode {
			return fmt.Errorf("%w: record %s entry %d must be %s as %s, found %s as %s",
				program.ErrTypeMismatch, name, i, decl.Name, decl.Type, e.Name, e.Entry.Mode)
		}
		if err := s.matchesPlaintext(e.Entry.Value, decl.Type.Type); err != nil {
			return fmt.Errorf("%s.%s: %w", name, decl.Name, err)
		}
	}
	return nil
}
