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

// Package program defines the static side of the virtual machine: literal and
// aggregate values, their types, registers and operands, and the per-program
// registry of interface and record definitions that instructions are checked
// against.
//
// A Program is read-only once built and may be shared between concurrent
// executions.
package program

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/go-shielded/params"
)

// MemberType declares one member of an interface.
type MemberType struct {
	Name string
	Type PlaintextType
}

// Interface is a named aggregate of plaintext members.
type Interface struct {
	Name    string
	Members []MemberType
}

// EntryDecl declares one entry of a record type.
type EntryDecl struct {
	Name string
	Type EntryType
}

// RecordType declares the visibility of a record's owner and balance and the
// ordered list of its entries.
type RecordType struct {
	Name    string
	Owner   Visibility
	Balance Visibility
	Entries []EntryDecl
}

// Program is the type registry of one program.
type Program struct {
	net        *params.Network
	id         string
	interfaces []*Interface
	records    []*RecordType
	names      map[string]struct{}
}

// New returns an empty program. The id has the form <name>.aleo.
func New(net *params.Network, id string) (*Program, error) {
	name := strings.TrimSuffix(id, ".aleo")
	if name == id {
		return nil, fmt.Errorf("%w: program id %q must end in .aleo", ErrParse, id)
	}
	if err := ValidateIdentifier(net, name); err != nil {
		return nil, err
	}
	return &Program{net: net, id: id, names: make(map[string]struct{})}, nil
}

// ID returns the program id.
func (p *Program) ID() string { return p.id }

// Network returns the parameters the program was built under.
func (p *Program) Network() *params.Network { return p.net }

// Interfaces returns the interfaces in definition order.
func (p *Program) Interfaces() []*Interface { return append([]*Interface(nil), p.interfaces...) }

// Records returns the record types in definition order.
func (p *Program) Records() []*RecordType { return append([]*RecordType(nil), p.records...) }

// GetInterface returns the named interface definition.
func (p *Program) GetInterface(name string) (*Interface, error) {
	for _, iface := range p.interfaces {
		if iface.Name == name {
			return iface, nil
		}
	}
	return nil, fmt.Errorf("%w: interface %q in %s", ErrLookup, name, p.id)
}

// GetRecord returns the named record type.
func (p *Program) GetRecord(name string) (*RecordType, error) {
	for _, rec := range p.records {
		if rec.Name == name {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%w: record %q in %s", ErrLookup, name, p.id)
}

// AddInterface registers an interface. Member interfaces must already be
// defined.
func (p *Program) AddInterface(iface *Interface) error {
	if err := p.checkName(iface.Name); err != nil {
		return err
	}
	if len(iface.Members) == 0 {
		return fmt.Errorf("%w: interface %q has no members", ErrParse, iface.Name)
	}
	if len(iface.Members) > p.net.MaxInterfaceMembers {
		return fmt.Errorf("%w: interface %q has %d members, limit %d", ErrParse, iface.Name, len(iface.Members), p.net.MaxInterfaceMembers)
	}
	seen := mapset.NewSet()
	for _, m := range iface.Members {
		if err := ValidateIdentifier(p.net, m.Name); err != nil {
			return err
		}
		if !seen.Add(m.Name) {
			return fmt.Errorf("%w: duplicate member %q in interface %q", ErrParse, m.Name, iface.Name)
		}
		if err := p.checkPlaintextType(iface.Name, m.Type); err != nil {
			return err
		}
	}
	p.interfaces = append(p.interfaces, iface)
	p.names[iface.Name] = struct{}{}
	return nil
}

// AddRecord registers a record type. Entry interfaces must already be defined.
func (p *Program) AddRecord(rec *RecordType) error {
	if err := p.checkName(rec.Name); err != nil {
		return err
	}
	if rec.Owner != Public && rec.Owner != Private {
		return fmt.Errorf("%w: record %q owner must be public or private", ErrParse, rec.Name)
	}
	if rec.Balance != Public && rec.Balance != Private {
		return fmt.Errorf("%w: record %q balance must be public or private", ErrParse, rec.Name)
	}
	if len(rec.Entries) > p.net.MaxRecordEntries {
		return fmt.Errorf("%w: record %q has %d entries, limit %d", ErrParse, rec.Name, len(rec.Entries), p.net.MaxRecordEntries)
	}
	seen := mapset.NewSet(OwnerName, BalanceName)
	for _, e := range rec.Entries {
		if err := ValidateIdentifier(p.net, e.Name); err != nil {
			return err
		}
		if !seen.Add(e.Name) {
			return fmt.Errorf("%w: duplicate or reserved entry %q in record %q", ErrParse, e.Name, rec.Name)
		}
		if e.Type.Mode > Private {
			return fmt.Errorf("%w: entry %q in record %q has mode %s", ErrParse, e.Name, rec.Name, e.Type.Mode)
		}
		if err := p.checkPlaintextType(rec.Name, e.Type.Type); err != nil {
			return err
		}
	}
	p.records = append(p.records, rec)
	p.names[rec.Name] = struct{}{}
	return nil
}

func (p *Program) checkName(name string) error {
	if err := ValidateIdentifier(p.net, name); err != nil {
		return err
	}
	if _, ok := p.names[name]; ok {
		return fmt.Errorf("%w: %q is already defined in %s", ErrParse, name, p.id)
	}
	return nil
}

func (p *Program) checkPlaintextType(owner string, t PlaintextType) error {
	if lit, ok := t.Literal(); ok {
		if !lit.Valid() {
			return fmt.Errorf("%w: unknown literal type in %q", ErrParse, owner)
		}
		return nil
	}
	if t.Name() == owner {
		return fmt.Errorf("%w: %q refers to itself", ErrParse, owner)
	}
	if _, err := p.GetInterface(t.Name()); err != nil {
		return err
	}
	return nil
}

// String returns the program in its canonical text form.
func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "program %s;\n", p.id)
	for _, iface := range p.interfaces {
		fmt.Fprintf(&b, "\ninterface %s:\n", iface.Name)
		for _, m := range iface.Members {
			fmt.Fprintf(&b, "    %s as %s;\n", m.Name, m.Type)
		}
	}
	for _, rec := range p.records {
		fmt.Fprintf(&b, "\nrecord %s:\n", rec.Name)
		fmt.Fprintf(&b, "    %s as address.%s;\n", OwnerName, rec.Owner)
		fmt.Fprintf(&b, "    %s as u64.%s;\n", BalanceName, rec.Balance)
		for _, e := range rec.Entries {
			fmt.Fprintf(&b, "    %s as %s;\n", e.Name, e.Type)
		}
	}
	return b.String()
}
