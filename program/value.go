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

	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/params"
)

// StackValue is any value a register can hold: a Plaintext or a *Record.
type StackValue interface {
	stackValue()
	String() string
}

// Plaintext is an unencrypted value: a Literal or an *InterfaceValue. A
// plaintext never contains a record.
type Plaintext interface {
	StackValue
	plaintext()
}

// ---- Interface values ------------------------------------------------------

// Member is one named member of an interface value.
type Member struct {
	Name  string
	Value Plaintext
}

// InterfaceValue is an ordered list of named plaintext members.
type InterfaceValue struct {
	members []Member
}

// NewInterfaceValue builds an interface value, keeping member order. Member
// names must be unique and values non-nil.
func NewInterfaceValue(members []Member) (*InterfaceValue, error) {
	seen := mapset.NewSet()
	for _, m := range members {
		if m.Value == nil {
			return nil, fmt.Errorf("%w: member %q has no value", ErrInvalidValue, m.Name)
		}
		if !seen.Add(m.Name) {
			return nil, fmt.Errorf("%w: duplicate member %q", ErrInvalidValue, m.Name)
		}
	}
	return &InterfaceValue{members: append([]Member(nil), members...)}, nil
}

func (*InterfaceValue) stackValue() {}
func (*InterfaceValue) plaintext()  {}

// Members returns a copy of the members in declaration order.
func (v *InterfaceValue) Members() []Member {
	return append([]Member(nil), v.members...)
}

// Len returns the number of members.
func (v *InterfaceValue) Len() int { return len(v.members) }

// Get returns the named member.
func (v *InterfaceValue) Get(name string) (Plaintext, bool) {
	for _, m := range v.members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

func (v *InterfaceValue) String() string {
	parts := make([]string, len(v.members))
	for i, m := range v.members {
		parts[i] = m.Name + ": " + m.Value.String()
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// ---- Owner -----------------------------------------------------------------

// Owner is the owner of a record, either in the clear or as a private
// plaintext.
type Owner interface {
	owner()
	Visibility() Visibility
	String() string
}

// PublicOwner is an owner visible to everyone.
type PublicOwner struct {
	Address common.Address
}

// PrivateOwner is an owner that is only visible to the record holder. Its value
// is an address literal.
type PrivateOwner struct {
	Value Plaintext
}

func (PublicOwner) owner()                  {}
func (PublicOwner) Visibility() Visibility  { return Public }
func (o PublicOwner) String() string        { return o.Address.String() + ".public" }
func (PrivateOwner) owner()                 {}
func (PrivateOwner) Visibility() Visibility { return Private }
func (o PrivateOwner) String() string       { return o.Value.String() + ".private" }

// OwnerAddress returns the address an owner holds.
func OwnerAddress(o Owner) (common.Address, bool) {
	switch o := o.(type) {
	case PublicOwner:
		return o.Address, true
	case PrivateOwner:
		if lit, ok := o.Value.(Literal); ok {
			return lit.Address()
		}
	}
	return common.Address{}, false
}

// ---- Balance ---------------------------------------------------------------

// Balance is the fungible balance of a record.
type Balance interface {
	balance()
	Visibility() Visibility
	String() string
}

// PublicBalance is a balance visible to everyone.
type PublicBalance struct {
	Value uint64
}

// PrivateBalance is a balance only visible to the record holder. Its value is
// a u64 literal.
type PrivateBalance struct {
	Value Plaintext
}

func (PublicBalance) balance()                {}
func (PublicBalance) Visibility() Visibility  { return Public }
func (b PublicBalance) String() string        { return NewU64(b.Value).String() + ".public" }
func (PrivateBalance) balance()               {}
func (PrivateBalance) Visibility() Visibility { return Private }
func (b PrivateBalance) String() string       { return b.Value.String() + ".private" }

// BalanceValue returns the amount a balance holds.
func BalanceValue(b Balance) (uint64, bool) {
	switch b := b.(type) {
	case PublicBalance:
		return b.Value, true
	case PrivateBalance:
		if lit, ok := b.Value.(Literal); ok {
			return lit.U64()
		}
	}
	return 0, false
}

// ---- Entries and records ---------------------------------------------------

// Entry is a record entry value with its visibility.
type Entry struct {
	Mode  Visibility
	Value Plaintext
}

func (e Entry) String() string { return e.Value.String() + "." + e.Mode.String() }

// NamedEntry is one named entry of a record.
type NamedEntry struct {
	Name  string
	Entry Entry
}

// Record is an owned value with a balance and ordered named entries.
type Record struct {
	owner   Owner
	balance Balance
	entries []NamedEntry
}

// NewRecord assembles a record. The owner must hold an address, the balance a
// u64, and entry names must be unique and must not shadow owner or balance.
func NewRecord(owner Owner, balance Balance, entries []NamedEntry) (*Record, error) {
	if _, ok := OwnerAddress(owner); !ok {
		return nil, fmt.Errorf("%w: owner must hold an address", ErrInvalidValue)
	}
	if _, ok := BalanceValue(balance); !ok {
		return nil, fmt.Errorf("%w: balance must hold a u64", ErrInvalidValue)
	}
	seen := mapset.NewSet(OwnerName, BalanceName)
	for _, e := range entries {
		if e.Entry.Value == nil {
			return nil, fmt.Errorf("%w: entry %q has no value", ErrInvalidValue, e.Name)
		}
		if e.Entry.Mode > Private {
			return nil, fmt.Errorf("%w: entry %q has mode %s", ErrInvalidValue, e.Name, e.Entry.Mode)
		}
		if !seen.Add(e.Name) {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrInvalidValue, e.Name)
		}
	}
	return &Record{
		owner:   owner,
		balance: balance,
		entries: append([]NamedEntry(nil), entries...),
	}, nil
}

func (*Record) stackValue() {}

// CheckBalance fails with ErrInvalidValue if the balance occupies more than
// the balance bits of net.
func (r *Record) CheckBalance(net *params.Network) error {
	v, _ := BalanceValue(r.balance)
	if !net.BalanceFits(v) {
		return fmt.Errorf("%w: balance %d exceeds %d bits", ErrInvalidValue, v, net.BalanceBits)
	}
	return nil
}

// Owner returns the record owner.
func (r *Record) Owner() Owner { return r.owner }

// Balance returns the record balance.
func (r *Record) Balance() Balance { return r.balance }

// Entries returns a copy of the entries in declaration order.
func (r *Record) Entries() []NamedEntry {
	return append([]NamedEntry(nil), r.entries...)
}

// Entry returns the named entry.
func (r *Record) Entry(name string) (Entry, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Entry, true
		}
	}
	return Entry{}, false
}

func (r *Record) String() string {
	parts := make([]string, 0, 2+len(r.entries))
	parts = append(parts, OwnerName+": "+r.owner.String(), BalanceName+": "+r.balance.String())
	for _, e := range r.entries {
		parts = append(parts, e.Name+": "+e.Entry.String())
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Equal reports whether both records hold the same owner, balance and entries.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.String() == other.String()
}

// Equal reports whether both interface values hold the same members.
func (v *InterfaceValue) Equal(other *InterfaceValue) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.String() == other.String()
}
