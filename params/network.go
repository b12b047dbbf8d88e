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

// Package params defines the network-wide parameters that instructions and
// ledger queries are evaluated under. Nothing in this module reads them from
// global state: every component receives the *Network it runs against.
package params

import (
	"errors"
	"fmt"
)

// Network holds the per-network bounds and domain separators.
type Network struct {
	Name string
	ID   uint16

	// MaxOperands bounds the operand list of a single instruction. The bound
	// is enforced on parse, encode and decode; the binary count is a u8.
	MaxOperands int
	// MaxIdentifierLength bounds program identifiers, in bytes.
	MaxIdentifierLength int
	// MaxInterfaceMembers bounds the member list of an interface definition.
	MaxInterfaceMembers int
	// MaxRecordEntries bounds the entry list of a record definition,
	// excluding owner and balance.
	MaxRecordEntries int
	// BalanceBits is the number of low bits a record balance may occupy.
	BalanceBits uint

	// Domain separators for the hash and commitment derivations.
	SerialNumberDomain  string
	GraphKeyDomain      string
	CommitmentDomain    string
	RecordViewKeyDomain string
	AccountDomain       string
	HashToGroupDST      string
	HashToScalarDST     string
	CommitDST           string
}

// Testnet is the default network configuration.
var Testnet = &Network{
	Name:                "testnet3",
	ID:                  3,
	MaxOperands:         16,
	MaxIdentifierLength: 31,
	MaxInterfaceMembers: 32,
	MaxRecordEntries:    32,
	BalanceBits:         52,

	SerialNumberDomain:  "AleoSerialNumber0",
	GraphKeyDomain:      "AleoGraphKey0",
	CommitmentDomain:    "AleoRecordCommitment0",
	RecordViewKeyDomain: "AleoRecordViewKey0",
	AccountDomain:       "AleoAccount0",
	HashToGroupDST:      "AleoHashToGroupPSD2",
	HashToScalarDST:     "AleoHashToScalarPSD2",
	CommitDST:           "AleoBHP512",
}

// Validate reports the first parameter that is out of range.
func (n *Network) Validate() error {
	switch {
	case n.Name == "":
		return errors.New("network name is empty")
	case n.MaxOperands < 1 || n.MaxOperands > 255:
		return fmt.Errorf("max operands %d out of range [1, 255]", n.MaxOperands)
	case n.MaxIdentifierLength < 1 || n.MaxIdentifierLength > 255:
		return fmt.Errorf("max identifier length %d out of range [1, 255]", n.MaxIdentifierLength)
	case n.MaxInterfaceMembers < 1 || n.MaxInterfaceMembers > 255:
		return fmt.Errorf("max interface members %d out of range [1, 255]", n.MaxInterfaceMembers)
	case n.MaxRecordEntries < 0 || n.MaxRecordEntries > 253:
		return fmt.Errorf("max record entries %d out of range [0, 253]", n.MaxRecordEntries)
	case n.BalanceBits < 1 || n.BalanceBits > 64:
		return fmt.Errorf("balance bits %d out of range [1, 64]", n.BalanceBits)
	}
	for name, domain := range map[string]string{
		"serial number":   n.SerialNumberDomain,
		"graph key":       n.GraphKeyDomain,
		"commitment":      n.CommitmentDomain,
		"record view key": n.RecordViewKeyDomain,
		"account":         n.AccountDomain,
		"hash-to-group":   n.HashToGroupDST,
		"hash-to-scalar":  n.HashToScalarDST,
		"commit":          n.CommitDST,
	} {
		if domain == "" {
			return fmt.Errorf("%s domain is empty", name)
		}
	}
	return nil
}

// BalanceFits reports whether v only occupies the permitted low balance bits.
func (n *Network) BalanceFits(v uint64) bool {
	if n.BalanceBits >= 64 {
		return true
	}
	return v>>n.BalanceBits == 0
}

// Copy returns an independent copy of the parameters.
func (n *Network) Copy() *Network {
	cpy := *n
	return &cpy
}
