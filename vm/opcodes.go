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

// Package vm executes program instructions against a register stack. Every
// instruction reads its operands from the stack, checks them against the
// program's type registry and writes at most one destination register.
//
// The textual form of an instruction is its mnemonic followed by its operands,
// e.g.
//
//	cast r0 r1 5u64 into r2 as token.record
//
// and the binary form is a u16 opcode tag followed by the instruction body.
package vm

// Opcode identifies an instruction kind.
type Opcode uint16

const (
	// OpCast builds an interface or record from its operands.
	OpCast Opcode = iota
)

// opcodeInfo holds the static metadata for a single opcode.
type opcodeInfo struct {
	name string
}

// opcodeTable is indexed by Opcode value.
var opcodeTable = [...]opcodeInfo{
	OpCast: {"cast"},
}

// String returns the mnemonic of the opcode, as written in instruction text.
func (op Opcode) String() string {
	if int(op) >= len(opcodeTable) {
		return "unknown"
	}
	return opcodeTable[op].name
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool { return int(op) < len(opcodeTable) }

// opcodeByName resolves a mnemonic.
func opcodeByName(name string) (Opcode, bool) {
	for op, info := range opcodeTable {
		if info.name == name {
			return Opcode(op), true
		}
	}
	return 0, false
}
