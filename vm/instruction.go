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

	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
)

// Instruction is a single executable operation.
type Instruction interface {
	// Opcode returns the instruction kind.
	Opcode() Opcode

	// Evaluate executes the instruction against the stack. A failing
	// instruction leaves the stack untouched.
	Evaluate(s *Stack) error

	// OutputType infers the destination register type from the input
	// register types.
	OutputType(prog *program.Program, inputTypes []program.RegisterType) (program.RegisterType, error)

	// String returns the instruction text.
	String() string
}

// bodyCodec reads and writes instruction bodies.
type bodyCodec struct {
	parse  func(net *params.Network, fields []string) (Instruction, error)
	decode func(d *program.Decoder, net *params.Network) (Instruction, error)
}

var codecs = map[Opcode]bodyCodec{
	OpCast: {
		parse: func(net *params.Network, fields []string) (Instruction, error) {
			c, err := parseCastBody(net, fields)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		decode: func(d *program.Decoder, net *params.Network) (Instruction, error) {
			c, err := readCastBody(d, net)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	},
}

// ParseInstruction parses the text form of any instruction.
func ParseInstruction(net *params.Network, text string) (Instruction, error) {
	fields, err := program.Fields(text)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty instruction", program.ErrParse)
	}
	op, ok := opcodeByName(fields[0])
	if !ok {
		return nil, fmt.Errorf("%w: unknown opcode %q", program.ErrParse, fields[0])
	}
	return codecs[op].parse(net, fields[1:])
}

// EncodeInstruction returns the u16 opcode tag followed by the instruction
// body.
func EncodeInstruction(net *params.Network, inst Instruction) ([]byte, error) {
	e := program.NewEncoder()
	e.WriteU16(uint16(inst.Opcode()))
	switch inst := inst.(type) {
	case *Cast:
		if err := inst.writeBody(net, e); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: cannot encode %T", program.ErrFormat, inst)
	}
	return e.Bytes(), nil
}

// DecodeInstruction decodes an instruction produced by EncodeInstruction.
func DecodeInstruction(net *params.Network, b []byte) (Instruction, error) {
	d := program.NewDecoder(net, b)
	tag, err := d.ReadU16()
	if err != nil {
		return nil, err
	}
	codec, ok := codecs[Opcode(tag)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown opcode %d", program.ErrFormat, tag)
	}
	inst, err := codec.decode(d, net)
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Run evaluates instructions in order against the stack and stops at the
// first failure.
func Run(s *Stack, insts ...Instruction) error {
	for i, inst := range insts {
		if err := inst.Evaluate(s); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, inst.Opcode(), err)
		}
	}
	return nil
}
