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
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
)

func TestParseCast(t *testing.T) {
	tests := []string{
		"cast r0 r1 into r2 as point.private",
		"cast r0.x 7field into r2 as point.public",
		"cast r0 100u64 r1 3field into r3 as token.record",
		`cast "a b" into r1 as note.constant`,
	}
	for _, text := range tests {
		c, err := ParseCast(params.Testnet, text)
		require.NoError(t, err, text)
		assert.Equal(t, text, c.String())

		inst, err := ParseInstruction(params.Testnet, text)
		require.NoError(t, err, text)
		assert.Equal(t, c, inst)
	}
}

func TestParseCastErrors(t *testing.T) {
	many := "cast"
	for i := 0; i <= params.Testnet.MaxOperands; i++ {
		many += " r" + strconv.Itoa(i)
	}
	tests := map[string]string{
		"no operands":    "cast into r0 as point.private",
		"missing into":   "cast r0 r1 as point.private",
		"missing type":   "cast r0 into r1",
		"missing as":     "cast r0 into r1 point.private",
		"trailing":       "cast r0 into r1 as point.private extra",
		"bad operand":    "cast 12 into r1 as point.private",
		"bad register":   "cast r0 into x1 as point.private",
		"member dest":    "cast r0 into r1.x as point.private",
		"bad type":       "cast r0 into r1 as point",
		"too many":       many + " into r99 as point.private",
		"wrong opcode":   "add r0 r1 into r2",
		"unterminated":   `cast "abc into r1 as point.private`,
		"empty":          "",
		"bad visibility": "cast r0 into r1 as point.secret",
	}
	for name, text := range tests {
		_, err := ParseInstruction(params.Testnet, text)
		assert.True(t, errors.Is(err, program.ErrParse), "%s: %v", name, err)
	}
}

func castWithOperands(n int) *Cast {
	ops := make([]program.Operand, n)
	for i := range ops {
		if i%2 == 0 {
			ops[i] = program.NewRegister(uint64(i))
		} else {
			ops[i] = program.NewU64(uint64(i))
		}
	}
	return NewCast(ops, program.NewRegister(100), program.RecordValue("token"))
}

func TestCastCodecOperandBounds(t *testing.T) {
	for n := 1; n <= params.Testnet.MaxOperands; n++ {
		c := castWithOperands(n)
		enc, err := c.Encode(params.Testnet)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, byte(n), enc[0])

		got, err := DecodeCast(params.Testnet, enc)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, c, got)
	}

	for _, n := range []int{0, params.Testnet.MaxOperands + 1} {
		c := castWithOperands(n)
		_, err := c.Encode(params.Testnet)
		assert.True(t, errors.Is(err, program.ErrFormat), "encode n=%d: %v", n, err)

		// Forge the body by patching the count of a valid encoding.
		base := castWithOperands(1)
		enc, err := base.Encode(params.Testnet)
		require.NoError(t, err)
		forged := append([]byte{byte(n)}, enc[1:]...)
		_, err = DecodeCast(params.Testnet, forged)
		assert.True(t, errors.Is(err, program.ErrFormat), "decode n=%d: %v", n, err)
	}
}

func TestCastCodecMalformed(t *testing.T) {
	enc, err := castWithOperands(3).Encode(params.Testnet)
	require.NoError(t, err)

	_, err = DecodeCast(params.Testnet, append(enc, 0x00))
	assert.True(t, errors.Is(err, program.ErrFormat), "trailing byte: %v", err)

	for i := 0; i < len(enc); i++ {
		_, err = DecodeCast(params.Testnet, enc[:i])
		assert.True(t, errors.Is(err, program.ErrFormat), "truncated at %d: %v", i, err)
	}
}

func TestInstructionCodec(t *testing.T) {
	c, err := ParseCast(params.Testnet, "cast r0.center.x 1field into r4 as point.private")
	require.NoError(t, err)
	enc, err := EncodeInstruction(params.Testnet, c)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(OpCast), 0x00}, enc[:2])

	body, err := c.Encode(params.Testnet)
	require.NoError(t, err)
	assert.Equal(t, body, enc[2:])

	got, err := DecodeInstruction(params.Testnet, enc)
	require.NoError(t, err)
	assert.Equal(t, c.String(), got.String())

	enc[0] = 0x7f
	_, err = DecodeInstruction(params.Testnet, enc)
	assert.True(t, errors.Is(err, program.ErrFormat))

	_, err = DecodeInstruction(params.Testnet, []byte{0x00})
	assert.True(t, errors.Is(err, program.ErrFormat))
}

func TestInstructionErrorsReturnNil(t *testing.T) {
	inst, err := ParseInstruction(params.Testnet, "cast r0 into")
	assert.True(t, errors.Is(err, program.ErrParse), "%v", err)
	assert.True(t, inst == nil, "parse returned %#v", inst)

	enc, err := EncodeInstruction(params.Testnet, castWithOperands(2))
	require.NoError(t, err)
	inst, err = DecodeInstruction(params.Testnet, enc[:len(enc)-1])
	assert.True(t, errors.Is(err, program.ErrFormat), "%v", err)
	assert.True(t, inst == nil, "truncated decode returned %#v", inst)
	inst, err = DecodeInstruction(params.Testnet, append(enc, 0x00))
	assert.True(t, errors.Is(err, program.ErrFormat), "%v", err)
	assert.True(t, inst == nil, "trailing decode returned %#v", inst)

	c, err := DecodeCast(params.Testnet, append(enc[2:], 0x00))
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestCastStringOutOfBounds(t *testing.T) {
	empty := castWithOperands(0)
	_, err := ParseCast(params.Testnet, empty.String())
	assert.True(t, errors.Is(err, program.ErrParse), "%v", err)

	full := castWithOperands(params.Testnet.MaxOperands)
	got, err := ParseCast(params.Testnet, full.String())
	require.NoError(t, err)
	assert.Equal(t, full.String(), got.String())
}

func TestOpcodeNames(t *testing.T) {
	assert.Equal(t, "cast", OpCast.String())
	assert.True(t, OpCast.Valid())
	assert.False(t, Opcode(0xffff).Valid())
	assert.Equal(t, "unknown", Opcode(0xffff).String())

	op, ok := opcodeByName("cast")
	assert.True(t, ok)
	assert.Equal(t, OpCast, op)
	_, ok = opcodeByName("call")
	assert.False(t, ok)
}

func TestRun(t *testing.T) {
	s := newTestStack(t)
	var insts []Instruction
	for _, text := range []string{
		"cast 1field 2field into r0 as point.private",
		"cast r0 r0 into r1 as segment.public",
		"cast r1.to.x r0.y into r2 as point.public",
	} {
		inst, err := ParseInstruction(params.Testnet, text)
		require.NoError(t, err)
		insts = append(insts, inst)
	}
	require.NoError(t, Run(s, insts...))

	v, err := s.Load(program.NewRegister(2))
	require.NoError(t, err)
	assert.Equal(t, "{ x: 1field, y: 2field }", v.String())

	bad, err := ParseInstruction(params.Testnet, "cast r9 into r3 as point.private")
	require.NoError(t, err)
	err = Run(s, bad)
	assert.True(t, errors.Is(err, ErrUnresolved), "%v", err)
	assert.Contains(t, err.Error(), "instruction 0 (cast)")
}
