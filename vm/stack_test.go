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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-shielded/program"
)

func TestStackLoadStore(t *testing.T) {
	s := newTestStack(t)

	lit := program.NewU64(9)
	got, err := s.Load(lit)
	require.NoError(t, err)
	assert.Equal(t, lit, got)

	_, err = s.Load(reg(0))
	assert.True(t, errors.Is(err, ErrUnresolved))

	require.NoError(t, s.Store(reg(0), lit))
	got, err = s.Load(reg(0))
	require.NoError(t, err)
	assert.Equal(t, lit, got)

	err = s.Store(reg(0), program.NewU64(10))
	assert.True(t, errors.Is(err, ErrRegisterOverwrite))

	err = s.Store(program.Register{Locator: 1, Path: []string{"x"}}, lit)
	assert.True(t, errors.Is(err, ErrMemberStore))

	// A literal has no members.
	_, err = s.Load(program.Register{Locator: 0, Path: []string{"x"}})
	assert.True(t, errors.Is(err, program.ErrLookup))
}

func TestStackDeclaredType(t *testing.T) {
	s := newTestStack(t)
	require.NoError(t, s.DeclareRegister(0, plaintextReg(program.LitU64)))
	require.NoError(t, s.DeclareRegister(0, plaintextReg(program.LitU64)))

	err := s.Store(reg(0), fieldOne)
	assert.True(t, errors.Is(err, program.ErrTypeMismatch))
	assertUnset(t, s, reg(0))
	assert.NoError(t, s.Store(reg(0), program.NewU64(1)))
}

func TestStackRecordMembers(t *testing.T) {
	s := newTestStack(t)
	ops := []program.Operand{program.NewAddress(ownerAddr), program.NewU64(50), program.NewU64(7), fieldTwo}
	require.NoError(t, NewCast(ops, reg(0), tokenType).Evaluate(s))

	tests := map[string]program.StackValue{
		program.OwnerName:   program.NewAddress(ownerAddr),
		program.BalanceName: program.NewU64(50),
		"amount":            program.NewU64(7),
		"memo":              fieldTwo,
	}
	for name, want := range tests {
		got, err := s.Load(program.Register{Locator: 0, Path: []string{name}})
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := s.Load(program.Register{Locator: 0, Path: []string{"nonce"}})
	assert.True(t, errors.Is(err, program.ErrLookup))
}

func TestMatchesRegister(t *testing.T) {
	s := newTestStack(t)
	point, err := program.NewInterfaceValue([]program.Member{{Name: "x", Value: fieldOne}, {Name: "y", Value: fieldTwo}})
	require.NoError(t, err)
	swapped, err := program.NewInterfaceValue([]program.Member{{Name: "y", Value: fieldOne}, {Name: "x", Value: fieldTwo}})
	require.NoError(t, err)
	short, err := program.NewInterfaceValue([]program.Member{{Name: "x", Value: fieldOne}})
	require.NoError(t, err)
	pub, err := program.NewRecord(program.PublicOwner{Address: ownerAddr}, program.PublicBalance{Value: 1}, nil)
	require.NoError(t, err)
	priv, err := program.NewRecord(program.PrivateOwner{Value: program.NewAddress(ownerAddr)}, program.PublicBalance{Value: 1}, nil)
	require.NoError(t, err)

	pointReg := program.PlaintextRegister(program.InterfacePlaintext("point"))
	tests := []struct {
		name  string
		value program.StackValue
		typ   program.RegisterType
		err   error
	}{
		{"literal", fieldOne, plaintextReg(program.LitField), nil},
		{"literal mismatch", fieldOne, plaintextReg(program.LitU64), program.ErrTypeMismatch},
		{"literal as interface", fieldOne, pointReg, program.ErrTypeMismatch},
		{"interface", point, pointReg, nil},
		{"interface as literal", point, plaintextReg(program.LitField), program.ErrTypeMismatch},
		{"member order", swapped, pointReg, program.ErrTypeMismatch},
		{"member count", short, pointReg, program.ErrTypeMismatch},
		{"undefined interface", point, program.PlaintextRegister(program.InterfacePlaintext("circle")), program.ErrLookup},
		{"record", pub, program.RecordRegister("ticket"), nil},
		{"record visibility", priv, program.RecordRegister("ticket"), program.ErrTypeMismatch},
		{"record entries", pub, program.RecordRegister("token"), program.ErrTypeMismatch},
		{"record as plaintext", pub, pointReg, program.ErrTypeMismatch},
		{"plaintext as record", point, program.RecordRegister("ticket"), program.ErrTypeMismatch},
		{"undefined record", pub, program.RecordRegister("coin"), program.ErrLookup},
	}
	for _, tt := range tests {
		err := s.MatchesRegister(tt.value, tt.typ)
		if tt.err == nil {
			assert.NoError(t, err, tt.name)
		} else {
			assert.True(t, errors.Is(err, tt.err), "%s: %v", tt.name, err)
		}
	}
}
