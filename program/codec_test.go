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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/params"
)

func roundTripLiteral(t *testing.T, l Literal) {
	t.Helper()
	e := NewEncoder()
	require.NoError(t, e.WriteLiteral(l))
	d := NewDecoder(params.Testnet, e.Bytes())
	got, err := d.ReadLiteral()
	require.NoError(t, err, l.String())
	require.NoError(t, d.Finish())
	assert.Equal(t, l, got)
}

func TestLiteralCodecFuzz(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for i := 0; i < 200; i++ {
		var (
			u64  uint64
			i64  int64
			i8   int8
			u16  uint16
			hi   uint64
			str  string
			addr common.Address
			fe   common.Field
			b    bool
		)
		f.Fuzz(&u64)
		f.Fuzz(&i64)
		f.Fuzz(&i8)
		f.Fuzz(&u16)
		f.Fuzz(&hi)
		f.Fuzz(&str)
		f.Fuzz(&addr)
		f.Fuzz(&fe)
		f.Fuzz(&b)

		roundTripLiteral(t, NewU64(u64))
		roundTripLiteral(t, NewBoolean(b))
		roundTripLiteral(t, NewAddress(addr))
		roundTripLiteral(t, NewField(fe))
		roundTripLiteral(t, NewString(str))

		l, err := NewSigned(LitI64, i64)
		require.NoError(t, err)
		roundTripLiteral(t, l)
		l, err = NewSigned(LitI8, int64(i8))
		require.NoError(t, err)
		roundTripLiteral(t, l)
		l, err = NewUnsigned(LitU16, uint256.NewInt(uint64(u16)))
		require.NoError(t, err)
		roundTripLiteral(t, l)

		v := uint256.NewInt(u64)
		v[1] = hi
		l, err = NewUnsigned(LitU128, v)
		require.NoError(t, err)
		roundTripLiteral(t, l)
	}
}

func TestOperandCodec(t *testing.T) {
	ops := []Operand{
		NewU64(7),
		NewRegister(0),
		Register{Locator: 1 << 40, Path: []string{"center", "x"}},
		NewString("with space"),
	}
	e := NewEncoder()
	for _, op := range ops {
		require.NoError(t, e.WriteOperand(op))
	}
	d := NewDecoder(params.Testnet, e.Bytes())
	for _, want := range ops {
		got, err := d.ReadOperand()
		require.NoError(t, err)
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(Literal{})); diff != "" {
			t.Errorf("operand mismatch (-want +got):\n%s", diff)
		}
	}
	assert.NoError(t, d.Finish())
}

func TestValueTypeCodec(t *testing.T) {
	types := []ValueType{
		ConstantValue(LiteralPlaintext(LitBoolean)),
		PublicValue(LiteralPlaintext(LitU128)),
		PrivateValue(InterfacePlaintext("point")),
		RecordValue("token"),
	}
	for _, vt := range types {
		e := NewEncoder()
		require.NoError(t, e.WriteValueType(vt))
		d := NewDecoder(params.Testnet, e.Bytes())
		got, err := d.ReadValueType()
		require.NoError(t, err)
		require.NoError(t, d.Finish())
		assert.Equal(t, vt, got)
	}
}

func testRecord(t *testing.T) *Record {
	t.Helper()
	point, err := NewInterfaceValue([]Member{
		{Name: "x", Value: NewField(common.Uint64ToField(1))},
		{Name: "y", Value: NewField(common.Uint64ToField(2))},
	})
	require.NoError(t, err)
	rec, err := NewRecord(
		PrivateOwner{Value: NewAddress(testAddress(1))},
		PrivateBalance{Value: NewU64(100)},
		[]NamedEntry{
			{Name: "amount", Entry: Entry{Mode: Public, Value: NewU64(5)}},
			{Name: "center", Entry: Entry{Mode: Private, Value: point}},
		},
	)
	require.NoError(t, err)
	return rec
}

func TestRecordCodec(t *testing.T) {
	rec := testRecord(t)
	enc, err := EncodeRecord(rec)
	require.NoError(t, err)
	got, err := DecodeRecord(params.Testnet, enc)
	require.NoError(t, err)
	assert.True(t, rec.Equal(got), "%s != %s", rec, got)

	pub, err := NewRecord(PublicOwner{Address: testAddress(2)}, PublicBalance{Value: 3}, nil)
	require.NoError(t, err)
	enc, err = EncodeRecord(pub)
	require.NoError(t, err)
	got, err = DecodeRecord(params.Testnet, enc)
	require.NoError(t, err)
	assert.True(t, pub.Equal(got))

	_, err = DecodeRecord(params.Testnet, append(enc, 0))
	assert.True(t, errors.Is(err, ErrFormat))
	_, err = DecodeRecord(params.Testnet, enc[:len(enc)-1])
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestRecordBalanceBound(t *testing.T) {
	limit := uint64(1) << params.Testnet.BalanceBits
	balances := map[string]func(v uint64) Balance{
		"public":  func(v uint64) Balance { return PublicBalance{Value: v} },
		"private": func(v uint64) Balance { return PrivateBalance{Value: NewU64(v)} },
	}
	for name, balance := range balances {
		fits, err := NewRecord(PublicOwner{Address: testAddress(4)}, balance(limit-1), nil)
		require.NoError(t, err)
		assert.NoError(t, fits.CheckBalance(params.Testnet), name)
		enc, err := EncodeRecord(fits)
		require.NoError(t, err)
		_, err = DecodeRecord(params.Testnet, enc)
		assert.NoError(t, err, name)

		over, err := NewRecord(PublicOwner{Address: testAddress(4)}, balance(limit), nil)
		require.NoError(t, err)
		assert.True(t, errors.Is(over.CheckBalance(params.Testnet), ErrInvalidValue), name)
		enc, err = EncodeRecord(over)
		require.NoError(t, err)
		got, err := DecodeRecord(params.Testnet, enc)
		assert.True(t, errors.Is(err, ErrInvalidValue), "%s: %v", name, err)
		assert.Nil(t, got)
	}
}

func TestDecoderRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"unknown literal":  {0xff, 0x00},
		"bad boolean":      {byte(LitBoolean), 0x00, 0x02},
		"short u64":        {byte(LitU64), 0x00, 1, 2, 3},
		"unknown operand":  {0x07},
		"empty identifier": {0x00},
	}
	for name, b := range cases {
		d := NewDecoder(params.Testnet, b)
		var err error
		switch name {
		case "unknown operand":
			_, err = d.ReadOperand()
		case "empty identifier":
			_, err = d.ReadIdentifier()
		default:
			_, err = d.ReadLiteral()
		}
		assert.True(t, errors.Is(err, ErrFormat), "%s: %v", name, err)
	}
}

func TestNewRecordRejectsDuplicates(t *testing.T) {
	owner := PublicOwner{Address: testAddress(3)}
	balance := PublicBalance{Value: 1}
	_, err := NewRecord(owner, balance, []NamedEntry{
		{Name: "a", Entry: Entry{Mode: Public, Value: NewU64(1)}},
		{Name: "a", Entry: Entry{Mode: Public, Value: NewU64(2)}},
	})
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = NewRecord(owner, balance, []NamedEntry{
		{Name: BalanceName, Entry: Entry{Mode: Public, Value: NewU64(1)}},
	})
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = NewRecord(PrivateOwner{Value: NewU64(1)}, balance, nil)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = NewInterfaceValue([]Member{{Name: "x", Value: NewU64(1)}, {Name: "x", Value: NewU64(1)}})
	assert.True(t, errors.Is(err, ErrInvalidValue))
}
