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

// Package common contains the fixed-size values shared across the module:
// field elements and account addresses.
package common

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/probechain/go-shielded/common/bech32"
)

// Lengths of field elements and addresses in bytes.
const (
	// FieldLength is the byte length of a serialized field element.
	FieldLength = 32
	// AddressLength is the byte length of a serialized account address.
	AddressLength = 32
)

// AddressHRP is the human-readable part of Bech32m-encoded addresses.
const AddressHRP = "aleo"

// Field is a 256-bit field element in big-endian byte order. Commitments,
// tags, serial numbers and hash outputs are all Fields.
type Field [FieldLength]byte

// BytesToField sets b to a field element.
// If b is larger than len(f), b will be cropped from the left.
func BytesToField(b []byte) Field {
	var f Field
	f.SetBytes(b)
	return f
}

// BigToField sets the byte representation of b to a field element.
func BigToField(b *big.Int) Field { return BytesToField(b.Bytes()) }

// Uint64ToField returns the field element holding v.
func Uint64ToField(v uint64) Field { return BigToField(new(big.Int).SetUint64(v)) }

// ParseDecimalField parses the decimal representation of a field element.
func ParseDecimalField(s string) (Field, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return Field{}, fmt.Errorf("invalid field value %q", s)
	}
	if v.BitLen() > 8*FieldLength {
		return Field{}, fmt.Errorf("field value %q exceeds %d bits", s, 8*FieldLength)
	}
	return BigToField(v), nil
}

// SetBytes sets the field element to the value of b, cropping from the left.
func (f *Field) SetBytes(b []byte) {
	if len(b) > len(f) {
		b = b[len(b)-FieldLength:]
	}
	copy(f[FieldLength-len(b):], b)
}

// Bytes gets the byte representation of the underlying field element.
func (f Field) Bytes() []byte { return f[:] }

// Big converts the field element to a big integer.
func (f Field) Big() *big.Int { return new(big.Int).SetBytes(f[:]) }

// Decimal returns the base-10 representation used by literal syntax.
func (f Field) Decimal() string { return f.Big().String() }

// IsZero reports whether f is the zero element.
func (f Field) IsZero() bool { return f == Field{} }

// BitsLE returns the little-endian bit decomposition of the element.
func (f Field) BitsLE() []bool {
	bits := make([]bool, 0, 8*FieldLength)
	for i := FieldLength - 1; i >= 0; i-- {
		for j := 0; j < 8; j++ {
			bits = append(bits, f[i]>>uint(j)&1 == 1)
		}
	}
	return bits
}

// Hex converts the field element to a hex string.
func (f Field) Hex() string { return hexutil.Encode(f[:]) }

// TerminalString implements log.TerminalStringer, formatting a string for
// console output during logging.
func (f Field) TerminalString() string {
	return fmt.Sprintf("%x..%x", f[:3], f[29:])
}

// String implements the stringer interface and is used also by the logger when
// doing full logging into a file.
func (f Field) String() string { return f.Hex() }

// MarshalText returns the hex representation of f.
func (f Field) MarshalText() ([]byte, error) {
	return hexutil.Bytes(f[:]).MarshalText()
}

// UnmarshalText parses a field element in hex syntax.
func (f *Field) UnmarshalText(input []byte) error {
	var b hexutil.Bytes
	if err := b.UnmarshalText(input); err != nil {
		return err
	}
	if len(b) != FieldLength {
		return fmt.Errorf("field element must be %d bytes, got %d", FieldLength, len(b))
	}
	copy(f[:], b)
	return nil
}

// Address is the serialized (compressed) group element of an account.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(a), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// ParseAddress decodes an aleo1... Bech32m string.
func ParseAddress(s string) (Address, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Address{}, err
	}
	if hrp != AddressHRP {
		return Address{}, fmt.Errorf("invalid address prefix: got %q, want %q", hrp, AddressHRP)
	}
	if len(data) != AddressLength {
		return Address{}, fmt.Errorf("invalid address length: got %d, want %d", len(data), AddressLength)
	}
	return BytesToAddress(data), nil
}

// IsAddress reports whether s is a well-formed aleo1... address.
func IsAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// SetBytes sets the address to the value of b, cropping from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// String returns the Bech32m form of the address.
func (a Address) String() string {
	s, err := bech32.Encode(AddressHRP, a[:])
	if err != nil {
		// Encoding only fails on an empty prefix.
		panic(err)
	}
	return s
}

// TerminalString implements log.TerminalStringer.
func (a Address) TerminalString() string {
	s := a.String()
	return s[:10] + ".." + s[len(s)-6:]
}

// Hex returns the hex form of the address bytes, for debugging.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// MarshalText returns the Bech32m representation of a.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses an address in Bech32m syntax.
func (a *Address) UnmarshalText(input []byte) error {
	addr, err := ParseAddress(string(input))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// CopyBytes returns an exact copy of the provided bytes.
func CopyBytes(b []byte) (copiedBytes []byte) {
	if b == nil {
		return nil
	}
	copiedBytes = make([]byte, len(b))
	copy(copiedBytes, b)
	return
}
