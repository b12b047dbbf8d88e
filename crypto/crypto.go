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

// Package crypto provides the hash, hash-to-curve and commitment primitives
// records and ledger queries are derived with, together with the account key
// hierarchy (private key, view key, graph key, address).
//
// Group arithmetic runs over Ristretto255 (cloudflare/circl); the field-native
// sponge behind HashPSD2 is Tip5 over the Goldilocks field (vybium-crypto).
package crypto

import (
	"errors"
	"hash"

	"github.com/cloudflare/circl/group"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/go-shielded/common"
)

// DigestLength sets the byte length of keccak digests.
const DigestLength = 32

var (
	errEmptyInput   = errors.New("crypto: empty hash input")
	errIdentity     = errors.New("crypto: hash mapped to the identity element")
	errZeroScalar   = errors.New("crypto: hash mapped to the zero scalar")
	errInvalidPoint = errors.New("crypto: invalid group element encoding")
)

// curve is the prime-order group used for every group operation.
var curve = group.Ristretto255

// KeccakState wraps sha3.state. In addition to the usual hash methods, it also supports
// Read to get a variable amount of data from the hash state. Read is faster than Sum
// because it doesn't copy the internal state, but also modifies the internal state.
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// NewKeccakState creates a new KeccakState
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	b := make([]byte, DigestLength)
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(b)
	return b
}

// Keccak256Field calculates the Keccak256 hash of the input data as a field
// element.
func Keccak256Field(data ...[]byte) (f common.Field) {
	d := NewKeccakState()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(f[:])
	return f
}

// DomainSeparator maps a domain name to the field element prepended to
// domain-separated hash inputs.
func DomainSeparator(domain string) common.Field {
	return Keccak256Field([]byte(domain))
}

// NewScalar returns a zero scalar of the group.
func NewScalar() group.Scalar { return curve.NewScalar() }

// NewElement returns the identity element of the group.
func NewElement() group.Element { return curve.NewElement() }

// Generator returns the group generator.
func Generator() group.Element { return curve.Generator() }

// XCoordinate returns the canonical field encoding of a group element. The
// compressed Ristretto encoding plays the role of the affine x-coordinate.
func XCoordinate(e group.Element) (common.Field, error) {
	enc, err := e.MarshalBinary()
	if err != nil {
		return common.Field{}, err
	}
	return common.BytesToField(enc), nil
}

// ClearCofactor multiplies e by the group cofactor. Ristretto255 has prime
// order, so the cofactor is one and the element is returned as a copy.
func ClearCofactor(e group.Element) group.Element {
	return e.Copy()
}

// ScalarToField returns the canonical encoding of s as a field element.
func ScalarToField(s group.Scalar) (common.Field, error) {
	enc, err := s.MarshalBinary()
	if err != nil {
		return common.Field{}, err
	}
	return common.BytesToField(enc), nil
}

// FieldToScalar decodes a canonical scalar encoding.
func FieldToScalar(f common.Field) (group.Scalar, error) {
	s := curve.NewScalar()
	if err := s.UnmarshalBinary(f[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// AddressToElement decodes an account address into its group element.
func AddressToElement(a common.Address) (group.Element, error) {
	return DecodeElement(a[:])
}

// ElementToAddress encodes a group element as an account address.
func ElementToAddress(e group.Element) (common.Address, error) {
	enc, err := e.MarshalBinary()
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(enc), nil
}

// DecodeElement decodes the canonical encoding of a group element.
func DecodeElement(b []byte) (group.Element, error) {
	e := curve.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, errInvalidPoint
	}
	return e, nil
}

// EncodeElement returns the canonical encoding of a group element.
func EncodeElement(e group.Element) ([]byte, error) {
	return e.MarshalBinary()
}
