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

package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/cloudflare/circl/group"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/params"
)

const (
	// psd2Rate is absorbed first so PSD2 digests never collide with other
	// sponge users of the same permutation.
	psd2Rate = 2

	// limbBytes keeps every limb below the Goldilocks modulus.
	limbBytes     = 7
	limbsPerField = (common.FieldLength + limbBytes - 1) / limbBytes
)

// HashPSD2 hashes field elements with the rate-2 field sponge.
func HashPSD2(inputs ...common.Field) (common.Field, error) {
	if len(inputs) == 0 {
		return common.Field{}, errEmptyInput
	}
	elems := make([]field.Element, 0, 2+len(inputs)*limbsPerField)
	elems = append(elems, field.New(psd2Rate), field.New(uint64(len(inputs))))
	for _, in := range inputs {
		elems = append(elems, toLimbs(in)...)
	}
	digest := hash.HashVarlen(elems)

	var out common.Field
	for i := 0; i < common.FieldLength/8; i++ {
		binary.BigEndian.PutUint64(out[8*i:], digest[i].Value())
	}
	return out, nil
}

// toLimbs splits a field element into 7-byte limbs, each read little-endian.
func toLimbs(f common.Field) []field.Element {
	var padded [limbsPerField * limbBytes]byte
	copy(padded[len(padded)-common.FieldLength:], f[:])

	limbs := make([]field.Element, limbsPerField)
	for i := range limbs {
		var word [8]byte
		copy(word[:limbBytes], padded[i*limbBytes:(i+1)*limbBytes])
		limbs[i] = field.New(binary.LittleEndian.Uint64(word[:]))
	}
	return limbs
}

func concat(inputs []common.Field) []byte {
	msg := make([]byte, 0, len(inputs)*common.FieldLength)
	for _, in := range inputs {
		msg = append(msg, in[:]...)
	}
	return msg
}

// HashToGroupPSD2 maps field elements to a group element.
func HashToGroupPSD2(net *params.Network, inputs ...common.Field) (group.Element, error) {
	if len(inputs) == 0 {
		return nil, errEmptyInput
	}
	e := curve.HashToElement(concat(inputs), []byte(net.HashToGroupDST))
	if e.IsIdentity() {
		return nil, errIdentity
	}
	return e, nil
}

// HashToScalarPSD2 maps field elements to a non-zero scalar.
func HashToScalarPSD2(net *params.Network, inputs ...common.Field) (group.Scalar, error) {
	if len(inputs) == 0 {
		return nil, errEmptyInput
	}
	s := curve.HashToScalar(concat(inputs), []byte(net.HashToScalarDST))
	if s.IsZero() {
		return nil, errZeroScalar
	}
	return s, nil
}

// CommitBHP512 commits to a little-endian bit string under the given
// randomizer: C = H(bits)·G_msg + r·G_rand, returned as its x-coordinate.
// Both generators are derived from the network's commitment DST, so nobody
// knows their discrete-log relation.
func CommitBHP512(net *params.Network, bits []bool, randomizer group.Scalar) (common.Field, error) {
	if len(bits) == 0 {
		return common.Field{}, errEmptyInput
	}
	if randomizer == nil {
		return common.Field{}, fmt.Errorf("crypto: nil commitment randomizer")
	}
	dst := []byte(net.CommitDST)

	msg := make([]byte, 4, 4+(len(bits)+7)/8)
	binary.LittleEndian.PutUint32(msg, uint32(len(bits)))
	msg = append(msg, packBitsLE(bits)...)

	gMsg := curve.HashToElement([]byte("message generator"), dst)
	gRand := curve.HashToElement([]byte("randomizer generator"), dst)

	m := curve.NewElement().Mul(gMsg, curve.HashToScalar(msg, dst))
	r := curve.NewElement().Mul(gRand, randomizer)
	return XCoordinate(curve.NewElement().Add(m, r))
}

// packBitsLE packs bits into bytes, least significant bit first.
func packBitsLE(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// FieldsToBitsLE concatenates the little-endian bit decompositions of fs.
func FieldsToBitsLE(fs ...common.Field) []bool {
	bits := make([]bool, 0, len(fs)*8*common.FieldLength)
	for _, f := range fs {
		bits = append(bits, f.BitsLE()...)
	}
	return bits
}

// BytesToBitsLE decomposes a byte string, least significant bit of each byte
// first.
func BytesToBitsLE(b []byte) []bool {
	bits := make([]bool, 0, 8*len(b))
	for _, v := range b {
		for j := 0; j < 8; j++ {
			bits = append(bits, v>>uint(j)&1 == 1)
		}
	}
	return bits
}
