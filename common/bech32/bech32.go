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

// Package bech32 implements the Bech32m encoding (BIP-350) used for account
// addresses and key strings.
package bech32

import (
	"errors"
	"fmt"
	"strings"
)

const (
	charset       = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	bech32mConst  = 0x2bc830a3
	checksumLen   = 6
	separatorChar = '1'
)

var generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

var (
	ErrMixedCase   = errors.New("bech32: mixed case")
	ErrNoSeparator = errors.New("bech32: missing separator")
	ErrChecksum    = errors.New("bech32: invalid checksum")
	ErrPadding     = errors.New("bech32: invalid padding")
)

// Encode converts data to 5-bit groups and returns hrp + "1" + data + checksum.
func Encode(hrp string, data []byte) (string, error) {
	if hrp == "" {
		return "", errors.New("bech32: empty human-readable part")
	}
	hrp = strings.ToLower(hrp)
	groups := regroup(data, 8, 5, true)
	sum := checksum(hrp, groups)

	var sb strings.Builder
	sb.Grow(len(hrp) + 1 + len(groups) + checksumLen)
	sb.WriteString(hrp)
	sb.WriteByte(separatorChar)
	for _, g := range append(groups, sum...) {
		sb.WriteByte(charset[g])
	}
	return sb.String(), nil
}

// Decode splits s into its human-readable part and the 8-bit payload.
func Decode(s string) (string, []byte, error) {
	lower := strings.ToLower(s)
	if s != lower && s != strings.ToUpper(s) {
		return "", nil, ErrMixedCase
	}
	pos := strings.LastIndexByte(lower, separatorChar)
	if pos < 1 {
		return "", nil, ErrNoSeparator
	}
	if len(lower)-pos-1 < checksumLen {
		return "", nil, fmt.Errorf("bech32: data part too short (%d chars)", len(lower)-pos-1)
	}
	hrp, payload := lower[:pos], lower[pos+1:]

	groups := make([]byte, len(payload))
	for i := 0; i < len(payload); i++ {
		idx := strings.IndexByte(charset, payload[i])
		if idx < 0 {
			return "", nil, fmt.Errorf("bech32: invalid character %q at position %d", payload[i], i)
		}
		groups[i] = byte(idx)
	}
	if polymod(append(expandHRP(hrp), groups...)) != bech32mConst {
		return "", nil, ErrChecksum
	}
	groups = groups[:len(groups)-checksumLen]

	// Decoding must consume whole bytes; leftover bits have to be zero.
	if len(groups)*5%8 >= 5 {
		return "", nil, ErrPadding
	}
	if rem := len(groups) * 5 % 8; rem > 0 && groups[len(groups)-1]&(1<<rem-1) != 0 {
		return "", nil, ErrPadding
	}
	return hrp, regroup(groups, 5, 8, false), nil
}

// regroup repacks a big-endian bit stream from `from`-bit to `to`-bit groups.
// Input values are assumed to fit in `from` bits.
func regroup(data []byte, from, to uint, pad bool) []byte {
	var (
		acc  uint32
		bits uint
		mask = uint32(1)<<to - 1
		out  = make([]byte, 0, (len(data)*int(from)+int(to)-1)/int(to))
	)
	for _, v := range data {
		acc = acc<<from | uint32(v)
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte(acc>>bits&mask))
		}
	}
	if pad && bits > 0 {
		out = append(out, byte(acc<<(to-bits)&mask))
	}
	return out
}

func polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i, g := range generator {
			if top>>uint(i)&1 == 1 {
				chk ^= g
			}
		}
	}
	return chk
}

func expandHRP(hrp string) []byte {
	out := make([]byte, 0, 2*len(hrp)+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func checksum(hrp string, groups []byte) []byte {
	values := append(expandHRP(hrp), groups...)
	values = append(values, make([]byte, checksumLen)...)
	mod := polymod(values) ^ bech32mConst
	sum := make([]byte, checksumLen)
	for i := range sum {
		sum[i] = byte(mod >> uint(5*(checksumLen-1-i)) & 31)
	}
	return sum
}
