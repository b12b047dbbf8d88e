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

package ledger

import (
	"github.com/probechain/go-shielded/common"
)

// The fields below define the low level database schema prefixing.
var (
	recordPrefix       = []byte("r") // recordPrefix + commitment -> RLP ciphertext
	serialNumberPrefix = []byte("s") // serialNumberPrefix + serial number -> empty
	tagPrefix          = []byte("t") // tagPrefix + tag -> empty
)

// recordKey = recordPrefix + commitment
func recordKey(commitment common.Field) []byte {
	return append(append([]byte(nil), recordPrefix...), commitment.Bytes()...)
}

// serialNumberKey = serialNumberPrefix + serial number
func serialNumberKey(sn common.Field) []byte {
	return append(append([]byte(nil), serialNumberPrefix...), sn.Bytes()...)
}

// tagKey = tagPrefix + tag
func tagKey(tag common.Field) []byte {
	return append(append([]byte(nil), tagPrefix...), tag.Bytes()...)
}
