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

package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestnetIsValid(t *testing.T) {
	assert.NoError(t, Testnet.Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(n *Network)
	}{
		{"zero operands", func(n *Network) { n.MaxOperands = 0 }},
		{"operands overflow u8", func(n *Network) { n.MaxOperands = 256 }},
		{"zero balance bits", func(n *Network) { n.BalanceBits = 0 }},
		{"empty serial number domain", func(n *Network) { n.SerialNumberDomain = "" }},
		{"empty name", func(n *Network) { n.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Testnet.Copy()
			tt.mutate(n)
			assert.Error(t, n.Validate())
		})
	}
}

func TestBalanceFits(t *testing.T) {
	assert.True(t, Testnet.BalanceFits(1<<52-1))
	assert.False(t, Testnet.BalanceFits(1<<52))
	assert.False(t, Testnet.BalanceFits(^uint64(0)))

	wide := Testnet.Copy()
	wide.BalanceBits = 64
	assert.True(t, wide.BalanceFits(^uint64(0)))
}

func TestFormatCredits(t *testing.T) {
	assert.Equal(t, "1.500000", FormatCredits(1_500_000))
	assert.Equal(t, "0.000100", FormatCredits(100))
}
