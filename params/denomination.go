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

import "fmt"

// These are the multipliers for record balance denominations.
// Example: To get the gate value of an amount in 'credits', use
//
//	amount * params.Credits
const (
	Gates   = 1
	Credits = 1_000_000 // 1e6 gates = 1 credit
)

// FormatCredits renders a gate amount as a decimal credit amount, e.g.
// 1500000 → "1.500000".
func FormatCredits(gates uint64) string {
	return fmt.Sprintf("%d.%06d", gates/Credits, gates%Credits)
}
