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
	"github.com/probechain/go-shielded/crypto"
)

type filterKind uint8

const (
	filterAll filterKind = iota
	filterSlowSpent
	filterSlowUnspent
	filterSpent
	filterUnspent
)

var filterNames = [...]string{
	filterAll:         "all",
	filterSlowSpent:   "slow-spent",
	filterSlowUnspent: "slow-unspent",
	filterSpent:       "spent",
	filterUnspent:     "unspent",
}

// RecordsFilter selects records by spent state. The slow variants derive the
// serial number with the private key; the others derive the tag with the
// view key's sk_tag.
type RecordsFilter struct {
	kind filterKind
	pk   *crypto.PrivateKey
}

// FilterAll keeps every owned record.
func FilterAll() RecordsFilter { return RecordsFilter{kind: filterAll} }

// FilterSlowSpent keeps records whose serial number under pk is spent.
func FilterSlowSpent(pk *crypto.PrivateKey) RecordsFilter {
	return RecordsFilter{kind: filterSlowSpent, pk: pk}
}

// FilterSlowUnspent keeps records whose serial number under pk is not spent.
func FilterSlowUnspent(pk *crypto.PrivateKey) RecordsFilter {
	return RecordsFilter{kind: filterSlowUnspent, pk: pk}
}

// FilterSpent keeps records whose tag is in the tag index.
func FilterSpent() RecordsFilter { return RecordsFilter{kind: filterSpent} }

// FilterUnspent keeps records whose tag is not in the tag index.
func FilterUnspent() RecordsFilter { return RecordsFilter{kind: filterUnspent} }

// ParseFilter returns the tag-based or unfiltered variant with the given name.
// The slow variants need a private key and are built with FilterSlowSpent and
// FilterSlowUnspent.
func ParseFilter(name string, pk *crypto.PrivateKey) (RecordsFilter, bool) {
	for kind, n := range filterNames {
		if n != name {
			continue
		}
		f := RecordsFilter{kind: filterKind(kind)}
		if f.isSlow() {
			if pk == nil {
				return RecordsFilter{}, false
			}
			f.pk = pk
		}
		return f, true
	}
	return RecordsFilter{}, false
}

func (f RecordsFilter) isSlow() bool {
	return f.kind == filterSlowSpent || f.kind == filterSlowUnspent
}

// wantSpent reports which spent state the filter keeps.
func (f RecordsFilter) wantSpent() bool {
	return f.kind == filterSlowSpent || f.kind == filterSpent
}

func (f RecordsFilter) String() string { return filterNames[f.kind] }
