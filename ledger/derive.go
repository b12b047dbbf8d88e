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

// Package ledger stores encrypted records together with the indexes of spent
// records, and answers record queries for the holder of a view key.
package ledger

import (
	"errors"
	"fmt"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/params"
)

var (
	// ErrCryptoDerivation is returned when a tag or serial number cannot be
	// derived.
	ErrCryptoDerivation = errors.New("ledger: derivation failed")

	// ErrStorage is returned when the record store or a spent index fails.
	ErrStorage = errors.New("ledger: storage failure")

	// ErrUnknownRecord is returned for commitments the ledger does not hold.
	ErrUnknownRecord = errors.New("ledger: unknown record")
)

// Tag derives the record tag HashPSD2(sk_tag, commitment). Tags let a view
// key holder recognise spent records without the private key.
func Tag(skTag, commitment common.Field) (common.Field, error) {
	tag, err := crypto.HashPSD2(skTag, commitment)
	if err != nil {
		return common.Field{}, fmt.Errorf("%w: tag: %v", ErrCryptoDerivation, err)
	}
	return tag, nil
}

// SerialNumber derives the serial number that spending the committed record
// with pk reveals:
//
//	h     = HashToGroup(sn_domain, commitment)
//	gamma = sk_sig·h
//	nonce = HashToScalar(sn_domain, x(gamma))
//	sn    = CommitBHP512(bits(sn_domain, commitment), nonce)
func SerialNumber(net *params.Network, pk *crypto.PrivateKey, commitment common.Field) (common.Field, error) {
	domain := crypto.DomainSeparator(net.SerialNumberDomain)
	h, err := crypto.HashToGroupPSD2(net, domain, commitment)
	if err != nil {
		return common.Field{}, fmt.Errorf("%w: serial number generator: %v", ErrCryptoDerivation, err)
	}
	gamma := crypto.NewElement().Mul(h, pk.SkSig())
	gammaX, err := crypto.XCoordinate(crypto.ClearCofactor(gamma))
	if err != nil {
		return common.Field{}, fmt.Errorf("%w: gamma: %v", ErrCryptoDerivation, err)
	}
	nonce, err := crypto.HashToScalarPSD2(net, domain, gammaX)
	if err != nil {
		return common.Field{}, fmt.Errorf("%w: serial number nonce: %v", ErrCryptoDerivation, err)
	}
	sn, err := crypto.CommitBHP512(net, crypto.FieldsToBitsLE(domain, commitment), nonce)
	if err != nil {
		return common.Field{}, fmt.Errorf("%w: serial number: %v", ErrCryptoDerivation, err)
	}
	return sn, nil
}
