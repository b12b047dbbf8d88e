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
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
	"github.com/tyler-smith/go-bip39"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/common/bech32"
	"github.com/probechain/go-shielded/params"
)

// Human-readable prefixes of the key string forms.
const (
	PrivateKeyHRP = "aleokey"
	ViewKeyHRP    = "aleoview"
)

var errInvalidKey = errors.New("crypto: invalid key")

// PrivateKey is the spending key of an account. It is derived from a seed and
// holds the signature secret key sk_sig and its randomizer r_sig.
type PrivateKey struct {
	net  *params.Network
	seed common.Field
	sk   group.Scalar // sk_sig
	r    group.Scalar // r_sig
}

// GenerateKey creates a private key from a fresh random seed.
func GenerateKey(net *params.Network, rng io.Reader) (*PrivateKey, error) {
	if rng == nil {
		rng = rand.Reader
	}
	var seed common.Field
	if _, err := io.ReadFull(rng, seed[:]); err != nil {
		return nil, err
	}
	return PrivateKeyFromSeed(net, seed)
}

// PrivateKeyFromSeed deterministically derives a private key from seed.
func PrivateKeyFromSeed(net *params.Network, seed common.Field) (*PrivateKey, error) {
	domain := DomainSeparator(net.AccountDomain)
	sk, err := HashToScalarPSD2(net, domain, seed, common.Uint64ToField(0))
	if err != nil {
		return nil, fmt.Errorf("derive sk_sig: %w", err)
	}
	r, err := HashToScalarPSD2(net, domain, seed, common.Uint64ToField(1))
	if err != nil {
		return nil, fmt.Errorf("derive r_sig: %w", err)
	}
	return &PrivateKey{net: net, seed: seed, sk: sk, r: r}, nil
}

// NewMnemonic returns a fresh 24-word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// PrivateKeyFromMnemonic derives a private key from a BIP-39 mnemonic and
// optional password.
func PrivateKeyFromMnemonic(net *params.Network, mnemonic, password string) (*PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, password)
	if err != nil {
		return nil, err
	}
	return PrivateKeyFromSeed(net, Keccak256Field(seed))
}

// ParsePrivateKey decodes the aleokey1... form of a private key.
func ParsePrivateKey(net *params.Network, s string) (*PrivateKey, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return nil, err
	}
	if hrp != PrivateKeyHRP || len(data) != common.FieldLength {
		return nil, errInvalidKey
	}
	return PrivateKeyFromSeed(net, common.BytesToField(data))
}

// Seed returns the seed the key was derived from.
func (k *PrivateKey) Seed() common.Field { return k.seed }

// SkSig returns a copy of the signature secret key.
func (k *PrivateKey) SkSig() group.Scalar { return k.sk.Copy() }

// RSig returns a copy of the signature randomizer.
func (k *PrivateKey) RSig() group.Scalar { return k.r.Copy() }

// Network returns the parameters the key was derived under.
func (k *PrivateKey) Network() *params.Network { return k.net }

// ViewKey derives vk = sk_sig + r_sig + sk_prf, where
// sk_prf = HashToScalar(x(sk_sig·G), x(r_sig·G)).
func (k *PrivateKey) ViewKey() (*ViewKey, error) {
	pkSig, err := XCoordinate(curve.NewElement().MulGen(k.sk))
	if err != nil {
		return nil, err
	}
	prSig, err := XCoordinate(curve.NewElement().MulGen(k.r))
	if err != nil {
		return nil, err
	}
	skPrf, err := HashToScalarPSD2(k.net, pkSig, prSig)
	if err != nil {
		return nil, fmt.Errorf("derive sk_prf: %w", err)
	}
	vk := curve.NewScalar().Add(k.sk, k.r)
	vk = curve.NewScalar().Add(vk, skPrf)
	if vk.IsZero() {
		return nil, errInvalidKey
	}
	return &ViewKey{net: k.net, s: vk}, nil
}

// Address derives the account address of the key.
func (k *PrivateKey) Address() (common.Address, error) {
	vk, err := k.ViewKey()
	if err != nil {
		return common.Address{}, err
	}
	return vk.Address()
}

// String returns the aleokey1... form of the key.
func (k *PrivateKey) String() string {
	s, err := bech32.Encode(PrivateKeyHRP, k.seed[:])
	if err != nil {
		panic(err)
	}
	return s
}

// ViewKey grants read access to an account's records without spending
// authority.
type ViewKey struct {
	net *params.Network
	s   group.Scalar
}

// ParseViewKey decodes the aleoview1... form of a view key.
func ParseViewKey(net *params.Network, s string) (*ViewKey, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return nil, err
	}
	if hrp != ViewKeyHRP || len(data) != common.FieldLength {
		return nil, errInvalidKey
	}
	scalar, err := FieldToScalar(common.BytesToField(data))
	if err != nil || scalar.IsZero() {
		return nil, errInvalidKey
	}
	return &ViewKey{net: net, s: scalar}, nil
}

// Scalar returns a copy of the view key scalar.
func (vk *ViewKey) Scalar() group.Scalar { return vk.s.Copy() }

// Network returns the parameters the key was derived under.
func (vk *ViewKey) Network() *params.Network { return vk.net }

// Address derives the account address vk·G.
func (vk *ViewKey) Address() (common.Address, error) {
	return ElementToAddress(curve.NewElement().MulGen(vk.s))
}

// GraphKey derives the graph key, whose sk_tag lets the holder compute
// record tags.
func (vk *ViewKey) GraphKey() (*GraphKey, error) {
	f, err := ScalarToField(vk.s)
	if err != nil {
		return nil, err
	}
	skTag, err := HashPSD2(DomainSeparator(vk.net.GraphKeyDomain), f)
	if err != nil {
		return nil, err
	}
	return &GraphKey{skTag: skTag}, nil
}

// SharedSecret returns x(vk·nonce), the key material shared with whoever
// encrypted a record to this account under nonce = r·G.
func (vk *ViewKey) SharedSecret(nonce group.Element) (common.Field, error) {
	return XCoordinate(curve.NewElement().Mul(nonce, vk.s))
}

// Equal reports whether both keys hold the same scalar.
func (vk *ViewKey) Equal(other *ViewKey) bool {
	return other != nil && vk.s.IsEqual(other.s)
}

// String returns the aleoview1... form of the key.
func (vk *ViewKey) String() string {
	f, err := ScalarToField(vk.s)
	if err != nil {
		panic(err)
	}
	s, err := bech32.Encode(ViewKeyHRP, f[:])
	if err != nil {
		panic(err)
	}
	return s
}

// GraphKey is the limited key holding sk_tag.
type GraphKey struct {
	skTag common.Field
}

// SkTag returns the tag secret.
func (gk *GraphKey) SkTag() common.Field { return gk.skTag }

// EncryptionSecret returns x(r·address), the encryptor's half of the shared
// secret recovered by ViewKey.SharedSecret.
func EncryptionSecret(addr common.Address, r group.Scalar) (common.Field, error) {
	point, err := AddressToElement(addr)
	if err != nil {
		return common.Field{}, err
	}
	return XCoordinate(curve.NewElement().Mul(point, r))
}

// RandomScalar draws a non-zero scalar from rng.
func RandomScalar(rng io.Reader) group.Scalar {
	if rng == nil {
		rng = rand.Reader
	}
	return curve.RandomNonZeroScalar(rng)
}
