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

// Package record implements the encrypted form records are stored in on the
// ledger. A ciphertext hides the owner and the contents of a program.Record
// from everyone except the holder of the owner's view key.
package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
)

var (
	// ErrDecrypt is returned when a ciphertext does not open under a view key.
	ErrDecrypt = errors.New("record: decryption failed")

	// ErrMalformed is returned for ciphertexts that fail to decode.
	ErrMalformed = errors.New("record: malformed ciphertext")
)

// Every record is sealed under keys derived from a fresh nonce, so a fixed
// AEAD nonce never repeats for a key.
var aeadNonce [chacha20poly1305.NonceSize]byte

// sealedOwnerLength is the size of a sealed owner address.
const sealedOwnerLength = common.AddressLength + chacha20poly1305.Overhead

// Ciphertext is an encrypted record. The owner field holds the owner address
// in the clear for public owners and sealed for private ones; the payload is
// the sealed record encoding.
type Ciphertext struct {
	nonce       group.Element // r·G
	ownerPublic bool
	owner       []byte
	payload     []byte
}

// rlpCiphertext is the storage form of a Ciphertext.
type rlpCiphertext struct {
	Nonce       []byte
	OwnerPublic bool
	Owner       []byte
	Payload     []byte
}

// Encrypt encrypts rec to its owner. The balance must fit the balance bits of
// net. The randomness is read from rng, or from crypto/rand when rng is nil.
func Encrypt(net *params.Network, rec *program.Record, rng io.Reader) (*Ciphertext, error) {
	if err := rec.CheckBalance(net); err != nil {
		return nil, err
	}
	addr, ok := program.OwnerAddress(rec.Owner())
	if !ok {
		return nil, fmt.Errorf("%w: record owner is not an address", program.ErrInvalidValue)
	}
	plain, err := program.EncodeRecord(rec)
	if err != nil {
		return nil, err
	}
	r := crypto.RandomScalar(rng)
	secret, err := crypto.EncryptionSecret(addr, r)
	if err != nil {
		return nil, err
	}
	ownerKey, payloadKey, err := deriveKeys(net, secret)
	if err != nil {
		return nil, err
	}

	c := &Ciphertext{
		nonce:       crypto.NewElement().MulGen(r),
		ownerPublic: rec.Owner().Visibility() == program.Public,
	}
	if c.ownerPublic {
		c.owner = common.CopyBytes(addr[:])
	} else if c.owner, err = seal(ownerKey, addr[:]); err != nil {
		return nil, err
	}
	if c.payload, err = seal(payloadKey, plain); err != nil {
		return nil, err
	}
	return c, nil
}

// deriveKeys expands the record view key into the owner and payload keys.
func deriveKeys(net *params.Network, recordViewKey common.Field) (ownerKey, payloadKey []byte, err error) {
	salt := crypto.DomainSeparator(net.RecordViewKeyDomain)
	kdf := hkdf.New(sha3.New256, recordViewKey[:], salt[:], nil)

	keys := make([]byte, 2*chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, keys); err != nil {
		return nil, nil, err
	}
	return keys[:chacha20poly1305.KeySize], keys[chacha20poly1305.KeySize:], nil
}

func seal(key, msg []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, aeadNonce[:], msg, nil), nil
}

func open(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	msg, err := aead.Open(nil, aeadNonce[:], sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return msg, nil
}

// keys recovers the owner and payload keys with a view key.
func (c *Ciphertext) keys(vk *crypto.ViewKey) ([]byte, []byte, error) {
	secret, err := vk.SharedSecret(c.nonce)
	if err != nil {
		return nil, nil, err
	}
	return deriveKeys(vk.Network(), secret)
}

// Nonce returns a copy of the public nonce r·G.
func (c *Ciphertext) Nonce() group.Element { return c.nonce.Copy() }

// OwnerIsPublic reports whether the owner address is stored in the clear.
func (c *Ciphertext) OwnerIsPublic() bool { return c.ownerPublic }

// IsOwner reports whether addr owns the record, using vk to open a private
// owner.
func (c *Ciphertext) IsOwner(addr common.Address, vk *crypto.ViewKey) bool {
	if c.ownerPublic {
		return bytes.Equal(c.owner, addr[:])
	}
	ownerKey, _, err := c.keys(vk)
	if err != nil {
		return false
	}
	owner, err := open(ownerKey, c.owner)
	if err != nil {
		return false
	}
	return bytes.Equal(owner, addr[:])
}

// Decrypt opens the record with the owner's view key.
func (c *Ciphertext) Decrypt(vk *crypto.ViewKey) (*program.Record, error) {
	_, payloadKey, err := c.keys(vk)
	if err != nil {
		return nil, err
	}
	plain, err := open(payloadKey, c.payload)
	if err != nil {
		return nil, err
	}
	rec, err := program.DecodeRecord(vk.Network(), plain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return rec, nil
}

// Commitment returns the record commitment, a BHP commitment to the storage
// form of the ciphertext randomized by a hash of its nonce.
func (c *Ciphertext) Commitment(net *params.Network) (common.Field, error) {
	enc, err := c.Bytes()
	if err != nil {
		return common.Field{}, err
	}
	nonceX, err := crypto.XCoordinate(c.nonce)
	if err != nil {
		return common.Field{}, err
	}
	domain := crypto.DomainSeparator(net.CommitmentDomain)
	randomizer, err := crypto.HashToScalarPSD2(net, domain, nonceX)
	if err != nil {
		return common.Field{}, err
	}
	bits := append(crypto.FieldsToBitsLE(domain), crypto.BytesToBitsLE(enc)...)
	return crypto.CommitBHP512(net, bits, randomizer)
}

// EncodeRLP implements rlp.Encoder.
func (c *Ciphertext) EncodeRLP(w io.Writer) error {
	nonce, err := crypto.EncodeElement(c.nonce)
	if err != nil {
		return err
	}
	return rlp.Encode(w, rlpCiphertext{
		Nonce:       nonce,
		OwnerPublic: c.ownerPublic,
		Owner:       c.owner,
		Payload:     c.payload,
	})
}

// DecodeRLP implements rlp.Decoder.
func (c *Ciphertext) DecodeRLP(s *rlp.Stream) error {
	var dec rlpCiphertext
	if err := s.Decode(&dec); err != nil {
		return err
	}
	nonce, err := crypto.DecodeElement(dec.Nonce)
	if err != nil {
		return fmt.Errorf("%w: nonce: %v", ErrMalformed, err)
	}
	switch {
	case dec.OwnerPublic && len(dec.Owner) != common.AddressLength:
		return fmt.Errorf("%w: public owner of %d bytes", ErrMalformed, len(dec.Owner))
	case !dec.OwnerPublic && len(dec.Owner) != sealedOwnerLength:
		return fmt.Errorf("%w: sealed owner of %d bytes", ErrMalformed, len(dec.Owner))
	case len(dec.Payload) <= chacha20poly1305.Overhead:
		return fmt.Errorf("%w: payload of %d bytes", ErrMalformed, len(dec.Payload))
	}
	c.nonce, c.ownerPublic, c.owner, c.payload = nonce, dec.OwnerPublic, dec.Owner, dec.Payload
	return nil
}

// Bytes returns the RLP storage form of the ciphertext.
func (c *Ciphertext) Bytes() ([]byte, error) { return rlp.EncodeToBytes(c) }

// Parse decodes the RLP storage form of a ciphertext.
func Parse(b []byte) (*Ciphertext, error) {
	c := new(Ciphertext)
	if err := rlp.DecodeBytes(b, c); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}
