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
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/ledgerdb/leveldb"
	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
	"github.com/probechain/go-shielded/record"
)

type account struct {
	pk   *crypto.PrivateKey
	vk   *crypto.ViewKey
	addr common.Address
}

func newAccount(t *testing.T, seed byte) account {
	t.Helper()
	pk, err := crypto.PrivateKeyFromSeed(params.Testnet, common.BytesToField([]byte{seed}))
	require.NoError(t, err)
	vk, err := pk.ViewKey()
	require.NoError(t, err)
	addr, err := vk.Address()
	require.NoError(t, err)
	return account{pk: pk, vk: vk, addr: addr}
}

func newLedger(t *testing.T, cfg *Config) *Ledger {
	t.Helper()
	db, err := leveldb.NewMemory()
	require.NoError(t, err)
	l, err := New(params.Testnet, db, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func newRecord(t *testing.T, owner common.Address, balance uint64) *program.Record {
	t.Helper()
	rec, err := program.NewRecord(
		program.PrivateOwner{Value: program.NewAddress(owner)},
		program.PrivateBalance{Value: program.NewU64(balance)},
		nil,
	)
	require.NoError(t, err)
	return rec
}

// addRecord encrypts rec to its owner and stores it.
func addRecord(t *testing.T, l *Ledger, rec *program.Record) common.Field {
	t.Helper()
	c, err := record.Encrypt(params.Testnet, rec, nil)
	require.NoError(t, err)
	cm, err := l.AddRecord(c)
	require.NoError(t, err)
	return cm
}

func find(t *testing.T, l *Ledger, vk *crypto.ViewKey, filter RecordsFilter) []Found {
	t.Helper()
	it, err := l.FindRecords(vk, filter)
	require.NoError(t, err)
	found, err := it.Collect()
	require.NoError(t, err)
	return found
}

func commitments(found []Found) []common.Field {
	out := make([]common.Field, len(found))
	for i, f := range found {
		out[i] = f.Commitment
	}
	return out
}

func TestFindUnspentRecord(t *testing.T) {
	l := newLedger(t, nil)
	alice := newAccount(t, 1)
	r1 := newRecord(t, alice.addr, 100)
	cm := addRecord(t, l, r1)

	for _, filter := range []RecordsFilter{FilterUnspent(), FilterSlowUnspent(alice.pk), FilterAll()} {
		found := find(t, l, alice.vk, filter)
		require.Len(t, found, 1, filter.String())
		assert.Equal(t, cm, found[0].Commitment)
		assert.True(t, r1.Equal(found[0].Record), "%s: %s", filter, found[0].Record)
	}
	assert.Empty(t, find(t, l, alice.vk, FilterSpent()))
	assert.Empty(t, find(t, l, alice.vk, FilterSlowSpent(alice.pk)))
}

func TestSpendRecord(t *testing.T) {
	l := newLedger(t, nil)
	alice := newAccount(t, 1)
	r1 := newRecord(t, alice.addr, 100)
	cm := addRecord(t, l, r1)

	require.NoError(t, l.SpendRecord(alice.pk, cm))

	sn, err := SerialNumber(params.Testnet, alice.pk, cm)
	require.NoError(t, err)
	spent, err := l.ContainsSerialNumber(sn)
	require.NoError(t, err)
	assert.True(t, spent)

	for _, filter := range []RecordsFilter{FilterSpent(), FilterSlowSpent(alice.pk)} {
		found := find(t, l, alice.vk, filter)
		require.Len(t, found, 1, filter.String())
		assert.Equal(t, cm, found[0].Commitment)
	}
	assert.Empty(t, find(t, l, alice.vk, FilterUnspent()))
	assert.Empty(t, find(t, l, alice.vk, FilterSlowUnspent(alice.pk)))

	err = l.SpendRecord(alice.pk, common.Uint64ToField(1))
	assert.True(t, errors.Is(err, ErrUnknownRecord))
}

func TestSpentUnspentPartition(t *testing.T) {
	for _, workers := range []int{1, 4} {
		cfg := DefaultConfig
		cfg.Workers = workers
		l := newLedger(t, &cfg)
		alice, bob := newAccount(t, 1), newAccount(t, 2)

		var aliceCms []common.Field
		for i := 0; i < 6; i++ {
			aliceCms = append(aliceCms, addRecord(t, l, newRecord(t, alice.addr, uint64(i+1))))
			if i%2 == 0 {
				cm := addRecord(t, l, newRecord(t, bob.addr, 7))
				require.NoError(t, l.SpendRecord(bob.pk, cm))
			}
		}
		for _, i := range []int{0, 2, 5} {
			require.NoError(t, l.SpendRecord(alice.pk, aliceCms[i]))
		}

		all := commitments(find(t, l, alice.vk, FilterAll()))
		spent := commitments(find(t, l, alice.vk, FilterSpent()))
		unspent := commitments(find(t, l, alice.vk, FilterUnspent()))
		require.Len(t, all, 6, "workers=%d", workers)
		assert.Len(t, spent, 3)
		assert.Len(t, unspent, 3)

		// Both results are subsequences of the unfiltered scan and together
		// cover it exactly once.
		var si, ui int
		for _, cm := range all {
			switch {
			case si < len(spent) && spent[si] == cm:
				si++
			case ui < len(unspent) && unspent[ui] == cm:
				ui++
			default:
				t.Fatalf("workers=%d: commitment %s missing or out of order", workers, cm)
			}
		}
		assert.Equal(t, len(spent), si)
		assert.Equal(t, len(unspent), ui)

		assert.Equal(t, spent, commitments(find(t, l, alice.vk, FilterSlowSpent(alice.pk))))
		assert.Equal(t, unspent, commitments(find(t, l, alice.vk, FilterSlowUnspent(alice.pk))))
		assert.Len(t, find(t, l, bob.vk, FilterSpent()), 3)
		assert.Empty(t, find(t, l, bob.vk, FilterUnspent()))
	}
}

func TestFindRestartable(t *testing.T) {
	l := newLedger(t, nil)
	alice := newAccount(t, 1)
	addRecord(t, l, newRecord(t, alice.addr, 1))

	first := find(t, l, alice.vk, FilterUnspent())
	again := find(t, l, alice.vk, FilterUnspent())
	assert.Equal(t, commitments(first), commitments(again))

	addRecord(t, l, newRecord(t, alice.addr, 2))
	assert.Len(t, find(t, l, alice.vk, FilterUnspent()), 2)
}

func TestPublicOwnerRecords(t *testing.T) {
	l := newLedger(t, nil)
	alice, bob := newAccount(t, 1), newAccount(t, 2)
	rec, err := program.NewRecord(program.PublicOwner{Address: alice.addr}, program.PublicBalance{Value: 5}, nil)
	require.NoError(t, err)
	addRecord(t, l, rec)

	found := find(t, l, alice.vk, FilterAll())
	require.Len(t, found, 1)
	assert.True(t, rec.Equal(found[0].Record))
	assert.Empty(t, find(t, l, bob.vk, FilterAll()))
}

func TestOversizedBalanceSkipped(t *testing.T) {
	l := newLedger(t, nil)
	alice := newAccount(t, 1)
	warnings := captureWarnings(t)

	wide := params.Testnet.Copy()
	wide.BalanceBits = 64
	c, err := record.Encrypt(wide, newRecord(t, alice.addr, 1<<params.Testnet.BalanceBits), nil)
	require.NoError(t, err)
	_, err = l.AddRecord(c)
	require.NoError(t, err)
	cm := addRecord(t, l, newRecord(t, alice.addr, 1<<params.Testnet.BalanceBits-1))

	assert.Equal(t, []common.Field{cm}, commitments(find(t, l, alice.vk, FilterAll())))
	assert.Equal(t, 1, warnings())
}

func TestTagFilterRebuilt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")
	alice := newAccount(t, 1)

	db, err := leveldb.New(dir, 0, 0, "test", false)
	require.NoError(t, err)
	l, err := New(params.Testnet, db, nil)
	require.NoError(t, err)
	cm := addRecord(t, l, newRecord(t, alice.addr, 3))
	require.NoError(t, l.SpendRecord(alice.pk, cm))
	require.NoError(t, l.Close())

	db, err = leveldb.New(dir, 0, 0, "test", false)
	require.NoError(t, err)
	l, err = New(params.Testnet, db, nil)
	require.NoError(t, err)
	defer l.Close()

	gk, err := alice.vk.GraphKey()
	require.NoError(t, err)
	tag, err := Tag(gk.SkTag(), cm)
	require.NoError(t, err)
	has, err := l.ContainsTag(tag)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Len(t, find(t, l, alice.vk, FilterSpent()), 1)

	other, err := Tag(gk.SkTag(), common.Uint64ToField(9))
	require.NoError(t, err)
	has, err = l.ContainsTag(other)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCiphertextLookup(t *testing.T) {
	for _, cache := range []int{0, 1} {
		cfg := DefaultConfig
		cfg.CiphertextCache = cache
		l := newLedger(t, &cfg)
		alice := newAccount(t, 1)

		c, err := record.Encrypt(params.Testnet, newRecord(t, alice.addr, 8), nil)
		require.NoError(t, err)
		cm, err := l.AddRecord(c)
		require.NoError(t, err)

		got, err := l.Ciphertext(cm)
		require.NoError(t, err)
		want, err := c.Bytes()
		require.NoError(t, err)
		enc, err := got.Bytes()
		require.NoError(t, err)
		assert.Equal(t, want, enc)

		_, err = l.Ciphertext(common.Uint64ToField(1))
		assert.True(t, errors.Is(err, ErrUnknownRecord))
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig.Validate())

	tests := map[string]func(c *Config){
		"cache":   func(c *Config) { c.CiphertextCache = -1 },
		"serials": func(c *Config) { c.SerialNumberCache = -1 },
		"bits":    func(c *Config) { c.TagFilterBits = 0 },
		"hashes":  func(c *Config) { c.TagFilterHashes = 0 },
		"workers": func(c *Config) { c.Workers = 0 },
	}
	for name, mutate := range tests {
		cfg := DefaultConfig
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)

		db, err := leveldb.NewMemory()
		require.NoError(t, err)
		_, err = New(params.Testnet, db, &cfg)
		assert.Error(t, err, name)
		db.Close()
	}
}

func TestDerivations(t *testing.T) {
	alice, bob := newAccount(t, 1), newAccount(t, 2)
	cm1, cm2 := common.Uint64ToField(1), common.Uint64ToField(2)

	sn1, err := SerialNumber(params.Testnet, alice.pk, cm1)
	require.NoError(t, err)
	again, err := SerialNumber(params.Testnet, alice.pk, cm1)
	require.NoError(t, err)
	assert.Equal(t, sn1, again)

	sn2, err := SerialNumber(params.Testnet, alice.pk, cm2)
	require.NoError(t, err)
	assert.NotEqual(t, sn1, sn2)
	sn3, err := SerialNumber(params.Testnet, bob.pk, cm1)
	require.NoError(t, err)
	assert.NotEqual(t, sn1, sn3)

	gk, err := alice.vk.GraphKey()
	require.NoError(t, err)
	t1, err := Tag(gk.SkTag(), cm1)
	require.NoError(t, err)
	t2, err := Tag(gk.SkTag(), cm2)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
	assert.NotEqual(t, t1, sn1)

	f, err := NewFinder(params.Testnet, nil, nil, nil)
	require.NoError(t, err)
	memo, err := f.SerialNumber(alice.pk, cm1)
	require.NoError(t, err)
	assert.Equal(t, sn1, memo)
	memo, err = f.SerialNumber(alice.pk, cm1)
	require.NoError(t, err)
	assert.Equal(t, sn1, memo)
	assert.Equal(t, 1, f.serials.Len())
}
