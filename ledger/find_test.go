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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/log"
	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
)

var errFake = errors.New("fake failure")

type fakeRecord struct {
	owned      bool
	rec        *program.Record
	decryptErr error
}

func (r *fakeRecord) IsOwner(common.Address, *crypto.ViewKey) bool { return r.owned }

func (r *fakeRecord) Decrypt(*crypto.ViewKey) (*program.Record, error) {
	if r.decryptErr != nil {
		return nil, r.decryptErr
	}
	return r.rec, nil
}

type fakeItem struct {
	cm  common.Field
	rec EncryptedRecord
	err error
}

type fakeSource struct {
	items    []fakeItem
	walkErr  error
	released int
}

func (s *fakeSource) NewRecordIterator() SourceIterator {
	return &fakeIterator{src: s, pos: -1}
}

type fakeIterator struct {
	src *fakeSource
	pos int
}

func (it *fakeIterator) Next() bool {
	it.pos++
	return it.pos < len(it.src.items)
}
func (it *fakeIterator) Commitment() common.Field         { return it.src.items[it.pos].cm }
func (it *fakeIterator) Record() (EncryptedRecord, error) { return it.src.items[it.pos].rec, it.src.items[it.pos].err }
func (it *fakeIterator) Error() error                     { return it.src.walkErr }
func (it *fakeIterator) Release()                         { it.src.released++ }

// fakeIndex reports every tag and serial number in spent as spent, and fails
// lookups for those in broken.
type fakeIndex struct {
	mu     sync.Mutex
	spent  map[common.Field]bool
	broken map[common.Field]bool
}

func (x *fakeIndex) lookup(k common.Field) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.broken[k] {
		return false, errFake
	}
	return x.spent[k], nil
}

func (x *fakeIndex) ContainsSerialNumber(sn common.Field) (bool, error) { return x.lookup(sn) }
func (x *fakeIndex) ContainsTag(tag common.Field) (bool, error)         { return x.lookup(tag) }

// captureWarnings counts warnings logged while the test runs.
func captureWarnings(t *testing.T) func() int {
	var (
		mu sync.Mutex
		n  int
	)
	prev := log.Root().GetHandler()
	log.Root().SetHandler(log.FuncHandler(func(r *log.Record) error {
		if r.Lvl == log.LvlWarn {
			mu.Lock()
			n++
			mu.Unlock()
		}
		return nil
	}))
	t.Cleanup(func() { log.Root().SetHandler(prev) })
	return func() int {
		mu.Lock()
		defer mu.Unlock()
		return n
	}
}

func ownedRecord(t *testing.T, balance uint64) *fakeRecord {
	rec, err := program.NewRecord(program.PublicOwner{}, program.PublicBalance{Value: balance}, nil)
	require.NoError(t, err)
	return &fakeRecord{owned: true, rec: rec}
}

func TestFinderSkipsFailures(t *testing.T) {
	alice := newAccount(t, 1)
	gk, err := alice.vk.GraphKey()
	require.NoError(t, err)

	var (
		cms   = make([]common.Field, 6)
		index = &fakeIndex{spent: map[common.Field]bool{}, broken: map[common.Field]bool{}}
	)
	for i := range cms {
		cms[i] = common.Uint64ToField(uint64(i + 1))
	}
	brokenTag, err := Tag(gk.SkTag(), cms[2])
	require.NoError(t, err)
	index.broken[brokenTag] = true

	src := &fakeSource{items: []fakeItem{
		{cm: cms[0], rec: ownedRecord(t, 1)},
		{cm: cms[1], err: errFake},                                       // unreadable
		{cm: cms[2], rec: ownedRecord(t, 3)},                             // index failure
		{cm: cms[3], rec: &fakeRecord{decryptErr: errFake, owned: true}}, // decryption failure
		{cm: cms[4], rec: &fakeRecord{owned: false}},                     // not ours
		{cm: cms[5], rec: ownedRecord(t, 6)},
	}}

	for _, workers := range []int{1, 3} {
		warnings := captureWarnings(t)
		f, err := NewFinder(params.Testnet, src, index, &Config{Workers: workers})
		require.NoError(t, err)
		it, err := f.FindRecords(alice.vk, FilterUnspent())
		require.NoError(t, err)
		found, err := it.Collect()
		require.NoError(t, err)

		assert.Equal(t, []common.Field{cms[0], cms[5]}, commitments(found), "workers=%d", workers)
		assert.Equal(t, 3, warnings(), "workers=%d", workers)
	}
}

func TestFinderPreservesOrder(t *testing.T) {
	alice := newAccount(t, 1)
	src := &fakeSource{}
	var want []common.Field
	for i := 0; i < 50; i++ {
		cm := common.Uint64ToField(uint64(i))
		rec := ownedRecord(t, uint64(i))
		if i%3 == 0 {
			rec.owned = false
		} else {
			want = append(want, cm)
		}
		src.items = append(src.items, fakeItem{cm: cm, rec: rec})
	}
	f, err := NewFinder(params.Testnet, src, &fakeIndex{}, &Config{Workers: 8})
	require.NoError(t, err)
	it, err := f.FindRecords(alice.vk, FilterAll())
	require.NoError(t, err)
	found, err := it.Collect()
	require.NoError(t, err)
	assert.Equal(t, want, commitments(found))
	for _, fr := range found {
		balance, _ := program.BalanceValue(fr.Record.Balance())
		assert.Equal(t, fr.Commitment, common.Uint64ToField(balance))
	}
}

func TestFinderSourceError(t *testing.T) {
	alice := newAccount(t, 1)
	src := &fakeSource{
		items:   []fakeItem{{cm: common.Uint64ToField(1), rec: ownedRecord(t, 1)}},
		walkErr: errFake,
	}
	f, err := NewFinder(params.Testnet, src, &fakeIndex{}, nil)
	require.NoError(t, err)
	it, err := f.FindRecords(alice.vk, FilterAll())
	require.NoError(t, err)
	found, err := it.Collect()
	assert.True(t, errors.Is(err, ErrStorage), "%v", err)
	assert.Len(t, found, 1)
	assert.Equal(t, 1, src.released)
}

func TestFinderRelease(t *testing.T) {
	alice := newAccount(t, 1)
	src := &fakeSource{}
	for i := 0; i < 5; i++ {
		src.items = append(src.items, fakeItem{cm: common.Uint64ToField(uint64(i)), rec: ownedRecord(t, 1)})
	}
	f, err := NewFinder(params.Testnet, src, &fakeIndex{}, nil)
	require.NoError(t, err)
	it, err := f.FindRecords(alice.vk, FilterAll())
	require.NoError(t, err)

	require.True(t, it.Next())
	assert.Equal(t, common.Uint64ToField(0), it.Commitment())
	it.Release()
	it.Release()
	assert.Equal(t, 1, src.released)
	assert.False(t, it.Next())
	assert.Nil(t, it.Record())
	assert.NoError(t, it.Error())
}

func TestFinderFilters(t *testing.T) {
	alice := newAccount(t, 1)
	cms := []common.Field{common.Uint64ToField(1), common.Uint64ToField(2)}
	src := &fakeSource{items: []fakeItem{
		{cm: cms[0], rec: ownedRecord(t, 1)},
		{cm: cms[1], rec: ownedRecord(t, 2)},
	}}
	sn, err := SerialNumber(params.Testnet, alice.pk, cms[1])
	require.NoError(t, err)
	index := &fakeIndex{spent: map[common.Field]bool{sn: true}}

	f, err := NewFinder(params.Testnet, src, index, nil)
	require.NoError(t, err)
	collect := func(filter RecordsFilter) []common.Field {
		it, err := f.FindRecords(alice.vk, filter)
		require.NoError(t, err)
		found, err := it.Collect()
		require.NoError(t, err)
		return commitments(found)
	}
	assert.Equal(t, []common.Field{cms[1]}, collect(FilterSlowSpent(alice.pk)))
	assert.Equal(t, []common.Field{cms[0]}, collect(FilterSlowUnspent(alice.pk)))
	// The tag index knows nothing, so every record is unspent by tag.
	assert.Equal(t, cms, collect(FilterUnspent()))
	assert.Empty(t, collect(FilterSpent()))

	_, err = f.FindRecords(alice.vk, RecordsFilter{kind: filterSlowSpent})
	assert.True(t, errors.Is(err, ErrCryptoDerivation))
}

func TestParseFilter(t *testing.T) {
	alice := newAccount(t, 1)
	for _, name := range []string{"all", "spent", "unspent", "slow-spent", "slow-unspent"} {
		f, ok := ParseFilter(name, alice.pk)
		require.True(t, ok, name)
		assert.Equal(t, name, f.String())
	}
	_, ok := ParseFilter("slow-spent", nil)
	assert.False(t, ok)
	_, ok = ParseFilter("recent", alice.pk)
	assert.False(t, ok)

	f, ok := ParseFilter("spent", nil)
	require.True(t, ok)
	assert.Nil(t, f.pk)
}
