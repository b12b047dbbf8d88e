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

// Package dbtest holds the conformance suite every ledgerdb.KeyValueStore
// implementation is tested against.
package dbtest

import (
	"bytes"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/go-shielded/ledgerdb"
)

// TestDatabaseSuite runs a suite of tests against a KeyValueStore database
// implementation.
func TestDatabaseSuite(t *testing.T, New func() ledgerdb.KeyValueStore) {
	t.Run("Iterator", func(t *testing.T) {
		tests := []struct {
			content map[string]string
			prefix  string
			start   string
			order   []string
		}{
			// Empty databases should be iterable
			{map[string]string{}, "", "", nil},
			{map[string]string{}, "non-existent-prefix", "", nil},

			// Single-item databases should be iterable
			{map[string]string{"key": "val"}, "", "", []string{"key"}},
			{map[string]string{"key": "val"}, "k", "", []string{"key"}},
			{map[string]string{"key": "val"}, "l", "", nil},

			// Multi-item databases should be fully iterable
			{
				map[string]string{"k1": "v1", "k5": "v5", "k2": "v2", "k4": "v4", "k3": "v3"},
				"", "",
				[]string{"k1", "k2", "k3", "k4", "k5"},
			},
			// Prefixed and started iteration
			{
				map[string]string{"ka1": "va1", "ka2": "va2", "kb1": "vb1", "kb2": "vb2", "kc1": "vc1"},
				"kb", "",
				[]string{"kb1", "kb2"},
			},
			{
				map[string]string{"ka1": "va1", "ka2": "va2", "kb1": "vb1", "kb2": "vb2", "kc1": "vc1"},
				"kb", "2",
				[]string{"kb2"},
			},
			{
				map[string]string{"ka1": "va1", "ka2": "va2", "kb1": "vb1", "kb2": "vb2", "kc1": "vc1"},
				"", "kb",
				[]string{"kb1", "kb2", "kc1"},
			},
		}
		for i, tt := range tests {
			db := New()
			for key, val := range tt.content {
				require.NoError(t, db.Put([]byte(key), []byte(val)), "test %d", i)
			}
			it := db.NewIterator([]byte(tt.prefix), []byte(tt.start))
			var got []string
			for it.Next() {
				got = append(got, string(it.Key()))
				assert.Equal(t, tt.content[string(it.Key())], string(it.Value()), "test %d", i)
			}
			assert.NoError(t, it.Error(), "test %d", i)
			it.Release()
			assert.Equal(t, tt.order, got, "test %d", i)
			db.Close()
		}
	})

	t.Run("KeyValueOperations", func(t *testing.T) {
		db := New()
		defer db.Close()

		key := []byte("foo")
		got, err := db.Has(key)
		require.NoError(t, err)
		assert.False(t, got)

		_, err = db.Get(key)
		assert.True(t, errors.Is(err, ledgerdb.ErrNotFound))

		value := []byte("hello world")
		require.NoError(t, db.Put(key, value))
		got, err = db.Has(key)
		require.NoError(t, err)
		assert.True(t, got)

		dat, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, dat)

		require.NoError(t, db.Delete(key))
		got, err = db.Has(key)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("Batch", func(t *testing.T) {
		db := New()
		defer db.Close()

		b := db.NewBatch()
		for _, k := range []string{"1", "2", "3", "4"} {
			require.NoError(t, b.Put([]byte(k), nil))
		}
		has, err := db.Has([]byte("1"))
		require.NoError(t, err)
		assert.False(t, has, "batch contents visible before Write")

		require.NoError(t, b.Write())
		assert.Equal(t, []string{"1", "2", "3", "4"}, keys(t, db))

		b.Reset()
		assert.Equal(t, 0, b.ValueSize())

		// Mix writes and deletes in batch
		require.NoError(t, b.Put([]byte("5"), []byte("v")))
		require.NoError(t, b.Delete([]byte("1")))
		require.NoError(t, b.Put([]byte("6"), []byte("v")))
		require.NoError(t, b.Delete([]byte("3")))
		assert.NotZero(t, b.ValueSize())
		require.NoError(t, b.Write())
		assert.Equal(t, []string{"2", "4", "5", "6"}, keys(t, db))
	})

	t.Run("BatchLarge", func(t *testing.T) {
		db := New()
		defer db.Close()

		b := db.NewBatch()
		value := bytes.Repeat([]byte{0xab}, 1024)
		var want []string
		for i := 0; b.ValueSize() < ledgerdb.IdealBatchSize; i++ {
			key := []byte{byte(i >> 8), byte(i)}
			require.NoError(t, b.Put(key, value))
			want = append(want, string(key))
		}
		require.NoError(t, b.Write())
		sort.Strings(want)
		assert.Equal(t, want, keys(t, db))
	})
}

func keys(t *testing.T, db ledgerdb.KeyValueStore) []string {
	t.Helper()
	it := db.NewIterator(nil, nil)
	defer it.Release()

	var out []string
	for it.Next() {
		out = append(out, string(it.Key()))
	}
	require.NoError(t, it.Error())
	return out
}
