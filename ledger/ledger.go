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
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	bloomfilter "github.com/holiman/bloomfilter/v2"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/ledgerdb"
	"github.com/probechain/go-shielded/log"
	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/record"
)

// Config contains the tunables of a ledger.
type Config struct {
	CiphertextCache   int    // Megabytes of memory for cached ciphertext blobs
	SerialNumberCache int    // Number of derived serial numbers to memoise
	TagFilterBits     uint64 // Size of the spent-tag bloom filter
	TagFilterHashes   uint64 // Hash functions of the spent-tag bloom filter
	Workers           int    // Goroutines processing records of one query
}

// DefaultConfig contains the default ledger settings.
var DefaultConfig = Config{
	CiphertextCache:   32,
	SerialNumberCache: 4096,
	TagFilterBits:     1 << 23,
	TagFilterHashes:   4,
	Workers:           1,
}

// Validate reports the first setting that is out of range.
func (c *Config) Validate() error {
	switch {
	case c.CiphertextCache < 0:
		return fmt.Errorf("negative ciphertext cache %d", c.CiphertextCache)
	case c.SerialNumberCache < 0:
		return fmt.Errorf("negative serial number cache %d", c.SerialNumberCache)
	case c.TagFilterBits == 0 || c.TagFilterHashes == 0:
		return errors.New("tag filter needs a size and at least one hash")
	case c.Workers < 1:
		return fmt.Errorf("workers %d below one", c.Workers)
	}
	return nil
}

// Ledger holds encrypted records keyed by commitment, the spent serial-number
// index and the spent tag index.
type Ledger struct {
	net *params.Network
	db  ledgerdb.KeyValueStore

	blobs *fastcache.Cache // commitment -> RLP ciphertext

	tagLock sync.RWMutex
	tags    *bloomfilter.Filter // spent tags

	finder *Finder
	log    log.Logger
}

// New opens a ledger over db and rebuilds the spent-tag filter from the tag
// index.
func New(net *params.Network, db ledgerdb.KeyValueStore, cfg *Config) (*Ledger, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tags, err := bloomfilter.New(cfg.TagFilterBits, cfg.TagFilterHashes)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		net:  net,
		db:   db,
		tags: tags,
		log:  log.New("module", "ledger"),
	}
	if cfg.CiphertextCache > 0 {
		l.blobs = fastcache.New(cfg.CiphertextCache * 1024 * 1024)
	}
	if l.finder, err = NewFinder(net, l, l, cfg); err != nil {
		return nil, err
	}

	it := db.NewIterator(tagPrefix, nil)
	defer it.Release()
	var n int
	for it.Next() {
		if len(it.Key()) != len(tagPrefix)+common.FieldLength {
			continue
		}
		l.tags.AddHash(tagHash(common.BytesToField(it.Key()[len(tagPrefix):])))
		n++
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("%w: tag index: %v", ErrStorage, err)
	}
	l.log.Debug("Loaded spent tag index", "tags", n)
	return l, nil
}

func tagHash(tag common.Field) uint64 { return binary.BigEndian.Uint64(tag[:8]) }

// Network returns the parameters the ledger derives under.
func (l *Ledger) Network() *params.Network { return l.net }

// AddRecord stores an encrypted record and returns its commitment.
func (l *Ledger) AddRecord(c *record.Ciphertext) (common.Field, error) {
	cm, err := c.Commitment(l.net)
	if err != nil {
		return common.Field{}, fmt.Errorf("%w: commitment: %v", ErrCryptoDerivation, err)
	}
	blob, err := c.Bytes()
	if err != nil {
		return common.Field{}, err
	}
	if err := l.db.Put(recordKey(cm), blob); err != nil {
		return common.Field{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if l.blobs != nil {
		l.blobs.Set(cm.Bytes(), blob)
	}
	l.log.Trace("Added record", "commitment", cm)
	return cm, nil
}

// Ciphertext returns the stored record with the given commitment.
func (l *Ledger) Ciphertext(commitment common.Field) (*record.Ciphertext, error) {
	if l.blobs != nil {
		if blob, ok := l.blobs.HasGet(nil, commitment.Bytes()); ok {
			return record.Parse(blob)
		}
	}
	blob, err := l.db.Get(recordKey(commitment))
	if errors.Is(err, ledgerdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecord, commitment)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if l.blobs != nil {
		l.blobs.Set(commitment.Bytes(), blob)
	}
	return record.Parse(blob)
}

// MarkSpent adds a serial number and its tag to the spent indexes.
func (l *Ledger) MarkSpent(sn, tag common.Field) error {
	batch := l.db.NewBatch()
	if err := batch.Put(serialNumberKey(sn), nil); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := batch.Put(tagKey(tag), nil); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	l.tagLock.Lock()
	l.tags.AddHash(tagHash(tag))
	l.tagLock.Unlock()
	return nil
}

// SpendRecord marks the record with the given commitment as spent by pk.
func (l *Ledger) SpendRecord(pk *crypto.PrivateKey, commitment common.Field) error {
	has, err := l.db.Has(recordKey(commitment))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !has {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, commitment)
	}
	sn, err := l.finder.SerialNumber(pk, commitment)
	if err != nil {
		return err
	}
	vk, err := pk.ViewKey()
	if err != nil {
		return fmt.Errorf("%w: view key: %v", ErrCryptoDerivation, err)
	}
	gk, err := vk.GraphKey()
	if err != nil {
		return fmt.Errorf("%w: graph key: %v", ErrCryptoDerivation, err)
	}
	tag, err := Tag(gk.SkTag(), commitment)
	if err != nil {
		return err
	}
	if err := l.MarkSpent(sn, tag); err != nil {
		return err
	}
	l.log.Debug("Spent record", "commitment", commitment, "serial", sn)
	return nil
}

// ContainsSerialNumber reports whether sn is in the spent serial-number index.
func (l *Ledger) ContainsSerialNumber(sn common.Field) (bool, error) {
	has, err := l.db.Has(serialNumberKey(sn))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return has, nil
}

// ContainsTag reports whether tag is in the spent tag index. Tags missing from
// the in-memory filter are answered without touching the database.
func (l *Ledger) ContainsTag(tag common.Field) (bool, error) {
	l.tagLock.RLock()
	maybe := l.tags.ContainsHash(tagHash(tag))
	l.tagLock.RUnlock()
	if !maybe {
		return false, nil
	}
	has, err := l.db.Has(tagKey(tag))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return has, nil
}

// NewRecordIterator walks the stored records in commitment order.
func (l *Ledger) NewRecordIterator() SourceIterator {
	return &recordIterator{it: l.db.NewIterator(recordPrefix, nil)}
}

// FindRecords queries the records owned by vk that pass filter.
func (l *Ledger) FindRecords(vk *crypto.ViewKey, filter RecordsFilter) (*RecordIterator, error) {
	return l.finder.FindRecords(vk, filter)
}

// Close releases the caches and closes the database.
func (l *Ledger) Close() error {
	if l.blobs != nil {
		l.blobs.Reset()
	}
	return l.db.Close()
}

// recordIterator adapts a database iterator over the record prefix.
type recordIterator struct {
	it ledgerdb.Iterator
}

func (r *recordIterator) Next() bool { return r.it.Next() }

func (r *recordIterator) Commitment() common.Field {
	return common.BytesToField(r.it.Key()[len(recordPrefix):])
}

func (r *recordIterator) Record() (EncryptedRecord, error) {
	if len(r.it.Key()) != len(recordPrefix)+common.FieldLength {
		return nil, fmt.Errorf("%w: record key of %d bytes", ErrStorage, len(r.it.Key()))
	}
	c, err := record.Parse(r.it.Value())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return c, nil
}

func (r *recordIterator) Error() error { return r.it.Error() }
func (r *recordIterator) Release()     { r.it.Release() }
