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
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	"github.com/probechain/go-shielded/common"
	"github.com/probechain/go-shielded/crypto"
	"github.com/probechain/go-shielded/log"
	"github.com/probechain/go-shielded/params"
	"github.com/probechain/go-shielded/program"
)

// ---- Collaborators ---------------------------------------------------------

// EncryptedRecord is a record as held by a record source.
type EncryptedRecord interface {
	IsOwner(addr common.Address, vk *crypto.ViewKey) bool
	Decrypt(vk *crypto.ViewKey) (*program.Record, error)
}

// SourceIterator walks the (commitment, encrypted record) pairs of a record
// source in a fixed order. Record reports records that cannot be read; Error
// reports a failure of the walk itself.
type SourceIterator interface {
	Next() bool
	Commitment() common.Field
	Record() (EncryptedRecord, error)
	Error() error
	Release()
}

// RecordSource enumerates the records of a ledger.
type RecordSource interface {
	NewRecordIterator() SourceIterator
}

// SpentIndex answers membership queries against the spent indexes.
type SpentIndex interface {
	ContainsSerialNumber(sn common.Field) (bool, error)
	ContainsTag(tag common.Field) (bool, error)
}

// ---- Finder ----------------------------------------------------------------

// Finder runs record queries over a record source.
type Finder struct {
	net     *params.Network
	source  RecordSource
	spent   SpentIndex
	workers int
	serials *lru.Cache // (seed, commitment) -> serial number
	log     log.Logger
}

type serialKey struct {
	seed, commitment common.Field
}

// NewFinder returns a finder over source and spent. Per-record work is spread
// over cfg.Workers goroutines and derived serial numbers are memoised in a
// cache of cfg.SerialNumberCache entries.
func NewFinder(net *params.Network, source RecordSource, spent SpentIndex, cfg *Config) (*Finder, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	f := &Finder{
		net:     net,
		source:  source,
		spent:   spent,
		workers: cfg.Workers,
		log:     log.New("module", "ledger"),
	}
	if f.workers < 1 {
		f.workers = 1
	}
	if cfg.SerialNumberCache > 0 {
		cache, err := lru.New(cfg.SerialNumberCache)
		if err != nil {
			return nil, err
		}
		f.serials = cache
	}
	return f, nil
}

// SerialNumber derives the serial number of a record under pk, consulting the
// memo first.
func (f *Finder) SerialNumber(pk *crypto.PrivateKey, commitment common.Field) (common.Field, error) {
	key := serialKey{pk.Seed(), commitment}
	if f.serials != nil {
		if sn, ok := f.serials.Get(key); ok {
			return sn.(common.Field), nil
		}
	}
	sn, err := SerialNumber(f.net, pk, commitment)
	if err != nil {
		return common.Field{}, err
	}
	if f.serials != nil {
		f.serials.Add(key, sn)
	}
	return sn, nil
}

// FindRecords starts a query for the records owned by vk that pass filter.
// The query reads the source lazily; calling FindRecords again scans the
// source's current state afresh.
func (f *Finder) FindRecords(vk *crypto.ViewKey, filter RecordsFilter) (*RecordIterator, error) {
	addr, err := vk.Address()
	if err != nil {
		return nil, fmt.Errorf("%w: address: %v", ErrCryptoDerivation, err)
	}
	gk, err := vk.GraphKey()
	if err != nil {
		return nil, fmt.Errorf("%w: graph key: %v", ErrCryptoDerivation, err)
	}
	if filter.isSlow() && filter.pk == nil {
		return nil, fmt.Errorf("%w: %s filter without a private key", ErrCryptoDerivation, filter)
	}
	q := &query{
		f:      f,
		vk:     vk,
		addr:   addr,
		skTag:  gk.SkTag(),
		filter: filter,
		log:    f.log.New("query", uuid.New().String(), "filter", filter),
	}
	window := 1
	if f.workers > 1 {
		window = 4 * f.workers
	}
	q.log.Debug("Starting record query", "workers", f.workers)
	return &RecordIterator{q: q, src: f.source.NewRecordIterator(), window: window}, nil
}

// ---- Query pipeline --------------------------------------------------------

type query struct {
	f      *Finder
	vk     *crypto.ViewKey
	addr   common.Address
	skTag  common.Field
	filter RecordsFilter
	log    log.Logger
}

// keep applies the filter to a record.
func (q *query) keep(commitment common.Field) (bool, error) {
	var spent bool
	switch q.filter.kind {
	case filterAll:
		return true, nil
	case filterSlowSpent, filterSlowUnspent:
		sn, err := q.f.SerialNumber(q.filter.pk, commitment)
		if err != nil {
			return false, err
		}
		if spent, err = q.f.spent.ContainsSerialNumber(sn); err != nil {
			return false, fmt.Errorf("%w: serial number index: %v", ErrStorage, err)
		}
	case filterSpent, filterUnspent:
		tag, err := Tag(q.skTag, commitment)
		if err != nil {
			return false, err
		}
		if spent, err = q.f.spent.ContainsTag(tag); err != nil {
			return false, fmt.Errorf("%w: tag index: %v", ErrStorage, err)
		}
	}
	return spent == q.filter.wantSpent(), nil
}

// process runs one record through the filter, the ownership check and
// decryption. Failures are logged and the record is dropped.
func (q *query) process(item *sourceItem) *program.Record {
	if item.err != nil {
		q.log.Warn("Skipping unreadable record", "commitment", item.commitment, "err", item.err)
		return nil
	}
	keep, err := q.keep(item.commitment)
	if err != nil {
		q.log.Warn("Skipping record that failed the filter", "commitment", item.commitment, "err", err)
		return nil
	}
	if !keep || !item.record.IsOwner(q.addr, q.vk) {
		return nil
	}
	rec, err := item.record.Decrypt(q.vk)
	if err != nil {
		q.log.Warn("Skipping record that failed to decrypt", "commitment", item.commitment, "err", err)
		return nil
	}
	return rec
}

type sourceItem struct {
	commitment common.Field
	record     EncryptedRecord
	err        error
}

// Found is a record yielded by a query.
type Found struct {
	Commitment common.Field
	Record     *program.Record
}

// RecordIterator yields the records of a query in source order. It is not
// safe for concurrent use.
type RecordIterator struct {
	q      *query
	src    SourceIterator
	window int

	pending []Found
	cur     Found
	done    bool
	err     error
}

// Next advances to the next matching record. It returns false once the source
// is exhausted or failed; Error tells the two apart.
func (it *RecordIterator) Next() bool {
	for len(it.pending) == 0 {
		if it.done {
			it.cur = Found{}
			return false
		}
		it.fill()
	}
	it.cur, it.pending = it.pending[0], it.pending[1:]
	return true
}

// fill reads the next window of source records and processes them, in
// parallel when the finder has more than one worker.
func (it *RecordIterator) fill() {
	items := make([]*sourceItem, 0, it.window)
	for len(items) < it.window {
		if !it.src.Next() {
			it.finish()
			break
		}
		item := &sourceItem{commitment: it.src.Commitment()}
		item.record, item.err = it.src.Record()
		items = append(items, item)
	}
	results := make([]*program.Record, len(items))
	if len(items) > 1 {
		var g errgroup.Group
		g.SetLimit(it.q.f.workers)
		for i, item := range items {
			g.Go(func() error {
				results[i] = it.q.process(item)
				return nil
			})
		}
		g.Wait()
	} else if len(items) == 1 {
		results[0] = it.q.process(items[0])
	}
	for i, rec := range results {
		if rec != nil {
			it.pending = append(it.pending, Found{Commitment: items[i].commitment, Record: rec})
		}
	}
}

func (it *RecordIterator) finish() {
	if err := it.src.Error(); err != nil {
		it.err = fmt.Errorf("%w: %v", ErrStorage, err)
		it.q.log.Error("Record query aborted", "err", err)
	}
	it.src.Release()
	it.done = true
}

// Commitment returns the commitment of the current record.
func (it *RecordIterator) Commitment() common.Field { return it.cur.Commitment }

// Record returns the current decrypted record.
func (it *RecordIterator) Record() *program.Record { return it.cur.Record }

// Error returns the error that stopped the walk over the source, if any.
// Records skipped by the pipeline are not errors.
func (it *RecordIterator) Error() error { return it.err }

// Release stops the query and frees the source iterator. It may be called at
// any point and more than once.
func (it *RecordIterator) Release() {
	if !it.done {
		it.src.Release()
		it.done = true
	}
	it.pending = nil
}

// Collect drains the iterator.
func (it *RecordIterator) Collect() ([]Found, error) {
	defer it.Release()
	var out []Found
	for it.Next() {
		out = append(out, Found{Commitment: it.Commitment(), Record: it.Record()})
	}
	return out, it.Error()
}
