// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb is the goleveldb backed kv store of the pool.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/stakepool/kv"
)

var _ kv.GetPutCloser = (*LevelDB)(nil)

// minimum cache size in MiB and open file handles
const minCache = 16

// Options tunes a persistent store. Sizes are in MiB and file handles.
type Options struct {
	CacheSize              int `yaml:"cache-size"`
	OpenFilesCacheCapacity int `yaml:"open-files"`
}

var (
	writeOpt = &opt.WriteOptions{}
	readOpt  = &opt.ReadOptions{}
)

type LevelDB struct {
	db *leveldb.DB
}

// New opens the store at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}
	return open(stg, opts)
}

// NewMem creates a store that lives until closed.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cache := max(opts.CacheSize, minCache)
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: max(opts.OpenFilesCacheCapacity, minCache),
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db}, nil
}

// IsNotFound reports whether err, possibly wrapped, is a missing key.
func IsNotFound(err error) bool {
	return errors.Cause(err) == leveldb.ErrNotFound
}

func (ldb *LevelDB) IsNotFound(err error) bool { return IsNotFound(err) }

func (ldb *LevelDB) Get(key []byte) ([]byte, error) { return ldb.db.Get(key, readOpt) }

func (ldb *LevelDB) Has(key []byte) (bool, error) { return ldb.db.Has(key, readOpt) }

func (ldb *LevelDB) Put(key, value []byte) error { return ldb.db.Put(key, value, writeOpt) }

func (ldb *LevelDB) Delete(key []byte) error { return ldb.db.Delete(key, writeOpt) }

// Close releases the store. Later calls fail.
func (ldb *LevelDB) Close() error { return ldb.db.Close() }

func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{ldb.db, new(leveldb.Batch)}
}

type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int { return b.b.Len() }

func (b *batch) Write() error { return b.db.Write(b.b, writeOpt) }
