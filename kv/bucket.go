// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "sync"

// Bucket is a key prefix carving a logical store out of a shared one.
type Bucket string

func (b Bucket) withKey(fn func(key []byte) error, key []byte) error {
	buf := bufPool.Get().(*buf)
	defer bufPool.Put(buf)
	buf.k = append(append(buf.k[:0], b...), key...)
	return fn(buf.k)
}

// NewPutter prefixes every write to src.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) error {
			return b.withKey(func(k []byte) error { return src.Put(k, val) }, key)
		},
		func(key []byte) error {
			return b.withKey(src.Delete, key)
		},
	}
}

// NewGetPutter prefixes every read and write to src, batches included.
func (b Bucket) NewGetPutter(src GetPutter) GetPutter {
	return &struct {
		GetFunc
		HasFunc
		IsNotFoundFunc
		Putter
		NewBatchFunc
	}{
		func(key []byte) (val []byte, err error) {
			err = b.withKey(func(k []byte) (e error) {
				val, e = src.Get(k)
				return
			}, key)
			return
		},
		func(key []byte) (has bool, err error) {
			err = b.withKey(func(k []byte) (e error) {
				has, e = src.Has(k)
				return
			}, key)
			return
		},
		src.IsNotFound,
		b.NewPutter(src),
		func() Batch {
			batch := src.NewBatch()
			return &struct {
				Putter
				LenFunc
				WriteFunc
			}{
				b.NewPutter(batch),
				batch.Len,
				batch.Write,
			}
		},
	}
}

type buf struct {
	k []byte
}

var bufPool = sync.Pool{
	New: func() any {
		return &buf{}
	},
}
