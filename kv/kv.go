// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store the pool state is written to.
package kv

// Getter reads values. Get fails for a missing key; IsNotFound tells that
// failure apart.
type Getter interface {
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(error) bool
}

type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// GetPutter is a store that also writes in batches.
type GetPutter interface {
	Getter
	Putter

	NewBatch() Batch
}

type GetPutCloser interface {
	GetPutter
	Close() error
}

// Batch collects writes applied atomically by Write.
type Batch interface {
	Putter

	Len() int
	Write() error
}
