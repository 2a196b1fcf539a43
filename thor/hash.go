// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"sync"

	"github.com/ethereum/go-ethereum/crypto/blake2b"
)

var hashers = sync.Pool{
	New: func() any {
		h, _ := blake2b.New256(nil)
		return h
	},
}

// Blake2b hashes the concatenation of data into a storage position.
func Blake2b(data ...[]byte) (pos Bytes32) {
	if len(data) == 1 {
		return blake2b.Sum256(data[0])
	}
	h := hashers.Get().(interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
		Reset()
	})
	for _, b := range data {
		h.Write(b)
	}
	h.Sum(pos[:0])
	h.Reset()
	hashers.Put(h)
	return
}
