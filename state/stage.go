// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/thor"
)

// Stage abstracts changes pending on the kv store.
type Stage struct {
	db      kv.GetPutter
	changes map[thor.Bytes32]rlp.RawValue
}

// Len returns the number of changed keys.
func (s *Stage) Len() int {
	return len(s.changes)
}

// Commit applies all changes atomically.
func (s *Stage) Commit() error {
	if len(s.changes) == 0 {
		return nil
	}
	batch := s.db.NewBatch()
	for key, value := range s.changes {
		var err error
		if len(value) == 0 {
			err = batch.Delete(key[:])
		} else {
			err = batch.Put(key[:], value)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
