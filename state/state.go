// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/stackedmap"
	"github.com/vechain/stakepool/thor"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Cause returns the underlying error.
func (e *Error) Cause() error {
	return e.cause
}

// State manages the pool storage.
// Writes are kept in revisions on top of the kv store until Commit.
// An empty value marks a deleted key.
type State struct {
	db kv.GetPutter
	sm *stackedmap.StackedMap[thor.Bytes32, rlp.RawValue] // keeps revisions of storage
}

// New create state object.
func New(db kv.GetPutter) *State {
	state := State{db: db}
	state.sm = stackedmap.New(state.dbGetter)
	state.sm.Push()
	return &state
}

// dbGetter implements stackedmap.MapGetter.
func (s *State) dbGetter(key thor.Bytes32) (rlp.RawValue, bool, error) {
	v, err := s.db.Get(key[:])
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

// GetRawStorage returns storage value in rlp raw for given key.
func (s *State) GetRawStorage(key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(key)
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(key, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage collects the latest value of every key written since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[thor.Bytes32]rlp.RawValue)
	for _, entry := range s.sm.Journal() {
		changes[entry.Key] = entry.Value
	}
	return &Stage{db: s.db, changes: changes}
}

// Commit writes all changes into the kv store in one batch and
// drops the revisions.
func (s *State) Commit() error {
	if err := s.Stage().Commit(); err != nil {
		return err
	}
	s.sm.PopTo(0)
	s.sm.Push()
	return nil
}
