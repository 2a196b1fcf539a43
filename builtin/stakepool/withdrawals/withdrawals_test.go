// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package withdrawals

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(slot.NewContext(state.New(db), nil))
}

func TestWithdrawal_Merge(t *testing.T) {
	svc := newSvc(t)
	addr := thor.BytesToAddress([]byte("acc"))

	w, err := svc.Get(addr)
	require.NoError(t, err)
	assert.True(t, w.IsEmpty())

	w, err = svc.Add(addr, big.NewInt(500_000), 14)
	require.NoError(t, err)
	assert.Equal(t, uint64(14), w.UnlockEpoch)

	// an earlier unlock never shortens the lock
	w, err = svc.Add(addr, big.NewInt(100), 12)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500_100), w.Amount)
	assert.Equal(t, uint64(14), w.UnlockEpoch)

	w, err = svc.Add(addr, big.NewInt(100), 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), w.UnlockEpoch)

	assert.False(t, w.Unlocked(19))
	assert.True(t, w.Unlocked(20))
}

func TestWithdrawal_Sub(t *testing.T) {
	svc := newSvc(t)
	addr := thor.BytesToAddress([]byte("acc"))

	_, err := svc.Add(addr, big.NewInt(1000), 4)
	require.NoError(t, err)

	_, err = svc.Sub(addr, big.NewInt(1001))
	assert.ErrorIs(t, err, reverts.ErrInsufficientUnlockedBalance)

	w, err := svc.Sub(addr, big.NewInt(400))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), w.Amount)

	w, err = svc.Sub(addr, big.NewInt(600))
	require.NoError(t, err)
	assert.True(t, w.IsEmpty())

	w, err = svc.Get(addr)
	require.NoError(t, err)
	assert.True(t, w.IsEmpty())
	assert.Equal(t, uint64(0), w.UnlockEpoch, "record is deleted at zero")
}

func TestWithdrawal_Put(t *testing.T) {
	svc := newSvc(t)
	addr := thor.BytesToAddress([]byte("acc"))

	_, err := svc.Add(addr, big.NewInt(1000), 9)
	require.NoError(t, err)

	require.NoError(t, svc.Put(addr, &Withdrawal{Amount: big.NewInt(300), UnlockEpoch: 4}))
	w, err := svc.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), w.Amount)
	assert.Equal(t, uint64(4), w.UnlockEpoch)

	require.NoError(t, svc.Put(addr, &Withdrawal{}))
	w, err = svc.Get(addr)
	require.NoError(t, err)
	assert.True(t, w.IsEmpty())
	assert.Equal(t, uint64(0), w.UnlockEpoch)
}
