// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shares

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

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(slot.NewContext(state.New(db), nil))
}

func assertTotalShares(t *testing.T, svc *Service, expected int64, accounts ...thor.Address) {
	totals, err := svc.Totals()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(expected), totals.Shares)

	sum := new(big.Int)
	for _, addr := range accounts {
		bal, err := svc.Balance(addr)
		require.NoError(t, err)
		sum.Add(sum, bal)
	}
	assert.Equal(t, totals.Shares, sum, "sum of balances must equal total shares")
}

func TestService_Empty(t *testing.T) {
	svc := newSvc(t)

	totals, err := svc.Totals()
	require.NoError(t, err)
	assert.Equal(t, 0, totals.StakedValue.Sign())
	assert.Equal(t, 0, totals.Shares.Sign())
	assert.Equal(t, 0, totals.UnstakedAvailable.Sign())

	acc, err := svc.GetAccount(alice)
	require.NoError(t, err)
	assert.True(t, acc.IsEmpty())

	exists, err := svc.Exists(alice)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestService_CreditDebit(t *testing.T) {
	svc := newSvc(t)

	require.NoError(t, svc.Credit(alice, big.NewInt(990_000)))
	require.NoError(t, svc.Credit(bob, big.NewInt(10_000)))
	assertTotalShares(t, svc, 1_000_000, alice, bob)

	require.NoError(t, svc.Debit(alice, big.NewInt(90_000)))
	assertTotalShares(t, svc, 910_000, alice, bob)

	err := svc.Debit(bob, big.NewInt(10_001))
	assert.ErrorIs(t, err, reverts.ErrInsufficientShares)
	assertTotalShares(t, svc, 910_000, alice, bob)

	assert.ErrorIs(t, svc.Credit(alice, big.NewInt(-1)), reverts.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Credit(alice, thor.MaxAmount), reverts.ErrInvalidAmount)
}

func TestService_HoldReleaseRevoke(t *testing.T) {
	svc := newSvc(t)

	require.NoError(t, svc.Credit(alice, big.NewInt(100)))
	require.NoError(t, svc.Hold(alice, big.NewInt(50)))
	assertTotalShares(t, svc, 150, alice)

	acc, err := svc.GetAccount(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), acc.Spendable())

	// unconfirmed shares cannot be spent
	assert.ErrorIs(t, svc.Debit(alice, big.NewInt(101)), reverts.ErrInsufficientShares)

	require.NoError(t, svc.Release(alice, big.NewInt(20)))
	acc, _ = svc.GetAccount(alice)
	assert.Equal(t, big.NewInt(120), acc.Spendable())

	require.NoError(t, svc.Revoke(alice, big.NewInt(30)))
	assertTotalShares(t, svc, 120, alice)
	acc, _ = svc.GetAccount(alice)
	assert.Equal(t, 0, acc.Unconfirmed.Sign())

	assert.ErrorIs(t, svc.Revoke(alice, big.NewInt(1)), reverts.ErrUnderflow)
	assert.ErrorIs(t, svc.Release(alice, big.NewInt(1)), reverts.ErrUnderflow)
}

func TestService_AdjustValues(t *testing.T) {
	svc := newSvc(t)

	require.NoError(t, svc.AdjustStakedValue(big.NewInt(1_000_000)))
	require.NoError(t, svc.AdjustStakedValue(big.NewInt(-500_000)))
	require.NoError(t, svc.AdjustUnstaked(big.NewInt(500_000)))

	err := svc.AdjustStakedValue(big.NewInt(-500_001))
	assert.ErrorIs(t, err, reverts.ErrUnderflow)
	err = svc.AdjustUnstaked(new(big.Int).Add(thor.MaxAmount, big.NewInt(1)))
	assert.ErrorIs(t, err, reverts.ErrInvalidAmount)

	totals, err := svc.Totals()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500_000), totals.StakedValue)
	assert.Equal(t, big.NewInt(500_000), totals.UnstakedAvailable)
}

func TestService_Registration(t *testing.T) {
	svc := newSvc(t)

	require.NoError(t, svc.Register(alice))
	require.NoError(t, svc.Register(alice))
	exists, err := svc.Exists(alice)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, svc.Credit(alice, big.NewInt(1)))
	assert.ErrorIs(t, svc.Unregister(alice), reverts.ErrAccountNotEmpty)

	require.NoError(t, svc.Debit(alice, big.NewInt(1)))
	require.NoError(t, svc.Unregister(alice))
	exists, err = svc.Exists(alice)
	require.NoError(t, err)
	assert.False(t, exists)
}
