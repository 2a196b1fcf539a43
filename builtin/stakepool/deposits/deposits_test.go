// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deposits

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var (
	alice    = thor.BytesToAddress([]byte("alice"))
	treasury = thor.BytesToAddress([]byte("treasury"))
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(slot.NewContext(state.New(db), nil))
}

func newDeposit(gross int64) *Deposit {
	return &Deposit{
		Kind:        KindStake,
		Account:     alice,
		Beneficiary: alice,
		Treasury:    treasury,
		Gross:       big.NewInt(gross),
		Attached:    big.NewInt(gross),
		Credit:      big.NewInt(0),
		Shares:      big.NewInt(gross * 99 / 100),
		FeeShares:   big.NewInt(gross / 100),
	}
}

func TestRollback(t *testing.T) {
	d := newDeposit(1_000_000)
	c := Rollback(d)

	assert.Equal(t, big.NewInt(1_000_000), c.StakedValue)
	assert.Equal(t, big.NewInt(1_000_000), c.Refund)
	assert.Equal(t, alice, c.RefundTo)
	assert.Equal(t, []Revoke{
		{alice, big.NewInt(990_000)},
		{treasury, big.NewInt(10_000)},
	}, c.Revokes)

	// the compensation does not alias the record
	c.Refund.SetInt64(0)
	assert.Equal(t, big.NewInt(1_000_000), d.Attached)

	assert.False(t, c.Restore)

	d.FeeShares = big.NewInt(0)
	assert.Len(t, Rollback(d).Revokes, 1)
}

func TestRollback_StorageCredit(t *testing.T) {
	d := newDeposit(1_000)
	d.Attached = big.NewInt(900)
	d.Credit = big.NewInt(100)

	c := Rollback(d)
	assert.Equal(t, big.NewInt(1_000), c.StakedValue)
	assert.Equal(t, big.NewInt(900), c.Refund)
	assert.Equal(t, big.NewInt(100), c.Credit)
}

func TestRollback_Restake(t *testing.T) {
	d := newDeposit(500)
	d.Kind = KindRestake
	d.Attached = big.NewInt(0)
	d.FeeShares = big.NewInt(0)
	d.UnlockEpoch = 7

	c := Rollback(d)
	assert.True(t, c.Restore)
	assert.Equal(t, uint64(7), c.UnlockEpoch)
	assert.Equal(t, alice, c.RefundTo)
	assert.Equal(t, big.NewInt(500), c.Refund)
	assert.Equal(t, big.NewInt(0), c.Credit)
	assert.Equal(t, []Revoke{{alice, big.NewInt(495)}}, c.Revokes)
}

func TestService_IssueResolve(t *testing.T) {
	svc := newSvc(t)

	d1 := newDeposit(1000)
	require.NoError(t, svc.Issue(d1))
	assert.Equal(t, ID(1), d1.ID)
	assert.Equal(t, StatusIssued, d1.Status)

	// an operation without a record in between
	id, err := svc.NextID()
	require.NoError(t, err)
	assert.Equal(t, ID(2), id)

	d3 := newDeposit(500)
	require.NoError(t, svc.Issue(d3))
	assert.Equal(t, ID(3), d3.ID)

	pending, err := svc.PendingValue()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500), pending)

	got, err := svc.Get(ID(1))
	require.NoError(t, err)
	assert.Equal(t, d1, got)

	missing, err := svc.Get(ID(2))
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := svc.Pending(10)
	require.NoError(t, err)
	assert.Equal(t, []*Deposit{d1, d3}, list)

	require.NoError(t, svc.Resolve(d1))
	list, err = svc.Pending(10)
	require.NoError(t, err)
	assert.Equal(t, []*Deposit{d3}, list)

	pending, err = svc.PendingValue()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), pending)

	require.NoError(t, svc.Resolve(d3))
	list, err = svc.Pending(10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_Withdraws(t *testing.T) {
	svc := newSvc(t)

	d1 := newDeposit(1000)
	require.NoError(t, svc.Issue(d1))
	id, err := svc.NextID()
	require.NoError(t, err)
	w2, err := svc.IssueWithdraw(id, alice, big.NewInt(300))
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, w2.Status)
	id, err = svc.NextID()
	require.NoError(t, err)
	w3, err := svc.IssueWithdraw(id, alice, big.NewInt(200))
	require.NoError(t, err)

	withdrawing, err := svc.WithdrawingValue()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), withdrawing)
	pending, err := svc.PendingValue()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), pending)

	// a failed withdraw stays counted
	require.NoError(t, svc.SetWithdrawStatus(w2, StatusFailed))
	got, err := svc.GetWithdraw(w2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	withdrawing, err = svc.WithdrawingValue()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500), withdrawing)

	// deposits and withdraws share the ID space
	missing, err := svc.GetWithdraw(d1.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
	deposit, err := svc.Get(w2.ID)
	require.NoError(t, err)
	assert.Nil(t, deposit)

	list, err := svc.Withdraws(10)
	require.NoError(t, err)
	assert.Equal(t, []*Withdraw{got, w3}, list)

	// resolving the deposit keeps the scan start at the failed withdraw
	require.NoError(t, svc.Resolve(d1))
	list, err = svc.Withdraws(1)
	require.NoError(t, err)
	assert.Equal(t, []*Withdraw{got}, list)

	require.NoError(t, svc.ResolveWithdraw(got))
	require.NoError(t, svc.ResolveWithdraw(w3))
	withdrawing, err = svc.WithdrawingValue()
	require.NoError(t, err)
	assert.Equal(t, 0, withdrawing.Sign())
	list, err = svc.Withdraws(10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
