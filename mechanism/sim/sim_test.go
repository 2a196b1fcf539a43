// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/thor"
)

func reported(t *testing.T, m *Mechanism) string {
	v, err := m.ReportedStakedValue(context.Background())
	require.NoError(t, err)
	return v.String()
}

func receive(t *testing.T, m *Mechanism) stakepool.Confirmation {
	select {
	case c := <-m.Confirmations():
		return c
	case <-time.After(time.Second):
		t.Fatal("no confirmation")
	}
	return stakepool.Confirmation{}
}

func TestMechanism_DeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New()

	require.NoError(t, m.DepositAndStake(ctx, 1, big.NewInt(100)))
	m.FailNext(1)
	require.NoError(t, m.DepositAndStake(ctx, 2, big.NewInt(50)))
	assert.Equal(t, 2, m.Pending())
	assert.Equal(t, "0", reported(t, m))

	var goes co.Goes
	goes.Go(func() { m.Run(ctx) })

	c := receive(t, m)
	assert.Equal(t, stakepool.Confirmation{ID: 1, Op: stakepool.OpDeposit}, c)
	c = receive(t, m)
	assert.Equal(t, uint64(2), uint64(c.ID))
	assert.True(t, errors.Is(c.Err, ErrRejected))

	require.Eventually(t, func() bool { return m.Pending() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, "100", reported(t, m))

	require.NoError(t, m.Withdraw(ctx, 3, big.NewInt(40)))
	// reserved, but staked until delivered
	assert.Equal(t, "100", reported(t, m))
	err := m.Withdraw(ctx, 4, big.NewInt(61))
	assert.True(t, errors.Is(err, ErrInsufficientStake))
	c = receive(t, m)
	assert.Equal(t, stakepool.Confirmation{ID: 3, Op: stakepool.OpWithdraw}, c)
	require.Eventually(t, func() bool { return m.Pending() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, "60", reported(t, m))
	require.NoError(t, m.Withdraw(ctx, 4, big.NewInt(60)))

	cancel()
	goes.Wait()
}

func TestMechanism_KeepsUndeliveredOnStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New()
	require.NoError(t, m.DepositAndStake(ctx, 1, big.NewInt(1)))

	cancel()
	m.Run(ctx)
	assert.Equal(t, 1, m.Pending())
}

func TestMechanism_InvalidAmounts(t *testing.T) {
	ctx := context.Background()
	m := New()

	assert.Error(t, m.DepositAndStake(ctx, 1, big.NewInt(0)))
	assert.Error(t, m.DepositAndStake(ctx, 1, nil))
	assert.Error(t, m.Withdraw(ctx, 1, big.NewInt(-1)))

	err := m.Withdraw(ctx, 1, big.NewInt(1))
	assert.True(t, errors.Is(err, ErrInsufficientStake))
	assert.Equal(t, 0, m.Pending())
}

func TestMechanism_RewardsAndSlash(t *testing.T) {
	m := New()
	m.AddRewards(big.NewInt(1000))
	m.AddRewards(big.NewInt(25))
	assert.Equal(t, "1025", reported(t, m))

	require.NoError(t, m.Slash(big.NewInt(5)))
	assert.Equal(t, "1020", reported(t, m))

	assert.True(t, errors.Is(m.Slash(big.NewInt(2000)), ErrInsufficientStake))
	assert.Equal(t, "1020", reported(t, m))
}

func TestRegistry(t *testing.T) {
	alice := thor.BytesToAddress([]byte("alice"))
	r := NewRegistry(big.NewInt(10))

	ok, err := r.IsRegistered(alice)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.ConsumeCredit(alice, big.NewInt(4)))
	avail, err := r.AvailableCredit(alice)
	require.NoError(t, err)
	assert.Equal(t, "6", avail.String())

	assert.True(t, errors.Is(r.ConsumeCredit(alice, big.NewInt(7)), ErrInsufficientCredit))
	require.NoError(t, r.ConsumeCredit(alice, big.NewInt(6)))
	avail, err = r.AvailableCredit(alice)
	require.NoError(t, err)
	assert.Equal(t, "0", avail.String())

	require.NoError(t, r.RestoreCredit(alice, big.NewInt(3)))
	avail, err = r.AvailableCredit(alice)
	require.NoError(t, err)
	assert.Equal(t, "3", avail.String())
	assert.Error(t, r.RestoreCredit(alice, big.NewInt(8)))
}

func TestBank(t *testing.T) {
	alice := thor.BytesToAddress([]byte("alice"))
	b := NewBank()

	require.NoError(t, b.Transfer(alice, big.NewInt(3)))
	require.NoError(t, b.Transfer(alice, big.NewInt(4)))
	assert.Equal(t, "7", b.Balance(alice).String())
	assert.Equal(t, "0", b.Balance(thor.Address{}).String())
	assert.Error(t, b.Transfer(alice, big.NewInt(-1)))
}

func TestGate(t *testing.T) {
	op := thor.BytesToAddress([]byte("operator"))
	g := NewGate(map[thor.Address][]stakepool.Capability{
		op: {stakepool.CapStartStaking},
	})

	ok, err := g.IsAuthorized(op, stakepool.CapStartStaking)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsAuthorized(op, stakepool.CapUpdateFees)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClock(t *testing.T) {
	m := New()
	m.AddRewards(big.NewInt(100))

	c, err := NewClock("@every 1h", m, big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), c.Epoch())

	c.Tick()
	c.Tick()
	assert.Equal(t, uint64(2), c.Epoch())
	assert.Equal(t, "110", reported(t, m))

	c.SetEpoch(40)
	c.Tick()
	assert.Equal(t, uint64(41), c.Epoch())

	m.Seed(big.NewInt(7))
	assert.Equal(t, "7", reported(t, m))

	_, err = NewClock("not a schedule", m, nil)
	assert.Error(t, err)
}
