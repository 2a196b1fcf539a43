// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/mechanism/sim"
	"github.com/vechain/stakepool/node"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var (
	owner    = thor.BytesToAddress([]byte("owner"))
	treasury = thor.BytesToAddress([]byte("treasury"))
	operator = thor.BytesToAddress([]byte("operator"))
	alice    = thor.BytesToAddress([]byte("alice"))
)

type testEnv struct {
	pool      *stakepool.Pool
	mechanism *sim.Mechanism
	bank      *sim.Bank
	clock     *sim.Clock
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mechanism := sim.New()
	clock, err := sim.NewClock("@every 1h", mechanism, nil)
	require.NoError(t, err)
	env := &testEnv{
		mechanism: mechanism,
		bank:      sim.NewBank(),
		clock:     clock,
	}
	env.pool = stakepool.New(state.New(db), stakepool.Deps{
		Gate: sim.NewGate(map[thor.Address][]stakepool.Capability{
			operator: stakepool.Capabilities,
		}),
		Registry:  sim.NewRegistry(nil),
		Mechanism: mechanism,
		Bank:      env.bank,
		Clock:     clock,
	})
	require.NoError(t, env.pool.Initialize(&stakepool.Genesis{
		Owner:    owner,
		Treasury: treasury,
		Fees:     fees.Config{StakingBPS: 100, EarningsBPS: 1000},
		Online:   true,
	}))
	return env
}

// start runs the mechanism and the node until the test ends.
func (e *testEnv) start(t *testing.T, options node.Options) *node.Node {
	ctx, cancel := context.WithCancel(context.Background())
	n := node.New(e.pool, e.mechanism.Confirmations(), options)

	var goes co.Goes
	goes.Go(func() { e.mechanism.Run(ctx) })
	goes.Go(func() { n.Run(ctx) })
	t.Cleanup(func() {
		cancel()
		goes.Wait()
	})
	return n
}

func waitApplied(t *testing.T, n *node.Node, count uint64) {
	t.Helper()
	w := n.NewAppliedWaiter()
	deadline := time.After(2 * time.Second)
	for n.Applied() < count {
		select {
		case <-w.C():
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("applied %d of %d confirmations", n.Applied(), count)
		}
	}
}

func requireReported(t *testing.T, m *sim.Mechanism, expected string) {
	t.Helper()
	require.Eventually(t, func() bool {
		v, err := m.ReportedStakedValue(context.Background())
		return err == nil && v.String() == expected
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNode_ConfirmsDeposits(t *testing.T) {
	env := newTestEnv(t)
	n := env.start(t, node.Options{})

	receipt, err := env.pool.Stake(context.Background(), alice, big.NewInt(10_000))
	require.NoError(t, err)
	assert.Equal(t, "9900", receipt.Shares.String())

	waitApplied(t, n, 1)

	acc, err := env.pool.AccountBalances(alice)
	require.NoError(t, err)
	assert.Equal(t, "9900", acc.Shares.String())
	assert.Equal(t, "0", acc.Unconfirmed.String())

	pending, err := env.pool.PendingDeposits(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNode_RollsBackRejectedDeposits(t *testing.T) {
	env := newTestEnv(t)
	env.mechanism.FailNext(1)
	n := env.start(t, node.Options{})

	_, err := env.pool.Stake(context.Background(), alice, big.NewInt(10_000))
	require.NoError(t, err)

	waitApplied(t, n, 1)

	acc, err := env.pool.AccountBalances(alice)
	require.NoError(t, err)
	assert.Equal(t, "0", acc.Shares.String())
	assert.Equal(t, "10000", env.bank.Balance(alice).String())

	b, err := env.pool.Balances()
	require.NoError(t, err)
	assert.Equal(t, "0", b.StakedValue.String())
	assert.Equal(t, "0", b.TotalShares.String())
}

func TestNode_AppliesWithdrawConfirmations(t *testing.T) {
	env := newTestEnv(t)
	n := env.start(t, node.Options{})
	ctx := context.Background()

	_, err := env.pool.Stake(ctx, alice, big.NewInt(10_000))
	require.NoError(t, err)
	waitApplied(t, n, 1)
	requireReported(t, env.mechanism, "10000")

	_, err = env.pool.Unstake(ctx, alice, nil)
	require.NoError(t, err)
	waitApplied(t, n, 2)
	requireReported(t, env.mechanism, "100")
}

func TestNode_RefusedWithdrawKeepsSlashVisible(t *testing.T) {
	env := newTestEnv(t)
	n := env.start(t, node.Options{})
	ctx := context.Background()

	_, err := env.pool.Stake(ctx, alice, big.NewInt(1_000))
	require.NoError(t, err)
	waitApplied(t, n, 1)
	requireReported(t, env.mechanism, "1000")

	require.NoError(t, env.mechanism.Slash(big.NewInt(500)))
	_, err = env.pool.TreasuryDistribute(ctx, operator)
	assert.ErrorIs(t, err, reverts.ErrNegativeRewardDelta)

	// more than the mechanism still holds
	_, err = env.pool.Unstake(ctx, alice, big.NewInt(600))
	assert.ErrorIs(t, err, reverts.ErrExternalConfirmationFailed)

	_, err = env.pool.TreasuryDistribute(ctx, operator)
	assert.ErrorIs(t, err, reverts.ErrNegativeRewardDelta)
	b, err := env.pool.Balances()
	require.NoError(t, err)
	assert.Equal(t, "1000", b.StakedValue.String())
	assert.Equal(t, "0", b.UnstakedAvailable.String())

	// an accepted withdraw counts until it is released
	_, err = env.pool.Unstake(ctx, alice, big.NewInt(400))
	require.NoError(t, err)
	waitApplied(t, n, 2)
	requireReported(t, env.mechanism, "100")
	_, err = env.pool.TreasuryDistribute(ctx, operator)
	assert.ErrorIs(t, err, reverts.ErrNegativeRewardDelta)
}

func TestNode_DistributesRewards(t *testing.T) {
	env := newTestEnv(t)
	n := env.start(t, node.Options{
		DistributeInterval: 10 * time.Millisecond,
		Operator:           operator,
	})

	_, err := env.pool.Stake(context.Background(), alice, big.NewInt(10_000))
	require.NoError(t, err)
	waitApplied(t, n, 1)

	env.mechanism.AddRewards(big.NewInt(1000))

	require.Eventually(t, func() bool {
		b, err := env.pool.Balances()
		return err == nil && b.StakedValue.String() == "11000"
	}, 2*time.Second, 10*time.Millisecond)

	treasuryShares, err := env.pool.AccountShareBalance(treasury)
	require.NoError(t, err)
	assert.True(t, treasuryShares.Cmp(big.NewInt(100)) > 0)
}

func TestNode_StopsWhenSourceCloses(t *testing.T) {
	env := newTestEnv(t)
	ch := make(chan stakepool.Confirmation)
	n := node.New(env.pool, ch, node.Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.Run(context.Background())
	}()

	ch <- stakepool.Confirmation{ID: 42, Op: stakepool.OpDeposit}
	close(ch)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("node did not stop")
	}
	assert.Equal(t, uint64(1), n.Applied())
}
