// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node drives a pool: it applies mechanism confirmations and runs the
// periodic treasury distribution.
package node

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/thor"
)

var logger = log.WithContext("pkg", "node")

// Pool is the part of stakepool.Pool the node drives.
type Pool interface {
	Confirm(c stakepool.Confirmation) error
	TreasuryDistribute(ctx context.Context, caller thor.Address) (*stakepool.Distribution, error)
}

// Options configures the optional loops. Distribution is off when
// DistributeInterval is zero.
type Options struct {
	DistributeInterval time.Duration
	Operator           thor.Address
}

type Node struct {
	goes          co.Goes
	pool          Pool
	confirmations <-chan stakepool.Confirmation
	options       Options

	applied  co.Signal
	nApplied atomic.Uint64
}

func New(pool Pool, confirmations <-chan stakepool.Confirmation, options Options) *Node {
	return &Node{
		pool:          pool,
		confirmations: confirmations,
		options:       options,
	}
}

// Run blocks until ctx is done or the confirmation source is closed.
func (n *Node) Run(ctx context.Context) error {
	defer n.goes.Wait()

	n.goes.GoCtx(ctx, n.loop)
	return nil
}

// Applied returns the number of confirmations handed to the pool.
func (n *Node) Applied() uint64 {
	return n.nApplied.Load()
}

// NewAppliedWaiter returns a waiter woken after each applied confirmation.
func (n *Node) NewAppliedWaiter() co.Waiter {
	return n.applied.NewWaiter()
}

// loop applies confirmations and distributes rewards. Both run on this one
// goroutine so a distribution never sees a delivered but unapplied deposit.
func (n *Node) loop(ctx context.Context) {
	logger.Debug("enter node loop")
	defer logger.Debug("leave node loop")

	var distributeC <-chan time.Time
	if n.options.DistributeInterval > 0 {
		ticker := time.NewTicker(n.options.DistributeInterval)
		defer ticker.Stop()
		distributeC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-n.confirmations:
			if !ok {
				logger.Warn("confirmation source closed")
				return
			}
			n.apply(c)
		case <-distributeC:
			n.distribute(ctx)
		}
	}
}

func (n *Node) apply(c stakepool.Confirmation) {
	if err := n.pool.Confirm(c); err != nil {
		logger.Error("failed to apply confirmation", "id", c.ID, "op", c.Op, "err", err)
	}
	n.nApplied.Add(1)
	n.applied.Broadcast()
}

func (n *Node) distribute(ctx context.Context) {
	d, err := n.pool.TreasuryDistribute(ctx, n.options.Operator)
	switch {
	case err == nil:
		if d.Delta.Sign() > 0 {
			logger.Debug("periodic distribution", "delta", d.Delta, "rate", d.RateAfter)
		}
	case reverts.IsRevertErr(err):
		logger.Warn("distribution reverted", "err", err)
	default:
		logger.Error("failed to distribute rewards", "err", err)
	}
}
