// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

import (
	"math/big"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Clock advances the epoch on a cron schedule and accrues a fixed reward on
// the mechanism at every tick.
type Clock struct {
	epoch     atomic.Uint64
	cron      *cron.Cron
	mechanism *Mechanism
	reward    *big.Int
}

// NewClock creates a clock ticking on schedule, a cron spec with a seconds
// field. reward may be nil.
func NewClock(schedule string, mechanism *Mechanism, reward *big.Int) (*Clock, error) {
	c := &Clock{
		cron:      cron.New(cron.WithSeconds()),
		mechanism: mechanism,
		reward:    reward,
	}
	if _, err := c.cron.AddFunc(schedule, c.Tick); err != nil {
		return nil, errors.Wrapf(err, "invalid epoch schedule %q", schedule)
	}
	return c, nil
}

func (c *Clock) Epoch() uint64 {
	return c.epoch.Load()
}

// SetEpoch resumes the clock at epoch.
func (c *Clock) SetEpoch(epoch uint64) {
	c.epoch.Store(epoch)
}

// Tick moves to the next epoch.
func (c *Clock) Tick() {
	epoch := c.epoch.Add(1)
	if c.reward != nil && c.reward.Sign() > 0 && c.mechanism != nil {
		c.mechanism.AddRewards(c.reward)
	}
	logger.Debug("epoch advanced", "epoch", epoch, "reward", c.reward)
}

// Start starts the schedule.
func (c *Clock) Start() {
	c.cron.Start()
	logger.Info("epoch clock started")
}

// Stop stops the schedule and waits for a running tick.
func (c *Clock) Stop() {
	<-c.cron.Stop().Done()
	logger.Info("epoch clock stopped")
}
