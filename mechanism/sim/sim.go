// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package sim is an in-process staking mechanism for solo mode and tests.
// Instructions are queued and confirmed asynchronously by Run.
package sim

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/log"
)

var logger = log.WithContext("pkg", "sim")

var (
	// ErrRejected is the outcome of a deposit failed by FailNext.
	ErrRejected = errors.New("deposit rejected by mechanism")
	// ErrInsufficientStake is returned by Withdraw and Slash beyond the staked value.
	ErrInsufficientStake = errors.New("insufficient stake")
)

type queued struct {
	c      stakepool.Confirmation
	amount *big.Int // added to staked once delivered, negative for a withdraw
}

// Mechanism stakes deposits into an in-memory balance that grows by rewards.
// Both deposits and withdraws change the balance when their confirmation is
// delivered.
type Mechanism struct {
	mu       sync.Mutex
	staked   *big.Int
	reserved *big.Int // queued withdraws
	queue    []queued
	failNext int

	wake chan struct{}
	out  chan stakepool.Confirmation
}

// New creates a mechanism with nothing staked.
func New() *Mechanism {
	return &Mechanism{
		staked:   new(big.Int),
		reserved: new(big.Int),
		wake:     make(chan struct{}, 1),
		out:      make(chan stakepool.Confirmation),
	}
}

// Confirmations returns the channel Run delivers outcomes on.
func (m *Mechanism) Confirmations() <-chan stakepool.Confirmation {
	return m.out
}

// DepositAndStake queues the deposit. It never blocks, so it is safe to call
// while the pool holds its lock. The amount counts as staked once its
// confirmation has been delivered.
func (m *Mechanism) DepositAndStake(_ context.Context, id deposits.ID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.Errorf("invalid deposit amount %v", amount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	q := queued{c: stakepool.Confirmation{ID: id, Op: stakepool.OpDeposit}}
	if m.failNext > 0 {
		m.failNext--
		q.c.Err = ErrRejected
	} else {
		q.amount = new(big.Int).Set(amount)
	}
	m.push(q)
	logger.Debug("deposit queued", "id", id, "amount", amount, "rejected", q.c.Err != nil)
	return nil
}

// Withdraw queues amount to be taken out of the staked balance. It is refused
// beyond the balance not already reserved by queued withdraws.
func (m *Mechanism) Withdraw(_ context.Context, id deposits.ID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.Errorf("invalid withdraw amount %v", amount)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if free := m.free(); amount.Cmp(free) > 0 {
		return errors.WithMessagef(ErrInsufficientStake, "withdraw %v of %v", amount, free)
	}
	m.reserved.Add(m.reserved, amount)
	m.push(queued{
		c:      stakepool.Confirmation{ID: id, Op: stakepool.OpWithdraw},
		amount: new(big.Int).Neg(amount),
	})
	logger.Debug("withdraw queued", "id", id, "amount", amount)
	return nil
}

func (m *Mechanism) ReportedStakedValue(context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return new(big.Int).Set(m.staked), nil
}

// Seed sets the staked balance, for resuming over a persisted pool.
func (m *Mechanism) Seed(staked *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.staked = new(big.Int).Set(staked)
}

// AddRewards grows the staked balance by amount.
func (m *Mechanism) AddRewards(amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.staked.Add(m.staked, amount)
	logger.Debug("rewards added", "amount", amount, "staked", m.staked)
}

// Slash takes amount from the staked balance.
func (m *Mechanism) Slash(amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if free := m.free(); amount.Cmp(free) > 0 {
		return errors.WithMessagef(ErrInsufficientStake, "slash %v of %v", amount, free)
	}
	m.staked.Sub(m.staked, amount)
	logger.Warn("stake slashed", "amount", amount, "staked", m.staked)
	return nil
}

// FailNext makes the next n deposits fail asynchronously.
func (m *Mechanism) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failNext = n
}

// Pending returns the number of queued confirmations.
func (m *Mechanism) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queue)
}

func (m *Mechanism) free() *big.Int {
	return new(big.Int).Sub(m.staked, m.reserved)
}

func (m *Mechanism) push(q queued) {
	m.queue = append(m.queue, q)
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Mechanism) head() (stakepool.Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return stakepool.Confirmation{}, false
	}
	return m.queue[0].c, true
}

func (m *Mechanism) shift() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount := m.queue[0].amount; amount != nil {
		m.staked.Add(m.staked, amount)
		if amount.Sign() < 0 {
			m.reserved.Add(m.reserved, amount)
		}
	}
	m.queue = m.queue[1:]
}

// Run delivers queued confirmations in issue order until ctx is done. A
// confirmation is dequeued only once delivered.
// Run must not be called concurrently.
func (m *Mechanism) Run(ctx context.Context) {
	logger.Debug("enter confirmation loop")
	defer logger.Debug("leave confirmation loop")

	for {
		c, ok := m.head()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-m.wake:
				continue
			}
		}
		select {
		case <-ctx.Done():
			return
		case m.out <- c:
			m.shift()
		}
	}
}
