// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"context"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/builtin/stakepool/rate"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/thor"
)

// Balances are the pool wide counters.
type Balances struct {
	StakedValue         *big.Int
	TotalShares         *big.Int
	UnstakedAvailable   *big.Int
	PendingDepositValue *big.Int
	WithdrawingValue    *big.Int // unstaked, not yet released by the mechanism
	Rate                rate.Rate
}

// AccountBalances is the position of one account.
type AccountBalances struct {
	Registered        bool
	Shares            *big.Int
	Unconfirmed       *big.Int
	Value             *big.Int
	PendingWithdrawal *big.Int
	UnlockEpoch       uint64
}

// Balances returns the pool totals.
func (p *Pool) Balances() (*Balances, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, totals, err := p.currentRate()
	if err != nil {
		return nil, err
	}
	pending, err := p.depositsService.PendingValue()
	if err != nil {
		return nil, err
	}
	withdrawing, err := p.depositsService.WithdrawingValue()
	if err != nil {
		return nil, err
	}
	return &Balances{
		StakedValue:         totals.StakedValue,
		TotalShares:         totals.Shares,
		UnstakedAvailable:   totals.UnstakedAvailable,
		PendingDepositValue: pending,
		WithdrawingValue:    withdrawing,
		Rate:                r,
	}, nil
}

// Fees returns the fee configuration.
func (p *Pool) Fees() (*fees.Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.feesService.Get()
}

// TokenValue returns the value of shares at the current rate, one share unit
// when shares is nil.
func (p *Pool) TokenValue(shares *big.Int) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if shares == nil {
		shares = thor.ShareUnit
	}
	if shares.Sign() < 0 || !thor.IsValidAmount(shares) {
		return nil, errors.WithMessagef(reverts.ErrInvalidAmount, "%v", shares)
	}
	r, _, err := p.currentRate()
	if err != nil {
		return nil, err
	}
	return r.ValueOf(shares), nil
}

// TokenValueWithPendingEarnings returns the value of the shares of account as
// if the rewards reported by the mechanism were distributed now. Nothing is written.
func (p *Pool) TokenValueWithPendingEarnings(ctx context.Context, account thor.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	reported, err := p.deps.Mechanism.ReportedStakedValue(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reported staked value")
	}
	delta, err := p.rewardDelta(reported)
	if err != nil {
		return nil, err
	}
	acc, err := p.sharesService.GetAccount(account)
	if err != nil {
		return nil, err
	}
	r, totals, err := p.currentRate()
	if err != nil {
		return nil, err
	}
	if delta.Sign() == 0 || totals.Shares.Sign() == 0 {
		return r.ValueOf(acc.Shares), nil
	}
	cfg, err := p.feesService.Get()
	if err != nil {
		return nil, err
	}
	feeShares := r.SharesFor(fees.Earnings(delta, cfg.EarningsBPS))
	projected := rate.New(
		new(big.Int).Add(totals.StakedValue, delta),
		new(big.Int).Add(totals.Shares, feeShares),
	)
	return projected.ValueOf(acc.Shares), nil
}

// AccountShareBalance returns all shares of account, unconfirmed ones included.
func (p *Pool) AccountShareBalance(account thor.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.sharesService.Balance(account)
}

// AccountBalances returns the position of account.
func (p *Pool) AccountBalances(account thor.Address) (*AccountBalances, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, err := p.sharesService.GetAccount(account)
	if err != nil {
		return nil, err
	}
	w, err := p.withdrawalsService.Get(account)
	if err != nil {
		return nil, err
	}
	r, _, err := p.currentRate()
	if err != nil {
		return nil, err
	}
	return &AccountBalances{
		Registered:        acc.Registered,
		Shares:            acc.Shares,
		Unconfirmed:       acc.Unconfirmed,
		Value:             r.ValueOf(acc.Shares),
		PendingWithdrawal: w.Amount,
		UnlockEpoch:       w.UnlockEpoch,
	}, nil
}

// PendingDeposits lists deposits awaiting confirmation, oldest first.
func (p *Pool) PendingDeposits(limit int) ([]*deposits.Deposit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.depositsService.Pending(limit)
}

// PendingWithdraws lists withdraw instructions the mechanism has not released, oldest first.
func (p *Pool) PendingWithdraws(limit int) ([]*deposits.Withdraw, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.depositsService.Withdraws(limit)
}
