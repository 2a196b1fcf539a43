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

// Distribution is the outcome of a treasury distribution.
type Distribution struct {
	Reported   *big.Int
	Delta      *big.Int
	FeeShares  *big.Int
	RateBefore rate.Rate
	RateAfter  rate.Rate
}

// TreasuryDistribute books the rewards reported by the mechanism since the
// last distribution. The earnings fee is minted to the treasury as shares.
func (p *Pool) TreasuryDistribute(ctx context.Context, caller thor.Address) (dist *Distribution, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("treasury-distribute", err) }()

	if err := p.authorize(caller, CapTreasuryDistribute); err != nil {
		return nil, err
	}
	params, err := p.getParams()
	if err != nil {
		return nil, err
	}
	reported, err := p.deps.Mechanism.ReportedStakedValue(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reported staked value")
	}

	err = p.atomic(func() error {
		delta, err := p.rewardDelta(reported)
		if err != nil {
			return err
		}
		r, _, err := p.currentRate()
		if err != nil {
			return err
		}
		dist = &Distribution{
			Reported:   reported,
			Delta:      delta,
			FeeShares:  new(big.Int),
			RateBefore: r,
			RateAfter:  r,
		}
		if delta.Sign() == 0 || r.TotalShares().Sign() == 0 {
			return nil
		}

		cfg, err := p.feesService.Get()
		if err != nil {
			return err
		}
		dist.FeeShares = r.SharesFor(fees.Earnings(delta, cfg.EarningsBPS))
		if err := p.sharesService.AdjustStakedValue(delta); err != nil {
			return err
		}
		if dist.FeeShares.Sign() > 0 {
			if err := p.sharesService.Credit(params.Treasury, dist.FeeShares); err != nil {
				return err
			}
		}
		dist.RateAfter, _, err = p.currentRate()
		return err
	})
	if err != nil {
		if errors.Is(err, reverts.ErrNegativeRewardDelta) {
			logger.Error("negative reward delta", "reported", reported, "err", err)
		} else {
			logger.Debug("treasury distribute failed", "err", err)
		}
		return nil, err
	}
	logger.Info("rewards distributed",
		"delta", dist.Delta,
		"feeShares", dist.FeeShares,
		"rateBefore", dist.RateBefore,
		"rateAfter", dist.RateAfter,
	)
	p.publish(&Event{Kind: EventDistributed, Account: params.Treasury, Value: dist.Delta, Shares: dist.FeeShares})
	return dist, nil
}

// rewardDelta compares reported with the confirmed staked value. Deposits
// still awaiting confirmation are not part of what the mechanism reports;
// unstaked value it has not released yet still is.
func (p *Pool) rewardDelta(reported *big.Int) (*big.Int, error) {
	if reported == nil || !thor.IsValidAmount(reported) {
		return nil, errors.WithMessagef(reverts.ErrInvalidAmount, "reported staked value %v", reported)
	}
	totals, err := p.sharesService.Totals()
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
	confirmed := new(big.Int).Sub(totals.StakedValue, pending)
	confirmed.Add(confirmed, withdrawing)
	delta := new(big.Int).Sub(reported, confirmed)
	if delta.Sign() < 0 {
		return nil, errors.WithMessagef(reverts.ErrNegativeRewardDelta, "reported %v, confirmed %v", reported, confirmed)
	}
	return delta, nil
}

// TreasuryTransferToOwner burns treasury shares worth amount and moves their
// value into the owner's pending withdrawal.
func (p *Pool) TreasuryTransferToOwner(ctx context.Context, caller thor.Address, amount *big.Int) (receipt *UnstakeReceipt, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("treasury-transfer-to-owner", err) }()

	var params *Params
	err = p.atomic(func() error {
		if err := p.authorize(caller, CapTreasuryTransferToOwner); err != nil {
			return err
		}
		if amount == nil {
			return errors.WithMessage(reverts.ErrInvalidAmount, "amount is required")
		}
		if params, err = p.getParams(); err != nil {
			return err
		}
		receipt, err = p.unstake(params.Treasury, params.Owner, amount)
		return err
	})
	if err != nil {
		logger.Debug("treasury transfer failed", "caller", caller, "amount", amount, "err", err)
		return nil, err
	}
	logger.Info("treasury transferred to owner",
		"owner", params.Owner,
		"shares", receipt.Shares,
		"value", receipt.Value,
		"unlockEpoch", receipt.Withdrawal.UnlockEpoch,
	)
	p.publish(&Event{Kind: EventUnstaked, Account: params.Owner, Value: receipt.Value, Shares: receipt.Shares})
	if err := p.dispatchWithdraw(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// TreasuryDeposit stakes amount on behalf of the treasury. No fee is charged
// and a failed deposit is refunded to the caller.
func (p *Pool) TreasuryDeposit(ctx context.Context, caller thor.Address, amount *big.Int) (receipt *Receipt, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { observeOperation("treasury-deposit", err) }()

	logger.Debug("treasury deposit", "caller", caller, "amount", amount)

	var d *deposits.Deposit
	err = p.atomic(func() error {
		if err := p.requireOnline(); err != nil {
			return err
		}
		params, err := p.getParams()
		if err != nil {
			return err
		}
		if amount == nil {
			return errors.WithMessage(reverts.ErrInvalidAmount, "amount is required")
		}
		if err := validAmount(amount); err != nil {
			return err
		}
		r, _, err := p.currentRate()
		if err != nil {
			return err
		}
		d = &deposits.Deposit{
			Kind:        deposits.KindTreasury,
			Account:     caller,
			Beneficiary: params.Treasury,
			Treasury:    params.Treasury,
			Gross:       new(big.Int).Set(amount),
			Attached:    new(big.Int).Set(amount),
			Credit:      new(big.Int),
			Shares:      r.SharesFor(amount),
			FeeShares:   new(big.Int),
			Epoch:       p.deps.Clock.Epoch(),
		}
		if d.Shares.Sign() == 0 {
			return errors.WithMessagef(reverts.ErrInvalidAmount, "%v buys no shares at %v", amount, r)
		}
		return p.issueDeposit(d)
	})
	if err != nil {
		logger.Debug("treasury deposit failed", "caller", caller, "amount", amount, "err", err)
		return nil, err
	}
	logger.Info("treasury deposit issued", "id", d.ID, "caller", caller, "gross", d.Gross, "shares", d.Shares)
	p.publishDeposit(EventDepositIssued, d)
	return p.dispatchDeposit(ctx, d)
}
