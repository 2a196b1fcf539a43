// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakepool implements the liquid staking pool ledger. Account holders
// stake base asset for shares, the external mechanism earns rewards that raise
// the share value, and shares are unstaked through a time locked withdrawal.
package stakepool

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/builtin/stakepool/deposits"
	"github.com/vechain/stakepool/builtin/stakepool/fees"
	"github.com/vechain/stakepool/builtin/stakepool/rate"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/builtin/stakepool/shares"
	"github.com/vechain/stakepool/builtin/stakepool/withdrawals"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var logger = log.WithContext("pkg", "stakepool")

func SetLogger(l log.Logger) {
	logger = l
}

var (
	ErrNotInitialized     = errors.New("pool not initialized")
	ErrAlreadyInitialized = errors.New("pool already initialized")
)

// Params are written once by Initialize.
type Params struct {
	Owner       thor.Address
	Treasury    thor.Address
	Initialized bool
}

// Genesis is the initial configuration of a pool.
type Genesis struct {
	Owner    thor.Address
	Treasury thor.Address
	Fees     fees.Config
	Online   bool
}

// Pool is the ledger context. Every exported method runs to completion under
// the pool lock and either commits all its writes or none of them.
type Pool struct {
	mu    sync.Mutex
	state *state.State
	deps  Deps

	params *slot.Raw[*Params]
	status *slot.Raw[Status]

	feesService        *fees.Service
	sharesService      *shares.Service
	withdrawalsService *withdrawals.Service
	depositsService    *deposits.Service

	feed  event.Feed
	scope event.SubscriptionScope
	seq   uint64
}

// New creates a pool over st. The state is expected to be fresh, with nothing staged.
func New(st *state.State, deps Deps) *Pool {
	sctx := slot.NewContext(st, storageUsage)
	return &Pool{
		state: st,
		deps:  deps,

		params: slot.NewRaw[*Params](sctx, thor.KeyPoolParams),
		status: slot.NewRaw[Status](sctx, thor.KeyPoolStatus),

		feesService:        fees.New(sctx),
		sharesService:      shares.New(sctx),
		withdrawalsService: withdrawals.New(sctx),
		depositsService:    deposits.New(sctx),
	}
}

// Initialize writes the pool params, the fee configuration and the initial status.
func (p *Pool) Initialize(genesis *Genesis) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.atomic(func() error {
		params, err := p.params.Get()
		if err != nil {
			return errors.Wrap(err, "failed to get params")
		}
		if params.Initialized {
			return ErrAlreadyInitialized
		}
		if genesis.Owner.IsZero() || genesis.Treasury.IsZero() {
			return errors.New("owner and treasury are required")
		}
		if err := p.params.Set(&Params{
			Owner:       genesis.Owner,
			Treasury:    genesis.Treasury,
			Initialized: true,
		}); err != nil {
			return errors.Wrap(err, "failed to set params")
		}
		if err := p.feesService.Set(&genesis.Fees); err != nil {
			return err
		}
		status := StatusOffline
		if genesis.Online {
			status = StatusOnline
		}
		if err := p.status.Set(status); err != nil {
			return errors.Wrap(err, "failed to set status")
		}
		// owner and treasury hold records from the start
		if err := p.sharesService.Register(genesis.Owner); err != nil {
			return err
		}
		if err := p.sharesService.Register(genesis.Treasury); err != nil {
			return err
		}
		logger.Info("pool initialized",
			"owner", genesis.Owner,
			"treasury", genesis.Treasury,
			"stakingFeeBPS", genesis.Fees.StakingBPS,
			"earningsFeeBPS", genesis.Fees.EarningsBPS,
			"status", status,
		)
		return nil
	})
}

// IsInitialized tells whether Initialize has run on the underlying store.
func (p *Pool) IsInitialized() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	params, err := p.params.Get()
	if err != nil {
		return false, errors.Wrap(err, "failed to get params")
	}
	return params.Initialized, nil
}

// Params returns the owner and treasury of the pool.
func (p *Pool) Params() (*Params, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.getParams()
}

//
// Internal helpers - callers hold the lock
//

// atomic runs fn on top of a checkpoint and commits its writes when it succeeds.
func (p *Pool) atomic(fn func() error) error {
	checkpoint := p.state.NewCheckpoint()
	if err := fn(); err != nil {
		p.state.RevertTo(checkpoint)
		return err
	}
	if err := p.state.Commit(); err != nil {
		p.state.RevertTo(checkpoint)
		return errors.Wrap(err, "failed to commit")
	}
	p.exportTotals()
	return nil
}

func (p *Pool) getParams() (*Params, error) {
	params, err := p.params.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get params")
	}
	if !params.Initialized {
		return nil, ErrNotInitialized
	}
	return params, nil
}

func (p *Pool) getStatus() (Status, error) {
	status, err := p.status.Get()
	if err != nil {
		return StatusOffline, errors.Wrap(err, "failed to get status")
	}
	return status, nil
}

func (p *Pool) requireOnline() error {
	status, err := p.getStatus()
	if err != nil {
		return err
	}
	if status != StatusOnline {
		return reverts.ErrPoolOffline
	}
	return nil
}

func (p *Pool) authorize(caller thor.Address, capability Capability) error {
	ok, err := p.deps.Gate.IsAuthorized(caller, capability)
	if err != nil {
		return errors.Wrap(err, "failed to check capability")
	}
	if !ok {
		return errors.WithMessagef(reverts.ErrUnauthorized, "%v lacks %s", caller, capability)
	}
	return nil
}

func (p *Pool) requireRegistered(account thor.Address) error {
	ok, err := p.deps.Registry.IsRegistered(account)
	if err != nil {
		return errors.Wrap(err, "failed to check registration")
	}
	if !ok {
		return errors.WithMessagef(reverts.ErrAccountNotRegistered, "%v", account)
	}
	return nil
}

// currentRate snapshots the exchange rate from the totals.
func (p *Pool) currentRate() (rate.Rate, *shares.Totals, error) {
	totals, err := p.sharesService.Totals()
	if err != nil {
		return rate.Rate{}, nil, err
	}
	return rate.New(totals.StakedValue, totals.Shares), totals, nil
}

// validAmount checks an explicit amount argument.
func validAmount(amount *big.Int) error {
	if amount.Sign() <= 0 || !thor.IsValidAmount(amount) {
		return errors.WithMessagef(reverts.ErrInvalidAmount, "%v", amount)
	}
	return nil
}
