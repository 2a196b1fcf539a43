// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/thor"
)

// ErrInsufficientCredit is returned when consuming more credit than available.
var ErrInsufficientCredit = errors.New("insufficient storage credit")

// Registry treats every account as registered and grants each the same
// storage credit once.
type Registry struct {
	mu       sync.Mutex
	credit   *big.Int
	consumed map[thor.Address]*big.Int
}

// NewRegistry creates an open registry granting credit per account.
func NewRegistry(credit *big.Int) *Registry {
	if credit == nil {
		credit = new(big.Int)
	}
	return &Registry{
		credit:   new(big.Int).Set(credit),
		consumed: make(map[thor.Address]*big.Int),
	}
}

func (r *Registry) IsRegistered(thor.Address) (bool, error) {
	return true, nil
}

func (r *Registry) AvailableCredit(account thor.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.available(account), nil
}

func (r *Registry) ConsumeCredit(account thor.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amount.Cmp(r.available(account)) > 0 {
		return errors.WithMessagef(ErrInsufficientCredit, "%v", account)
	}
	c := r.consumed[account]
	if c == nil {
		c = new(big.Int)
		r.consumed[account] = c
	}
	c.Add(c, amount)
	return nil
}

func (r *Registry) RestoreCredit(account thor.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.consumed[account]
	if c == nil || amount.Cmp(c) > 0 {
		return errors.Errorf("restore %v exceeds consumed credit of %v", amount, account)
	}
	c.Sub(c, amount)
	return nil
}

func (r *Registry) available(account thor.Address) *big.Int {
	avail := new(big.Int).Set(r.credit)
	if c := r.consumed[account]; c != nil {
		avail.Sub(avail, c)
	}
	if avail.Sign() < 0 {
		return new(big.Int)
	}
	return avail
}

// Bank keeps the balances paid out by the pool.
type Bank struct {
	mu       sync.Mutex
	balances map[thor.Address]*big.Int
}

func NewBank() *Bank {
	return &Bank{balances: make(map[thor.Address]*big.Int)}
}

func (b *Bank) Transfer(to thor.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Errorf("invalid transfer amount %v", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balances[to]
	if bal == nil {
		bal = new(big.Int)
		b.balances[to] = bal
	}
	bal.Add(bal, amount)
	logger.Debug("transfer", "to", to, "amount", amount)
	return nil
}

// Balance returns the sum paid out to account.
func (b *Bank) Balance(account thor.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bal := b.balances[account]; bal != nil {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Gate grants capabilities from a static table.
type Gate struct {
	grants map[thor.Address]map[stakepool.Capability]bool
}

// NewGate builds a gate from per-account capability lists.
func NewGate(grants map[thor.Address][]stakepool.Capability) *Gate {
	g := &Gate{grants: make(map[thor.Address]map[stakepool.Capability]bool, len(grants))}
	for account, caps := range grants {
		set := make(map[stakepool.Capability]bool, len(caps))
		for _, c := range caps {
			set[c] = true
		}
		g.grants[account] = set
	}
	return g
}

func (g *Gate) IsAuthorized(account thor.Address, capability stakepool.Capability) (bool, error) {
	return g.grants[account][capability], nil
}
