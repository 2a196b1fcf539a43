// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shares

import (
	"math/big"
)

// Account is the share record of one account.
type Account struct {
	Shares      *big.Int
	Unconfirmed *big.Int // part of Shares minted by deposits awaiting confirmation
	Registered  bool
}

func newAccount() *Account {
	return &Account{Shares: new(big.Int), Unconfirmed: new(big.Int)}
}

func (a *Account) normalize() *Account {
	if a.Shares == nil {
		a.Shares = new(big.Int)
	}
	if a.Unconfirmed == nil {
		a.Unconfirmed = new(big.Int)
	}
	return a
}

// Spendable returns the shares that can be burnt or transferred.
func (a *Account) Spendable() *big.Int {
	return new(big.Int).Sub(a.Shares, a.Unconfirmed)
}

// IsEmpty returns whether the account holds no shares at all.
func (a *Account) IsEmpty() bool {
	return a.Shares.Sign() == 0 && a.Unconfirmed.Sign() == 0
}

// Totals are the pool wide counters.
type Totals struct {
	StakedValue       *big.Int // value earning rewards
	Shares            *big.Int // outstanding share supply
	UnstakedAvailable *big.Int // value out of staking, not yet withdrawn
}

func (t *Totals) normalize() *Totals {
	if t.StakedValue == nil {
		t.StakedValue = new(big.Int)
	}
	if t.Shares == nil {
		t.Shares = new(big.Int)
	}
	if t.UnstakedAvailable == nil {
		t.UnstakedAvailable = new(big.Int)
	}
	return t
}
