// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rate converts between base asset amounts and pool shares.
//
// A Rate is a snapshot of the pool totals. Amount to shares and shares to amount
// both round down, so conversions never mint shares or pay value that the pool
// does not back. An empty pool converts 1:1.
package rate

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Rate is the share value total_staked_value / total_shares.
type Rate struct {
	value  *big.Int
	shares *big.Int
}

// New returns the rate of the given totals. The arguments are copied.
func New(stakedValue, totalShares *big.Int) Rate {
	return Rate{
		value:  new(big.Int).Set(stakedValue),
		shares: new(big.Int).Set(totalShares),
	}
}

// IsBootstrap reports whether the pool is empty and converts 1:1.
func (r Rate) IsBootstrap() bool {
	return r.shares.Sign() == 0 || r.value.Sign() == 0
}

// StakedValue returns the value side of the rate.
func (r Rate) StakedValue() *big.Int {
	return new(big.Int).Set(r.value)
}

// TotalShares returns the share side of the rate.
func (r Rate) TotalShares() *big.Int {
	return new(big.Int).Set(r.shares)
}

// SharesFor returns the shares amount is worth, rounded down.
func (r Rate) SharesFor(amount *big.Int) *big.Int {
	if r.IsBootstrap() {
		return new(big.Int).Set(amount)
	}
	return mulDiv(amount, r.shares, r.value, false)
}

// SharesForCeil returns the fewest shares worth at least amount.
func (r Rate) SharesForCeil(amount *big.Int) *big.Int {
	if r.IsBootstrap() {
		return new(big.Int).Set(amount)
	}
	return mulDiv(amount, r.shares, r.value, true)
}

// ValueOf returns the base asset value of shares, rounded down.
func (r Rate) ValueOf(shares *big.Int) *big.Int {
	if r.IsBootstrap() {
		return new(big.Int).Set(shares)
	}
	return mulDiv(shares, r.value, r.shares, false)
}

// Cmp compares two rates exactly.
// It returns -1 if r < o, 0 if r == o and +1 if r > o.
func (r Rate) Cmp(o Rate) int {
	rv, rs := r.fraction()
	ov, os := o.fraction()
	return new(big.Int).Mul(rv, os).Cmp(new(big.Int).Mul(ov, rs))
}

func (r Rate) fraction() (*big.Int, *big.Int) {
	if r.IsBootstrap() {
		return big.NewInt(1), big.NewInt(1)
	}
	return r.value, r.shares
}

// String formats the share value with 18 decimals.
func (r Rate) String() string {
	v, s := r.fraction()
	return new(big.Rat).SetFrac(v, s).FloatString(18)
}

// mulDiv returns x*y/d, rounded down or up. d must be positive.
// Pool quantities are bounded to 128 bits so the 256 bit path is the normal one.
func mulDiv(x, y, d *big.Int, roundUp bool) *big.Int {
	ux, ofx := uint256.FromBig(x)
	uy, ofy := uint256.FromBig(y)
	ud, ofd := uint256.FromBig(d)
	if !ofx && !ofy && !ofd {
		if z, overflow := new(uint256.Int).MulDivOverflow(ux, uy, ud); !overflow {
			if roundUp && !new(uint256.Int).MulMod(ux, uy, ud).IsZero() {
				z.AddUint64(z, 1)
			}
			return z.ToBig()
		}
	}

	q, m := new(big.Int).QuoRem(new(big.Int).Mul(x, y), d, new(big.Int))
	if roundUp && m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
