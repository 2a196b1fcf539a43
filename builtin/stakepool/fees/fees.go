// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/thor"
)

var denominator = big.NewInt(int64(thor.MaxBasisPoints))

// Config holds the fee rates in basis points.
type Config struct {
	StakingBPS  uint16 `json:"stakingFee" yaml:"staking-fee"`
	EarningsBPS uint16 `json:"earningsFee" yaml:"earnings-fee"`
}

// Validate checks both rates are within [0, 10000].
func (c *Config) Validate() error {
	if c.StakingBPS > thor.MaxBasisPoints {
		return errors.WithMessagef(reverts.ErrInvalidAmount, "staking fee %d bps exceeds %d", c.StakingBPS, thor.MaxBasisPoints)
	}
	if c.EarningsBPS > thor.MaxBasisPoints {
		return errors.WithMessagef(reverts.ErrInvalidAmount, "earnings fee %d bps exceeds %d", c.EarningsBPS, thor.MaxBasisPoints)
	}
	return nil
}

// Split deducts the fee from gross. fee = gross * bps / 10000, rounded down.
func Split(gross *big.Int, bps uint16) (net *big.Int, fee *big.Int) {
	fee = apply(gross, bps)
	return new(big.Int).Sub(gross, fee), fee
}

// Earnings returns the treasury's part of a reward delta, rounded down.
func Earnings(delta *big.Int, bps uint16) *big.Int {
	return apply(delta, bps)
}

func apply(amount *big.Int, bps uint16) *big.Int {
	fee := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return fee.Quo(fee, denominator)
}
