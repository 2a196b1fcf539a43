// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
)

// Constants of the staking pool.
const (
	UnbondingEpochs uint64 = 4     // epochs between unstake and the earliest withdraw.
	MaxBasisPoints  uint16 = 10000 // 100%, denominator of every fee rate.
)

var (
	// MaxAmount is the largest amount or share quantity the pool accepts (2^128 - 1).
	MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	// ShareUnit is the share quantity priced by default token value queries.
	ShareUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// Storage namespaces of the pool.
var (
	KeyPoolParams   = Blake2b([]byte("pool-params"))
	KeyPoolStatus   = Blake2b([]byte("pool-status"))
	KeyFeeConfig    = Blake2b([]byte("fee-config"))
	KeyTotals       = Blake2b([]byte("totals"))
	KeyAccounts     = Blake2b([]byte("accounts"))
	KeyWithdrawals  = Blake2b([]byte("withdrawals"))
	KeyDeposits     = Blake2b([]byte("deposits"))
	KeyDepositNonce = Blake2b([]byte("deposit-nonce"))
	KeyPendingValue = Blake2b([]byte("pending-deposit-value"))
	KeyWithdraws    = Blake2b([]byte("withdraw-instructions"))
	KeyWithdrawing  = Blake2b([]byte("withdrawing-value"))
)

// IsValidAmount reports whether amount fits the pool's u128 range.
func IsValidAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() >= 0 && amount.Cmp(MaxAmount) <= 0
}
