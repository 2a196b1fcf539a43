// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakepool

import (
	"math"
	"math/big"

	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/metrics"
)

var (
	metricOperations    = metrics.LazyLoadCounterVec("operations_count", []string{"op", "result"})
	metricConfirmations = metrics.LazyLoadCounterVec("confirmations_count", []string{"op", "result"})
	metricStorageBytes  = metrics.LazyLoadCounterVec("storage_bytes", []string{"op"})
	metricTotals        = metrics.LazyLoadGaugeVec("totals", []string{"kind"})
)

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case reverts.IsRevertErr(err):
		return "revert"
	default:
		return "error"
	}
}

func observeOperation(op string, err error) {
	metricOperations().Add(1, metrics.Labels{"op": op, "result": result(err)})
}

func observeConfirmation(op Op, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metricConfirmations().Add(1, metrics.Labels{"op": op.String(), "result": outcome})
}

func storageUsage(op string, size int) {
	metricStorageBytes().Add(int64(size), metrics.Labels{"op": op})
}

// exportTotals publishes the pool totals, clamped to the gauge range.
func (p *Pool) exportTotals() {
	totals, err := p.sharesService.Totals()
	if err != nil {
		logger.Warn("failed to export totals", "err", err)
		return
	}
	pending, err := p.depositsService.PendingValue()
	if err != nil {
		logger.Warn("failed to export totals", "err", err)
		return
	}
	withdrawing, err := p.depositsService.WithdrawingValue()
	if err != nil {
		logger.Warn("failed to export totals", "err", err)
		return
	}
	gauge := metricTotals()
	gauge.Set(clamp(totals.StakedValue), metrics.Labels{"kind": "staked"})
	gauge.Set(clamp(totals.Shares), metrics.Labels{"kind": "shares"})
	gauge.Set(clamp(totals.UnstakedAvailable), metrics.Labels{"kind": "unstaked"})
	gauge.Set(clamp(pending), metrics.Labels{"kind": "pending"})
	gauge.Set(clamp(withdrawing), metrics.Labels{"kind": "withdrawing"})
}

func clamp(v *big.Int) int64 {
	if v.IsInt64() {
		return v.Int64()
	}
	if v.Sign() < 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}
