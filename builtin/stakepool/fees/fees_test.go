// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fees

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/slot"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		gross int64
		bps   uint16
		net   int64
		fee   int64
	}{
		{1_000_000, 100, 990_000, 10_000},
		{1_000_000, 0, 1_000_000, 0},
		{1_000_000, 10000, 0, 1_000_000},
		{99, 100, 99, 0}, // fee rounds down
		{12_345, 250, 12_037, 308},
	}
	for _, tt := range tests {
		net, fee := Split(big.NewInt(tt.gross), tt.bps)
		assert.Equal(t, big.NewInt(tt.net).String(), net.String(), "gross %d bps %d", tt.gross, tt.bps)
		assert.Equal(t, big.NewInt(tt.fee).String(), fee.String(), "gross %d bps %d", tt.gross, tt.bps)
		assert.Equal(t, big.NewInt(tt.gross).String(), new(big.Int).Add(net, fee).String())
	}
}

func TestEarnings(t *testing.T) {
	assert.Equal(t, "50000", Earnings(big.NewInt(100_000), 5000).String())
	assert.Equal(t, 0, Earnings(big.NewInt(1), 9999).Sign())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Config{StakingBPS: 10000, EarningsBPS: 0}).Validate())
	assert.ErrorIs(t, (&Config{StakingBPS: 10001}).Validate(), reverts.ErrInvalidAmount)
	assert.ErrorIs(t, (&Config{EarningsBPS: 20000}).Validate(), reverts.ErrInvalidAmount)
}

func TestService(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	svc := New(slot.NewContext(state.New(db), nil))

	cfg, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	require.NoError(t, svc.Set(&Config{StakingBPS: 100, EarningsBPS: 5000}))
	assert.ErrorIs(t, svc.Set(&Config{StakingBPS: 10001}), reverts.ErrInvalidAmount)

	cfg, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, &Config{StakingBPS: 100, EarningsBPS: 5000}, cfg)
}
