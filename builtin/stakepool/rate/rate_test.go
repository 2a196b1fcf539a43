// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// #nosec G404
package rate

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/stakepool/thor"
)

func TestBootstrap(t *testing.T) {
	r := New(big.NewInt(0), big.NewInt(0))
	assert.True(t, r.IsBootstrap())
	assert.Equal(t, big.NewInt(990_000), r.SharesFor(big.NewInt(990_000)))
	assert.Equal(t, big.NewInt(10_000), r.ValueOf(big.NewInt(10_000)))
	assert.Equal(t, "1.000000000000000000", r.String())
}

func TestConversions(t *testing.T) {
	// 1,100,000 value over 1,000,000 shares: 1.1 per share
	r := New(big.NewInt(1_100_000), big.NewInt(1_000_000))
	assert.False(t, r.IsBootstrap())

	assert.Equal(t, big.NewInt(454_545), r.SharesFor(big.NewInt(500_000)))
	assert.Equal(t, big.NewInt(454_546), r.SharesForCeil(big.NewInt(500_000)))
	assert.Equal(t, big.NewInt(500_000), r.ValueOf(big.NewInt(454_546)))
	assert.Equal(t, big.NewInt(499_999), r.ValueOf(big.NewInt(454_545)))

	// exact division does not round up
	assert.Equal(t, big.NewInt(10), r.SharesForCeil(big.NewInt(11)))
}

func TestCmp(t *testing.T) {
	one := New(big.NewInt(0), big.NewInt(0))
	same := New(big.NewInt(5), big.NewInt(5))
	higher := New(big.NewInt(1_100_000), big.NewInt(1_050_000))

	assert.Equal(t, 0, one.Cmp(same))
	assert.Equal(t, 1, higher.Cmp(one))
	assert.Equal(t, -1, one.Cmp(higher))
}

func TestLargeValues(t *testing.T) {
	r := New(thor.MaxAmount, new(big.Int).Rsh(thor.MaxAmount, 1))

	shares := r.SharesFor(thor.MaxAmount)
	assert.Equal(t, new(big.Int).Rsh(thor.MaxAmount, 1), shares)
	assert.True(t, r.ValueOf(shares).Cmp(thor.MaxAmount) <= 0)

	// outside the 256 bit range the wide path is used
	wide := new(big.Int).Lsh(big.NewInt(1), 300)
	assert.Equal(t, wide, mulDiv(wide, big.NewInt(3), big.NewInt(3), false))
	assert.Equal(t, big.NewInt(1), mulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(3), true))
}

func TestRoundTripNeverGains(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for range 1000 {
		value := big.NewInt(rng.Int63n(1e15) + 1)
		shares := big.NewInt(rng.Int63n(1e15) + 1)
		amount := big.NewInt(rng.Int63n(1e12) + 1)
		r := New(value, shares)

		back := r.ValueOf(r.SharesFor(amount))
		assert.True(t, back.Cmp(amount) <= 0, "amount %v came back as %v at %v", amount, back, r)

		// burning the ceiling always covers the amount
		covered := r.ValueOf(r.SharesForCeil(amount))
		assert.True(t, covered.Cmp(amount) >= 0, "ceil %v covers only %v at %v", amount, covered, r)
	}
}
