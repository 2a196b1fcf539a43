// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/thor"
)

// Amount converts v for JSON output. nil stays nil.
func Amount(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	a := math.HexOrDecimal256(*new(big.Int).Set(v))
	return &a
}

// BigInt converts a JSON amount. nil stays nil, meaning "everything" to the
// operations that accept it.
func BigInt(a *math.HexOrDecimal256) *big.Int {
	if a == nil {
		return nil
	}
	return new(big.Int).Set((*big.Int)(a))
}

// ParseAmount parses a decimal or 0x-prefixed amount. An empty s yields nil.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// ParseAddress parses an account address.
func ParseAddress(s string) (thor.Address, error) {
	addr, err := thor.ParseAddress(s)
	if err != nil {
		return thor.Address{}, errors.WithMessage(err, "address")
	}
	return *addr, nil
}
