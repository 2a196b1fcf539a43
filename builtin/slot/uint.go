// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakepool/thor"
)

// ErrUnderflow is returned by Uint.Sub when the result would be negative.
var ErrUnderflow = errors.New("uint underflow")

// Uint is a wrapper for storage and retrieval of a non-negative integer counter.
type Uint struct {
	raw *Raw[*big.Int]
}

func NewUint(context *Context, pos thor.Bytes32) *Uint {
	return &Uint{raw: NewRaw[*big.Int](context, pos)}
}

func (u *Uint) Get() (*big.Int, error) {
	return u.raw.Get()
}

func (u *Uint) Set(value *big.Int) error {
	if value.Sign() < 0 {
		return ErrUnderflow
	}
	return u.raw.Set(value)
}

func (u *Uint) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Add(storage, value))
}

func (u *Uint) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Sub(storage, value))
}
