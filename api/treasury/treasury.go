// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package treasury

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/accounts"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/thor"
)

// Body is the request of every treasury endpoint. Amount is ignored by
// distribute.
type Body struct {
	Caller thor.Address          `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount,omitempty"`
}

type Distribution struct {
	Reported   *math.HexOrDecimal256 `json:"reported"`
	Delta      *math.HexOrDecimal256 `json:"delta"`
	FeeShares  *math.HexOrDecimal256 `json:"feeShares"`
	RateBefore string                `json:"rateBefore"`
	RateAfter  string                `json:"rateAfter"`
}

type Treasury struct {
	pool *stakepool.Pool
}

func New(pool *stakepool.Pool) *Treasury {
	return &Treasury{pool}
}

func parseBody(req *http.Request) (*Body, error) {
	var body Body
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return &body, nil
}

func (t *Treasury) handleDistribute(w http.ResponseWriter, req *http.Request) error {
	body, err := parseBody(req)
	if err != nil {
		return err
	}
	d, err := t.pool.TreasuryDistribute(req.Context(), body.Caller)
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, &Distribution{
		Reported:   utils.Amount(d.Reported),
		Delta:      utils.Amount(d.Delta),
		FeeShares:  utils.Amount(d.FeeShares),
		RateBefore: d.RateBefore.String(),
		RateAfter:  d.RateAfter.String(),
	})
}

func (t *Treasury) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	body, err := parseBody(req)
	if err != nil {
		return err
	}
	receipt, err := t.pool.TreasuryDeposit(req.Context(), body.Caller, utils.BigInt(body.Amount))
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, accounts.ConvertReceipt(receipt))
}

func (t *Treasury) handleTransferToOwner(w http.ResponseWriter, req *http.Request) error {
	body, err := parseBody(req)
	if err != nil {
		return err
	}
	receipt, err := t.pool.TreasuryTransferToOwner(req.Context(), body.Caller, utils.BigInt(body.Amount))
	if err != nil {
		return utils.PoolError(err)
	}
	return utils.WriteJSON(w, accounts.ConvertUnstakeReceipt(receipt))
}

func (t *Treasury) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/distribute").
		Methods(http.MethodPost).
		Name("treasury_post_distribute").
		HandlerFunc(utils.WrapHandlerFunc(t.handleDistribute))
	sub.Path("/deposit").
		Methods(http.MethodPost).
		Name("treasury_post_deposit").
		HandlerFunc(utils.WrapHandlerFunc(t.handleDeposit))
	sub.Path("/transfer-to-owner").
		Methods(http.MethodPost).
		Name("treasury_post_transfer_to_owner").
		HandlerFunc(utils.WrapHandlerFunc(t.handleTransferToOwner))
}
