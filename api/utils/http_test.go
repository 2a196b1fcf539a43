// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/builtin/stakepool/reverts"
)

func serve(f utils.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	utils.WrapHandlerFunc(f)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"ok", nil, http.StatusOK},
		{"bad request", utils.BadRequest(errors.New("bad")), http.StatusBadRequest},
		{"wrapped http error", errors.Wrap(utils.NotFound(errors.New("gone")), "lookup"), http.StatusNotFound},
		{"internal", errors.New("disk"), http.StatusInternalServerError},
		{"unauthorized revert", utils.PoolError(errors.WithMessage(reverts.ErrUnauthorized, "nope")), http.StatusForbidden},
		{"revert", utils.PoolError(errors.WithMessage(reverts.ErrInvalidAmount, "0")), http.StatusBadRequest},
		{"storage error", utils.PoolError(errors.New("leveldb: closed")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(func(w http.ResponseWriter, _ *http.Request) error {
				if tt.err != nil {
					return tt.err
				}
				return utils.WriteJSON(w, utils.M{"ok": true})
			})
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, utils.ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, utils.ParseJSON(strings.NewReader(`{"b":1}`), &v))
}
