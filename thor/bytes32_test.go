// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes32(t *testing.T) {
	b := BytesToBytes32([]byte("master"))
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000006d6173746572", b.String())
	assert.Len(t, b.Bytes(), 32)
	assert.False(t, b.IsZero())
	assert.True(t, Bytes32{}.IsZero())
}

func TestBlake2b(t *testing.T) {
	a := Blake2b([]byte("acc"), []byte("ounts"))
	b := Blake2b([]byte("accounts"))
	assert.Equal(t, b, a)
	assert.Equal(t, KeyAccounts, a)
	assert.NotEqual(t, KeyAccounts, KeyWithdrawals)

	// pooled hashers start clean
	assert.Equal(t, a, Blake2b([]byte("acc"), []byte("ounts")))
}
