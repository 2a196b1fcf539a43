// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/stakepool/co"
)

func TestGoes_GoCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var goes co.Goes
	var n atomic.Int32

	loop := func(ctx context.Context) {
		n.Add(1)
		<-ctx.Done()
	}
	goes.GoCtx(ctx, loop, loop, loop)

	select {
	case <-goes.Done():
		t.Fatal("loops returned before cancel")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	goes.Wait()
	assert.Equal(t, int32(3), n.Load())
}
