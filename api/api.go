// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/accounts"
	"github.com/vechain/stakepool/api/middleware"
	"github.com/vechain/stakepool/api/pool"
	"github.com/vechain/stakepool/api/subscriptions"
	"github.com/vechain/stakepool/api/treasury"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	// ServeMetrics mounts /metrics on the API router.
	ServeMetrics bool
}

// New returns the api handler of pool and a func that closes the open
// subscriptions.
func New(p *stakepool.Pool, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	pool.New(p).
		Mount(router, "/pool")
	accounts.New(p).
		Mount(router, "/accounts")
	treasury.New(p).
		Mount(router, "/treasury")
	subs := subscriptions.New(p, origins)
	subs.Mount(router, "/subscriptions")

	if opts.ServeMetrics {
		router.Path("/metrics").
			Methods(http.MethodGet).
			Name("metrics").
			Handler(metrics.HTTPHandler())
	}
	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP, subs.Close
}
