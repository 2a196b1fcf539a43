// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/mechanism/sim"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/node"
	"github.com/vechain/stakepool/state"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "StakePool"
	app.Usage = "Liquid staking pool ledger over a simulated staking mechanism"
	app.Copyright = "2025 VeChain Foundation <https://vechain.org/>"
	app.Flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		persistFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiTimeoutFlag,
		enableAPILogsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
	}
	app.Action = action
	app.Commands = []cli.Command{
		{
			Name:   "dump-config",
			Usage:  "print the effective configuration as YAML",
			Flags:  []cli.Flag{configFlag},
			Action: dumpConfigAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func action(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	reward, _ := cfg.RewardPerEpoch()
	credit, _ := cfg.StorageCredit()

	persist := ctx.Bool(persistFlag.Name)
	var (
		db      *lvldb.LevelDB
		dataDir string
	)
	if persist {
		dataDir = makeDataDir(ctx)
		db = openMainDB(dataDir, cfg.DB)
	} else {
		dataDir = "Memory"
		db = openMemMainDB()
	}
	defer func() { logger.Info("closing pool database..."); db.Close() }()

	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	mechanism := sim.New()
	clock, err := sim.NewClock(cfg.Sim.EpochSchedule, mechanism, reward)
	if err != nil {
		return err
	}
	meta := metaBucket.NewGetPutter(db)
	pool := stakepool.New(state.New(poolBucket.NewGetPutter(db)), stakepool.Deps{
		Gate:      sim.NewGate(cfg.Grants()),
		Registry:  sim.NewRegistry(credit),
		Mechanism: mechanism,
		Bank:      sim.NewBank(),
		Clock:     clock,
	})
	defer pool.Close()
	if err := initPool(pool, cfg, mechanism, clock, meta); err != nil {
		return err
	}

	exitSignal := handleExitSignal()

	var enableAPILogs atomic.Bool
	enableAPILogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	apiHandler, apiCloser := api.New(pool, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableReqLogger:      &enableAPILogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        enableMetrics,
	})
	defer func() { logger.Info("closing subscriptions..."); apiCloser() }()
	apiURL, srvCloser := startAPIServer(ctx, apiHandler)
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	var metricsURL string
	if enableMetrics {
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		metricsURL = url
	}

	status, err := pool.Status()
	if err != nil {
		return err
	}
	printStartupMessage(cfg, status, dataDir, apiURL, metricsURL)

	opts := node.Options{}
	if distributor, ok := cfg.DistributorAddress(); ok {
		opts.DistributeInterval = cfg.Sim.DistributeInterval
		opts.Operator = distributor
	} else {
		logger.Warn("no operator may distribute, periodic distribution disabled")
	}

	clock.Start()
	var goes co.Goes
	goes.GoCtx(exitSignal, mechanism.Run)
	err = node.New(pool, mechanism.Confirmations(), opts).Run(exitSignal)
	clock.Stop()
	goes.Wait()

	if err := saveEpoch(meta, clock.Epoch()); err != nil {
		logger.Warn("failed to save epoch", "err", err)
	}
	return err
}

// initPool writes the genesis into a new store. An existing pool is resumed
// instead: the simulator restarts empty, so it is seeded with the confirmed
// staked value and the pending deposits are sent to it again.
func initPool(pool *stakepool.Pool, cfg *Config, mechanism *sim.Mechanism, clock *sim.Clock, meta kv.Getter) error {
	initialized, err := pool.IsInitialized()
	if err != nil {
		return err
	}
	if !initialized {
		if err := pool.Initialize(cfg.Genesis()); err != nil {
			return errors.Wrap(err, "initialize pool")
		}
		logger.Info("pool initialized", "owner", cfg.Owner, "treasury", cfg.Treasury)
		return nil
	}
	epoch, err := loadEpoch(meta)
	if err != nil {
		return err
	}
	clock.SetEpoch(epoch)

	balances, err := pool.Balances()
	if err != nil {
		return err
	}
	// unreleased withdraws are still staked until redispatched
	held := new(big.Int).Sub(balances.StakedValue, balances.PendingDepositValue)
	mechanism.Seed(held.Add(held, balances.WithdrawingValue))
	if _, err := pool.Redispatch(context.Background()); err != nil {
		return errors.Wrap(err, "redispatch pending instructions")
	}
	logger.Info("pool resumed", "epoch", epoch, "staked", balances.StakedValue, "pending", balances.PendingDepositValue)
	return nil
}

func dumpConfigAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
