// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/builtin/stakepool"
	"github.com/vechain/stakepool/co"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/metrics"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) {
	format := "terminal"
	if ctx.Bool(jsonLogsFlag.Name) {
		format = "json"
	}
	useColor := format == "terminal" && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	log.SetDefault(log.NewHandler(os.Stderr, format, ctx.Int(verbosityFlag.Name), useColor))
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakepool")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakepool")
		default:
			return filepath.Join(home, ".org.vechain.stakepool")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func openMainDB(dataDir string, opts lvldb.Options) *lvldb.LevelDB {
	dir := filepath.Join(dataDir, "pool.db")
	db, err := lvldb.New(dir, opts)
	if err != nil {
		fatal(fmt.Sprintf("open pool database [%v]: %v", dir, err))
	}
	return db
}

func openMemMainDB() *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open pool database: %v", err))
	}
	return db
}

var (
	poolBucket = kv.Bucket("p")
	metaBucket = kv.Bucket("m")

	epochKey = []byte("epoch")
)

// loadEpoch returns the epoch saved by the last run, zero on a new store.
func loadEpoch(meta kv.Getter) (uint64, error) {
	data, err := meta.Get(epochKey)
	if err != nil {
		if meta.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get epoch")
	}
	var epoch uint64
	if err := rlp.DecodeBytes(data, &epoch); err != nil {
		return 0, errors.Wrap(err, "decode epoch")
	}
	return epoch, nil
}

func saveEpoch(meta kv.Putter, epoch uint64) error {
	data, err := rlp.EncodeToBytes(epoch)
	if err != nil {
		return err
	}
	return errors.Wrap(meta.Put(epochKey, data), "failed to set epoch")
}

func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", addr, err))
	}
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}
}

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(exitSignalCh)
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(cfg *Config, status stakepool.Status, dataDir, apiURL, metricsURL string) {
	fmt.Printf(`Starting %v
    Owner        [ %v ]
    Treasury     [ %v ]
    Status       [ %v ]
    Fees         [ staking %v bps, earnings %v bps ]
    Epochs       [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
`,
		"StakePool "+fullVersion(),
		cfg.Owner,
		cfg.Treasury,
		status,
		cfg.Fees.StakingBPS, cfg.Fees.EarningsBPS,
		cfg.Sim.EpochSchedule,
		dataDir,
		apiURL,
		func() string {
			if metricsURL == "" {
				return "disabled"
			}
			return metricsURL
		}(),
	)
}
