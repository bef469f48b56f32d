// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	isatty "github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/conclavechain/conclave/epochdb"
	"github.com/conclavechain/conclave/genesis"
	"github.com/conclavechain/conclave/kv"
	"github.com/conclavechain/conclave/log"
	"github.com/conclavechain/conclave/metrics"
)

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.conclave.conclave")
		}
		return filepath.Join(home, ".org.conclave.conclave")
	}
	return ""
}

func initLogger(ctx *cli.Context) {
	logLevel := ctx.Int(verbosityFlag.Name)
	lvl := new(slog.LevelVar)
	switch logLevel {
	case 0:
		lvl.Set(log.LevelCrit)
	case 1:
		lvl.Set(log.LevelError)
	case 2:
		lvl.Set(log.LevelWarn)
	case 3:
		lvl.Set(log.LevelInfo)
	case 4:
		lvl.Set(log.LevelDebug)
	default:
		lvl.Set(log.LevelTrace)
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	log.SetDefault(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor))
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	network := ctx.String(networkFlag.Name)
	if network == "" {
		return genesis.NewDevnet(), nil
	}
	return genesis.NewCustomNet(network)
}

// makeInstanceDir creates the per-network instance dir under data-dir.
func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.New("unable to infer default data dir, use -data-dir")
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(ctx *cli.Context, dir string) (kv.Store, error) {
	if ctx.Bool(memFlag.Name) {
		return kv.NewMem()
	}
	store, err := kv.New(filepath.Join(dir, "main.db"), kv.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open main database")
	}
	return store, nil
}

func openEpochDB(ctx *cli.Context, dir string) (*epochdb.EpochDB, error) {
	if ctx.Bool(memFlag.Name) {
		return epochdb.NewMem()
	}
	db, err := epochdb.New(filepath.Join(dir, "epochs.db"))
	if err != nil {
		return nil, errors.Wrap(err, "open epoch database")
	}
	return db, nil
}

func startAPIServer(ctx *cli.Context, handler http.HandlerFunc) (*http.Server, string, error) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		srv.Serve(listener)
	}()
	return srv, "http://" + listener.Addr().String() + "/", nil
}

func startMetricsServer(ctx *cli.Context) (*http.Server, string, error) {
	addr := ctx.String(metricsAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen metrics addr [%v]", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		srv.Serve(listener)
	}()
	return srv, "http://" + listener.Addr().String() + "/metrics", nil
}
