// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/conclavechain/conclave/api"
	"github.com/conclavechain/conclave/genesis"
	"github.com/conclavechain/conclave/log"
	"github.com/conclavechain/conclave/metrics"
	"github.com/conclavechain/conclave/node"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Conclave",
		Usage:     "Validator-set reconfiguration node",
		Copyright: "2026 The Conclave developers",
		Flags: []cli.Flag{
			networkFlag,
			dataDirFlag,
			memFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEpochsLimitFlag,
			enableAPILogsFlag,
			blockIntervalFlag,
			verbosityFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	instanceDir := ""
	if !ctx.Bool(memFlag.Name) {
		if instanceDir, err = makeInstanceDir(ctx, gene); err != nil {
			return err
		}
	}

	mainDB, err := openMainDB(ctx, instanceDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	epochDB, err := openEpochDB(ctx, instanceDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing epoch database..."); epochDB.Close() }()

	n, err := node.New(mainDB, epochDB, gene)
	if err != nil {
		return err
	}

	apiHandler := api.New(n, epochDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EpochsLimit:     ctx.Uint64(apiEpochsLimitFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	apiSrv, apiURL, err := startAPIServer(ctx, apiHandler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); apiSrv.Shutdown(context.Background()) }()

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		srv, url, err := startMetricsServer(ctx)
		if err != nil {
			return err
		}
		metricsURL = url
		defer func() { logger.Info("stopping metrics server..."); srv.Shutdown(context.Background()) }()
	}

	printStartupMessage(gene, n, apiURL, metricsURL)

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		interval := time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second
		return n.Run(groupCtx, interval)
	})
	return group.Wait()
}

func printStartupMessage(gene *genesis.Genesis, n *node.Node, apiURL, metricsURL string) {
	headID, headNum, _ := n.Head()
	info := fmt.Sprintf(
		`Starting %v
    Network     [ %v ]
    Genesis     [ %v ]
    Head        [ #%v %v ]
    API portal  [ %v ]`,
		"Conclave "+fullVersion(),
		gene.Name(),
		gene.ID(),
		headNum, headID,
		apiURL)
	if metricsURL != "" {
		info += fmt.Sprintf("\n    Metrics     [ %v ]", metricsURL)
	}
	fmt.Println(info)
}
