// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api exposes the read-only query surface over HTTP. Mutations go
// through transactions only.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/conclavechain/conclave/api/epochs"
	"github.com/conclavechain/conclave/api/validators"
	"github.com/conclavechain/conclave/epochdb"
	"github.com/conclavechain/conclave/log"
	"github.com/conclavechain/conclave/node"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EpochsLimit     uint64
	EnableReqLogger bool
	EnableMetrics   bool
}

// New return api router.
func New(n *node.Node, epochDB *epochdb.EpochDB, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	validators.New(n).
		Mount(router, "/validators")
	epochs.New(n, epochDB, opts.EpochsLimit).
		Mount(router, "/epochs")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP
}
