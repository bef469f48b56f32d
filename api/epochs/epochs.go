// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/conclavechain/conclave/api/utils"
	"github.com/conclavechain/conclave/epochdb"
	"github.com/conclavechain/conclave/validatorset"
)

// Reader read access to current and published epochs.
type Reader interface {
	Epoch() (uint64, error)
}

type Epochs struct {
	reader Reader
	db     *epochdb.EpochDB
	limit  uint64
}

func New(reader Reader, db *epochdb.EpochDB, limit uint64) *Epochs {
	return &Epochs{reader, db, limit}
}

func (e *Epochs) handleGetCurrent(w http.ResponseWriter, req *http.Request) error {
	epoch, err := e.reader.Epoch()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"epoch": epoch})
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	num, err := strconv.ParseUint(mux.Vars(req)["epoch"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "epoch"))
	}
	ev, err := e.db.Get(req.Context(), num)
	if err != nil {
		return err
	}
	if ev == nil {
		return utils.NotFound(errors.New("epoch not published"))
	}
	return utils.WriteJSON(w, ev)
}

func (e *Epochs) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter epochdb.EpochFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options == nil {
		filter.Options = &epochdb.Options{Limit: e.limit}
	} else if filter.Options.Limit > e.limit {
		return utils.BadRequest(errors.Errorf("options.limit exceeds the maximum of %v", e.limit))
	}
	events, err := e.db.Filter(req.Context(), &filter)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*validatorset.NewEpochEvent{}
	}
	return utils.WriteJSON(w, events)
}

func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("epochs_get_current").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetCurrent))
	sub.Path("").
		Methods(http.MethodPost).
		Name("epochs_filter").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
	sub.Path("/{epoch}").
		Methods(http.MethodGet).
		Name("epochs_get_one").
		HandlerFunc(utils.WrapHandlerFunc(e.handleGetEpoch))
}
