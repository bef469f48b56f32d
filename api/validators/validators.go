// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/conclavechain/conclave/api/utils"
	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/validatorset"
)

// Registry read access to the validator registry.
type Registry interface {
	Validators() ([]*validatorset.Validator, error)
	Validator(addr conclave.Address) (*validatorset.Validator, error)
}

type Validators struct {
	registry Registry
}

func New(registry Registry) *Validators {
	return &Validators{registry}
}

func (v *Validators) handleGetValidators(w http.ResponseWriter, req *http.Request) error {
	all, err := v.registry.Validators()
	if err != nil {
		return err
	}
	if req.URL.Query().Get("member") == "true" {
		members := make([]*validatorset.Validator, 0, len(all))
		for _, entry := range all {
			if entry.Member {
				members = append(members, entry)
			}
		}
		all = members
	}
	if all == nil {
		all = []*validatorset.Validator{}
	}
	return utils.WriteJSON(w, all)
}

func (v *Validators) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	addr, err := conclave.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	validator, err := v.registry.Validator(*addr)
	if err != nil {
		return err
	}
	if validator == nil {
		return utils.NotFound(errors.New("no such validator"))
	}
	return utils.WriteJSON(w, validator)
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("validators_get_all").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidators))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("validators_get_one").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetValidator))
}
