// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/validatorset"
)

// CustomGenesis the yaml schema of a custom network file.
type CustomGenesis struct {
	Name       string            `yaml:"name"`
	Timestamp  uint64            `yaml:"timestamp"`
	Admin      string            `yaml:"admin"`
	ExtraData  string            `yaml:"extraData"`
	Validators []customValidator `yaml:"validators"`
}

type customValidator struct {
	Address         string   `yaml:"address"`
	Operator        string   `yaml:"operator"`
	ConsensusConfig string   `yaml:"consensusConfig"`
	NetworkAddrs    []string `yaml:"networkAddrs"`
}

// NewCustomNet loads a custom network genesis from a yaml file.
func NewCustomNet(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var custom CustomGenesis
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, errors.Wrap(err, "parse genesis file")
	}
	return newCustomNet(&custom)
}

func newCustomNet(custom *CustomGenesis) (*Genesis, error) {
	if custom.Name == "" {
		return nil, errors.New("network name required")
	}
	admin, err := conclave.ParseAddress(custom.Admin)
	if err != nil {
		return nil, errors.Wrap(err, "invalid admin address")
	}

	builder := new(Builder).
		Timestamp(custom.Timestamp).
		Admin(*admin)

	if custom.ExtraData != "" {
		var extra [28]byte
		copy(extra[:], custom.ExtraData)
		builder.ExtraData(extra)
	}

	for _, v := range custom.Validators {
		addr, err := conclave.ParseAddress(v.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid validator address %q", v.Address)
		}
		validator := &validatorset.Validator{Address: *addr}
		if v.Operator != "" {
			operator, err := conclave.ParseAddress(v.Operator)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid operator address %q", v.Operator)
			}
			validator.Operator = *operator
		}
		if v.ConsensusConfig != "" {
			config, err := hex.DecodeString(v.ConsensusConfig)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid consensus config of %q", v.Address)
			}
			validator.ConsensusConfig = config
		}
		for _, na := range v.NetworkAddrs {
			validator.NetworkAddrs = append(validator.NetworkAddrs, []byte(na))
		}
		builder.Validator(validator)
	}

	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, custom.Name}, nil
}
