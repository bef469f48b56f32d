// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the initial registry state.
package genesis

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/state"
	"github.com/conclavechain/conclave/validatorset"
)

var errGenesisIDMismatch = errors.New("genesis ID mismatch")

// Genesis to build the genesis state.
type Genesis struct {
	builder *Builder
	id      conclave.Bytes32
	name    string
}

// ID returns the genesis ID.
func (g *Genesis) ID() conclave.Bytes32 {
	return g.id
}

// Name returns the network name.
func (g *Genesis) Name() string {
	return g.name
}

// Build seeds the given state.
func (g *Genesis) Build(st *state.State) (conclave.Bytes32, error) {
	id, err := g.builder.Build(st)
	if err != nil {
		return conclave.Bytes32{}, err
	}
	if id != g.id {
		return conclave.Bytes32{}, errGenesisIDMismatch
	}
	return id, nil
}

// NewDevnet create the genesis of the dev network: the first dev account is
// the admin, the rest start as validators with themselves as operator.
func NewDevnet() *Genesis {
	accounts := DevAccounts()

	builder := new(Builder).
		Timestamp(devnetTimestamp).
		Admin(accounts[0].Address)
	for _, acc := range accounts[1:] {
		builder.Validator(&validatorset.Validator{
			Address:         acc.Address,
			Operator:        acc.Address,
			ConsensusConfig: crypto.FromECDSAPub(&acc.PrivateKey.PublicKey),
		})
	}

	id, err := builder.ComputeID()
	if err != nil {
		panic(err)
	}
	return &Genesis{builder, id, "devnet"}
}

const devnetTimestamp uint64 = 1767225600 // '2026-01-01T00:00:00.000Z'

// DevAccount account for development.
type DevAccount struct {
	Address    conclave.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts []DevAccount

// DevAccounts returns the accounts for development, the first is the admin
// and the rest are genesis validators.
func DevAccounts() []DevAccount {
	if len(devAccounts) != 0 {
		return devAccounts
	}

	privKeys := []string{
		"b2c71a5b2dea1d5f2b848c80db5b0d0cbf9f5e5a58e4b4a0a867c6b0c2893c0f",
		"4de650ab46a6a7a50e7e161af9e043cf1ac0cf2b9b3aa4ef7b1e7ba9908f2c2a",
		"1b310ea04afd6d14a8f142158873fc70bfd4ba12a19138cc5b309fce7c77105e",
		"c8c53657e41a8d669349fc287f57457bd746cb1fcfc38cf94d235deb2cfca81b",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		devAccounts = append(devAccounts, DevAccount{conclave.Address(addr), pk})
	}
	return devAccounts
}
