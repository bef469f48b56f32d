// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv provides the execution context a registry operation runs in.
package xenv

import (
	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/state"
	"github.com/conclavechain/conclave/validatorset"
)

// BlockContext block context.
// ID is the identifier the external block-processing collaborator assigned
// to the block; the per-block reconfiguration gate is keyed on it.
type BlockContext struct {
	ID       conclave.Bytes32
	Number   uint32
	Proposer conclave.Address
	Time     uint64
}

// TransactionContext transaction context.
// Origin is the authenticated account invoking the operation.
type TransactionContext struct {
	ID     conclave.Bytes32
	Origin conclave.Address
}

// Environment an env to execute a registry operation.
// Emitted events accumulate as an output list; they are observable only
// after the enclosing transaction succeeds.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
	events   []*validatorset.NewEpochEvent
}

// New create a new env.
func New(state *state.State, blockCtx *BlockContext, txCtx *TransactionContext) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		txCtx:    txCtx,
	}
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) Caller() conclave.Address                { return env.txCtx.Origin }

// Emit appends an event to the output list.
func (env *Environment) Emit(ev *validatorset.NewEpochEvent) {
	env.events = append(env.events, ev)
}

// Events returns the accumulated output list.
func (env *Environment) Events() []*validatorset.NewEpochEvent {
	return env.events
}
