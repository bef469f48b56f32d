// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reconfig implements the validator-set reconfiguration engine.
//
// Entry points authorize the caller, mutate the registry and publish at most
// one epoch bump per block. Every operation runs inside a state checkpoint
// and reverts fully on abort; aborts carry stable numeric codes.
package reconfig

import (
	"fmt"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/log"
	"github.com/conclavechain/conclave/metrics"
	"github.com/conclavechain/conclave/state"
	"github.com/conclavechain/conclave/validatorset"
	"github.com/conclavechain/conclave/xenv"
)

var logger = log.WithContext("pkg", "reconfig")

// Engine executes registry operations against a validator set stored at a
// fixed registry address.
type Engine struct {
	addr       conclave.Address
	opsCounter metrics.CountVecMeter
	epochGauge metrics.GaugeMeter
	sizeGauge  metrics.GaugeMeter
}

// New create an engine over the default registry address.
func New() *Engine {
	return NewAt(validatorset.Address)
}

// NewAt create an engine over the given registry address.
func NewAt(addr conclave.Address) *Engine {
	return &Engine{
		addr:       addr,
		opsCounter: metrics.CounterVec("reconfig_ops_count", []string{"op", "result"}),
		epochGauge: metrics.Gauge("reconfig_epoch_gauge"),
		sizeGauge:  metrics.Gauge("reconfig_validator_count_gauge"),
	}
}

// run wraps an operation in a state checkpoint. On any failure the state is
// reverted to the checkpoint, so aborted operations leave no trace.
func (e *Engine) run(env *xenv.Environment, op string, fn func(vset *validatorset.ValidatorSet) error) error {
	checkpoint := env.State().NewCheckpoint()
	if err := fn(validatorset.New(e.addr, env.State())); err != nil {
		env.State().RevertTo(checkpoint)
		result := "error"
		if _, ok := AbortCode(err); ok {
			result = "abort"
		}
		e.opsCounter.AddWithLabel(1, map[string]string{"op": op, "result": result})
		return err
	}
	e.opsCounter.AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	return nil
}

func (e *Engine) requireAdmin(vset *validatorset.ValidatorSet, caller conclave.Address) error {
	admin, err := vset.Admin()
	if err != nil {
		return err
	}
	if caller != admin {
		return errNotAuthorizedAdmin
	}
	return nil
}

// SetOperator delegates the caller's validator entry to the given operator.
// The caller must own an entry; the new operator need not be a validator.
// Delegation alone never marks the set dirty.
func (e *Engine) SetOperator(env *xenv.Environment, operator conclave.Address) error {
	return e.run(env, "set_operator", func(vset *validatorset.ValidatorSet) error {
		ok, err := vset.SetOperator(env.Caller(), operator)
		if err != nil {
			return err
		}
		if !ok {
			return errNotAValidatorOwner
		}
		logger.Debug("operator delegated", "validator", env.Caller(), "operator", operator)
		return nil
	})
}

// SetConfig overwrites the consensus config and network addresses of the
// given validator. The caller must be the entry's recorded operator. The set
// turns dirty only when the target is a current member; a non-member's config
// is stored for later re-admission without forcing a reconfiguration.
func (e *Engine) SetConfig(env *xenv.Environment, validator conclave.Address, consensusConfig []byte, networkAddrs [][]byte) error {
	return e.run(env, "set_config", func(vset *validatorset.ValidatorSet) error {
		entry, err := vset.Get(validator)
		if err != nil {
			return err
		}
		if entry == nil || entry.Operator != env.Caller() {
			return errNotAuthorizedOperator
		}
		if _, err := vset.SetConfig(validator, consensusConfig, networkAddrs); err != nil {
			return err
		}
		if entry.Member {
			if err := vset.SetDirty(true); err != nil {
				return err
			}
		}
		logger.Debug("config updated", "validator", validator, "member", entry.Member)
		return nil
	})
}

// AddValidator admits the given validator into the set. Admin only. A first
// admission records the supplied profile; a re-admission relinks the retained
// entry and ignores the profile, so earlier delegation and config survive.
func (e *Engine) AddValidator(env *xenv.Environment, profile *validatorset.Validator) error {
	return e.run(env, "add_validator", func(vset *validatorset.ValidatorSet) error {
		if err := e.requireAdmin(vset, env.Caller()); err != nil {
			return err
		}
		existing, err := vset.Get(profile.Address)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Member {
				return errAlreadyMember
			}
			if _, err := vset.SetMember(profile.Address, true); err != nil {
				return err
			}
		} else {
			added := *profile
			added.Member = true
			if _, err := vset.Add(&added); err != nil {
				return err
			}
		}
		if err := vset.SetDirty(true); err != nil {
			return err
		}
		logger.Info("validator admitted", "validator", profile.Address, "readmission", existing != nil)
		return nil
	})
}

// RemoveValidator evicts the given validator from the set. Admin only. The
// entry record is retained so the validator can be re-admitted later.
func (e *Engine) RemoveValidator(env *xenv.Environment, validator conclave.Address) error {
	return e.run(env, "remove_validator", func(vset *validatorset.ValidatorSet) error {
		if err := e.requireAdmin(vset, env.Caller()); err != nil {
			return err
		}
		isMember, err := vset.IsValidator(validator)
		if err != nil {
			return err
		}
		if !isMember {
			return errNotCurrentlyMember
		}
		if _, err := vset.SetMember(validator, false); err != nil {
			return err
		}
		if err := vset.SetDirty(true); err != nil {
			return err
		}
		logger.Info("validator evicted", "validator", validator)
		return nil
	})
}

// UpdateAndReconfigure publishes accumulated changes as a new epoch. Admin
// only. Aborts NothingToReconfigure when the set is clean, and
// ReconfigurationAlreadyHappened when an epoch was already published in the
// current block. On success the epoch counter bumps by exactly one and a
// NewEpochEvent carrying the member snapshot is emitted.
func (e *Engine) UpdateAndReconfigure(env *xenv.Environment) error {
	return e.run(env, "reconfigure", func(vset *validatorset.ValidatorSet) error {
		if err := e.requireAdmin(vset, env.Caller()); err != nil {
			return err
		}
		dirty, err := vset.Dirty()
		if err != nil {
			return err
		}
		if !dirty {
			return errNothingToReconfigure
		}
		blockCtx := env.BlockContext()
		round, err := vset.LastReconfigRound()
		if err != nil {
			return err
		}
		if round != nil && *round == blockCtx.ID {
			return errReconfigurationAlreadyHappened
		}

		epoch, err := vset.Epoch()
		if err != nil {
			return err
		}
		epoch++
		if err := vset.SetEpoch(epoch); err != nil {
			return err
		}
		if err := vset.SetLastReconfigRound(&blockCtx.ID); err != nil {
			return err
		}
		if err := vset.SetDirty(false); err != nil {
			return err
		}
		members, err := vset.Members()
		if err != nil {
			return err
		}

		env.Emit(&validatorset.NewEpochEvent{
			Epoch:       epoch,
			BlockID:     blockCtx.ID,
			BlockNumber: blockCtx.Number,
			BlockTime:   blockCtx.Time,
			Proposer:    blockCtx.Proposer,
			Validators:  members,
		})
		e.epochGauge.Set(int64(epoch))
		e.sizeGauge.Set(int64(len(members)))
		logger.Info("new epoch published", "epoch", epoch, "members", len(members), "block", blockCtx.Number)
		return nil
	})
}

// OnBlockBoundary must be called exactly once per block, before any of its
// transactions run. A recorded reconfiguration round equal to the incoming
// block's ID means the external block driver replayed a boundary, which is
// fatal by contract.
func (e *Engine) OnBlockBoundary(st *state.State, blockCtx *xenv.BlockContext) error {
	vset := validatorset.New(e.addr, st)
	round, err := vset.LastReconfigRound()
	if err != nil {
		return err
	}
	if round != nil && *round == blockCtx.ID {
		panic(fmt.Sprintf("reconfig: block boundary replayed for block %v", blockCtx.ID))
	}
	return nil
}
