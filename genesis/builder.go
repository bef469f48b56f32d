// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/kv"
	"github.com/conclavechain/conclave/state"
	"github.com/conclavechain/conclave/validatorset"
)

// Builder helper to build the genesis state.
type Builder struct {
	timestamp  uint64
	admin      conclave.Address
	validators []*validatorset.Validator
	stateProcs []func(state *state.State) error
	extraData  [28]byte
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// Admin set the registry admin.
func (b *Builder) Admin(admin conclave.Address) *Builder {
	b.admin = admin
	return b
}

// Validator add a genesis validator. Genesis validators start as members.
func (b *Builder) Validator(v *validatorset.Validator) *Builder {
	b.validators = append(b.validators, v)
	return b
}

// State add a state process.
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// ExtraData set extra data, folded into the genesis ID.
func (b *Builder) ExtraData(data [28]byte) *Builder {
	b.extraData = data
	return b
}

// ComputeID compute the genesis ID without touching persistent storage.
func (b *Builder) ComputeID() (conclave.Bytes32, error) {
	store, err := kv.NewMem()
	if err != nil {
		return conclave.Bytes32{}, err
	}
	defer store.Close()
	return b.Build(state.New(store))
}

// Build seeds the given state according to presets and returns the genesis ID.
// The registry starts at the initial epoch, clean, with no reconfiguration
// round recorded.
func (b *Builder) Build(st *state.State) (id conclave.Bytes32, err error) {
	if b.admin.IsZero() {
		return conclave.Bytes32{}, errors.New("admin not set")
	}
	if uint64(len(b.validators)) > conclave.MaxValidators {
		return conclave.Bytes32{}, errors.Errorf("validator count exceeds limit %v", conclave.MaxValidators)
	}

	vset := validatorset.New(validatorset.Address, st)
	if err := vset.SetAdmin(b.admin); err != nil {
		return conclave.Bytes32{}, err
	}
	if err := vset.SetEpoch(conclave.InitialEpoch); err != nil {
		return conclave.Bytes32{}, err
	}
	for _, v := range b.validators {
		member := *v
		member.Member = true
		ok, err := vset.Add(&member)
		if err != nil {
			return conclave.Bytes32{}, err
		}
		if !ok {
			return conclave.Bytes32{}, errors.Errorf("duplicate genesis validator %v", v.Address)
		}
	}

	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return conclave.Bytes32{}, errors.Wrap(err, "state process")
		}
	}

	if err := st.Stage().Commit(); err != nil {
		return conclave.Bytes32{}, errors.Wrap(err, "commit state")
	}

	encoded, err := rlp.EncodeToBytes([]interface{}{
		b.timestamp,
		b.admin,
		b.extraData[:],
		b.validators,
	})
	if err != nil {
		return conclave.Bytes32{}, err
	}
	return conclave.Blake2b(encoded), nil
}
