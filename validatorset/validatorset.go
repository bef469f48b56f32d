// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validatorset implements the durable validator registry.
//
// Entries are kept as an RLP-encoded doubly linked list in state, keyed by
// validator address, with the registry epoch counter, dirty flag and last
// reconfiguration round stored under dedicated keys. The registry itself
// performs no authorization; callers are expected to gate mutations.
package validatorset

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/state"
)

// Address the state address the registry is stored under.
var Address = conclave.BytesToAddress([]byte("ValidatorSet"))

var (
	headKey  = conclave.Blake2b([]byte("head"))
	tailKey  = conclave.Blake2b([]byte("tail"))
	epochKey = conclave.Blake2b([]byte("epoch"))
	dirtyKey = conclave.Blake2b([]byte("dirty"))
	roundKey = conclave.Blake2b([]byte("reconfig-round"))
	sizeKey  = conclave.Blake2b([]byte("size"))
	adminKey = conclave.Blake2b([]byte("admin"))
)

// ValidatorSet implements registry operations over state.
type ValidatorSet struct {
	addr  conclave.Address
	state *state.State
}

// New create a new instance.
func New(addr conclave.Address, state *state.State) *ValidatorSet {
	return &ValidatorSet{addr, state}
}

func (v *ValidatorSet) getEntry(validator conclave.Address) (*Entry, error) {
	var entry Entry
	if err := v.state.DecodeStorage(v.addr, conclave.BytesToBytes32(validator[:]), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &entry)
	}); err != nil {
		return nil, err
	}
	// rlp decodes empty collections non-nil; normalize so a stored
	// entry round-trips to its in-memory form
	if len(entry.ConsensusConfig) == 0 {
		entry.ConsensusConfig = nil
	}
	if len(entry.NetworkAddrs) == 0 {
		entry.NetworkAddrs = nil
	}
	return &entry, nil
}

func (v *ValidatorSet) setEntry(validator conclave.Address, entry *Entry) error {
	return v.state.EncodeStorage(v.addr, conclave.BytesToBytes32(validator[:]), func() ([]byte, error) {
		if entry.IsEmpty() {
			return nil, nil
		}
		return rlp.EncodeToBytes(entry)
	})
}

func (v *ValidatorSet) getAddressPtr(key conclave.Bytes32) (addr *conclave.Address, err error) {
	err = v.state.DecodeStorage(v.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &addr)
	})
	return
}

func (v *ValidatorSet) setAddressPtr(key conclave.Bytes32, addr *conclave.Address) error {
	return v.state.EncodeStorage(v.addr, key, func() ([]byte, error) {
		if addr == nil {
			return nil, nil
		}
		return rlp.EncodeToBytes(addr)
	})
}

func (v *ValidatorSet) getUint64(key conclave.Bytes32) (n uint64, err error) {
	err = v.state.DecodeStorage(v.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &n)
	})
	return
}

func (v *ValidatorSet) setUint64(key conclave.Bytes32, n uint64) error {
	return v.state.EncodeStorage(v.addr, key, func() ([]byte, error) {
		if n == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(n)
	})
}

// exists returns whether the given address has a registry entry.
// if it's the only node, IsLinked will be false, so check the head as well.
func (v *ValidatorSet) exists(validator conclave.Address, entry *Entry) (bool, error) {
	if entry.IsLinked() {
		return true, nil
	}
	ptr, err := v.getAddressPtr(headKey)
	if err != nil {
		return false, err
	}
	return ptr != nil && *ptr == validator, nil
}

// Get get validator by address. Returns nil if the address has no entry.
func (v *ValidatorSet) Get(validator conclave.Address) (*Validator, error) {
	entry, err := v.getEntry(validator)
	if err != nil {
		return nil, err
	}
	known, err := v.exists(validator, entry)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, nil
	}
	return &Validator{
		Address:         validator,
		Operator:        entry.Operator,
		ConsensusConfig: entry.ConsensusConfig,
		NetworkAddrs:    entry.NetworkAddrs,
		Member:          entry.Member,
	}, nil
}

// Add add a new validator entry, linked at the list tail.
// Returns false if the address already has an entry.
func (v *ValidatorSet) Add(validator *Validator) (bool, error) {
	entry, err := v.getEntry(validator.Address)
	if err != nil {
		return false, err
	}
	known, err := v.exists(validator.Address, entry)
	if err != nil {
		return false, err
	}
	if known {
		return false, nil
	}

	entry.Operator = validator.Operator
	entry.ConsensusConfig = validator.ConsensusConfig
	entry.NetworkAddrs = validator.NetworkAddrs
	entry.Member = validator.Member

	tailPtr, err := v.getAddressPtr(tailKey)
	if err != nil {
		return false, err
	}
	entry.Prev = tailPtr

	if err := v.setAddressPtr(tailKey, &validator.Address); err != nil {
		return false, err
	}
	if tailPtr == nil {
		if err := v.setAddressPtr(headKey, &validator.Address); err != nil {
			return false, err
		}
	} else {
		tailEntry, err := v.getEntry(*tailPtr)
		if err != nil {
			return false, err
		}
		tailEntry.Next = &validator.Address
		if err := v.setEntry(*tailPtr, tailEntry); err != nil {
			return false, err
		}
	}

	if err := v.setEntry(validator.Address, entry); err != nil {
		return false, err
	}

	if validator.Member {
		size, err := v.getUint64(sizeKey)
		if err != nil {
			return false, err
		}
		if err := v.setUint64(sizeKey, size+1); err != nil {
			return false, err
		}
	}
	return true, nil
}

// SetMember flips the membership of the given validator.
// The entry is kept linked so that its delegation and configuration are
// retained. Returns false if the address has no entry or membership is
// already at the wanted value.
func (v *ValidatorSet) SetMember(validator conclave.Address, member bool) (bool, error) {
	entry, err := v.getEntry(validator)
	if err != nil {
		return false, err
	}
	known, err := v.exists(validator, entry)
	if err != nil {
		return false, err
	}
	if !known || entry.Member == member {
		return false, nil
	}

	entry.Member = member
	if err := v.setEntry(validator, entry); err != nil {
		return false, err
	}

	size, err := v.getUint64(sizeKey)
	if err != nil {
		return false, err
	}
	if member {
		size++
	} else {
		size--
	}
	if err := v.setUint64(sizeKey, size); err != nil {
		return false, err
	}
	return true, nil
}

// SetOperator overwrites the operator of the given validator.
// Returns false if the address has no entry.
func (v *ValidatorSet) SetOperator(validator conclave.Address, operator conclave.Address) (bool, error) {
	entry, err := v.getEntry(validator)
	if err != nil {
		return false, err
	}
	known, err := v.exists(validator, entry)
	if err != nil {
		return false, err
	}
	if !known {
		return false, nil
	}
	entry.Operator = operator
	if err := v.setEntry(validator, entry); err != nil {
		return false, err
	}
	return true, nil
}

// SetConfig overwrites the configuration of the given validator.
// Returns false if the address has no entry.
func (v *ValidatorSet) SetConfig(validator conclave.Address, consensusConfig []byte, networkAddrs [][]byte) (bool, error) {
	entry, err := v.getEntry(validator)
	if err != nil {
		return false, err
	}
	known, err := v.exists(validator, entry)
	if err != nil {
		return false, err
	}
	if !known {
		return false, nil
	}
	entry.ConsensusConfig = consensusConfig
	entry.NetworkAddrs = networkAddrs
	if err := v.setEntry(validator, entry); err != nil {
		return false, err
	}
	return true, nil
}

// IsValidator returns whether the given address is a current member.
func (v *ValidatorSet) IsValidator(validator conclave.Address) (bool, error) {
	entry, err := v.getEntry(validator)
	if err != nil {
		return false, err
	}
	known, err := v.exists(validator, entry)
	if err != nil {
		return false, err
	}
	return known && entry.Member, nil
}

// Size returns the count of current members.
func (v *ValidatorSet) Size() (uint64, error) {
	return v.getUint64(sizeKey)
}

// Members lists all current members in registry order.
func (v *ValidatorSet) Members() ([]*Validator, error) {
	ptr, err := v.getAddressPtr(headKey)
	if err != nil {
		return nil, err
	}
	var members []*Validator
	for ptr != nil {
		entry, err := v.getEntry(*ptr)
		if err != nil {
			return nil, err
		}
		if entry.Member {
			members = append(members, &Validator{
				Address:         *ptr,
				Operator:        entry.Operator,
				ConsensusConfig: entry.ConsensusConfig,
				NetworkAddrs:    entry.NetworkAddrs,
				Member:          true,
			})
		}
		ptr = entry.Next
	}
	return members, nil
}

// All lists every registry entry, members and not, in registry order.
func (v *ValidatorSet) All() ([]*Validator, error) {
	ptr, err := v.getAddressPtr(headKey)
	if err != nil {
		return nil, err
	}
	var all []*Validator
	for ptr != nil {
		entry, err := v.getEntry(*ptr)
		if err != nil {
			return nil, err
		}
		all = append(all, &Validator{
			Address:         *ptr,
			Operator:        entry.Operator,
			ConsensusConfig: entry.ConsensusConfig,
			NetworkAddrs:    entry.NetworkAddrs,
			Member:          entry.Member,
		})
		ptr = entry.Next
	}
	return all, nil
}

// First returns address of the first entry.
func (v *ValidatorSet) First() (*conclave.Address, error) {
	return v.getAddressPtr(headKey)
}

// Next returns address of the entry after the given one.
func (v *ValidatorSet) Next(validator conclave.Address) (*conclave.Address, error) {
	entry, err := v.getEntry(validator)
	if err != nil {
		return nil, err
	}
	return entry.Next, nil
}

// Epoch returns the current epoch number.
func (v *ValidatorSet) Epoch() (uint64, error) {
	return v.getUint64(epochKey)
}

// SetEpoch sets the epoch number.
func (v *ValidatorSet) SetEpoch(epoch uint64) error {
	return v.setUint64(epochKey, epoch)
}

// Dirty returns whether a membership or configuration change has
// accumulated since the last published epoch.
func (v *ValidatorSet) Dirty() (dirty bool, err error) {
	err = v.state.DecodeStorage(v.addr, dirtyKey, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &dirty)
	})
	return
}

// SetDirty sets the dirty marker.
func (v *ValidatorSet) SetDirty(dirty bool) error {
	return v.state.EncodeStorage(v.addr, dirtyKey, func() ([]byte, error) {
		if !dirty {
			return nil, nil
		}
		return rlp.EncodeToBytes(dirty)
	})
}

// LastReconfigRound returns the block ID of the last successful
// reconfiguration, or nil if none has happened yet.
func (v *ValidatorSet) LastReconfigRound() (round *conclave.Bytes32, err error) {
	err = v.state.DecodeStorage(v.addr, roundKey, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &round)
	})
	return
}

// SetLastReconfigRound records the block ID of a successful reconfiguration.
func (v *ValidatorSet) SetLastReconfigRound(round *conclave.Bytes32) error {
	return v.state.EncodeStorage(v.addr, roundKey, func() ([]byte, error) {
		if round == nil {
			return nil, nil
		}
		return rlp.EncodeToBytes(round)
	})
}

// Admin returns the registry admin address.
func (v *ValidatorSet) Admin() (admin conclave.Address, err error) {
	err = v.state.DecodeStorage(v.addr, adminKey, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &admin)
	})
	return
}

// SetAdmin sets the registry admin address.
func (v *ValidatorSet) SetAdmin(admin conclave.Address) error {
	return v.state.EncodeStorage(v.addr, adminKey, func() ([]byte, error) {
		if admin.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(admin)
	})
}
