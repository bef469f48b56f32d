// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validatorset

import (
	"github.com/conclavechain/conclave/conclave"
)

// Entry contains all stored data of a validator entry.
// Once created, an entry is never destroyed; membership is tracked by the
// Member flag so that the operator delegation and configuration survive a
// removal and a later re-admission.
type Entry struct {
	Operator        conclave.Address // zero until delegated
	ConsensusConfig []byte
	NetworkAddrs    [][]byte
	Member          bool
	Prev            *conclave.Address `rlp:"nil"`
	Next            *conclave.Address `rlp:"nil"`
}

// IsEmpty returns whether the entry can be treated as empty.
func (e *Entry) IsEmpty() bool {
	return e.Operator.IsZero() &&
		len(e.ConsensusConfig) == 0 &&
		len(e.NetworkAddrs) == 0 &&
		!e.Member &&
		e.Prev == nil &&
		e.Next == nil
}

// IsLinked returns whether the entry is linked in the registry list.
func (e *Entry) IsLinked() bool {
	return e.Prev != nil || e.Next != nil
}

// Validator is the externally visible projection of a registry entry.
type Validator struct {
	Address         conclave.Address `json:"address"`
	Operator        conclave.Address `json:"operator"`
	ConsensusConfig []byte           `json:"consensusConfig"`
	NetworkAddrs    [][]byte         `json:"networkAddrs"`
	Member          bool             `json:"member"`
}

// NewEpochEvent is emitted on every successful reconfiguration.
// Downstream consensus/network layers observe it to swap in the new set.
type NewEpochEvent struct {
	Epoch       uint64           `json:"epoch"`
	BlockID     conclave.Bytes32 `json:"blockID"`
	BlockNumber uint32           `json:"blockNumber"`
	BlockTime   uint64           `json:"blockTime"`
	Proposer    conclave.Address `json:"proposer"`
	Validators  []*Validator     `json:"validators"` // snapshot of current members
}
