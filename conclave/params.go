// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package conclave

// Constants of the chain.
const (
	// BlockInterval time interval between two consecutive blocks, in seconds.
	BlockInterval uint64 = 10

	// InitialEpoch epoch number the genesis validator set is published at.
	InitialEpoch uint64 = 0

	// MaxValidators upper bound of the validator set size.
	MaxValidators uint64 = 101
)
