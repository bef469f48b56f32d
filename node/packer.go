// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"time"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/state"
	"github.com/conclavechain/conclave/validatorset"
)

// Run packs empty blocks at the given interval until the context is done.
// Proposers rotate over the current members in registry order.
func (n *Node) Run(ctx context.Context, interval time.Duration) error {
	logger.Info("packing started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("packing stopped")
			return nil
		case <-ticker.C:
			if err := n.packBlock(); err != nil {
				logger.Error("failed to pack block", "err", err)
				return err
			}
		}
	}
}

func (n *Node) packBlock() error {
	proposer, err := n.nextProposer()
	if err != nil {
		return err
	}
	blockCtx, err := n.OpenBlock(proposer, uint64(time.Now().Unix()))
	if err != nil {
		return err
	}
	if err := n.CloseBlock(); err != nil {
		return err
	}
	logger.Debug("block packed", "number", blockCtx.Number, "proposer", proposer)
	return nil
}

func (n *Node) nextProposer() (conclave.Address, error) {
	members, err := validatorset.New(validatorset.Address, state.New(n.store)).Members()
	if err != nil {
		return conclave.Address{}, err
	}
	if len(members) == 0 {
		return conclave.Address{}, nil
	}
	return members[uint64(n.head.Number)%uint64(len(members))].Address, nil
}
