// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node drives the reconfiguration engine block by block. It owns the
// persistent state, delivers block boundaries, executes transactions and
// distributes published epochs to subscribers and the epoch db.
package node

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/epochdb"
	"github.com/conclavechain/conclave/genesis"
	"github.com/conclavechain/conclave/kv"
	"github.com/conclavechain/conclave/log"
	"github.com/conclavechain/conclave/reconfig"
	"github.com/conclavechain/conclave/state"
	"github.com/conclavechain/conclave/validatorset"
	"github.com/conclavechain/conclave/xenv"
)

var logger = log.WithContext("pkg", "node")

var headBucket = kv.Bucket("head")

// head the last closed block.
type head struct {
	ID     conclave.Bytes32
	Number uint32
	Time   uint64
}

// Node binds state, engine and epoch db into a block-driven unit.
type Node struct {
	store     kv.Store
	epochDB   *epochdb.EpochDB
	engine    *reconfig.Engine
	gene      *genesis.Genesis
	head      *head
	epochFeed event.Feed
	cache     *lru.Cache

	// the block being packed, nil between blocks
	current *openBlock
}

type openBlock struct {
	ctx    *xenv.BlockContext
	state  *state.State
	events []*validatorset.NewEpochEvent
	txSeq  uint32
}

// New opens a node over the given stores. A fresh store is seeded with the
// genesis state; a reopened one is verified against the genesis ID.
func New(store kv.Store, epochDB *epochdb.EpochDB, gene *genesis.Genesis) (*Node, error) {
	cache, err := lru.New(128)
	if err != nil {
		return nil, err
	}
	n := &Node{
		store:   store,
		epochDB: epochDB,
		engine:  reconfig.New(),
		gene:    gene,
		cache:   cache,
	}

	getter := headBucket.NewGetter(store)
	raw, err := getter.Get([]byte("best"))
	if err != nil {
		if !store.IsNotFound(err) {
			return nil, errors.Wrap(err, "read head")
		}
		st := state.New(store)
		id, err := gene.Build(st)
		if err != nil {
			return nil, errors.Wrap(err, "build genesis")
		}
		if err := headBucket.NewPutter(store).Put([]byte("genesis"), id.Bytes()); err != nil {
			return nil, errors.Wrap(err, "save genesis id")
		}
		n.head = &head{ID: id, Number: 0, Time: 0}
		if err := n.saveHead(); err != nil {
			return nil, err
		}
		logger.Info("genesis built", "id", id, "network", gene.Name())
		return n, nil
	}

	storedID, err := getter.Get([]byte("genesis"))
	if err != nil {
		return nil, errors.Wrap(err, "read genesis id")
	}
	if conclave.BytesToBytes32(storedID) != gene.ID() {
		return nil, errors.New("store is for a different network")
	}

	var h head
	if err := rlp.DecodeBytes(raw, &h); err != nil {
		return nil, errors.Wrap(err, "decode head")
	}
	n.head = &h
	logger.Info("node reopened", "head", h.Number, "network", gene.Name())
	return n, nil
}

func (n *Node) saveHead() error {
	raw, err := rlp.EncodeToBytes(n.head)
	if err != nil {
		return err
	}
	return headBucket.NewPutter(n.store).Put([]byte("best"), raw)
}

// Engine returns the reconfiguration engine.
func (n *Node) Engine() *reconfig.Engine {
	return n.engine
}

// Head returns the ID, number and time of the last closed block.
func (n *Node) Head() (conclave.Bytes32, uint32, uint64) {
	return n.head.ID, n.head.Number, n.head.Time
}

// OpenBlock starts packing the next block and delivers its boundary to the
// engine. Fails if a block is already open.
func (n *Node) OpenBlock(proposer conclave.Address, blockTime uint64) (*xenv.BlockContext, error) {
	if n.current != nil {
		return nil, errors.New("block already open")
	}
	num := n.head.Number + 1
	blockCtx := &xenv.BlockContext{
		ID:       newBlockID(n.head.ID, num),
		Number:   num,
		Proposer: proposer,
		Time:     blockTime,
	}

	st := state.New(n.store)
	if err := n.engine.OnBlockBoundary(st, blockCtx); err != nil {
		return nil, err
	}
	n.current = &openBlock{ctx: blockCtx, state: st}
	return blockCtx, nil
}

// Execute runs one transaction of the open block. The operation receives an
// environment bound to the block; its emitted events survive only on success.
func (n *Node) Execute(origin conclave.Address, op func(*reconfig.Engine, *xenv.Environment) error) error {
	if n.current == nil {
		return errors.New("no open block")
	}
	n.current.txSeq++
	txID := conclave.Blake2b(n.current.ctx.ID.Bytes(), []byte{
		byte(n.current.txSeq), byte(n.current.txSeq >> 8), byte(n.current.txSeq >> 16), byte(n.current.txSeq >> 24),
	})
	env := xenv.New(n.current.state, n.current.ctx, &xenv.TransactionContext{ID: txID, Origin: origin})
	if err := op(n.engine, env); err != nil {
		return err
	}
	n.current.events = append(n.current.events, env.Events()...)
	return nil
}

// CloseBlock commits the open block: state goes to the kv store, published
// epochs go to the epoch db, the cache and the feed.
func (n *Node) CloseBlock() error {
	if n.current == nil {
		return errors.New("no open block")
	}
	current := n.current

	if err := current.state.Stage().Commit(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	n.head = &head{ID: current.ctx.ID, Number: current.ctx.Number, Time: current.ctx.Time}
	if err := n.saveHead(); err != nil {
		return errors.Wrap(err, "save head")
	}
	n.current = nil

	for _, ev := range current.events {
		if err := n.epochDB.Log(ev); err != nil {
			return errors.Wrap(err, "log epoch")
		}
		n.cache.Add(ev.Epoch, ev)
		n.epochFeed.Send(ev)
	}
	return nil
}

// SubscribeEpochs subscribes to published epochs.
func (n *Node) SubscribeEpochs(ch chan *validatorset.NewEpochEvent) event.Subscription {
	return n.epochFeed.Subscribe(ch)
}

// Validators returns the registry entries at the last closed block.
func (n *Node) Validators() ([]*validatorset.Validator, error) {
	return validatorset.New(validatorset.Address, state.New(n.store)).All()
}

// Validator returns the registry entry of the given address, nil if unknown.
func (n *Node) Validator(addr conclave.Address) (*validatorset.Validator, error) {
	return validatorset.New(validatorset.Address, state.New(n.store)).Get(addr)
}

// Epoch returns the current epoch number.
func (n *Node) Epoch() (uint64, error) {
	return validatorset.New(validatorset.Address, state.New(n.store)).Epoch()
}

// GetEpoch returns the given published epoch, nil if never published.
func (n *Node) GetEpoch(ctx context.Context, epoch uint64) (*validatorset.NewEpochEvent, error) {
	if cached, ok := n.cache.Get(epoch); ok {
		return cached.(*validatorset.NewEpochEvent), nil
	}
	ev, err := n.epochDB.Get(ctx, epoch)
	if err != nil {
		return nil, err
	}
	if ev != nil {
		n.cache.Add(epoch, ev)
	}
	return ev, nil
}

func newBlockID(parentID conclave.Bytes32, num uint32) conclave.Bytes32 {
	id := conclave.Blake2b(parentID.Bytes(), []byte{
		byte(num >> 24), byte(num >> 16), byte(num >> 8), byte(num),
	})
	copy(id[:4], []byte{byte(num >> 24), byte(num >> 16), byte(num >> 8), byte(num)})
	return id
}
