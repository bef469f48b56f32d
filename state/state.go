// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/kv"
	"github.com/conclavechain/conclave/stackedmap"
)

// StorageBucket kv bucket the storage entries live in.
const StorageBucket = kv.Bucket("s")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// State manages the registry world state.
// It buffers all writes in a journaled overlay until staged into the
// underlying kv store, and supports checkpoint/revert within the overlay.
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap // keeps revisions of storage writes
}

type storageKey struct {
	addr conclave.Address
	key  conclave.Bytes32
}

func (k storageKey) storeKey() []byte {
	return append(append([]byte(nil), k.addr.Bytes()...), k.key.Bytes()...)
}

// New create state object.
func New(store kv.Store) *State {
	state := State{store: store}
	state.sm = stackedmap.New(func(key interface{}) (interface{}, bool, error) {
		return state.storeGetter(key)
	})
	// base level, so writes are valid before any checkpoint
	state.sm.Push()
	return &state
}

// storeGetter implements stackedmap.MapGetter.
func (s *State) storeGetter(key interface{}) (interface{}, bool, error) {
	switch k := key.(type) {
	case storageKey:
		raw, err := StorageBucket.NewGetter(s.store).Get(k.storeKey())
		if err != nil {
			if s.store.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, err
		}
		return rlp.RawValue(raw), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr conclave.Address, key conclave.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr conclave.Address, key conclave.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr conclave.Address, key conclave.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr conclave.Address, key conclave.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage makes a stage object to commit all buffered changes into the kv store.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k, v interface{}) bool {
		changes[k.(storageKey)] = v.(rlp.RawValue)
		return true
	})

	return &Stage{
		store:   s.store,
		changes: changes,
	}
}

// Stage abstracts the process of committing buffered state changes.
type Stage struct {
	store   kv.Store
	changes map[storageKey]rlp.RawValue
}

// Commit commits all changes atomically into the kv store.
func (s *Stage) Commit() error {
	bulk := s.store.NewBulk()
	putter := StorageBucket.NewPutter(bulk)
	for k, v := range s.changes {
		if len(v) == 0 {
			if err := putter.Delete(k.storeKey()); err != nil {
				return &Error{err}
			}
			continue
		}
		if err := putter.Put(k.storeKey(), v); err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}
	return nil
}
