// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/kv"
	"github.com/conclavechain/conclave/state"
	"github.com/conclavechain/conclave/validatorset"
	"github.com/conclavechain/conclave/xenv"
)

var (
	admin     = conclave.BytesToAddress([]byte("admin"))
	valA      = conclave.BytesToAddress([]byte("validator-a"))
	valB      = conclave.BytesToAddress([]byte("validator-b"))
	valC      = conclave.BytesToAddress([]byte("validator-c"))
	operatorA = conclave.BytesToAddress([]byte("operator-a"))
	operatorC = conclave.BytesToAddress([]byte("operator-c"))
	stranger  = conclave.BytesToAddress([]byte("stranger"))
)

func blockID(n uint32) conclave.Bytes32 {
	return conclave.Blake2b([]byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)})
}

func env(st *state.State, block uint32, caller conclave.Address) *xenv.Environment {
	return xenv.New(st,
		&xenv.BlockContext{ID: blockID(block), Number: block, Proposer: valA, Time: 10000 + uint64(block)*conclave.BlockInterval},
		&xenv.TransactionContext{Origin: caller})
}

// newTestState seeds a registry with admin and members A, B and C.
func newTestState(t *testing.T) *state.State {
	store, _ := kv.NewMem()
	st := state.New(store)
	vset := validatorset.New(validatorset.Address, st)
	require.NoError(t, vset.SetAdmin(admin))
	for _, v := range []*validatorset.Validator{
		{Address: valA, Operator: operatorA, ConsensusConfig: []byte("cfg-a"), Member: true},
		{Address: valB, Operator: valB, ConsensusConfig: []byte("cfg-b"), Member: true},
		{Address: valC, Operator: operatorC, ConsensusConfig: []byte("cfg-c"), Member: true},
	} {
		ok, err := vset.Add(v)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return st
}

func assertAbort(t *testing.T, err error, wanted uint64) {
	t.Helper()
	code, ok := AbortCode(err)
	require.True(t, ok, "expected abort, got %v", err)
	assert.Equal(t, wanted, code)
}

func TestSetOperator(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	// a stranger owns no entry
	assertAbort(t, e.SetOperator(env(st, 1, stranger), operatorA), CodeNotAValidatorOwner)

	assert.NoError(t, e.SetOperator(env(st, 1, valA), stranger))
	got, err := vset.Get(valA)
	assert.NoError(t, err)
	assert.Equal(t, stranger, got.Operator)

	// delegation alone never dirties the set
	dirty, err := vset.Dirty()
	assert.NoError(t, err)
	assert.False(t, dirty)
}

func TestSetConfig(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	assertAbort(t, e.SetConfig(env(st, 1, stranger), valA, []byte("x"), nil), CodeNotAuthorizedOperator)
	assertAbort(t, e.SetConfig(env(st, 1, operatorA), stranger, []byte("x"), nil), CodeNotAuthorizedOperator)

	assert.NoError(t, e.SetConfig(env(st, 1, operatorA), valA, []byte("cfg-a2"), [][]byte{[]byte("addr")}))
	got, err := vset.Get(valA)
	assert.NoError(t, err)
	assert.Equal(t, []byte("cfg-a2"), got.ConsensusConfig)

	// a member's config change marks the set dirty
	dirty, err := vset.Dirty()
	assert.NoError(t, err)
	assert.True(t, dirty)
}

func TestSetConfigNonMember(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valA))
	assert.NoError(t, e.UpdateAndReconfigure(env(st, 1, admin)))

	// a non-member's config is stored but leaves the set clean
	assert.NoError(t, e.SetConfig(env(st, 2, operatorA), valA, []byte("cfg-a3"), nil))
	got, err := vset.Get(valA)
	assert.NoError(t, err)
	assert.Equal(t, []byte("cfg-a3"), got.ConsensusConfig)

	dirty, err := vset.Dirty()
	assert.NoError(t, err)
	assert.False(t, dirty)
}

func TestAddValidator(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	newcomer := &validatorset.Validator{
		Address:         conclave.BytesToAddress([]byte("validator-d")),
		Operator:        stranger,
		ConsensusConfig: []byte("cfg-d"),
	}

	assertAbort(t, e.AddValidator(env(st, 1, stranger), newcomer), CodeNotAuthorizedAdmin)
	assertAbort(t, e.AddValidator(env(st, 1, admin), &validatorset.Validator{Address: valA}), CodeAlreadyMember)

	assert.NoError(t, e.AddValidator(env(st, 1, admin), newcomer))
	isMember, err := vset.IsValidator(newcomer.Address)
	assert.NoError(t, err)
	assert.True(t, isMember)

	size, err := vset.Size()
	assert.NoError(t, err)
	assert.Equal(t, uint64(4), size)

	dirty, err := vset.Dirty()
	assert.NoError(t, err)
	assert.True(t, dirty)
}

func TestRemoveValidator(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	assertAbort(t, e.RemoveValidator(env(st, 1, stranger), valB), CodeNotAuthorizedAdmin)
	assertAbort(t, e.RemoveValidator(env(st, 1, admin), stranger), CodeNotCurrentlyMember)

	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valB))
	assertAbort(t, e.RemoveValidator(env(st, 1, admin), valB), CodeNotCurrentlyMember)

	// the record survives eviction
	got, err := vset.Get(valB)
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Member)
	assert.Equal(t, []byte("cfg-b"), got.ConsensusConfig)

	size, err := vset.Size()
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), size)
}

func TestReadmissionRetainsProfile(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valB))
	// the profile on re-admission is ignored, the retained record wins
	assert.NoError(t, e.AddValidator(env(st, 1, admin), &validatorset.Validator{Address: valB, ConsensusConfig: []byte("ignored")}))

	got, err := vset.Get(valB)
	assert.NoError(t, err)
	assert.True(t, got.Member)
	assert.Equal(t, []byte("cfg-b"), got.ConsensusConfig)
	assert.Equal(t, valB, got.Operator)
}

func TestUpdateAndReconfigure(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	assertAbort(t, e.UpdateAndReconfigure(env(st, 1, stranger)), CodeNotAuthorizedAdmin)
	assertAbort(t, e.UpdateAndReconfigure(env(st, 1, admin)), CodeNothingToReconfigure)

	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valB))

	ev := env(st, 1, admin)
	assert.NoError(t, e.UpdateAndReconfigure(ev))

	epoch, err := vset.Epoch()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	dirty, err := vset.Dirty()
	assert.NoError(t, err)
	assert.False(t, dirty)

	round, err := vset.LastReconfigRound()
	assert.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, blockID(1), *round)

	events := ev.Events()
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Epoch)
	assert.Equal(t, blockID(1), events[0].BlockID)
	require.Len(t, events[0].Validators, 2)
	assert.Equal(t, valA, events[0].Validators[0].Address)
	assert.Equal(t, valC, events[0].Validators[1].Address)
}

// The lifecycle from the engine's contract: evict B, publish in block N, push
// a config change for C, a second publication in N aborts with code 6, and
// the next block publishes the accumulated change.
func TestReconfigureOncePerBlock(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	const n = 7
	assert.NoError(t, e.RemoveValidator(env(st, n, admin), valB))
	assert.NoError(t, e.UpdateAndReconfigure(env(st, n, admin)))

	assert.NoError(t, e.SetConfig(env(st, n, operatorC), valC, []byte("cfg-c2"), nil))
	assertAbort(t, e.UpdateAndReconfigure(env(st, n, admin)), CodeReconfigurationAlreadyHappened)

	// the abort reverted nothing that was already published
	epoch, err := vset.Epoch()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
	dirty, err := vset.Dirty()
	assert.NoError(t, err)
	assert.True(t, dirty)

	assert.NoError(t, e.OnBlockBoundary(st, &xenv.BlockContext{ID: blockID(n + 1), Number: n + 1}))
	ev := env(st, n+1, admin)
	assert.NoError(t, e.UpdateAndReconfigure(ev))

	epoch, err = vset.Epoch()
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), epoch)

	events := ev.Events()
	require.Len(t, events, 1)
	var gotC *validatorset.Validator
	for _, v := range events[0].Validators {
		if v.Address == valC {
			gotC = v
		}
	}
	require.NotNil(t, gotC)
	assert.Equal(t, []byte("cfg-c2"), gotC.ConsensusConfig)
}

func TestDirtyCoalesces(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valA))
	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valB))
	assert.NoError(t, e.SetConfig(env(st, 1, operatorC), valC, []byte("cfg-c9"), nil))

	assert.NoError(t, e.UpdateAndReconfigure(env(st, 1, admin)))
	epoch, err := vset.Epoch()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)

	// everything was folded into the single bump
	assertAbort(t, e.UpdateAndReconfigure(env(st, 2, admin)), CodeNothingToReconfigure)
}

func TestAbortLeavesNoTrace(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	before, err := vset.All()
	require.NoError(t, err)

	assertAbort(t, e.AddValidator(env(st, 1, stranger), &validatorset.Validator{Address: stranger}), CodeNotAuthorizedAdmin)
	assertAbort(t, e.SetConfig(env(st, 1, stranger), valA, []byte("x"), nil), CodeNotAuthorizedOperator)

	after, err := vset.All()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	dirty, err := vset.Dirty()
	assert.NoError(t, err)
	assert.False(t, dirty)
	size, err := vset.Size()
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), size)
}

func TestOnBlockBoundary(t *testing.T) {
	st := newTestState(t)
	e := New()

	assert.NoError(t, e.OnBlockBoundary(st, &xenv.BlockContext{ID: blockID(1), Number: 1}))

	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valB))
	assert.NoError(t, e.UpdateAndReconfigure(env(st, 1, admin)))

	// replaying the boundary of the block that already reconfigured is fatal
	assert.Panics(t, func() {
		_ = e.OnBlockBoundary(st, &xenv.BlockContext{ID: blockID(1), Number: 1})
	})
	assert.NoError(t, e.OnBlockBoundary(st, &xenv.BlockContext{ID: blockID(2), Number: 2}))
}

// The engine never consults account freezing; an externally maintained frozen
// set must not influence registry behavior.
func TestFreezeIsolation(t *testing.T) {
	st := newTestState(t)
	e := New()
	vset := validatorset.New(validatorset.Address, st)

	frozen := map[conclave.Address]bool{valA: true, operatorC: true}
	_ = frozen // tracked by an external collaborator only

	isMember, err := vset.IsValidator(valA)
	assert.NoError(t, err)
	assert.True(t, isMember)

	assert.NoError(t, e.SetConfig(env(st, 1, operatorC), valC, []byte("cfg-c2"), nil))
	assert.NoError(t, e.RemoveValidator(env(st, 1, admin), valA))
	assert.NoError(t, e.UpdateAndReconfigure(env(st, 1, admin)))

	epoch, err := vset.Epoch()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), epoch)
}
