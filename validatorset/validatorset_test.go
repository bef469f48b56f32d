// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validatorset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/kv"
	"github.com/conclavechain/conclave/state"
)

func M(a ...interface{}) []interface{} {
	return a
}

func newTestSet() *ValidatorSet {
	store, _ := kv.NewMem()
	st := state.New(store)
	return New(conclave.BytesToAddress([]byte("vset")), st)
}

func TestValidatorSet(t *testing.T) {
	p1 := conclave.BytesToAddress([]byte("p1"))
	p2 := conclave.BytesToAddress([]byte("p2"))
	p3 := conclave.BytesToAddress([]byte("p3"))

	vset := newTestSet()
	tests := []struct {
		ret      interface{}
		expected interface{}
	}{
		{M(vset.Add(&Validator{Address: p1, ConsensusConfig: []byte("c1"), Member: true})), M(true, nil)},
		{M(vset.Add(&Validator{Address: p2, ConsensusConfig: []byte("c2"), Member: true})), M(true, nil)},
		{M(vset.Add(&Validator{Address: p3, ConsensusConfig: []byte("c3"), Member: true})), M(true, nil)},
		{M(vset.Add(&Validator{Address: p1, Member: true})), M(false, nil)},
		{M(vset.Size()), M(uint64(3), nil)},
		{M(vset.IsValidator(p1)), M(true, nil)},
		{M(vset.SetMember(p1, false)), M(true, nil)},
		{M(vset.IsValidator(p1)), M(false, nil)},
		{M(vset.Size()), M(uint64(2), nil)},
		// removal retains the entry
		{M(vset.Get(p1)), M(&Validator{Address: p1, ConsensusConfig: []byte("c1")}, nil)},
		// double removal is rejected
		{M(vset.SetMember(p1, false)), M(false, nil)},
		{M(vset.SetMember(p1, true)), M(true, nil)},
		{M(vset.Size()), M(uint64(3), nil)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ret)
	}
}

func TestMembersOrder(t *testing.T) {
	p1 := conclave.BytesToAddress([]byte("p1"))
	p2 := conclave.BytesToAddress([]byte("p2"))
	p3 := conclave.BytesToAddress([]byte("p3"))

	vset := newTestSet()
	for _, p := range []conclave.Address{p1, p2, p3} {
		ok, err := vset.Add(&Validator{Address: p, Member: true})
		assert.True(t, ok)
		assert.Nil(t, err)
	}

	ok, err := vset.SetMember(p2, false)
	assert.True(t, ok)
	assert.Nil(t, err)

	members, err := vset.Members()
	assert.Nil(t, err)
	assert.Equal(t, []conclave.Address{p1, p3}, addressesOf(members))

	all, err := vset.All()
	assert.Nil(t, err)
	assert.Equal(t, []conclave.Address{p1, p2, p3}, addressesOf(all))
}

func addressesOf(vals []*Validator) []conclave.Address {
	addrs := make([]conclave.Address, 0, len(vals))
	for _, v := range vals {
		addrs = append(addrs, v.Address)
	}
	return addrs
}

func TestOperatorAndConfig(t *testing.T) {
	p1 := conclave.BytesToAddress([]byte("p1"))
	op := conclave.BytesToAddress([]byte("op"))
	unknown := conclave.BytesToAddress([]byte("unknown"))

	vset := newTestSet()
	ok, err := vset.Add(&Validator{Address: p1, Member: true})
	assert.True(t, ok)
	assert.Nil(t, err)

	tests := []struct {
		ret      interface{}
		expected interface{}
	}{
		{M(vset.SetOperator(p1, op)), M(true, nil)},
		{M(vset.SetOperator(unknown, op)), M(false, nil)},
		{M(vset.SetConfig(p1, []byte("cfg"), [][]byte{[]byte("addr1")})), M(true, nil)},
		{M(vset.SetConfig(unknown, []byte("cfg"), nil)), M(false, nil)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ret)
	}

	got, err := vset.Get(p1)
	assert.Nil(t, err)
	assert.Equal(t, op, got.Operator)
	assert.Equal(t, []byte("cfg"), got.ConsensusConfig)
	assert.Equal(t, [][]byte{[]byte("addr1")}, got.NetworkAddrs)
}

func TestRegistryFields(t *testing.T) {
	vset := newTestSet()

	epoch, err := vset.Epoch()
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), epoch)

	assert.Nil(t, vset.SetEpoch(7))
	epoch, _ = vset.Epoch()
	assert.Equal(t, uint64(7), epoch)

	dirty, err := vset.Dirty()
	assert.Nil(t, err)
	assert.False(t, dirty)

	assert.Nil(t, vset.SetDirty(true))
	dirty, _ = vset.Dirty()
	assert.True(t, dirty)

	round, err := vset.LastReconfigRound()
	assert.Nil(t, err)
	assert.Nil(t, round)

	id := conclave.Blake2b([]byte("block"))
	assert.Nil(t, vset.SetLastReconfigRound(&id))
	round, _ = vset.LastReconfigRound()
	assert.Equal(t, id, *round)

	admin := conclave.BytesToAddress([]byte("admin"))
	assert.Nil(t, vset.SetAdmin(admin))
	got, err := vset.Admin()
	assert.Nil(t, err)
	assert.Equal(t, admin, got)
}

func TestEntryPersistsAcrossCommit(t *testing.T) {
	store, _ := kv.NewMem()
	st := state.New(store)
	addr := conclave.BytesToAddress([]byte("vset"))
	vset := New(addr, st)

	p1 := conclave.BytesToAddress([]byte("p1"))
	ok, err := vset.Add(&Validator{Address: p1, ConsensusConfig: []byte("c1"), Member: true})
	assert.True(t, ok)
	assert.Nil(t, err)
	assert.Nil(t, st.Stage().Commit())

	// reload from the store
	vset = New(addr, state.New(store))
	isValidator, err := vset.IsValidator(p1)
	assert.Nil(t, err)
	assert.True(t, isValidator)
}
