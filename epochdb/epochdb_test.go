// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/validatorset"
)

func newEpoch(n uint64) *validatorset.NewEpochEvent {
	return &validatorset.NewEpochEvent{
		Epoch:       n,
		BlockID:     conclave.Blake2b([]byte{byte(n)}),
		BlockNumber: uint32(n * 10),
		BlockTime:   10000 + n*conclave.BlockInterval,
		Proposer:    conclave.BytesToAddress([]byte("proposer")),
		Validators: []*validatorset.Validator{
			{
				Address:         conclave.BytesToAddress([]byte("validator-a")),
				Operator:        conclave.BytesToAddress([]byte("operator-a")),
				ConsensusConfig: []byte("cfg-a"),
				NetworkAddrs:    [][]byte{[]byte("/ip4/127.0.0.1")},
				Member:          true,
			},
		},
	}
}

func TestEpochDB(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	latest, err := db.Latest(ctx)
	assert.NoError(t, err)
	assert.Nil(t, latest)

	for n := uint64(1); n <= 5; n++ {
		require.NoError(t, db.Log(newEpoch(n)))
	}

	latest, err = db.Latest(ctx)
	assert.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(5), latest.Epoch)
	assert.Equal(t, newEpoch(5), latest)

	got, err := db.Get(ctx, 3)
	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newEpoch(3), got)

	got, err = db.Get(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestEpochDBFilter(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	for n := uint64(1); n <= 5; n++ {
		require.NoError(t, db.Log(newEpoch(n)))
	}

	all, err := db.Filter(ctx, nil)
	assert.NoError(t, err)
	assert.Len(t, all, 5)

	byBlock, err := db.Filter(ctx, &EpochFilter{Range: &Range{Unit: Block, From: 20, To: 40}})
	assert.NoError(t, err)
	require.Len(t, byBlock, 3)
	assert.Equal(t, uint64(2), byBlock[0].Epoch)
	assert.Equal(t, uint64(4), byBlock[2].Epoch)

	byTime, err := db.Filter(ctx, &EpochFilter{
		Range: &Range{Unit: Time, From: 10000 + 4*conclave.BlockInterval},
		Order: DESC,
	})
	assert.NoError(t, err)
	require.Len(t, byTime, 2)
	assert.Equal(t, uint64(5), byTime[0].Epoch)

	paged, err := db.Filter(ctx, &EpochFilter{Options: &Options{Offset: 1, Limit: 2}})
	assert.NoError(t, err)
	require.Len(t, paged, 2)
	assert.Equal(t, uint64(2), paged[0].Epoch)
	assert.Equal(t, uint64(3), paged[1].Epoch)
}

func TestEpochDBRelogOverwrites(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Log(newEpoch(1)))
	require.NoError(t, db.Log(newEpoch(1)))

	all, err := db.Filter(ctx, nil)
	assert.NoError(t, err)
	assert.Len(t, all, 1)
}
