// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epochdb persists published epochs in a sqlite database, one row per
// epoch with the member snapshot stored as an RLP blob.
package epochdb

import (
	"context"
	"database/sql"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"

	"github.com/conclavechain/conclave/conclave"
	"github.com/conclavechain/conclave/validatorset"
)

type EpochDB struct {
	path string
	db   *sql.DB
}

// New create or open the epoch db at the given path.
func New(path string) (epochDB *EpochDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if epochDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(epochTableSchema); err != nil {
		return nil, err
	}
	return &EpochDB{path, db}, nil
}

// NewMem create an epoch db in ram.
func NewMem() (*EpochDB, error) {
	return New(":memory:")
}

// Close close the epoch db.
func (db *EpochDB) Close() {
	db.db.Close()
}

func (db *EpochDB) Path() string {
	return db.path
}

// Log records a published epoch. Re-logging an epoch overwrites the row, so
// replays after a crash are harmless.
func (db *EpochDB) Log(ev *validatorset.NewEpochEvent) error {
	members, err := rlp.EncodeToBytes(ev.Validators)
	if err != nil {
		return errors.Wrap(err, "encode members")
	}
	_, err = db.db.Exec("INSERT OR REPLACE INTO epoch(epoch, blockID, blockNumber, blockTime, proposer, members) VALUES (?, ?, ?, ?, ?, ?);",
		ev.Epoch,
		ev.BlockID.Bytes(),
		ev.BlockNumber,
		ev.BlockTime,
		ev.Proposer.Bytes(),
		members,
	)
	return err
}

// Filter queries the epoch log.
func (db *EpochDB) Filter(ctx context.Context, filter *EpochFilter) ([]*validatorset.NewEpochEvent, error) {
	if filter == nil {
		return db.query(ctx, "SELECT * FROM epoch ORDER BY epoch ASC")
	}
	var args []interface{}
	stmt := "SELECT * FROM epoch WHERE 1"
	if filter.Range != nil {
		condition := "blockNumber"
		if filter.Range.Unit == Time {
			condition = "blockTime"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY epoch DESC "
	} else {
		stmt += " ORDER BY epoch ASC "
	}
	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

// Get returns the given epoch, or nil if it was never published.
func (db *EpochDB) Get(ctx context.Context, epoch uint64) (*validatorset.NewEpochEvent, error) {
	events, err := db.query(ctx, "SELECT * FROM epoch WHERE epoch = ?", epoch)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

// Latest returns the most recently published epoch, or nil if none.
func (db *EpochDB) Latest(ctx context.Context) (*validatorset.NewEpochEvent, error) {
	events, err := db.query(ctx, "SELECT * FROM epoch ORDER BY epoch DESC LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

func (db *EpochDB) query(ctx context.Context, stmt string, args ...interface{}) ([]*validatorset.NewEpochEvent, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*validatorset.NewEpochEvent
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			epoch       uint64
			blockID     []byte
			blockNumber uint32
			blockTime   uint64
			proposer    []byte
			members     []byte
		)
		if err := rows.Scan(
			&epoch,
			&blockID,
			&blockNumber,
			&blockTime,
			&proposer,
			&members,
		); err != nil {
			return nil, err
		}
		ev := &validatorset.NewEpochEvent{
			Epoch:       epoch,
			BlockID:     conclave.BytesToBytes32(blockID),
			BlockNumber: blockNumber,
			BlockTime:   blockTime,
			Proposer:    conclave.BytesToAddress(proposer),
		}
		if err := rlp.DecodeBytes(members, &ev.Validators); err != nil {
			return nil, errors.Wrap(err, "decode members")
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
