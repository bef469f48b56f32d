// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochdb

// RangeUnit the unit a filter range is expressed in.
type RangeUnit string

const (
	Block RangeUnit = "block"
	Time  RangeUnit = "time"
)

// Range filter range. To is ignored when it precedes From.
type Range struct {
	Unit RangeUnit `json:"unit"`
	From uint64    `json:"from"`
	To   uint64    `json:"to"`
}

// Order sort order of filter results.
type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Options paging options.
type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EpochFilter query over the published epoch log. A nil filter selects
// everything in ascending order.
type EpochFilter struct {
	Range   *Range   `json:"range"`
	Options *Options `json:"options"`
	Order   Order    `json:"order"`
}

const epochTableSchema = `CREATE TABLE IF NOT EXISTS epoch (
	epoch INTEGER PRIMARY KEY,
	blockID BLOB(32),
	blockNumber INTEGER,
	blockTime INTEGER,
	proposer BLOB(20),
	members BLOB
);

CREATE INDEX IF NOT EXISTS epochBlockNumberIndex ON epoch(blockNumber);
CREATE INDEX IF NOT EXISTS epochBlockTimeIndex ON epoch(blockTime);`
