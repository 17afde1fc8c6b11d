// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"fmt"

	"github.com/bpowers/dbhash/internal/bitset"
)

// CheckReport is the result of a successful Check.
type CheckReport struct {
	Chains    int64
	Reachable int64
	// Orphans are records no chain reaches, left behind when a Put was
	// interrupted before the index was updated.  They are still visible
	// to Iter.
	Orphans int64
}

// Check walks every chain named by the index and verifies that chains are
// intact, end at the recorded tail, live in the right shard, and never share
// records.  Structural problems return ErrCorrupt; records that no chain
// reaches are only counted.
func (t *Table) Check() (CheckReport, error) {
	if t.closed {
		return CheckReport{}, ErrClosed
	}

	seen := make([]*bitset.Bitset, len(t.shards))
	for i, s := range t.shards {
		seen[i] = bitset.New(int64(s.Len()))
	}

	var report CheckReport
	it := t.index.Iter()
	for {
		e, bucket, ok := it.Next()
		if !ok {
			break
		}
		if e.Empty() {
			continue
		}
		if bucket >= t.conf.Buckets {
			return report, fmt.Errorf("index slot %d is beyond the %d configured buckets: %w", bucket, t.conf.Buckets, ErrCorrupt)
		}
		shardNum := bucket % t.conf.Shards
		shard := t.shards[shardNum]

		last := int64(-1)
		err := shard.Walk(e.Head, e.Count, func(off int64, seq uint64) error {
			if seen[shardNum].TestAndSet(int64(seq)) {
				return fmt.Errorf("record %d in %s is on more than one chain: %w", seq, shard.Path(), ErrCorrupt)
			}
			last = off
			return nil
		})
		if err != nil {
			return report, fmt.Errorf("bucket %d: %w", bucket, err)
		}
		if last != e.Tail {
			return report, fmt.Errorf("bucket %d: chain ends at %d, index says %d: %w", bucket, last, e.Tail, ErrCorrupt)
		}
		report.Chains++
	}
	if err := it.Err(); err != nil {
		return report, fmt.Errorf("index.Iter: %w", err)
	}

	for _, records := range seen {
		reached := records.Count()
		report.Reachable += reached
		report.Orphans += records.Len() - reached
	}

	t.logger.Info("checked table",
		"dir", t.dir,
		"chains", report.Chains,
		"reachable", report.Reachable,
		"orphans", report.Orphans)

	return report, nil
}
