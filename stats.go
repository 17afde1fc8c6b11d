// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dbhash

import (
	"fmt"
)

// ShardStats describes a single shard file.
type ShardStats struct {
	Path      string
	Records   uint64
	DataBytes int64 // excludes the trailing counter
}

// Stats summarizes how records are spread over buckets and shards.
type Stats struct {
	Records      int64
	BucketsUsed  int64
	LongestChain uint64
	IndexSlots   int64
	Shards       []ShardStats
}

// Stats walks the index to report chain occupancy.  It reads every index
// slot, so it is proportional to the size of the index file.
func (t *Table) Stats() (Stats, error) {
	if t.closed {
		return Stats{}, ErrClosed
	}
	st := Stats{
		Records:    t.Len(),
		IndexSlots: t.index.Len(),
	}
	it := t.index.Iter()
	for {
		e, _, ok := it.Next()
		if !ok {
			break
		}
		if e.Empty() {
			continue
		}
		st.BucketsUsed++
		if e.Count > st.LongestChain {
			st.LongestChain = e.Count
		}
	}
	if err := it.Err(); err != nil {
		return Stats{}, fmt.Errorf("index.Iter: %w", err)
	}
	for _, s := range t.shards {
		st.Shards = append(st.Shards, ShardStats{
			Path:      s.Path(),
			Records:   s.Len(),
			DataBytes: s.End(),
		})
	}
	return st, nil
}
