// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package datafile implements a shard file: an append-only file holding many
// singly-linked chains of key/value records, physically interleaved in write
// order.  Chain membership is expressed only through forward pointers, never
// through physical adjacency.
//
// A shard file generally looks like:
//
//	┌───────────────────┐
//	│ record 0          │
//	├───────────────────┤
//	│ record 1          │
//	├───────────────────┤
//	│ ...               │
//	├───────────────────┤
//	│ record n-1        │
//	├───────────────────┤
//	│ trailing counter  │
//	└───────────────────┘
//
// Records are variable length and start with a 40-byte prefix:
//
//	 0    8    16   24   32   40
//	+----+----+----+----+----+---------+-----------+
//	|seq |hash|klen|vlen|next| key...  | value...  |
//	+----+----+----+----+----+---------+-----------+
//
// All fields are little-endian uint64s.  `seq` is the record's 0-based
// sequence number within the shard, and `next` is the offset of the next
// record in the same chain, or 0 if this record is currently the chain's tail.
//
// The 8 bytes following the last record hold the total record count.  When
// another record is appended, those same 8 bytes become its `seq` field, and
// a new trailing counter is written after it.  Reopening a shard therefore
// only needs to read the final 8 bytes of the file.
package datafile
